package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kuanb/scout-choropleth/cache"
	"kuanb/scout-choropleth/server"
	"kuanb/scout-choropleth/source"
)

var (
	servePort     int
	statsInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve choropleth maps over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		style, err := cfg.Map.Style()
		if err != nil {
			return err
		}

		src, closeSrc, err := source.Open(ctx, cfg.Source.Options())
		if err != nil {
			return err
		}
		defer closeSrc()

		var c cache.Cache
		if rc := cache.OpenRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL()); rc != nil {
			defer rc.Close()
			if err := rc.Ping(ctx); err != nil {
				zap.L().Warn("redis unavailable, using in-process cache", zap.Error(err))
				c = cache.NewMemory(cfg.Cache.TTL(), cfg.Cache.MemoryMaxEntries)
			} else {
				c = rc
			}
		} else {
			c = cache.NewMemory(cfg.Cache.TTL(), cfg.Cache.MemoryMaxEntries)
		}

		srv := server.New(src, style, c, server.Options{
			Width:       cfg.Map.Width,
			Height:      cfg.Map.Height,
			RateLimit:   cfg.Server.RateLimit,
			RateBurst:   cfg.Server.RateBurst,
			CORSOrigins: cfg.Server.CORSOrigins,
		})

		if statsInterval > 0 {
			go server.LogRuntimeMetrics(ctx, statsInterval)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().DurationVar(&statsInterval, "stats-interval", 30*time.Second, "runtime stats log interval (0 disables)")
	rootCmd.AddCommand(serveCmd)
}
