// Package server exposes choropleth rendering over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"kuanb/scout-choropleth/cache"
	"kuanb/scout-choropleth/geom"
	"kuanb/scout-choropleth/projection"
	"kuanb/scout-choropleth/scene"
	"kuanb/scout-choropleth/source"
)

const (
	maxViewport    = 8192
	maxBodyBytes   = 16 << 20
	emptyMessage   = "No regions to display"
	contentSVG     = "image/svg+xml"
	contentJSON    = "application/json"
	requestTimeout = 30 * time.Second
)

// Options configure a Server
type Options struct {
	Width       float64
	Height      float64
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
}

// Server renders scenes from a Source on request
type Server struct {
	src     source.Source
	style   scene.Style
	cache   cache.Cache
	opts    Options
	metrics *Metrics
}

// New builds a server. c may be nil to disable caching.
func New(src source.Source, style scene.Style, c cache.Cache, opts Options) *Server {
	if opts.Width <= 0 {
		opts.Width = 960
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	return &Server{
		src:     src,
		style:   style,
		cache:   c,
		opts:    opts,
		metrics: NewMetrics(),
	}
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Router wires the routes and middleware
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/debug/runtime", handleRuntime)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.opts.RateLimit, s.opts.RateBurst))
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/metrics/list", handleMetricList)
		// {metric} may carry a .svg suffix
		r.Get("/map/{metric}", s.handleMap)
		r.Get("/map/{metric}/legend", s.handleLegend)
		r.Get("/map/{metric}/hit", s.handleHit)
		r.Post("/render/{metric}", s.handleRender)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	case <-ctx.Done():
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		<-errc
		return nil
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleMetricList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]geom.Metric{"metrics": geom.Metrics})
}

type mapRequest struct {
	metric  geom.Metric
	width   float64
	height  float64
	filters source.Filters
}

func (s *Server) parseRequest(r *http.Request, metricParam string) (mapRequest, error) {
	m, err := geom.ParseMetric(metricParam)
	if err != nil {
		return mapRequest{}, err
	}
	q := r.URL.Query()
	w, err := dimension(q.Get("width"), s.opts.Width)
	if err != nil {
		return mapRequest{}, eris.Wrap(err, "width")
	}
	h, err := dimension(q.Get("height"), s.opts.Height)
	if err != nil {
		return mapRequest{}, eris.Wrap(err, "height")
	}
	return mapRequest{metric: m, width: w, height: h, filters: source.ParseRegions(q.Get("regions"))}, nil
}

func dimension(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Errorf("%q is not a number", raw)
	}
	if !(v > 0 && v <= maxViewport) {
		return 0, eris.Errorf("%g outside (0, %d]", v, maxViewport)
	}
	return v, nil
}

// build fetches the snapshot and builds the scene, recording metrics
func (s *Server) build(ctx context.Context, req mapRequest, format string) (*scene.Scene, error) {
	start := time.Now()
	defer func() {
		s.metrics.RenderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	}()

	fc, err := s.src.FetchFeatureCollection(ctx, req.filters)
	if err != nil {
		s.metrics.RendersTotal.WithLabelValues(string(req.metric), outcomeError).Inc()
		return nil, eris.Wrap(err, "server: fetch snapshot")
	}
	return s.buildFrom(fc, req)
}

func (s *Server) buildFrom(fc geom.FeatureCollection, req mapRequest) (*scene.Scene, error) {
	sc, err := scene.Build(fc, req.metric, req.width, req.height, s.style)
	if err != nil {
		outcome := outcomeError
		if eris.Is(err, projection.ErrNoRenderableGeometry) {
			outcome = outcomeEmpty
		}
		s.metrics.RendersTotal.WithLabelValues(string(req.metric), outcome).Inc()
		return nil, err
	}
	if n := len(sc.Skipped); n > 0 {
		s.metrics.SkippedFeatures.WithLabelValues(string(req.metric)).Add(float64(n))
	}
	s.metrics.RendersTotal.WithLabelValues(string(req.metric), outcomeOK).Inc()
	return sc, nil
}

func (s *Server) cached(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("server: cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		s.metrics.CacheMisses.Inc()
		return nil, false
	}
	s.metrics.CacheHits.Inc()
	return b, true
}

func (s *Server) store(ctx context.Context, key string, b []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, b); err != nil {
		zap.L().Warn("server: cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "metric")
	asSVG := strings.HasSuffix(param, ".svg")
	param = strings.TrimSuffix(param, ".svg")

	req, err := s.parseRequest(r, param)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind, contentType := "json", contentJSON
	if asSVG {
		kind, contentType = "svg", contentSVG
	}
	key := cache.Key(kind, req.metric, req.width, req.height, req.filters.Key())
	if b, ok := s.cached(r.Context(), key); ok {
		s.metrics.RendersTotal.WithLabelValues(string(req.metric), outcomeCached).Inc()
		writeBytes(w, http.StatusOK, contentType, b)
		return
	}

	sc, err := s.build(r.Context(), req, kind)
	if err != nil {
		s.writeBuildError(w, err, req, asSVG)
		return
	}

	var buf bytes.Buffer
	if asSVG {
		err = scene.WriteSVG(&buf, sc)
	} else {
		err = json.NewEncoder(&buf).Encode(sc)
	}
	if err != nil {
		zap.L().Error("server: encode scene", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	s.store(r.Context(), key, buf.Bytes())
	writeBytes(w, http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r, chi.URLParam(r, "metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc, err := s.build(r.Context(), req, "legend")
	if err != nil {
		s.writeBuildError(w, err, req, false)
		return
	}
	writeJSON(w, http.StatusOK, sc.Legend)
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r, chi.URLParam(r, "metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}

	sc, err := s.build(r.Context(), req, "hit")
	if err != nil {
		s.writeBuildError(w, err, req, false)
		return
	}
	tip, ok := sc.TooltipAt(orb.Point{x, y})
	if !ok {
		writeError(w, http.StatusNotFound, "no region at point")
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r, chi.URLParam(r, "metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	fc, err := geom.DecodeGeoJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := fc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fc = req.filters.Apply(fc)

	asSVG := r.URL.Query().Get("format") == "svg"
	sc, err := s.buildFrom(fc, req)
	if err != nil {
		s.writeBuildError(w, err, req, asSVG)
		return
	}
	if asSVG {
		var buf bytes.Buffer
		if err := scene.WriteSVG(&buf, sc); err != nil {
			writeError(w, http.StatusInternalServerError, "encode failed")
			return
		}
		writeBytes(w, http.StatusOK, contentSVG, buf.Bytes())
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// writeBuildError maps scene build failures onto responses. Missing geometry
// is an expected state and gets the explicit empty map.
func (s *Server) writeBuildError(w http.ResponseWriter, err error, req mapRequest, asSVG bool) {
	switch {
	case eris.Is(err, projection.ErrNoRenderableGeometry):
		if asSVG {
			var buf bytes.Buffer
			if werr := scene.WriteEmptySVG(&buf, req.width, req.height, emptyMessage); werr == nil {
				writeBytes(w, http.StatusUnprocessableEntity, contentSVG, buf.Bytes())
				return
			}
		}
		writeError(w, http.StatusUnprocessableEntity, emptyMessage)
	case eris.Is(err, context.Canceled), eris.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		zap.L().Error("server: build scene",
			zap.String("metric", string(req.metric)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "render failed")
	}
}

func writeBytes(w http.ResponseWriter, status int, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
