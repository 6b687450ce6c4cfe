package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// RuntimeMetrics holds memory and goroutine statistics
type RuntimeMetrics struct {
	Goroutines   int     `json:"goroutines"`
	AllocMB      float64 `json:"alloc_mb"`       // currently allocated heap
	TotalAllocMB float64 `json:"total_alloc_mb"` // cumulative allocated (includes freed)
	SysMB        float64 `json:"sys_mb"`         // total memory from OS
	HeapObjects  uint64  `json:"heap_objects"`
	NumGC        uint32  `json:"num_gc"`
}

// ReadRuntimeMetrics collects current runtime statistics
func ReadRuntimeMetrics() RuntimeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeMetrics{
		Goroutines:   runtime.NumGoroutine(),
		AllocMB:      float64(m.Alloc) / 1024 / 1024,
		TotalAllocMB: float64(m.TotalAlloc) / 1024 / 1024,
		SysMB:        float64(m.Sys) / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
		NumGC:        m.NumGC,
	}
}

// LogRuntimeMetrics logs runtime statistics every interval until ctx is done
func LogRuntimeMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := ReadRuntimeMetrics()
			zap.L().Info("runtime",
				zap.Int("goroutines", m.Goroutines),
				zap.Float64("alloc_mb", m.AllocMB),
				zap.Float64("sys_mb", m.SysMB),
				zap.Uint64("heap_objects", m.HeapObjects),
				zap.Uint32("gc_cycles", m.NumGC),
			)
		}
	}
}

func handleRuntime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ReadRuntimeMetrics())
}
