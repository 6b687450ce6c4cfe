package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeEndpoint(t *testing.T) {
	_, h := newTestServer(t, Options{})
	rec := get(h, "/debug/runtime")
	require.Equal(t, http.StatusOK, rec.Code)

	var m RuntimeMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Positive(t, m.Goroutines)
	assert.Positive(t, m.SysMB)
}

func TestLogRuntimeMetrics_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		LogRuntimeMetrics(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("logger did not stop")
	}
}
