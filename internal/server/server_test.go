package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return New(handler, Config{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func waitForListener(t *testing.T, s *Server) string {
	t.Helper()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.listener != nil
	}, 2*time.Second, 10*time.Millisecond)
	return s.Addr()
}

func TestServer_ServesAndStopsComponentsInReverseOrder(t *testing.T) {
	s := testServer(t)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"storage", "publisher", "metrics"} {
		s.OnShutdown(name, func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunContext(ctx) }()

	addr := waitForListener(t, s)
	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Equal(t, []string{"metrics", "publisher", "storage"}, order)
}

func TestServer_ComponentErrorsAreJoined(t *testing.T) {
	s := testServer(t)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	s.OnShutdown("a", func(context.Context) error { return errA })
	s.OnShutdown("ok", func(context.Context) error { return nil })
	s.OnShutdown("b", func(context.Context) error { return errB })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunContext(ctx) }()

	waitForListener(t, s)
	cancel()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}
