package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func readyz(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	h.Readyz(rec, req)

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec.Code, response
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(NamedCheck{Name: "storage", Checker: &mockHealthChecker{err: errors.New("down")}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz_AllHealthy(t *testing.T) {
	h := NewHealthHandler(
		NamedCheck{Name: "storage:redis", Checker: &mockHealthChecker{}},
		NamedCheck{Name: "analytics:redis", Checker: &mockHealthChecker{}},
	)

	code, response := readyz(t, h)

	if code != http.StatusOK {
		t.Errorf("expected status 200, got %d", code)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
	if response.Checks["storage:redis"] != "ok" {
		t.Errorf("expected storage check 'ok', got %s", response.Checks["storage:redis"])
	}
	if response.Checks["analytics:redis"] != "ok" {
		t.Errorf("expected analytics check 'ok', got %s", response.Checks["analytics:redis"])
	}
}

func TestHealthHandler_Readyz_StorageUnhealthy(t *testing.T) {
	h := NewHealthHandler(
		NamedCheck{Name: "storage:postgres", Checker: &mockHealthChecker{err: errors.New("connection refused")}},
	)

	code, response := readyz(t, h)

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", code)
	}
	if response.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got %s", response.Status)
	}
	if response.Checks["storage:postgres"] != "error: connection refused" {
		t.Errorf("unexpected storage check: %s", response.Checks["storage:postgres"])
	}
}

func TestHealthHandler_Readyz_NotConfigured(t *testing.T) {
	h := NewHealthHandler(
		NamedCheck{Name: "storage:memory", Checker: &mockHealthChecker{}},
		NamedCheck{Name: "email", Checker: nil},
	)

	code, response := readyz(t, h)

	if code != http.StatusOK {
		t.Errorf("expected status 200 when optional deps are missing, got %d", code)
	}
	if response.Checks["email"] != "not configured" {
		t.Errorf("expected 'not configured', got %s", response.Checks["email"])
	}
}
