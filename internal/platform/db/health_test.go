package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

func doHealthCheck(t *testing.T, store Pinger) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	e.GET("/health/db", HealthHandler(store, nil))

	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := doHealthCheck(t, &fakePinger{})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec, body := doHealthCheck(t, &fakePinger{err: errors.New("connection refused")})

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status field = %v, want unhealthy", body["status"])
	}
	if body["error"] == "" {
		t.Error("expected the ping error in the response")
	}
}

func TestHealthHandler_NoPoolOmitsStats(t *testing.T) {
	_, body := doHealthCheck(t, &fakePinger{})

	if _, ok := body["pool"]; ok {
		t.Error("pool stats should be omitted when no pool is configured")
	}
}
