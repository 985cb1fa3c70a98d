package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/gin-gonic/gin"
)

// With no database connected the readiness gate answers 503, but CORS runs
// first: browsers must still see the CORS headers during the startup window.
func TestRouterCorsHeadersDuringStartupWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := buildRouter(config.GetLogger())

	// Preflight is answered by the CORS middleware itself.
	req := httptest.NewRequest(http.MethodOptions, "/accounting/periods", nil)
	req.Header.Set("Origin", "http://pos.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("preflight response missing Access-Control-Allow-Origin")
	}

	// A real request during startup gets the 503, with CORS headers attached.
	req = httptest.NewRequest(http.MethodGet, "/accounting/periods", nil)
	req.Header.Set("Origin", "http://pos.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want %d while database is down", w.Code, http.StatusServiceUnavailable)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("503 during startup missing Access-Control-Allow-Origin")
	}
}

func TestRouterHealthBypassesReadinessGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := buildRouter(config.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("health status %d, want %d without a database", w.Code, http.StatusNoContent)
	}
}
