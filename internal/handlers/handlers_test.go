package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/mcpbridge/internal/common"
)

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestVersionHandler(t *testing.T) {
	h := NewVersionHandler(testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"version", "build", "git_commit"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing %s in version response", key)
		}
	}
}

func TestComputeMultiply(t *testing.T) {
	h := NewComputeHandler(testLogger())

	rec := httptest.NewRecorder()
	h.Multiply(rec, httptest.NewRequest(http.MethodGet, "/api/compute/multiply?a=2.5&b=4", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]float64
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["result"] != 10 {
		t.Errorf("expected 10, got %v", body["result"])
	}
}

func TestComputeMultiply_BadOperands(t *testing.T) {
	h := NewComputeHandler(testLogger())

	rec := httptest.NewRecorder()
	h.Multiply(rec, httptest.NewRequest(http.MethodGet, "/api/compute/multiply?a=x&b=2", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestEcho(t *testing.T) {
	h := NewEchoHandler(testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(`{"k": "v"}`))
	req.Header.Set("X-MCP-Source", "true")
	rec := httptest.NewRecorder()
	h.Echo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Received map[string]any `json:"received"`
		Source   string         `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Received["k"] != "v" {
		t.Errorf("unexpected payload: %v", body.Received)
	}
	if body.Source != "true" {
		t.Errorf("expected provenance marker echoed, got %q", body.Source)
	}
}

func TestEcho_InvalidJSON(t *testing.T) {
	h := NewEchoHandler(testLogger())

	rec := httptest.NewRecorder()
	h.Echo(rec, httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("{broken")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rec.Code)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad input")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "bad input" || body["status"] != "error" {
		t.Errorf("unexpected error body: %v", body)
	}
}
