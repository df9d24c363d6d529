package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/condoboard/assembly-vote/models"
)

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusCreated, map[string]string{"key": "value"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), `"key":"value"`) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusConflict, "duplicate vote")

	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Conflict") || !strings.Contains(w.Body.String(), "duplicate vote") {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

func TestParseJSONBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"block":"A","unit":"101"}`))
	var body models.CheckInRequest
	if err := ParseJSONBody(req, &body); err != nil {
		t.Fatalf("ParseJSONBody failed: %v", err)
	}
	if body.Block != "A" || body.Unit != "101" {
		t.Errorf("Unexpected parse result: %+v", body)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`not json`))
	if err := ParseJSONBody(req, &body); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	// Preflight short-circuits
	req := httptest.NewRequest("OPTIONS", "/vote/cast", nil)
	req.Header.Set("Origin", "http://hall.local")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", w.Code)
	}
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "http://hall.local" {
		t.Errorf("Expected echoed origin, got %q", origin)
	}

	// Normal requests pass through with headers set
	req = httptest.NewRequest("GET", "/public/status", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTeapot {
		t.Errorf("Expected wrapped handler to run, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected CORS headers on normal requests")
	}
}
