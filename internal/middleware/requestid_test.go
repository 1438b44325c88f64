package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	var capturedID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/rank/score", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if capturedID == "" {
		t.Error("expected request ID in context, got empty string")
	}
	if got := rr.Header().Get(RequestIDHeader); got != capturedID {
		t.Errorf("response header %q does not match context ID %q", got, capturedID)
	}
}

func TestRequestID_UsesExistingHeader(t *testing.T) {
	existingID := "existing-request-id-123"
	var capturedID string

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/rank/stats", nil)
	req.Header.Set(RequestIDHeader, existingID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if capturedID != existingID {
		t.Errorf("expected request ID %q, got %q", existingID, capturedID)
	}
	if got := rr.Header().Get(RequestIDHeader); got != existingID {
		t.Errorf("expected response header %q, got %q", existingID, got)
	}
}

func TestRequestID_ReplacesInvalidHeader(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "oversized", id: strings.Repeat("x", maxRequestIDLength+1)},
		{name: "control characters", id: "bad\nid"},
		{name: "non-ascii", id: "идентификатор"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/rank/stats", nil)
			req.Header.Set(RequestIDHeader, tt.id)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if capturedID == tt.id {
				t.Error("invalid inbound ID must be replaced")
			}
			if capturedID == "" {
				t.Error("expected a generated ID")
			}
			if got := rr.Header().Get(RequestIDHeader); got != capturedID {
				t.Errorf("response header %q does not match context ID %q", got, capturedID)
			}
		})
	}
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty string, got %q", id)
	}
}
