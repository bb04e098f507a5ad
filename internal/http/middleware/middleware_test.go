package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iago/civic-issues-back/internal/auth"
	"github.com/iago/civic-issues-back/internal/domain"
)

type brokenResolver struct{}

func (brokenResolver) Resolve(context.Context, string) (domain.PrincipalRecord, error) {
	return domain.PrincipalRecord{}, errors.New("dial tcp: connection refused")
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var payload errorEnvelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return payload
}

func TestAuthStoresPrincipal(t *testing.T) {
	resolver := auth.NewStaticResolver(map[string]domain.PrincipalRecord{
		"tok-admin": {ID: "admin-1", Role: domain.RoleAdmin},
	})

	var got domain.PrincipalRecord
	handler := RequestID(Auth(resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	request := httptest.NewRequest(http.MethodGet, "/api/analytics/overview", nil)
	request.Header.Set("Authorization", "bearer tok-admin")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if got.ID != "admin-1" {
		t.Fatalf("expected admin-1 on context, got %+v", got)
	}
}

func TestAuthRejects(t *testing.T) {
	static := auth.NewStaticResolver(map[string]domain.PrincipalRecord{
		"tok-admin": {ID: "admin-1", Role: domain.RoleAdmin},
	})

	tests := []struct {
		name       string
		resolver   auth.Resolver
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "missing header", resolver: static, header: "", wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "wrong scheme", resolver: static, header: "Basic abc", wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "empty token", resolver: static, header: "Bearer   ", wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "unknown token", resolver: static, header: "Bearer other", wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "store down", resolver: brokenResolver{}, header: "Bearer tok", wantStatus: http.StatusServiceUnavailable, wantCode: "source_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			handler := RequestID(Auth(tt.resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			})))

			request := httptest.NewRequest(http.MethodGet, "/api/analytics/overview", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			request.Header.Set("X-Request-Id", "req-123")
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if nextCalled {
				t.Fatalf("expected chain to stop")
			}
			if recorder.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
			payload := decodeEnvelope(t, recorder)
			if payload.Error.Code != tt.wantCode || payload.RequestID != "req-123" {
				t.Fatalf("unexpected envelope %+v", payload)
			}
			if strings.Contains(recorder.Body.String(), "connection refused") {
				t.Fatalf("expected internal error text to stay out of the response")
			}
		})
	}
}

func TestRequestIDSanitizesHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	request.Header.Set("X-Request-Id", "bad id\twith spaces")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	if seen == "" || strings.Contains(seen, " ") {
		t.Fatalf("expected generated request id, got %q", seen)
	}

	request = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	request.Header.Set("X-Request-Id", "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	if seen != "abc-123" {
		t.Fatalf("expected caller request id to be kept, got %q", seen)
	}
}

func TestVisitorLimiters(t *testing.T) {
	limiters := newVisitorLimiters(1, 2)
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	if !limiters.allow("10.0.0.1", now) || !limiters.allow("10.0.0.1", now) {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if limiters.allow("10.0.0.1", now) {
		t.Fatalf("expected third request in the same instant to be limited")
	}
	if !limiters.allow("10.0.0.2", now) {
		t.Fatalf("expected other visitor to have its own bucket")
	}

	limiters.sweep(now.Add(visitorIdleTimeout + time.Second))
	if len(limiters.visitors) != 0 {
		t.Fatalf("expected idle visitors to be swept, got %d", len(limiters.visitors))
	}
}

func TestTraceLogsStatus(t *testing.T) {
	var buffer bytes.Buffer
	logger := log.New(&buffer, "", 0)
	handler := RequestID(Trace(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})))

	request := httptest.NewRequest(http.MethodGet, "/api/analytics/departments", nil)
	request.Header.Set("X-Request-Id", "trace-1")
	handler.ServeHTTP(httptest.NewRecorder(), request)

	line := buffer.String()
	if !strings.Contains(line, "request_id=trace-1") || !strings.Contains(line, "status=403") {
		t.Fatalf("unexpected trace line %q", line)
	}
}
