package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
)

type fakeCounterStore struct {
	counts map[string]int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]int64)}
}

func (f *fakeCounterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func joinRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/join", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.7:52100"
	return req
}

func TestJoinRateLimitAllowsUnderLimit(t *testing.T) {
	store := newFakeCounterStore()
	policy := NewJoinRateLimitPolicy("join", time.Minute, 2, 2)
	handler := JoinRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, joinRequest(`{"invite_code":"HC-ABC123"}`))
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, resp.Code)
		}
	}
}

func TestJoinRateLimitIPLimitTriggers(t *testing.T) {
	store := newFakeCounterStore()
	policy := NewJoinRateLimitPolicy("join", time.Minute, 1, 0)
	handler := JoinRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, joinRequest(`{"invite_code":"HC-ABC123"}`))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first attempt to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, joinRequest(`{"invite_code":"HC-ZZZ999"}`))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", second.Code)
	}

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeRateLimit, payload.Error.Code)
	}
}

func TestJoinRateLimitCodeLimitTracksNormalizedCode(t *testing.T) {
	store := newFakeCounterStore()
	policy := NewJoinRateLimitPolicy("join", time.Minute, 0, 2)
	handler := JoinRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Case differences collapse onto one counter.
	bodies := []string{
		`{"invite_code":"HC-ABC123"}`,
		`{"invite_code":"hc-abc123"}`,
		`{"invite_code":" HC-ABC123 "}`,
	}
	codes := make([]int, 0, len(bodies))
	for _, body := range bodies {
		req := joinRequest(body)
		req.RemoteAddr = "10.0.0.8:52100"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two attempts to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third attempt blocked, got %v", codes)
	}
}

func TestJoinRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewJoinRateLimitPolicy("join", 0, 0, 0)
	var called bool
	handler := JoinRateLimit(policy, newFakeCounterStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), joinRequest(`{}`))
	if !called {
		t.Fatalf("disabled policy should not intercept requests")
	}
}
