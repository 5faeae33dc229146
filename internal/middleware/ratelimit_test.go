package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/festa/internal/model"
)

func authedRequest(dancerID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/schedules", nil)
	ctx := ContextWithAuth(req.Context(), &model.AuthState{
		Dancer: &model.Dancer{ID: dancerID, TeamID: "team-1"},
		Team:   &model.Team{ID: "team-1"},
	})
	return req.WithContext(ctx)
}

func TestDancerRateLimit_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(5)
	defer rl.Stop()

	mw := NewDancerRateLimitMiddleware(rl)

	callCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("dancer-1"))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if callCount != 5 {
		t.Errorf("handler call count = %d, want 5", callCount)
	}
}

func TestDancerRateLimit_Returns429WhenExceeded(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()

	mw := NewDancerRateLimitMiddleware(rl)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("dancer-429"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("dancer-429"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header to be present")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["code"] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want %q", body["code"], "RATE_LIMIT_EXCEEDED")
	}
}

func TestDancerRateLimit_IsolatesDancers(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	mw := NewDancerRateLimitMiddleware(rl)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, authedRequest("dancer-A"))
	if wA.Result().StatusCode != http.StatusOK {
		t.Errorf("dancer-A first request: status = %d, want %d", wA.Result().StatusCode, http.StatusOK)
	}

	wA2 := httptest.NewRecorder()
	handler.ServeHTTP(wA2, authedRequest("dancer-A"))
	if wA2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("dancer-A second request: status = %d, want %d", wA2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// 別の踊り子はdancer-Aの消費に影響されない
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, authedRequest("dancer-B"))
	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("dancer-B first request: status = %d, want %d", wB.Result().StatusCode, http.StatusOK)
	}
}

func TestIPRateLimit_LimitsByRemoteAddr(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	mw := NewIPRateLimitMiddleware(rl)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req1.RemoteAddr = "203.0.113.7:51234"
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)
	if w1.Result().StatusCode != http.StatusOK {
		t.Errorf("first request: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
	}

	// 同じIPの2回目はポートが違っても制限される
	req2 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req2.RemoteAddr = "203.0.113.7:51999"
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}

	req3 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req3.RemoteAddr = "198.51.100.1:40000"
	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, req3)
	if w3.Result().StatusCode != http.StatusOK {
		t.Errorf("other IP: status = %d, want %d", w3.Result().StatusCode, http.StatusOK)
	}
}

func TestIPRateLimit_IndependentFromDancerLimit(t *testing.T) {
	generalRL := NewRateLimiter(1)
	defer generalRL.Stop()
	authRL := NewRateLimiter(1)
	defer authRL.Stop()

	generalHandler := NewDancerRateLimitMiddleware(generalRL)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	authHandler := NewIPRateLimitMiddleware(authRL)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 一般リミットのバーストを消費
	w1 := httptest.NewRecorder()
	generalHandler.ServeHTTP(w1, authedRequest("dancer-indep"))

	// 認証エンドポイントのリミットは別勘定
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.10:12345"
	w2 := httptest.NewRecorder()
	authHandler.ServeHTTP(w2, req)
	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("auth request should still be allowed: status = %d, want %d",
			w2.Result().StatusCode, http.StatusOK)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(10)
	rl.Stop()
	rl.Stop()
}

func TestClientIP_StripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:8080"
	if ip := clientIP(req); ip != "203.0.113.5" {
		t.Errorf("clientIP = %q, want %q", ip, "203.0.113.5")
	}
}

func TestDancerRateLimit_UnauthenticatedFallsBackToIP(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	mw := NewDancerRateLimitMiddleware(rl)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/schedules", nil)
	req.RemoteAddr = "203.0.113.99:1000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/schedules", nil)
	req2.RemoteAddr = "203.0.113.99:2000"
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}
}
