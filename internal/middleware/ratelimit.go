package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/festa/internal/model"
)

// limiterEntry はキーごとのリミッターと最終利用時刻を保持する。
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter はキー単位のトークンバケット型レートリミッター。
// 認証済みAPIは踊り子ID、認証エンドポイントはクライアントIPをキーとする。
type RateLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter は1分あたりreqPerMin件を上限とするリミッターを生成し、
// 古いエントリを掃除するバックグラウンドループを起動する。
func NewRateLimiter(reqPerMin int) *RateLimiter {
	rl := &RateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(reqPerMin) / 60.0),
		burst:   reqPerMin,
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow はキーに対するリクエストを許可するかどうかを判定する。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	entry, ok := rl.entries[key]
	rl.mu.RUnlock()

	if !ok {
		rl.mu.Lock()
		// 書き込みロック取得までの間に他のgoroutineが登録している可能性がある
		entry, ok = rl.entries[key]
		if !ok {
			entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
			rl.entries[key] = entry
		}
		entry.lastSeen = time.Now()
		rl.mu.Unlock()
		return entry.limiter.Allow()
	}

	rl.mu.Lock()
	entry.lastSeen = time.Now()
	rl.mu.Unlock()
	return entry.limiter.Allow()
}

// Stop はバックグラウンドの掃除ループを停止する。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// cleanupLoop は一定時間利用のないエントリを定期的に削除する。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-30 * time.Minute)
			rl.mu.Lock()
			for key, entry := range rl.entries {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// NewDancerRateLimitMiddleware は認証済み踊り子ごとのレート制限ミドルウェアを返す。
// セッションミドルウェアの内側に配置する前提で、認証情報がない場合はIPにフォールバックする。
func NewDancerRateLimitMiddleware(rl *RateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if auth, ok := AuthFromContext(r.Context()); ok {
				key = "dancer:" + auth.Dancer.ID
			}
			if !rl.Allow(key) {
				writeRateLimitResponse(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewIPRateLimitMiddleware はクライアントIPごとのレート制限ミドルウェアを返す。
// ログイン・パスワードリセットなど未認証エンドポイントの総当たり対策に用いる。
func NewIPRateLimitMiddleware(rl *RateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow("ip:" + clientIP(r)) {
				writeRateLimitResponse(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP はリクエスト元のIPアドレスを返す。ポート部は除去する。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitResponse(w http.ResponseWriter, r *http.Request) {
	slog.Warn("レート制限を超過しました",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	w.Header().Set("Retry-After", "60")
	WriteErrorResponse(w, http.StatusTooManyRequests, &model.APIError{
		Code:     "RATE_LIMIT_EXCEEDED",
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく時間をおいてから再度お試しください。",
	})
}
