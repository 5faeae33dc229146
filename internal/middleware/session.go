// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/festa/internal/model"
)

// SessionCookieName はセッションIDを運ぶCookieの名前。
const SessionCookieName = "festa_auth"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// authContextKey はリクエストコンテキストに認証主体を格納するためのキー。
var authContextKey = contextKey("auth_state")

// SessionStore はセッションの検索と破棄に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

// PrincipalResolver はセッションから認証主体を再構築するインターフェース。
// repository.DancerRepositoryの部分集合として定義する。
type PrincipalResolver interface {
	FindByIDAndTeam(ctx context.Context, dancerID, teamID string) (*model.Dancer, *model.Team, error)
}

// NewSessionMiddleware はCookieのセッションIDから認証主体を毎リクエスト解決する
// ミドルウェアを返す。踊り子はセッション発行後に退会・承認取消されている可能性が
// あるため、キャッシュせず都度チームとJOINして再取得する。
// 踊り子が消えた宙吊りセッションはその場で破棄し、401を返す。
func NewSessionMiddleware(sessions SessionStore, resolver PrincipalResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := sessions.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("セッションの取得に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			dancer, team, err := resolver.FindByIDAndTeam(r.Context(), session.DancerID, session.TeamID)
			if err != nil {
				slog.Error("認証主体の再取得に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if dancer == nil {
				// 踊り子が退会済み。宙吊りセッションを破棄する。
				if err := sessions.DeleteByID(r.Context(), session.ID); err != nil {
					slog.Warn("宙吊りセッションの破棄に失敗しました",
						slog.String("session_id", session.ID),
						slog.String("error", err.Error()),
					)
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := ContextWithAuth(r.Context(), &model.AuthState{Dancer: dancer, Team: team})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthFromContext はリクエストコンテキストから認証主体を取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func AuthFromContext(ctx context.Context) (*model.AuthState, bool) {
	auth, ok := ctx.Value(authContextKey).(*model.AuthState)
	if !ok || auth == nil || auth.Dancer == nil {
		return nil, false
	}
	return auth, true
}

// ContextWithAuth はコンテキストに認証主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAuth(ctx context.Context, auth *model.AuthState) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}
