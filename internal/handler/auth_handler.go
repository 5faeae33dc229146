package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/festa/internal/auth"
	"github.com/hitoshi/festa/internal/middleware"
	"github.com/hitoshi/festa/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	RegisterTeam(ctx context.Context, name string) (*model.Team, error)
	ListTeams(ctx context.Context) ([]*model.Team, error)
	Register(ctx context.Context, input auth.RegisterInput) (*model.Dancer, error)
	Login(ctx context.Context, input auth.LoginInput) (*model.Dancer, *model.Session, error)
	ResetPassword(ctx context.Context, input auth.ResetPasswordInput) error
	Logout(ctx context.Context, sessionID string) error
}

// AuthMetrics は認証ハンドラーが記録するメトリクス。nilでもよい。
type AuthMetrics interface {
	RecordLogin()
	RecordLoginFailure(reason string)
	RecordRegistration(role string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はチーム登録・踊り子登録・ログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetrics
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetrics, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

type registerTeamRequest struct {
	Name string `json:"name"`
}

type registerRequest struct {
	TeamID       string `json:"team_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Password     string `json:"password"`
	SecretPhrase string `json:"secret_phrase"`
}

type loginRequest struct {
	TeamID   string `json:"team_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	TeamID       string `json:"team_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	SecretPhrase string `json:"secret_phrase"`
	NewPassword  string `json:"new_password"`
}

// RegisterTeam はチームを登録する。
// POST /auth/teams
func (h *AuthHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	var req registerTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.service.RegisterTeam(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTeamResponse(team))
}

// ListTeams は登録済みチームの一覧を返す。ログイン画面のチーム選択に使う。
// GET /auth/teams
func (h *AuthHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.ListTeams(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]teamResponse, 0, len(teams))
	for _, team := range teams {
		res = append(res, toTeamResponse(team))
	}
	writeJSON(w, http.StatusOK, res)
}

// Register は踊り子を登録する。代表は自動承認、それ以外は承認待ちになる。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dancer, err := h.service.Register(r.Context(), auth.RegisterInput{
		TeamID:       req.TeamID,
		Name:         req.Name,
		Role:         model.Role(req.Role),
		Password:     req.Password,
		SecretPhrase: req.SecretPhrase,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration(string(dancer.Role))
	}
	writeJSON(w, http.StatusCreated, toDancerResponse(dancer))
}

// Login は認証してセッションCookieを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dancer, session, err := h.service.Login(r.Context(), auth.LoginInput{
		TeamID:   req.TeamID,
		Name:     req.Name,
		Role:     model.Role(req.Role),
		Password: req.Password,
	})
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure(loginFailureReason(err))
		}
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)

	if h.metrics != nil {
		h.metrics.RecordLogin()
	}
	writeJSON(w, http.StatusOK, toDancerResponse(dancer))
}

// ResetPassword は秘密の合言葉によるパスワード再設定を処理する。
// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.ResetPassword(r.Context(), auth.ResetPasswordInput{
		TeamID:       req.TeamID,
		Name:         req.Name,
		Role:         model.Role(req.Role),
		SecretPhrase: req.SecretPhrase,
		NewPassword:  req.NewPassword,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Logout はセッションを破棄しCookieをクリアする。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			// ログアウト失敗してもCookieはクリアする
			h.setSessionCookie(w, "", -1)
			handleServiceError(w, logoutErr)
			return
		}
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在ログイン中の踊り子とチームを返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authState, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"dancer": toDancerResponse(authState.Dancer),
		"team":   toTeamResponse(authState.Team),
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// loginFailureReason はログイン失敗エラーからメトリクス用の理由ラベルを導出する。
func loginFailureReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return strings.ToLower(apiErr.Code)
	}
	return "internal_error"
}
