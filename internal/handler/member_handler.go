package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/member"
	"github.com/hitoshi/festa/internal/middleware"
	"github.com/hitoshi/festa/internal/model"
)

// MemberServiceInterface はメンバーハンドラーが必要とするサービスインターフェース。
type MemberServiceInterface interface {
	List(ctx context.Context, teamID string) ([]*model.Dancer, error)
	Get(ctx context.Context, teamID, dancerID string) (*model.Dancer, error)
	ToggleApproval(ctx context.Context, actor *model.Dancer, dancerID string, approve bool) (*model.Dancer, error)
	ChangeRole(ctx context.Context, actor *model.Dancer, dancerID string, role model.Role) (*model.Dancer, error)
	UpdateProfile(ctx context.Context, actor *model.Dancer, input member.UpdateProfileInput) (*model.Dancer, error)
	Withdraw(ctx context.Context, actor *model.Dancer) error
}

// MemberHandler はメンバー管理のHTTPハンドラー。
type MemberHandler struct {
	service MemberServiceInterface
	config  AuthHandlerConfig
}

// NewMemberHandler はMemberHandlerを生成する。
func NewMemberHandler(service MemberServiceInterface, config AuthHandlerConfig) *MemberHandler {
	return &MemberHandler{
		service: service,
		config:  config,
	}
}

type approvalRequest struct {
	Approve bool `json:"approve"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type updateProfileRequest struct {
	Name      string  `json:"name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// List はチームのメンバー一覧を返す。
// GET /api/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	dancers, err := h.service.List(r.Context(), auth.Dancer.TeamID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]dancerResponse, 0, len(dancers))
	for _, d := range dancers {
		res = append(res, toDancerResponse(d))
	}
	writeJSON(w, http.StatusOK, res)
}

// Get はメンバー詳細を返す。
// GET /api/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	dancer, err := h.service.Get(r.Context(), auth.Dancer.TeamID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDancerResponse(dancer))
}

// UpdateApproval はメンバーの承認・承認取消を処理する。
// PUT /api/members/{id}/approval
func (h *MemberHandler) UpdateApproval(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req approvalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dancer, err := h.service.ToggleApproval(r.Context(), auth.Dancer, chi.URLParam(r, "id"), req.Approve)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDancerResponse(dancer))
}

// ChangeRole はメンバーの役職を変更する。代表のみ可能。
// PUT /api/members/{id}/role
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req changeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dancer, err := h.service.ChangeRole(r.Context(), auth.Dancer, chi.URLParam(r, "id"), model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDancerResponse(dancer))
}

// UpdateProfile は自分のプロフィールを更新する。
// PUT /api/me/profile
func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dancer, err := h.service.UpdateProfile(r.Context(), auth.Dancer, member.UpdateProfileInput{
		Name:      req.Name,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDancerResponse(dancer))
}

// Withdraw は自分自身を退会させる。関連データはカスケード削除され、
// セッションCookieもクリアされる。
// DELETE /api/me
func (h *MemberHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), auth.Dancer); err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
