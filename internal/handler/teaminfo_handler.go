package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/teaminfo"
)

// TeamInfoServiceInterface はお知らせハンドラーが必要とするサービスインターフェース。
type TeamInfoServiceInterface interface {
	List(ctx context.Context, teamID string) ([]*model.TeamInfo, error)
	Get(ctx context.Context, teamID, infoID string) (*model.TeamInfo, error)
	Create(ctx context.Context, actor *model.Dancer, input teaminfo.Input) (*model.TeamInfo, error)
	Update(ctx context.Context, actor *model.Dancer, infoID string, input teaminfo.Input) (*model.TeamInfo, error)
	Delete(ctx context.Context, actor *model.Dancer, infoID string) error
}

// TeamInfoHandler はチームからのお知らせのHTTPハンドラー。
type TeamInfoHandler struct {
	service TeamInfoServiceInterface
}

// NewTeamInfoHandler はTeamInfoHandlerを生成する。
func NewTeamInfoHandler(service TeamInfoServiceInterface) *TeamInfoHandler {
	return &TeamInfoHandler{service: service}
}

type teamInfoRequest struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

type teamInfoResponse struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   *string                `json:"content"`
	Dancer    *dancerSummaryResponse `json:"dancer"`
	CreatedAt string                 `json:"created_at"`
}

// List はチームのお知らせ一覧を新しい順で返す。
// GET /api/team-info
func (h *TeamInfoHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	infos, err := h.service.List(r.Context(), auth.Dancer.TeamID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]teamInfoResponse, 0, len(infos))
	for _, info := range infos {
		res = append(res, toTeamInfoResponse(info))
	}
	writeJSON(w, http.StatusOK, res)
}

// Get はお知らせを1件返す。
// GET /api/team-info/{id}
func (h *TeamInfoHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	info, err := h.service.Get(r.Context(), auth.Dancer.TeamID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeamInfoResponse(info))
}

// Create はお知らせを作成する。代表またはスタッフのみ可能。
// POST /api/team-info
func (h *TeamInfoHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req teamInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), auth.Dancer, teaminfo.Input{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTeamInfoResponse(created))
}

// Update はお知らせを更新する。代表またはスタッフのみ可能。
// PUT /api/team-info/{id}
func (h *TeamInfoHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req teamInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), auth.Dancer, chi.URLParam(r, "id"), teaminfo.Input{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeamInfoResponse(updated))
}

// Delete はお知らせを削除する。代表またはスタッフのみ可能。
// DELETE /api/team-info/{id}
func (h *TeamInfoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), auth.Dancer, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toTeamInfoResponse(info *model.TeamInfo) teamInfoResponse {
	return teamInfoResponse{
		ID:        info.ID,
		Title:     info.Title,
		Content:   info.Content,
		Dancer:    toDancerSummary(info.Dancer),
		CreatedAt: formatDisplayTime(info.CreatedAt),
	}
}
