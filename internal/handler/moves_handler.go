package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/moves"
)

// MoveServiceInterface は技ハンドラーが必要とするサービスインターフェース。
type MoveServiceInterface interface {
	List(ctx context.Context, teamID string) ([]*model.DanceMove, error)
	Get(ctx context.Context, teamID, moveID string) (*model.DanceMove, []*model.DanceMoveCompletion, error)
	Create(ctx context.Context, actor *model.Dancer, input moves.Input) (*model.DanceMove, error)
	Update(ctx context.Context, actor *model.Dancer, moveID string, input moves.Input) (*model.DanceMove, error)
	Delete(ctx context.Context, actor *model.Dancer, moveID string) error
	ToggleCompletion(ctx context.Context, actor *model.Dancer, moveID string) (bool, error)
}

// MoveHandler は技（振り付け）管理のHTTPハンドラー。
type MoveHandler struct {
	service MoveServiceInterface
}

// NewMoveHandler はMoveHandlerを生成する。
func NewMoveHandler(service MoveServiceInterface) *MoveHandler {
	return &MoveHandler{service: service}
}

type moveRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type moveResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

type completionResponse struct {
	ID        string                 `json:"id"`
	Dancer    *dancerSummaryResponse `json:"dancer"`
	CreatedAt string                 `json:"created_at"`
}

type moveDetailResponse struct {
	Move        moveResponse         `json:"move"`
	Completions []completionResponse `json:"completions"`
}

// List はチームの技一覧を返す。
// GET /api/dance-moves
func (h *MoveHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), auth.Dancer.TeamID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]moveResponse, 0, len(list))
	for _, m := range list {
		res = append(res, toMoveResponse(m))
	}
	writeJSON(w, http.StatusOK, res)
}

// Get は技の詳細（習得者一覧込み）を返す。
// GET /api/dance-moves/{id}
func (h *MoveHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	move, completions, err := h.service.Get(r.Context(), auth.Dancer.TeamID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	cs := make([]completionResponse, 0, len(completions))
	for _, c := range completions {
		cs = append(cs, completionResponse{
			ID:        c.ID,
			Dancer:    toDancerSummary(c.Dancer),
			CreatedAt: formatDisplayTime(c.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, moveDetailResponse{
		Move:        toMoveResponse(move),
		Completions: cs,
	})
}

// Create は技を登録する。代表またはスタッフのみ可能。
// POST /api/dance-moves
func (h *MoveHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), auth.Dancer, moves.Input{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMoveResponse(created))
}

// Update は技を更新する。代表またはスタッフのみ可能。
// PUT /api/dance-moves/{id}
func (h *MoveHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), auth.Dancer, chi.URLParam(r, "id"), moves.Input{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMoveResponse(updated))
}

// Delete は技を削除する。習得記録も同時に消える。
// DELETE /api/dance-moves/{id}
func (h *MoveHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ToggleCompletion は自分の習得記録のオン・オフを切り替える。
// PUT /api/dance-moves/{id}/completion
func (h *MoveHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	completed, err := h.service.ToggleCompletion(r.Context(), auth.Dancer, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

func toMoveResponse(m *model.DanceMove) moveResponse {
	return moveResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   formatDisplayTime(m.CreatedAt),
	}
}
