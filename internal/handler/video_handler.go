package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/video"
)

// VideoServiceInterface は動画ハンドラーが必要とするサービスインターフェース。
type VideoServiceInterface interface {
	ListCategories(ctx context.Context, teamID string) ([]*model.VideoCategory, error)
	CreateCategory(ctx context.Context, actor *model.Dancer, name string) (*model.VideoCategory, error)
	DeleteCategory(ctx context.Context, actor *model.Dancer, categoryID string) error
	List(ctx context.Context, teamID, categoryID string) ([]*model.Video, error)
	Create(ctx context.Context, actor *model.Dancer, input video.Input) (*model.Video, error)
	Update(ctx context.Context, actor *model.Dancer, videoID string, input video.Input) (*model.Video, error)
	Delete(ctx context.Context, actor *model.Dancer, videoID string) error
}

// VideoHandler は動画とカテゴリのHTTPハンドラー。
type VideoHandler struct {
	service VideoServiceInterface
}

// NewVideoHandler はVideoHandlerを生成する。
func NewVideoHandler(service VideoServiceInterface) *VideoHandler {
	return &VideoHandler{service: service}
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

type videoRequest struct {
	CategoryID  string  `json:"category_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	YouTubeURL  string  `json:"youtube_url"`
}

type videoCategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type videoResponse struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"category_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	YouTubeURL  string  `json:"youtube_url"`
	CreatedAt   string  `json:"created_at"`
}

// ListCategories はチームの動画カテゴリ一覧を返す。
// GET /api/video-categories
func (h *VideoHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	categories, err := h.service.ListCategories(r.Context(), auth.Dancer.TeamID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]videoCategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, videoCategoryResponse{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateCategory は動画カテゴリを作成する。代表またはスタッフのみ可能。
// POST /api/video-categories
func (h *VideoHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req createCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), auth.Dancer, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, videoCategoryResponse{ID: category.ID, Name: category.Name})
}

// DeleteCategory は空の動画カテゴリを削除する。動画が残っている場合は拒否される。
// DELETE /api/video-categories/{id}
func (h *VideoHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), auth.Dancer, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List はチームの動画一覧を返す。?category_id= で絞り込める。
// GET /api/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	videos, err := h.service.List(r.Context(), auth.Dancer.TeamID, r.URL.Query().Get("category_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		res = append(res, toVideoResponse(v))
	}
	writeJSON(w, http.StatusOK, res)
}

// Create は動画を登録する。タイトルが空の場合はoEmbedで自動取得する。
// POST /api/videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req videoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), auth.Dancer, toVideoInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVideoResponse(created))
}

// Update は動画を更新する。代表またはスタッフのみ可能。
// PUT /api/videos/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req videoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), auth.Dancer, chi.URLParam(r, "id"), toVideoInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(updated))
}

// Delete は動画を削除する。代表またはスタッフのみ可能。
// DELETE /api/videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func toVideoInput(req videoRequest) video.Input {
	return video.Input{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		YouTubeURL:  req.YouTubeURL,
	}
}

func toVideoResponse(v *model.Video) videoResponse {
	return videoResponse{
		ID:          v.ID,
		CategoryID:  v.CategoryID,
		Title:       v.Title,
		Description: v.Description,
		YouTubeURL:  v.YouTubeURL,
		CreatedAt:   formatDisplayTime(v.CreatedAt),
	}
}
