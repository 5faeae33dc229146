package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/blog"
	"github.com/hitoshi/festa/internal/model"
)

// BlogServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	List(ctx context.Context, teamID string) ([]*model.Blog, error)
	Get(ctx context.Context, teamID, blogID string) (*model.Blog, error)
	Create(ctx context.Context, actor *model.Dancer, input blog.Input) (*model.Blog, error)
	Update(ctx context.Context, actor *model.Dancer, blogID string, input blog.Input) (*model.Blog, error)
	Delete(ctx context.Context, actor *model.Dancer, blogID string) error
}

// BlogHandler はブログのHTTPハンドラー。
type BlogHandler struct {
	service BlogServiceInterface
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface) *BlogHandler {
	return &BlogHandler{service: service}
}

type blogRequest struct {
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	ImageURL   *string `json:"image_url"`
	YouTubeURL *string `json:"youtube_url"`
}

type blogResponse struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	Content    *string                `json:"content"`
	ImageURL   *string                `json:"image_url"`
	YouTubeURL *string                `json:"youtube_url"`
	Dancer     *dancerSummaryResponse `json:"dancer"`
	CreatedAt  string                 `json:"created_at"`
}

// List はチームのブログ一覧を新しい順で返す。
// GET /api/blogs
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	blogs, err := h.service.List(r.Context(), auth.Dancer.TeamID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]blogResponse, 0, len(blogs))
	for _, b := range blogs {
		res = append(res, toBlogResponse(b))
	}
	writeJSON(w, http.StatusOK, res)
}

// Get はブログ記事を1件返す。
// GET /api/blogs/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), auth.Dancer.TeamID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBlogResponse(b))
}

// Create はブログ記事を作成する。代表またはスタッフのみ可能。
// POST /api/blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req blogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), auth.Dancer, toBlogInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBlogResponse(created))
}

// Update はブログ記事を更新する。代表またはスタッフのみ可能。
// PUT /api/blogs/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req blogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), auth.Dancer, chi.URLParam(r, "id"), toBlogInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBlogResponse(updated))
}

// Delete はブログ記事を削除する。代表またはスタッフのみ可能。
// DELETE /api/blogs/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func toBlogInput(req blogRequest) blog.Input {
	return blog.Input{
		Title:      req.Title,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		YouTubeURL: req.YouTubeURL,
	}
}

func toBlogResponse(b *model.Blog) blogResponse {
	return blogResponse{
		ID:         b.ID,
		Title:      b.Title,
		Content:    b.Content,
		ImageURL:   b.ImageURL,
		YouTubeURL: b.YouTubeURL,
		Dancer:     toDancerSummary(b.Dancer),
		CreatedAt:  formatDisplayTime(b.CreatedAt),
	}
}
