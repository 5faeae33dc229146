package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/schedule"
)

// ScheduleServiceInterface は予定ハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	ListForTeam(ctx context.Context, teamID string) ([]*model.Schedule, error)
	LoadDetail(ctx context.Context, teamID, scheduleID string) (*model.ScheduleDetail, error)
	Create(ctx context.Context, actor *model.Dancer, input schedule.Input) (*model.Schedule, error)
	Update(ctx context.Context, actor *model.Dancer, scheduleID string, input schedule.Input) (*model.Schedule, error)
	Delete(ctx context.Context, actor *model.Dancer, scheduleID string) error
	ToggleParticipation(ctx context.Context, actor *model.Dancer, scheduleID string) (bool, error)
	PostComment(ctx context.Context, actor *model.Dancer, scheduleID, content string) (*model.ScheduleComment, error)
	DeleteComment(ctx context.Context, actor *model.Dancer, commentID string) error
}

// ScheduleMetrics は予定操作のメトリクス記録。nilでもよい。
type ScheduleMetrics interface {
	RecordScheduleOperation(operation string)
}

// ScheduleHandler は予定管理のHTTPハンドラー。
type ScheduleHandler struct {
	service ScheduleServiceInterface
	metrics ScheduleMetrics
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(service ScheduleServiceInterface, metrics ScheduleMetrics) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		metrics: metrics,
	}
}

type scheduleRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
	Location    *string `json:"location"`
	LocationURL *string `json:"location_url"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Color       string  `json:"color"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type scheduleResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	Category      string  `json:"category"`
	CategoryLabel string  `json:"category_label"`
	Location      *string `json:"location"`
	LocationURL   *string `json:"location_url"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Color         string  `json:"color"`
	CreatedBy     string  `json:"created_by"`
}

type dayGroupResponse struct {
	Day       string             `json:"day"`
	Schedules []scheduleResponse `json:"schedules"`
}

type participantResponse struct {
	ID        string                 `json:"id"`
	Dancer    *dancerSummaryResponse `json:"dancer"`
	CreatedAt string                 `json:"created_at"`
}

type commentResponse struct {
	ID        string                 `json:"id"`
	Dancer    *dancerSummaryResponse `json:"dancer"`
	Content   string                 `json:"content"`
	CreatedAt string                 `json:"created_at"`
}

type scheduleDetailResponse struct {
	Schedule     scheduleResponse      `json:"schedule"`
	Participants []participantResponse `json:"participants"`
	Comments     []commentResponse     `json:"comments"`
}

// List はチームの予定一覧を返す。
// ?grouped=day を付けるとJSTの暦日ごとにまとめて返す。
// GET /api/schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	schedules, err := h.service.ListForTeam(r.Context(), auth.Dancer.TeamID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if r.URL.Query().Get("grouped") == "day" {
		groups := schedule.GroupByDisplayDay(schedules)
		res := make([]dayGroupResponse, 0, len(groups))
		for _, g := range groups {
			res = append(res, dayGroupResponse{
				Day:       g.Day,
				Schedules: toScheduleResponses(g.Schedules),
			})
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponses(schedules))
}

// Get は予定の詳細（参加者・コメント込み）を返す。
// GET /api/schedules/{id}
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	detail, err := h.service.LoadDetail(r.Context(), auth.Dancer.TeamID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleDetailResponse(detail))
}

// Create は予定を作成する。代表またはスタッフのみ可能。
// POST /api/schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), auth.Dancer, toScheduleInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("create")
	writeJSON(w, http.StatusCreated, toScheduleResponse(created))
}

// Update は予定を更新する。代表またはスタッフのみ可能。
// PUT /api/schedules/{id}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), auth.Dancer, chi.URLParam(r, "id"), toScheduleInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("update")
	writeJSON(w, http.StatusOK, toScheduleResponse(updated))
}

// Delete は予定を削除する。参加表明とコメントも同時に消える。
// DELETE /api/schedules/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), auth.Dancer, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("delete")
	w.WriteHeader(http.StatusNoContent)
}

// ToggleParticipation は参加表明のオン・オフを切り替える。
// PUT /api/schedules/{id}/participation
func (h *ScheduleHandler) ToggleParticipation(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	joined, err := h.service.ToggleParticipation(r.Context(), auth.Dancer, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("participation")
	writeJSON(w, http.StatusOK, map[string]bool{"joined": joined})
}

// PostComment は予定にコメントを投稿する。
// POST /api/schedules/{id}/comments
func (h *ScheduleHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.PostComment(r.Context(), auth.Dancer, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("comment")
	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// DeleteComment は自分のコメントを削除する。
// DELETE /api/comments/{id}
func (h *ScheduleHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteComment(r.Context(), auth.Dancer, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) recordOperation(operation string) {
	if h.metrics != nil {
		h.metrics.RecordScheduleOperation(operation)
	}
}

// --- 変換ヘルパー ---

func toScheduleInput(req scheduleRequest) schedule.Input {
	return schedule.Input{
		Title:       req.Title,
		Description: req.Description,
		Category:    model.ScheduleCategory(req.Category),
		Location:    req.Location,
		LocationURL: req.LocationURL,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Color:       req.Color,
	}
}

func toScheduleResponse(s *model.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		Category:      string(s.Category),
		CategoryLabel: s.Category.Label(),
		Location:      s.Location,
		LocationURL:   s.LocationURL,
		StartTime:     formatDisplayTime(s.StartTime),
		EndTime:       formatDisplayTime(s.EndTime),
		Color:         s.Color,
		CreatedBy:     s.CreatedBy,
	}
}

func toScheduleResponses(schedules []*model.Schedule) []scheduleResponse {
	res := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		res = append(res, toScheduleResponse(s))
	}
	return res
}

func toCommentResponse(c *model.ScheduleComment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		Dancer:    toDancerSummary(c.Dancer),
		Content:   c.Content,
		CreatedAt: formatDisplayTime(c.CreatedAt),
	}
}

func toScheduleDetailResponse(detail *model.ScheduleDetail) scheduleDetailResponse {
	participants := make([]participantResponse, 0, len(detail.Participants))
	for _, p := range detail.Participants {
		participants = append(participants, participantResponse{
			ID:        p.ID,
			Dancer:    toDancerSummary(p.Dancer),
			CreatedAt: formatDisplayTime(p.CreatedAt),
		})
	}
	comments := make([]commentResponse, 0, len(detail.Comments))
	for _, c := range detail.Comments {
		comments = append(comments, toCommentResponse(c))
	}
	return scheduleDetailResponse{
		Schedule:     toScheduleResponse(detail.Schedule),
		Participants: participants,
		Comments:     comments,
	}
}
