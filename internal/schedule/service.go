// Package schedule はカレンダー・参加表明・コメントを束ねた予定管理を提供する。
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/festa/internal/jst"
	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/policy"
	"github.com/hitoshi/festa/internal/repository"
)

// defaultColor は色指定のない予定に与えるカレンダー表示色。
const defaultColor = "#9333ea"

// Input は予定の作成・更新の入力。
// StartTime/EndTimeはタイムゾーン表記のない日時文字列をJSTの壁時計として受け取る。
type Input struct {
	Title       string
	Description *string
	Category    model.ScheduleCategory
	Location    *string
	LocationURL *string
	StartTime   string
	EndTime     string
	Color       string
}

// DayGroup は同じ暦日（JST）に属する予定のまとまり。
type DayGroup struct {
	Day       string
	Schedules []*model.Schedule
}

// Service は予定管理のサービス層。
type Service struct {
	scheduleRepo    repository.ScheduleRepository
	participantRepo repository.ParticipantRepository
	commentRepo     repository.CommentRepository
	sanitizer       *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	scheduleRepo repository.ScheduleRepository,
	participantRepo repository.ParticipantRepository,
	commentRepo repository.CommentRepository,
) *Service {
	return &Service{
		scheduleRepo:    scheduleRepo,
		participantRepo: participantRepo,
		commentRepo:     commentRepo,
		sanitizer:       bluemonday.StrictPolicy(),
	}
}

// ListForTeam はチームの予定一覧を開始時刻昇順で返す。
func (s *Service) ListForTeam(ctx context.Context, teamID string) ([]*model.Schedule, error) {
	schedules, err := s.scheduleRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("予定一覧の取得に失敗しました: %w", err)
	}
	return schedules, nil
}

// GroupByDisplayDay は予定をJSTの暦日でグルーピングする。
// 入力が開始時刻昇順であれば出力の日付も昇順になる。
func GroupByDisplayDay(schedules []*model.Schedule) []DayGroup {
	var groups []DayGroup
	index := map[string]int{}
	for _, schedule := range schedules {
		key := jst.DayKey(schedule.StartTime)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Day: key})
		}
		groups[i].Schedules = append(groups[i].Schedules, schedule)
	}
	return groups
}

// LoadDetail は予定と参加者・コメントを束ねて返す。
func (s *Service) LoadDetail(ctx context.Context, teamID, scheduleID string) (*model.ScheduleDetail, error) {
	schedule, err := s.findTeamSchedule(ctx, teamID, scheduleID)
	if err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("参加者一覧の取得に失敗しました: %w", err)
	}
	comments, err := s.commentRepo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}

	return &model.ScheduleDetail{
		Schedule:     schedule,
		Participants: participants,
		Comments:     comments,
	}, nil
}

// Create は予定を作成する。代表またはスタッフのみ可能。
func (s *Service) Create(ctx context.Context, actor *model.Dancer, input Input) (*model.Schedule, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	start, end, err := s.validate(&input)
	if err != nil {
		return nil, err
	}

	schedule := &model.Schedule{
		ID:          uuid.NewString(),
		TeamID:      actor.TeamID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    input.Category,
		Location:    input.Location,
		LocationURL: input.LocationURL,
		StartTime:   start,
		EndTime:     end,
		Color:       input.Color,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("予定の作成に失敗しました: %w", err)
	}

	slog.Info("予定を作成しました",
		slog.String("schedule_id", schedule.ID),
		slog.String("team_id", schedule.TeamID),
		slog.String("day", jst.DayKey(schedule.StartTime)),
	)

	return schedule, nil
}

// Update は予定を更新する。代表またはスタッフのみ可能。
func (s *Service) Update(ctx context.Context, actor *model.Dancer, scheduleID string, input Input) (*model.Schedule, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	schedule, err := s.findTeamSchedule(ctx, actor.TeamID, scheduleID)
	if err != nil {
		return nil, err
	}
	start, end, err := s.validate(&input)
	if err != nil {
		return nil, err
	}

	schedule.Title = strings.TrimSpace(input.Title)
	schedule.Description = input.Description
	schedule.Category = input.Category
	schedule.Location = input.Location
	schedule.LocationURL = input.LocationURL
	schedule.StartTime = start
	schedule.EndTime = end
	schedule.Color = input.Color

	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, fmt.Errorf("予定の更新に失敗しました: %w", err)
	}
	return schedule, nil
}

// Delete は予定を削除する。参加表明とコメントも同一トランザクションで消える。
func (s *Service) Delete(ctx context.Context, actor *model.Dancer, scheduleID string) error {
	if !policy.CanManageTeamResources(actor) {
		return model.NewForbiddenError()
	}
	if _, err := s.findTeamSchedule(ctx, actor.TeamID, scheduleID); err != nil {
		return err
	}

	if err := s.scheduleRepo.DeleteCascade(ctx, scheduleID); err != nil {
		return fmt.Errorf("予定の削除に失敗しました: %w", err)
	}

	slog.Info("予定を削除しました",
		slog.String("schedule_id", scheduleID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// ToggleParticipation は参加表明を切り替え、切り替え後に参加しているかを返す。
// 挿入は一意制約とON CONFLICTで保護されているため同時リクエストでも二重参加にならない。
func (s *Service) ToggleParticipation(ctx context.Context, actor *model.Dancer, scheduleID string) (bool, error) {
	if actor == nil {
		return false, model.NewUnauthorizedError()
	}
	if _, err := s.findTeamSchedule(ctx, actor.TeamID, scheduleID); err != nil {
		return false, err
	}

	inserted, err := s.participantRepo.Insert(ctx, &model.ScheduleParticipant{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		DancerID:   actor.ID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("参加表明に失敗しました: %w", err)
	}
	if inserted {
		return true, nil
	}

	// 既に参加していた → 取消
	if _, err := s.participantRepo.Delete(ctx, scheduleID, actor.ID); err != nil {
		return false, fmt.Errorf("参加表明の取消に失敗しました: %w", err)
	}
	return false, nil
}

// PostComment は予定にコメントを投稿する。空白のみの内容は拒否する。
func (s *Service) PostComment(ctx context.Context, actor *model.Dancer, scheduleID, content string) (*model.ScheduleComment, error) {
	if actor == nil {
		return nil, model.NewUnauthorizedError()
	}
	content = strings.TrimSpace(s.sanitizer.Sanitize(content))
	if content == "" {
		return nil, model.NewEmptyContentError()
	}
	if _, err := s.findTeamSchedule(ctx, actor.TeamID, scheduleID); err != nil {
		return nil, err
	}

	comment := &model.ScheduleComment{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		DancerID:   actor.ID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの投稿に失敗しました: %w", err)
	}
	comment.Dancer = actor
	return comment, nil
}

// DeleteComment は投稿者本人のコメントを削除する。
// 他人のコメントを指定した場合は何も起きない（削除0件を成功として扱う）。
func (s *Service) DeleteComment(ctx context.Context, actor *model.Dancer, commentID string) error {
	if actor == nil {
		return model.NewUnauthorizedError()
	}
	if _, err := s.commentRepo.DeleteByIDAndDancer(ctx, commentID, actor.ID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// findTeamSchedule はチーム内の予定を取得する。他チームの予定は見えない。
func (s *Service) findTeamSchedule(ctx context.Context, teamID, scheduleID string) (*model.Schedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("予定の取得に失敗しました: %w", err)
	}
	if schedule == nil || schedule.TeamID != teamID {
		return nil, model.NewNotFoundError("予定")
	}
	return schedule, nil
}

// validate は入力を検証し、開始・終了時刻をUTC瞬間に正規化して返す。
func (s *Service) validate(input *Input) (time.Time, time.Time, error) {
	if strings.TrimSpace(input.Title) == "" {
		return time.Time{}, time.Time{}, model.NewValidationError("タイトルを入力してください。")
	}
	if !input.Category.Valid() {
		return time.Time{}, time.Time{}, model.NewValidationError("種別の指定が正しくありません。")
	}
	start, err := jst.ParseDisplay(input.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, model.NewValidationError("開始時刻の形式が正しくありません。")
	}
	end, err := jst.ParseDisplay(input.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, model.NewValidationError("終了時刻の形式が正しくありません。")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, model.NewValidationError("終了時刻は開始時刻より後にしてください。")
	}
	if input.Color == "" {
		input.Color = defaultColor
	}
	return start, end, nil
}
