// Package video はチームの動画ライブラリ（カテゴリ・YouTube埋め込み）を提供する。
package video

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/policy"
	"github.com/hitoshi/festa/internal/repository"
)

// Input は動画の登録・更新の入力。
type Input struct {
	CategoryID  string
	Title       string
	Description *string
	YouTubeURL  string
}

// Service は動画管理のサービス層。
type Service struct {
	categoryRepo repository.VideoCategoryRepository
	videoRepo    repository.VideoRepository
	titleFetcher TitleFetcher
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	categoryRepo repository.VideoCategoryRepository,
	videoRepo repository.VideoRepository,
	titleFetcher TitleFetcher,
) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		videoRepo:    videoRepo,
		titleFetcher: titleFetcher,
	}
}

// ListCategories はチームの動画カテゴリ一覧を名前昇順で返す。
func (s *Service) ListCategories(ctx context.Context, teamID string) ([]*model.VideoCategory, error) {
	categories, err := s.categoryRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// CreateCategory は動画カテゴリを作成する。代表またはスタッフのみ可能。
func (s *Service) CreateCategory(ctx context.Context, actor *model.Dancer, name string) (*model.VideoCategory, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("カテゴリ名を入力してください。")
	}

	category := &model.VideoCategory{
		ID:        uuid.NewString(),
		TeamID:    actor.TeamID,
		Name:      name,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}
	return category, nil
}

// DeleteCategory は動画カテゴリを削除する。
// カテゴリに動画が残っている間は削除を拒否する。
func (s *Service) DeleteCategory(ctx context.Context, actor *model.Dancer, categoryID string) error {
	if !policy.CanManageTeamResources(actor) {
		return model.NewForbiddenError()
	}
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil || category.TeamID != actor.TeamID {
		return model.NewNotFoundError("カテゴリ")
	}

	count, err := s.categoryRepo.CountVideos(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("カテゴリ内の動画数の取得に失敗しました: %w", err)
	}
	if count > 0 {
		return model.NewCategoryInUseError()
	}

	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	return nil
}

// List はチームの動画一覧を返す。categoryIDが空でない場合は絞り込む。
func (s *Service) List(ctx context.Context, teamID, categoryID string) ([]*model.Video, error) {
	videos, err := s.videoRepo.ListByTeam(ctx, teamID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}
	return videos, nil
}

// Create は動画を登録する。代表またはスタッフのみ可能。
// タイトルはoEmbedで取得を試み、失敗した場合は入力されたタイトルをそのまま使う。
func (s *Service) Create(ctx context.Context, actor *model.Dancer, input Input) (*model.Video, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	if err := s.validate(ctx, actor.TeamID, &input); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if s.titleFetcher != nil {
		if fetched, err := s.titleFetcher.FetchTitle(ctx, input.YouTubeURL); err == nil {
			title = fetched
		} else {
			slog.Warn("oEmbedのタイトル取得に失敗したため入力タイトルを使用します",
				slog.String("youtube_url", input.YouTubeURL),
				slog.String("error", err.Error()),
			)
		}
	}
	if title == "" {
		return nil, model.NewValidationError("タイトルを入力してください。")
	}

	video := &model.Video{
		ID:          uuid.NewString(),
		TeamID:      actor.TeamID,
		CategoryID:  input.CategoryID,
		Title:       title,
		Description: input.Description,
		YouTubeURL:  input.YouTubeURL,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("動画の登録に失敗しました: %w", err)
	}
	return video, nil
}

// Update は動画を更新する。代表またはスタッフのみ可能。
func (s *Service) Update(ctx context.Context, actor *model.Dancer, videoID string, input Input) (*model.Video, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	video, err := s.findTeamVideo(ctx, actor.TeamID, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, actor.TeamID, &input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, model.NewValidationError("タイトルを入力してください。")
	}

	video.CategoryID = input.CategoryID
	video.Title = strings.TrimSpace(input.Title)
	video.Description = input.Description
	video.YouTubeURL = input.YouTubeURL

	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("動画の更新に失敗しました: %w", err)
	}
	return video, nil
}

// Delete は動画を削除する。代表またはスタッフのみ可能。
func (s *Service) Delete(ctx context.Context, actor *model.Dancer, videoID string) error {
	if !policy.CanManageTeamResources(actor) {
		return model.NewForbiddenError()
	}
	if _, err := s.findTeamVideo(ctx, actor.TeamID, videoID); err != nil {
		return err
	}
	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("動画の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) findTeamVideo(ctx context.Context, teamID, videoID string) (*model.Video, error) {
	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}
	if video == nil || video.TeamID != teamID {
		return nil, model.NewNotFoundError("動画")
	}
	return video, nil
}

// validate はURLとカテゴリの妥当性を検証する。カテゴリはチーム内のものに限る。
func (s *Service) validate(ctx context.Context, teamID string, input *Input) error {
	if strings.TrimSpace(input.YouTubeURL) == "" {
		return model.NewValidationError("動画URLを入力してください。")
	}
	category, err := s.categoryRepo.FindByID(ctx, input.CategoryID)
	if err != nil {
		return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil || category.TeamID != teamID {
		return model.NewNotFoundError("カテゴリ")
	}
	return nil
}
