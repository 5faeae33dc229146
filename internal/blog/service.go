// Package blog はチームのブログ記事の管理を提供する。
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/policy"
	"github.com/hitoshi/festa/internal/repository"
)

// Input はブログ記事の作成・更新の入力。
type Input struct {
	Title      string
	Content    *string
	ImageURL   *string
	YouTubeURL *string
}

// Service はブログのサービス層。
type Service struct {
	blogRepo  repository.BlogRepository
	sanitizer *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
// 本文は基本的な整形タグのみ許可してサニタイズする。
func NewService(blogRepo repository.BlogRepository) *Service {
	return &Service{
		blogRepo:  blogRepo,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// List はチームのブログ記事一覧を新しい順で返す。
func (s *Service) List(ctx context.Context, teamID string) ([]*model.Blog, error) {
	blogs, err := s.blogRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("ブログ一覧の取得に失敗しました: %w", err)
	}
	return blogs, nil
}

// Get はチーム内のブログ記事を1件取得する。
func (s *Service) Get(ctx context.Context, teamID, blogID string) (*model.Blog, error) {
	blog, err := s.blogRepo.FindByID(ctx, blogID)
	if err != nil {
		return nil, fmt.Errorf("ブログの取得に失敗しました: %w", err)
	}
	if blog == nil || blog.TeamID != teamID {
		return nil, model.NewNotFoundError("ブログ")
	}
	return blog, nil
}

// Create はブログ記事を作成する。代表またはスタッフのみ可能。
func (s *Service) Create(ctx context.Context, actor *model.Dancer, input Input) (*model.Blog, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	blog := &model.Blog{
		ID:         uuid.NewString(),
		TeamID:     actor.TeamID,
		Title:      strings.TrimSpace(input.Title),
		Content:    input.Content,
		ImageURL:   input.ImageURL,
		YouTubeURL: input.YouTubeURL,
		CreatedBy:  actor.ID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.blogRepo.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("ブログの作成に失敗しました: %w", err)
	}

	slog.Info("ブログを作成しました",
		slog.String("blog_id", blog.ID),
		slog.String("team_id", blog.TeamID),
	)

	return blog, nil
}

// Update はブログ記事を更新する。代表またはスタッフのみ可能。
func (s *Service) Update(ctx context.Context, actor *model.Dancer, blogID string, input Input) (*model.Blog, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	blog, err := s.Get(ctx, actor.TeamID, blogID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	blog.Title = strings.TrimSpace(input.Title)
	blog.Content = input.Content
	blog.ImageURL = input.ImageURL
	blog.YouTubeURL = input.YouTubeURL

	if err := s.blogRepo.Update(ctx, blog); err != nil {
		return nil, fmt.Errorf("ブログの更新に失敗しました: %w", err)
	}
	return blog, nil
}

// Delete はブログ記事を削除する。代表またはスタッフのみ可能。
func (s *Service) Delete(ctx context.Context, actor *model.Dancer, blogID string) error {
	if !policy.CanManageTeamResources(actor) {
		return model.NewForbiddenError()
	}
	if _, err := s.Get(ctx, actor.TeamID, blogID); err != nil {
		return err
	}
	if err := s.blogRepo.Delete(ctx, blogID); err != nil {
		return fmt.Errorf("ブログの削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) validate(input *Input) error {
	if strings.TrimSpace(input.Title) == "" {
		return model.NewValidationError("タイトルを入力してください。")
	}
	if input.Content != nil {
		clean := s.sanitizer.Sanitize(*input.Content)
		input.Content = &clean
	}
	return nil
}
