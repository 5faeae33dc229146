// Package teaminfo はチームからのお知らせの管理を提供する。
package teaminfo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/policy"
	"github.com/hitoshi/festa/internal/repository"
)

// Input はお知らせの作成・更新の入力。
type Input struct {
	Title   string
	Content *string
}

// Service はお知らせのサービス層。
type Service struct {
	infoRepo  repository.TeamInfoRepository
	sanitizer *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(infoRepo repository.TeamInfoRepository) *Service {
	return &Service{
		infoRepo:  infoRepo,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// List はチームのお知らせ一覧を新しい順で返す。
func (s *Service) List(ctx context.Context, teamID string) ([]*model.TeamInfo, error) {
	infos, err := s.infoRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("お知らせ一覧の取得に失敗しました: %w", err)
	}
	return infos, nil
}

// Get はチーム内のお知らせを1件取得する。
func (s *Service) Get(ctx context.Context, teamID, infoID string) (*model.TeamInfo, error) {
	info, err := s.infoRepo.FindByID(ctx, infoID)
	if err != nil {
		return nil, fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	if info == nil || info.TeamID != teamID {
		return nil, model.NewNotFoundError("お知らせ")
	}
	return info, nil
}

// Create はお知らせを作成する。代表またはスタッフのみ可能。
func (s *Service) Create(ctx context.Context, actor *model.Dancer, input Input) (*model.TeamInfo, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	info := &model.TeamInfo{
		ID:        uuid.NewString(),
		TeamID:    actor.TeamID,
		Title:     strings.TrimSpace(input.Title),
		Content:   input.Content,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.infoRepo.Create(ctx, info); err != nil {
		return nil, fmt.Errorf("お知らせの作成に失敗しました: %w", err)
	}
	return info, nil
}

// Update はお知らせを更新する。代表またはスタッフのみ可能。
func (s *Service) Update(ctx context.Context, actor *model.Dancer, infoID string, input Input) (*model.TeamInfo, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	info, err := s.Get(ctx, actor.TeamID, infoID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	info.Title = strings.TrimSpace(input.Title)
	info.Content = input.Content

	if err := s.infoRepo.Update(ctx, info); err != nil {
		return nil, fmt.Errorf("お知らせの更新に失敗しました: %w", err)
	}
	return info, nil
}

// Delete はお知らせを削除する。代表またはスタッフのみ可能。
func (s *Service) Delete(ctx context.Context, actor *model.Dancer, infoID string) error {
	if !policy.CanManageTeamResources(actor) {
		return model.NewForbiddenError()
	}
	if _, err := s.Get(ctx, actor.TeamID, infoID); err != nil {
		return err
	}
	if err := s.infoRepo.Delete(ctx, infoID); err != nil {
		return fmt.Errorf("お知らせの削除に失敗しました: %w", err)
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
