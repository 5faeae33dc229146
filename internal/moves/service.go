// Package moves はチームの技（振り付け）と習得記録の管理を提供する。
package moves

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/policy"
	"github.com/hitoshi/festa/internal/repository"
)

// Input は技の作成・更新の入力。
type Input struct {
	Name        string
	Description *string
}

// Service は技管理のサービス層。
type Service struct {
	moveRepo       repository.DanceMoveRepository
	completionRepo repository.CompletionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(moveRepo repository.DanceMoveRepository, completionRepo repository.CompletionRepository) *Service {
	return &Service{
		moveRepo:       moveRepo,
		completionRepo: completionRepo,
	}
}

// List はチームの技一覧を名前昇順で返す。
func (s *Service) List(ctx context.Context, teamID string) ([]*model.DanceMove, error) {
	moves, err := s.moveRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("技一覧の取得に失敗しました: %w", err)
	}
	return moves, nil
}

// Get はチーム内の技を習得記録つきで取得する。
func (s *Service) Get(ctx context.Context, teamID, moveID string) (*model.DanceMove, []*model.DanceMoveCompletion, error) {
	move, err := s.findTeamMove(ctx, teamID, moveID)
	if err != nil {
		return nil, nil, err
	}
	completions, err := s.completionRepo.ListByMove(ctx, moveID)
	if err != nil {
		return nil, nil, fmt.Errorf("習得記録の取得に失敗しました: %w", err)
	}
	return move, completions, nil
}

// Create は技を作成する。代表またはスタッフのみ可能。
func (s *Service) Create(ctx context.Context, actor *model.Dancer, input Input) (*model.DanceMove, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("技名を入力してください。")
	}

	move := &model.DanceMove{
		ID:          uuid.NewString(),
		TeamID:      actor.TeamID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.moveRepo.Create(ctx, move); err != nil {
		return nil, fmt.Errorf("技の作成に失敗しました: %w", err)
	}
	return move, nil
}

// Update は技を更新する。代表またはスタッフのみ可能。
func (s *Service) Update(ctx context.Context, actor *model.Dancer, moveID string, input Input) (*model.DanceMove, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	move, err := s.findTeamMove(ctx, actor.TeamID, moveID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("技名を入力してください。")
	}

	move.Name = strings.TrimSpace(input.Name)
	move.Description = input.Description

	if err := s.moveRepo.Update(ctx, move); err != nil {
		return nil, fmt.Errorf("技の更新に失敗しました: %w", err)
	}
	return move, nil
}

// Delete は技を削除する。習得記録も同一トランザクションで消える。
func (s *Service) Delete(ctx context.Context, actor *model.Dancer, moveID string) error {
	if !policy.CanManageTeamResources(actor) {
		return model.NewForbiddenError()
	}
	if _, err := s.findTeamMove(ctx, actor.TeamID, moveID); err != nil {
		return err
	}
	if err := s.moveRepo.DeleteCascade(ctx, moveID); err != nil {
		return fmt.Errorf("技の削除に失敗しました: %w", err)
	}
	return nil
}

// ToggleCompletion は本人の習得記録を切り替え、切り替え後に習得済みかを返す。
// 参加表明と同じ一意制約+ON CONFLICTのパターンで二重記録を防ぐ。
func (s *Service) ToggleCompletion(ctx context.Context, actor *model.Dancer, moveID string) (bool, error) {
	if actor == nil {
		return false, model.NewUnauthorizedError()
	}
	if _, err := s.findTeamMove(ctx, actor.TeamID, moveID); err != nil {
		return false, err
	}

	inserted, err := s.completionRepo.Insert(ctx, &model.DanceMoveCompletion{
		ID:          uuid.NewString(),
		DanceMoveID: moveID,
		DancerID:    actor.ID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("習得記録の登録に失敗しました: %w", err)
	}
	if inserted {
		return true, nil
	}

	if _, err := s.completionRepo.Delete(ctx, moveID, actor.ID); err != nil {
		return false, fmt.Errorf("習得記録の取消に失敗しました: %w", err)
	}
	return false, nil
}

func (s *Service) findTeamMove(ctx context.Context, teamID, moveID string) (*model.DanceMove, error) {
	move, err := s.moveRepo.FindByID(ctx, moveID)
	if err != nil {
		return nil, fmt.Errorf("技の取得に失敗しました: %w", err)
	}
	if move == nil || move.TeamID != teamID {
		return nil, model.NewNotFoundError("技")
	}
	return move, nil
}
