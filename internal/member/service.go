// Package member はメンバー名簿・承認ワークフロー・プロフィール・退会を提供する。
package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/policy"
	"github.com/hitoshi/festa/internal/repository"
)

// UpdateProfileInput はプロフィール更新の入力。
type UpdateProfileInput struct {
	Name      string
	Bio       *string
	AvatarURL *string
}

// Service はメンバー管理のサービス層。
type Service struct {
	dancerRepo repository.DancerRepository
	sanitizer  *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(dancerRepo repository.DancerRepository) *Service {
	return &Service{
		dancerRepo: dancerRepo,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// List はチームのメンバー一覧を役職の序列降順・名前昇順で返す。
func (s *Service) List(ctx context.Context, teamID string) ([]*model.Dancer, error) {
	dancers, err := s.dancerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	return dancers, nil
}

// Get はチーム内のメンバーを1名取得する。
func (s *Service) Get(ctx context.Context, teamID, dancerID string) (*model.Dancer, error) {
	dancer, err := s.dancerRepo.FindByID(ctx, dancerID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}
	if dancer == nil || dancer.TeamID != teamID {
		return nil, model.NewNotFoundError("メンバー")
	}
	return dancer, nil
}

// ToggleApproval はメンバーの承認状態を切り替える。
// 承認時はapproved_byに実行者ID、取消時はNULLを記録する。
func (s *Service) ToggleApproval(ctx context.Context, actor *model.Dancer, dancerID string, approve bool) (*model.Dancer, error) {
	subject, err := s.dancerRepo.FindByID(ctx, dancerID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}
	if subject == nil || actor == nil || subject.TeamID != actor.TeamID {
		return nil, model.NewNotFoundError("メンバー")
	}
	if !policy.CanApprove(actor, subject) {
		return nil, model.NewForbiddenError()
	}

	var approvedBy *string
	if approve {
		approvedBy = &actor.ID
	}
	if err := s.dancerRepo.UpdateApproval(ctx, subject.ID, approve, approvedBy); err != nil {
		return nil, fmt.Errorf("承認状態の更新に失敗しました: %w", err)
	}

	slog.Info("承認状態を切り替えました",
		slog.String("dancer_id", subject.ID),
		slog.String("actor_id", actor.ID),
		slog.Bool("approved", approve),
	)

	subject.IsApproved = approve
	subject.ApprovedBy = approvedBy
	return subject, nil
}

// ChangeRole はメンバーの役職を変更する。代表のみ可能。
func (s *Service) ChangeRole(ctx context.Context, actor *model.Dancer, dancerID string, role model.Role) (*model.Dancer, error) {
	if !role.Valid() {
		return nil, model.NewValidationError("役職の指定が正しくありません。")
	}
	if !policy.CanEditRole(actor) {
		return nil, model.NewForbiddenError()
	}

	subject, err := s.dancerRepo.FindByID(ctx, dancerID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}
	if subject == nil || subject.TeamID != actor.TeamID {
		return nil, model.NewNotFoundError("メンバー")
	}

	if err := s.dancerRepo.UpdateRole(ctx, subject.ID, role); err != nil {
		return nil, fmt.Errorf("役職の更新に失敗しました: %w", err)
	}

	slog.Info("役職を変更しました",
		slog.String("dancer_id", subject.ID),
		slog.String("actor_id", actor.ID),
		slog.String("role", string(role)),
	)

	subject.Role = role
	return subject, nil
}

// UpdateProfile は本人のプロフィール（名前・自己紹介・アバターURL）を更新する。
// 自己紹介はサニタイズして保存する。
func (s *Service) UpdateProfile(ctx context.Context, actor *model.Dancer, input UpdateProfileInput) (*model.Dancer, error) {
	if actor == nil {
		return nil, model.NewUnauthorizedError()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewValidationError("踊り子名を入力してください。")
	}

	bio := input.Bio
	if bio != nil {
		clean := s.sanitizer.Sanitize(*bio)
		bio = &clean
	}

	if err := s.dancerRepo.UpdateProfile(ctx, actor.ID, name, bio, input.AvatarURL); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateNameError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	actor.Name = name
	actor.Bio = bio
	actor.AvatarURL = input.AvatarURL
	return actor, nil
}

// Withdraw は本人の退会処理を実行する。
// 習得記録・参加表明・コメント・購入・セッションと踊り子本体を
// 同一トランザクションで削除する。
func (s *Service) Withdraw(ctx context.Context, actor *model.Dancer) error {
	if actor == nil {
		return model.NewUnauthorizedError()
	}

	slog.Info("退会処理を開始します",
		slog.String("dancer_id", actor.ID),
		slog.String("team_id", actor.TeamID),
	)

	if err := s.dancerRepo.DeleteCascade(ctx, actor.ID); err != nil {
		return fmt.Errorf("退会処理に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("dancer_id", actor.ID),
	)

	return nil
}
