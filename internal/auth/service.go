// Package auth は登録・ログイン・パスワード再設定とセッションのライフサイクルを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// RegisterInput は踊り子登録の入力。
type RegisterInput struct {
	TeamID       string
	Name         string
	Role         model.Role
	Password     string
	SecretPhrase string
}

// LoginInput はログインの入力。
type LoginInput struct {
	TeamID   string
	Name     string
	Role     model.Role
	Password string
}

// ResetPasswordInput はパスワード再設定の入力。
type ResetPasswordInput struct {
	TeamID       string
	Name         string
	Role         model.Role
	SecretPhrase string
	NewPassword  string
}

// Service は認証のサービス層。
type Service struct {
	teamRepo      repository.TeamRepository
	dancerRepo    repository.DancerRepository
	sessionRepo   repository.SessionRepository
	sessionMaxAge time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	teamRepo repository.TeamRepository,
	dancerRepo repository.DancerRepository,
	sessionRepo repository.SessionRepository,
	sessionMaxAge time.Duration,
) *Service {
	return &Service{
		teamRepo:      teamRepo,
		dancerRepo:    dancerRepo,
		sessionRepo:   sessionRepo,
		sessionMaxAge: sessionMaxAge,
	}
}

// RegisterTeam はチームを登録する。名前が重複する場合はDUPLICATE_TEAM_NAMEを返す。
func (s *Service) RegisterTeam(ctx context.Context, name string) (*model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("チーム名を入力してください。")
	}

	team := &model.Team{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateTeamNameError()
		}
		return nil, fmt.Errorf("チームの登録に失敗しました: %w", err)
	}

	slog.Info("チームを登録しました",
		slog.String("team_id", team.ID),
		slog.String("name", team.Name),
	)

	return team, nil
}

// ListTeams は全チームを名前昇順で返す。スタートページのチーム選択に使う。
func (s *Service) ListTeams(ctx context.Context) ([]*model.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("チーム一覧の取得に失敗しました: %w", err)
	}
	return teams, nil
}

// Register は踊り子を登録する。
// 代表は登録と同時に承認済みになり、それ以外の役職は承認待ちで作成される。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.Dancer, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, model.NewValidationError("踊り子名を入力してください。")
	}
	if !input.Role.Valid() {
		return nil, model.NewValidationError("役職の指定が正しくありません。")
	}
	if len([]rune(input.Password)) < minPasswordLength {
		return nil, model.NewValidationError("パスワードは8文字以上で入力してください。")
	}
	if strings.TrimSpace(input.SecretPhrase) == "" {
		return nil, model.NewValidationError("秘密の合言葉を入力してください。")
	}

	team, err := s.teamRepo.FindByID(ctx, input.TeamID)
	if err != nil {
		return nil, fmt.Errorf("チームの取得に失敗しました: %w", err)
	}
	if team == nil {
		return nil, model.NewNotFoundError("チーム")
	}

	dancer := &model.Dancer{
		ID:           uuid.NewString(),
		Name:         input.Name,
		TeamID:       input.TeamID,
		Role:         input.Role,
		IsApproved:   input.Role == model.RoleRepresentative,
		PasswordHash: HashPassword(input.Password),
		SecretPhrase: input.SecretPhrase,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.dancerRepo.Create(ctx, dancer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateNameError()
		}
		return nil, fmt.Errorf("踊り子の登録に失敗しました: %w", err)
	}

	slog.Info("踊り子を登録しました",
		slog.String("dancer_id", dancer.ID),
		slog.String("team_id", dancer.TeamID),
		slog.String("role", string(dancer.Role)),
		slog.Bool("is_approved", dancer.IsApproved),
	)

	return dancer, nil
}

// Login は認証情報を照合してセッションを発行する。
// 照合は(チーム, 踊り子名, 役職, パスワードハッシュ)の等値フィルタで行い、
// 代表以外は未承認の場合NOT_APPROVEDで拒否する。代表は承認状態に
// かかわらずログインできる（他の代表に承認を外されても締め出されない）。
func (s *Service) Login(ctx context.Context, input LoginInput) (*model.Dancer, *model.Session, error) {
	if input.Name == "" || input.Password == "" || !input.Role.Valid() {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	dancer, err := s.dancerRepo.FindByLogin(ctx, input.TeamID, input.Name, input.Role, HashPassword(input.Password))
	if err != nil {
		return nil, nil, fmt.Errorf("ログイン照合に失敗しました: %w", err)
	}
	if dancer == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if dancer.Role != model.RoleRepresentative && !dancer.IsApproved {
		return nil, nil, model.NewNotApprovedError()
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:        uuid.NewString(),
		DancerID:  dancer.ID,
		TeamID:    dancer.TeamID,
		ExpiresAt: now.Add(s.sessionMaxAge),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("ログインしました",
		slog.String("dancer_id", dancer.ID),
		slog.String("team_id", dancer.TeamID),
	)

	return dancer, session, nil
}

// ResetPassword は秘密の合言葉による本人確認でパスワードを再設定する。
// 再設定してもログイン状態にはしない。
func (s *Service) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if len([]rune(input.NewPassword)) < minPasswordLength {
		return model.NewValidationError("パスワードは8文字以上で入力してください。")
	}
	if input.Name == "" || input.SecretPhrase == "" || !input.Role.Valid() {
		return model.NewInvalidResetCredentialsError()
	}

	dancer, err := s.dancerRepo.FindByReset(ctx, input.TeamID, input.Name, input.Role, input.SecretPhrase)
	if err != nil {
		return fmt.Errorf("再設定の照合に失敗しました: %w", err)
	}
	if dancer == nil {
		return model.NewInvalidResetCredentialsError()
	}

	if err := s.dancerRepo.UpdatePasswordHash(ctx, dancer.ID, HashPassword(input.NewPassword)); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	slog.Info("パスワードを再設定しました",
		slog.String("dancer_id", dancer.ID),
	)

	return nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	return nil
}
