package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// dancerColumns は踊り子のSELECT句。パスワードハッシュと合言葉を含む。
const dancerColumns = `id, name, team_id, role, is_approved, approved_by, avatar_url, bio, password_hash, secret_phrase, created_at`

// PostgresDancerRepo はPostgreSQLを使用した踊り子リポジトリ。
type PostgresDancerRepo struct {
	db *sql.DB
}

// NewPostgresDancerRepo はPostgresDancerRepoを生成する。
func NewPostgresDancerRepo(db *sql.DB) *PostgresDancerRepo {
	return &PostgresDancerRepo{db: db}
}

// scanDancer は1行を読み取ってDancerを構築する。
func scanDancer(row interface{ Scan(...any) error }) (*model.Dancer, error) {
	d := &model.Dancer{}
	err := row.Scan(
		&d.ID, &d.Name, &d.TeamID, &d.Role, &d.IsApproved,
		&d.ApprovedBy, &d.AvatarURL, &d.Bio, &d.PasswordHash, &d.SecretPhrase, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create は踊り子を作成する。(team_id, name)が重複する場合はErrDuplicateを返す。
func (r *PostgresDancerRepo) Create(ctx context.Context, dancer *model.Dancer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dancers (id, name, team_id, role, is_approved, approved_by, avatar_url, bio, password_hash, secret_phrase, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		dancer.ID, dancer.Name, dancer.TeamID, dancer.Role, dancer.IsApproved,
		dancer.ApprovedBy, dancer.AvatarURL, dancer.Bio, dancer.PasswordHash, dancer.SecretPhrase, dancer.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert dancer: %w", err)
	}
	return nil
}

// FindByID は指定IDの踊り子を取得する。見つからない場合はnilを返す。
func (r *PostgresDancerRepo) FindByID(ctx context.Context, id string) (*model.Dancer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dancerColumns+` FROM dancers WHERE id = $1`, id,
	)
	dancer, err := scanDancer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dancer by ID: %w", err)
	}
	return dancer, nil
}

// FindByIDAndTeam は(dancer_id, team_id)で踊り子をチームとJOINして取得する。
// 見つからない場合は(nil, nil)を返す。
func (r *PostgresDancerRepo) FindByIDAndTeam(ctx context.Context, dancerID, teamID string) (*model.Dancer, *model.Team, error) {
	d := &model.Dancer{}
	t := &model.Team{}
	err := r.db.QueryRowContext(ctx,
		`SELECT d.id, d.name, d.team_id, d.role, d.is_approved, d.approved_by,
		        d.avatar_url, d.bio, d.password_hash, d.secret_phrase, d.created_at,
		        t.id, t.name, t.created_at
		 FROM dancers d
		 JOIN teams t ON t.id = d.team_id
		 WHERE d.id = $1 AND d.team_id = $2`,
		dancerID, teamID,
	).Scan(
		&d.ID, &d.Name, &d.TeamID, &d.Role, &d.IsApproved, &d.ApprovedBy,
		&d.AvatarURL, &d.Bio, &d.PasswordHash, &d.SecretPhrase, &d.CreatedAt,
		&t.ID, &t.Name, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find dancer with team: %w", err)
	}
	return d, t, nil
}

// FindByLogin は(team_id, name, role, password_hash)の等値フィルタで踊り子を検索する。
func (r *PostgresDancerRepo) FindByLogin(ctx context.Context, teamID, name string, role model.Role, passwordHash string) (*model.Dancer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dancerColumns+` FROM dancers
		 WHERE team_id = $1 AND name = $2 AND role = $3 AND password_hash = $4`,
		teamID, name, role, passwordHash,
	)
	dancer, err := scanDancer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dancer by login: %w", err)
	}
	return dancer, nil
}

// FindByReset は(team_id, name, role, secret_phrase)の等値フィルタで踊り子を検索する。
func (r *PostgresDancerRepo) FindByReset(ctx context.Context, teamID, name string, role model.Role, secretPhrase string) (*model.Dancer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dancerColumns+` FROM dancers
		 WHERE team_id = $1 AND name = $2 AND role = $3 AND secret_phrase = $4`,
		teamID, name, role, secretPhrase,
	)
	dancer, err := scanDancer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dancer by reset credentials: %w", err)
	}
	return dancer, nil
}

// ListByTeam はチームの踊り子一覧を役職の序列降順・名前昇順で返す。
func (r *PostgresDancerRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Dancer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dancerColumns+` FROM dancers
		 WHERE team_id = $1
		 ORDER BY CASE role
		     WHEN 'representative' THEN 3
		     WHEN 'staff' THEN 2
		     ELSE 1
		 END DESC, name`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dancers: %w", err)
	}
	defer rows.Close()

	var dancers []*model.Dancer
	for rows.Next() {
		dancer, err := scanDancer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dancer: %w", err)
		}
		dancers = append(dancers, dancer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dancers: %w", err)
	}

	return dancers, nil
}

// UpdateApproval は承認状態を更新する。
func (r *PostgresDancerRepo) UpdateApproval(ctx context.Context, id string, isApproved bool, approvedBy *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dancers SET is_approved = $2, approved_by = $3 WHERE id = $1`,
		id, isApproved, approvedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	return nil
}

// UpdateRole は役職を更新する。
func (r *PostgresDancerRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dancers SET role = $2 WHERE id = $1`,
		id, role,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// UpdateProfile は名前・自己紹介・アバターURLを更新する。
func (r *PostgresDancerRepo) UpdateProfile(ctx context.Context, id, name string, bio, avatarURL *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dancers SET name = $2, bio = $3, avatar_url = $4 WHERE id = $1`,
		id, name, bio, avatarURL,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdatePasswordHash はパスワードハッシュを上書きする。
func (r *PostgresDancerRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dancers SET password_hash = $2 WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

// DeleteCascade は踊り子と従属行を同一トランザクションで削除する。
// 削除順序: 習得記録 → 参加表明 → コメント → 購入 → セッション → 踊り子。
func (r *PostgresDancerRepo) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		label string
		query string
	}{
		{"dance move completions", `DELETE FROM dance_move_completions WHERE dancer_id = $1`},
		{"schedule participants", `DELETE FROM schedule_participants WHERE dancer_id = $1`},
		{"schedule comments", `DELETE FROM schedule_comments WHERE dancer_id = $1`},
		{"item purchases", `DELETE FROM item_purchases WHERE dancer_id = $1`},
		{"sessions", `DELETE FROM sessions WHERE dancer_id = $1`},
		{"dancer", `DELETE FROM dancers WHERE id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.label, err)
		}
	}

	// この踊り子が承認者だった行の参照を外す
	if _, err := tx.ExecContext(ctx,
		`UPDATE dancers SET approved_by = NULL WHERE approved_by = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to clear approver references: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ DancerRepository = (*PostgresDancerRepo)(nil)
