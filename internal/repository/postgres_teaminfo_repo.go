package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// teamInfoColumns はお知らせのSELECT句。
const teamInfoColumns = `id, team_id, title, content, created_by, created_at`

// PostgresTeamInfoRepo はPostgreSQLを使用したお知らせリポジトリ。
type PostgresTeamInfoRepo struct {
	db *sql.DB
}

// NewPostgresTeamInfoRepo はPostgresTeamInfoRepoを生成する。
func NewPostgresTeamInfoRepo(db *sql.DB) *PostgresTeamInfoRepo {
	return &PostgresTeamInfoRepo{db: db}
}

func scanTeamInfo(row interface{ Scan(...any) error }) (*model.TeamInfo, error) {
	info := &model.TeamInfo{}
	err := row.Scan(&info.ID, &info.TeamID, &info.Title, &info.Content, &info.CreatedBy, &info.CreatedAt)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ListByTeam はチームのお知らせ一覧をcreated_at降順で返す。
func (r *PostgresTeamInfoRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.TeamInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamInfoColumns+` FROM team_infos WHERE team_id = $1 ORDER BY created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list team infos: %w", err)
	}
	defer rows.Close()

	var infos []*model.TeamInfo
	for rows.Next() {
		info, err := scanTeamInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team info: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team infos: %w", err)
	}

	return infos, nil
}

// FindByID は指定IDのお知らせを取得する。見つからない場合はnilを返す。
func (r *PostgresTeamInfoRepo) FindByID(ctx context.Context, id string) (*model.TeamInfo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+teamInfoColumns+` FROM team_infos WHERE id = $1`, id,
	)
	info, err := scanTeamInfo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find team info by ID: %w", err)
	}
	return info, nil
}

// Create はお知らせを作成する。
func (r *PostgresTeamInfoRepo) Create(ctx context.Context, info *model.TeamInfo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO team_infos (id, team_id, title, content, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		info.ID, info.TeamID, info.Title, info.Content, info.CreatedBy, info.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert team info: %w", err)
	}
	return nil
}

// Update はお知らせを上書き更新する。
func (r *PostgresTeamInfoRepo) Update(ctx context.Context, info *model.TeamInfo) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE team_infos SET title = $2, content = $3 WHERE id = $1`,
		info.ID, info.Title, info.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to update team info: %w", err)
	}
	return nil
}

// Delete はお知らせを削除する。
func (r *PostgresTeamInfoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM team_infos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team info: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TeamInfoRepository = (*PostgresTeamInfoRepo)(nil)
