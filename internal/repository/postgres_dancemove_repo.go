package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// PostgresDanceMoveRepo はPostgreSQLを使用した技リポジトリ。
type PostgresDanceMoveRepo struct {
	db *sql.DB
}

// NewPostgresDanceMoveRepo はPostgresDanceMoveRepoを生成する。
func NewPostgresDanceMoveRepo(db *sql.DB) *PostgresDanceMoveRepo {
	return &PostgresDanceMoveRepo{db: db}
}

// ListByTeam はチームの技一覧を名前昇順で返す。
func (r *PostgresDanceMoveRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.DanceMove, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, team_id, name, description, created_by, created_at
		 FROM dance_moves WHERE team_id = $1 ORDER BY name`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dance moves: %w", err)
	}
	defer rows.Close()

	var moves []*model.DanceMove
	for rows.Next() {
		m := &model.DanceMove{}
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Description, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dance move: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dance moves: %w", err)
	}

	return moves, nil
}

// FindByID は指定IDの技を取得する。見つからない場合はnilを返す。
func (r *PostgresDanceMoveRepo) FindByID(ctx context.Context, id string) (*model.DanceMove, error) {
	m := &model.DanceMove{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, team_id, name, description, created_by, created_at FROM dance_moves WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.TeamID, &m.Name, &m.Description, &m.CreatedBy, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dance move by ID: %w", err)
	}
	return m, nil
}

// Create は技を作成する。
func (r *PostgresDanceMoveRepo) Create(ctx context.Context, move *model.DanceMove) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dance_moves (id, team_id, name, description, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		move.ID, move.TeamID, move.Name, move.Description, move.CreatedBy, move.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dance move: %w", err)
	}
	return nil
}

// Update は技を上書き更新する。
func (r *PostgresDanceMoveRepo) Update(ctx context.Context, move *model.DanceMove) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dance_moves SET name = $2, description = $3 WHERE id = $1`,
		move.ID, move.Name, move.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update dance move: %w", err)
	}
	return nil
}

// DeleteCascade は技と習得記録を同一トランザクションで削除する。
func (r *PostgresDanceMoveRepo) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM dance_move_completions WHERE dance_move_id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete dance move completions: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM dance_moves WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete dance move: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ DanceMoveRepository = (*PostgresDanceMoveRepo)(nil)

// PostgresCompletionRepo はPostgreSQLを使用した習得記録リポジトリ。
type PostgresCompletionRepo struct {
	db *sql.DB
}

// NewPostgresCompletionRepo はPostgresCompletionRepoを生成する。
func NewPostgresCompletionRepo(db *sql.DB) *PostgresCompletionRepo {
	return &PostgresCompletionRepo{db: db}
}

// ListByMove は技の習得記録一覧を踊り子とJOINして返す。
func (r *PostgresCompletionRepo) ListByMove(ctx context.Context, danceMoveID string) ([]*model.DanceMoveCompletion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.dance_move_id, c.dancer_id, c.created_at,
		        d.id, d.name, d.team_id, d.role, d.is_approved, d.avatar_url, d.bio, d.created_at
		 FROM dance_move_completions c
		 JOIN dancers d ON d.id = c.dancer_id
		 WHERE c.dance_move_id = $1
		 ORDER BY c.created_at`,
		danceMoveID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	var completions []*model.DanceMoveCompletion
	for rows.Next() {
		c := &model.DanceMoveCompletion{Dancer: &model.Dancer{}}
		d := c.Dancer
		if err := rows.Scan(
			&c.ID, &c.DanceMoveID, &c.DancerID, &c.CreatedAt,
			&d.ID, &d.Name, &d.TeamID, &d.Role, &d.IsApproved, &d.AvatarURL, &d.Bio, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completions: %w", err)
	}

	return completions, nil
}

// Insert は習得記録を挿入する。既に存在する場合は何もせずfalseを返す。
func (r *PostgresCompletionRepo) Insert(ctx context.Context, c *model.DanceMoveCompletion) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO dance_move_completions (id, dance_move_id, dancer_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (dance_move_id, dancer_id) DO NOTHING`,
		c.ID, c.DanceMoveID, c.DancerID, c.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert completion: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return inserted > 0, nil
}

// Delete は習得記録を削除し、行が存在したかどうかを返す。
func (r *PostgresCompletionRepo) Delete(ctx context.Context, danceMoveID, dancerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dance_move_completions WHERE dance_move_id = $1 AND dancer_id = $2`,
		danceMoveID, dancerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete completion: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted > 0, nil
}

// compile-time interface check
var _ CompletionRepository = (*PostgresCompletionRepo)(nil)
