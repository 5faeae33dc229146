package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// scheduleColumns は予定のSELECT句。
const scheduleColumns = `id, team_id, title, description, category, location, location_url, start_time, end_time, color, created_by, created_at`

// PostgresScheduleRepo はPostgreSQLを使用した予定リポジトリ。
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

// scanSchedule は1行を読み取ってScheduleを構築する。
func scanSchedule(row interface{ Scan(...any) error }) (*model.Schedule, error) {
	s := &model.Schedule{}
	err := row.Scan(
		&s.ID, &s.TeamID, &s.Title, &s.Description, &s.Category,
		&s.Location, &s.LocationURL, &s.StartTime, &s.EndTime,
		&s.Color, &s.CreatedBy, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create は予定を作成する。
func (r *PostgresScheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedules (id, team_id, title, description, category, location, location_url, start_time, end_time, color, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		schedule.ID, schedule.TeamID, schedule.Title, schedule.Description, schedule.Category,
		schedule.Location, schedule.LocationURL, schedule.StartTime, schedule.EndTime,
		schedule.Color, schedule.CreatedBy, schedule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}
	return nil
}

// FindByID は指定IDの予定を取得する。見つからない場合はnilを返す。
func (r *PostgresScheduleRepo) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id,
	)
	schedule, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule by ID: %w", err)
	}
	return schedule, nil
}

// ListByTeam はチームの予定一覧をstart_time昇順で返す。
func (r *PostgresScheduleRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE team_id = $1 ORDER BY start_time`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}

	return schedules, nil
}

// Update は予定を上書き更新する。
func (r *PostgresScheduleRepo) Update(ctx context.Context, schedule *model.Schedule) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE schedules
		 SET title = $2, description = $3, category = $4, location = $5,
		     location_url = $6, start_time = $7, end_time = $8, color = $9
		 WHERE id = $1`,
		schedule.ID, schedule.Title, schedule.Description, schedule.Category,
		schedule.Location, schedule.LocationURL, schedule.StartTime, schedule.EndTime, schedule.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

// DeleteCascade は予定と参加表明・コメントを同一トランザクションで削除する。
// 削除順序: 参加表明 → コメント → 予定。
func (r *PostgresScheduleRepo) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedule_participants WHERE schedule_id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete schedule participants: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedule_comments WHERE schedule_id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete schedule comments: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedules WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
