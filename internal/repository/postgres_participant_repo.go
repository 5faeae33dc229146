package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// PostgresParticipantRepo はPostgreSQLを使用した参加表明リポジトリ。
type PostgresParticipantRepo struct {
	db *sql.DB
}

// NewPostgresParticipantRepo はPostgresParticipantRepoを生成する。
func NewPostgresParticipantRepo(db *sql.DB) *PostgresParticipantRepo {
	return &PostgresParticipantRepo{db: db}
}

// ListBySchedule は予定の参加者一覧を踊り子とJOINして返す。
func (r *PostgresParticipantRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]*model.ScheduleParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.schedule_id, p.dancer_id, p.created_at,
		        d.id, d.name, d.team_id, d.role, d.is_approved, d.avatar_url, d.bio, d.created_at
		 FROM schedule_participants p
		 JOIN dancers d ON d.id = p.dancer_id
		 WHERE p.schedule_id = $1
		 ORDER BY p.created_at`,
		scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*model.ScheduleParticipant
	for rows.Next() {
		p := &model.ScheduleParticipant{Dancer: &model.Dancer{}}
		d := p.Dancer
		if err := rows.Scan(
			&p.ID, &p.ScheduleID, &p.DancerID, &p.CreatedAt,
			&d.ID, &d.Name, &d.TeamID, &d.Role, &d.IsApproved, &d.AvatarURL, &d.Bio, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// Insert は参加表明を挿入する。既に存在する場合は何もせずfalseを返す。
// 同時挿入の競合は(schedule_id, dancer_id)の一意制約とON CONFLICTで解決する。
func (r *PostgresParticipantRepo) Insert(ctx context.Context, p *model.ScheduleParticipant) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO schedule_participants (id, schedule_id, dancer_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (schedule_id, dancer_id) DO NOTHING`,
		p.ID, p.ScheduleID, p.DancerID, p.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert participant: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return inserted > 0, nil
}

// Delete は参加表明を削除し、行が存在したかどうかを返す。
func (r *PostgresParticipantRepo) Delete(ctx context.Context, scheduleID, dancerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM schedule_participants WHERE schedule_id = $1 AND dancer_id = $2`,
		scheduleID, dancerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete participant: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted > 0, nil
}

// compile-time interface check
var _ ParticipantRepository = (*PostgresParticipantRepo)(nil)
