package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// ListBySchedule は予定のコメント一覧を踊り子とJOINしてcreated_at昇順で返す。
func (r *PostgresCommentRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]*model.ScheduleComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.schedule_id, c.dancer_id, c.content, c.created_at,
		        d.id, d.name, d.team_id, d.role, d.is_approved, d.avatar_url, d.bio, d.created_at
		 FROM schedule_comments c
		 JOIN dancers d ON d.id = c.dancer_id
		 WHERE c.schedule_id = $1
		 ORDER BY c.created_at`,
		scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*model.ScheduleComment
	for rows.Next() {
		c := &model.ScheduleComment{Dancer: &model.Dancer{}}
		d := c.Dancer
		if err := rows.Scan(
			&c.ID, &c.ScheduleID, &c.DancerID, &c.Content, &c.CreatedAt,
			&d.ID, &d.Name, &d.TeamID, &d.Role, &d.IsApproved, &d.AvatarURL, &d.Bio, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, c *model.ScheduleComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedule_comments (id, schedule_id, dancer_id, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.ScheduleID, c.DancerID, c.Content, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// DeleteByIDAndDancer は投稿者本人のコメントのみ削除し、削除件数を返す。
// 投稿者以外が指定した場合は0件で正常終了する（フィルタ自体が認可）。
func (r *PostgresCommentRepo) DeleteByIDAndDancer(ctx context.Context, commentID, dancerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM schedule_comments WHERE id = $1 AND dancer_id = $2`,
		commentID, dancerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
