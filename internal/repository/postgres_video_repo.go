package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// PostgresVideoCategoryRepo はPostgreSQLを使用した動画カテゴリリポジトリ。
type PostgresVideoCategoryRepo struct {
	db *sql.DB
}

// NewPostgresVideoCategoryRepo はPostgresVideoCategoryRepoを生成する。
func NewPostgresVideoCategoryRepo(db *sql.DB) *PostgresVideoCategoryRepo {
	return &PostgresVideoCategoryRepo{db: db}
}

// ListByTeam はチームの動画カテゴリ一覧を名前昇順で返す。
func (r *PostgresVideoCategoryRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.VideoCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, team_id, name, created_by, created_at
		 FROM video_categories WHERE team_id = $1 ORDER BY name`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list video categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.VideoCategory
	for rows.Next() {
		c := &model.VideoCategory{}
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate video categories: %w", err)
	}

	return categories, nil
}

// FindByID は指定IDの動画カテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresVideoCategoryRepo) FindByID(ctx context.Context, id string) (*model.VideoCategory, error) {
	c := &model.VideoCategory{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, team_id, name, created_by, created_at FROM video_categories WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.TeamID, &c.Name, &c.CreatedBy, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find video category by ID: %w", err)
	}
	return c, nil
}

// Create は動画カテゴリを作成する。
func (r *PostgresVideoCategoryRepo) Create(ctx context.Context, category *model.VideoCategory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO video_categories (id, team_id, name, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		category.ID, category.TeamID, category.Name, category.CreatedBy, category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video category: %w", err)
	}
	return nil
}

// Delete は動画カテゴリを削除する。
func (r *PostgresVideoCategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM video_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video category: %w", err)
	}
	return nil
}

// CountVideos はカテゴリに属する動画数を返す。
func (r *PostgresVideoCategoryRepo) CountVideos(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM videos WHERE category_id = $1`, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ VideoCategoryRepository = (*PostgresVideoCategoryRepo)(nil)

// videoColumns は動画のSELECT句。
const videoColumns = `id, team_id, category_id, title, description, youtube_url, created_by, created_at`

// PostgresVideoRepo はPostgreSQLを使用した動画リポジトリ。
type PostgresVideoRepo struct {
	db *sql.DB
}

// NewPostgresVideoRepo はPostgresVideoRepoを生成する。
func NewPostgresVideoRepo(db *sql.DB) *PostgresVideoRepo {
	return &PostgresVideoRepo{db: db}
}

func scanVideo(row interface{ Scan(...any) error }) (*model.Video, error) {
	v := &model.Video{}
	err := row.Scan(&v.ID, &v.TeamID, &v.CategoryID, &v.Title, &v.Description, &v.YouTubeURL, &v.CreatedBy, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListByTeam はチームの動画一覧をcreated_at降順で返す。
// categoryIDが空でない場合はカテゴリで絞り込む。
func (r *PostgresVideoRepo) ListByTeam(ctx context.Context, teamID, categoryID string) ([]*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE team_id = $1`
	args := []any{teamID}
	if categoryID != "" {
		query += ` AND category_id = $2`
		args = append(args, categoryID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*model.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate videos: %w", err)
	}

	return videos, nil
}

// FindByID は指定IDの動画を取得する。見つからない場合はnilを返す。
func (r *PostgresVideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = $1`, id,
	)
	video, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find video by ID: %w", err)
	}
	return video, nil
}

// Create は動画を作成する。
func (r *PostgresVideoRepo) Create(ctx context.Context, video *model.Video) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (id, team_id, category_id, title, description, youtube_url, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		video.ID, video.TeamID, video.CategoryID, video.Title, video.Description, video.YouTubeURL, video.CreatedBy, video.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

// Update は動画を上書き更新する。
func (r *PostgresVideoRepo) Update(ctx context.Context, video *model.Video) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE videos SET category_id = $2, title = $3, description = $4, youtube_url = $5 WHERE id = $1`,
		video.ID, video.CategoryID, video.Title, video.Description, video.YouTubeURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	return nil
}

// Delete は動画を削除する。
func (r *PostgresVideoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return nil
}

// compile-time interface check
var _ VideoRepository = (*PostgresVideoRepo)(nil)
