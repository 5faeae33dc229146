package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// PostgresBlogRepo はPostgreSQLを使用したブログリポジトリ。
type PostgresBlogRepo struct {
	db *sql.DB
}

// NewPostgresBlogRepo はPostgresBlogRepoを生成する。
func NewPostgresBlogRepo(db *sql.DB) *PostgresBlogRepo {
	return &PostgresBlogRepo{db: db}
}

// ListByTeam はチームのブログ記事一覧を投稿者とJOINしてcreated_at降順で返す。
func (r *PostgresBlogRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.team_id, b.title, b.content, b.image_url, b.youtube_url, b.created_by, b.created_at,
		        d.id, d.name, d.team_id, d.role, d.is_approved, d.avatar_url, d.bio, d.created_at
		 FROM blogs b
		 LEFT JOIN dancers d ON d.id = b.created_by
		 WHERE b.team_id = $1
		 ORDER BY b.created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []*model.Blog
	for rows.Next() {
		blog, err := scanBlogWithDancer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blogs: %w", err)
	}

	return blogs, nil
}

// FindByID は指定IDのブログ記事を投稿者とJOINして取得する。見つからない場合はnilを返す。
func (r *PostgresBlogRepo) FindByID(ctx context.Context, id string) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT b.id, b.team_id, b.title, b.content, b.image_url, b.youtube_url, b.created_by, b.created_at,
		        d.id, d.name, d.team_id, d.role, d.is_approved, d.avatar_url, d.bio, d.created_at
		 FROM blogs b
		 LEFT JOIN dancers d ON d.id = b.created_by
		 WHERE b.id = $1`,
		id,
	)
	blog, err := scanBlogWithDancer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog by ID: %w", err)
	}
	return blog, nil
}

// scanBlogWithDancer は投稿者をLEFT JOINした1行を読み取る。
// 投稿者が退会済みの場合、踊り子側の列はNULLになる。
func scanBlogWithDancer(row interface{ Scan(...any) error }) (*model.Blog, error) {
	b := &model.Blog{}
	var (
		dID         sql.NullString
		dName       sql.NullString
		dTeamID     sql.NullString
		dRole       sql.NullString
		dIsApproved sql.NullBool
		dAvatarURL  sql.NullString
		dBio        sql.NullString
		dCreatedAt  sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.TeamID, &b.Title, &b.Content, &b.ImageURL, &b.YouTubeURL, &b.CreatedBy, &b.CreatedAt,
		&dID, &dName, &dTeamID, &dRole, &dIsApproved, &dAvatarURL, &dBio, &dCreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dID.Valid {
		b.Dancer = &model.Dancer{
			ID:         dID.String,
			Name:       dName.String,
			TeamID:     dTeamID.String,
			Role:       model.Role(dRole.String),
			IsApproved: dIsApproved.Bool,
			CreatedAt:  dCreatedAt.Time,
		}
		if dAvatarURL.Valid {
			b.Dancer.AvatarURL = &dAvatarURL.String
		}
		if dBio.Valid {
			b.Dancer.Bio = &dBio.String
		}
	}
	return b, nil
}

// Create はブログ記事を作成する。
func (r *PostgresBlogRepo) Create(ctx context.Context, blog *model.Blog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blogs (id, team_id, title, content, image_url, youtube_url, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		blog.ID, blog.TeamID, blog.Title, blog.Content, blog.ImageURL, blog.YouTubeURL, blog.CreatedBy, blog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert blog: %w", err)
	}
	return nil
}

// Update はブログ記事を上書き更新する。
func (r *PostgresBlogRepo) Update(ctx context.Context, blog *model.Blog) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET title = $2, content = $3, image_url = $4, youtube_url = $5 WHERE id = $1`,
		blog.ID, blog.Title, blog.Content, blog.ImageURL, blog.YouTubeURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	return nil
}

// Delete はブログ記事を削除する。
func (r *PostgresBlogRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	return nil
}

// compile-time interface check
var _ BlogRepository = (*PostgresBlogRepo)(nil)
