package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
)

// itemColumns はアイテムのSELECT句。
const itemColumns = `id, team_id, name, price, description, image_url, created_by, created_at`

// PostgresItemRepo はPostgreSQLを使用したアイテムリポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	item := &model.Item{}
	err := row.Scan(&item.ID, &item.TeamID, &item.Name, &item.Price, &item.Description, &item.ImageURL, &item.CreatedBy, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListByTeam はチームのアイテム一覧をcreated_at降順で返す。
func (r *PostgresItemRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE team_id = $1 ORDER BY created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

// FindByID は指定IDのアイテムを取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}
	return item, nil
}

// Create はアイテムを作成する。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO items (id, team_id, name, price, description, image_url, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.TeamID, item.Name, item.Price, item.Description, item.ImageURL, item.CreatedBy, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// Update はアイテムを上書き更新する。
func (r *PostgresItemRepo) Update(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET name = $2, price = $3, description = $4, image_url = $5 WHERE id = $1`,
		item.ID, item.Name, item.Price, item.Description, item.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// DeleteCascade はアイテムと購入記録・在庫を同一トランザクションで削除する。
// 削除順序: 購入記録 → 在庫 → アイテム。
func (r *PostgresItemRepo) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_purchases WHERE item_id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete item purchases: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory WHERE item_id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete inventory: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
