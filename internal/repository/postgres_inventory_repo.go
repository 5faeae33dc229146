package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/festa/internal/model"
	"github.com/lib/pq"
)

// PostgresInventoryRepo はPostgreSQLを使用した在庫リポジトリ。
type PostgresInventoryRepo struct {
	db *sql.DB
}

// NewPostgresInventoryRepo はPostgresInventoryRepoを生成する。
func NewPostgresInventoryRepo(db *sql.DB) *PostgresInventoryRepo {
	return &PostgresInventoryRepo{db: db}
}

// FindByItem はアイテムの在庫を取得する。未設定の場合はnilを返す。
func (r *PostgresInventoryRepo) FindByItem(ctx context.Context, itemID string) (*model.Inventory, error) {
	inv := &model.Inventory{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, item_id, quantity, updated_at FROM inventory WHERE item_id = $1`,
		itemID,
	).Scan(&inv.ID, &inv.ItemID, &inv.Quantity, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory: %w", err)
	}
	return inv, nil
}

// ListByItems は複数アイテムの在庫をまとめて返す。
func (r *PostgresInventoryRepo) ListByItems(ctx context.Context, itemIDs []string) ([]*model.Inventory, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, quantity, updated_at FROM inventory WHERE item_id = ANY($1)`,
		pq.Array(itemIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var inventories []*model.Inventory
	for rows.Next() {
		inv := &model.Inventory{}
		if err := rows.Scan(&inv.ID, &inv.ItemID, &inv.Quantity, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		inventories = append(inventories, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}

	return inventories, nil
}

// Upsert はアイテムの在庫数を設定する。行がなければ作成する。
func (r *PostgresInventoryRepo) Upsert(ctx context.Context, itemID string, quantity int) (*model.Inventory, error) {
	inv := &model.Inventory{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO inventory (id, item_id, quantity, updated_at)
		 VALUES (gen_random_uuid(), $1, $2, now())
		 ON CONFLICT (item_id)
		 DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
		 RETURNING id, item_id, quantity, updated_at`,
		itemID, quantity,
	).Scan(&inv.ID, &inv.ItemID, &inv.Quantity, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert inventory: %w", err)
	}
	return inv, nil
}

// Adjust は在庫数をdeltaぶん増減する。結果は0未満にならない。
// 在庫行が存在しないアイテムに対しては何もしない。
func (r *PostgresInventoryRepo) Adjust(ctx context.Context, itemID string, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = GREATEST(0, quantity + $2), updated_at = now()
		 WHERE item_id = $1`,
		itemID, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust inventory: %w", err)
	}
	return nil
}

// compile-time interface check
var _ InventoryRepository = (*PostgresInventoryRepo)(nil)
