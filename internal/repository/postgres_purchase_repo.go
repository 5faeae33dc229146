package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/festa/internal/model"
)

// purchaseSelect は購入をアイテム・購入者・受け渡し担当者とJOINするSELECT句。
// 購入者と受け渡し担当者は退会している可能性があるためLEFT JOINする。
const purchaseSelect = `
	SELECT p.id, p.item_id, p.dancer_id, p.quantity, p.is_delivered, p.delivered_at, p.delivered_by, p.created_at,
	       i.id, i.team_id, i.name, i.price, i.description, i.image_url, i.created_by, i.created_at,
	       d.id, d.name,
	       dd.id, dd.name
	FROM item_purchases p
	JOIN items i ON i.id = p.item_id
	LEFT JOIN dancers d ON d.id = p.dancer_id
	LEFT JOIN dancers dd ON dd.id = p.delivered_by`

// PostgresPurchaseRepo はPostgreSQLを使用した購入リポジトリ。
type PostgresPurchaseRepo struct {
	db *sql.DB
}

// NewPostgresPurchaseRepo はPostgresPurchaseRepoを生成する。
func NewPostgresPurchaseRepo(db *sql.DB) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{db: db}
}

func scanPurchase(row interface{ Scan(...any) error }) (*model.ItemPurchase, error) {
	p := &model.ItemPurchase{Item: &model.Item{}}
	var (
		dID, dName   sql.NullString
		ddID, ddName sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.ItemID, &p.DancerID, &p.Quantity, &p.IsDelivered, &p.DeliveredAt, &p.DeliveredBy, &p.CreatedAt,
		&p.Item.ID, &p.Item.TeamID, &p.Item.Name, &p.Item.Price, &p.Item.Description, &p.Item.ImageURL, &p.Item.CreatedBy, &p.Item.CreatedAt,
		&dID, &dName,
		&ddID, &ddName,
	)
	if err != nil {
		return nil, err
	}
	if dID.Valid {
		p.Dancer = &model.Dancer{ID: dID.String, Name: dName.String}
	}
	if ddID.Valid {
		p.DeliveredDancer = &model.Dancer{ID: ddID.String, Name: ddName.String}
	}
	return p, nil
}

// Create は購入を作成する。
func (r *PostgresPurchaseRepo) Create(ctx context.Context, purchase *model.ItemPurchase) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO item_purchases (id, item_id, dancer_id, quantity, is_delivered, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		purchase.ID, purchase.ItemID, purchase.DancerID, purchase.Quantity, purchase.IsDelivered, purchase.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	return nil
}

// FindByID は購入をアイテム・購入者とJOINして取得する。見つからない場合はnilを返す。
func (r *PostgresPurchaseRepo) FindByID(ctx context.Context, id string) (*model.ItemPurchase, error) {
	row := r.db.QueryRowContext(ctx, purchaseSelect+` WHERE p.id = $1`, id)
	purchase, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase by ID: %w", err)
	}
	return purchase, nil
}

// ListByTeam はチームの購入一覧をcreated_at降順で返す。
func (r *PostgresPurchaseRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.ItemPurchase, error) {
	rows, err := r.db.QueryContext(ctx,
		purchaseSelect+` WHERE i.team_id = $1 ORDER BY p.created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*model.ItemPurchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	return purchases, nil
}

// UpdateDelivery は受け渡し状態を更新する。
func (r *PostgresPurchaseRepo) UpdateDelivery(ctx context.Context, id string, delivered bool, deliveredAt *time.Time, deliveredBy *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE item_purchases SET is_delivered = $2, delivered_at = $3, delivered_by = $4 WHERE id = $1`,
		id, delivered, deliveredAt, deliveredBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PurchaseRepository = (*PostgresPurchaseRepo)(nil)
