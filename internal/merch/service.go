// Package merch はチームグッズのアイテム・在庫・購入・受け渡し管理を提供する。
package merch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/festa/internal/model"
	"github.com/hitoshi/festa/internal/policy"
	"github.com/hitoshi/festa/internal/repository"
)

// ItemInput はアイテムの作成・更新の入力。
type ItemInput struct {
	Name        string
	Price       int
	Description *string
	ImageURL    *string
}

// ItemWithInventory はアイテムと在庫を束ねた表示用の集約。
// 在庫未設定のアイテムはInventoryがnilになる。
type ItemWithInventory struct {
	Item      *model.Item
	Inventory *model.Inventory
}

// Service はグッズ管理のサービス層。
type Service struct {
	itemRepo      repository.ItemRepository
	inventoryRepo repository.InventoryRepository
	purchaseRepo  repository.PurchaseRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	itemRepo repository.ItemRepository,
	inventoryRepo repository.InventoryRepository,
	purchaseRepo repository.PurchaseRepository,
) *Service {
	return &Service{
		itemRepo:      itemRepo,
		inventoryRepo: inventoryRepo,
		purchaseRepo:  purchaseRepo,
	}
}

// ListItems はチームのアイテム一覧を在庫つきで返す。
func (s *Service) ListItems(ctx context.Context, teamID string) ([]*ItemWithInventory, error) {
	items, err := s.itemRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("アイテム一覧の取得に失敗しました: %w", err)
	}

	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}
	inventories, err := s.inventoryRepo.ListByItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("在庫一覧の取得に失敗しました: %w", err)
	}
	byItem := make(map[string]*model.Inventory, len(inventories))
	for _, inv := range inventories {
		byItem[inv.ItemID] = inv
	}

	result := make([]*ItemWithInventory, 0, len(items))
	for _, item := range items {
		result = append(result, &ItemWithInventory{Item: item, Inventory: byItem[item.ID]})
	}
	return result, nil
}

// GetItem はチーム内のアイテムを在庫つきで取得する。
func (s *Service) GetItem(ctx context.Context, teamID, itemID string) (*ItemWithInventory, error) {
	item, err := s.findTeamItem(ctx, teamID, itemID)
	if err != nil {
		return nil, err
	}
	inventory, err := s.inventoryRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("在庫の取得に失敗しました: %w", err)
	}
	return &ItemWithInventory{Item: item, Inventory: inventory}, nil
}

// CreateItem はアイテムを作成する。代表またはスタッフのみ可能。
func (s *Service) CreateItem(ctx context.Context, actor *model.Dancer, input ItemInput) (*model.Item, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	if err := validateItem(&input); err != nil {
		return nil, err
	}

	item := &model.Item{
		ID:          uuid.NewString(),
		TeamID:      actor.TeamID,
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("アイテムの作成に失敗しました: %w", err)
	}
	return item, nil
}

// UpdateItem はアイテムを更新する。代表またはスタッフのみ可能。
func (s *Service) UpdateItem(ctx context.Context, actor *model.Dancer, itemID string, input ItemInput) (*model.Item, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	item, err := s.findTeamItem(ctx, actor.TeamID, itemID)
	if err != nil {
		return nil, err
	}
	if err := validateItem(&input); err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Price = input.Price
	item.Description = input.Description
	item.ImageURL = input.ImageURL

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("アイテムの更新に失敗しました: %w", err)
	}
	return item, nil
}

// DeleteItem はアイテムを削除する。購入記録と在庫も同一トランザクションで消える。
func (s *Service) DeleteItem(ctx context.Context, actor *model.Dancer, itemID string) error {
	if !policy.CanManageTeamResources(actor) {
		return model.NewForbiddenError()
	}
	if _, err := s.findTeamItem(ctx, actor.TeamID, itemID); err != nil {
		return err
	}
	if err := s.itemRepo.DeleteCascade(ctx, itemID); err != nil {
		return fmt.Errorf("アイテムの削除に失敗しました: %w", err)
	}

	slog.Info("アイテムを削除しました",
		slog.String("item_id", itemID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// SetInventory はアイテムの在庫数を設定する。代表またはスタッフのみ可能。
func (s *Service) SetInventory(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.Inventory, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	if quantity < 0 {
		return nil, model.NewValidationError("在庫数は0以上で入力してください。")
	}
	if _, err := s.findTeamItem(ctx, actor.TeamID, itemID); err != nil {
		return nil, err
	}

	inventory, err := s.inventoryRepo.Upsert(ctx, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("在庫の設定に失敗しました: %w", err)
	}
	return inventory, nil
}

// Purchase はアイテムの購入を申し込む。数量は1以上。
// 在庫管理中のアイテムは在庫数を超える数量をOUT_OF_STOCKで拒否する。
// 在庫行がないアイテム（在庫管理対象外）は数量制限なしで受け付ける。
func (s *Service) Purchase(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.ItemPurchase, error) {
	if actor == nil {
		return nil, model.NewUnauthorizedError()
	}
	if quantity < 1 {
		return nil, model.NewValidationError("数量は1以上で入力してください。")
	}
	if _, err := s.findTeamItem(ctx, actor.TeamID, itemID); err != nil {
		return nil, err
	}

	inventory, err := s.inventoryRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("在庫の取得に失敗しました: %w", err)
	}
	if inventory != nil && quantity > inventory.Quantity {
		return nil, model.NewOutOfStockError()
	}

	purchase := &model.ItemPurchase{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		DancerID:  actor.ID,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("購入の申込に失敗しました: %w", err)
	}

	slog.Info("購入を受け付けました",
		slog.String("purchase_id", purchase.ID),
		slog.String("item_id", itemID),
		slog.String("dancer_id", actor.ID),
		slog.Int("quantity", quantity),
	)

	return purchase, nil
}

// ListPurchases はチームの購入一覧を新しい順で返す。代表またはスタッフのみ可能。
func (s *Service) ListPurchases(ctx context.Context, actor *model.Dancer) ([]*model.ItemPurchase, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	purchases, err := s.purchaseRepo.ListByTeam(ctx, actor.TeamID)
	if err != nil {
		return nil, fmt.Errorf("購入一覧の取得に失敗しました: %w", err)
	}
	return purchases, nil
}

// MarkDelivered は購入を受け渡し済みにし、在庫を購入数量ぶん減算する。
// 在庫は0未満にならない。
func (s *Service) MarkDelivered(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error) {
	purchase, err := s.findTeamPurchase(ctx, actor, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.IsDelivered {
		return purchase, nil
	}

	now := time.Now().UTC()
	if err := s.purchaseRepo.UpdateDelivery(ctx, purchaseID, true, &now, &actor.ID); err != nil {
		return nil, fmt.Errorf("受け渡し状態の更新に失敗しました: %w", err)
	}
	if err := s.inventoryRepo.Adjust(ctx, purchase.ItemID, -purchase.Quantity); err != nil {
		return nil, fmt.Errorf("在庫の減算に失敗しました: %w", err)
	}

	purchase.IsDelivered = true
	purchase.DeliveredAt = &now
	purchase.DeliveredBy = &actor.ID
	return purchase, nil
}

// UnmarkDelivered は受け渡しを取り消し、在庫を購入数量ぶん戻す。
func (s *Service) UnmarkDelivered(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error) {
	purchase, err := s.findTeamPurchase(ctx, actor, purchaseID)
	if err != nil {
		return nil, err
	}
	if !purchase.IsDelivered {
		return purchase, nil
	}

	if err := s.purchaseRepo.UpdateDelivery(ctx, purchaseID, false, nil, nil); err != nil {
		return nil, fmt.Errorf("受け渡し状態の更新に失敗しました: %w", err)
	}
	if err := s.inventoryRepo.Adjust(ctx, purchase.ItemID, purchase.Quantity); err != nil {
		return nil, fmt.Errorf("在庫の復元に失敗しました: %w", err)
	}

	purchase.IsDelivered = false
	purchase.DeliveredAt = nil
	purchase.DeliveredBy = nil
	return purchase, nil
}

func (s *Service) findTeamItem(ctx context.Context, teamID, itemID string) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("アイテムの取得に失敗しました: %w", err)
	}
	if item == nil || item.TeamID != teamID {
		return nil, model.NewNotFoundError("アイテム")
	}
	return item, nil
}

// findTeamPurchase は受け渡し操作の対象購入を取得する。代表またはスタッフのみ可能。
func (s *Service) findTeamPurchase(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error) {
	if !policy.CanManageTeamResources(actor) {
		return nil, model.NewForbiddenError()
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("購入の取得に失敗しました: %w", err)
	}
	if purchase == nil || purchase.Item == nil || purchase.Item.TeamID != actor.TeamID {
		return nil, model.NewNotFoundError("購入")
	}
	return purchase, nil
}

func validateItem(input *ItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return model.NewValidationError("アイテム名を入力してください。")
	}
	if input.Price < 0 {
		return model.NewValidationError("価格は0以上で入力してください。")
	}
	return nil
}
