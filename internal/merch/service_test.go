package merch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/festa/internal/model"
)

// --- モック ---

type mockItemRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.Item, error)
	deleteCascadeFn func(ctx context.Context, id string) error
}

func (m *mockItemRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Item, error) {
	return nil, nil
}
func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Item{ID: id, TeamID: "team-1", Name: "手ぬぐい", Price: 1000}, nil
}
func (m *mockItemRepo) Create(ctx context.Context, item *model.Item) error { return nil }
func (m *mockItemRepo) Update(ctx context.Context, item *model.Item) error { return nil }
func (m *mockItemRepo) DeleteCascade(ctx context.Context, id string) error {
	if m.deleteCascadeFn != nil {
		return m.deleteCascadeFn(ctx, id)
	}
	return nil
}

type mockInventoryRepo struct {
	findByItemFn func(ctx context.Context, itemID string) (*model.Inventory, error)
	upsertFn     func(ctx context.Context, itemID string, quantity int) (*model.Inventory, error)
	adjustFn     func(ctx context.Context, itemID string, delta int) error
}

func (m *mockInventoryRepo) FindByItem(ctx context.Context, itemID string) (*model.Inventory, error) {
	if m.findByItemFn != nil {
		return m.findByItemFn(ctx, itemID)
	}
	return nil, nil
}
func (m *mockInventoryRepo) ListByItems(ctx context.Context, itemIDs []string) ([]*model.Inventory, error) {
	return nil, nil
}
func (m *mockInventoryRepo) Upsert(ctx context.Context, itemID string, quantity int) (*model.Inventory, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, itemID, quantity)
	}
	return &model.Inventory{ItemID: itemID, Quantity: quantity}, nil
}
func (m *mockInventoryRepo) Adjust(ctx context.Context, itemID string, delta int) error {
	if m.adjustFn != nil {
		return m.adjustFn(ctx, itemID, delta)
	}
	return nil
}

type mockPurchaseRepo struct {
	createFn         func(ctx context.Context, purchase *model.ItemPurchase) error
	findByIDFn       func(ctx context.Context, id string) (*model.ItemPurchase, error)
	updateDeliveryFn func(ctx context.Context, id string, delivered bool, deliveredAt *time.Time, deliveredBy *string) error
}

func (m *mockPurchaseRepo) Create(ctx context.Context, purchase *model.ItemPurchase) error {
	if m.createFn != nil {
		return m.createFn(ctx, purchase)
	}
	return nil
}
func (m *mockPurchaseRepo) FindByID(ctx context.Context, id string) (*model.ItemPurchase, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockPurchaseRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.ItemPurchase, error) {
	return nil, nil
}
func (m *mockPurchaseRepo) UpdateDelivery(ctx context.Context, id string, delivered bool, deliveredAt *time.Time, deliveredBy *string) error {
	if m.updateDeliveryFn != nil {
		return m.updateDeliveryFn(ctx, id, delivered, deliveredAt, deliveredBy)
	}
	return nil
}

func newTestService(itemRepo *mockItemRepo, inventoryRepo *mockInventoryRepo, purchaseRepo *mockPurchaseRepo) *Service {
	if itemRepo == nil {
		itemRepo = &mockItemRepo{}
	}
	if inventoryRepo == nil {
		inventoryRepo = &mockInventoryRepo{}
	}
	if purchaseRepo == nil {
		purchaseRepo = &mockPurchaseRepo{}
	}
	return NewService(itemRepo, inventoryRepo, purchaseRepo)
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	return apiErr.Code
}

func staff(id string) *model.Dancer {
	return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleStaff, IsApproved: true}
}

func member(id string) *model.Dancer {
	return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleMember, IsApproved: true}
}

func teamPurchase(id string, delivered bool) *model.ItemPurchase {
	return &model.ItemPurchase{
		ID:          id,
		ItemID:      "item-1",
		DancerID:    "member-1",
		Quantity:    2,
		IsDelivered: delivered,
		Item:        &model.Item{ID: "item-1", TeamID: "team-1"},
	}
}

// --- テスト ---

// TestService_Purchase_QuantityTooSmall は数量0以下の購入が拒否されることを検証する。
func TestService_Purchase_QuantityTooSmall(t *testing.T) {
	createCalled := false
	purchaseRepo := &mockPurchaseRepo{
		createFn: func(ctx context.Context, purchase *model.ItemPurchase) error {
			createCalled = true
			return nil
		},
	}
	svc := newTestService(nil, nil, purchaseRepo)

	_, err := svc.Purchase(context.Background(), member("member-1"), "item-1", 0)
	if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
	if createCalled {
		t.Error("expected no purchase to be stored")
	}
}

// TestService_Purchase_Success はメンバーが購入を申し込めることを検証する。
func TestService_Purchase_Success(t *testing.T) {
	var saved *model.ItemPurchase
	purchaseRepo := &mockPurchaseRepo{
		createFn: func(ctx context.Context, purchase *model.ItemPurchase) error {
			saved = purchase
			return nil
		},
	}
	svc := newTestService(nil, nil, purchaseRepo)

	purchase, err := svc.Purchase(context.Background(), member("member-1"), "item-1", 3)
	if err != nil {
		t.Fatalf("Purchase returned error: %v", err)
	}
	if saved == nil || saved.Quantity != 3 || purchase.IsDelivered {
		t.Errorf("unexpected purchase: %+v", saved)
	}
}

// TestService_Purchase_OutOfStock は在庫数を超える数量がOUT_OF_STOCKで拒否されることを検証する。
func TestService_Purchase_OutOfStock(t *testing.T) {
	inventoryRepo := &mockInventoryRepo{
		findByItemFn: func(ctx context.Context, itemID string) (*model.Inventory, error) {
			return &model.Inventory{ItemID: itemID, Quantity: 2}, nil
		},
	}
	createCalled := false
	purchaseRepo := &mockPurchaseRepo{
		createFn: func(ctx context.Context, purchase *model.ItemPurchase) error {
			createCalled = true
			return nil
		},
	}
	svc := newTestService(nil, inventoryRepo, purchaseRepo)

	_, err := svc.Purchase(context.Background(), member("member-1"), "item-1", 3)
	if code := apiErrorCode(t, err); code != model.ErrCodeOutOfStock {
		t.Errorf("expected OUT_OF_STOCK, got %s", code)
	}
	if createCalled {
		t.Error("expected no purchase to be stored")
	}
}

// TestService_Purchase_WithinStock は在庫の範囲内なら購入できることを検証する。
// 在庫ちょうどの数量は受け付ける。
func TestService_Purchase_WithinStock(t *testing.T) {
	inventoryRepo := &mockInventoryRepo{
		findByItemFn: func(ctx context.Context, itemID string) (*model.Inventory, error) {
			return &model.Inventory{ItemID: itemID, Quantity: 3}, nil
		},
	}
	var saved *model.ItemPurchase
	purchaseRepo := &mockPurchaseRepo{
		createFn: func(ctx context.Context, purchase *model.ItemPurchase) error {
			saved = purchase
			return nil
		},
	}
	svc := newTestService(nil, inventoryRepo, purchaseRepo)

	if _, err := svc.Purchase(context.Background(), member("member-1"), "item-1", 3); err != nil {
		t.Fatalf("Purchase returned error: %v", err)
	}
	if saved == nil || saved.Quantity != 3 {
		t.Errorf("unexpected purchase: %+v", saved)
	}
}

// TestService_MarkDelivered は受け渡しで在庫が数量ぶん減算されることを検証する。
func TestService_MarkDelivered(t *testing.T) {
	purchaseRepo := &mockPurchaseRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.ItemPurchase, error) {
			return teamPurchase(id, false), nil
		},
	}
	var gotDelta int
	inventoryRepo := &mockInventoryRepo{
		adjustFn: func(ctx context.Context, itemID string, delta int) error {
			gotDelta = delta
			return nil
		},
	}
	var gotDeliveredBy *string
	purchaseRepo.updateDeliveryFn = func(ctx context.Context, id string, delivered bool, deliveredAt *time.Time, deliveredBy *string) error {
		if !delivered || deliveredAt == nil {
			t.Error("expected delivery fields to be set")
		}
		gotDeliveredBy = deliveredBy
		return nil
	}
	svc := newTestService(nil, inventoryRepo, purchaseRepo)

	purchase, err := svc.MarkDelivered(context.Background(), staff("staff-1"), "purchase-1")
	if err != nil {
		t.Fatalf("MarkDelivered returned error: %v", err)
	}
	if gotDelta != -2 {
		t.Errorf("expected inventory delta -2, got %d", gotDelta)
	}
	if gotDeliveredBy == nil || *gotDeliveredBy != "staff-1" {
		t.Error("expected delivered_by to record the actor")
	}
	if !purchase.IsDelivered {
		t.Error("expected purchase to be marked delivered")
	}
}

// TestService_MarkDelivered_AlreadyDelivered は受け渡し済みの再操作が何もしないことを検証する。
func TestService_MarkDelivered_AlreadyDelivered(t *testing.T) {
	purchaseRepo := &mockPurchaseRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.ItemPurchase, error) {
			return teamPurchase(id, true), nil
		},
	}
	adjustCalled := false
	inventoryRepo := &mockInventoryRepo{
		adjustFn: func(ctx context.Context, itemID string, delta int) error {
			adjustCalled = true
			return nil
		},
	}
	svc := newTestService(nil, inventoryRepo, purchaseRepo)

	if _, err := svc.MarkDelivered(context.Background(), staff("staff-1"), "purchase-1"); err != nil {
		t.Fatalf("MarkDelivered returned error: %v", err)
	}
	if adjustCalled {
		t.Error("expected no inventory change for already delivered purchase")
	}
}

// TestService_UnmarkDelivered は受け渡し取消で在庫が数量ぶん戻ることを検証する。
func TestService_UnmarkDelivered(t *testing.T) {
	purchaseRepo := &mockPurchaseRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.ItemPurchase, error) {
			return teamPurchase(id, true), nil
		},
		updateDeliveryFn: func(ctx context.Context, id string, delivered bool, deliveredAt *time.Time, deliveredBy *string) error {
			if delivered || deliveredAt != nil || deliveredBy != nil {
				t.Error("expected delivery fields to be cleared")
			}
			return nil
		},
	}
	var gotDelta int
	inventoryRepo := &mockInventoryRepo{
		adjustFn: func(ctx context.Context, itemID string, delta int) error {
			gotDelta = delta
			return nil
		},
	}
	svc := newTestService(nil, inventoryRepo, purchaseRepo)

	purchase, err := svc.UnmarkDelivered(context.Background(), staff("staff-1"), "purchase-1")
	if err != nil {
		t.Fatalf("UnmarkDelivered returned error: %v", err)
	}
	if gotDelta != 2 {
		t.Errorf("expected inventory delta +2, got %d", gotDelta)
	}
	if purchase.IsDelivered {
		t.Error("expected purchase to be unmarked")
	}
}

// TestService_MarkDelivered_MemberForbidden はメンバーによる受け渡し操作が拒否されることを検証する。
func TestService_MarkDelivered_MemberForbidden(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.MarkDelivered(context.Background(), member("member-1"), "purchase-1")
	if code := apiErrorCode(t, err); code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", code)
	}
}

// TestService_SetInventory_Negative は負の在庫数が拒否されることを検証する。
func TestService_SetInventory_Negative(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.SetInventory(context.Background(), staff("staff-1"), "item-1", -1)
	if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

// TestService_DeleteItem_Cascade はアイテム削除がカスケード削除を呼ぶことを検証する。
func TestService_DeleteItem_Cascade(t *testing.T) {
	deletedID := ""
	itemRepo := &mockItemRepo{
		deleteCascadeFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := newTestService(itemRepo, nil, nil)

	if err := svc.DeleteItem(context.Background(), staff("staff-1"), "item-1"); err != nil {
		t.Fatalf("DeleteItem returned error: %v", err)
	}
	if deletedID != "item-1" {
		t.Errorf("expected item-1 cascade delete, got %q", deletedID)
	}
}

// TestService_GetItem_CrossTeam は他チームのアイテムが見えないことを検証する。
func TestService_GetItem_CrossTeam(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			return &model.Item{ID: id, TeamID: "team-2"}, nil
		},
	}
	svc := newTestService(itemRepo, nil, nil)

	_, err := svc.GetItem(context.Background(), "team-1", "item-9")
	if code := apiErrorCode(t, err); code != model.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}
