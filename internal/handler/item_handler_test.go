package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/merch"
	"github.com/hitoshi/festa/internal/model"
)

// --- モック定義 ---

type mockMerchService struct {
	listItemsFn       func(ctx context.Context, teamID string) ([]*merch.ItemWithInventory, error)
	getItemFn         func(ctx context.Context, teamID, itemID string) (*merch.ItemWithInventory, error)
	createItemFn      func(ctx context.Context, actor *model.Dancer, input merch.ItemInput) (*model.Item, error)
	updateItemFn      func(ctx context.Context, actor *model.Dancer, itemID string, input merch.ItemInput) (*model.Item, error)
	deleteItemFn      func(ctx context.Context, actor *model.Dancer, itemID string) error
	setInventoryFn    func(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.Inventory, error)
	purchaseFn        func(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.ItemPurchase, error)
	listPurchasesFn   func(ctx context.Context, actor *model.Dancer) ([]*model.ItemPurchase, error)
	markDeliveredFn   func(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error)
	unmarkDeliveredFn func(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error)
}

func (m *mockMerchService) ListItems(ctx context.Context, teamID string) ([]*merch.ItemWithInventory, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, teamID)
	}
	return nil, nil
}
func (m *mockMerchService) GetItem(ctx context.Context, teamID, itemID string) (*merch.ItemWithInventory, error) {
	if m.getItemFn != nil {
		return m.getItemFn(ctx, teamID, itemID)
	}
	return nil, model.NewNotFoundError("アイテム")
}
func (m *mockMerchService) CreateItem(ctx context.Context, actor *model.Dancer, input merch.ItemInput) (*model.Item, error) {
	if m.createItemFn != nil {
		return m.createItemFn(ctx, actor, input)
	}
	return nil, model.NewForbiddenError()
}
func (m *mockMerchService) UpdateItem(ctx context.Context, actor *model.Dancer, itemID string, input merch.ItemInput) (*model.Item, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(ctx, actor, itemID, input)
	}
	return nil, model.NewForbiddenError()
}
func (m *mockMerchService) DeleteItem(ctx context.Context, actor *model.Dancer, itemID string) error {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(ctx, actor, itemID)
	}
	return nil
}
func (m *mockMerchService) SetInventory(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.Inventory, error) {
	if m.setInventoryFn != nil {
		return m.setInventoryFn(ctx, actor, itemID, quantity)
	}
	return nil, model.NewForbiddenError()
}
func (m *mockMerchService) Purchase(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.ItemPurchase, error) {
	if m.purchaseFn != nil {
		return m.purchaseFn(ctx, actor, itemID, quantity)
	}
	return nil, model.NewNotFoundError("アイテム")
}
func (m *mockMerchService) ListPurchases(ctx context.Context, actor *model.Dancer) ([]*model.ItemPurchase, error) {
	if m.listPurchasesFn != nil {
		return m.listPurchasesFn(ctx, actor)
	}
	return nil, nil
}
func (m *mockMerchService) MarkDelivered(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error) {
	if m.markDeliveredFn != nil {
		return m.markDeliveredFn(ctx, actor, purchaseID)
	}
	return nil, model.NewNotFoundError("購入")
}
func (m *mockMerchService) UnmarkDelivered(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error) {
	if m.unmarkDeliveredFn != nil {
		return m.unmarkDeliveredFn(ctx, actor, purchaseID)
	}
	return nil, model.NewNotFoundError("購入")
}

func itemTestRouter(h *ItemHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/items", h.ListItems)
	r.Post("/api/items", h.CreateItem)
	r.Put("/api/items/{id}/inventory", h.SetInventory)
	r.Post("/api/items/{id}/purchases", h.Purchase)
	r.Put("/api/purchases/{id}/delivery", h.MarkDelivered)
	r.Delete("/api/purchases/{id}/delivery", h.UnmarkDelivered)
	return r
}

func testItem() *model.Item {
	return &model.Item{
		ID:        "item-1",
		TeamID:    "team-1",
		Name:      "手ぬぐい",
		Price:     1200,
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- テスト ---

// TestItemHandler_ListItems_IncludesQuantity は一覧に在庫数が含まれることを検証する。
func TestItemHandler_ListItems_IncludesQuantity(t *testing.T) {
	service := &mockMerchService{
		listItemsFn: func(ctx context.Context, teamID string) ([]*merch.ItemWithInventory, error) {
			return []*merch.ItemWithInventory{
				{Item: testItem(), Inventory: &model.Inventory{ItemID: "item-1", Quantity: 30}},
				{Item: &model.Item{ID: "item-2", TeamID: teamID, Name: "法被", Price: 8000}},
			}, nil
		},
	}
	h := NewItemHandler(service)
	router := itemTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req = req.WithContext(authedCtx(req.Context(), model.RoleMember))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var res []itemResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("item count = %d, want 2", len(res))
	}
	if res[0].Quantity == nil || *res[0].Quantity != 30 {
		t.Errorf("quantity = %v, want 30", res[0].Quantity)
	}
	if res[1].Quantity != nil {
		t.Errorf("expected nil quantity for item without inventory, got %v", *res[1].Quantity)
	}
}

// TestItemHandler_Purchase_PassesQuantity は購入申込で数量が渡ることを検証する。
func TestItemHandler_Purchase_PassesQuantity(t *testing.T) {
	var gotItemID string
	var gotQuantity int
	service := &mockMerchService{
		purchaseFn: func(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.ItemPurchase, error) {
			gotItemID = itemID
			gotQuantity = quantity
			return &model.ItemPurchase{
				ID: "p1", ItemID: itemID, DancerID: actor.ID, Quantity: quantity,
				Item: testItem(), CreatedAt: time.Now().UTC(),
			}, nil
		},
	}
	h := NewItemHandler(service)
	router := itemTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/purchases", strings.NewReader(`{"quantity":2}`))
	req = req.WithContext(authedCtx(req.Context(), model.RoleMember))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
	if gotItemID != "item-1" || gotQuantity != 2 {
		t.Errorf("got (%q, %d), want (item-1, 2)", gotItemID, gotQuantity)
	}
}

// TestItemHandler_MarkDelivered_ReturnsDeliveryFields は受け渡しで配達情報が返ることを検証する。
func TestItemHandler_MarkDelivered_ReturnsDeliveryFields(t *testing.T) {
	deliveredAt := time.Date(2024, 8, 1, 3, 0, 0, 0, time.UTC)
	service := &mockMerchService{
		markDeliveredFn: func(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error) {
			return &model.ItemPurchase{
				ID: purchaseID, ItemID: "item-1", DancerID: "buyer-1", Quantity: 2,
				IsDelivered: true, DeliveredAt: &deliveredAt, DeliveredBy: &actor.ID,
				Item:            testItem(),
				DeliveredDancer: &model.Dancer{ID: actor.ID, Name: actor.Name},
				CreatedAt:       time.Now().UTC(),
			}, nil
		},
	}
	h := NewItemHandler(service)
	router := itemTestRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/api/purchases/p1/delivery", nil)
	req = req.WithContext(authedCtx(req.Context(), model.RoleStaff))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var res purchaseResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !res.IsDelivered {
		t.Error("expected is_delivered=true")
	}
	// 受け渡し時刻はJST表示（UTC 03:00 → JST 12:00）
	if res.DeliveredAt == nil || *res.DeliveredAt != "2024-08-01T12:00" {
		t.Errorf("delivered_at = %v, want 2024-08-01T12:00", res.DeliveredAt)
	}
	if res.DeliveredDancer == nil || res.DeliveredDancer.ID != "dancer-1" {
		t.Errorf("delivered_dancer = %+v, want dancer-1", res.DeliveredDancer)
	}
}

// TestItemHandler_SetInventory_Forbidden_Returns403 はメンバーの在庫設定が403になることを検証する。
func TestItemHandler_SetInventory_Forbidden_Returns403(t *testing.T) {
	h := NewItemHandler(&mockMerchService{})
	router := itemTestRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/api/items/item-1/inventory", strings.NewReader(`{"quantity":10}`))
	req = req.WithContext(authedCtx(req.Context(), model.RoleMember))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestItemHandler_CreateItem_Validation_Returns400 は価格不正が400になることを検証する。
func TestItemHandler_CreateItem_Validation_Returns400(t *testing.T) {
	service := &mockMerchService{
		createItemFn: func(ctx context.Context, actor *model.Dancer, input merch.ItemInput) (*model.Item, error) {
			return nil, model.NewValidationError("価格は0以上で入力してください。")
		},
	}
	h := NewItemHandler(service)
	router := itemTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(`{"name":"手ぬぐい","price":-100}`))
	req = req.WithContext(authedCtx(req.Context(), model.RoleStaff))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}
