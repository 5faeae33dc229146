package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/festa/internal/merch"
	"github.com/hitoshi/festa/internal/model"
)

// MerchServiceInterface はグッズハンドラーが必要とするサービスインターフェース。
type MerchServiceInterface interface {
	ListItems(ctx context.Context, teamID string) ([]*merch.ItemWithInventory, error)
	GetItem(ctx context.Context, teamID, itemID string) (*merch.ItemWithInventory, error)
	CreateItem(ctx context.Context, actor *model.Dancer, input merch.ItemInput) (*model.Item, error)
	UpdateItem(ctx context.Context, actor *model.Dancer, itemID string, input merch.ItemInput) (*model.Item, error)
	DeleteItem(ctx context.Context, actor *model.Dancer, itemID string) error
	SetInventory(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.Inventory, error)
	Purchase(ctx context.Context, actor *model.Dancer, itemID string, quantity int) (*model.ItemPurchase, error)
	ListPurchases(ctx context.Context, actor *model.Dancer) ([]*model.ItemPurchase, error)
	MarkDelivered(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error)
	UnmarkDelivered(ctx context.Context, actor *model.Dancer, purchaseID string) (*model.ItemPurchase, error)
}

// ItemHandler はグッズ・在庫・購入管理のHTTPハンドラー。
type ItemHandler struct {
	service MerchServiceInterface
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service MerchServiceInterface) *ItemHandler {
	return &ItemHandler{service: service}
}

type itemRequest struct {
	Name        string  `json:"name"`
	Price       int     `json:"price"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

type setInventoryRequest struct {
	Quantity int `json:"quantity"`
}

type purchaseRequest struct {
	Quantity int `json:"quantity"`
}

type itemResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       int     `json:"price"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Quantity    *int    `json:"quantity"`
	CreatedAt   string  `json:"created_at"`
}

type inventoryResponse struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type purchaseResponse struct {
	ID              string                 `json:"id"`
	Item            itemResponse           `json:"item"`
	Dancer          *dancerSummaryResponse `json:"dancer"`
	Quantity        int                    `json:"quantity"`
	IsDelivered     bool                   `json:"is_delivered"`
	DeliveredAt     *string                `json:"delivered_at"`
	DeliveredDancer *dancerSummaryResponse `json:"delivered_dancer"`
	CreatedAt       string                 `json:"created_at"`
}

// ListItems はチームのグッズ一覧を在庫数付きで返す。
// GET /api/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListItems(r.Context(), auth.Dancer.TeamID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]itemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, toItemWithInventoryResponse(item))
	}
	writeJSON(w, http.StatusOK, res)
}

// GetItem はグッズ詳細を返す。
// GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), auth.Dancer.TeamID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemWithInventoryResponse(item))
}

// CreateItem はグッズを登録する。代表またはスタッフのみ可能。
// POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.CreateItem(r.Context(), auth.Dancer, toItemInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(created, nil))
}

// UpdateItem はグッズを更新する。代表またはスタッフのみ可能。
// PUT /api/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateItem(r.Context(), auth.Dancer, chi.URLParam(r, "id"), toItemInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(updated, nil))
}

// DeleteItem はグッズを削除する。購入履歴と在庫も同時に消える。
// DELETE /api/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), auth.Dancer, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetInventory は在庫数を設定する。代表またはスタッフのみ可能。
// PUT /api/items/{id}/inventory
func (h *ItemHandler) SetInventory(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req setInventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.service.SetInventory(r.Context(), auth.Dancer, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inventoryResponse{ItemID: inv.ItemID, Quantity: inv.Quantity})
}

// Purchase はグッズの購入を申し込む。
// POST /api/items/{id}/purchases
func (h *ItemHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	purchase, err := h.service.Purchase(r.Context(), auth.Dancer, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPurchaseResponse(purchase))
}

// ListPurchases はチーム全体の購入一覧を返す。代表またはスタッフのみ可能。
// GET /api/purchases
func (h *ItemHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	purchases, err := h.service.ListPurchases(r.Context(), auth.Dancer)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		res = append(res, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, res)
}

// MarkDelivered は購入を受け渡し済みにし、在庫を減算する。
// PUT /api/purchases/{id}/delivery
func (h *ItemHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	purchase, err := h.service.MarkDelivered(r.Context(), auth.Dancer, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

// UnmarkDelivered は受け渡し済みを取り消し、在庫を戻す。
// DELETE /api/purchases/{id}/delivery
func (h *ItemHandler) UnmarkDelivered(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOrUnauthorized(w, r)
	if !ok {
		return
	}

	purchase, err := h.service.UnmarkDelivered(r.Context(), auth.Dancer, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func toItemInput(req itemRequest) merch.ItemInput {
	return merch.ItemInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
}

func toItemResponse(item *model.Item, inv *model.Inventory) itemResponse {
	res := itemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Price:       item.Price,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		CreatedAt:   formatDisplayTime(item.CreatedAt),
	}
	if inv != nil {
		q := inv.Quantity
		res.Quantity = &q
	}
	return res
}

func toItemWithInventoryResponse(item *merch.ItemWithInventory) itemResponse {
	return toItemResponse(item.Item, item.Inventory)
}

func toPurchaseResponse(p *model.ItemPurchase) purchaseResponse {
	res := purchaseResponse{
		ID:              p.ID,
		Item:            toItemResponse(p.Item, nil),
		Dancer:          toDancerSummary(p.Dancer),
		Quantity:        p.Quantity,
		IsDelivered:     p.IsDelivered,
		DeliveredDancer: toDancerSummary(p.DeliveredDancer),
		CreatedAt:       formatDisplayTime(p.CreatedAt),
	}
	if p.DeliveredAt != nil {
		s := formatDisplayTime(*p.DeliveredAt)
		res.DeliveredAt = &s
	}
	return res
}
