package model

import "time"

// Item はチームの販売アイテム（グッズ）を表す。
type Item struct {
	ID          string
	TeamID      string
	Name        string
	Price       int
	Description *string
	ImageURL    *string
	CreatedBy   string
	CreatedAt   time.Time
}

// Inventory はアイテムの在庫を表す。アイテムごとに高々1行。
type Inventory struct {
	ID        string
	ItemID    string
	Quantity  int
	UpdatedAt time.Time
}

// ItemPurchase はアイテムの購入申込を表す。
// 受け渡し時に is_delivered / delivered_at / delivered_by が設定され、
// 在庫が購入数量ぶん減算される。
type ItemPurchase struct {
	ID              string
	ItemID          string
	DancerID        string
	Quantity        int
	IsDelivered     bool
	DeliveredAt     *time.Time
	DeliveredBy     *string
	Item            *Item
	Dancer          *Dancer
	DeliveredDancer *Dancer
	CreatedAt       time.Time
}
