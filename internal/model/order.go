package model

import "time"

const (
	OrderStatusPlaced = "placed"
)

type Order struct {
	ID        int64     `db:"id" json:"id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Items []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int64 `db:"quantity" json:"quantity"`
}
