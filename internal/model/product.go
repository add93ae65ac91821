package model

import "time"

type Product struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ProductIngredient is the consumption-rate association: how much of an
// ingredient one unit of the product uses.
type ProductIngredient struct {
	ProductID    int64 `db:"product_id"`
	IngredientID int64 `db:"ingredient_id"`
	Quantity     int64 `db:"quantity"`
}
