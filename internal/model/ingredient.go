package model

import "time"

// Ingredient is catalog data. Rows are soft-deleted, never removed; queries
// filter on deleted_at.
type Ingredient struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Stock is the ledger row for one ingredient, 1:1 by ingredient_id. The stock
// ledger service is the only writer of current_stock; initial_stock is fixed at
// creation and only used as the denominator for threshold checks downstream.
type Stock struct {
	ID           int64     `db:"id" json:"id"`
	IngredientID int64     `db:"ingredient_id" json:"ingredient_id"`
	InitialStock int64     `db:"initial_stock" json:"initial_stock"`
	CurrentStock int64     `db:"current_stock" json:"current_stock"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
