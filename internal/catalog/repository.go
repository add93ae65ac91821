// Package catalog provides read-only access to the product/ingredient catalog.
// Catalog lifecycle (creation, soft deletion, rate changes) belongs to an
// external system; this service only resolves consumption rates from it.
package catalog

import "context"

// RecipeLine is one ingredient of a product together with its per-unit
// consumption rate.
type RecipeLine struct {
	IngredientID    int64  `db:"ingredient_id"`
	IngredientName  string `db:"ingredient_name"`
	QuantityPerUnit int64  `db:"quantity_per_unit"`
}

type Repository interface {
	RecipeForProduct(ctx context.Context, productID int64) ([]RecipeLine, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
}
