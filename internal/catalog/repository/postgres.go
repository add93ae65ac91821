package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/restohq/stock-ledger-service/internal/catalog"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) RecipeForProduct(ctx context.Context, productID int64) ([]catalog.RecipeLine, error) {
	query := `
        SELECT pi.ingredient_id,
               i.name AS ingredient_name,
               pi.quantity AS quantity_per_unit
        FROM product_ingredients pi
        JOIN ingredients i ON i.id = pi.ingredient_id
        WHERE pi.product_id = $1 AND i.deleted_at IS NULL
        ORDER BY pi.ingredient_id
    `
	lines := []catalog.RecipeLine{}
	if err := r.DB.SelectContext(ctx, &lines, query, productID); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *PGRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
	if err := r.DB.GetContext(ctx, &exists, query, productID); err != nil {
		return false, err
	}
	return exists, nil
}
