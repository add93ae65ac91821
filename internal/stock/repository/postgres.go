package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/restohq/stock-ledger-service/internal/catalog"
	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/stock"
	"github.com/restohq/stock-ledger-service/internal/stock/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) InTx(ctx context.Context, fn func(tx stock.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	// Rollback is a no-op after a successful commit; the defer also covers
	// panics escaping fn.
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) GetByIngredient(ctx context.Context, ingredientID int64) (*model.Stock, error) {
	var s model.Stock
	query := `SELECT * FROM stocks WHERE ingredient_id = $1`
	if err := r.DB.GetContext(ctx, &s, query, ingredientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

const levelsQuery = `
    SELECT s.id AS stock_id,
           s.ingredient_id,
           i.name AS ingredient_name,
           s.current_stock,
           s.initial_stock
    FROM stocks s
    JOIN ingredients i ON i.id = s.ingredient_id
    WHERE i.deleted_at IS NULL
`

func (r *PGRepository) ListLevels(ctx context.Context) ([]dto.StockLevel, error) {
	levels := []dto.StockLevel{}
	err := r.DB.SelectContext(ctx, &levels, levelsQuery+` ORDER BY s.ingredient_id`)
	return levels, err
}

func (r *PGRepository) ListLowLevels(ctx context.Context, thresholdPercent int) ([]dto.StockLevel, error) {
	levels := []dto.StockLevel{}
	query := levelsQuery + `
        AND s.initial_stock > 0
        AND s.current_stock * 100 <= s.initial_stock * $1
        ORDER BY s.ingredient_id`
	err := r.DB.SelectContext(ctx, &levels, query, thresholdPercent)
	return levels, err
}

// pgTx implements stock.Tx on top of one sqlx transaction.
type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) ConsumptionForProduct(ctx context.Context, productID int64) ([]catalog.RecipeLine, error) {
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
	if err := t.tx.SelectContext(ctx, &lines, query, productID); err != nil {
		return nil, err
	}
	return lines, nil
}

func (t *pgTx) StockForIngredient(ctx context.Context, ingredientID int64) (*model.Stock, error) {
	var s model.Stock
	// Row lock serializes concurrent orders drawing on the same ingredient;
	// without it the read-modify-write below would lose updates.
	query := `SELECT * FROM stocks WHERE ingredient_id = $1 FOR UPDATE`
	if err := t.tx.GetContext(ctx, &s, query, ingredientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (t *pgTx) SaveStock(ctx context.Context, s *model.Stock) error {
	query := `UPDATE stocks SET current_stock = $1, updated_at = now() WHERE id = $2`
	res, err := t.tx.ExecContext(ctx, query, s.CurrentStock, s.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (t *pgTx) ReloadStock(ctx context.Context, stockID int64) (*model.Stock, error) {
	var s model.Stock
	if err := t.tx.GetContext(ctx, &s, `SELECT * FROM stocks WHERE id = $1`, stockID); err != nil {
		return nil, err
	}
	return &s, nil
}
