package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/restohq/stock-ledger-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateWithItems(ctx context.Context, ord *model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	ord.CreatedAt = now
	if ord.Status == "" {
		ord.Status = model.OrderStatusPlaced
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO orders (status, created_at) VALUES ($1, $2) RETURNING id`,
		ord.Status, ord.CreatedAt,
	).Scan(&ord.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range ord.Items {
		item := &ord.Items[i]
		item.OrderID = ord.ID
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) GetWithItems(ctx context.Context, orderID int64) (*model.Order, error) {
	var ord model.Order
	err := r.DB.GetContext(ctx, &ord,
		`SELECT id, status, created_at FROM orders WHERE id = $1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items := []model.OrderItem{}
	err = r.DB.SelectContext(ctx, &items,
		`SELECT id, order_id, product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, err
	}
	ord.Items = items

	return &ord, nil
}
