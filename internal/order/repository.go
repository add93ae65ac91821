package order

import (
	"context"

	"github.com/restohq/stock-ledger-service/internal/model"
)

type Repository interface {
	// CreateWithItems inserts the order and its line items in one transaction
	// and fills in the generated ids.
	CreateWithItems(ctx context.Context, ord *model.Order) error
	// GetWithItems returns nil when the order does not exist.
	GetWithItems(ctx context.Context, orderID int64) (*model.Order, error)
}
