package stock

import (
	"context"

	"github.com/restohq/stock-ledger-service/internal/catalog"
	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/stock/dto"
)

// Tx is the unit of work for one order's deductions. Everything done through a
// Tx commits together or not at all; StockForIngredient locks the row until the
// transaction ends.
type Tx interface {
	ConsumptionForProduct(ctx context.Context, productID int64) ([]catalog.RecipeLine, error)
	// StockForIngredient reads the stock row with a write lock held for the
	// remainder of the transaction. Returns nil when no row exists.
	StockForIngredient(ctx context.Context, ingredientID int64) (*model.Stock, error)
	SaveStock(ctx context.Context, s *model.Stock) error
	ReloadStock(ctx context.Context, stockID int64) (*model.Stock, error)
}

type Repository interface {
	// InTx runs fn inside a transaction: committed when fn returns nil, rolled
	// back on error or panic.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetByIngredient(ctx context.Context, ingredientID int64) (*model.Stock, error)
	ListLevels(ctx context.Context) ([]dto.StockLevel, error)
	ListLowLevels(ctx context.Context, thresholdPercent int) ([]dto.StockLevel, error)
}

// OrderSource resolves an order and its line items. Returns nil when the order
// does not exist.
type OrderSource interface {
	GetWithItems(ctx context.Context, orderID int64) (*model.Order, error)
}

// Publisher hands a stock-changed signal to the delivery path. Implementations
// must not block and must not fail the caller: a slow or broken signal channel
// can never roll back a stock deduction.
type Publisher interface {
	Publish(ev events.StockChangedEvent)
}
