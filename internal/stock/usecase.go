package stock

import (
	"context"

	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/stock/dto"
)

// UseCase is the stock ledger. UpdateStock applies every deduction an order
// implies as one atomic unit and emits a stock-changed signal per ingredient.
type UseCase interface {
	UpdateStock(ctx context.Context, orderID int64) error
	GetByIngredient(ctx context.Context, ingredientID int64) (*model.Stock, error)
	ListLevels(ctx context.Context) ([]dto.StockLevel, error)
	ListLowLevels(ctx context.Context, thresholdPercent int) ([]dto.StockLevel, error)
}
