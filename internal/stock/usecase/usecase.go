package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/stock"
	"github.com/restohq/stock-ledger-service/internal/stock/dto"
	"go.uber.org/zap"
)

type stockUseCase struct {
	repo      stock.Repository
	orders    stock.OrderSource
	publisher stock.Publisher
	logger    logger.ZapLogger
}

func NewStockUseCase(repo stock.Repository, orders stock.OrderSource, publisher stock.Publisher, log logger.ZapLogger) stock.UseCase {
	return &stockUseCase{
		repo:      repo,
		orders:    orders,
		publisher: publisher,
		logger:    log,
	}
}

// UpdateStock deducts every ingredient the order consumes inside one
// transaction. Running it twice for the same order deducts twice; retry policy
// lives with the queue, not here.
func (uc *stockUseCase) UpdateStock(ctx context.Context, orderID int64) error {
	ord, err := uc.orders.GetWithItems(ctx, orderID)
	if err != nil {
		return &stock.UpdateError{OrderID: orderID, Cause: err}
	}
	if ord == nil {
		return &stock.UpdateError{OrderID: orderID, Cause: stock.ErrOrderNotFound}
	}

	if err := uc.repo.InTx(ctx, func(tx stock.Tx) error {
		return uc.applyDeductions(ctx, tx, ord)
	}); err != nil {
		uc.logger.Error("stock update failed",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return &stock.UpdateError{OrderID: orderID, Cause: err}
	}

	uc.logger.Info("stock updated", zap.Int64("order_id", orderID))
	return nil
}

type deduction struct {
	ingredientName string
	amount         int64
}

func (uc *stockUseCase) applyDeductions(ctx context.Context, tx stock.Tx, ord *model.Order) error {
	// Aggregate the order's total draw per ingredient first, so an ingredient
	// shared between line items is written and signalled once.
	deductions := map[int64]*deduction{}
	for _, item := range ord.Items {
		lines, err := tx.ConsumptionForProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("product %d has no ingredients", item.ProductID)
		}
		for _, line := range lines {
			d, ok := deductions[line.IngredientID]
			if !ok {
				d = &deduction{ingredientName: line.IngredientName}
				deductions[line.IngredientID] = d
			}
			d.amount += item.Quantity * line.QuantityPerUnit
		}
	}

	// Lock rows in ascending ingredient id so concurrent orders touching the
	// same ingredients cannot deadlock.
	ingredientIDs := make([]int64, 0, len(deductions))
	for id := range deductions {
		ingredientIDs = append(ingredientIDs, id)
	}
	sort.Slice(ingredientIDs, func(i, j int) bool { return ingredientIDs[i] < ingredientIDs[j] })

	for _, ingredientID := range ingredientIDs {
		d := deductions[ingredientID]

		s, err := tx.StockForIngredient(ctx, ingredientID)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("no stock record for ingredient %d", ingredientID)
		}

		// Floor at zero instead of failing: running out mid-order is an
		// operational condition, not a ledger error.
		next := s.CurrentStock - d.amount
		if next <= 0 {
			next = 0
		}
		s.CurrentStock = next

		if err := tx.SaveStock(ctx, s); err != nil {
			return err
		}

		fresh, err := tx.ReloadStock(ctx, s.ID)
		if err != nil {
			return err
		}

		uc.publisher.Publish(events.NewStockChanged(events.StockChangedPayload{
			StockID:        fresh.ID,
			IngredientID:   fresh.IngredientID,
			IngredientName: d.ingredientName,
			CurrentStock:   fresh.CurrentStock,
			InitialStock:   fresh.InitialStock,
		}))
	}

	return nil
}

func (uc *stockUseCase) GetByIngredient(ctx context.Context, ingredientID int64) (*model.Stock, error) {
	return uc.repo.GetByIngredient(ctx, ingredientID)
}

func (uc *stockUseCase) ListLevels(ctx context.Context) ([]dto.StockLevel, error) {
	return uc.repo.ListLevels(ctx)
}

func (uc *stockUseCase) ListLowLevels(ctx context.Context, thresholdPercent int) ([]dto.StockLevel, error) {
	return uc.repo.ListLowLevels(ctx, thresholdPercent)
}
