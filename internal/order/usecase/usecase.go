package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/restohq/stock-ledger-service/internal/catalog"
	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/order"
	"github.com/restohq/stock-ledger-service/internal/order/dto"
	"github.com/restohq/stock-ledger-service/internal/pkg/cache"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"go.uber.org/zap"
)

const recipeCacheTTL = 5 * time.Minute

// StockReader exposes the read-only stock lookup the availability pre-check
// needs. The ledger remains the only writer.
type StockReader interface {
	GetByIngredient(ctx context.Context, ingredientID int64) (*model.Stock, error)
}

type taskProducer interface {
	WriteMessage(ctx context.Context, key, value []byte) error
}

type orderUseCase struct {
	repo     order.Repository
	catalog  catalog.Repository
	stocks   StockReader
	producer taskProducer
	cache    *cache.RedisClient
	logger   logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, cat catalog.Repository, stocks StockReader, producer taskProducer, c *cache.RedisClient, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:     repo,
		catalog:  cat,
		stocks:   stocks,
		producer: producer,
		cache:    c,
		logger:   log,
	}
}

// PlaceOrder validates the payload against the catalog, pre-checks that
// current stock covers the order, persists the order with its items, and
// enqueues the deduction task. The pre-check is advisory (stock may move
// between check and deduction); the ledger's floor-at-zero policy covers the
// race.
func (uc *orderUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error) {
	required := map[int64]int64{}

	for _, line := range input.Products {
		recipe, err := uc.recipeForProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if len(recipe) == 0 {
			return nil, fmt.Errorf("%w: product %d", order.ErrProductNotFound, line.ProductID)
		}
		for _, rl := range recipe {
			required[rl.IngredientID] += line.Quantity * rl.QuantityPerUnit
		}
	}

	for ingredientID, qty := range required {
		s, err := uc.stocks.GetByIngredient(ctx, ingredientID)
		if err != nil {
			return nil, err
		}
		if s == nil || s.CurrentStock < qty {
			return nil, fmt.Errorf("%w: ingredient %d", order.ErrInsufficientStock, ingredientID)
		}
	}

	ord := &model.Order{Status: model.OrderStatusPlaced}
	for _, line := range input.Products {
		ord.Items = append(ord.Items, model.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	if err := uc.repo.CreateWithItems(ctx, ord); err != nil {
		return nil, err
	}

	if err := uc.publishTask(ctx, ord.ID); err != nil {
		// The order row exists; the deduction task is lost until re-enqueued.
		// Surface the failure so the caller does not treat the order as placed.
		return nil, fmt.Errorf("enqueue stock task for order %d: %w", ord.ID, err)
	}

	uc.logger.Info("order placed",
		zap.Int64("order_id", ord.ID),
		zap.Int("items", len(ord.Items)),
	)
	return ord, nil
}

func (uc *orderUseCase) publishTask(ctx context.Context, orderID int64) error {
	ev := events.NewOrderPlaced(orderID)
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := []byte(fmt.Sprintf("%d", orderID))
	return uc.producer.WriteMessage(ctx, key, payload)
}

// recipeForProduct reads the consumption rates through a short-lived cache.
// Rates are catalog data this service never mutates, so a stale entry only
// affects the advisory pre-check, never the ledger itself.
func (uc *orderUseCase) recipeForProduct(ctx context.Context, productID int64) ([]catalog.RecipeLine, error) {
	cacheKey := fmt.Sprintf("recipes:product:%d", productID)

	if uc.cache != nil {
		val, err := uc.cache.Client.Get(ctx, cacheKey).Result()
		if err == nil {
			var lines []catalog.RecipeLine
			if err := json.Unmarshal([]byte(val), &lines); err == nil {
				return lines, nil
			}
		}
	}

	exists, err := uc.catalog.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: product %d", order.ErrProductNotFound, productID)
	}

	lines, err := uc.catalog.RecipeForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil && len(lines) > 0 {
		if data, err := json.Marshal(lines); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, recipeCacheTTL)
		}
	}

	return lines, nil
}
