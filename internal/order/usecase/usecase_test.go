package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/restohq/stock-ledger-service/internal/catalog"
	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/order"
	"github.com/restohq/stock-ledger-service/internal/order/dto"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	created []*model.Order
}

func (f *fakeOrderRepo) CreateWithItems(_ context.Context, ord *model.Order) error {
	ord.ID = int64(len(f.created) + 1)
	for i := range ord.Items {
		ord.Items[i].ID = int64(i + 1)
		ord.Items[i].OrderID = ord.ID
	}
	f.created = append(f.created, ord)
	return nil
}

func (f *fakeOrderRepo) GetWithItems(_ context.Context, orderID int64) (*model.Order, error) {
	for _, o := range f.created {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, nil
}

type fakeCatalog struct {
	recipes map[int64][]catalog.RecipeLine
}

func (f *fakeCatalog) RecipeForProduct(_ context.Context, productID int64) ([]catalog.RecipeLine, error) {
	return f.recipes[productID], nil
}

func (f *fakeCatalog) ProductExists(_ context.Context, productID int64) (bool, error) {
	_, ok := f.recipes[productID]
	return ok, nil
}

type fakeStocks struct {
	stocks map[int64]*model.Stock
}

func (f *fakeStocks) GetByIngredient(_ context.Context, ingredientID int64) (*model.Stock, error) {
	return f.stocks[ingredientID], nil
}

type fakeTaskProducer struct {
	payloads [][]byte
	err      error
}

func (f *fakeTaskProducer) WriteMessage(_ context.Context, _, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, value)
	return nil
}

func fixtures() (*fakeOrderRepo, *fakeCatalog, *fakeStocks, *fakeTaskProducer) {
	repo := &fakeOrderRepo{}
	cat := &fakeCatalog{recipes: map[int64][]catalog.RecipeLine{
		10: {
			{IngredientID: 1, IngredientName: "Beef", QuantityPerUnit: 150},
			{IngredientID: 2, IngredientName: "Cheese", QuantityPerUnit: 30},
			{IngredientID: 3, IngredientName: "Onion", QuantityPerUnit: 20},
		},
	}}
	stocks := &fakeStocks{stocks: map[int64]*model.Stock{
		1: {ID: 101, IngredientID: 1, InitialStock: 20000, CurrentStock: 20000},
		2: {ID: 102, IngredientID: 2, InitialStock: 5000, CurrentStock: 5000},
		3: {ID: 103, IngredientID: 3, InitialStock: 1000, CurrentStock: 1000},
	}}
	return repo, cat, stocks, &fakeTaskProducer{}
}

func TestPlaceOrderCreatesOrderAndEnqueuesTask(t *testing.T) {
	repo, cat, stocks, producer := fixtures()
	uc := NewOrderUseCase(repo, cat, stocks, producer, nil, logger.NewNop())

	ord, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Products: []dto.OrderLineInput{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NotNil(t, ord)

	assert.Equal(t, int64(1), ord.ID)
	assert.Equal(t, model.OrderStatusPlaced, ord.Status)
	require.Len(t, ord.Items, 1)
	assert.Equal(t, int64(10), ord.Items[0].ProductID)
	assert.Equal(t, int64(2), ord.Items[0].Quantity)

	require.Len(t, producer.payloads, 1)
	var task events.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(producer.payloads[0], &task))
	assert.Equal(t, events.TypeOrderPlaced, task.EventType)
	assert.Equal(t, ord.ID, task.Payload.OrderID)
}

func TestPlaceOrderRejectsUncoveredOrder(t *testing.T) {
	repo, cat, stocks, producer := fixtures()
	uc := NewOrderUseCase(repo, cat, stocks, producer, nil, logger.NewNop())

	// 500 burgers need 75000 beef against 20000 in stock.
	_, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Products: []dto.OrderLineInput{{ProductID: 10, Quantity: 500}},
	})

	require.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.Empty(t, repo.created, "no order row when stock cannot cover it")
	assert.Empty(t, producer.payloads)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	repo, cat, stocks, producer := fixtures()
	uc := NewOrderUseCase(repo, cat, stocks, producer, nil, logger.NewNop())

	_, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Products: []dto.OrderLineInput{{ProductID: 99, Quantity: 1}},
	})

	require.ErrorIs(t, err, order.ErrProductNotFound)
	assert.Empty(t, repo.created)
}

func TestPlaceOrderSurfacesEnqueueFailure(t *testing.T) {
	repo, cat, stocks, producer := fixtures()
	producer.err = errors.New("broker down")
	uc := NewOrderUseCase(repo, cat, stocks, producer, nil, logger.NewNop())

	_, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Products: []dto.OrderLineInput{{ProductID: 10, Quantity: 1}},
	})

	require.Error(t, err)
}
