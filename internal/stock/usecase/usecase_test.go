package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/restohq/stock-ledger-service/internal/catalog"
	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/stock"
	"github.com/restohq/stock-ledger-service/internal/stock/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stock.Repository with transactional semantics:
// writes stage in the tx and only land on commit, and the store mutex
// serializes transactions the way row locks do in Postgres.
type memStore struct {
	mu          sync.Mutex
	stocks      map[int64]*model.Stock // keyed by ingredient id
	recipes     map[int64][]catalog.RecipeLine
	failSaveFor int64 // ingredient id whose save fails; 0 disables
}

func (m *memStore) InTx(_ context.Context, fn func(tx stock.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m, pending: map[int64]model.Stock{}}
	if err := fn(tx); err != nil {
		return err
	}
	for ingredientID, s := range tx.pending {
		committed := s
		m.stocks[ingredientID] = &committed
	}
	return nil
}

func (m *memStore) GetByIngredient(_ context.Context, ingredientID int64) (*model.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stocks[ingredientID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListLevels(context.Context) ([]dto.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var levels []dto.StockLevel
	for _, s := range m.stocks {
		levels = append(levels, dto.StockLevel{
			StockID:      s.ID,
			IngredientID: s.IngredientID,
			CurrentStock: s.CurrentStock,
			InitialStock: s.InitialStock,
		})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].IngredientID < levels[j].IngredientID })
	return levels, nil
}

func (m *memStore) ListLowLevels(ctx context.Context, thresholdPercent int) ([]dto.StockLevel, error) {
	all, _ := m.ListLevels(ctx)
	var low []dto.StockLevel
	for _, l := range all {
		if l.InitialStock > 0 && l.CurrentStock*100 <= l.InitialStock*int64(thresholdPercent) {
			low = append(low, l)
		}
	}
	return low, nil
}

type memTx struct {
	store   *memStore
	pending map[int64]model.Stock
}

func (t *memTx) ConsumptionForProduct(_ context.Context, productID int64) ([]catalog.RecipeLine, error) {
	return t.store.recipes[productID], nil
}

func (t *memTx) StockForIngredient(_ context.Context, ingredientID int64) (*model.Stock, error) {
	if s, ok := t.pending[ingredientID]; ok {
		cp := s
		return &cp, nil
	}
	s, ok := t.store.stocks[ingredientID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (t *memTx) SaveStock(_ context.Context, s *model.Stock) error {
	if t.store.failSaveFor != 0 && s.IngredientID == t.store.failSaveFor {
		return errors.New("save failed")
	}
	t.pending[s.IngredientID] = *s
	return nil
}

func (t *memTx) ReloadStock(_ context.Context, stockID int64) (*model.Stock, error) {
	for _, s := range t.pending {
		if s.ID == stockID {
			cp := s
			return &cp, nil
		}
	}
	for _, s := range t.store.stocks {
		if s.ID == stockID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("stock %d not found", stockID)
}

type memOrders struct {
	orders map[int64]*model.Order
}

func (m *memOrders) GetWithItems(_ context.Context, orderID int64) (*model.Order, error) {
	ord, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *ord
	return &cp, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.StockChangedEvent
}

func (p *capturePublisher) Publish(ev events.StockChangedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) byIngredient() map[int64][]events.StockChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := map[int64][]events.StockChangedEvent{}
	for _, ev := range p.events {
		out[ev.Payload.IngredientID] = append(out[ev.Payload.IngredientID], ev)
	}
	return out
}

const (
	beefID   = int64(1)
	cheeseID = int64(2)
	onionID  = int64(3)

	burgerID = int64(10)
	sliderID = int64(11)
)

func newStore() *memStore {
	return &memStore{
		stocks: map[int64]*model.Stock{
			beefID:   {ID: 101, IngredientID: beefID, InitialStock: 20000, CurrentStock: 20000},
			cheeseID: {ID: 102, IngredientID: cheeseID, InitialStock: 5000, CurrentStock: 5000},
			onionID:  {ID: 103, IngredientID: onionID, InitialStock: 1000, CurrentStock: 1000},
		},
		recipes: map[int64][]catalog.RecipeLine{
			burgerID: {
				{IngredientID: beefID, IngredientName: "Beef", QuantityPerUnit: 150},
				{IngredientID: cheeseID, IngredientName: "Cheese", QuantityPerUnit: 30},
				{IngredientID: onionID, IngredientName: "Onion", QuantityPerUnit: 20},
			},
			sliderID: {
				{IngredientID: beefID, IngredientName: "Beef", QuantityPerUnit: 100},
			},
		},
	}
}

func newOrders(orders ...*model.Order) *memOrders {
	m := &memOrders{orders: map[int64]*model.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func burgerOrder(orderID, qty int64) *model.Order {
	return &model.Order{
		ID:     orderID,
		Status: model.OrderStatusPlaced,
		Items:  []model.OrderItem{{ID: 1, OrderID: orderID, ProductID: burgerID, Quantity: qty}},
	}
}

func TestUpdateStockDeductsPerRecipe(t *testing.T) {
	store := newStore()
	pub := &capturePublisher{}
	uc := NewStockUseCase(store, newOrders(burgerOrder(1, 2)), pub, logger.NewNop())

	err := uc.UpdateStock(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(19700), store.stocks[beefID].CurrentStock)
	assert.Equal(t, int64(4940), store.stocks[cheeseID].CurrentStock)
	assert.Equal(t, int64(960), store.stocks[onionID].CurrentStock)
}

func TestUpdateStockEmitsOneSignalPerIngredient(t *testing.T) {
	store := newStore()
	pub := &capturePublisher{}
	uc := NewStockUseCase(store, newOrders(burgerOrder(1, 2)), pub, logger.NewNop())

	require.NoError(t, uc.UpdateStock(context.Background(), 1))

	byIngredient := pub.byIngredient()
	require.Len(t, pub.events, 3)

	beefEvents := byIngredient[beefID]
	require.Len(t, beefEvents, 1)
	assert.Equal(t, events.TypeStockChanged, beefEvents[0].EventType)
	assert.Equal(t, int64(101), beefEvents[0].Payload.StockID)
	assert.Equal(t, "Beef", beefEvents[0].Payload.IngredientName)
	assert.Equal(t, int64(19700), beefEvents[0].Payload.CurrentStock)
	assert.Equal(t, int64(20000), beefEvents[0].Payload.InitialStock)

	onionEvents := byIngredient[onionID]
	require.Len(t, onionEvents, 1)
	assert.Equal(t, int64(960), onionEvents[0].Payload.CurrentStock)
	assert.Equal(t, int64(1000), onionEvents[0].Payload.InitialStock)
}

func TestUpdateStockClampsAtZero(t *testing.T) {
	store := newStore()
	pub := &capturePublisher{}
	// 60 burgers draw 1200 onion against 1000 in stock.
	uc := NewStockUseCase(store, newOrders(burgerOrder(1, 60)), pub, logger.NewNop())

	err := uc.UpdateStock(context.Background(), 1)
	require.NoError(t, err, "running dry is not a ledger failure")

	assert.Equal(t, int64(0), store.stocks[onionID].CurrentStock)
	assert.Equal(t, int64(11000), store.stocks[beefID].CurrentStock)
	assert.Equal(t, int64(3200), store.stocks[cheeseID].CurrentStock)

	onionEvents := pub.byIngredient()[onionID]
	require.Len(t, onionEvents, 1)
	assert.Equal(t, int64(0), onionEvents[0].Payload.CurrentStock)
}

func TestUpdateStockOrderNotFound(t *testing.T) {
	uc := NewStockUseCase(newStore(), newOrders(), &capturePublisher{}, logger.NewNop())

	err := uc.UpdateStock(context.Background(), 404)
	require.Error(t, err)

	var updateErr *stock.UpdateError
	require.ErrorAs(t, err, &updateErr)
	assert.Equal(t, int64(404), updateErr.OrderID)
	assert.ErrorIs(t, err, stock.ErrOrderNotFound)
}

func TestUpdateStockRollsBackOnMidOrderFailure(t *testing.T) {
	store := newStore()
	store.failSaveFor = cheeseID // beef persists first, then cheese fails
	uc := NewStockUseCase(store, newOrders(burgerOrder(1, 2)), &capturePublisher{}, logger.NewNop())

	err := uc.UpdateStock(context.Background(), 1)
	require.Error(t, err)

	var updateErr *stock.UpdateError
	require.ErrorAs(t, err, &updateErr)

	assert.Equal(t, int64(20000), store.stocks[beefID].CurrentStock, "partial deduction must not persist")
	assert.Equal(t, int64(5000), store.stocks[cheeseID].CurrentStock)
	assert.Equal(t, int64(1000), store.stocks[onionID].CurrentStock)
}

func TestUpdateStockMissingStockRow(t *testing.T) {
	store := newStore()
	delete(store.stocks, onionID)
	uc := NewStockUseCase(store, newOrders(burgerOrder(1, 1)), &capturePublisher{}, logger.NewNop())

	err := uc.UpdateStock(context.Background(), 1)
	require.Error(t, err)

	assert.Equal(t, int64(20000), store.stocks[beefID].CurrentStock)
	assert.Equal(t, int64(5000), store.stocks[cheeseID].CurrentStock)
}

func TestUpdateStockSharedIngredientDeductedAndSignalledOnce(t *testing.T) {
	store := newStore()
	pub := &capturePublisher{}
	ord := &model.Order{
		ID:     1,
		Status: model.OrderStatusPlaced,
		Items: []model.OrderItem{
			{ID: 1, OrderID: 1, ProductID: burgerID, Quantity: 1},
			{ID: 2, OrderID: 1, ProductID: sliderID, Quantity: 2},
		},
	}
	uc := NewStockUseCase(store, newOrders(ord), pub, logger.NewNop())

	require.NoError(t, uc.UpdateStock(context.Background(), 1))

	// beef: 1*150 + 2*100 = 350
	assert.Equal(t, int64(19650), store.stocks[beefID].CurrentStock)

	beefEvents := pub.byIngredient()[beefID]
	require.Len(t, beefEvents, 1)
	assert.Equal(t, int64(19650), beefEvents[0].Payload.CurrentStock)
}

// Redelivering a task deducts again. The ledger makes no idempotency promise;
// this test pins the behavior so any change to it is a deliberate one.
func TestUpdateStockTwiceDeductsTwice(t *testing.T) {
	store := newStore()
	uc := NewStockUseCase(store, newOrders(burgerOrder(1, 2)), &capturePublisher{}, logger.NewNop())

	require.NoError(t, uc.UpdateStock(context.Background(), 1))
	require.NoError(t, uc.UpdateStock(context.Background(), 1))

	assert.Equal(t, int64(19400), store.stocks[beefID].CurrentStock)
	assert.Equal(t, int64(4880), store.stocks[cheeseID].CurrentStock)
	assert.Equal(t, int64(920), store.stocks[onionID].CurrentStock)
}

func TestUpdateStockConcurrentOrdersLoseNoUpdate(t *testing.T) {
	store := newStore()
	orders := newOrders()
	const n = 8
	for i := int64(1); i <= n; i++ {
		orders.orders[i] = burgerOrder(i, 1)
	}
	uc := NewStockUseCase(store, orders, &capturePublisher{}, logger.NewNop())

	var wg sync.WaitGroup
	for i := int64(1); i <= n; i++ {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			assert.NoError(t, uc.UpdateStock(context.Background(), orderID))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(20000-n*150), store.stocks[beefID].CurrentStock)
	assert.Equal(t, int64(5000-n*30), store.stocks[cheeseID].CurrentStock)
	assert.Equal(t, int64(1000-n*20), store.stocks[onionID].CurrentStock)
}
