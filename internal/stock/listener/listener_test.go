package listener

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/stock"
	"github.com/restohq/stock-ledger-service/internal/stock/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUseCase struct {
	updated []int64
	err     error
}

func (f *fakeUseCase) UpdateStock(_ context.Context, orderID int64) error {
	f.updated = append(f.updated, orderID)
	return f.err
}

func (f *fakeUseCase) GetByIngredient(context.Context, int64) (*model.Stock, error) {
	return nil, nil
}

func (f *fakeUseCase) ListLevels(context.Context) ([]dto.StockLevel, error) {
	return nil, nil
}

func (f *fakeUseCase) ListLowLevels(context.Context, int) ([]dto.StockLevel, error) {
	return nil, nil
}

func taskPayload(t *testing.T, orderID int64) []byte {
	t.Helper()
	data, err := json.Marshal(events.NewOrderPlaced(orderID))
	require.NoError(t, err)
	return data
}

func TestProcessMessageCommitsOnSuccess(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewStockListener(nil, uc, logger.NewNop(), nil)

	commit := l.processMessage(context.Background(), taskPayload(t, 7))

	assert.True(t, commit)
	assert.Equal(t, []int64{7}, uc.updated)
}

func TestProcessMessageHoldsOffsetOnFailure(t *testing.T) {
	uc := &fakeUseCase{err: &stock.UpdateError{OrderID: 7, Cause: errors.New("db down")}}
	l := NewStockListener(nil, uc, logger.NewNop(), nil)

	commit := l.processMessage(context.Background(), taskPayload(t, 7))

	assert.False(t, commit, "failed task must stay on the queue for redelivery")
	assert.Equal(t, []int64{7}, uc.updated)
}

func TestProcessMessageSkipsBrokenPayload(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewStockListener(nil, uc, logger.NewNop(), nil)

	commit := l.processMessage(context.Background(), []byte("{not json"))

	assert.True(t, commit, "poison messages are committed, not retried forever")
	assert.Empty(t, uc.updated)
}

func TestProcessMessageSkipsForeignEventType(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewStockListener(nil, uc, logger.NewNop(), nil)

	payload, err := json.Marshal(map[string]any{"event_type": "SomethingElse"})
	require.NoError(t, err)
	commit := l.processMessage(context.Background(), payload)

	assert.True(t, commit)
	assert.Empty(t, uc.updated)
}
