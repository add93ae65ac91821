// Package publisher delivers stock-changed signals to the broker without ever
// blocking the ledger transaction that produced them. Events are buffered on a
// channel and written by a single background goroutine; when the buffer is full
// the event is dropped with a warning. The signal is advisory, so dropping
// under pressure beats stalling a deduction.
package publisher

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/pkg/metrics"
	"go.uber.org/zap"
)

const defaultBuffer = 1024

type producer interface {
	WriteMessage(ctx context.Context, key, value []byte) error
}

type StockPublisher struct {
	producer producer
	logger   logger.ZapLogger
	metrics  *metrics.Metrics

	queue     chan events.StockChangedEvent
	closeOnce sync.Once
	done      chan struct{}
}

func NewStockPublisher(p producer, log logger.ZapLogger, m *metrics.Metrics) *StockPublisher {
	sp := &StockPublisher{
		producer: p,
		logger:   log,
		metrics:  m,
		queue:    make(chan events.StockChangedEvent, defaultBuffer),
		done:     make(chan struct{}),
	}
	go sp.drain()
	return sp
}

// Publish enqueues the event and returns immediately.
func (sp *StockPublisher) Publish(ev events.StockChangedEvent) {
	select {
	case sp.queue <- ev:
	default:
		sp.logger.Warn("stock signal dropped, publish buffer full",
			zap.Int64("ingredient_id", ev.Payload.IngredientID),
		)
		if sp.metrics != nil {
			sp.metrics.SignalsDropped.Inc()
		}
	}
}

func (sp *StockPublisher) drain() {
	defer close(sp.done)
	for ev := range sp.queue {
		payload, err := json.Marshal(ev)
		if err != nil {
			sp.logger.Error("failed to marshal stock signal", zap.Error(err))
			continue
		}
		key := []byte(strconv.FormatInt(ev.Payload.IngredientID, 10))
		if err := sp.producer.WriteMessage(context.Background(), key, payload); err != nil {
			sp.logger.Error("failed to publish stock signal",
				zap.Int64("ingredient_id", ev.Payload.IngredientID),
				zap.Error(err),
			)
			continue
		}
		if sp.metrics != nil {
			sp.metrics.SignalsPublished.Inc()
		}
	}
}

// Close stops accepting events and waits for the buffer to flush.
func (sp *StockPublisher) Close() {
	sp.closeOnce.Do(func() {
		close(sp.queue)
	})
	<-sp.done
}
