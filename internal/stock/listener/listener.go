// Package listener runs the deferred stock-deduction tasks. Tasks arrive on a
// consumer-group topic at-least-once; the offset is committed only after a task
// succeeds, so failed tasks are redelivered under the broker's policy. A
// redelivered task deducts again — the ledger makes no idempotency guarantee.
package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/pkg/metrics"
	"github.com/restohq/stock-ledger-service/internal/stock"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type StockListener struct {
	consumer consumer
	uc       stock.UseCase
	logger   logger.ZapLogger
	metrics  *metrics.Metrics
}

func NewStockListener(c consumer, uc stock.UseCase, log logger.ZapLogger, m *metrics.Metrics) *StockListener {
	return &StockListener{
		consumer: c,
		uc:       uc,
		logger:   log,
		metrics:  m,
	}
}

func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("starting stock task listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping stock task listener")
			return
		default:
			msg, err := l.consumer.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to fetch task message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			if l.processMessage(ctx, msg.Value) {
				if err := l.consumer.CommitMessages(ctx, msg); err != nil {
					l.logger.Error("failed to commit task offset", zap.Error(err))
				}
			}
		}
	}
}

// processMessage reports whether the message's offset may be committed. Broken
// payloads and foreign event types are committed and skipped; a failed
// deduction holds the offset back so the queue redelivers it.
func (l *StockListener) processMessage(ctx context.Context, value []byte) bool {
	var event events.OrderPlacedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal task event", zap.Error(err))
		return true
	}

	if event.EventType != events.TypeOrderPlaced {
		return true
	}

	orderID := event.Payload.OrderID
	l.logger.Info("processing stock deduction task", zap.Int64("order_id", orderID))

	if err := l.uc.UpdateStock(ctx, orderID); err != nil {
		l.logger.Error("stock deduction task failed",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		if l.metrics != nil {
			l.metrics.TasksFailed.Inc()
		}
		return false
	}

	if l.metrics != nil {
		l.metrics.TasksProcessed.Inc()
	}
	return true
}
