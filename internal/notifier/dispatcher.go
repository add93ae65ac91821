package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/restohq/stock-ledger-service/internal/events"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	consumer         consumer
	notifier         Notifier
	thresholdPercent int
	logger           logger.ZapLogger
	metrics          *metrics.Metrics
}

func NewDispatcher(c consumer, n Notifier, thresholdPercent int, log logger.ZapLogger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		consumer:         c,
		notifier:         n,
		thresholdPercent: thresholdPercent,
		logger:           log,
		metrics:          m,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("starting low stock dispatcher",
		zap.Int("threshold_percent", d.thresholdPercent),
	)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping low stock dispatcher")
			return
		default:
			msg, err := d.consumer.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				d.logger.Error("failed to fetch stock signal", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			d.processMessage(ctx, msg.Value)

			// Notifications are advisory; a delivery failure must not make
			// the queue replay a stale stock level forever.
			if err := d.consumer.CommitMessages(ctx, msg); err != nil {
				d.logger.Error("failed to commit signal offset", zap.Error(err))
			}
		}
	}
}

func (d *Dispatcher) processMessage(ctx context.Context, value []byte) {
	var event events.StockChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		d.logger.Error("failed to unmarshal stock signal", zap.Error(err))
		return
	}
	if event.EventType != events.TypeStockChanged {
		return
	}

	p := event.Payload
	if !ShouldNotify(p.CurrentStock, p.InitialStock, d.thresholdPercent) {
		return
	}

	err := d.notifier.Notify(ctx, Notification{
		IngredientID:   p.IngredientID,
		IngredientName: p.IngredientName,
		CurrentStock:   p.CurrentStock,
		InitialStock:   p.InitialStock,
	})
	if err != nil {
		d.logger.Error("failed to deliver low stock notification",
			zap.Int64("ingredient_id", p.IngredientID),
			zap.Error(err),
		)
		return
	}
	if d.metrics != nil {
		d.metrics.NotificationsSent.Inc()
	}
}

// ShouldNotify reports whether current stock is at or below the threshold
// percentage of initial stock. Ingredients created with zero initial stock
// never notify.
func ShouldNotify(current, initial int64, thresholdPercent int) bool {
	if initial <= 0 {
		return false
	}
	return current*100 <= initial*int64(thresholdPercent)
}
