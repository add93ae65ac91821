// Package notifier is the low-stock notification dispatcher. It subscribes to
// the stock-changed topic, applies the threshold policy, and forwards matches
// to an operator channel. The ledger emits on every mutation; the threshold
// decision lives here so the policy can change without touching the ledger.
package notifier

import (
	"context"

	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"go.uber.org/zap"
)

// Notification carries the data an operator channel needs to render a
// low-stock message. Message content and templating belong to the channel.
type Notification struct {
	IngredientID   int64
	IngredientName string
	CurrentStock   int64
	InitialStock   int64
}

// Notifier is the operator delivery channel (mail, chat, pager).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the service log, tagged with the
// configured operator address. Stands in for a real delivery channel.
type LogNotifier struct {
	recipient string
	logger    logger.ZapLogger
}

func NewLogNotifier(recipient string, log logger.ZapLogger) *LogNotifier {
	return &LogNotifier{recipient: recipient, logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, notif Notification) error {
	n.logger.Warn("low stock notification",
		zap.String("recipient", n.recipient),
		zap.Int64("ingredient_id", notif.IngredientID),
		zap.String("ingredient", notif.IngredientName),
		zap.Int64("current_stock", notif.CurrentStock),
		zap.Int64("initial_stock", notif.InitialStock),
	)
	return nil
}
