package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/restohq/stock-ledger-service/internal/order"
	"github.com/restohq/stock-ledger-service/internal/order/dto"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/pkg/metrics"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc      order.UseCase
	logger  logger.ZapLogger
	metrics *metrics.Metrics
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger, m *metrics.Metrics) *OrderHandler {
	return &OrderHandler{
		uc:      uc,
		logger:  log,
		metrics: m,
	}
}

// POST /api/orders/place-order
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var input dto.PlaceOrderInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if fieldErrs := input.Validate(); len(fieldErrs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fieldErrs,
		})
	}

	ord, err := h.uc.PlaceOrder(c.UserContext(), &input)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrProductNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, order.ErrInsufficientStock):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			h.logger.Error("failed to place order", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "could not place order",
			})
		}
	}

	if h.metrics != nil {
		h.metrics.OrdersPlaced.Inc()
	}
	return c.Status(fiber.StatusCreated).JSON(ord)
}
