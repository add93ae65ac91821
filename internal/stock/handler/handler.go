package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/stock"
	"go.uber.org/zap"
)

type StockHandler struct {
	uc               stock.UseCase
	thresholdPercent int
	logger           logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, thresholdPercent int, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:               uc,
		thresholdPercent: thresholdPercent,
		logger:           log,
	}
}

// GET /api/stocks
func (h *StockHandler) ListLevels(c *fiber.Ctx) error {
	levels, err := h.uc.ListLevels(c.UserContext())
	if err != nil {
		h.logger.Error("failed to list stock levels", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list stocks")
	}
	return c.JSON(levels)
}

// GET /api/stocks/low
func (h *StockHandler) ListLowLevels(c *fiber.Ctx) error {
	levels, err := h.uc.ListLowLevels(c.UserContext(), h.thresholdPercent)
	if err != nil {
		h.logger.Error("failed to list low stock levels", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list stocks")
	}
	return c.JSON(levels)
}

// GET /api/stocks/ingredient/:id
func (h *StockHandler) GetByIngredient(c *fiber.Ctx) error {
	ingredientID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid ingredient id")
	}

	s, err := h.uc.GetByIngredient(c.UserContext(), ingredientID)
	if err != nil {
		h.logger.Error("failed to get stock", zap.Int64("ingredient_id", ingredientID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not load stock")
	}
	if s == nil {
		return fiber.NewError(fiber.StatusNotFound, "stock not found")
	}
	return c.JSON(s)
}
