package order

import (
	"context"
	"errors"

	"github.com/restohq/stock-ledger-service/internal/model"
	"github.com/restohq/stock-ledger-service/internal/order/dto"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock means the placement pre-check found an ingredient
	// that cannot cover the order. The API layer maps it to a
	// resource-unavailable response.
	ErrInsufficientStock = errors.New("insufficient stock for order")
)

type UseCase interface {
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error)
}
