package dto

import "strconv"

type OrderLineInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type PlaceOrderInput struct {
	Products []OrderLineInput `json:"products"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks payload shape only; product existence and stock coverage are
// checked by the usecase against the catalog.
func (in *PlaceOrderInput) Validate() []FieldError {
	var errs []FieldError
	if len(in.Products) == 0 {
		errs = append(errs, FieldError{Field: "products", Message: "at least one product is required"})
		return errs
	}
	for i, line := range in.Products {
		if line.ProductID <= 0 {
			errs = append(errs, FieldError{
				Field:   "products." + strconv.Itoa(i) + ".product_id",
				Message: "product_id is required",
			})
		}
		if line.Quantity <= 0 {
			errs = append(errs, FieldError{
				Field:   "products." + strconv.Itoa(i) + ".quantity",
				Message: "quantity must be greater than zero",
			})
		}
	}
	return errs
}
