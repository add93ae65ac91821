package dto

// StockLevel is the read-model row for stock listings, joined with the
// ingredient name.
type StockLevel struct {
	StockID        int64  `db:"stock_id" json:"stock_id"`
	IngredientID   int64  `db:"ingredient_id" json:"ingredient_id"`
	IngredientName string `db:"ingredient_name" json:"ingredient_name"`
	CurrentStock   int64  `db:"current_stock" json:"current_stock"`
	InitialStock   int64  `db:"initial_stock" json:"initial_stock"`
}
