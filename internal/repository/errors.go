package repository

import "fmt"

// StockError aborts a settlement when a product's remaining stock cannot
// cover an order line at confirmation time. It carries enough detail for
// operator reconciliation logs; public responses stay generic.
type StockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}
