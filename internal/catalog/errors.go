package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrMissingID        = errors.New("product has no id")
	ErrDuplicateProduct = errors.New("duplicate product_id")
)

// SchemaError aborts a cycle before the destination table is touched.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema for %s, column %q: %v", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("schema for %s: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// RowError describes one record that could not be inserted.
type RowError struct {
	Index     int
	ProductID int64
	Err       error
}

func (e *RowError) Error() string {
	if e.ProductID == 0 {
		return fmt.Sprintf("row %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("row %d (product %d): %v", e.Index, e.ProductID, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
