package statutory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is returned when a calculator receives a value outside
	// its domain, such as a negative salary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTables is returned when a ruleset violates a table invariant.
	ErrInvalidTables = errors.New("invalid statutory tables")
)

// InputError names the offending field and value.
type InputError struct {
	Field string
	Value decimal.Decimal
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s must be non-negative, got %s", e.Field, e.Value)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// TableError describes which table broke which invariant.
type TableError struct {
	Table  string
	Reason string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("invalid %s table: %s", e.Table, e.Reason)
}

func (e *TableError) Unwrap() error { return ErrInvalidTables }

func requireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return &InputError{Field: field, Value: v}
	}
	return nil
}
