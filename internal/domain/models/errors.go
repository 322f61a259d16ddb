package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks malformed or out-of-domain evaluation input.
// Callers match it with errors.Is; the wrapped message names the field.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputf wraps ErrInvalidInput with a formatted detail.
func InvalidInputf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, a...))
}

// DecimalFromFloat converts a float figure into a decimal, rejecting NaN and ±Inf.
func DecimalFromFloat(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, InvalidInputf("%s is not a finite number", field)
	}
	return decimal.NewFromFloat(v), nil
}

func requireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return InvalidInputf("%s must be >= 0, got %s", field, v.String())
	}
	return nil
}
