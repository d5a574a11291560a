package widget

import (
	"fmt"
	"github.com/langowen/converter/internal/entities"
	"github.com/shopspring/decimal"
	"math"
	"strconv"
	"strings"
)

// ParseAmount accepts a finite number greater than zero.
func ParseAmount(text string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, entities.NewError(entities.KindValidation, "Please enter a valid amount.", entities.ErrValidation)
	}
	return amount, nil
}

// Convert multiplies amount by the rate for to. The result is not rounded.
func Convert(amount float64, table *entities.RateTable, to string) (entities.Conversion, error) {
	rate, ok := table.Rate(to)
	if !ok {
		return entities.Conversion{}, entities.NewError(
			entities.KindRateUnavailable,
			"Conversion rate not available.",
			fmt.Errorf("%w: %q", entities.ErrRateUnavailable, to),
		)
	}

	var base string
	if table != nil {
		base = table.Base
	}

	value := amount * rate
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return entities.Conversion{}, entities.NewError(
			entities.KindValidation,
			"The converted amount is too large.",
			fmt.Errorf("%w: %g × %g overflows", entities.ErrValidation, amount, rate),
		)
	}

	return entities.Conversion{
		Amount: amount,
		From:   base,
		To:     to,
		Rate:   rate,
		Value:  value,
	}, nil
}

// FormatResult renders a conversion for display, e.g. "875.00 AFN".
func FormatResult(c entities.Conversion) string {
	if math.IsInf(c.Value, 0) || math.IsNaN(c.Value) {
		return strconv.FormatFloat(c.Value, 'f', 2, 64) + " " + c.To
	}
	return decimal.NewFromFloat(c.Value).StringFixed(2) + " " + c.To
}
