// Package pricing computes booking totals from an hourly rate.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kitchenhub/internal/interval"
)

// ErrNegativeRate is returned for a rate below zero.
var ErrNegativeRate = errors.New("hourly rate cannot be negative")

// Quote is a priced interval.
type Quote struct {
	Hours        int             `json:"hours"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	Total        decimal.Decimal `json:"total"`
}

// Total returns rate multiplied by the billable hours of [start, end).
func Total(rate decimal.Decimal, start, end time.Time) (decimal.Decimal, error) {
	q, err := Calculate(rate, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Total, nil
}

// Calculate returns the full quote for [start, end).
func Calculate(rate decimal.Decimal, start, end time.Time) (Quote, error) {
	if rate.IsNegative() {
		return Quote{}, ErrNegativeRate
	}
	hours, err := interval.DurationHours(start, end)
	if err != nil {
		return Quote{}, fmt.Errorf("price interval: %w", err)
	}
	return Quote{
		Hours:        hours,
		PricePerHour: rate,
		Total:        rate.Mul(decimal.NewFromInt(int64(hours))),
	}, nil
}
