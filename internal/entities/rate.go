package entities

import (
	"sort"
	"time"
)

// RateTable maps a target currency code to its rate against Base.
type RateTable struct {
	Base      string
	Rates     map[string]float64
	UpdatedAt time.Time
}

func NewRateTable(base string, rates map[string]float64, date time.Time) *RateTable {
	copied := make(map[string]float64, len(rates))
	for code, rate := range rates {
		copied[code] = rate
	}
	return &RateTable{
		Base:      base,
		Rates:     copied,
		UpdatedAt: date,
	}
}

func (t *RateTable) Rate(code string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	rate, ok := t.Rates[code]
	return rate, ok
}

func (t *RateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rates)
}

func (t *RateTable) Codes() []string {
	if t == nil {
		return nil
	}
	codes := make([]string, 0, len(t.Rates))
	for code := range t.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Conversion is the stored outcome of a user-triggered conversion.
type Conversion struct {
	Amount float64
	From   string
	To     string
	Rate   float64
	Value  float64
}
