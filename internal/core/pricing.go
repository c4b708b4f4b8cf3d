package core

import (
	"fmt"
)

// RateTable maps a color mode to its per-page price in whole currency units.
type RateTable map[ColorMode]int64

func DefaultRates() RateTable {
	return RateTable{
		ColorModeColor:     5,
		ColorModeGrayscale: 2,
	}
}

type Pricer struct {
	rates RateTable
}

func NewPricer(rates RateTable) *Pricer {
	if len(rates) == 0 {
		rates = DefaultRates()
	}
	return &Pricer{rates: rates}
}

// ComputeCost returns copies * rate(colorMode) * sum(pageCounts). Unknown
// color modes and non-positive inputs are rejected rather than defaulted.
func (p *Pricer) ComputeCost(pageCounts []int, copies int, mode ColorMode) (int64, error) {
	rate, ok := p.rates[mode]
	if !ok {
		return 0, fmt.Errorf("%w: unknown color mode %q", ErrInvalidConfiguration, mode)
	}
	if copies < 1 {
		return 0, fmt.Errorf("%w: copies must be positive, got %d", ErrInvalidConfiguration, copies)
	}

	var totalPages int64
	for _, pages := range pageCounts {
		if pages < 1 {
			return 0, fmt.Errorf("%w: page count must be positive, got %d", ErrInvalidConfiguration, pages)
		}
		totalPages += int64(pages)
	}

	return totalPages * int64(copies) * rate, nil
}
