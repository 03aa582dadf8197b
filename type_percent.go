package forecast

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Percent is an annual rate expressed in percent (12 means 12%).
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

// MonthlyRate returns the effective monthly rate equivalent to the annual
// rate p: (1+p/100)^(1/12) - 1.
//
// Rates below -100% have no real monthly equivalent, they are treated as -100%.
func (p Percent) MonthlyRate() decimal.Decimal {
	base := 1 + float64(p)/100
	if base < 0 || math.IsNaN(base) {
		base = 0
	}
	r := math.Pow(base, 1.0/12) - 1
	if math.IsInf(r, 0) {
		r = math.MaxFloat64
	}
	return decimal.NewFromFloat(r)
}
