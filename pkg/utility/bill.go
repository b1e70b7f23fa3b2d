package utility

import (
	"github.com/shopspring/decimal"

	"github.com/cogenplan/cogenplan/pkg/types"
)

// Bill is a year of utility charges.
type Bill struct {
	// Base is the fixed monthly charges.
	Base decimal.Decimal
	// Usage is every energy and demand charge.
	Usage decimal.Decimal
}

// Total returns Base plus Usage.
func (b Bill) Total() decimal.Decimal {
	return b.Base.Add(b.Usage)
}

// TotalDollars returns the total as a float rounded to cents.
func (b Bill) TotalDollars() float64 {
	return b.Total().Round(2).InexactFloat64()
}

func annualBase(monthlyCharge float64, meter types.MeterType, apartments int) decimal.Decimal {
	base := decimal.NewFromFloat(monthlyCharge).Mul(decimal.NewFromInt(12))
	if meter == types.MeterSingle {
		base = base.Mul(decimal.NewFromInt(int64(max(apartments, 1))))
	}
	return base
}

// tiered charges qty progressively through blocks. Anything above the
// last bounded block is charged at the last block's rate.
func tiered(qty float64, blocks []types.RateBlock) decimal.Decimal {
	total := decimal.Zero
	var floor float64
	for i, b := range blocks {
		if qty <= floor {
			break
		}
		ceiling := b.UpTo
		if ceiling == 0 || i == len(blocks)-1 {
			ceiling = max(qty, b.UpTo)
		}
		amount := min(qty, ceiling) - floor
		total = total.Add(decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(b.Rate)))
		floor = ceiling
	}
	return total
}
