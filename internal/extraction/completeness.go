package extraction

import "github.com/shopspring/decimal"

const (
	baseCompleteness = 40
	flagCompleteness = 60
	flagCount        = 4
)

// ComputeDocCompleteness maps the flags onto a completeness percentage:
// round(40 + present/4 * 60). The result is one of 40, 55, 70, 85, 100.
func ComputeDocCompleteness(flags Flags) int {
	share := decimal.NewFromInt(int64(flags.Count())).
		Div(decimal.NewFromInt(flagCount)).
		Mul(decimal.NewFromInt(flagCompleteness))
	return int(share.Add(decimal.NewFromInt(baseCompleteness)).Round(0).IntPart())
}
