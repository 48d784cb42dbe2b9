package override

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/epi-platform/admin-api/internal/model"
)

// Decimal parses an admin-entered amount. Anything that is not a
// non-negative number becomes zero.
func Decimal(v model.FormValue) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

// Int parses an admin-entered quantity, truncating fractions. Anything that
// is not a non-negative number within int32 range becomes zero.
func Int(v model.FormValue) int {
	d := Decimal(v)
	if d.GreaterThan(maxQuantity) {
		return 0
	}
	return int(d.IntPart())
}

// Keywords splits a comma separated list, dropping blank entries.
func Keywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
