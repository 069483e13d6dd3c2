// Package sanitize coerces arbitrary form input into safe numeric values.
// Every quantity, price, rate and deposit field passes through here before it
// is stored or computed with.
package sanitize

import (
	"math"
	"strconv"
	"strings"
)

// Number coerces v into a finite number >= 0. Anything that cannot be parsed,
// is negative, or is not finite comes back as exactly 0. Already-valid numbers
// pass through unchanged; no rounding is applied (formatting is a display
// concern).
func Number(v any) float64 {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case string:
		n = parseString(x)
	case nil:
		return 0
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}

// parseString parses a numeric string, accepting a comma as the decimal
// separator (German form input).
func parseString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return n
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		n, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err == nil {
			return n
		}
	}
	return 0
}
