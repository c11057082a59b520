package command

import (
	"context"
	"fmt"
	"strings"
)

// RateSource resolves a currency exchange rate, e.g. USD -> MXN.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Fixed multiplicative factors for unit pairs. Temperature is handled
// separately because it is affine, not multiplicative.
var unitFactors = map[[2]string]float64{
	{"km", "mi"}: 0.621371, {"mi", "km"}: 1.60934,
	{"m", "ft"}: 3.28084, {"ft", "m"}: 0.3048,
	{"cm", "in"}: 0.393701, {"in", "cm"}: 2.54,
	{"kg", "lb"}: 2.20462, {"lb", "kg"}: 0.453592,
	{"g", "oz"}: 0.035274, {"oz", "g"}: 28.3495,
}

var currencyCodes = map[string]bool{
	"USD": true, "EUR": true, "MXN": true, "GBP": true, "JPY": true,
}

// Convert converts qty between units. Temperature uses the exact linear
// formulas, other unit pairs the fixed factor table, and currency pairs go
// through the rate source. Unknown pairs and rate-lookup failures are plain
// errors; the dispatcher degrades them to an "unavailable" spoken reply.
func Convert(ctx context.Context, qty float64, from, to string, rates RateSource) (float64, error) {
	f := strings.ToLower(strings.TrimSpace(from))
	t := strings.ToLower(strings.TrimSpace(to))

	if isCelsius(f) && isFahrenheit(t) {
		return qty*9/5 + 32, nil
	}
	if isFahrenheit(f) && isCelsius(t) {
		return (qty - 32) * 5 / 9, nil
	}

	if factor, ok := unitFactors[[2]string{f, t}]; ok {
		return qty * factor, nil
	}

	fc, tc := strings.ToUpper(f), strings.ToUpper(t)
	if currencyCodes[fc] {
		if rates == nil {
			return 0, fmt.Errorf("no rate source for %s->%s", fc, tc)
		}
		rate, err := rates.Rate(ctx, fc, tc)
		if err != nil {
			return 0, fmt.Errorf("rate %s->%s: %w", fc, tc, err)
		}
		return qty * rate, nil
	}

	return 0, fmt.Errorf("no conversion from %q to %q", from, to)
}

func isCelsius(u string) bool    { return u == "c" || u == "celsius" }
func isFahrenheit(u string) bool { return u == "f" || u == "fahrenheit" }
