package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FloatToWire renders x the way the exchange expects decimal fields: at
// most 8 decimal places, trailing zeros trimmed, no negative zero. Values
// that lose precision at 8 decimals are rejected rather than silently
// rounded, matching the reference SDK's float_to_wire semantics.
func FloatToWire(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", fmt.Errorf("invalid float value: %v", x)
	}

	rounded := math.Round(x*1e8) / 1e8

	// 1e-12 tolerance: anything further from its 8-decimal rounding than
	// float noise would change the signed bytes.
	if math.Abs(x-rounded) > 1e-12 {
		return "", fmt.Errorf(
			"float precision loss: %v rounds to %v",
			x,
			rounded,
		)
	}

	formatted := strconv.FormatFloat(rounded, 'f', 8, 64)

	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}

	if formatted == "-0" {
		formatted = "0"
	}

	return formatted, nil
}

// FloatToInt scales x by 10^power and converts it to int64. Returns an
// error when the scaled value sits more than 1e-3 from an integer, which
// catches amounts that cannot be represented at the target precision.
func FloatToInt(x float64, power int64) (int64, error) {
	withDecimals := x * math.Pow10(int(power))

	rounded := math.Round(withDecimals)

	if math.Abs(rounded-withDecimals) >= 1e-3 {
		return 0, errors.New("float_to_int causes rounding")
	}

	return int64(rounded), nil
}

// FloatToUsdInt converts a USD amount to integer micro-units (x 1e6), the
// unit used by class transfers, vault transfers and isolated margin deltas.
func FloatToUsdInt(x float64) (int64, error) {
	return FloatToInt(x, 6)
}

// StringToFloat parses a decimal string price or size.
func StringToFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// RoundToSigfig rounds x to n significant figures.
func RoundToSigfig(x float64, n int64) float64 {
	if x == 0 {
		return 0
	}
	d := math.Ceil(math.Log10(math.Abs(x)))
	power := float64(n) - d
	factor := math.Pow(10, power)
	return math.Round(x*factor) / factor
}

// RoundToDecimals reproduces Python's round(x, ndigits): banker's rounding,
// negative ndigits rounding to tens/hundreds. Slippage prices must round
// exactly as the reference SDK rounds them or the wire string differs.
func RoundToDecimals(x float64, ndigits int64) float64 {
	if ndigits >= 0 {
		factor := math.Pow(10, float64(ndigits))
		return math.RoundToEven(x*factor) / factor
	}

	factor := math.Pow(10, float64(-ndigits))
	return math.RoundToEven(x/factor) * factor
}

// GetDex extracts the builder-dex prefix from a coin name, "" when the coin
// lives on the first-party perp dex.
func GetDex(coin string) string {
	if i := strings.Index(coin, ":"); i != -1 {
		return coin[:i]
	}
	return ""
}
