package chain

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	wei1e9  = big.NewFloat(1e9)
	wei1e18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// WeiToGwei converts a Wei value to Gwei as float64.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), wei1e9).Float64()
	return f
}

// FormatNative renders a wei amount in whole native units, trimming trailing
// zeros but keeping at least one fractional digit ("0.0", "1.25").
func FormatNative(wei *big.Int) string {
	return FormatUnits(wei, 18)
}

// FormatUnits renders an amount of base units with the given number of
// decimals, the way FormatNative does for 18. Zero decimals prints a
// whole number.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		v = new(big.Int)
	}
	if decimals == 0 {
		return v.String()
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	unit := wei1e18
	if decimals != 18 {
		unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	}
	q, r := new(big.Int).QuoRem(abs, unit, new(big.Int))

	frac := r.String()
	frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}
	out := q.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// ParseNative parses a decimal amount of native units ("0.5") into wei.
// At most 18 fractional digits are accepted.
func ParseNative(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), nil
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 18 {
		return nil, fmt.Errorf("amount %q has more than 18 decimals", s)
	}
	w, ok := new(big.Int).SetString(whole, 10)
	if !ok || w.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	out := new(big.Int).Mul(w, wei1e18)
	if frac != "" {
		f, ok := new(big.Int).SetString(frac+strings.Repeat("0", 18-len(frac)), 10)
		if !ok || f.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
		out.Add(out, f)
	}
	return out, nil
}

// GasCost returns gasLimit * gasPrice.
func GasCost(gasLimit uint64, gasPrice *big.Int) *big.Int {
	if gasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)
}
