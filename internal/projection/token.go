package projection

import (
	"math/big"
)

// Token types supported by the bounty contract.
const (
	TokenETH  = 0
	TokenUSDC = 1
	TokenENB  = 2
)

// ZeroAddress stands in for the native currency in the supported-tokens table.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TokenDecimals returns the decimal precision for a token type. Unknown
// types fall back to 18 so a bad enum value degrades rather than fails.
func TokenDecimals(tokenType int) int {
	switch tokenType {
	case TokenUSDC:
		return 6
	default:
		return 18
	}
}

// TokenSymbol returns the display symbol for a token type.
func TokenSymbol(tokenType int) string {
	switch tokenType {
	case TokenUSDC:
		return "USDC"
	case TokenENB:
		return "ENB"
	default:
		return "ETH"
	}
}

// NormalizeAmount converts a base-unit integer string into its decimal
// representation using the given precision. It is the single source of every
// AmountSort value in the store; sort values are never written any other way.
// Unparseable input normalizes to 0.
func NormalizeAmount(amount string, decimals int) float64 {
	bi, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f := new(big.Float).SetInt(bi)
	f.Quo(f, new(big.Float).SetInt(scale))
	v, _ := f.Float64()
	return v
}

// addAmounts returns the sum of two base-unit integer strings. Unparseable
// operands are treated as zero.
func addAmounts(a, b string) string {
	ai, ok := new(big.Int).SetString(a, 10)
	if !ok {
		ai = new(big.Int)
	}
	bi, ok := new(big.Int).SetString(b, 10)
	if !ok {
		bi = new(big.Int)
	}
	return new(big.Int).Add(ai, bi).String()
}

// subAmounts returns a minus b in base units. The result is exact and may
// go negative on over-withdrawal; only sort values are floored at zero.
func subAmounts(a, b string) string {
	ai, ok := new(big.Int).SetString(a, 10)
	if !ok {
		ai = new(big.Int)
	}
	bi, ok := new(big.Int).SetString(b, 10)
	if !ok {
		bi = new(big.Int)
	}
	return new(big.Int).Sub(ai, bi).String()
}

// splitAmount divides a base-unit total evenly across maxWinners with
// integer truncation. The remainder is not redistributed; it stays locked in
// the contract and is a documented rounding loss, not an accounting error.
func splitAmount(total string, maxWinners int) string {
	ti, ok := new(big.Int).SetString(total, 10)
	if !ok {
		return "0"
	}
	if maxWinners < 1 {
		maxWinners = 1
	}
	return new(big.Int).Quo(ti, big.NewInt(int64(maxWinners))).String()
}
