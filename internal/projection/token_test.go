package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenDecimals(t *testing.T) {
	assert.Equal(t, 18, TokenDecimals(TokenETH))
	assert.Equal(t, 6, TokenDecimals(TokenUSDC))
	assert.Equal(t, 18, TokenDecimals(TokenENB))
	// unknown enum values degrade to 18
	assert.Equal(t, 18, TokenDecimals(99))
}

func TestTokenSymbol(t *testing.T) {
	assert.Equal(t, "ETH", TokenSymbol(TokenETH))
	assert.Equal(t, "USDC", TokenSymbol(TokenUSDC))
	assert.Equal(t, "ENB", TokenSymbol(TokenENB))
	assert.Equal(t, "ETH", TokenSymbol(99))
}

func TestNormalizeAmount(t *testing.T) {
	assert.InDelta(t, 0.001, NormalizeAmount("1000000000000000", 18), 1e-12)
	assert.InDelta(t, 1.0, NormalizeAmount("1000000000000000000", 18), 1e-12)
	assert.InDelta(t, 5.0, NormalizeAmount("5000000", 6), 1e-12)
	assert.InDelta(t, 0.0015, NormalizeAmount("1500000000000000", 18), 1e-12)
	assert.Equal(t, 0.0, NormalizeAmount("not a number", 18))
	assert.Equal(t, 0.0, NormalizeAmount("", 18))
	// exact integer amounts may be negative after over-withdrawal
	assert.InDelta(t, -0.5, NormalizeAmount("-500000000000000000", 18), 1e-12)
}

func TestAddSubAmounts(t *testing.T) {
	assert.Equal(t, "1500000000000000", addAmounts("1000000000000000", "500000000000000"))
	assert.Equal(t, "500000000000000", subAmounts("1500000000000000", "1000000000000000"))
	// exact amounts go negative rather than clamping
	assert.Equal(t, "-500000000000000", subAmounts("1000000000000000", "1500000000000000"))
	// unparseable operands count as zero
	assert.Equal(t, "5", addAmounts("garbage", "5"))
	assert.Equal(t, "-5", subAmounts("", "5"))
}

func TestSplitAmount(t *testing.T) {
	assert.Equal(t, "500000000000000000", splitAmount("1000000000000000000", 2))
	// truncating division: the remainder stays locked in the contract
	assert.Equal(t, "3", splitAmount("10", 3))
	assert.Equal(t, "10", splitAmount("10", 1))
	assert.Equal(t, "10", splitAmount("10", 0))
	assert.Equal(t, "0", splitAmount("bad", 2))
}
