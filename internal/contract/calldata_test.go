package contract

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveCalldata(t *testing.T) {
	got := ApproveCalldata("0x2222222222222222222222222222222222222222", big.NewInt(500))

	// approve(address,uint256) has a well-known selector.
	assert.True(t, strings.HasPrefix(got, "0x095ea7b3"))
	assert.Len(t, got, 10+64*2)
	assert.Equal(t, "0000000000000000000000002222222222222222222222222222222222222222", got[10:74])
	assert.Equal(t, "00000000000000000000000000000000000000000000000000000000000001f4", got[74:])
}

func TestBuyTokensCalldata(t *testing.T) {
	got := BuyTokensCalldata(big.NewInt(1_000_000), "CROW123")

	// selector + amount + offset + length word + one padded data word
	assert.Len(t, got, 10+64*4)
	amount, err := Word(got[10:], 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), amount)
	offset, err := Word(got[10:], 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(64), offset)
	length, err := Word(got[10:], 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), length)
	// "CROW123" right-padded to a full word
	assert.Equal(t, "43524f5731323300000000000000000000000000000000000000000000000000", got[10+64*3:])
}

func TestBuyTokensCalldataEmptyReferral(t *testing.T) {
	got := BuyTokensCalldata(big.NewInt(1), "")

	// No data word when the string is empty, only its zero length word.
	assert.Len(t, got, 10+64*3)
	length, err := Word(got[10:], 2)
	require.NoError(t, err)
	assert.Zero(t, length.Sign())
}

func TestClaimTokensCalldata(t *testing.T) {
	got := ClaimTokensCalldata()
	assert.Len(t, got, 10)
	assert.True(t, strings.HasPrefix(got, "0x"))
}

func TestUserBalanceCalldata(t *testing.T) {
	got := UserBalanceCalldata("0xAbCdEf1234567890aBcDeF1234567890ABcDEF12")
	assert.Len(t, got, 10+64)
	// Address is lowercased and left-padded.
	assert.Equal(t, "000000000000000000000000abcdef1234567890abcdef1234567890abcdef12", got[10:])
}

func TestWord(t *testing.T) {
	data := "0x" +
		"0000000000000000000000000000000000000000000000000000000000000064" +
		"00000000000000000000000000000000000000000000000000000000000003e8"

	w0, err := Word(data, 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), w0)

	w1, err := Word(data, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), w1)

	_, err = Word(data, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestSelectorDistinct(t *testing.T) {
	sigs := []string{
		sigApprove, sigBuyTokens, sigClaimTokens, sigGetUserBalance,
		sigGetPresaleInfo, sigGetRemainingTokens, sigGetCurrentPrice, sigGetBuyerCount,
	}
	seen := make(map[string]string, len(sigs))
	for _, sig := range sigs {
		sel := selector(sig)
		assert.Len(t, sel, 10)
		prev, dup := seen[sel]
		assert.False(t, dup, "selector collision between %s and %s", sig, prev)
		seen[sel] = sig
	}
}
