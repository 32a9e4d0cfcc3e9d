package convert

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// All conversion math runs on *big.Int base units (token amounts scaled by
// the contract's decimals). decimal.Decimal is used only at the boundary
// where human-entered strings are parsed or values are rendered for display.

// TokensFor converts a payment amount (payment-token base units) into the
// presale-token amount it buys at unitPrice, where unitPrice is the cost of
// one whole token expressed in payment base units.
//
// Returns 0 when any input is nil or not strictly positive. Callers must
// treat a zero result together with empty input as "nothing entered yet".
func TokensFor(payment, unitPrice *big.Int, tokenDecimals int) *big.Int {
	if payment == nil || unitPrice == nil || payment.Sign() <= 0 || unitPrice.Sign() <= 0 {
		return new(big.Int)
	}
	scale := pow10(tokenDecimals)
	out := new(big.Int).Mul(payment, scale)
	return out.Quo(out, unitPrice)
}

// PaymentFor is the inverse of TokensFor: the payment base units needed to
// buy tokens presale-token base units at unitPrice.
func PaymentFor(tokens, unitPrice *big.Int, tokenDecimals int) *big.Int {
	if tokens == nil || unitPrice == nil || tokens.Sign() <= 0 || unitPrice.Sign() <= 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(tokens, unitPrice)
	return out.Quo(out, pow10(tokenDecimals))
}

// ParseAmount converts a human-entered decimal string ("12.5") into base
// units for a token with the given decimals. Fractional base units are
// truncated.
func ParseAmount(s string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %s", s)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// FormatAmount renders base units as a decimal string for display. This is
// the lossy UI-boundary step; never feed its output back into chain math.
func FormatAmount(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

func pow10(n int) *big.Int {
	if n < 0 {
		n = 0
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
