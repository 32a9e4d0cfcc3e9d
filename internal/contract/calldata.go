package contract

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Function signatures of the two external contracts. The sale contract's
// surface follows the deployed presale ABI; the payment token is plain ERC-20.
const (
	sigApprove            = "approve(address,uint256)"
	sigBuyTokens          = "buyTokens(uint256,string)"
	sigClaimTokens        = "claimTokens()"
	sigGetUserBalance     = "getUserBalance(address)"
	sigGetPresaleInfo     = "getPresaleInfo()"
	sigGetRemainingTokens = "getRemainingTokens()"
	sigGetCurrentPrice    = "getCurrentPrice()"
	sigGetBuyerCount      = "getBuyerCount()"
)

// selector computes the 4-byte function selector for a signature.
func selector(sig string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// ApproveCalldata encodes approve(spender, amount).
func ApproveCalldata(spender string, amount *big.Int) string {
	return selector(sigApprove) + encodeAddress(spender) + encodeUint(amount)
}

// BuyTokensCalldata encodes buyTokens(paymentAmount, referralCode).
// The string argument is dynamic: its head word holds the tail offset.
func BuyTokensCalldata(amount *big.Int, referral string) string {
	const tailOffset = 64 // two head words
	return selector(sigBuyTokens) +
		encodeUint(amount) +
		encodeUint(big.NewInt(tailOffset)) +
		encodeStringTail(referral)
}

// ClaimTokensCalldata encodes claimTokens().
func ClaimTokensCalldata() string {
	return selector(sigClaimTokens)
}

// UserBalanceCalldata encodes getUserBalance(owner) on the sale contract.
func UserBalanceCalldata(owner string) string {
	return selector(sigGetUserBalance) + encodeAddress(owner)
}

// PresaleInfoCalldata encodes getPresaleInfo(), which returns
// (totalRaised, tokensSold, currentPrice).
func PresaleInfoCalldata() string {
	return selector(sigGetPresaleInfo)
}

// RemainingTokensCalldata encodes getRemainingTokens().
func RemainingTokensCalldata() string {
	return selector(sigGetRemainingTokens)
}

// CurrentPriceCalldata encodes getCurrentPrice().
func CurrentPriceCalldata() string {
	return selector(sigGetCurrentPrice)
}

// BuyerCountCalldata encodes getBuyerCount().
func BuyerCountCalldata() string {
	return selector(sigGetBuyerCount)
}

// Word extracts the i-th 32-byte word of an eth_call result as a uint256.
func Word(hexData string, i int) (*big.Int, error) {
	data := strings.TrimPrefix(hexData, "0x")
	start := i * 64
	if len(data) < start+64 {
		return nil, fmt.Errorf("result too short for word %d: %d hex chars", i, len(data))
	}
	n, ok := new(big.Int).SetString(data[start:start+64], 16)
	if !ok {
		return nil, fmt.Errorf("invalid word %d: %s", i, data[start:start+64])
	}
	return n, nil
}

// --- ABI word encoders ---

func encodeAddress(addr string) string {
	return fmt.Sprintf("%064s", strings.ToLower(strings.TrimPrefix(addr, "0x")))
}

func encodeUint(n *big.Int) string {
	if n == nil {
		n = new(big.Int)
	}
	return fmt.Sprintf("%064x", n)
}

// encodeStringTail encodes a dynamic string's tail: length word followed by
// the UTF-8 bytes right-padded to a word boundary.
func encodeStringTail(s string) string {
	b := []byte(s)
	tail := encodeUint(big.NewInt(int64(len(b)))) + hex.EncodeToString(b)
	if rem := len(tail) % 64; rem != 0 {
		tail += strings.Repeat("0", 64-rem)
	}
	return tail
}
