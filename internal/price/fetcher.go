// Package price fetches native-coin USD prices from CoinGecko, used to show
// an approximate fee cost next to gas estimates.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"
)

// coinIDs maps chain IDs to CoinGecko coin IDs. Testnets price against
// their mainnet coin.
var coinIDs = map[int64]string{
	1:        "ethereum",
	11155111: "ethereum",
	8453:     "ethereum",
	137:      "matic-network",
	42161:    "ethereum",
	10:       "ethereum",
	56:       "binancecoin",
}

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Fetcher retrieves native-coin prices.
type Fetcher struct {
	client  *http.Client
	baseURL string // overridable in tests
}

// NewFetcher creates a price fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
	}
}

// NativeUSD returns the USD price of the chain's native coin.
func (f *Fetcher) NativeUSD(ctx context.Context, chainID int64) (float64, error) {
	id, ok := coinIDs[chainID]
	if !ok {
		return 0, fmt.Errorf("no price source for chain %d", chainID)
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", f.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading price response: %w", err)
	}

	// Response: {"ethereum":{"usd":1234.56}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parsing price response: %w", err)
	}

	p, ok := raw[id]["usd"]
	if !ok {
		return 0, fmt.Errorf("price not available for %s", id)
	}
	return p, nil
}

// FeeUSD converts a wei fee amount to USD at the given native price.
func FeeUSD(feeWei *big.Int, nativeUSD float64) float64 {
	if feeWei == nil {
		return 0
	}
	eth, _ := new(big.Float).Quo(
		new(big.Float).SetInt(feeWei),
		big.NewFloat(1e18),
	).Float64()
	return eth * nativeUSD
}
