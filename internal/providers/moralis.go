// Package providers wraps the Moralis Deep Index API: cursor-paginated
// token holder and transfer listings that back the leaderboard and history
// views. Every listing is exposed as a pager.FetchFunc so navigation state
// lives in the pager, not here.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/pager"
)

// moralisChainHex maps chain IDs to Moralis hex chain identifiers.
var moralisChainHex = map[int64]string{
	1:        "0x1",
	8453:     "0x2105",
	137:      "0x89",
	42161:    "0xa4b1",
	10:       "0xa",
	56:       "0x38",
	11155111: "0xaa36a7",
}

const moralisBaseURL = "https://deep-index.moralis.io/api/v2.2"

// Moralis is an indexer client backed by the Moralis Deep Index API.
// It requires an API key and is nil-guarded: NewMoralis returns nil when no
// key is set or the chain is unsupported.
type Moralis struct {
	hexChain string
	apiKey   string
	baseURL  string // defaults to moralisBaseURL; overridable in tests
	httpc    *http.Client
}

// NewMoralis creates a Moralis client, or nil when unusable.
func NewMoralis(chainID int64, apiKey string) *Moralis {
	if apiKey == "" {
		return nil
	}
	hex, ok := moralisChainHex[chainID]
	if !ok {
		return nil
	}
	return &Moralis{
		hexChain: hex,
		apiKey:   apiKey,
		baseURL:  moralisBaseURL,
		httpc:    &http.Client{Timeout: 12 * time.Second},
	}
}

// Holder is one row of a token owner listing.
type Holder struct {
	Address string
	Balance *big.Int
	Share   float64 // percentage of total supply, when the API reports it
}

// Transfer is one row of a token transfer listing.
type Transfer struct {
	Hash        string
	From        string
	To          string
	Amount      *big.Int
	BlockNumber uint64
	Timestamp   time.Time
}

type moralisHolder struct {
	OwnerAddress string  `json:"owner_address"`
	Balance      string  `json:"balance"` // decimal base units
	Percentage   float64 `json:"percentage_relative_to_total_supply"`
}

type moralisTransfer struct {
	TransactionHash string `json:"transaction_hash"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	Value           string `json:"value"`        // decimal base units
	BlockNumber     string `json:"block_number"` // decimal
	BlockTimestamp  string `json:"block_timestamp"`
}

// page is the cursor envelope every Moralis listing uses. An empty cursor
// means the last page.
type page[R any] struct {
	Result []R    `json:"result"`
	Cursor string `json:"cursor"`
}

// Holders fetches one page of token owners ordered by balance descending.
func (m *Moralis) Holders(ctx context.Context, token, cursor string, limit int) ([]Holder, string, error) {
	p, err := get[moralisHolder](ctx, m, "/erc20/"+token+"/owners", url.Values{
		"order": []string{"DESC"},
	}, cursor, limit)
	if err != nil {
		return nil, "", err
	}

	holders := make([]Holder, 0, len(p.Result))
	for _, h := range p.Result {
		bal, ok := new(big.Int).SetString(h.Balance, 10)
		if !ok {
			return nil, "", fmt.Errorf("invalid holder balance %q", h.Balance)
		}
		holders = append(holders, Holder{
			Address: h.OwnerAddress,
			Balance: bal,
			Share:   h.Percentage,
		})
	}
	return holders, p.Cursor, nil
}

// Transfers fetches one page of token transfers, newest first. A non-empty
// wallet scopes the listing to transfers touching that address.
func (m *Moralis) Transfers(ctx context.Context, token, wallet, cursor string, limit int) ([]Transfer, string, error) {
	path := "/erc20/" + token + "/transfers"
	q := url.Values{}
	if wallet != "" {
		path = "/" + wallet + "/erc20/transfers"
		q.Set("contract_addresses[0]", token)
	}

	p, err := get[moralisTransfer](ctx, m, path, q, cursor, limit)
	if err != nil {
		return nil, "", err
	}

	transfers := make([]Transfer, 0, len(p.Result))
	for _, tr := range p.Result {
		amount, ok := new(big.Int).SetString(tr.Value, 10)
		if !ok {
			return nil, "", fmt.Errorf("invalid transfer value %q", tr.Value)
		}
		var block uint64
		fmt.Sscanf(tr.BlockNumber, "%d", &block) //nolint:errcheck
		ts, _ := time.Parse(time.RFC3339, tr.BlockTimestamp)
		transfers = append(transfers, Transfer{
			Hash:        tr.TransactionHash,
			From:        tr.FromAddress,
			To:          tr.ToAddress,
			Amount:      amount,
			BlockNumber: block,
			Timestamp:   ts,
		})
	}
	return transfers, p.Cursor, nil
}

// HolderPages adapts the owner listing of token to a pager fetch. The
// pager's filter is unused here; holders are always the full listing.
func (m *Moralis) HolderPages(token string) pager.FetchFunc[Holder] {
	return func(ctx context.Context, _, cursor string, limit int) ([]Holder, string, error) {
		return m.Holders(ctx, token, cursor, limit)
	}
}

// TransferPages adapts the transfer listing of token to a pager fetch.
// The pager's filter is the wallet scope ("" = all transfers).
func (m *Moralis) TransferPages(token string) pager.FetchFunc[Transfer] {
	return func(ctx context.Context, wallet, cursor string, limit int) ([]Transfer, string, error) {
		return m.Transfers(ctx, token, wallet, cursor, limit)
	}
}

func get[R any](ctx context.Context, m *Moralis, path string, q url.Values, cursor string, limit int) (*page[R], error) {
	q.Set("chain", m.hexChain)
	q.Set("limit", fmt.Sprintf("%d", limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", m.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var p page[R]
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	return &p, nil
}
