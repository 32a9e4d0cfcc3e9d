package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for the confirmation path. ErrConfirmTimeout means the
// outcome of a broadcast transaction is unknown — callers must not retry
// the write.
var (
	ErrConfirmTimeout = errors.New("confirmation wait timed out")
	ErrReverted       = errors.New("transaction reverted")
)

// Client is a minimal JSON-RPC client for EVM chains. It is the raw
// transport under the ledger client: reads via eth_call, writes via
// eth_sendRawTransaction, confirmation via receipt polling.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client pointed at a JSON-RPC endpoint.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Receipt holds the on-chain receipt of a mined transaction.
type Receipt struct {
	Hash        string
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
}

// ChainID returns the chain's ID.
func (c *Client) ChainID(ctx context.Context) (int64, error) {
	n, err := c.callUint(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

// TokenBalance returns the ERC-20 balance of holder on token, in base units.
// Uses the balanceOf(address) selector 0x70a08231.
func (c *Client) TokenBalance(ctx context.Context, token, holder string) (*big.Int, error) {
	data := "0x70a08231" + padAddr(holder)
	return c.callBigInt(ctx, token, data)
}

// Allowance returns the ERC-20 allowance owner has granted spender on token.
// Uses the allowance(address,address) selector 0xdd62ed3e.
func (c *Client) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	data := "0xdd62ed3e" + padAddr(owner) + padAddr(spender)
	return c.callBigInt(ctx, token, data)
}

// Call performs an eth_call against a contract and returns the raw hex result.
func (c *Client) Call(ctx context.Context, to, calldata string) (string, error) {
	result, err := c.call(ctx, "eth_call", map[string]string{
		"to":   to,
		"data": calldata,
	}, "latest")
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return s, nil
}

// CallBigInt performs an eth_call and decodes the result as a single uint256.
func (c *Client) CallBigInt(ctx context.Context, to, calldata string) (*big.Int, error) {
	return c.callBigInt(ctx, to, calldata)
}

// PendingNonce returns the transaction count including queued transactions.
func (c *Client) PendingNonce(ctx context.Context, address string) (uint64, error) {
	n, err := c.callUint(ctx, "eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.callUint(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Ping measures round-trip latency with a block-number query.
func (c *Client) Ping(ctx context.Context) (time.Duration, uint64, error) {
	start := time.Now()
	block, err := c.BlockNumber(ctx)
	return time.Since(start), block, err
}

// GasPrice returns the current gas price.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callUint(ctx, "eth_gasPrice")
}

// EstimateGas estimates gas for a transaction.
func (c *Client) EstimateGas(ctx context.Context, from, to, data string) (uint64, error) {
	params := map[string]string{"from": from, "to": to}
	if data != "" {
		params["data"] = data
	}
	n, err := c.callUint(ctx, "eth_estimateGas", params, "latest")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// SendRawTransaction broadcasts a signed raw transaction and returns its hash.
func (c *Client) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", rawTx)
	if err != nil {
		return "", err
	}
	hash, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return hash, nil
}

// TransactionReceipt fetches the receipt for hash.
// Returns nil, nil while the transaction is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil // still pending
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	var r struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
		GasUsed     string `json:"gasUsed"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}

	receipt := &Receipt{Hash: hash}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined, the timeout expires,
// or ctx is cancelled. A reverted transaction returns the receipt together
// with ErrReverted; an expired wait returns ErrConfirmTimeout — the outcome
// on chain is unknown and the transaction must not be resubmitted.
func (c *Client) WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash)
			}
			return receipt, nil
		}
		// Transient poll errors are tolerated; the deadline bounds them.

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s after %s", ErrConfirmTimeout, hash, timeout)
		case <-ticker.C:
		}
	}
}

// pollEvery is the receipt polling cadence. Package-level so tests can
// shorten it.
var pollEvery = 2 * time.Second

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result interface{}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}

	return result, nil
}

func (c *Client) callUint(ctx context.Context, method string, params ...interface{}) (*big.Int, error) {
	result, err := c.call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse %s result: %s", method, hexStr)
	}
	return n, nil
}

func (c *Client) callBigInt(ctx context.Context, to, calldata string) (*big.Int, error) {
	hexStr, err := c.Call(ctx, to, calldata)
	if err != nil {
		return nil, err
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse uint256 result: %s", hexStr)
	}
	return n, nil
}

// padAddr left-pads an address (without 0x) to a 32-byte calldata word.
func padAddr(addr string) string {
	return fmt.Sprintf("%064s", strings.ToLower(strings.TrimPrefix(addr, "0x")))
}

func parseBigHex(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return new(big.Int), true
	}
	return new(big.Int).SetString(s, 16)
}
