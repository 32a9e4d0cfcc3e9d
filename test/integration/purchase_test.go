package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engineerpawangupta/crowsale/internal/chain"
	"github.com/engineerpawangupta/crowsale/internal/config"
	"github.com/engineerpawangupta/crowsale/internal/contract"
	"github.com/engineerpawangupta/crowsale/internal/purchase"
	"github.com/engineerpawangupta/crowsale/internal/wallet"
)

// Well-known Hardhat/Anvil test account #0. Never fund on mainnet.
const buyerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const (
	saleContract = "0x3333333333333333333333333333333333333333"
	paymentToken = "0x4444444444444444444444444444444444444444"
)

func word(v *big.Int) string {
	return fmt.Sprintf("0x%064x", v)
}

// saleNode mimics the JSON-RPC surface the purchase flow touches. eth_call
// answers are keyed by function selector so allowance and balance reads can
// differ within one flow.
type saleNode struct {
	server    *httptest.Server
	chainID   string
	allowance *big.Int
	balance   *big.Int
	sends     atomic.Int64
}

func newSaleNode(t *testing.T, allowance, balance *big.Int) *saleNode {
	t.Helper()
	n := &saleNode{chainID: "0xaa36a7", allowance: allowance, balance: balance}

	n.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int               `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "eth_chainId":
			result = n.chainID
		case "eth_gasPrice":
			result = "0x3b9aca00"
		case "eth_estimateGas":
			result = "0x186a0"
		case "eth_getTransactionCount":
			result = fmt.Sprintf("0x%x", n.sends.Load())
		case "eth_sendRawTransaction":
			seq := n.sends.Add(1)
			result = fmt.Sprintf("0x%064x", seq)
		case "eth_getTransactionReceipt":
			result = map[string]string{
				"status":      "0x1",
				"blockNumber": "0x10",
				"gasUsed":     "0x5208",
			}
		case "eth_call":
			var call struct {
				Data string `json:"data"`
			}
			require.NoError(t, json.Unmarshal(req.Params[0], &call))
			switch {
			case strings.HasPrefix(call.Data, "0xdd62ed3e"): // allowance
				result = word(n.allowance)
			case strings.HasPrefix(call.Data, "0x70a08231"): // balanceOf
				result = word(n.balance)
			default:
				result = word(big.NewInt(0))
			}
		default:
			t.Fatalf("unexpected RPC method %s", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0", "id": req.ID, "result": result,
		})
	}))
	t.Cleanup(n.server.Close)
	return n
}

// newBuyer wires a signing presale client against the mock node.
func newBuyer(t *testing.T, n *saleNode) *contract.Client {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir()) // keep the session cache out of the real one

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.ChainID = 11155111
	cfg.RPCURL = n.server.URL
	cfg.SaleContract = saleContract
	cfg.PaymentToken = paymentToken

	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("buyer", buyerKey))
	signer, err := mgr.Signer("buyer")
	require.NoError(t, err)

	client := chain.NewClient(n.server.URL)
	sender := contract.NewSender(client, signer, big.NewInt(cfg.ChainID))
	return contract.NewClient(client, cfg, signer.Address(), sender)
}

func runFlow(t *testing.T, client *contract.Client, amount *big.Int) purchase.Session {
	t.Helper()
	orch := purchase.New(client, nil, purchase.Options{
		MinPurchase:    big.NewInt(1),
		MaxPurchase:    new(big.Int).Lsh(big.NewInt(1), 128),
		ConfirmTimeout: 5 * time.Second,
		TargetChainID:  11155111,
	})
	require.NoError(t, orch.Submit(purchase.Intent{PaymentAmount: amount}))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = orch.Wait(ctx)
	return orch.Current()
}

func TestDirectPurchaseFlow(t *testing.T) {
	amount := big.NewInt(1_000_000)
	node := newSaleNode(t, big.NewInt(2_000_000), big.NewInt(5_000_000))
	client := newBuyer(t, node)

	s := runFlow(t, client, amount)

	assert.Equal(t, purchase.StateSuccess, s.State)
	assert.Empty(t, s.ApprovalTxRef, "sufficient allowance must skip approval")
	assert.NotEmpty(t, s.PurchaseTxRef)
	assert.Equal(t, int64(1), node.sends.Load(), "exactly one transaction broadcast")
}

func TestApproveThenPurchaseFlow(t *testing.T) {
	amount := big.NewInt(1_000_000)
	node := newSaleNode(t, big.NewInt(0), big.NewInt(5_000_000))
	client := newBuyer(t, node)

	s := runFlow(t, client, amount)

	assert.Equal(t, purchase.StateSuccess, s.State)
	assert.NotEmpty(t, s.ApprovalTxRef)
	assert.NotEmpty(t, s.PurchaseTxRef)
	assert.NotEqual(t, s.ApprovalTxRef, s.PurchaseTxRef)
	assert.Equal(t, int64(2), node.sends.Load(), "approval then purchase")
}

func TestPurchaseInsufficientBalance(t *testing.T) {
	amount := big.NewInt(1_000_000)
	node := newSaleNode(t, big.NewInt(2_000_000), big.NewInt(10))
	client := newBuyer(t, node)

	s := runFlow(t, client, amount)

	assert.Equal(t, purchase.StateFailed, s.State)
	assert.Equal(t, purchase.KindInsufficientBalance, s.ErrorKind)
	assert.Zero(t, node.sends.Load(), "nothing may be broadcast")
}

func TestPurchaseWrongChainRefused(t *testing.T) {
	node := newSaleNode(t, big.NewInt(0), big.NewInt(0))
	node.chainID = "0x1"
	client := newBuyer(t, node)

	s := runFlow(t, client, big.NewInt(1_000_000))

	assert.Equal(t, purchase.StateFailed, s.State)
	assert.Equal(t, purchase.KindUnsupportedNetwork, s.ErrorKind)
	assert.Zero(t, node.sends.Load())
}

func TestClaimFlow(t *testing.T) {
	node := newSaleNode(t, big.NewInt(0), big.NewInt(0))
	client := newBuyer(t, node)

	ctx := context.Background()
	ref, err := client.SubmitClaim(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	require.NoError(t, client.Confirm(ctx, ref, 5*time.Second))
	assert.Equal(t, int64(1), node.sends.Load())
}
