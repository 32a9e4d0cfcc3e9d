package contract

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engineerpawangupta/crowsale/internal/chain"
	"github.com/engineerpawangupta/crowsale/internal/config"
	"github.com/engineerpawangupta/crowsale/internal/ledger"
	"github.com/engineerpawangupta/crowsale/internal/purchase"
)

const testOwner = "0x1111111111111111111111111111111111111111"

// rpcMock serves a fixed JSON-RPC result per method.
func rpcMock(t *testing.T, responses map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0", "id": req.ID, "result": result,
			})
		} else {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]interface{}{"code": -32601, "message": "method not found"},
			})
		}
	}))
}

func testClient(t *testing.T, responses map[string]interface{}) *Client {
	t.Helper()
	srv := rpcMock(t, responses)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		ChainID:      11155111,
		RPCURL:       srv.URL,
		SaleContract: "0x3333333333333333333333333333333333333333",
		PaymentToken: "0x4444444444444444444444444444444444444444",
	}
	return NewClient(chain.NewClient(srv.URL), cfg, testOwner, nil)
}

func TestClientAllowance(t *testing.T) {
	c := testClient(t, map[string]interface{}{
		"eth_call": "0x00000000000000000000000000000000000000000000000000000000000f4240",
	})

	al, err := c.Allowance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), al)
}

func TestClientPresaleInfoWords(t *testing.T) {
	// getPresaleInfo returns (totalRaised, tokensSold, currentPrice).
	c := testClient(t, map[string]interface{}{
		"eth_call": "0x" +
			"0000000000000000000000000000000000000000000000000000000000000064" +
			"00000000000000000000000000000000000000000000000000000000000003e8" +
			"0000000000000000000000000000000000000000000000000000000000000005",
	})

	raised, err := c.TotalRaised(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), raised)

	sold, err := c.TotalSold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), sold)
}

func TestClientBuyerCount(t *testing.T) {
	c := testClient(t, map[string]interface{}{
		"eth_call": "0x000000000000000000000000000000000000000000000000000000000000002a",
	})

	n, err := c.BuyerCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
}

func TestCacheReaderDispatch(t *testing.T) {
	c := testClient(t, map[string]interface{}{
		"eth_call": "0x0000000000000000000000000000000000000000000000000000000000000007",
	})
	read := c.CacheReader()

	for _, key := range []ledger.Key{
		ledger.KeyPaymentBalance, ledger.KeyTokenBalance, ledger.KeyAllowance, ledger.KeyUnitPrice,
	} {
		v, err := read(context.Background(), key)
		require.NoError(t, err, "key %s", key)
		assert.Equal(t, big.NewInt(7), v)
	}

	_, err := read(context.Background(), ledger.Key("bogus"))
	require.Error(t, err)
}

func TestSubmitWithoutSigner(t *testing.T) {
	c := testClient(t, nil)

	_, err := c.SubmitApproval(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signing wallet")
}

func TestSubmitDeclined(t *testing.T) {
	c := testClient(t, nil)
	c.sender = NewSender(nil, nil, nil) // never reached when declined
	c.ConfirmFn = func(action string) bool { return false }

	_, err := c.SubmitPurchase(context.Background(), big.NewInt(1), "")
	require.ErrorIs(t, err, purchase.ErrRejected)
}
