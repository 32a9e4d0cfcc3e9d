// Package contract binds the sale and payment-token contracts: calldata
// encoding, transaction submission, and the typed read/write surface the
// orchestrator, cache, and stats poller consume.
package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/chain"
	"github.com/engineerpawangupta/crowsale/internal/config"
	"github.com/engineerpawangupta/crowsale/internal/ledger"
	"github.com/engineerpawangupta/crowsale/internal/purchase"
)

// Client is the ledger client for one identity: all reads are keyed to the
// owner address fixed at construction, and writes go through the bound
// sender. A nil sender makes the client read-only.
type Client struct {
	rpc    *chain.Client
	cfg    *config.Config
	owner  string
	sender *Sender

	// ConfirmFn, when set, is asked before every broadcast. Declining maps
	// to purchase.ErrRejected — the signer refused before anything hit the
	// chain.
	ConfirmFn func(action string) bool
}

// NewClient creates a presale client for owner.
func NewClient(rpc *chain.Client, cfg *config.Config, owner string, sender *Sender) *Client {
	return &Client{rpc: rpc, cfg: cfg, owner: owner, sender: sender}
}

// ChainID reports the connected chain.
func (c *Client) ChainID(ctx context.Context) (int64, error) {
	return c.rpc.ChainID(ctx)
}

// Allowance reads the owner's live payment-token allowance for the sale
// contract.
func (c *Client) Allowance(ctx context.Context) (*big.Int, error) {
	return c.rpc.Allowance(ctx, c.cfg.PaymentToken, c.owner, c.cfg.SaleContract)
}

// PaymentBalance reads the owner's live payment-token balance.
func (c *Client) PaymentBalance(ctx context.Context) (*big.Int, error) {
	return c.rpc.TokenBalance(ctx, c.cfg.PaymentToken, c.owner)
}

// PresaleBalance reads the owner's purchased (claimable) token balance from
// the sale contract.
func (c *Client) PresaleBalance(ctx context.Context) (*big.Int, error) {
	return c.rpc.CallBigInt(ctx, c.cfg.SaleContract, UserBalanceCalldata(c.owner))
}

// SubmitApproval broadcasts an approval of amount for the sale contract.
func (c *Client) SubmitApproval(ctx context.Context, amount *big.Int) (purchase.TxRef, error) {
	if err := c.writable("approve payment token"); err != nil {
		return "", err
	}
	hash, err := c.sender.Send(ctx, c.cfg.PaymentToken, ApproveCalldata(c.cfg.SaleContract, amount))
	if err != nil {
		return "", err
	}
	return purchase.TxRef(hash), nil
}

// SubmitPurchase broadcasts buyTokens(amount, referral) on the sale contract.
func (c *Client) SubmitPurchase(ctx context.Context, amount *big.Int, referral string) (purchase.TxRef, error) {
	if err := c.writable("buy presale tokens"); err != nil {
		return "", err
	}
	hash, err := c.sender.Send(ctx, c.cfg.SaleContract, BuyTokensCalldata(amount, referral))
	if err != nil {
		return "", err
	}
	return purchase.TxRef(hash), nil
}

// SubmitClaim broadcasts claimTokens() on the sale contract.
func (c *Client) SubmitClaim(ctx context.Context) (purchase.TxRef, error) {
	if err := c.writable("claim presale tokens"); err != nil {
		return "", err
	}
	hash, err := c.sender.Send(ctx, c.cfg.SaleContract, ClaimTokensCalldata())
	if err != nil {
		return "", err
	}
	return purchase.TxRef(hash), nil
}

// Confirm waits for ref to be durably accepted. Timeout errors carry
// chain.ErrConfirmTimeout so callers can classify the outcome as unknown.
func (c *Client) Confirm(ctx context.Context, ref purchase.TxRef, timeout time.Duration) error {
	_, err := c.rpc.WaitForReceipt(ctx, string(ref), timeout)
	return err
}

func (c *Client) writable(action string) error {
	if c.sender == nil {
		return fmt.Errorf("no signing wallet configured")
	}
	if c.ConfirmFn != nil && !c.ConfirmFn(action) {
		return fmt.Errorf("%w: %s declined", purchase.ErrRejected, action)
	}
	return nil
}

// --- aggregate reads (stats.Source) ---

// RemainingSupply reads the unsold presale allocation.
func (c *Client) RemainingSupply(ctx context.Context) (*big.Int, error) {
	return c.rpc.CallBigInt(ctx, c.cfg.SaleContract, RemainingTokensCalldata())
}

// TotalRaised reads the cumulative payment taken, from getPresaleInfo().
func (c *Client) TotalRaised(ctx context.Context) (*big.Int, error) {
	return c.presaleInfoWord(ctx, 0)
}

// TotalSold reads the cumulative tokens sold, from getPresaleInfo().
func (c *Client) TotalSold(ctx context.Context) (*big.Int, error) {
	return c.presaleInfoWord(ctx, 1)
}

// BuyerCount reads the number of distinct buyers.
func (c *Client) BuyerCount(ctx context.Context) (uint64, error) {
	n, err := c.rpc.CallBigInt(ctx, c.cfg.SaleContract, BuyerCountCalldata())
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// UnitPrice reads the current price of one whole token in payment base units.
func (c *Client) UnitPrice(ctx context.Context) (*big.Int, error) {
	return c.rpc.CallBigInt(ctx, c.cfg.SaleContract, CurrentPriceCalldata())
}

func (c *Client) presaleInfoWord(ctx context.Context, i int) (*big.Int, error) {
	raw, err := c.rpc.Call(ctx, c.cfg.SaleContract, PresaleInfoCalldata())
	if err != nil {
		return nil, err
	}
	return Word(raw, i)
}

// CacheReader adapts the client's reads to the ledger cache.
func (c *Client) CacheReader() ledger.ReadFunc {
	return func(ctx context.Context, key ledger.Key) (*big.Int, error) {
		switch key {
		case ledger.KeyPaymentBalance:
			return c.PaymentBalance(ctx)
		case ledger.KeyTokenBalance:
			return c.PresaleBalance(ctx)
		case ledger.KeyAllowance:
			return c.Allowance(ctx)
		case ledger.KeyUnitPrice:
			return c.UnitPrice(ctx)
		default:
			return nil, fmt.Errorf("unknown cache key: %s", key)
		}
	}
}

// RPC exposes the underlying chain client for ancillary reads.
func (c *Client) RPC() *chain.Client {
	return c.rpc
}
