package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/contract"
	"github.com/engineerpawangupta/crowsale/internal/convert"
	"github.com/engineerpawangupta/crowsale/internal/ledger"
	"github.com/engineerpawangupta/crowsale/internal/price"
	"github.com/engineerpawangupta/crowsale/internal/purchase"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var (
	buyAmount   string
	buyTokens   string
	buyReferral string
	buyWallet   string
	buyYes      bool
)

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy CROWW tokens (approves the payment token first if needed)",
	Long: `Run the full purchase flow: check the payment token allowance,
approve the sale contract when it is short, then buy.

Specify the spend with --amount (payment token units) or the target
with --tokens (CROWW units, converted at the current price).

Each broadcast asks for confirmation unless --yes is given. A purchase
that times out waiting for confirmation is never resubmitted; check the
explorer before trying again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if buyAmount == "" && buyTokens == "" {
			return fmt.Errorf("--amount or --tokens is required")
		}
		if buyAmount != "" && buyTokens != "" {
			return fmt.Errorf("--amount and --tokens are mutually exclusive")
		}

		ctx := cmd.Context()
		client, w, err := newPresaleClient(ctx, buyWallet, true)
		if err != nil {
			return err
		}
		if !buyYes {
			client.ConfirmFn = func(action string) bool {
				return ui.Confirm("Broadcast " + action + " transaction?")
			}
		}

		spin := ui.NewSpinner("Reading presale price...")
		spin.Start()
		unitPrice, err := client.UnitPrice(ctx)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("reading price: %w", err)
		}

		// Resolve the payment amount and the CROWW estimate.
		var payUnits, tokenUnits *big.Int
		if buyAmount != "" {
			payUnits, err = convert.ParseAmount(buyAmount, cfg.PaymentDecimals)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", buyAmount, err)
			}
			tokenUnits = convert.TokensFor(payUnits, unitPrice, cfg.TokenDecimals)
		} else {
			tokenUnits, err = convert.ParseAmount(buyTokens, cfg.TokenDecimals)
			if err != nil {
				return fmt.Errorf("invalid --tokens %q: %w", buyTokens, err)
			}
			payUnits = convert.PaymentFor(tokenUnits, unitPrice, cfg.TokenDecimals)
		}

		referral := buyReferral
		if referral == "" {
			referral = cfg.ReferralCode
		}

		preview := [][2]string{
			{"Wallet", ui.Addr(w.Address)},
			{"Spend", ui.Val(convert.FormatAmount(payUnits, cfg.PaymentDecimals))},
			{"Receive (est.)", ui.Val(convert.FormatAmount(tokenUnits, cfg.TokenDecimals) + " CROWW")},
			{"Price", convert.FormatAmount(unitPrice, cfg.PaymentDecimals) + " per CROWW"},
		}
		if referral != "" {
			preview = append(preview, [2]string{"Referral", referral})
		}
		if fee := quoteFeeUSD(ctx, client); fee != "" {
			preview = append(preview, [2]string{"Network fee (est.)", fee})
		}
		fmt.Println(ui.KeyValueBlock("Purchase Preview", preview))

		if !buyYes && !ui.Confirm("Start the purchase?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		minUnits, err := cfg.MinPurchaseUnits()
		if err != nil {
			return err
		}
		maxUnits, err := cfg.MaxPurchaseUnits()
		if err != nil {
			return err
		}

		cache := ledger.NewCache(client.CacheReader())
		orch := purchase.New(client, cache, purchase.Options{
			MinPurchase:       minUnits,
			MaxPurchase:       maxUnits,
			UnlimitedApproval: cfg.UnlimitedApproval,
			ConfirmTimeout:    cfg.ConfirmWait(),
			TargetChainID:     cfg.ChainID,
			Observer:          printProgress,
		})

		if err := orch.Submit(purchase.Intent{
			PaymentAmount: payUnits,
			TokenAmount:   tokenUnits,
			ReferralCode:  referral,
		}); err != nil {
			return err
		}
		if err := orch.Wait(ctx); err != nil {
			return reportPurchaseError(err, orch.Current())
		}

		s := orch.Current()
		fmt.Println()
		fmt.Println(ui.Success("Purchase confirmed!"))
		if s.ApprovalTxRef != "" {
			fmt.Println(ui.Meta("  approval: ") + ui.Addr(string(s.ApprovalTxRef)))
		}
		fmt.Println(ui.Meta("  purchase: ") + ui.Addr(string(s.PurchaseTxRef)))
		if url := explorerTxURL(cfg.ChainID, string(s.PurchaseTxRef)); url != "" {
			fmt.Println(ui.Meta("  " + url))
		}

		// The cache was refreshed on confirmation; show the new balance.
		if rec, ok := cache.Read(ledger.KeyTokenBalance); ok {
			fmt.Println()
			fmt.Println(ui.Info("CROWW balance: " + ui.Val(convert.FormatAmount(rec.Value, cfg.TokenDecimals))))
		}
		return nil
	},
}

// printProgress narrates state transitions during the flow.
func printProgress(s purchase.Session) {
	switch s.State {
	case purchase.StateCheckingAllowance:
		fmt.Println(ui.Meta("Checking allowance..."))
	case purchase.StateNeedsApproval:
		fmt.Println(ui.Info("Allowance too low; approval required first."))
	case purchase.StateApproving:
		fmt.Println(ui.Meta("Submitting approval..."))
	case purchase.StateAwaitingApprovalConfirmation:
		fmt.Println(ui.Meta("Waiting for approval confirmation... tx " + ui.TruncateAddr(string(s.ApprovalTxRef))))
	case purchase.StateApproved:
		fmt.Println(ui.Success("Approval confirmed."))
	case purchase.StateBuying:
		fmt.Println(ui.Meta("Submitting purchase..."))
	case purchase.StateAwaitingPurchaseConfirmation:
		fmt.Println(ui.Meta("Waiting for purchase confirmation... tx " + ui.TruncateAddr(string(s.PurchaseTxRef))))
	}
}

// reportPurchaseError renders a failed session with follow-up hints.
func reportPurchaseError(err error, s purchase.Session) error {
	fmt.Println()
	switch s.ErrorKind {
	case purchase.KindAmbiguous:
		fmt.Println(ui.Warn("Confirmation timed out. The transaction may still land."))
		if s.PurchaseTxRef != "" {
			if url := explorerTxURL(cfg.ChainID, string(s.PurchaseTxRef)); url != "" {
				fmt.Println(ui.Hint("Check " + url + " before retrying."))
			}
		} else if s.ApprovalTxRef != "" {
			if url := explorerTxURL(cfg.ChainID, string(s.ApprovalTxRef)); url != "" {
				fmt.Println(ui.Hint("Check " + url + " before retrying."))
			}
		}
	case purchase.KindReverted:
		fmt.Println(ui.Err("The transaction was mined but reverted."))
		if s.PurchaseTxRef != "" {
			if url := explorerTxURL(cfg.ChainID, string(s.PurchaseTxRef)); url != "" {
				fmt.Println(ui.Hint("Inspect " + url + " for the revert reason."))
			}
		}
	case purchase.KindInsufficientBalance:
		fmt.Println(ui.Hint("Top up the payment token and run: crowsale balance"))
	case purchase.KindUnsupportedNetwork:
		fmt.Println(ui.Hint("The RPC answers for a different chain. Check rpc_url and chain_id in the config."))
	case purchase.KindUserRejected:
		fmt.Println(ui.Meta("Nothing was broadcast."))
	}
	return err
}

// Combined gas for a worst-case approve followed by a buy.
const buyFlowGasEstimate = 200_000

// quoteFeeUSD estimates the fee for the approve+buy pair in dollars.
// Returns "" when the quote is unavailable; the preview simply omits it.
func quoteFeeUSD(ctx context.Context, client *contract.Client) string {
	gasPrice, err := client.RPC().GasPrice(ctx)
	if err != nil {
		return ""
	}
	nativeUSD, err := price.NewFetcher().NativeUSD(ctx, cfg.ChainID)
	if err != nil {
		return ""
	}
	feeWei := new(big.Int).Mul(gasPrice, big.NewInt(buyFlowGasEstimate))
	return fmt.Sprintf("$%.2f", price.FeeUSD(feeWei, nativeUSD))
}

func init() {
	buyCmd.Flags().StringVar(&buyAmount, "amount", "", "payment token amount to spend")
	buyCmd.Flags().StringVar(&buyTokens, "tokens", "", "CROWW amount to buy (converted at current price)")
	buyCmd.Flags().StringVar(&buyReferral, "referral", "", "referral code (default: config)")
	buyCmd.Flags().StringVar(&buyWallet, "wallet", "", "wallet name (default: config)")
	buyCmd.Flags().BoolVarP(&buyYes, "yes", "y", false, "skip confirmation prompts")
}
