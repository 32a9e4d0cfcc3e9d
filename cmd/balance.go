package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/convert"
	"github.com/engineerpawangupta/crowsale/internal/ledger"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var balanceWallet string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show payment token balance, CROWW balance, and allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, w, err := newPresaleClient(ctx, balanceWallet, false)
		if err != nil {
			return err
		}

		cache := ledger.NewCache(client.CacheReader())

		spin := ui.NewSpinner("Reading on-chain balances...")
		spin.Start()
		refreshErr := cache.RefreshAll(ctx,
			ledger.KeyPaymentBalance, ledger.KeyTokenBalance,
			ledger.KeyAllowance, ledger.KeyUnitPrice)
		spin.Stop()

		t := ui.NewTable([]ui.Column{
			{Title: "Asset", Width: 16},
			{Title: "Amount", Width: 24, Right: true},
		})
		addRecord := func(label string, key ledger.Key, decimals int, suffix string) {
			rec, ok := cache.Read(key)
			if !ok {
				t.AddRow(ui.Row{label, "unknown"})
				t.MarkStale(len(t.Rows)-1, "no successful read yet")
				return
			}
			t.AddRow(ui.Row{label, convert.FormatAmount(rec.Value, decimals) + suffix})
			if rec.Stale {
				t.MarkStale(len(t.Rows)-1, rec.StaleReason)
			}
		}

		addRecord("Payment balance", ledger.KeyPaymentBalance, cfg.PaymentDecimals, "")
		addRecord("CROWW balance", ledger.KeyTokenBalance, cfg.TokenDecimals, " CROWW")
		addRecord("Allowance", ledger.KeyAllowance, cfg.PaymentDecimals, "")
		addRecord("Price", ledger.KeyUnitPrice, cfg.PaymentDecimals, " per CROWW")

		fmt.Println(ui.StyleTitle.Render("Presale Balances") + "  " + ui.Meta(ui.TruncateAddr(w.Address)))
		fmt.Println()
		fmt.Print(t.Render())

		if refreshErr != nil {
			fmt.Println(ui.Warn("Some reads failed: " + refreshErr.Error()))
		}
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceWallet, "wallet", "", "wallet name (default: config)")
}
