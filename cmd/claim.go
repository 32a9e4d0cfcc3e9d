package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/convert"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var (
	claimWallet string
	claimYes    bool
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim purchased CROWW tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, w, err := newPresaleClient(ctx, claimWallet, true)
		if err != nil {
			return err
		}
		if !claimYes {
			client.ConfirmFn = func(action string) bool {
				return ui.Confirm("Broadcast " + action + " transaction?")
			}
		}

		spin := ui.NewSpinner("Reading claimable balance...")
		spin.Start()
		claimable, err := client.PresaleBalance(ctx)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("reading balance: %w", err)
		}
		if claimable.Sign() == 0 {
			fmt.Println(ui.Info("Nothing to claim for " + ui.TruncateAddr(w.Address) + "."))
			return nil
		}

		fmt.Println(ui.KeyValueBlock("Claim", [][2]string{
			{"Wallet", ui.Addr(w.Address)},
			{"Claimable", ui.Val(convert.FormatAmount(claimable, cfg.TokenDecimals) + " CROWW")},
		}))

		ref, err := client.SubmitClaim(ctx)
		if err != nil {
			return err
		}

		spin = ui.NewSpinner("Waiting for confirmation...")
		spin.Start()
		err = client.Confirm(ctx, ref, cfg.ConfirmWait())
		spin.Stop()
		if err != nil {
			if url := explorerTxURL(cfg.ChainID, string(ref)); url != "" {
				fmt.Println(ui.Hint("Check " + url + " before retrying."))
			}
			return err
		}

		fmt.Println(ui.Success("Claimed " + convert.FormatAmount(claimable, cfg.TokenDecimals) + " CROWW!"))
		if url := explorerTxURL(cfg.ChainID, string(ref)); url != "" {
			fmt.Println(ui.Meta("  " + url))
		}
		return nil
	},
}

func init() {
	claimCmd.Flags().StringVar(&claimWallet, "wallet", "", "wallet name (default: config)")
	claimCmd.Flags().BoolVarP(&claimYes, "yes", "y", false, "skip confirmation prompts")
}
