package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/convert"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var (
	convertPayment string
	convertTokens  string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between payment amounts and CROWW at the current price",
	Long: `Quote a conversion at the presale's current price without buying.

  # How many CROWW does 250 USDT buy?
  crowsale convert --payment 250

  # What does 10000 CROWW cost?
  crowsale convert --tokens 10000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (convertPayment == "") == (convertTokens == "") {
			return fmt.Errorf("exactly one of --payment or --tokens is required")
		}

		ctx := cmd.Context()
		client, err := newReadonlyClient(ctx)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Reading presale price...")
		spin.Start()
		unitPrice, err := client.UnitPrice(ctx)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("reading price: %w", err)
		}
		if unitPrice.Sign() == 0 {
			return fmt.Errorf("presale price is zero; is the sale live?")
		}

		if convertPayment != "" {
			pay, err := convert.ParseAmount(convertPayment, cfg.PaymentDecimals)
			if err != nil {
				return fmt.Errorf("invalid --payment %q: %w", convertPayment, err)
			}
			tokens := convert.TokensFor(pay, unitPrice, cfg.TokenDecimals)
			fmt.Println(ui.KeyValueBlock("Quote", [][2]string{
				{"Spend", ui.Val(convert.FormatAmount(pay, cfg.PaymentDecimals))},
				{"Receive", ui.Val(convert.FormatAmount(tokens, cfg.TokenDecimals) + " CROWW")},
				{"Price", convert.FormatAmount(unitPrice, cfg.PaymentDecimals) + " per CROWW"},
			}))
			return nil
		}

		tokens, err := convert.ParseAmount(convertTokens, cfg.TokenDecimals)
		if err != nil {
			return fmt.Errorf("invalid --tokens %q: %w", convertTokens, err)
		}
		pay := convert.PaymentFor(tokens, unitPrice, cfg.TokenDecimals)
		fmt.Println(ui.KeyValueBlock("Quote", [][2]string{
			{"Buy", ui.Val(convert.FormatAmount(tokens, cfg.TokenDecimals) + " CROWW")},
			{"Cost", ui.Val(convert.FormatAmount(pay, cfg.PaymentDecimals))},
			{"Price", convert.FormatAmount(unitPrice, cfg.PaymentDecimals) + " per CROWW"},
		}))
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertPayment, "payment", "", "payment token amount to quote")
	convertCmd.Flags().StringVar(&convertTokens, "tokens", "", "CROWW amount to quote")
}
