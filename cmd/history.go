package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/convert"
	"github.com/engineerpawangupta/crowsale/internal/ens"
	"github.com/engineerpawangupta/crowsale/internal/pager"
	"github.com/engineerpawangupta/crowsale/internal/providers"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var (
	historyWallet string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse CROWW transfer history",
	Long: `Page through the presale token's transfers, newest first.

--wallet narrows the history to one address; it accepts a 0x address
or an ENS name. Without it the whole token's history is shown.

Requires a Moralis API key:
  crowsale config set moralis_api_key <key>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		moralis := providers.NewMoralis(cfg.ChainID, cfg.MoralisAPIKey)
		if moralis == nil {
			return fmt.Errorf("history needs a Moralis API key\n  Set one with: crowsale config set moralis_api_key <key>")
		}
		if cfg.PresaleToken == "" {
			return fmt.Errorf("presale_token is not configured\n  Run: crowsale sync run")
		}

		// The pager's filter carries the wallet scope.
		scope := historyWallet
		if scope != "" && ens.IsName(scope) {
			client, err := newChainClient(ctx)
			if err != nil {
				return err
			}
			resolved, err := ens.Resolve(ctx, client, scope)
			if err != nil {
				return fmt.Errorf("resolving %q: %w", scope, err)
			}
			fmt.Println(ui.Meta(scope + " → " + resolved))
			scope = resolved
		}

		fetch := moralis.TransferPages(cfg.PresaleToken)
		rows := func(ctx context.Context, filter, cursor string, limit int) ([]ui.ListRow, string, error) {
			transfers, next, err := fetch(ctx, filter, cursor, limit)
			if err != nil {
				return nil, "", err
			}
			out := make([]ui.ListRow, len(transfers))
			for i, tr := range transfers {
				out[i] = ui.ListRow{
					Cells: ui.Row{
						ui.TruncateAddr(tr.Hash),
						ui.TruncateAddr(tr.From),
						ui.TruncateAddr(tr.To),
						convert.FormatAmount(tr.Amount, cfg.TokenDecimals),
						tr.Timestamp.Format("2006-01-02 15:04"),
					},
					FullValue:   tr.Hash,
					ExplorerURL: explorerTxURL(cfg.ChainID, tr.Hash),
				}
			}
			return out, next, nil
		}

		// With a wallet given the list starts on that wallet's transfers
		// and the scope key toggles out to the whole token.
		var scopes []ui.Scope
		if scope != "" {
			scopes = []ui.Scope{
				{Label: "wallet " + ui.TruncateAddr(scope), Filter: scope},
				{Label: "all transfers", Filter: ""},
			}
		}

		pg := pager.New(rows, scope, historyLimit)
		columns := []ui.Column{
			{Title: "Tx", Width: 14},
			{Title: "From", Width: 14},
			{Title: "To", Width: 14},
			{Title: "Amount", Width: 18, Right: true},
			{Title: "When", Width: 17},
		}
		return ui.RunPagedList(ui.StyleTitle.Render("CROWW Transfers"), columns, pg, scopes...)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyWallet, "wallet", "", "narrow to one address or ENS name")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 25, "rows per page")
}
