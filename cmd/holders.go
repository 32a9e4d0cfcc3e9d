package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/convert"
	"github.com/engineerpawangupta/crowsale/internal/pager"
	"github.com/engineerpawangupta/crowsale/internal/providers"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var holdersLimit int

var holdersCmd = &cobra.Command{
	Use:   "holders",
	Short: "Browse CROWW holders, largest first",
	Long: `List the presale token's holders page by page, ordered by balance.

Requires a Moralis API key:
  crowsale config set moralis_api_key <key>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		moralis := providers.NewMoralis(cfg.ChainID, cfg.MoralisAPIKey)
		if moralis == nil {
			return fmt.Errorf("holders needs a Moralis API key\n  Set one with: crowsale config set moralis_api_key <key>")
		}
		if cfg.PresaleToken == "" {
			return fmt.Errorf("presale_token is not configured\n  Run: crowsale sync run")
		}

		fetch := moralis.HolderPages(cfg.PresaleToken)
		rows := func(ctx context.Context, filter, cursor string, limit int) ([]ui.ListRow, string, error) {
			holders, next, err := fetch(ctx, filter, cursor, limit)
			if err != nil {
				return nil, "", err
			}
			out := make([]ui.ListRow, len(holders))
			for i, h := range holders {
				out[i] = ui.ListRow{
					Cells: ui.Row{
						ui.TruncateAddr(h.Address),
						convert.FormatAmount(h.Balance, cfg.TokenDecimals),
						fmt.Sprintf("%.2f%%", h.Share),
					},
					FullValue:   h.Address,
					ExplorerURL: explorerAddrURL(cfg.ChainID, h.Address),
				}
			}
			return out, next, nil
		}

		pg := pager.New(rows, "", holdersLimit)
		columns := []ui.Column{
			{Title: "Holder", Width: 14},
			{Title: "Balance", Width: 22, Right: true},
			{Title: "Share", Width: 8, Right: true},
		}
		return ui.RunPagedList(ui.StyleTitle.Render("CROWW Holders"), columns, pg)
	},
}

func init() {
	holdersCmd.Flags().IntVar(&holdersLimit, "limit", 25, "rows per page")
}
