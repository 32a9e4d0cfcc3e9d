package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/convert"
	"github.com/engineerpawangupta/crowsale/internal/stats"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var statsWatch bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the presale's aggregate figures",
	Long: `Read the presale's totals: amount raised, tokens sold, remaining
supply, buyer count, and the current price.

With --watch the figures refresh on the configured poll interval until
interrupted. A failed refresh keeps showing the last complete snapshot,
marked as stale.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newReadonlyClient(ctx)
		if err != nil {
			return err
		}

		poller := stats.NewPoller(client, cfg.PollEvery())

		if statsWatch {
			fetch := func() (ui.StatsEntry, error) {
				fctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				_ = poller.RefreshNow(fctx) // stale snapshot still renders
				snap, ok := poller.Current()
				if !ok {
					return ui.StatsEntry{}, fmt.Errorf("presale figures unavailable")
				}
				entry := statsEntry(snap)
				if reason, stale := poller.PartialFailure(); stale {
					entry.Stale = "showing last snapshot: " + reason
				}
				return entry, nil
			}
			_, err := ui.NewDashboard(cfg.PollEvery(), fetch).Run()
			return err
		}

		spin := ui.NewSpinner("Reading presale figures...")
		spin.Start()
		err = poller.RefreshNow(ctx)
		spin.Stop()
		if err != nil {
			return err
		}
		snap, _ := poller.Current()
		e := statsEntry(snap)

		fmt.Println(ui.KeyValueBlock("CROWW Presale", [][2]string{
			{"Total raised", e.Raised},
			{"Tokens sold", e.Sold},
			{"Remaining", e.Remaining},
			{"Buyers", e.Buyers},
			{"Price", e.UnitPrice},
		}))
		fmt.Println(ui.Meta("As of " + snap.AsOf.Format(time.RFC3339)))
		return nil
	},
}

// statsEntry formats a snapshot for display.
func statsEntry(s stats.Snapshot) ui.StatsEntry {
	return ui.StatsEntry{
		Raised:    convert.FormatAmount(s.TotalRaised, cfg.PaymentDecimals),
		Sold:      convert.FormatAmount(s.TotalSold, cfg.TokenDecimals) + " CROWW",
		Remaining: convert.FormatAmount(s.RemainingSupply, cfg.TokenDecimals) + " CROWW",
		Buyers:    fmt.Sprintf("%d", s.BuyerCount),
		UnitPrice: convert.FormatAmount(s.UnitPrice, cfg.PaymentDecimals) + " per CROWW",
	}
}

func init() {
	statsCmd.Flags().BoolVar(&statsWatch, "watch", false, "refresh continuously")
}
