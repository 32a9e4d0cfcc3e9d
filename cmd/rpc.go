package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/rpc"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var rpcSave bool

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Probe and pick RPC endpoints",
}

var rpcCheckCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Probe one RPC endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spin := ui.NewSpinner("Probing...")
		spin.Start()
		ep := rpc.Check(cmd.Context(), args[0])
		spin.Stop()

		if !ep.Healthy {
			fmt.Println(ui.Err("Unhealthy: " + ep.URL))
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s  %dms  block %d", ep.URL, ep.Latency.Milliseconds(), ep.BlockNumber)))
		return nil
	},
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Probe every configured endpoint in parallel",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := cfg.RPCCandidates()
		if len(urls) == 0 {
			return fmt.Errorf("no RPC endpoints configured\n  Set one with: crowsale config set rpc_url <url>")
		}

		spin := ui.NewSpinner(fmt.Sprintf("Probing %d endpoint(s)...", len(urls)))
		spin.Start()
		endpoints := rpc.Benchmark(cmd.Context(), urls)
		spin.Stop()

		t := ui.NewTable([]ui.Column{
			{Title: "Endpoint", Width: 48},
			{Title: "Latency", Width: 10, Right: true},
			{Title: "Block", Width: 12, Right: true},
			{Title: "Status", Width: 10},
		})
		for _, ep := range endpoints {
			status := ui.StyleSuccess.Render("healthy")
			latency := fmt.Sprintf("%dms", ep.Latency.Milliseconds())
			block := fmt.Sprintf("%d", ep.BlockNumber)
			if !ep.Healthy {
				status = ui.StyleError.Render("down")
				latency, block = "-", "-"
			}
			t.AddRow(ui.Row{ep.URL, latency, block, status})
		}
		fmt.Println(t.Render())

		if best, err := rpc.Fastest(endpoints); err == nil {
			fmt.Println(ui.Info("Fastest: " + best.URL))
		}
		return nil
	},
}

var rpcSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the best endpoint (optionally persist it as primary)",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := cfg.RPCCandidates()
		if len(urls) == 0 {
			return fmt.Errorf("no RPC endpoints configured\n  Set one with: crowsale config set rpc_url <url>")
		}

		spin := ui.NewSpinner("Selecting best endpoint...")
		spin.Start()
		url, err := rpc.Select(cmd.Context(), urls)
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Success("Selected: " + url))
		if rpcSave {
			cfg.RPCURL = url
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Println(ui.Meta("Persisted as rpc_url."))
		}
		return nil
	},
}

func init() {
	rpcSelectCmd.Flags().BoolVar(&rpcSave, "save", false, "persist the selection as rpc_url")
	rpcCmd.AddCommand(rpcCheckCmd, rpcBenchmarkCmd, rpcSelectCmd)
}
