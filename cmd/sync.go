package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	csync "github.com/engineerpawangupta/crowsale/internal/sync"
	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull contract addresses from the deployments manifest",
}

var syncSetSourceCmd = &cobra.Command{
	Use:   "set-source <url>",
	Short: "Set the deployments manifest URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.ManifestURL = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Sync source set to: " + args[0]))
		return nil
	},
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the manifest and apply this chain's deployment",
	RunE: func(cmd *cobra.Command, args []string) error {
		spin := ui.NewSpinner("Fetching deployments manifest...")
		spin.Start()
		dep, err := csync.New(cfg).Run(cmd.Context())
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Success("Deployment applied."))
		fmt.Println(ui.KeyValueBlock("", [][2]string{
			{"Chain", fmt.Sprintf("%d", cfg.ChainID)},
			{"Sale contract", ui.Addr(dep.SaleContract)},
			{"Payment token", ui.Addr(dep.PaymentToken)},
			{"Presale token", ui.Addr(dep.PresaleToken)},
		}))
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncSetSourceCmd, syncRunCmd)
}
