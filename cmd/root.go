package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/chain"
	"github.com/engineerpawangupta/crowsale/internal/config"
	"github.com/engineerpawangupta/crowsale/internal/contract"
	"github.com/engineerpawangupta/crowsale/internal/rpc"
	"github.com/engineerpawangupta/crowsale/internal/wallet"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/engineerpawangupta/crowsale/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir  string
	cfg     *config.Config
	verbose bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "crowsale",
	Short: "Buy into the CROWW presale from your terminal",
	Long: `crowsale — terminal client for the CROWW token presale.

  Check balances and allowance, convert between payment and CROWW
  amounts, run the approve-then-buy flow, claim purchased tokens,
  and watch the presale's live figures.

Point it at a deployment with 'crowsale sync run' or set the
contracts by hand with 'crowsale config set'.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// CROWSALE_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv("CROWSALE_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.crowsale)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Register all sub-commands.
	rootCmd.AddCommand(
		buyCmd,
		claimCmd,
		balanceCmd,
		statsCmd,
		convertCmd,
		holdersCmd,
		historyCmd,
		walletCmd,
		configCmd,
		rpcCmd,
		syncCmd,
	)
}

// newWalletManager creates a Manager backed by the config-dir JSON store.
func newWalletManager() *wallet.Manager {
	store := wallet.NewJSONStore(cfg.WalletsPath())
	return wallet.NewManager(wallet.WithStore(store))
}

// newChainClient picks the best configured RPC and dials it.
func newChainClient(ctx context.Context) (*chain.Client, error) {
	url, err := rpc.Select(ctx, cfg.RPCCandidates())
	if err != nil {
		return nil, fmt.Errorf("no usable RPC endpoint: %w\n  Set one with: crowsale config set rpc_url <url>", err)
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "rpc:", url)
	}
	return chain.NewClient(url), nil
}

// resolveWallet returns the named wallet, falling back to the configured
// default and then to the manager's default.
func resolveWallet(mgr *wallet.Manager, name string) (*wallet.Wallet, error) {
	if name == "" {
		name = cfg.DefaultWallet
	}
	if name == "" {
		if w := mgr.Default(); w != nil {
			return w, nil
		}
		return nil, fmt.Errorf("no wallet configured\n  Add one with: crowsale wallet add <name> <address>")
	}
	w, err := mgr.Get(name)
	if err != nil {
		return nil, fmt.Errorf("wallet %q not found\n  Run: crowsale wallet list", name)
	}
	return w, nil
}

// newPresaleClient wires a presale client for the given wallet. When
// needSigner is set the wallet must be able to sign; otherwise the client
// comes back read-only.
func newPresaleClient(ctx context.Context, walletName string, needSigner bool) (*contract.Client, *wallet.Wallet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w\n  Run: crowsale sync run", err)
	}

	mgr := newWalletManager()
	w, err := resolveWallet(mgr, walletName)
	if err != nil {
		return nil, nil, err
	}

	client, err := newChainClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	var sender *contract.Sender
	if needSigner {
		if w.Type != wallet.TypeSigning {
			return nil, nil, fmt.Errorf(
				"wallet %q is watch-only and cannot sign\n  Add a signing wallet with: crowsale wallet add <name> --key <private-key>",
				w.Name)
		}
		signer, err := mgr.Signer(w.Name)
		if err != nil {
			return nil, nil, err
		}
		sender = contract.NewSender(client, signer, big.NewInt(cfg.ChainID))
	}

	return contract.NewClient(client, cfg, w.Address, sender), w, nil
}

// newReadonlyClient wires a presale client with no wallet attached. Only
// the aggregate reads work; owner-scoped reads return zeroes for the zero
// address.
func newReadonlyClient(ctx context.Context) (*contract.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w\n  Run: crowsale sync run", err)
	}
	client, err := newChainClient(ctx)
	if err != nil {
		return nil, err
	}
	return contract.NewClient(client, cfg, "0x0000000000000000000000000000000000000000", nil), nil
}

// explorerBase maps a chain ID to its block explorer.
var explorerBase = map[int64]string{
	1:        "https://etherscan.io",
	11155111: "https://sepolia.etherscan.io",
	137:      "https://polygonscan.com",
	56:       "https://bscscan.com",
	8453:     "https://basescan.org",
	42161:    "https://arbiscan.io",
	10:       "https://optimistic.etherscan.io",
}

func explorerTxURL(chainID int64, hash string) string {
	base, ok := explorerBase[chainID]
	if !ok {
		return ""
	}
	return base + "/tx/" + hash
}

func explorerAddrURL(chainID int64, addr string) string {
	base, ok := explorerBase[chainID]
	if !ok {
		return ""
	}
	return base + "/address/" + addr
}
