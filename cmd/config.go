package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/engineerpawangupta/crowsale/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration value",
	Long: `Set a configuration value and persist it.

Keys: chain_id, rpc_url, sale_contract, payment_token, payment_decimals,
presale_token, token_decimals, min_purchase, max_purchase,
poll_interval_sec, confirm_timeout_sec, unlimited_approval, manifest_url,
moralis_api_key, referral_code, default_wallet`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := setConfigValue(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %q", key, value)))
		return nil
	},
}

var configAddFallbackCmd = &cobra.Command{
	Use:   "add-fallback <url>",
	Short: "Add a fallback RPC endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		for _, u := range cfg.RPCFallbacks {
			if u == url {
				fmt.Println(ui.Warn("Already configured."))
				return nil
			}
		}
		cfg.RPCFallbacks = append(cfg.RPCFallbacks, url)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Fallback RPC added: " + url))
		return nil
	},
}

// setConfigValue applies one key=value pair with type coercion.
func setConfigValue(key, value string) error {
	parseInt := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s wants a number, got %q", key, value)
		}
		return n, nil
	}

	switch key {
	case "chain_id":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("chain_id wants a number, got %q", value)
		}
		cfg.ChainID = n
	case "rpc_url":
		cfg.RPCURL = value
	case "sale_contract":
		cfg.SaleContract = value
	case "payment_token":
		cfg.PaymentToken = value
	case "payment_decimals":
		n, err := parseInt()
		if err != nil {
			return err
		}
		cfg.PaymentDecimals = n
	case "presale_token":
		cfg.PresaleToken = value
	case "token_decimals":
		n, err := parseInt()
		if err != nil {
			return err
		}
		cfg.TokenDecimals = n
	case "min_purchase":
		cfg.MinPurchase = value
	case "max_purchase":
		cfg.MaxPurchase = value
	case "poll_interval_sec":
		n, err := parseInt()
		if err != nil {
			return err
		}
		cfg.PollIntervalSec = n
	case "confirm_timeout_sec":
		n, err := parseInt()
		if err != nil {
			return err
		}
		cfg.ConfirmTimeoutSec = n
	case "unlimited_approval":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("unlimited_approval wants true or false, got %q", value)
		}
		cfg.UnlimitedApproval = b
	case "manifest_url":
		cfg.ManifestURL = value
	case "moralis_api_key":
		cfg.MoralisAPIKey = value
	case "referral_code":
		cfg.ReferralCode = value
	case "default_wallet":
		cfg.DefaultWallet = value
	default:
		return fmt.Errorf("unknown config key %q\n  Run: crowsale config set --help", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configListCmd, configSetCmd, configAddFallbackCmd)
}
