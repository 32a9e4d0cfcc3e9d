package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/convert"
)

const (
	defaultChainID        = 11155111 // Sepolia
	defaultMinPurchase    = "10"
	defaultMaxPurchase    = "100000"
	defaultPollInterval   = 30
	defaultConfirmTimeout = 120
	defaultDecimals       = 18

	configFile  = "config.json"
	walletsFile = "wallets.json"
)

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.crowsale; the CROWSALE_CONFIG_DIR env var overrides it. Individual
// CROWSALE_* env vars override file values after loading.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv("CROWSALE_CONFIG_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".crowsale")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg.configDir = dir
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// Validate reports the first missing option required for on-chain operation.
func (c *Config) Validate() error {
	switch {
	case c.RPCURL == "":
		return fmt.Errorf("rpc_url is not configured; run: crowsale config set rpc_url <url>")
	case c.SaleContract == "":
		return fmt.Errorf("sale_contract is not configured")
	case c.PaymentToken == "":
		return fmt.Errorf("payment_token is not configured")
	}
	return nil
}

// MinPurchaseUnits returns the configured minimum purchase in payment base units.
func (c *Config) MinPurchaseUnits() (*big.Int, error) {
	return convert.ParseAmount(c.MinPurchase, c.PaymentDecimals)
}

// MaxPurchaseUnits returns the configured maximum purchase in payment base units.
func (c *Config) MaxPurchaseUnits() (*big.Int, error) {
	return convert.ParseAmount(c.MaxPurchase, c.PaymentDecimals)
}

// PollEvery returns the refresh interval for cache subscriptions and the
// stats poller.
func (c *Config) PollEvery() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// ConfirmWait returns the bounded confirmation timeout.
func (c *Config) ConfirmWait() time.Duration {
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}

// RPCCandidates returns the primary RPC URL followed by any fallbacks.
func (c *Config) RPCCandidates() []string {
	if c.RPCURL == "" {
		return c.RPCFallbacks
	}
	return append([]string{c.RPCURL}, c.RPCFallbacks...)
}

// WalletsPath returns the wallets.json path inside the config dir.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		ChainID:           defaultChainID,
		PaymentDecimals:   defaultDecimals,
		TokenDecimals:     defaultDecimals,
		MinPurchase:       defaultMinPurchase,
		MaxPurchase:       defaultMaxPurchase,
		PollIntervalSec:   defaultPollInterval,
		ConfirmTimeoutSec: defaultConfirmTimeout,
		UnlimitedApproval: true,
		configDir:         dir,
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CROWSALE_RPC_URL"); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv("CROWSALE_SALE_CONTRACT"); v != "" {
		c.SaleContract = v
	}
	if v := os.Getenv("CROWSALE_PAYMENT_TOKEN"); v != "" {
		c.PaymentToken = v
	}
	if v := os.Getenv("CROWSALE_PRESALE_TOKEN"); v != "" {
		c.PresaleToken = v
	}
	if v := os.Getenv("CROWSALE_MORALIS_API_KEY"); v != "" {
		c.MoralisAPIKey = v
	}
	if v := os.Getenv("CROWSALE_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ChainID = id
		}
	}
}
