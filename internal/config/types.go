package config

// Config holds all crowsale configuration.
type Config struct {
	ChainID      int64    `json:"chain_id"` // target chain; submissions elsewhere are refused
	RPCURL       string   `json:"rpc_url"`
	RPCFallbacks []string `json:"rpc_fallbacks,omitempty"` // probed when the primary is down or lagging

	SaleContract    string `json:"sale_contract"`    // presale contract (the approval spender)
	PaymentToken    string `json:"payment_token"`    // stablecoin contract
	PaymentDecimals int    `json:"payment_decimals"` // testnet mock USDT uses 18; mainnet USDT uses 6
	PresaleToken    string `json:"presale_token"`    // CROWW contract
	TokenDecimals   int    `json:"token_decimals"`

	MinPurchase string `json:"min_purchase"` // decimal string, payment units
	MaxPurchase string `json:"max_purchase"`

	PollIntervalSec   int  `json:"poll_interval_sec"`
	ConfirmTimeoutSec int  `json:"confirm_timeout_sec"`
	UnlimitedApproval bool `json:"unlimited_approval"` // false approves the exact intent amount

	ManifestURL   string `json:"manifest_url,omitempty"` // published deployments manifest
	MoralisAPIKey string `json:"moralis_api_key,omitempty"`
	ReferralCode  string `json:"referral_code,omitempty"`
	DefaultWallet string `json:"default_wallet,omitempty"`

	// internal: config dir path used for Save()
	configDir string
}
