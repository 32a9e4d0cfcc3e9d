package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, int64(11155111), cfg.ChainID)
	assert.Equal(t, "10", cfg.MinPurchase)
	assert.Equal(t, "100000", cfg.MaxPurchase)
	assert.True(t, cfg.UnlimitedApproval)
	assert.Equal(t, 30*time.Second, cfg.PollEvery())
	assert.Equal(t, 120*time.Second, cfg.ConfirmWait())
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	cfg.RPCURL = "http://localhost:8545"
	cfg.SaleContract = "0xSale"
	cfg.UnlimitedApproval = false
	require.NoError(t, cfg.Save())

	reloaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", reloaded.RPCURL)
	assert.Equal(t, "0xSale", reloaded.SaleContract)
	assert.False(t, reloaded.UnlimitedApproval)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CROWSALE_RPC_URL", "http://rpc.example")
	t.Setenv("CROWSALE_CHAIN_ID", "97")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://rpc.example", cfg.RPCURL)
	assert.Equal(t, int64(97), cfg.ChainID)
}

func TestPurchaseBoundsInBaseUnits(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	cfg.PaymentDecimals = 6

	minU, err := cfg.MinPurchaseUnits()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10_000_000), minU)

	maxU, err := cfg.MaxPurchaseUnits()
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(100_000), big.NewInt(1_000_000)), maxU)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.RPCURL = "http://localhost:8545"
	cfg.SaleContract = "0xSale"
	cfg.PaymentToken = "0xUSDT"
	assert.NoError(t, cfg.Validate())
}

func TestWalletsPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wallets.json"), cfg.WalletsPath())
}
