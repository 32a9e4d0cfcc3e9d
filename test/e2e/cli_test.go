package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "crowsale-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "crowsale")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "CROWSALE_CONFIG_DIR="+configDir)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestVersionFlag(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "crowsale")
	assert.Contains(t, out, "1.0.0")
}

func TestHelpCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--help")
	require.NoError(t, err)
	lower := strings.ToLower(out)
	assert.Contains(t, lower, "crowsale")
	assert.Contains(t, lower, "buy")
	assert.Contains(t, lower, "claim")
	assert.Contains(t, lower, "balance")
	assert.Contains(t, lower, "stats")
	assert.Contains(t, lower, "wallet")
}

func TestConfigSetAndList(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set", "referral_code", "CROW123")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CROW123")
}

func TestConfigSetNumberCoercion(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set", "payment_decimals", "6")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"payment_decimals": 6`)
}

func TestConfigSetUnknownKey(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set", "bogus_key", "x")
	assert.Error(t, err)
}

func TestWalletAddAndList(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "wallet", "add", "observer", "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "observer")
	assert.Contains(t, out, "watch-only")
}

func TestWalletAddDuplicate(t *testing.T) {
	dir := t.TempDir()
	addr := "0x2222222222222222222222222222222222222222"
	_, err := runCLI(t, dir, "wallet", "add", "dupe", addr)
	require.NoError(t, err)
	_, err = runCLI(t, dir, "wallet", "add", "dupe", addr)
	assert.Error(t, err)
}

func TestBuyMissingAmount(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "buy")
	assert.Error(t, err)
	assert.Contains(t, out, "--amount")
}

func TestBalanceWithoutContracts(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "wallet", "add", "observer", "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "balance")
	assert.Error(t, err)
	assert.Contains(t, out, "sync")
}

func TestSyncWithoutSource(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "sync", "run")
	assert.Error(t, err)
	assert.Contains(t, out, "manifest_url")
}
