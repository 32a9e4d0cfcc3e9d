// Package sync pulls the published deployments manifest and applies the
// entry for the configured chain, so users pick up official contract
// addresses without typing them.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/config"
)

// Manifest is the structure of a published deployments.json.
type Manifest struct {
	Networks map[string]Deployment `json:"networks"` // keyed by decimal chain ID
}

// Deployment is the contract set for one network. Zero-valued fields leave
// the local config untouched.
type Deployment struct {
	SaleContract    string `json:"sale_contract"`
	PaymentToken    string `json:"payment_token"`
	PaymentDecimals int    `json:"payment_decimals"`
	PresaleToken    string `json:"presale_token"`
	TokenDecimals   int    `json:"token_decimals"`
	MinPurchase     string `json:"min_purchase"`
	MaxPurchase     string `json:"max_purchase"`
}

// Syncer fetches and applies the deployments manifest.
type Syncer struct {
	cfg    *config.Config
	client *http.Client
}

// New creates a Syncer.
func New(cfg *config.Config) *Syncer {
	return &Syncer{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Run fetches the manifest and applies the deployment for the configured
// chain, persisting the updated config. It returns the applied deployment.
func (s *Syncer) Run(ctx context.Context) (*Deployment, error) {
	if s.cfg.ManifestURL == "" {
		return nil, fmt.Errorf("no manifest_url configured; run: crowsale config set manifest_url <url>")
	}

	manifest, err := s.fetchManifest(ctx, s.cfg.ManifestURL)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}

	dep, ok := manifest.Networks[strconv.FormatInt(s.cfg.ChainID, 10)]
	if !ok {
		return nil, fmt.Errorf("manifest has no deployment for chain %d", s.cfg.ChainID)
	}

	apply(s.cfg, &dep)
	if err := s.cfg.Save(); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	return &dep, nil
}

func apply(cfg *config.Config, dep *Deployment) {
	if dep.SaleContract != "" {
		cfg.SaleContract = dep.SaleContract
	}
	if dep.PaymentToken != "" {
		cfg.PaymentToken = dep.PaymentToken
	}
	if dep.PaymentDecimals > 0 {
		cfg.PaymentDecimals = dep.PaymentDecimals
	}
	if dep.PresaleToken != "" {
		cfg.PresaleToken = dep.PresaleToken
	}
	if dep.TokenDecimals > 0 {
		cfg.TokenDecimals = dep.TokenDecimals
	}
	if dep.MinPurchase != "" {
		cfg.MinPurchase = dep.MinPurchase
	}
	if dep.MaxPurchase != "" {
		cfg.MaxPurchase = dep.MaxPurchase
	}
}

func (s *Syncer) fetchManifest(ctx context.Context, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
