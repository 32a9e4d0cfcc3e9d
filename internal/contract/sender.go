package contract

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/engineerpawangupta/crowsale/internal/chain"
	"github.com/engineerpawangupta/crowsale/internal/wallet"
)

// Sender signs and broadcasts write transactions.
type Sender struct {
	client  *chain.Client
	signer  *wallet.Signer
	chainID *big.Int
}

// NewSender creates a Sender bound to a signer and chain.
func NewSender(client *chain.Client, signer *wallet.Signer, chainID *big.Int) *Sender {
	return &Sender{client: client, signer: signer, chainID: chainID}
}

// Send broadcasts calldata to a contract and returns the transaction hash.
// A broadcast transaction is already committed from the caller's point of
// view: Send failures after this point must never be retried blindly.
func (s *Sender) Send(ctx context.Context, contractAddr, calldata string) (string, error) {
	from := s.signer.Address()

	gas, err := s.client.EstimateGas(ctx, from, contractAddr, calldata)
	if err != nil {
		gas = 200_000 // estimation is advisory; the node rejects a true shortfall
	}

	gasPrice, err := s.client.GasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := s.client.PendingNonce(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	data, err := hex.DecodeString(strings.TrimPrefix(calldata, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid calldata: %w", err)
	}
	toAddr := common.HexToAddress(contractAddr)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &toAddr,
		Value:     big.NewInt(0),
		Data:      data,
	})

	raw, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := s.client.SendRawTransaction(ctx, "0x"+hex.EncodeToString(raw))
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}
	return hash, nil
}
