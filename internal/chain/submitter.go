package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"songmeant/api_mint/pkg/logging"
)

// Pending is a submitted creation call whose receipt has not been awaited yet.
type Pending interface {
	Hash() common.Hash
	AwaitReceipt(ctx context.Context) (*types.Receipt, error)
}

// SubmitterConfig configures the coin creation submitter.
type SubmitterConfig struct {
	Network        NetworkConfig
	RPCURL         string // overrides the network's endpoint when set
	FactoryAddress common.Address
	GasLimit       uint64
	ReceiptTimeout time.Duration // bound on AwaitReceipt
	PollInterval   time.Duration
}

// DefaultSubmitterConfig returns submitter defaults for a network. Block
// confirmation is probabilistic, so the receipt wait defaults to 45s.
func DefaultSubmitterConfig(network NetworkConfig) SubmitterConfig {
	return SubmitterConfig{
		Network:        network,
		GasLimit:       3_000_000,
		ReceiptTimeout: 45 * time.Second,
		PollInterval:   2 * time.Second,
	}
}

// Submitter signs and sends coin creation calls through the factory contract.
// It holds one process-scoped RPC client; construct it once and inject it.
type Submitter struct {
	cfg    SubmitterConfig
	client *ethclient.Client
	logger logging.Logger
}

// NewSubmitter dials the network RPC endpoint and returns a ready submitter.
// The HTTP transport connects lazily, so this does not require the node to be
// reachable at boot.
func NewSubmitter(cfg SubmitterConfig, logger logging.Logger) (*Submitter, error) {
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = cfg.Network.GetRPCEndpointWithDefault()
	}
	if rpcURL == "" {
		return nil, fmt.Errorf("no RPC endpoint for network %s", cfg.Network.Name)
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = 3_000_000
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 45 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", cfg.Network.Name, err)
	}

	return &Submitter{cfg: cfg, client: client, logger: logger}, nil
}

// Close releases the underlying RPC client.
func (s *Submitter) Close() {
	s.client.Close()
}

// FactoryAddress returns the coin factory this submitter deploys through.
func (s *Submitter) FactoryAddress() common.Address {
	return s.cfg.FactoryAddress
}

// Submit signs and sends the creation call. It returns a pending handle
// immediately; the receipt must be awaited separately.
//
// A wallet refusal (ErrUserRejected) propagates unchanged. RPC rejections are
// wrapped in SubmissionError. Neither is retried here.
func (s *Submitter) Submit(ctx context.Context, params *CoinParams, signer Signer) (Pending, error) {
	value := params.InitialPurchaseWei
	if value == nil {
		value = big.NewInt(0)
	}

	calldata, err := packDeployCall(params)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("failed to encode deploy call: %w", err)}
	}

	from := signer.Address()

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("failed to get nonce: %w", err)}
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("failed to get gas price: %w", err)}
	}

	chainID, err := s.client.NetworkID(ctx)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("failed to get chain ID: %w", err)}
	}

	tx := types.NewTransaction(nonce, s.cfg.FactoryAddress, value, s.cfg.GasLimit, gasPrice, calldata)

	signedTx, err := signer.SignTx(tx, chainID)
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return nil, err
		}
		return nil, &SubmissionError{Err: err}
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, &SubmissionError{Err: err}
	}

	txHash := signedTx.Hash()

	s.logger.WithFields(logging.Fields{
		"from":      from.Hex(),
		"factory":   s.cfg.FactoryAddress.Hex(),
		"symbol":    params.Symbol,
		"gas_price": gasPrice.String(),
		"gas_limit": s.cfg.GasLimit,
		"nonce":     nonce,
		"chain_id":  chainID.String(),
		"tx_hash":   txHash.Hex(),
	}).Info("Coin creation transaction sent")

	return &PendingCoin{
		hash:     txHash,
		client:   s.client,
		timeout:  s.cfg.ReceiptTimeout,
		interval: s.cfg.PollInterval,
		logger:   s.logger,
	}, nil
}

// ResolveCoinAddress scans a receipt for this submitter's factory creation
// event. See the package-level ResolveCoinAddress.
func (s *Submitter) ResolveCoinAddress(receipt *types.Receipt) (common.Address, bool) {
	return ResolveCoinAddress(receipt, s.cfg.FactoryAddress)
}

// PendingCoin is the in-flight creation call returned by Submit.
type PendingCoin struct {
	hash     common.Hash
	client   *ethclient.Client
	timeout  time.Duration
	interval time.Duration
	logger   logging.Logger
}

// Hash returns the transaction hash of the pending call.
func (p *PendingCoin) Hash() common.Hash {
	return p.hash
}

// AwaitReceipt polls for the transaction receipt, bounded by the configured
// timeout. A reverted transaction yields a SubmissionError; an expired wait
// yields ReceiptTimeoutError (the transaction may still confirm later).
func (p *PendingCoin) AwaitReceipt(ctx context.Context) (*types.Receipt, error) {
	deadline := time.Now().Add(p.timeout)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		receipt, err := p.client.TransactionReceipt(ctx, p.hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, &SubmissionError{Err: fmt.Errorf("transaction %s reverted", p.hash.Hex())}
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet, keep polling.
		default:
			p.logger.WithError(err).WithField("tx_hash", p.hash.Hex()).Warn("Receipt poll failed")
		}

		if time.Now().After(deadline) {
			return nil, &ReceiptTimeoutError{TxHash: p.hash.Hex(), Waited: p.timeout}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
