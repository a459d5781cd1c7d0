package chain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrUserRejected is returned by interactive signers when the wallet owner
// declines the signature request. It is surfaced to the caller as a neutral
// "not completed" outcome and is never retried.
var ErrUserRejected = errors.New("signature request declined by wallet owner")

// Signer produces a signed transaction for a given chain. Implementations are
// either the server-held minting key or a relay to a user wallet, which may
// refuse with ErrUserRejected.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// PrivateKeySigner signs with a server-held private key. Used only for the
// server-initiated mint path.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigner parses a hex-encoded secp256k1 private key.
func NewPrivateKeySigner(privKeyHex string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse minting private key: %w", err)
	}
	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the address derived from the private key.
func (s *PrivateKeySigner) Address() common.Address {
	return s.address
}

// SignTx signs the transaction with an EIP-155 signer for the given chain.
func (s *PrivateKeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
