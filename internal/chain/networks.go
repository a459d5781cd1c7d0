package chain

import (
	"os"
	"strings"
)

// NetworkConfig holds configuration for an EVM network the coin factory is
// deployed on.
type NetworkConfig struct {
	ChainID           int64
	Name              string // "base", "base-sepolia"
	DisplayName       string // "Base", "Base Sepolia"
	RPCEndpointEnv    string // Environment variable name for RPC endpoint
	DefaultRPC        string // Public fallback RPC endpoint
	ExplorerTxPrefix  string // Block explorer transaction page prefix
	CoinViewerPrefix  string // Coin viewer page prefix (zora.co)
	FactoryAddressEnv string // Environment variable name for the coin factory address
	Confirmations     int    // Required confirmations for deposits
	IsTestnet         bool
}

// GetRPCEndpoint returns the RPC endpoint from environment
func (n NetworkConfig) GetRPCEndpoint() string {
	return os.Getenv(n.RPCEndpointEnv)
}

// GetRPCEndpointWithDefault returns the configured RPC endpoint, falling back
// to the public endpoint when none is set.
func (n NetworkConfig) GetRPCEndpointWithDefault() string {
	if endpoint := n.GetRPCEndpoint(); endpoint != "" {
		return endpoint
	}
	return n.DefaultRPC
}

// ExplorerLink returns the block explorer page for a transaction hash.
func (n NetworkConfig) ExplorerLink(txHash string) string {
	return n.ExplorerTxPrefix + txHash
}

// CoinLink returns the public viewer page for a coin address.
func (n NetworkConfig) CoinLink(coinAddress string) string {
	return n.CoinViewerPrefix + strings.ToLower(coinAddress)
}

// Networks is the registry of all supported networks
var Networks = map[string]NetworkConfig{
	"base": {
		ChainID:           8453,
		Name:              "base",
		DisplayName:       "Base",
		RPCEndpointEnv:    "BASE_RPC_ENDPOINT",
		DefaultRPC:        "https://mainnet.base.org",
		ExplorerTxPrefix:  "https://basescan.org/tx/",
		CoinViewerPrefix:  "https://zora.co/coin/base:",
		FactoryAddressEnv: "BASE_COIN_FACTORY_ADDRESS",
		Confirmations:     10,
		IsTestnet:         false,
	},
	"base-sepolia": {
		ChainID:           84532,
		Name:              "base-sepolia",
		DisplayName:       "Base Sepolia",
		RPCEndpointEnv:    "BASE_SEPOLIA_RPC_ENDPOINT",
		DefaultRPC:        "https://sepolia.base.org",
		ExplorerTxPrefix:  "https://sepolia.basescan.org/tx/",
		CoinViewerPrefix:  "https://testnet.zora.co/coin/bsep:",
		FactoryAddressEnv: "BASE_SEPOLIA_COIN_FACTORY_ADDRESS",
		Confirmations:     3,
		IsTestnet:         true,
	},
}

// NetworkByName looks up a network config, defaulting to Base mainnet for
// unknown names.
func NetworkByName(name string) (NetworkConfig, bool) {
	cfg, ok := Networks[name]
	if !ok {
		return Networks["base"], false
	}
	return cfg, true
}
