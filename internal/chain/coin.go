package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CoinParams are the arguments for the factory's deploy call. The URI must be
// the content-addressed locator (ipfs://), never an HTTP gateway URL.
type CoinParams struct {
	Name               string
	Symbol             string
	URI                string
	PayoutRecipient    common.Address
	InitialPurchaseWei *big.Int
}

// Minimal factory ABI: the deploy call plus the creation event we resolve
// coin addresses from.
const factoryABIJSON = `[
  {
    "type": "function",
    "name": "deploy",
    "stateMutability": "payable",
    "inputs": [
      {"name": "payoutRecipient", "type": "address"},
      {"name": "name", "type": "string"},
      {"name": "symbol", "type": "string"},
      {"name": "uri", "type": "string"}
    ],
    "outputs": [{"name": "coin", "type": "address"}]
  },
  {
    "type": "event",
    "name": "CoinCreated",
    "inputs": [
      {"name": "caller", "type": "address", "indexed": true},
      {"name": "payoutRecipient", "type": "address", "indexed": true},
      {"name": "coin", "type": "address", "indexed": false},
      {"name": "uri", "type": "string", "indexed": false},
      {"name": "name", "type": "string", "indexed": false},
      {"name": "symbol", "type": "string", "indexed": false}
    ]
  }
]`

var factoryABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(factoryABIJSON))
	if err != nil {
		panic("invalid factory ABI: " + err.Error())
	}
	return parsed
}()

// coinCreatedTopic is the topic0 hash of the CoinCreated event.
var coinCreatedTopic = factoryABI.Events["CoinCreated"].ID

// packDeployCall encodes the factory deploy calldata for the given params.
func packDeployCall(params *CoinParams) ([]byte, error) {
	return factoryABI.Pack("deploy", params.PayoutRecipient, params.Name, params.Symbol, params.URI)
}

// ResolveCoinAddress extracts the newly created coin's address from a
// transaction receipt by scanning for the factory's CoinCreated event.
//
// Returns (zeroAddress, false) when the receipt carries no matching event.
// That is a distinguishable "the transaction confirmed but created no coin"
// condition, not an error; callers must check it explicitly before treating
// the mint as successful.
func ResolveCoinAddress(receipt *types.Receipt, factory common.Address) (common.Address, bool) {
	if receipt == nil {
		return common.Address{}, false
	}

	for _, entry := range receipt.Logs {
		if entry == nil || len(entry.Topics) == 0 {
			continue
		}
		if entry.Topics[0] != coinCreatedTopic {
			continue
		}
		if entry.Address != factory {
			continue
		}

		values, err := factoryABI.Unpack("CoinCreated", entry.Data)
		if err != nil || len(values) == 0 {
			continue
		}
		coin, ok := values[0].(common.Address)
		if !ok {
			continue
		}
		return coin, true
	}

	return common.Address{}, false
}
