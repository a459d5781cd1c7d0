package chain

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testFactory = common.HexToAddress("0x777777751622c0d3258f214F9DF38E35BF45baF3")
	testCoin    = common.HexToAddress("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	testCaller  = common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7")
)

func coinCreatedLog(t *testing.T, emitter, coin common.Address) *types.Log {
	t.Helper()

	data, err := factoryABI.Events["CoinCreated"].Inputs.NonIndexed().Pack(
		coin, "ipfs://bafy123", "Fix You by Coldplay", "FIXYOUCO")
	if err != nil {
		t.Fatalf("pack event data: %v", err)
	}

	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			coinCreatedTopic,
			common.BytesToHash(testCaller.Bytes()),
			common.BytesToHash(testCaller.Bytes()),
		},
		Data: data,
	}
}

func TestPackDeployCall(t *testing.T) {
	calldata, err := packDeployCall(&CoinParams{
		Name:               "Fix You by Coldplay",
		Symbol:             "FIXYOUCO",
		URI:                "ipfs://bafy123",
		PayoutRecipient:    testCaller,
		InitialPurchaseWei: big.NewInt(0),
	})
	if err != nil {
		t.Fatalf("packDeployCall: %v", err)
	}

	wantSelector := factoryABI.Methods["deploy"].ID
	if !bytes.HasPrefix(calldata, wantSelector) {
		t.Errorf("calldata does not start with deploy selector")
	}

	args, err := factoryABI.Methods["deploy"].Inputs.Unpack(calldata[4:])
	if err != nil {
		t.Fatalf("unpack calldata: %v", err)
	}
	if got := args[0].(common.Address); got != testCaller {
		t.Errorf("payout recipient = %s", got.Hex())
	}
	if got := args[3].(string); got != "ipfs://bafy123" {
		t.Errorf("uri = %q", got)
	}
}

func TestResolveCoinAddress(t *testing.T) {
	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs:   []*types.Log{coinCreatedLog(t, testFactory, testCoin)},
	}

	coin, ok := ResolveCoinAddress(receipt, testFactory)
	if !ok {
		t.Fatal("event not resolved")
	}
	if coin != testCoin {
		t.Errorf("coin = %s, want %s", coin.Hex(), testCoin.Hex())
	}
}

func TestResolveCoinAddressIgnoresOtherEmitters(t *testing.T) {
	other := common.HexToAddress("0x1111111111111111111111111111111111111111")
	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs:   []*types.Log{coinCreatedLog(t, other, testCoin)},
	}

	if _, ok := ResolveCoinAddress(receipt, testFactory); ok {
		t.Error("resolved a creation event from a foreign contract")
	}
}

func TestResolveCoinAddressEmptyReceipt(t *testing.T) {
	if _, ok := ResolveCoinAddress(&types.Receipt{Status: types.ReceiptStatusSuccessful}, testFactory); ok {
		t.Error("resolved a coin from a receipt with no logs")
	}
	if _, ok := ResolveCoinAddress(nil, testFactory); ok {
		t.Error("resolved a coin from a nil receipt")
	}
}
