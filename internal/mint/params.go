package mint

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"songmeant/api_mint/internal/chain"
)

// DefaultSymbolMaxLen bounds derived ticker symbols. The factory's limit
// varies per deployment target, so it is configuration, not a constant.
const DefaultSymbolMaxLen = 8

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]+`)

// DeriveSymbol builds the coin's ticker symbol from song and artist names:
// concatenated, stripped of everything outside [A-Za-z0-9], uppercased, and
// truncated to maxLen. Deterministic for a given input pair.
func DeriveSymbol(songName, artistName string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSymbolMaxLen
	}
	symbol := nonAlphanumeric.ReplaceAllString(songName+artistName, "")
	symbol = strings.ToUpper(symbol)
	if len(symbol) > maxLen {
		symbol = symbol[:maxLen]
	}
	return symbol
}

// BuildCoinParams assembles the on-chain creation call parameters for a
// pinned metadata document.
//
// The URI is always the content-addressed ipfs:// locator, never the HTTP
// gateway URL. The initial purchase is always zero: this pipeline never
// pre-funds the new coin.
func BuildCoinParams(in MetadataInput, ref *ContentReference, payoutAddress string, symbolMaxLen int) (*chain.CoinParams, error) {
	if !common.IsHexAddress(payoutAddress) {
		return nil, &InvalidPayoutAddressError{Address: payoutAddress}
	}

	uri := ref.URI
	if !strings.HasPrefix(uri, "ipfs://") {
		uri = "ipfs://" + ref.CID
	}

	return &chain.CoinParams{
		Name:               in.SongName + " by " + in.ArtistName,
		Symbol:             DeriveSymbol(in.SongName, in.ArtistName, symbolMaxLen),
		URI:                uri,
		PayoutRecipient:    common.HexToAddress(payoutAddress),
		InitialPurchaseWei: big.NewInt(0),
	}, nil
}
