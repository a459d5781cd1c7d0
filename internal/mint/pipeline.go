package mint

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"songmeant/api_mint/internal/chain"
	"songmeant/api_mint/internal/store"
	"songmeant/api_mint/pkg/logging"
)

// SongStore loads and links the song records the pipeline operates on.
type SongStore interface {
	GetByID(ctx context.Context, id string) (*store.Song, error)
	GetBySpotifyID(ctx context.Context, spotifyID string) (*store.Song, error)
	LinkCoin(ctx context.Context, id string, link store.MintLink) (*store.Song, store.LinkOutcome, error)
}

// ContentStore pins metadata documents to content-addressed storage.
type ContentStore interface {
	Pin(ctx context.Context, doc *CoinMetadata) (*ContentReference, error)
}

// CoinSubmitter sends coin creation calls and interprets their receipts.
type CoinSubmitter interface {
	Submit(ctx context.Context, params *chain.CoinParams, signer chain.Signer) (chain.Pending, error)
	ResolveCoinAddress(receipt *types.Receipt) (common.Address, bool)
}

// Pipeline runs the full song-meaning mint: load the record, build and pin
// the metadata document, create the coin on-chain, and durably link the
// result back to the record.
type Pipeline struct {
	store        SongStore
	content      ContentStore
	submitter    CoinSubmitter
	signer       chain.Signer
	network      chain.NetworkConfig
	symbolMaxLen int
	logger       logging.Logger
}

// NewPipeline wires a mint pipeline from its collaborators.
func NewPipeline(songs SongStore, content ContentStore, submitter CoinSubmitter,
	signer chain.Signer, network chain.NetworkConfig, symbolMaxLen int, logger logging.Logger) *Pipeline {
	if symbolMaxLen <= 0 {
		symbolMaxLen = DefaultSymbolMaxLen
	}
	return &Pipeline{
		store:        songs,
		content:      content,
		submitter:    submitter,
		signer:       signer,
		network:      network,
		symbolMaxLen: symbolMaxLen,
		logger:       logger,
	}
}

func (p *Pipeline) loadSong(ctx context.Context, id string) (*store.Song, error) {
	song, err := p.store.GetByID(ctx, id)
	if err == nil {
		return song, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	// Callers sometimes hold the external catalog id instead of the record id.
	return p.store.GetBySpotifyID(ctx, id)
}

func (p *Pipeline) resultFor(song *store.Song, alreadyMinted bool) *MintResult {
	res := &MintResult{AlreadyMinted: alreadyMinted}
	if song.CoinAddress != nil {
		res.CoinAddress = *song.CoinAddress
	}
	if song.CoinTx != nil {
		res.TxHash = *song.CoinTx
		res.ExplorerLink = p.network.ExplorerLink(*song.CoinTx)
	}
	if song.CoinLink != nil {
		res.CoinLink = *song.CoinLink
	}
	return res
}

// Mint runs the pipeline for one song meaning.
//
// A record that already carries a coin short-circuits before any storage or
// chain work: the existing linkage is returned with AlreadyMinted set. When
// two mints race past that check, the conditional link write decides the
// winner and the loser returns the winner's coin.
func (p *Pipeline) Mint(ctx context.Context, req MintRequest) (*MintResult, error) {
	song, err := p.loadSong(ctx, req.SongID)
	if err != nil {
		return nil, err
	}

	if song.Minted() {
		p.logger.WithFields(logging.Fields{
			"song_id":      song.ID,
			"coin_address": *song.CoinAddress,
		}).Info("Song already minted, returning existing coin")
		return p.resultFor(song, true), nil
	}

	in := MetadataInput{
		SongName:   song.Title,
		ArtistName: song.Artist,
		Meaning:    song.Note,
		Username:   song.Username,
	}
	if song.AlbumCover != nil {
		in.AlbumImageURL = *song.AlbumCover
	}

	doc, err := BuildMetadata(in)
	if err != nil {
		return nil, err
	}

	ref, err := p.content.Pin(ctx, doc)
	if err != nil {
		return nil, err
	}

	payout := req.PayoutAddress
	if payout == "" {
		payout = p.signer.Address().Hex()
	}

	params, err := BuildCoinParams(in, ref, payout, p.symbolMaxLen)
	if err != nil {
		return nil, err
	}

	pending, err := p.submitter.Submit(ctx, params, p.signer)
	if err != nil {
		return nil, err
	}

	receipt, err := pending.AwaitReceipt(ctx)
	if err != nil {
		return nil, err
	}

	coinAddr, ok := p.submitter.ResolveCoinAddress(receipt)
	if !ok {
		p.logger.WithFields(logging.Fields{
			"song_id": song.ID,
			"tx_hash": pending.Hash().Hex(),
		}).Error("Creation receipt carried no coin event")
		return nil, ErrNoCoinCreated
	}

	return p.link(ctx, song.ID, coinAddr.Hex(), pending.Hash().Hex())
}

// LinkMintedCoin records a coin that was created outside this process, for
// flows where the caller signed and sent the transaction themselves. The
// same conditional write applies: an existing linkage wins.
func (p *Pipeline) LinkMintedCoin(ctx context.Context, songID, coinAddress, txHash string) (*MintResult, error) {
	if !common.IsHexAddress(coinAddress) {
		return nil, &InvalidCoinAddressError{Address: coinAddress}
	}

	song, err := p.loadSong(ctx, songID)
	if err != nil {
		return nil, err
	}

	return p.link(ctx, song.ID, common.HexToAddress(coinAddress).Hex(), txHash)
}

func (p *Pipeline) link(ctx context.Context, songID, coinAddress, txHash string) (*MintResult, error) {
	linked, outcome, err := p.store.LinkCoin(ctx, songID, store.MintLink{
		CoinAddress: coinAddress,
		TxHash:      txHash,
		ViewerURL:   p.network.CoinLink(coinAddress),
	})
	if err != nil {
		return nil, err
	}

	if outcome == store.LinkAlreadyMinted {
		p.logger.WithFields(logging.Fields{
			"song_id":       songID,
			"lost_coin":     coinAddress,
			"existing_coin": *linked.CoinAddress,
		}).Warn("Concurrent mint lost the link race, keeping existing coin")
		return p.resultFor(linked, true), nil
	}

	return p.resultFor(linked, false), nil
}
