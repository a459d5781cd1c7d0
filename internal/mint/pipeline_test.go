package mint

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"songmeant/api_mint/internal/chain"
	"songmeant/api_mint/internal/store"
	"songmeant/api_mint/pkg/logging"
)

type fakeSongStore struct {
	songs       map[string]*store.Song
	linkErr     error
	linkOutcome store.LinkOutcome
	linked      *store.MintLink
	existing    *store.Song // returned when linkOutcome is LinkAlreadyMinted
}

func (f *fakeSongStore) GetByID(ctx context.Context, id string) (*store.Song, error) {
	if song, ok := f.songs[id]; ok {
		return song, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeSongStore) GetBySpotifyID(ctx context.Context, spotifyID string) (*store.Song, error) {
	for _, song := range f.songs {
		if song.SpotifyID == spotifyID {
			return song, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSongStore) LinkCoin(ctx context.Context, id string, link store.MintLink) (*store.Song, store.LinkOutcome, error) {
	if f.linkErr != nil {
		return nil, 0, f.linkErr
	}
	f.linked = &link
	if f.linkOutcome == store.LinkAlreadyMinted {
		return f.existing, store.LinkAlreadyMinted, nil
	}
	song := f.songs[id]
	updated := *song
	updated.CoinAddress = &link.CoinAddress
	updated.CoinTx = &link.TxHash
	updated.CoinLink = &link.ViewerURL
	return &updated, store.LinkCreated, nil
}

type fakeContentStore struct {
	ref    *ContentReference
	err    error
	pinned *CoinMetadata
	calls  int
}

func (f *fakeContentStore) Pin(ctx context.Context, doc *CoinMetadata) (*ContentReference, error) {
	f.calls++
	f.pinned = doc
	if f.err != nil {
		return nil, f.err
	}
	return f.ref, nil
}

type fakePending struct {
	hash    common.Hash
	receipt *types.Receipt
	err     error
}

func (f *fakePending) Hash() common.Hash { return f.hash }

func (f *fakePending) AwaitReceipt(ctx context.Context) (*types.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeSubmitter struct {
	pending  *fakePending
	err      error
	coinAddr common.Address
	resolved bool
	params   *chain.CoinParams
	calls    int
}

func (f *fakeSubmitter) Submit(ctx context.Context, params *chain.CoinParams, signer chain.Signer) (chain.Pending, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.pending, nil
}

func (f *fakeSubmitter) ResolveCoinAddress(receipt *types.Receipt) (common.Address, bool) {
	return f.coinAddr, f.resolved
}

type fakeSigner struct {
	addr common.Address
}

func (f *fakeSigner) Address() common.Address { return f.addr }

func (f *fakeSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return tx, nil
}

func strPtr(s string) *string { return &s }

func unmintedSong() *store.Song {
	return &store.Song{
		ID:         "song-1",
		SpotifyID:  "sp-1",
		Title:      "Fix You",
		Artist:     "Coldplay",
		Note:       "This song got me through a hard year.",
		Username:   "sam",
		AlbumCover: strPtr("https://images.example/fixyou.jpg"),
	}
}

func newTestPipeline(songs *fakeSongStore, content *fakeContentStore, submitter *fakeSubmitter) *Pipeline {
	signer := &fakeSigner{addr: common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7")}
	return NewPipeline(songs, content, submitter, signer, chain.Networks["base"], 8, logging.NewLogger())
}

func TestMintEndToEnd(t *testing.T) {
	coinAddr := common.HexToAddress("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	txHash := common.HexToHash("0xabc1")

	songs := &fakeSongStore{songs: map[string]*store.Song{"song-1": unmintedSong()}}
	content := &fakeContentStore{ref: &ContentReference{CID: "bafy123", URI: "ipfs://bafy123"}}
	submitter := &fakeSubmitter{
		pending:  &fakePending{hash: txHash, receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
		coinAddr: coinAddr,
		resolved: true,
	}

	result, err := newTestPipeline(songs, content, submitter).Mint(context.Background(), MintRequest{SongID: "song-1"})
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	if result.AlreadyMinted {
		t.Error("fresh mint reported as already minted")
	}
	if result.CoinAddress != coinAddr.Hex() {
		t.Errorf("unexpected coin address: %q", result.CoinAddress)
	}
	if result.TxHash != txHash.Hex() {
		t.Errorf("unexpected tx hash: %q", result.TxHash)
	}
	if want := chain.Networks["base"].CoinLink(coinAddr.Hex()); result.CoinLink != want {
		t.Errorf("coin link = %q, want %q", result.CoinLink, want)
	}

	if content.pinned == nil || content.pinned.Description != "This song got me through a hard year." {
		t.Errorf("pinned document missing the meaning: %+v", content.pinned)
	}
	if submitter.params.URI != "ipfs://bafy123" {
		t.Errorf("creation call URI = %q", submitter.params.URI)
	}
	if submitter.params.PayoutRecipient != common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7") {
		t.Errorf("payout should default to the signer address, got %s", submitter.params.PayoutRecipient.Hex())
	}
	if songs.linked == nil || songs.linked.CoinAddress != coinAddr.Hex() {
		t.Errorf("coin was not linked: %+v", songs.linked)
	}
}

func TestMintShortCircuitsWhenAlreadyMinted(t *testing.T) {
	song := unmintedSong()
	song.CoinAddress = strPtr("0x1111111111111111111111111111111111111111")
	song.CoinTx = strPtr("0xold")
	song.CoinLink = strPtr("https://zora.co/coin/base:0x1111111111111111111111111111111111111111")

	songs := &fakeSongStore{songs: map[string]*store.Song{"song-1": song}}
	content := &fakeContentStore{}
	submitter := &fakeSubmitter{}

	result, err := newTestPipeline(songs, content, submitter).Mint(context.Background(), MintRequest{SongID: "song-1"})
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	if !result.AlreadyMinted {
		t.Error("expected AlreadyMinted")
	}
	if result.CoinAddress != *song.CoinAddress {
		t.Errorf("unexpected coin address: %q", result.CoinAddress)
	}
	if content.calls != 0 {
		t.Errorf("content store was called %d times for an already-minted song", content.calls)
	}
	if submitter.calls != 0 {
		t.Errorf("submitter was called %d times for an already-minted song", submitter.calls)
	}
}

func TestMintResolvesSongByCatalogID(t *testing.T) {
	coinAddr := common.HexToAddress("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")

	songs := &fakeSongStore{songs: map[string]*store.Song{"song-1": unmintedSong()}}
	content := &fakeContentStore{ref: &ContentReference{CID: "bafy123", URI: "ipfs://bafy123"}}
	submitter := &fakeSubmitter{
		pending:  &fakePending{hash: common.HexToHash("0xabc1"), receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
		coinAddr: coinAddr,
		resolved: true,
	}

	_, err := newTestPipeline(songs, content, submitter).Mint(context.Background(), MintRequest{SongID: "sp-1"})
	if err != nil {
		t.Fatalf("Mint by catalog id returned error: %v", err)
	}
}

func TestMintStorageFailureStopsBeforeChain(t *testing.T) {
	pinErr := errors.New("pin rejected")
	songs := &fakeSongStore{songs: map[string]*store.Song{"song-1": unmintedSong()}}
	content := &fakeContentStore{err: pinErr}
	submitter := &fakeSubmitter{}

	_, err := newTestPipeline(songs, content, submitter).Mint(context.Background(), MintRequest{SongID: "song-1"})
	if !errors.Is(err, pinErr) {
		t.Fatalf("expected pin error, got %v", err)
	}
	if submitter.calls != 0 {
		t.Errorf("submitter was called after a storage failure")
	}
}

func TestMintFailsWhenReceiptCarriesNoCoinEvent(t *testing.T) {
	songs := &fakeSongStore{songs: map[string]*store.Song{"song-1": unmintedSong()}}
	content := &fakeContentStore{ref: &ContentReference{CID: "bafy123", URI: "ipfs://bafy123"}}
	submitter := &fakeSubmitter{
		pending:  &fakePending{hash: common.HexToHash("0xabc1"), receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
		resolved: false,
	}

	_, err := newTestPipeline(songs, content, submitter).Mint(context.Background(), MintRequest{SongID: "song-1"})
	if !errors.Is(err, ErrNoCoinCreated) {
		t.Fatalf("expected ErrNoCoinCreated, got %v", err)
	}
	if songs.linked != nil {
		t.Error("coin was linked despite missing creation event")
	}
}

func TestMintKeepsExistingCoinWhenLinkRaceLost(t *testing.T) {
	existing := unmintedSong()
	existing.CoinAddress = strPtr("0x1111111111111111111111111111111111111111")
	existing.CoinTx = strPtr("0xwinner")

	songs := &fakeSongStore{
		songs:       map[string]*store.Song{"song-1": unmintedSong()},
		linkOutcome: store.LinkAlreadyMinted,
		existing:    existing,
	}
	content := &fakeContentStore{ref: &ContentReference{CID: "bafy123", URI: "ipfs://bafy123"}}
	submitter := &fakeSubmitter{
		pending:  &fakePending{hash: common.HexToHash("0xabc1"), receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
		coinAddr: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		resolved: true,
	}

	result, err := newTestPipeline(songs, content, submitter).Mint(context.Background(), MintRequest{SongID: "song-1"})
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	if !result.AlreadyMinted {
		t.Error("race loser should report AlreadyMinted")
	}
	if result.CoinAddress != *existing.CoinAddress {
		t.Errorf("race loser must return the winner's coin, got %q", result.CoinAddress)
	}
}

func TestLinkMintedCoinRejectsBadAddress(t *testing.T) {
	songs := &fakeSongStore{songs: map[string]*store.Song{"song-1": unmintedSong()}}
	p := newTestPipeline(songs, &fakeContentStore{}, &fakeSubmitter{})

	_, err := p.LinkMintedCoin(context.Background(), "song-1", "nope", "0xabc")

	var invalid *InvalidCoinAddressError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidCoinAddressError, got %v", err)
	}
	if invalid.Address != "nope" {
		t.Errorf("unexpected address in error: %q", invalid.Address)
	}
}

func TestLinkMintedCoinRecordsExternalMint(t *testing.T) {
	songs := &fakeSongStore{songs: map[string]*store.Song{"song-1": unmintedSong()}}
	p := newTestPipeline(songs, &fakeContentStore{}, &fakeSubmitter{})

	result, err := p.LinkMintedCoin(context.Background(), "song-1",
		"0x2222222222222222222222222222222222222222", "0xclienttx")
	if err != nil {
		t.Fatalf("LinkMintedCoin returned error: %v", err)
	}
	if result.AlreadyMinted {
		t.Error("fresh external link reported as already minted")
	}
	if songs.linked == nil || songs.linked.TxHash != "0xclienttx" {
		t.Errorf("external mint not linked: %+v", songs.linked)
	}
}
