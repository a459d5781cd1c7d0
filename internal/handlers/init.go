package handlers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"songmeant/api_mint/internal/mint"
	"songmeant/api_mint/internal/spotify"
	"songmeant/api_mint/internal/store"
	"songmeant/api_mint/pkg/logging"
)

// MintService runs the song-meaning mint pipeline.
type MintService interface {
	Mint(ctx context.Context, req mint.MintRequest) (*mint.MintResult, error)
	LinkMintedCoin(ctx context.Context, songID, coinAddress, txHash string) (*mint.MintResult, error)
}

// SongCatalog searches the external track catalog.
type SongCatalog interface {
	Search(ctx context.Context, query string, limit int) ([]spotify.Track, error)
}

var (
	songs   *store.SongStore
	minter  MintService
	catalog SongCatalog
	logger  logging.Logger
	metrics *MintMetrics
)

// MintMetrics holds all Prometheus metrics for the mint service
type MintMetrics struct {
	MintAttempts  *prometheus.CounterVec
	MintDuration  *prometheus.HistogramVec
	SongsCreated  *prometheus.CounterVec
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections *prometheus.GaugeVec
}

// Init initializes the handlers with their collaborators. The minter may be
// nil when no signing key is configured; the mint endpoint then refuses work.
func Init(songStore *store.SongStore, mintService MintService, songCatalog SongCatalog,
	log logging.Logger, mintMetrics *MintMetrics) {
	songs = songStore
	minter = mintService
	catalog = songCatalog
	logger = log
	metrics = mintMetrics
}
