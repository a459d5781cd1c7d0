package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"songmeant/api_mint/internal/chain"
	"songmeant/api_mint/internal/ipfs"
	"songmeant/api_mint/internal/mint"
	"songmeant/api_mint/internal/store"
	"songmeant/api_mint/pkg/logging"
	"songmeant/api_mint/pkg/middleware"
)

// MintCoin mints a content coin for a song meaning using the server's
// signing key. Idempotent: an already-minted song returns its existing coin.
func MintCoin(c middleware.Context) {
	if minter == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Minting is not configured on this server"})
		return
	}

	var req MintCoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "songId is required"})
		return
	}

	start := time.Now()
	result, err := minter.Mint(c.Request.Context(), mint.MintRequest{
		SongID:        req.SongID,
		PayoutAddress: req.PayoutAddress,
	})
	observeMint(start, err, result)

	if err != nil {
		status, msg, details := mapMintError(err)
		logger.WithFields(logging.Fields{
			"song_id": req.SongID,
			"status":  status,
			"error":   err,
		}).Error("Mint failed")
		c.JSON(status, ErrorResponse{Error: msg, Details: details})
		return
	}

	status := http.StatusCreated
	if result.AlreadyMinted {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// SaveCoin records a coin minted by the caller's own wallet. The existing
// linkage wins if the song was minted concurrently.
func SaveCoin(c middleware.Context) {
	if minter == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Minting is not configured on this server"})
		return
	}

	songID := c.Param("id")

	var req SaveCoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "coinAddress and txHash are required"})
		return
	}

	result, err := minter.LinkMintedCoin(c.Request.Context(), songID, req.CoinAddress, req.TxHash)
	if err != nil {
		status, msg, details := mapMintError(err)
		logger.WithFields(logging.Fields{
			"song_id": songID,
			"status":  status,
			"error":   err,
		}).Error("Failed to save minted coin")
		c.JSON(status, ErrorResponse{Error: msg, Details: details})
		return
	}

	c.JSON(http.StatusOK, result)
}

// mapMintError translates pipeline failures into HTTP status codes. Caller
// mistakes are 4xx, upstream dependency failures are 502, and an unresolved
// receipt wait is 504 because the transaction may still confirm.
func mapMintError(err error) (int, string, []string) {
	var invalidMeta *mint.InvalidMetadataError
	var invalidPayout *mint.InvalidPayoutAddressError
	var invalidCoin *mint.InvalidCoinAddressError
	var authErr *ipfs.StorageAuthError
	var writeErr *ipfs.StorageWriteError
	var subErr *chain.SubmissionError
	var timeoutErr *chain.ReceiptTimeoutError

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Song not found", nil
	case errors.As(err, &invalidMeta):
		return http.StatusBadRequest, "Invalid coin metadata", invalidMeta.Diagnostics
	case errors.As(err, &invalidPayout):
		return http.StatusBadRequest, invalidPayout.Error(), nil
	case errors.As(err, &invalidCoin):
		return http.StatusBadRequest, invalidCoin.Error(), nil
	case errors.Is(err, chain.ErrUserRejected):
		return http.StatusConflict, "Signature request was declined", nil
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "Metadata storage rejected our credentials", nil
	case errors.As(err, &writeErr):
		return http.StatusBadGateway, "Failed to store coin metadata", nil
	case errors.As(err, &subErr):
		return http.StatusBadGateway, "Coin creation transaction failed", nil
	case errors.Is(err, mint.ErrNoCoinCreated):
		return http.StatusBadGateway, "Transaction confirmed but no coin was created", nil
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, "Timed out waiting for transaction confirmation", nil
	default:
		return http.StatusInternalServerError, "Failed to mint coin", nil
	}
}

func observeMint(start time.Time, err error, result *mint.MintResult) {
	if metrics == nil {
		return
	}

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case result != nil && result.AlreadyMinted:
		outcome = "already_minted"
	}

	metrics.MintAttempts.With(prometheus.Labels{"outcome": outcome}).Inc()
	metrics.MintDuration.With(prometheus.Labels{"outcome": outcome}).Observe(time.Since(start).Seconds())
}
