package handlers

import (
	"net/http"
	"strconv"

	"songmeant/api_mint/internal/spotify"
	"songmeant/api_mint/pkg/middleware"
)

// SearchSongs proxies a track search against the external catalog.
func SearchSongs(c middleware.Context) {
	if catalog == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Catalog search is not configured on this server"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "q is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	tracks, err := catalog.Search(c.Request.Context(), query, limit)
	if err != nil {
		logger.WithError(err).Error("Catalog search failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Catalog search failed"})
		return
	}

	if tracks == nil {
		tracks = []spotify.Track{}
	}
	c.JSON(http.StatusOK, tracks)
}
