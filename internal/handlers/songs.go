package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"songmeant/api_mint/internal/store"
	"songmeant/api_mint/pkg/logging"
	"songmeant/api_mint/pkg/middleware"
)

// AddSong creates a song meaning record.
func AddSong(c middleware.Context) {
	var req AddSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "spotifyId, title, artist and note are required"})
		return
	}

	song, err := songs.Create(c.Request.Context(), store.NewSong{
		SpotifyID:  req.SpotifyID,
		Title:      req.Title,
		Artist:     req.Artist,
		Album:      req.Album,
		AlbumCover: req.AlbumCover,
		Note:       req.Note,
		Username:   req.Username,
		UserID:     req.UserID,
		SpotifyURL: req.SpotifyURL,
		Color:      req.Color,
	})
	if err != nil {
		logger.WithFields(logging.Fields{
			"spotify_id": req.SpotifyID,
			"error":      err,
		}).Error("Failed to create song")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create song"})
		return
	}

	if metrics != nil {
		metrics.SongsCreated.With(prometheus.Labels{"source": "api"}).Inc()
	}

	c.JSON(http.StatusCreated, song)
}

// GetSongs lists song meanings, newest first.
func GetSongs(c middleware.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := songs.List(c.Request.Context(), limit, offset)
	if err != nil {
		logger.WithError(err).Error("Failed to list songs")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list songs"})
		return
	}

	if list == nil {
		list = []*store.Song{}
	}
	c.JSON(http.StatusOK, list)
}

// GetSong fetches one song meaning by id.
func GetSong(c middleware.Context) {
	song, err := songs.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Song not found"})
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to fetch song")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch song"})
		return
	}

	c.JSON(http.StatusOK, song)
}

// LikeSong increments a song's like counter.
func LikeSong(c middleware.Context) {
	likes, err := songs.IncrementLikes(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Song not found"})
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to like song")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to like song"})
		return
	}

	c.JSON(http.StatusOK, LikeResponse{Likes: likes})
}

// GetUserSongs lists all song meanings submitted under a display name.
func GetUserSongs(c middleware.Context) {
	list, err := songs.ListByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		logger.WithError(err).Error("Failed to list user songs")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list songs"})
		return
	}

	if list == nil {
		list = []*store.Song{}
	}
	c.JSON(http.StatusOK, list)
}
