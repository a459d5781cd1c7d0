package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"songmeant/api_mint/pkg/logging"
)

// ErrNotFound is returned when the target song record does not exist.
var ErrNotFound = errors.New("song not found")

// Song is the social record: one submitted meaning for one song. Created on
// submission, mutated by likes and by the mint linker, never deleted here.
type Song struct {
	ID          string    `json:"id"`
	SpotifyID   string    `json:"spotify_id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	AlbumCover  *string   `json:"album_cover,omitempty"`
	Note        string    `json:"note"`
	Username    string    `json:"username"`
	UserID      *string   `json:"user_id,omitempty"`
	SpotifyURL  *string   `json:"spotify_url,omitempty"`
	Color       string    `json:"color"`
	Likes       int       `json:"likes"`
	CoinAddress *string   `json:"coin_address,omitempty"`
	CoinTx      *string   `json:"coin_tx,omitempty"`
	CoinLink    *string   `json:"coin_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Minted reports whether a coin has already been linked to this record.
func (s *Song) Minted() bool {
	return s.CoinAddress != nil && *s.CoinAddress != ""
}

// NewSong carries the fields of a fresh submission.
type NewSong struct {
	SpotifyID  string
	Title      string
	Artist     string
	Album      string
	AlbumCover string
	Note       string
	Username   string
	UserID     string
	SpotifyURL string
	Color      string
}

// MintLink is the durable on-chain linkage written by the mint linker.
type MintLink struct {
	CoinAddress string
	TxHash      string
	ViewerURL   string // derived display link, stored so consumers never re-derive it
}

// LinkOutcome distinguishes a fresh link from an idempotent no-op.
type LinkOutcome int

const (
	LinkCreated LinkOutcome = iota
	LinkAlreadyMinted
)

const songColumns = `id, spotify_id, title, artist, album, album_cover, note, username,
	       user_id, spotify_url, color, likes, coin_address, coin_tx, coin_link,
	       created_at, updated_at`

// SongStore reads and writes song records in Postgres.
type SongStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSongStore creates a song store around an existing connection pool.
func NewSongStore(db *sql.DB, logger logging.Logger) *SongStore {
	return &SongStore{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row rowScanner) (*Song, error) {
	var song Song
	err := row.Scan(&song.ID, &song.SpotifyID, &song.Title, &song.Artist, &song.Album,
		&song.AlbumCover, &song.Note, &song.Username, &song.UserID, &song.SpotifyURL,
		&song.Color, &song.Likes, &song.CoinAddress, &song.CoinTx, &song.CoinLink,
		&song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func nullable(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// Create inserts a fresh submission and returns the stored record.
func (s *SongStore) Create(ctx context.Context, in NewSong) (*Song, error) {
	id := uuid.New().String()

	username := in.Username
	if username == "" {
		username = "Anonymous"
	}
	color := in.Color
	if color == "" {
		color = "green"
	}
	userID := in.UserID
	if userID == "" {
		userID = uuid.New().String()
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO songs (id, spotify_id, title, artist, album, album_cover, note,
		                   username, user_id, spotify_url, color, likes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0)
		RETURNING `+songColumns+`
	`, id, in.SpotifyID, in.Title, in.Artist, in.Album, nullable(in.AlbumCover),
		in.Note, username, userID, nullable(in.SpotifyURL), color)

	song, err := scanSong(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}

	s.logger.WithFields(logging.Fields{
		"song_id":    song.ID,
		"spotify_id": song.SpotifyID,
		"username":   song.Username,
	}).Info("Song meaning created")

	return song, nil
}

// GetByID fetches one song record by primary key.
func (s *SongStore) GetByID(ctx context.Context, id string) (*Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id = $1
	`, id)

	song, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch song: %w", err)
	}
	return song, nil
}

// GetBySpotifyID fetches the earliest record for a catalog id.
func (s *SongStore) GetBySpotifyID(ctx context.Context, spotifyID string) (*Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE spotify_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, spotifyID)

	song, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch song: %w", err)
	}
	return song, nil
}

// List returns the newest records first for the public wall.
func (s *SongStore) List(ctx context.Context, limit, offset int) ([]*Song, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

// ListByUsername returns all records submitted under a display name.
func (s *SongStore) ListByUsername(ctx context.Context, username string) ([]*Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE username = $1
		ORDER BY created_at DESC
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs for user: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

func collectSongs(rows *sql.Rows) ([]*Song, error) {
	var songs []*Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return songs, nil
}

// IncrementLikes bumps the like counter and returns the new count.
func (s *SongStore) IncrementLikes(ctx context.Context, id string) (int, error) {
	var likes int
	err := s.db.QueryRowContext(ctx, `
		UPDATE songs
		SET likes = likes + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING likes
	`, id).Scan(&likes)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment likes: %w", err)
	}
	return likes, nil
}

// LinkCoin durably associates a minted coin with its song record.
//
// The write is a single conditional UPDATE guarded on coin_address being
// empty, which enforces the at-most-once mint invariant even when two mint
// attempts race: exactly one wins, the loser observes the winner's linkage.
// An existing linkage is never overwritten - that would orphan a real
// on-chain asset reference.
func (s *SongStore) LinkCoin(ctx context.Context, id string, link MintLink) (*Song, LinkOutcome, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE songs
		SET coin_address = $2, coin_tx = $3, coin_link = $4, updated_at = NOW()
		WHERE id = $1 AND coin_address IS NULL
	`, id, link.CoinAddress, link.TxHash, link.ViewerURL)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to link coin: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read link result: %w", err)
	}

	song, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	if affected == 0 {
		if song.Minted() {
			s.logger.WithFields(logging.Fields{
				"song_id":      id,
				"coin_address": *song.CoinAddress,
			}).Info("Song already minted, keeping existing linkage")
			return song, LinkAlreadyMinted, nil
		}
		return nil, 0, fmt.Errorf("link update affected no rows for song %s", id)
	}

	s.logger.WithFields(logging.Fields{
		"song_id":      id,
		"coin_address": link.CoinAddress,
		"tx_hash":      link.TxHash,
	}).Info("Coin linked to song")

	return song, LinkCreated, nil
}
