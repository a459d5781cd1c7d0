package handlers

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// MintCoinRequest asks for a server-signed mint of one song meaning.
type MintCoinRequest struct {
	SongID        string `json:"songId" binding:"required"`
	PayoutAddress string `json:"payoutAddress"`
}

// SaveCoinRequest records a coin that was minted by the caller's own wallet.
type SaveCoinRequest struct {
	CoinAddress string `json:"coinAddress" binding:"required"`
	TxHash      string `json:"txHash" binding:"required"`
}

// AddSongRequest creates a song meaning record.
type AddSongRequest struct {
	SpotifyID  string `json:"spotifyId" binding:"required"`
	Title      string `json:"title" binding:"required"`
	Artist     string `json:"artist" binding:"required"`
	Album      string `json:"album"`
	AlbumCover string `json:"albumCover"`
	Note       string `json:"note" binding:"required"`
	Username   string `json:"username"`
	UserID     string `json:"userId"`
	SpotifyURL string `json:"spotifyUrl"`
	Color      string `json:"color"`
}

// LikeResponse carries the updated like counter.
type LikeResponse struct {
	Likes int `json:"likes"`
}
