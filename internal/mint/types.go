package mint

// MetadataInput is the raw user input a metadata document is built from.
type MetadataInput struct {
	SongName      string
	ArtistName    string
	Meaning       string
	AlbumImageURL string // optional, placeholder used when empty
	Username      string
}

// CoinMetadata is the canonical metadata document pinned to content-addressed
// storage. Immutable once built; description and properties.content.value
// always carry the meaning verbatim.
type CoinMetadata struct {
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description" validate:"required"`
	Image       string             `json:"image" validate:"required,url"`
	Properties  MetadataProperties `json:"properties"`
}

// MetadataProperties carries the song attribution block of the document.
type MetadataProperties struct {
	Artist   string          `json:"artist" validate:"required"`
	Author   string          `json:"author" validate:"required"`
	Category string          `json:"category" validate:"required,eq=music-meaning"`
	Content  MetadataContent `json:"content"`
}

// MetadataContent is the typed content payload of the document.
type MetadataContent struct {
	Type  string `json:"type" validate:"required,eq=text"`
	Value string `json:"value" validate:"required"`
}

// ContentReference points at a pinned document. The URI is the canonical
// content-addressed locator; the gateway URL is for display only and must
// never be embedded as the asset's source-of-truth pointer.
type ContentReference struct {
	CID        string `json:"cid"`
	URI        string `json:"uri"`
	GatewayURL string `json:"gateway_url"`
}

// MintRequest identifies the song meaning to mint and who gets paid out.
type MintRequest struct {
	SongID        string // record id or external catalog id
	PayoutAddress string // optional; defaults to the signer's address
}

// MintResult is the outcome of a completed (or previously completed) mint.
type MintResult struct {
	TxHash        string `json:"txHash"`
	CoinAddress   string `json:"coinAddress"`
	CoinLink      string `json:"coinLink"`
	ExplorerLink  string `json:"explorerLink,omitempty"`
	AlreadyMinted bool   `json:"alreadyMinted"`
}
