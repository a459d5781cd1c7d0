package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"

	"songmeant/api_mint/internal/mint"
	"songmeant/api_mint/pkg/logging"
)

const (
	// DefaultBaseURL is the Pinata pinning API endpoint.
	DefaultBaseURL = "https://api.pinata.cloud"

	// DefaultGatewayBase prefixes CIDs to produce a browsable HTTP URL.
	DefaultGatewayBase = "https://gateway.pinata.cloud/ipfs/"

	// DefaultMaxDocumentBytes bounds the serialized metadata document.
	// Meanings are short texts; anything near this limit is malformed input.
	DefaultMaxDocumentBytes = 1 << 20
)

// Config carries the Pinata credentials and limits.
type Config struct {
	BaseURL          string
	APIKey           string
	APISecret        string
	GatewayBase      string
	MaxDocumentBytes int
	RequestTimeout   time.Duration

	// Optional upstream call metrics, labeled upstream="pinata".
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// PinataClient pins metadata documents to IPFS through Pinata.
type PinataClient struct {
	cfg    Config
	http   *resty.Client
	logger logging.Logger
}

// NewPinataClient creates a pinning client. Credentials are not verified
// here; every pin re-probes them so revocation is caught immediately.
func NewPinataClient(cfg Config, logger logging.Logger) *PinataClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.GatewayBase == "" {
		cfg.GatewayBase = DefaultGatewayBase
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	// No retries here: a failed probe or pin surfaces immediately and the
	// caller decides whether to re-run the whole mint.
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("pinata_api_key", cfg.APIKey).
		SetHeader("pinata_secret_api_key", cfg.APISecret)

	return &PinataClient{cfg: cfg, http: client, logger: logger}
}

type authProbeResponse struct {
	Message string `json:"message"`
	Error   struct {
		Reason  string `json:"reason"`
		Details string `json:"details"`
	} `json:"error"`
}

// TestAuthentication probes the pinning credentials without uploading
// anything. Keys that authenticate but carry no pinning scopes are rejected
// the same way as bad keys.
func (c *PinataClient) TestAuthentication(ctx context.Context) error {
	var probe authProbeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&probe).
		SetError(&probe).
		Get("/data/testAuthentication")
	if err != nil {
		return &StorageAuthError{Reason: "credential probe failed", Err: err}
	}

	if resp.IsError() {
		reason := probe.Error.Reason
		if reason == "" {
			reason = fmt.Sprintf("probe returned status %d", resp.StatusCode())
		}
		return &StorageAuthError{Reason: reason}
	}

	if probe.Error.Reason == "NO_SCOPES_FOUND" {
		return &StorageAuthError{Reason: "key has no pinning scopes"}
	}

	return nil
}

type pinJSONRequest struct {
	PinataContent  interface{}    `json:"pinataContent"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinJSONResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (c *PinataClient) observe(start time.Time, err error) {
	if c.cfg.Requests == nil || c.cfg.Latency == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.cfg.Requests.With(prometheus.Labels{"upstream": "pinata", "status": status}).Inc()
	c.cfg.Latency.With(prometheus.Labels{"upstream": "pinata"}).Observe(time.Since(start).Seconds())
}

// Pin uploads a metadata document and returns its content reference.
//
// Credentials are probed before the upload so auth failures surface as
// StorageAuthError rather than a failed write.
func (c *PinataClient) Pin(ctx context.Context, doc *mint.CoinMetadata) (*mint.ContentReference, error) {
	start := time.Now()
	ref, err := c.pin(ctx, doc)
	c.observe(start, err)
	return ref, err
}

func (c *PinataClient) pin(ctx context.Context, doc *mint.CoinMetadata) (*mint.ContentReference, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, &StorageWriteError{Diagnostic: "document not serializable", Err: err}
	}
	if len(payload) > c.cfg.MaxDocumentBytes {
		return nil, &StorageWriteError{
			Diagnostic: fmt.Sprintf("document is %d bytes, limit is %d", len(payload), c.cfg.MaxDocumentBytes),
		}
	}

	if err := c.TestAuthentication(ctx); err != nil {
		return nil, err
	}

	var pinned pinJSONResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(pinJSONRequest{
			PinataContent: doc,
			PinataMetadata: pinataMetadata{
				Name: fmt.Sprintf("ThisSongMeant-%d", time.Now().Unix()),
			},
		}).
		SetResult(&pinned).
		Post("/pinning/pinJSONToIPFS")
	if err != nil {
		return nil, &StorageWriteError{Diagnostic: "pin request failed", Err: err}
	}

	if resp.IsError() {
		return nil, &StorageWriteError{
			Diagnostic: fmt.Sprintf("pin returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String())),
		}
	}

	if pinned.IpfsHash == "" {
		return nil, &StorageWriteError{Diagnostic: "pin response carried no content hash"}
	}

	c.logger.WithFields(logging.Fields{
		"cid":   pinned.IpfsHash,
		"bytes": len(payload),
	}).Info("Metadata document pinned")

	return &mint.ContentReference{
		CID:        pinned.IpfsHash,
		URI:        "ipfs://" + pinned.IpfsHash,
		GatewayURL: c.cfg.GatewayBase + pinned.IpfsHash,
	}, nil
}
