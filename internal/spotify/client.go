package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/prometheus/client_golang/prometheus"

	"songmeant/api_mint/pkg/clients"
	"songmeant/api_mint/pkg/logging"
)

const (
	defaultAccountsURL = "https://accounts.spotify.com"
	defaultAPIURL      = "https://api.spotify.com"

	// Refresh slightly before the advertised expiry to avoid using a token
	// that dies mid-request.
	tokenExpirySlack = 60 * time.Second
)

// Track is one catalog search hit.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AlbumCover string `json:"album_cover,omitempty"`
	SpotifyURL string `json:"spotify_url,omitempty"`
}

// Config carries the catalog API credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	AccountsURL  string // override for tests
	APIURL       string // override for tests

	// Optional upstream call metrics, labeled upstream="spotify".
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// Client searches the Spotify catalog using the client-credentials flow.
// Tokens are cached and refreshed transparently.
type Client struct {
	cfg      Config
	http     *http.Client
	executor failsafe.Executor[*http.Response]
	logger   logging.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a catalog client. No token is fetched until first use.
func NewClient(cfg Config, logger logging.Logger) *Client {
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = defaultAccountsURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: 15 * time.Second},
		executor: clients.NewHTTPExecutor(clients.DefaultHTTPExecutorConfig()),
		logger:   logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))

	resp, err := clients.ExecuteHTTP(ctx, c.executor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.AccountsURL+"/api/token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Basic "+basic)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return c.http.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch catalog token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("catalog token request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode catalog token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("catalog token response carried no token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpirySlack)

	c.logger.Debug("Catalog access token refreshed")

	return c.accessToken, nil
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name   string `json:"name"`
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"tracks"`
}

func (c *Client) observe(start time.Time, err error) {
	if c.cfg.Requests == nil || c.cfg.Latency == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.cfg.Requests.With(prometheus.Labels{"upstream": "spotify", "status": status}).Inc()
	c.cfg.Latency.With(prometheus.Labels{"upstream": "spotify"}).Observe(time.Since(start).Seconds())
}

// Search queries the track catalog and returns up to limit hits.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	start := time.Now()
	tracks, err := c.search(ctx, query, limit)
	c.observe(start, err)
	return tracks, err
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	resp, err := clients.ExecuteHTTP(ctx, c.executor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.cfg.APIURL+"/v1/search?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return c.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("catalog search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode catalog search: %w", err)
	}

	tracks := make([]Track, 0, len(result.Tracks.Items))
	for _, item := range result.Tracks.Items {
		track := Track{
			ID:         item.ID,
			Title:      item.Name,
			Album:      item.Album.Name,
			SpotifyURL: item.ExternalURLs.Spotify,
		}
		if len(item.Artists) > 0 {
			track.Artist = item.Artists[0].Name
		}
		if len(item.Album.Images) > 0 {
			track.AlbumCover = item.Album.Images[0].URL
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}
