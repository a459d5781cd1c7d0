package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"songmeant/api_mint/internal/mint"
	"songmeant/api_mint/pkg/logging"
)

func testDoc() *mint.CoinMetadata {
	return &mint.CoinMetadata{
		Name:        `What "Fix You" by Coldplay means to me`,
		Description: "A meaning.",
		Image:       "https://images.example/xy.jpg",
		Properties: mint.MetadataProperties{
			Artist:   "Coldplay",
			Author:   "sam",
			Category: mint.CategoryMusicMeaning,
			Content:  mint.MetadataContent{Type: "text", Value: "A meaning."},
		},
	}
}

func newTestClient(serverURL string, maxBytes int) *PinataClient {
	return NewPinataClient(Config{
		BaseURL:          serverURL,
		APIKey:           "key",
		APISecret:        "secret",
		MaxDocumentBytes: maxBytes,
	}, logging.NewLogger())
}

func TestPinSuccess(t *testing.T) {
	var pinBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("pinata_api_key") != "key" || r.Header.Get("pinata_secret_api_key") != "secret" {
			http.Error(w, "no credentials", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/data/testAuthentication":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"message": "Congratulations! You are communicating with the Pinata API!",
			})
		case "/pinning/pinJSONToIPFS":
			pinBody, _ = io.ReadAll(r.Body)
			_ = json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "bafy123"})
		default:
			http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
		}
	}))
	defer server.Close()

	ref, err := newTestClient(server.URL, 0).Pin(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}

	if ref.CID != "bafy123" {
		t.Errorf("CID = %q", ref.CID)
	}
	if ref.URI != "ipfs://bafy123" {
		t.Errorf("URI = %q", ref.URI)
	}
	if ref.GatewayURL != "https://gateway.pinata.cloud/ipfs/bafy123" {
		t.Errorf("GatewayURL = %q", ref.GatewayURL)
	}

	var sent struct {
		PinataContent  mint.CoinMetadata `json:"pinataContent"`
		PinataMetadata struct {
			Name string `json:"name"`
		} `json:"pinataMetadata"`
	}
	if err := json.Unmarshal(pinBody, &sent); err != nil {
		t.Fatalf("decode pin body: %v", err)
	}
	if sent.PinataContent.Description != "A meaning." {
		t.Errorf("document body altered: %+v", sent.PinataContent)
	}
	if !strings.HasPrefix(sent.PinataMetadata.Name, "ThisSongMeant-") {
		t.Errorf("pin name = %q", sent.PinataMetadata.Name)
	}
}

func TestPinRejectsBadCredentialsBeforeUpload(t *testing.T) {
	pinCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/testAuthentication":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"reason": "INVALID_API_KEYS"},
			})
		case "/pinning/pinJSONToIPFS":
			pinCalled = true
		}
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Pin(context.Background(), testDoc())

	var authErr *StorageAuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected StorageAuthError, got %v", err)
	}
	if !strings.Contains(authErr.Reason, "INVALID_API_KEYS") {
		t.Errorf("reason = %q", authErr.Reason)
	}
	if pinCalled {
		t.Error("pin endpoint was hit despite failed credential probe")
	}
}

func TestPinRejectsKeyWithoutScopes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"reason": "NO_SCOPES_FOUND"},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Pin(context.Background(), testDoc())

	var authErr *StorageAuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected StorageAuthError, got %v", err)
	}
}

func TestPinRejectsOversizedDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an oversized document")
	}))
	defer server.Close()

	doc := testDoc()
	doc.Description = strings.Repeat("x", 200)

	_, err := newTestClient(server.URL, 64).Pin(context.Background(), doc)

	var writeErr *StorageWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
}

func TestPinSurfacesWriteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/testAuthentication":
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
		case "/pinning/pinJSONToIPFS":
			http.Error(w, "out of space", http.StatusPaymentRequired)
		}
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Pin(context.Background(), testDoc())

	var writeErr *StorageWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
}

func TestPinDoesNotRetryFailedRequests(t *testing.T) {
	probeCalls := 0
	pinCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/testAuthentication":
			probeCalls++
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
		case "/pinning/pinJSONToIPFS":
			pinCalls++
			http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Pin(context.Background(), testDoc())

	var writeErr *StorageWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
	if probeCalls != 1 {
		t.Errorf("auth probe called %d times, want 1", probeCalls)
	}
	if pinCalls != 1 {
		t.Errorf("pin called %d times, want 1; storage failures must surface without automatic retries", pinCalls)
	}
}

func TestPinRejectsEmptyHashResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/testAuthentication":
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
		case "/pinning/pinJSONToIPFS":
			_ = json.NewEncoder(w).Encode(map[string]string{})
		}
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Pin(context.Background(), testDoc())

	var writeErr *StorageWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
}
