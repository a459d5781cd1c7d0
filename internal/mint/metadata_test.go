package mint

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildMetadataCarriesMeaningVerbatim(t *testing.T) {
	meaning := "This song got me through 2019.\nEvery word of it -- \"fix you\" -- still hits."

	doc, err := BuildMetadata(MetadataInput{
		SongName:      "Fix You",
		ArtistName:    "Coldplay",
		Meaning:       meaning,
		AlbumImageURL: "https://images.example/xy.jpg",
		Username:      "sam",
	})
	if err != nil {
		t.Fatalf("BuildMetadata returned error: %v", err)
	}

	if doc.Name != `What "Fix You" by Coldplay means to me` {
		t.Errorf("unexpected name: %q", doc.Name)
	}
	if doc.Description != meaning {
		t.Errorf("description was altered: %q", doc.Description)
	}
	if doc.Properties.Content.Value != meaning {
		t.Errorf("content value was altered: %q", doc.Properties.Content.Value)
	}
	if doc.Properties.Content.Type != "text" {
		t.Errorf("unexpected content type: %q", doc.Properties.Content.Type)
	}
	if doc.Properties.Category != CategoryMusicMeaning {
		t.Errorf("unexpected category: %q", doc.Properties.Category)
	}
	if doc.Properties.Artist != "Coldplay" || doc.Properties.Author != "sam" {
		t.Errorf("unexpected attribution: %+v", doc.Properties)
	}
	if doc.Image != "https://images.example/xy.jpg" {
		t.Errorf("unexpected image: %q", doc.Image)
	}
}

func TestBuildMetadataUsesPlaceholderImage(t *testing.T) {
	doc, err := BuildMetadata(MetadataInput{
		SongName:   "Yesterday",
		ArtistName: "The Beatles",
		Meaning:    "My dad sang this to me.",
		Username:   "kim",
	})
	if err != nil {
		t.Fatalf("BuildMetadata returned error: %v", err)
	}
	if doc.Image != PlaceholderImageURL {
		t.Errorf("expected placeholder image, got %q", doc.Image)
	}
}

func TestBuildMetadataRejectsMissingFields(t *testing.T) {
	_, err := BuildMetadata(MetadataInput{
		SongName: "",
		Meaning:  "",
		Username: "kim",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var invalid *InvalidMetadataError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidMetadataError, got %T", err)
	}
	if len(invalid.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}

	joined := strings.Join(invalid.Diagnostics, "; ")
	if !strings.Contains(joined, "songName") {
		t.Errorf("diagnostics missing song name: %q", joined)
	}
	if !strings.Contains(joined, "artistName") {
		t.Errorf("diagnostics missing artist name: %q", joined)
	}
}

func TestBuildMetadataRejectsBadImageURL(t *testing.T) {
	_, err := BuildMetadata(MetadataInput{
		SongName:      "Fix You",
		ArtistName:    "Coldplay",
		Meaning:       "A meaning.",
		AlbumImageURL: "not a url",
		Username:      "sam",
	})

	var invalid *InvalidMetadataError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidMetadataError, got %v", err)
	}
}
