package mint

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// PlaceholderImageURL is used when a submission carries no album cover.
const PlaceholderImageURL = "https://thissongmeant.me/logo.png"

// CategoryMusicMeaning is the fixed category every document carries.
const CategoryMusicMeaning = "music-meaning"

var metadataValidator = validator.New()

// BuildMetadata turns a song + meaning submission into the canonical coin
// metadata document. Pure function: no side effects.
//
// The document is schema-validated before it is returned; a failure yields
// InvalidMetadataError carrying the validator's diagnostics so the caller
// sees exactly which field was rejected.
func BuildMetadata(in MetadataInput) (*CoinMetadata, error) {
	image := in.AlbumImageURL
	if image == "" {
		image = PlaceholderImageURL
	}

	doc := &CoinMetadata{
		Name:        fmt.Sprintf("What %q by %s means to me", in.SongName, in.ArtistName),
		Description: in.Meaning,
		Image:       image,
		Properties: MetadataProperties{
			Artist:   in.ArtistName,
			Author:   in.Username,
			Category: CategoryMusicMeaning,
			Content: MetadataContent{
				Type:  "text",
				Value: in.Meaning,
			},
		},
	}

	// The derived name is non-empty even for empty inputs, so check the raw
	// song and artist fields explicitly.
	var diagnostics []string
	if in.SongName == "" {
		diagnostics = append(diagnostics, "songName is required")
	}
	if in.ArtistName == "" {
		diagnostics = append(diagnostics, "artistName is required")
	}

	if err := metadataValidator.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				diagnostics = append(diagnostics, fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag()))
			}
		} else {
			diagnostics = append(diagnostics, err.Error())
		}
	}

	if len(diagnostics) > 0 {
		return nil, &InvalidMetadataError{Diagnostics: diagnostics}
	}

	return doc, nil
}
