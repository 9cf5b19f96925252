// Package normalize maps raw provider search payloads onto [models.SearchItem].
//
// Each provider has its own decoder selected by the [models.Provider] variant. Decoding is strict about nested
// objects: a payload missing a field the mapping dereferences is rejected with [ErrMalformedPayload] instead of
// producing a partially empty item.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/mixdeck/internal/models"
)

// ErrMalformedPayload is returned when a provider response does not match the expected shape.
var ErrMalformedPayload = errors.New("malformed provider payload")

// Normalize decodes a raw search response from provider p.
func Normalize(p models.Provider, raw []byte) ([]models.SearchItem, error) {
	switch p {
	case models.Spotify:
		return Spotify(raw)
	case models.SoundCloud:
		return SoundCloud(raw)
	default:
		return nil, fmt.Errorf("%w: unknown provider %v", ErrMalformedPayload, p)
	}
}

// ToTracks lifts normalized items into player tracks for provider p.
func ToTracks(p models.Provider, items []models.SearchItem) []models.Track {
	tracks := make([]models.Track, len(items))
	for i, item := range items {
		tracks[i] = models.NewTrack(p, item)
	}
	return tracks
}

func malformed(provider string, index int, field string) error {
	if index < 0 {
		return fmt.Errorf("%w: %s: missing %s", ErrMalformedPayload, provider, field)
	}
	return fmt.Errorf("%w: %s: item %d: missing %s", ErrMalformedPayload, provider, index, field)
}

var _ json.Unmarshaler = (*flexID)(nil)

// flexID accepts identifiers encoded either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

func decode(provider string, raw []byte, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: %s: empty body", ErrMalformedPayload, provider)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, provider, err)
	}
	return nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
