package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

const soundCloudBaseURL = "https://api-v2.soundcloud.com"

// SoundCloudService searches SoundCloud tracks using a public client id.
type SoundCloudService struct {
	clientID string
	baseURL  string
	http     *transport
}

// NewSoundCloudService creates a SoundCloud searcher. A client id is required.
func NewSoundCloudService(creds shared.SoundCloudConfig, httpCfg shared.HTTPConfig, logger *log.Logger) (*SoundCloudService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing soundcloud client_id", shared.ErrMissingCredentials)
	}

	baseURL := strings.TrimRight(creds.APIURL, "/")
	if baseURL == "" {
		baseURL = soundCloudBaseURL
	}

	return &SoundCloudService{
		clientID: creds.ClientID,
		baseURL:  baseURL,
		http:     newTransport("soundcloud", httpCfg, nil, logger),
	}, nil
}

func (s *SoundCloudService) Name() string {
	return "SoundCloud"
}

func (s *SoundCloudService) Provider() models.Provider {
	return models.SoundCloud
}

// SearchRaw returns the /search/tracks response body.
func (s *SoundCloudService) SearchRaw(ctx context.Context, query string, limit int) ([]byte, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("client_id", s.clientID)

	return s.http.get(ctx, s.baseURL+"/search/tracks?"+params.Encode(), http.Header{})
}
