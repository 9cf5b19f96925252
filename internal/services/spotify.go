// Spotify Web API search.
//
// Response shape: https://developer.spotify.com/documentation/web-api/reference/search
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyService searches the Spotify catalog with an app (client-credentials) token.
type SpotifyService struct {
	config  *clientcredentials.Config
	baseURL string
	market  string
	http    *transport
}

// NewSpotifyService creates a Spotify searcher. Both client id and secret are required.
func NewSpotifyService(ctx context.Context, creds shared.SpotifyConfig, httpCfg shared.HTTPConfig, logger *log.Logger) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	baseURL := strings.TrimRight(creds.APIURL, "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &SpotifyService{
		config:  config,
		baseURL: baseURL,
		market:  creds.Market,
		http:    newTransport("spotify", httpCfg, config.Client(ctx), logger),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) Provider() models.Provider {
	return models.Spotify
}

// SearchRaw returns the /search response body for a track query.
func (s *SpotifyService) SearchRaw(ctx context.Context, query string, limit int) ([]byte, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	if s.market != "" {
		params.Set("market", s.market)
	}

	return s.http.get(ctx, s.baseURL+"/search?"+params.Encode(), http.Header{})
}
