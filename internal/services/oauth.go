package services

import (
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

var spotifyEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

var spotifyScopes = []string{
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// OAuthConfig returns the authorization-code flow settings for service.
func OAuthConfig(service models.Service, c shared.ServiceConfig) *oauth2.Config {
	config := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
	}

	switch service {
	case models.ServiceYouTube:
		config.Endpoint = google.Endpoint
		config.Scopes = []string{youtube.YoutubeScope}
	default:
		config.Endpoint = spotifyEndpoint
		config.Scopes = spotifyScopes
	}
	return config
}
