// Spotify Web API reader
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
)

const SpotifyBaseURL = "https://api.spotify.com/v1"

const (
	spotifyPlaylistPage = 50
	spotifyTrackPage    = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       Owner  `json:"owner"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyPaginatedPlaylists represents a page of the current user's playlists.
type SpotifyPaginatedPlaylists struct {
	Items []SpotifySimplePlaylist `json:"items"`
	Total int                     `json:"total"`
	Next  *string                 `json:"next"`
}

// SpotifyPlaylistItem is one entry of a playlist. Track is null for removed or local entries.
type SpotifyPlaylistItem struct {
	Track *struct {
		Name string `json:"name"`
	} `json:"track"`
}

// SpotifyPaginatedItems represents a page of playlist items.
type SpotifyPaginatedItems struct {
	Items []SpotifyPlaylistItem `json:"items"`
	Next  *string               `json:"next"`
}

// SpotifyService reads playlists from the Spotify Web API.
//
// Every method takes the credential explicitly; the service holds no session state.
type SpotifyService struct {
	api *APIClient
}

// NewSpotifyService creates a reader against baseURL (default [SpotifyBaseURL]) using client.
func NewSpotifyService(baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = SpotifyBaseURL
	}
	return &SpotifyService{api: NewAPIClient("spotify", baseURL, client)}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// UserProfile retrieves the profile of the user the credential belongs to.
func (s *SpotifyService) UserProfile(ctx context.Context, cred *models.Credential) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.api.GetJSON(ctx, cred, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Validate checks the credential against the API. A 401 matches [shared.ErrCredentialInvalid].
func (s *SpotifyService) Validate(ctx context.Context, cred *models.Credential) error {
	_, err := s.UserProfile(ctx, cred)
	return err
}

// FetchTitle returns the name of playlist ref.
func (s *SpotifyService) FetchTitle(ctx context.Context, cred *models.Credential, ref models.PlaylistRef) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty playlist id", shared.ErrInvalidArgument)
	}

	q := url.Values{"fields": {"name"}}
	endpoint := fmt.Sprintf("/playlists/%s?%s", url.PathEscape(string(ref)), q.Encode())

	var playlist struct {
		Name string `json:"name"`
	}
	if err := s.api.GetJSON(ctx, cred, endpoint, &playlist); err != nil {
		return "", err
	}
	return playlist.Name, nil
}

// FetchTracks returns the track names of playlist ref in source order, following pagination.
// Entries without a track are skipped. An empty playlist yields an empty, non-nil slice.
func (s *SpotifyService) FetchTracks(ctx context.Context, cred *models.Credential, ref models.PlaylistRef) ([]string, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty playlist id", shared.ErrInvalidArgument)
	}

	q := url.Values{
		"fields": {"items(track(name)),next"},
		"limit":  {fmt.Sprint(spotifyTrackPage)},
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(string(ref)), q.Encode())

	tracks := []string{}
	for endpoint != "" {
		var page SpotifyPaginatedItems
		if err := s.api.GetJSON(ctx, cred, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, item.Track.Name)
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = *page.Next
		}
	}
	return tracks, nil
}

// GetPlaylists retrieves all playlists of the credential's user.
func (s *SpotifyService) GetPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error) {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d", spotifyPlaylistPage)

	playlists := []models.Playlist{}
	for endpoint != "" {
		var page SpotifyPaginatedPlaylists
		if err := s.api.GetJSON(ctx, cred, endpoint, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			playlists = append(playlists, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				Owner:       sp.Owner.DisplayName,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = *page.Next
		}
	}
	return playlists, nil
}
