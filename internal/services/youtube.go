// YouTube Data API v3 destination (search, playlist writes)
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const DefaultDescription = "Migrated from Spotify"

// YouTubeOptions configures a [YouTubeService].
type YouTubeOptions struct {
	// Endpoint overrides the API root, e.g. a local fake; empty uses the public API.
	Endpoint    string
	APIKey      string
	Description string
	HTTPClient  *http.Client
}

// YouTubeService resolves tracks and writes playlists through the YouTube Data API.
type YouTubeService struct {
	endpoint    string
	apiKey      string
	description string
	httpClient  *http.Client
}

// NewYouTubeService creates a destination client from opts.
func NewYouTubeService(opts YouTubeOptions) *YouTubeService {
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &YouTubeService{
		endpoint:    opts.Endpoint,
		apiKey:      opts.APIKey,
		description: opts.Description,
		httpClient:  opts.HTTPClient,
	}
}

func (y *YouTubeService) Name() string {
	return "YouTube"
}

// client builds a per-credential API client. The bearer token is attached by an [oauth2.Transport]
// layered over the configured HTTP client's transport.
func (y *YouTubeService) client(ctx context.Context, cred *models.Credential) (*youtube.Service, error) {
	if cred.Token() == "" {
		return nil, fmt.Errorf("%w: youtube token is empty or invalidated", shared.ErrCredentialInvalid)
	}

	hc := &http.Client{
		Transport: &oauth2.Transport{Source: cred.TokenSource(), Base: y.httpClient.Transport},
		Timeout:   y.httpClient.Timeout,
	}

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if y.endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(y.endpoint, "/")+"/"))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	return svc, nil
}

// callOptions attaches the API key as the key query parameter when one is configured.
func (y *YouTubeService) callOptions() []googleapi.CallOption {
	if y.apiKey == "" {
		return nil
	}
	return []googleapi.CallOption{googleapi.QueryParameter("key", y.apiKey)}
}

// Resolve searches for name and returns the first video result.
//
// Zero results give an unresolved match with [shared.ErrTrackNotFound]; call failures give an
// unresolved match carrying the upstream error.
func (y *YouTubeService) Resolve(ctx context.Context, cred *models.Credential, name string) models.TrackMatch {
	match := models.TrackMatch{Query: name}
	if strings.TrimSpace(name) == "" {
		match.Err = fmt.Errorf("%w: empty track name", shared.ErrInvalidInput)
		return match
	}

	svc, err := y.client(ctx, cred)
	if err != nil {
		match.Err = err
		return match
	}

	resp, err := svc.Search.List([]string{"id"}).
		Q(name).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do(y.callOptions()...)
	if err != nil {
		match.Err = fromGoogleAPI(err)
		return match
	}

	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.VideoId == "" {
		match.Err = fmt.Errorf("%w: %q", shared.ErrTrackNotFound, name)
		return match
	}

	match.MediaID = resp.Items[0].Id.VideoId
	match.Resolved = true
	return match
}

// CreatePlaylist creates a private playlist named title and returns its id unchanged.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, cred *models.Credential, title string) (models.DestinationPlaylist, error) {
	svc, err := y.client(ctx, cred)
	if err != nil {
		return models.DestinationPlaylist{}, err
	}

	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: title, Description: y.description},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: "private"},
	}

	resp, err := svc.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do(y.callOptions()...)
	if err != nil {
		return models.DestinationPlaylist{}, fromGoogleAPI(err)
	}
	if resp.Id == "" {
		return models.DestinationPlaylist{}, fmt.Errorf("%w: playlist insert returned no id", shared.ErrAPIRequest)
	}

	return models.DestinationPlaylist{ID: resp.Id, Title: title}, nil
}

// InsertItem appends video mediaID to playlist playlistID. No position is requested.
func (y *YouTubeService) InsertItem(ctx context.Context, cred *models.Credential, playlistID, mediaID string) error {
	svc, err := y.client(ctx, cred)
	if err != nil {
		return err
	}

	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: mediaID},
		},
	}

	if _, err := svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(y.callOptions()...); err != nil {
		return fromGoogleAPI(err)
	}
	return nil
}

// ListPlaylists returns every playlist owned by the credential's user.
func (y *YouTubeService) ListPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error) {
	svc, err := y.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	playlists := []models.Playlist{}
	pageToken := ""
	for {
		call := svc.Playlists.List([]string{"snippet", "contentDetails", "status"}).Mine(true).MaxResults(50)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do(y.callOptions()...)
		if err != nil {
			return nil, fromGoogleAPI(err)
		}

		for _, p := range resp.Items {
			pl := models.Playlist{ID: p.Id}
			if p.Snippet != nil {
				pl.Name = p.Snippet.Title
				pl.Description = p.Snippet.Description
				pl.Owner = p.Snippet.ChannelTitle
			}
			if p.ContentDetails != nil {
				pl.TrackCount = int(p.ContentDetails.ItemCount)
			}
			if p.Status != nil {
				pl.Public = p.Status.PrivacyStatus == "public"
			}
			playlists = append(playlists, pl)
		}

		if resp.NextPageToken == "" {
			return playlists, nil
		}
		pageToken = resp.NextPageToken
	}
}

// DeletePlaylist deletes the playlist with id.
func (y *YouTubeService) DeletePlaylist(ctx context.Context, cred *models.Credential, id string) error {
	svc, err := y.client(ctx, cred)
	if err != nil {
		return err
	}
	if err := svc.Playlists.Delete(id).Context(ctx).Do(y.callOptions()...); err != nil {
		return fromGoogleAPI(err)
	}
	return nil
}
