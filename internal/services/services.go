// package services implements clients for the source and destination APIs
//
// Spotify (hand-written reader), YouTube (generated Data API v3 client)
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
)

// SourceReader reads playlists from the source service.
type SourceReader interface {
	// Validate checks the credential against the service.
	Validate(ctx context.Context, cred *models.Credential) error

	// FetchTitle returns the title of a playlist.
	FetchTitle(ctx context.Context, cred *models.Credential, ref models.PlaylistRef) (string, error)

	// FetchTracks returns the track names of a playlist in source order.
	FetchTracks(ctx context.Context, cred *models.Credential, ref models.PlaylistRef) ([]string, error)
}

// TrackResolver maps a track name to a destination media id. It never returns an error directly;
// failures are carried in [models.TrackMatch].
type TrackResolver interface {
	Resolve(ctx context.Context, cred *models.Credential, name string) models.TrackMatch
}

// PlaylistWriter creates, populates, lists and deletes playlists on the destination service.
type PlaylistWriter interface {
	CreatePlaylist(ctx context.Context, cred *models.Credential, title string) (models.DestinationPlaylist, error)
	InsertItem(ctx context.Context, cred *models.Credential, playlistID, mediaID string) error
	ListPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error)
	DeletePlaylist(ctx context.Context, cred *models.Credential, id string) error
}

// Destination is a service that can both resolve tracks and write playlists.
type Destination interface {
	TrackResolver
	PlaylistWriter
}

// CallFunc runs one external call. Callers use it to bound each call with a timeout.
type CallFunc func(ctx context.Context, fn func(context.Context) error) error

// DeleteAllPlaylists lists every playlist owned by cred on w and deletes each one, running the
// listing and every delete through call. It returns how many were removed.
//
// Individual delete failures are collected and the rest still run; a credential failure or a
// canceled ctx stops at once.
func DeleteAllPlaylists(ctx context.Context, w PlaylistWriter, cred *models.Credential, call CallFunc) (int, error) {
	var playlists []models.Playlist
	err := call(ctx, func(ctx context.Context) (err error) {
		playlists, err = w.ListPlaylists(ctx, cred)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list playlists: %w", err)
	}

	deleted := 0
	var errs []error
	for _, p := range playlists {
		err := call(ctx, func(ctx context.Context) error {
			return w.DeletePlaylist(ctx, cred, p.ID)
		})
		if err == nil {
			deleted++
			continue
		}
		errs = append(errs, fmt.Errorf("delete %s: %w", p.ID, err))
		if errors.Is(err, shared.ErrCredentialInvalid) || ctx.Err() != nil {
			break
		}
	}
	return deleted, errors.Join(errs...)
}

var (
	_ SourceReader = (*SpotifyService)(nil)
	_ Destination  = (*YouTubeService)(nil)
)
