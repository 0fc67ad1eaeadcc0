package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plmigrate/internal/formatter"
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/urfave/cli/v3"
)

// SpotifyPlaylists lists Spotify playlists with optional limit.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")

	cred, err := r.credential(ctx, models.ServiceSpotify)
	if err != nil {
		return err
	}

	r.logger.Debug("listing spotify playlists", "limit", limit)
	playlists, err := r.spotifyService().GetPlaylists(ctx, cred)
	if err != nil {
		return fmt.Errorf("failed to list Spotify playlists: %w", err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n", len(playlists))
	return r.writePlain("%s\n", formatter.PlaylistsTable(playlists))
}

// YouTubePlaylists lists the playlists owned by the YouTube account.
func (r *Runner) YouTubePlaylists(ctx context.Context, cmd *cli.Command) error {
	cred, err := r.credential(ctx, models.ServiceYouTube)
	if err != nil {
		return err
	}

	playlists, err := r.youtubeService().ListPlaylists(ctx, cred)
	if err != nil {
		return fmt.Errorf("failed to list YouTube playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlain("Found %d playlists:\n", len(playlists))
	return r.writePlain("%s\n", formatter.PlaylistsTable(playlists))
}
