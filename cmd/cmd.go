// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Only list migrations and whether they are applied",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authorization against both services.
func authCommand(r *Runner) *cli.Command {
	timeout := func() cli.Flag {
		return &cli.DurationFlag{
			Name:  "timeout",
			Usage: "How long to wait for the browser callback",
			Value: defaultAuthTimeout,
		}
	}
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authorize read access to your Spotify playlists",
				Flags:  []cli.Flag{timeout()},
				Action: r.AuthSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Authorize playlist management on YouTube",
				Flags:   []cli.Flag{timeout()},
				Action:  r.AuthYouTube,
			},
			{
				Name:   "status",
				Usage:  "Show stored tokens and check them against each API",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Forget stored tokens",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "service",
						Usage: "Only forget tokens for spotify or youtube",
					},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List Spotify playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to show",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.SpotifyPlaylists,
			},
		},
	}
}

// youtubeCommand handles YouTube operations
func youtubeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "youtube",
		Aliases: []string{"yt"},
		Usage:   "YouTube playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List playlists owned by the YouTube account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.YouTubePlaylists,
			},
		},
	}
}

// migrateCommand runs a migration from flags.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Copy Spotify playlists to YouTube",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Spotify playlist ID to migrate (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Migrate every playlist of the Spotify account",
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Concurrent Spotify fetches (overrides migration.pool_size)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Playlists translated at once (overrides migration.playlist_workers)",
			},
			&cli.BoolFlag{
				Name:  "skip-empty",
				Usage: "Do not create playlists when no track was found",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"o"},
				Usage:   "Write the report to a .json, .csv or .md file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the report as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the database",
			},
		},
		Action: r.Migrate,
	}
}

// resetCommand deletes every destination playlist.
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete every playlist owned by the YouTube account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "confirm",
				Usage: "Required: confirm that all YouTube playlists may be deleted",
			},
		},
		Action: r.Reset,
	}
}

// historyCommand lists recorded runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded migration runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Show one run with its playlist outcomes",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status (completed or aborted)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:  "delete",
				Usage: "Delete the run with this ID",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist selection.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Pick playlists interactively and migrate them",
		Action:  r.TUI,
	}
}
