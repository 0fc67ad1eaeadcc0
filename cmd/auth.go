package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/server"
	"github.com/desertthunder/plmigrate/internal/services"
	"github.com/desertthunder/plmigrate/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultAuthTimeout = 2 * time.Minute

// AuthSpotify performs the OAuth2 authorization code flow for Spotify and saves the token.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	return r.authorize(ctx, models.ServiceSpotify, cmd.Duration("timeout"))
}

// AuthYouTube performs the OAuth2 authorization code flow for YouTube and saves the token.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	return r.authorize(ctx, models.ServiceYouTube, cmd.Duration("timeout"))
}

// authorize starts a local callback server, opens the browser on the provider's consent page,
// and stores the exchanged token in the config file.
func (r *Runner) authorize(ctx context.Context, service models.Service, timeout time.Duration) error {
	sc := r.serviceConfig(service)
	if sc.ClientID == "" || sc.ClientSecret == "" {
		return fmt.Errorf("%w: credentials.%s client_id and client_secret must be set in %s", shared.ErrMissingConfig, service, r.configPath)
	}
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	label := displayName(service)
	handler := server.NewOAuthHandler(label, services.OAuthConfig(service, *sc), state)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv, err := server.StartCallbackServer(addr, handler, r.logger)
	if err != nil {
		return err
	}

	authURL := handler.AuthURL()
	r.writePlain("→ Opening browser for %s authorization...\n", label)
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	token, err := srv.Wait(ctx, timeout)
	if err != nil {
		return err
	}

	if err := sc.Update(token); err != nil {
		return fmt.Errorf("failed to update %s configuration: %w", service, err)
	}
	if err := r.saveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.logger.Info("authorization complete", "service", service, "expiry", token.Expiry)
	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)
	return nil
}

// AuthStatus reports the stored tokens and checks each one against its API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Authentication")

	for _, service := range []models.Service{models.ServiceSpotify, models.ServiceYouTube} {
		label := displayName(service)
		sc := r.serviceConfig(service)
		if sc.AccessToken == "" {
			r.writePlain("%-8s ✗ not authorized\n", label)
			continue
		}

		cred, err := r.credential(ctx, service)
		if err != nil {
			r.writePlain("%-8s ✗ %v\n", label, err)
			continue
		}

		detail, err := r.checkCredential(ctx, service, cred)
		if err != nil {
			r.writePlain("%-8s ✗ %v\n", label, err)
			continue
		}
		r.writePlain("%-8s ✓ %s\n", label, detail)
		if !sc.Expiry.IsZero() {
			r.writePlain("%-8s   expires %s\n", "", sc.Expiry.Local().Format(time.DateTime))
		}
	}
	return nil
}

func (r *Runner) checkCredential(ctx context.Context, service models.Service, cred *models.Credential) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Migration.Timeout())
	defer cancel()

	if service == models.ServiceYouTube {
		playlists, err := r.youtubeService().ListPlaylists(ctx, cred)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d playlists visible", len(playlists)), nil
	}

	user, err := r.spotifyService().UserProfile(ctx, cred)
	if err != nil {
		return "", err
	}
	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return "signed in as " + name, nil
}

// AuthLogout clears stored tokens for one or both services.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	var targets []models.Service
	switch s := models.Service(cmd.String("service")); s {
	case "":
		targets = []models.Service{models.ServiceSpotify, models.ServiceYouTube}
	case models.ServiceSpotify, models.ServiceYouTube:
		targets = []models.Service{s}
	default:
		return fmt.Errorf("%w: service must be spotify or youtube, got %q", shared.ErrInvalidArgument, s)
	}

	for _, s := range targets {
		r.serviceConfig(s).Clear()
		r.logger.Info("tokens cleared", "service", s)
	}
	if err := r.saveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

func displayName(service models.Service) string {
	if service == models.ServiceYouTube {
		return "YouTube"
	}
	return "Spotify"
}
