package main

import (
	"context"
	"fmt"

	"github.com/geo-martino/musify/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the interactive OAuth2 authorization flow.
//
// Starts a loopback HTTP listener, opens the browser for user consent,
// and persists the exchanged token for later runs.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: set spotify client_id and client_secret in config.toml or the environment", shared.ErrMissingCredentials)
	}

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	r.writePlain("→ Waiting for authorization...\n")

	if err := r.auth.Login(ctx); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.writePlainln("✓ Authorization successful")

	if r.client != nil {
		user, err := r.client.UserProfile(ctx)
		if err != nil {
			r.logger.Warnf("failed to fetch user profile: %v", err)
			return nil
		}
		r.writePlain("Logged in as %s (%s)\n", user.DisplayName, user.ID)
	}

	return nil
}

// AuthStatus reports whether a usable token is available.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		r.writePlain("✗ Credentials not configured\n")
		return nil
	}

	if !r.auth.Authenticated() {
		r.writePlain("✗ Not authenticated. Run 'musify auth login'.\n")
		return nil
	}

	user, err := r.client.UserProfile(ctx)
	if err != nil {
		r.writePlain("⚠ Token present but unusable: %v\n", err)
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("User: %s (%s)\n", user.DisplayName, user.ID)
	return nil
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify via the browser",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authorization state",
				Action: r.AuthStatus,
			},
		},
	}
}
