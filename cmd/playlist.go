package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/geo-martino/musify/internal/shared"
	"github.com/geo-martino/musify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistList lists the authorized user's playlists with an optional limit.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.client == nil {
		return fmt.Errorf("%w: spotify client not initialized", shared.ErrMissingCredentials)
	}

	r.logger.Infof("listing playlists with limit %v", limit)

	playlists, err := r.client.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// PlaylistExport exports a playlist with all tracks to JSON.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	outputFile := cmd.String("output")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if playlistID == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}
	if r.client == nil {
		return fmt.Errorf("%w: spotify client not initialized", shared.ErrMissingCredentials)
	}

	r.logger.Infof("exporting playlist %v", playlistID)

	playlist, entries, err := r.client.Playlist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	export := struct {
		Playlist any `json:"playlist"`
		Tracks   any `json:"tracks"`
	}{playlist, entries}

	if outputFile != "" {
		data, err := marshalExport(export)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}

		r.logger.Infof("playlist exported to %v with %v tracks", outputFile, len(entries))

		r.writePlain("✓ Playlist exported to %s\n", outputFile)
		r.writePlain("  Playlist: %s\n", playlist.Name)
		r.writePlain("  Tracks: %d\n", len(entries))
		return nil
	}

	if useJSON {
		return r.writeJSON(export, pretty)
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		r.writePlain("Description: %s\n", playlist.Description)
	}
	r.writePlain("Tracks: %d\n\n", len(entries))

	for i, track := range entries {
		r.writePlain("%d. %s - %s\n", i+1, track.Artist(), track.Title)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
	}

	return nil
}

// PlaylistPush matches a library file and adds all matched tracks to a new
// playlist on the user's account.
func (r *Runner) PlaylistPush(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureEngine(); err != nil {
		return err
	}

	libraryPath := cmd.String("file")
	name := cmd.String("name")
	if name == "" {
		return fmt.Errorf("%w: --name flag is required", shared.ErrMissingArgument)
	}

	collections, err := loadLibrary(libraryPath)
	if err != nil {
		return err
	}

	r.logger.Info("pushing library to playlist", "file", libraryPath, "name", name)
	r.writePlain("Matching %d collections from %s...\n\n", len(collections), libraryPath)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			if update.Phase == tasks.MatchCollection {
				r.writePlain("🔍 [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	report, err := r.engine.Run(ctx, progressCh, collections, tasks.RunOpts{})
	close(progressCh)
	if err != nil {
		return err
	}

	var remoteIDs []string
	for _, coll := range report.Collections {
		for _, result := range coll.Results {
			if result.Matched() {
				remoteIDs = append(remoteIDs, result.RemoteID)
			}
		}
	}
	if len(remoteIDs) == 0 {
		return fmt.Errorf("%w: no tracks matched, nothing to push", shared.ErrNoMatch)
	}

	user, err := r.client.UserProfile(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	playlist, err := r.client.CreatePlaylist(ctx, user.ID, name, cmd.String("description"), cmd.Bool("public"))
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	r.writePlain("\n📝 Created playlist %s (%s)\n", playlist.Name, playlist.ID)

	if err := r.client.AddTracks(ctx, playlist.ID, remoteIDs); err != nil {
		return fmt.Errorf("failed to add tracks: %w", err)
	}

	total := report.Matched + report.Unmatched + report.Failed
	r.writePlain("\n")
	r.writePlainHeader("Push Complete!")
	r.writePlain("Playlist: %s\n", playlist.Name)
	r.writePlain("Added: %d/%d tracks\n", len(remoteIDs), total)
	if report.Unmatched > 0 {
		r.writePlain("\nNo match for %d tracks:\n", report.Unmatched)
		for _, coll := range report.Collections {
			for _, result := range coll.Results {
				if coll.Err == nil && result.Track.Title != "" && !result.Matched() {
					r.writePlain("  - %s - %s\n", result.Track.Artist, result.Track.Title)
				}
			}
		}
	}

	return nil
}

func marshalExport(export any) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Inspect and build remote playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to show",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "export",
				Usage: "Export a playlist with all tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the export to a JSON file",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.PlaylistExport,
			},
			{
				Name:  "push",
				Usage: "Match a library file and add matched tracks to a new playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to library JSON file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Name of the playlist to create",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Create a public playlist",
					},
				},
				Action: r.PlaylistPush,
			},
		},
	}
}
