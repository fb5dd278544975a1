package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/geo-martino/musify/internal/models"
	"github.com/geo-martino/musify/internal/shared"
	"github.com/geo-martino/musify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MatchTrack matches a single local track described by flags.
func (r *Runner) MatchTrack(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureEngine(); err != nil {
		return err
	}

	track := models.LocalTrack{
		Title:        cmd.String("title"),
		Artist:       cmd.String("artist"),
		Album:        cmd.String("album"),
		DurationSecs: int(cmd.Int("duration")),
	}
	if track.Title == "" {
		return fmt.Errorf("%w: --title flag is required", shared.ErrMissingArgument)
	}

	r.logger.Infof("matching track %q by %q", track.Title, track.Artist)

	result, err := r.matcher.Match(ctx, track)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	if !result.Matched() {
		r.writePlain("✗ No match found for %s - %s\n", track.Artist, track.Title)
		return nil
	}

	r.writePlain("✓ Matched %s - %s\n", track.Artist, track.Title)
	r.writePlain("  Remote ID: %s\n", result.RemoteID)
	if result.Confident() {
		r.writePlain("  Tier: %s\n", result.TierUsed)
	} else {
		r.writePlain("  Tier: none (best candidate, low confidence)\n")
	}
	return nil
}

// MatchLibrary matches every collection in a library file and prints a
// summary report.
func (r *Runner) MatchLibrary(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureEngine(); err != nil {
		return err
	}

	libraryPath := cmd.String("file")
	collections, err := loadLibrary(libraryPath)
	if err != nil {
		return err
	}

	r.logger.Info("starting library match", "file", libraryPath, "collections", len(collections))
	r.writePlain("Matching %d collections from %s...\n\n", len(collections), libraryPath)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.MatchCollection:
				r.writePlain("🔍 [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.MatchTrack:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	report, err := r.engine.Run(ctx, progressCh, collections, tasks.RunOpts{
		NumWorkers: int(cmd.Int("workers")),
	})
	close(progressCh)

	if err != nil {
		return err
	}

	if outputFile := cmd.String("output"); outputFile != "" {
		data, marshalErr := marshalReport(report)
		if marshalErr != nil {
			return marshalErr
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.logger.Info("report saved", "file", outputFile)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	total := report.Matched + report.Unmatched + report.Failed
	r.writePlain("\n")
	r.writePlainHeader("Match Complete!")
	r.writePlain("Matched: %d/%d tracks\n", report.Matched, total)
	r.writePlain("Skipped: %d (missing title)\n", report.Skipped)
	if report.Failed > 0 {
		r.writePlain("Failed: %d (gateway errors)\n", report.Failed)
	}

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

func marshalReport(report *tasks.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Match local tracks against the Spotify catalog",
		Commands: []*cli.Command{
			{
				Name:  "track",
				Usage: "Match a single track",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Track title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Track artist",
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Track album",
					},
					&cli.IntFlag{
						Name:  "duration",
						Usage: "Track duration in seconds",
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
				Action: r.MatchTrack,
			},
			{
				Name:  "library",
				Usage: "Match every collection in a library file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to library JSON file",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the full report to a JSON file",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent collection workers",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output report as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.MatchLibrary,
			},
		},
	}
}
