package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/geo-martino/musify/internal/match"
	"github.com/geo-martino/musify/internal/models"
	tu "github.com/geo-martino/musify/internal/testing"
)

// catalogStub answers searches from a fixed candidate table keyed on
// query substring.
type catalogStub struct {
	tracks map[string][]models.Candidate
}

func (c *catalogStub) SearchTracks(_ context.Context, query string, _ int) ([]models.Candidate, error) {
	for key, candidates := range c.tracks {
		if strings.Contains(query, key) {
			return candidates, nil
		}
	}
	return nil, nil
}

func (c *catalogStub) SearchAlbums(context.Context, string, int) ([]models.AlbumCandidate, error) {
	return nil, nil
}

func (c *catalogStub) AlbumTracks(context.Context, string) ([]models.Candidate, error) {
	return nil, nil
}

func testConfig() match.Config {
	return match.Config{
		Ladder: []match.Tier{
			{Name: "strict", LengthToleranceSecs: 15, NameOverlapThreshold: 0.8},
			{Name: "normal", LengthToleranceSecs: 30, NameOverlapThreshold: 0.66},
		},
		AlbumTitleThreshold: 0.8,
		ResultLimit:         10,
		QueryShapes:         [][]string{{"title", "artist"}, {"title"}},
	}
}

func TestMatchEngine(t *testing.T) {
	catalog := &catalogStub{tracks: map[string][]models.Candidate{
		"paranoid": {{
			RemoteID:     "r1",
			Title:        "Paranoid Android",
			Artists:      []string{"Radiohead"},
			Album:        "OK Computer",
			DurationSecs: 387,
		}},
	}}
	matcher := match.New(catalog, testConfig(), nil)
	engine := NewMatchEngine(matcher, nil)

	collections := []models.Collection{
		{Name: "mixtape", Tracks: []models.LocalTrack{
			{Title: "Paranoid Android", Artist: "Radiohead", Album: "OK Computer", DurationSecs: 387},
			{Title: "Nonexistent Song", Artist: "Nobody", DurationSecs: 100},
			{}, // untitled, skipped
		}},
	}

	t.Run("Run", func(t *testing.T) {
		t.Run("aggregates report counts", func(t *testing.T) {
			report, err := engine.Run(context.Background(), nil, collections, RunOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if report.Matched != 1 {
				t.Errorf("expected 1 matched, got %d", report.Matched)
			}
			if report.Unmatched != 1 {
				t.Errorf("expected 1 unmatched, got %d", report.Unmatched)
			}
			if report.Skipped != 1 {
				t.Errorf("expected 1 skipped, got %d", report.Skipped)
			}
			if report.Failed != 0 {
				t.Errorf("expected 0 failed, got %d", report.Failed)
			}
		})

		t.Run("preserves input order", func(t *testing.T) {
			report, err := engine.Run(context.Background(), nil, collections, RunOpts{NumWorkers: 2})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			results := report.Collections[0].Results
			if len(results) != 3 {
				t.Fatalf("expected 3 results, got %d", len(results))
			}
			if results[0].RemoteID != "r1" {
				t.Errorf("expected first result r1, got %q", results[0].RemoteID)
			}
			if results[2].Track.Title != "" || results[2].Matched() {
				t.Errorf("expected untitled track unmatched in place, got %+v", results[2])
			}
		})

		t.Run("emits progress and done updates", func(t *testing.T) {
			progress := make(chan ProgressUpdate, 16)
			report, err := engine.Run(context.Background(), progress, collections, RunOpts{NumWorkers: 1})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(progress)

			var sawCollection, sawDone bool
			for update := range progress {
				switch update.Phase {
				case MatchCollection:
					sawCollection = true
					if update.Total != len(collections) {
						t.Errorf("expected total %d, got %d", len(collections), update.Total)
					}
				case Done:
					sawDone = true
					if update.Data != any(report) {
						t.Error("expected done update to carry the report")
					}
				}
			}
			if !sawCollection {
				t.Error("expected a collection progress update")
			}
			if !sawDone {
				t.Error("expected a done update")
			}
		})

		t.Run("gateway failure marks collection failed", func(t *testing.T) {
			broken := &tu.MockSearcher{Err: errors.New("gateway down")}
			failing := NewMatchEngine(match.New(broken, testConfig(), nil), nil)

			report, err := failing.Run(context.Background(), nil, collections, RunOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if report.Collections[0].Err == nil {
				t.Error("expected collection error to be recorded")
			}
			if report.Failed != 3 {
				t.Errorf("expected 3 failed tracks, got %d", report.Failed)
			}
			if report.Matched != 0 {
				t.Errorf("expected 0 matched, got %d", report.Matched)
			}
		})

		t.Run("respects cancellation", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			many := make([]models.Collection, 50)
			for i := range many {
				many[i] = collections[0]
			}
			_, err := engine.Run(ctx, nil, many, RunOpts{NumWorkers: 1})
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})

	t.Run("MatchTracks", func(t *testing.T) {
		t.Run("matches flat track lists", func(t *testing.T) {
			tracks := collections[0].Tracks
			results, err := engine.MatchTracks(context.Background(), nil, tracks)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 3 {
				t.Fatalf("expected 3 results, got %d", len(results))
			}
			if results[0].RemoteID != "r1" {
				t.Errorf("expected r1, got %q", results[0].RemoteID)
			}
			if results[1].Matched() {
				t.Errorf("expected no match for unknown track, got %q", results[1].RemoteID)
			}
		})

		t.Run("propagates gateway errors", func(t *testing.T) {
			broken := &tu.MockSearcher{Err: errors.New("gateway down")}
			failing := NewMatchEngine(match.New(broken, testConfig(), nil), nil)

			_, err := failing.MatchTracks(context.Background(), nil, collections[0].Tracks[:2])
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	})
}
