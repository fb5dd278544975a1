// package tasks implements bulk matching of local collections against the
// remote catalog.
//
// The core abstraction is MatchEngine, which fans collections out to a
// worker pool and aggregates per-collection results into a report.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/geo-martino/musify/internal/match"
	"github.com/geo-martino/musify/internal/models"
	"github.com/geo-martino/musify/internal/shared"
)

// CollectionResult holds the outcome for one collection.
type CollectionResult struct {
	Collection string               `json:"collection"`
	Results    []models.MatchResult `json:"results"`
	Err        error                `json:"-"`
}

// Report aggregates the results of a bulk match run.
type Report struct {
	Collections []CollectionResult `json:"collections"`
	Matched     int                `json:"matched"`
	Unmatched   int                `json:"unmatched"`
	Skipped     int                `json:"skipped"`
	Failed      int                `json:"failed"`
}

// MatchEngine runs the catalog matcher across many collections.
type MatchEngine struct {
	matcher *match.Matcher
	logger  *log.Logger
}

// NewMatchEngine creates an engine around the given matcher. The logger
// may be nil.
func NewMatchEngine(matcher *match.Matcher, logger *log.Logger) *MatchEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &MatchEngine{matcher: matcher, logger: logger}
}

// RunOpts contains configuration for a bulk match run.
type RunOpts struct {
	NumWorkers int // Concurrent workers (default: 4)
}

type job struct {
	index      int
	collection models.Collection
}

// Run matches every collection and returns an aggregated report.
//
// Collections are processed by a worker pool; the shared gateway paces
// the actual network traffic, so workers only bound in-flight
// concurrency. One collection's failure is reported in its result and
// never silently skips the others. Report order follows input order.
func (e *MatchEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, collections []models.Collection, opts RunOpts) (*Report, error) {
	if e.matcher == nil {
		return nil, fmt.Errorf("%w: matcher not initialized", shared.ErrInvalidArgument)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	report := &Report{Collections: make([]CollectionResult, len(collections))}

	jobs := make(chan job)
	var wg sync.WaitGroup
	var completed int
	var mu sync.Mutex

	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result := e.matchCollection(ctx, j.collection)
				report.Collections[j.index] = result

				mu.Lock()
				completed++
				step := completed
				mu.Unlock()
				e.sendProgress(progress, matchCollectionUpdate(step, len(collections), j.collection.Name))
			}
		}()
	}

	for i, collection := range collections {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- job{index: i, collection: collection}:
		}
	}
	close(jobs)
	wg.Wait()

	for _, result := range report.Collections {
		if result.Err != nil {
			report.Failed += len(result.Results)
			continue
		}
		for _, res := range result.Results {
			switch {
			case res.Track.Title == "":
				report.Skipped++
			case res.Matched():
				report.Matched++
			default:
				report.Unmatched++
			}
		}
	}

	e.sendProgress(progress, doneUpdate(report))
	e.logReport(report)
	return report, nil
}

// MatchTracks matches a flat list of tracks with per-track progress,
// treating them as one compilation-style collection.
func (e *MatchEngine) MatchTracks(ctx context.Context, progress chan<- ProgressUpdate, tracks []models.LocalTrack) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, 0, len(tracks))
	for i, track := range tracks {
		e.sendProgress(progress, matchTrackUpdate(i+1, len(tracks), track.Title))

		if track.Title == "" {
			results = append(results, models.MatchResult{Track: track})
			continue
		}
		result, err := e.matcher.Match(ctx, track)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *MatchEngine) matchCollection(ctx context.Context, collection models.Collection) CollectionResult {
	result := CollectionResult{Collection: collection.Name}

	searchable := make([]models.LocalTrack, 0, len(collection.Tracks))
	for _, track := range collection.Tracks {
		if track.Title != "" {
			searchable = append(searchable, track)
		}
	}
	if len(searchable) == 0 {
		e.logger.Debugf("%s | no searchable tracks, skipping", collection.Name)
		for _, track := range collection.Tracks {
			result.Results = append(result.Results, models.MatchResult{Track: track})
		}
		return result
	}

	matches, err := e.matcher.MatchAlbum(ctx, models.Collection{Name: collection.Name, Tracks: searchable})
	if err != nil {
		result.Err = err
		for _, track := range collection.Tracks {
			result.Results = append(result.Results, models.MatchResult{Track: track})
		}
		return result
	}

	// Re-interleave skipped tracks so output order follows input order.
	byTitle := matches
	for _, track := range collection.Tracks {
		if track.Title == "" {
			result.Results = append(result.Results, models.MatchResult{Track: track})
			continue
		}
		result.Results = append(result.Results, byTitle[0])
		byTitle = byTitle[1:]
	}
	return result
}

// sendProgress sends a progress update through the channel without blocking.
func (e *MatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *MatchEngine) logReport(report *Report) {
	for _, result := range report.Collections {
		if result.Err != nil {
			e.logger.Warnf("%s | match aborted: %v", result.Collection, result.Err)
			continue
		}
		matched := 0
		for _, m := range result.Results {
			if m.Matched() {
				matched++
			}
		}
		e.logger.Infof("%s | %d/%d matched", result.Collection, matched, len(result.Results))
	}
	e.logger.Infof("totals | %d matched | %d unmatched | %d skipped | %d failed",
		report.Matched, report.Unmatched, report.Skipped, report.Failed)
}
