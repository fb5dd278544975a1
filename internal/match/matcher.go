package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/geo-martino/musify/internal/models"
)

// Searcher is the catalog query surface the matcher needs. All calls go
// through the remote gateway; the matcher holds no mutable shared state
// of its own.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]models.AlbumCandidate, error)
	AlbumTracks(ctx context.Context, albumID string) ([]models.Candidate, error)
}

// Matcher turns local track descriptors into remote catalog identifiers.
type Matcher struct {
	search Searcher
	cfg    Config
	logger *log.Logger
}

// New creates a Matcher. The logger may be nil.
func New(search Searcher, cfg Config, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Matcher{search: search, cfg: cfg, logger: logger}
}

// Match finds the best remote identifier for one local track.
//
// Queries are staged: "title artist" first, then "title album", then
// "title" alone; the first shape returning any candidates is scored and
// shapes are never mixed. The configured tier sequence is then tried in
// order against that one candidate list.
//
// A gateway failure is returned as an error, distinct from the valid
// no-match terminal state (zero-value RemoteID in the result).
func (m *Matcher) Match(ctx context.Context, local models.LocalTrack) (models.MatchResult, error) {
	result := models.MatchResult{Track: local}

	candidates, query, err := m.stagedSearch(ctx, local)
	if err != nil {
		return result, fmt.Errorf("search for %q failed: %w", local.Title, err)
	}
	if len(candidates) == 0 {
		m.logger.Debugf("%s | query %q | no results", local.Title, query)
		return result, nil
	}
	m.logger.Debugf("%s | query %q | %d results", local.Title, query, len(candidates))

	if !m.cfg.AllowKaraoke {
		candidates = dropKaraoke(candidates)
		if len(candidates) == 0 {
			return result, nil
		}
	}

	sequence, err := m.cfg.Sequence()
	if err != nil {
		return result, err
	}

	for _, tier := range sequence {
		if candidate, ok := acceptAtTier(local, candidates, tier); ok {
			m.logger.Debugf("%s | matched %s at tier %s", local.Title, candidate.RemoteID, tier.Name)
			result.RemoteID = candidate.RemoteID
			result.TierUsed = tier.Name
			return result, nil
		}
	}

	if m.cfg.LastResort == ReturnBest {
		best := bestByDistance(local, candidates, sequence)
		m.logger.Debugf("%s | no tier accepted, returning best %s as last resort", local.Title, best.RemoteID)
		result.RemoteID = best.RemoteID
		return result, nil
	}

	m.logger.Debugf("%s | no tier accepted any of %d candidates", local.Title, len(candidates))
	return result, nil
}

// MatchAlbum matches an ordered collection of local tracks.
//
// Cohesive albums are first matched album-as-unit: album search results
// are tried closest-in-track-count first, and tracks are claimed inside
// the first album whose title passes the album threshold. Compilations
// and leftover tracks fall back to per-track matching. Results are
// returned in input order.
func (m *Matcher) MatchAlbum(ctx context.Context, collection models.Collection) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, len(collection.Tracks))
	for i, track := range collection.Tracks {
		results[i] = models.MatchResult{Track: track}
	}
	if len(collection.Tracks) == 0 {
		return results, nil
	}

	if !collection.IsCompilation() {
		if err := m.matchAsUnit(ctx, collection, results); err != nil {
			return nil, err
		}
	}

	for i := range results {
		if results[i].Matched() {
			continue
		}
		result, err := m.Match(ctx, results[i].Track)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

// matchAsUnit fills results for tracks claimed inside a matched remote album.
func (m *Matcher) matchAsUnit(ctx context.Context, collection models.Collection, results []models.MatchResult) error {
	local := collection.Tracks[0]
	query := strings.TrimSpace(CleanAlbum(local.Album) + " " + CleanArtist(shortestArtist(collection.Tracks)))
	if query == "" {
		return nil
	}

	albums, err := m.search.SearchAlbums(ctx, query, m.cfg.ResultLimit)
	if err != nil {
		return fmt.Errorf("album search for %q failed: %w", local.Album, err)
	}

	// Closest track count first makes the right edition win.
	sort.SliceStable(albums, func(i, j int) bool {
		return intDelta(albums[i].TotalTracks, len(collection.Tracks)) < intDelta(albums[j].TotalTracks, len(collection.Tracks))
	})

	for _, album := range albums {
		if !m.cfg.AllowKaraoke && containsKaraoke(album.Name, strings.Join(album.Artists, " ")) {
			continue
		}
		if verdict := AlbumScore(local.Album, album, m.cfg.AlbumTitleThreshold); !verdict.Accept {
			continue
		}

		tracks, err := m.search.AlbumTracks(ctx, album.RemoteID)
		if err != nil {
			return fmt.Errorf("fetching album %s failed: %w", album.RemoteID, err)
		}

		claimed := m.claimTracks(results, tracks, album.Name)
		m.logger.Debugf("%s | album %s claimed %d/%d tracks", collection.Name, album.RemoteID, claimed, len(results))

		if allMatched(results) {
			break
		}
	}
	return nil
}

// claimTracks assigns remote tracks to unmatched locals by title overlap,
// removing each claimed candidate from the pool.
func (m *Matcher) claimTracks(results []models.MatchResult, pool []models.Candidate, albumName string) int {
	claimed := 0
	for i := range results {
		if results[i].Matched() {
			continue
		}

		title := CleanTitle(results[i].Track.Title)
		for j, candidate := range pool {
			if tokenOverlap(title, CleanTitle(candidate.Title)) < m.cfg.AlbumTitleThreshold {
				continue
			}
			results[i].RemoteID = candidate.RemoteID
			results[i].TierUsed = "album"
			pool = append(pool[:j], pool[j+1:]...)
			claimed++
			break
		}
	}
	return claimed
}

// stagedSearch tries each configured query shape in order and returns the
// candidates of the first shape with any results, along with the query used.
func (m *Matcher) stagedSearch(ctx context.Context, local models.LocalTrack) ([]models.Candidate, string, error) {
	cleaned := map[string]string{
		"title":  CleanTitle(local.Title),
		"artist": CleanArtist(local.Artist),
		"album":  CleanAlbum(local.Album),
	}

	var lastQuery string
	for _, shape := range m.cfg.QueryShapes {
		parts := make([]string, 0, len(shape))
		for _, field := range shape {
			if value := cleaned[field]; value != "" {
				parts = append(parts, value)
			}
		}
		query := strings.Join(parts, " ")
		if query == "" || query == lastQuery {
			continue
		}
		lastQuery = query

		candidates, err := m.search.SearchTracks(ctx, query, m.cfg.ResultLimit)
		if err != nil {
			return nil, query, err
		}
		if len(candidates) > 0 {
			return candidates, query, nil
		}
	}
	return nil, lastQuery, nil
}

// acceptAtTier returns the accepted candidate under tier, ties broken by
// closest duration then lexicographic remote ID.
func acceptAtTier(local models.LocalTrack, candidates []models.Candidate, tier Tier) (models.Candidate, bool) {
	var best models.Candidate
	bestDelta := -1

	for _, candidate := range candidates {
		if !Score(local, candidate, tier).Accept {
			continue
		}
		delta := durationDelta(local, candidate)
		switch {
		case bestDelta < 0,
			delta < bestDelta,
			delta == bestDelta && candidate.RemoteID < best.RemoteID:
			best = candidate
			bestDelta = delta
		}
	}
	return best, bestDelta >= 0
}

// bestByDistance returns the candidate with the smallest distance under
// the loosest-scoring tier of the sequence, ties broken like acceptAtTier.
func bestByDistance(local models.LocalTrack, candidates []models.Candidate, sequence []Tier) models.Candidate {
	tier := Tier{}
	if len(sequence) > 0 {
		tier = sequence[len(sequence)-1]
	}

	best := candidates[0]
	bestVerdict := Score(local, best, tier)
	for _, candidate := range candidates[1:] {
		verdict := Score(local, candidate, tier)
		if verdict.Distance < bestVerdict.Distance ||
			(verdict.Distance == bestVerdict.Distance && candidate.RemoteID < best.RemoteID) {
			best = candidate
			bestVerdict = verdict
		}
	}
	return best
}

func dropKaraoke(candidates []models.Candidate) []models.Candidate {
	kept := candidates[:0]
	for _, candidate := range candidates {
		if !Karaoke(candidate) {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func shortestArtist(tracks []models.LocalTrack) string {
	shortest := ""
	for _, track := range tracks {
		if track.Artist == "" {
			continue
		}
		if shortest == "" || len(track.Artist) < len(shortest) {
			shortest = track.Artist
		}
	}
	return shortest
}

func allMatched(results []models.MatchResult) bool {
	for _, result := range results {
		if !result.Matched() {
			return false
		}
	}
	return true
}

func intDelta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
