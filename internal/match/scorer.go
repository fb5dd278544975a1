package match

import (
	"strings"

	"github.com/geo-martino/musify/internal/models"
	"github.com/hbollon/go-edlib"
)

// Verdict is the scorer's output for one local/candidate pair under one
// tier: whether the candidate is acceptable, and a distance used for
// tie-breaking and last-resort selection (lower is closer).
type Verdict struct {
	Accept   bool
	Distance float64
}

// maxDurationDelta caps the duration contribution to the distance so a
// wildly wrong length cannot be offset by a perfect name.
const maxDurationDelta = 600.0

// Score compares one local descriptor against one remote candidate under
// the given tier. Acceptance requires the duration delta within the
// tier's tolerance AND the name overlap at or above its threshold; both
// boundaries are inclusive.
func Score(local models.LocalTrack, candidate models.Candidate, tier Tier) Verdict {
	overlap := NameOverlap(local, candidate)
	delta := durationDelta(local, candidate)

	accept := delta <= tier.LengthToleranceSecs && overlap >= tier.NameOverlapThreshold

	normalizedDelta := float64(delta)
	if normalizedDelta > maxDurationDelta {
		normalizedDelta = maxDurationDelta
	}
	distance := (1 - overlap) + normalizedDelta/maxDurationDelta

	return Verdict{Accept: accept, Distance: distance}
}

// NameOverlap returns a normalized 0-1 similarity over the title, artist,
// and album of the pair. Each field scores the greater of cleaned token
// overlap and Jaro-Winkler similarity; fields the local descriptor lacks
// are left out of the weighting. Alternate-recording keywords present
// only in the candidate reduce the result.
func NameOverlap(local models.LocalTrack, candidate models.Candidate) float64 {
	type field struct {
		weight float64
		score  float64
	}

	var fields []field
	if local.Title != "" {
		fields = append(fields, field{0.5, fieldSimilarity(CleanTitle(local.Title), CleanTitle(candidate.Title))})
	}
	if local.Artist != "" {
		fields = append(fields, field{0.3, fieldSimilarity(CleanArtist(local.Artist), CleanArtist(candidate.Artist()))})
	}
	if local.Album != "" {
		fields = append(fields, field{0.2, fieldSimilarity(CleanAlbum(local.Album), CleanAlbum(candidate.Album))})
	}
	if len(fields) == 0 {
		return 0
	}

	var sum, weight float64
	for _, f := range fields {
		sum += f.score * f.weight
		weight += f.weight
	}
	score := sum / weight

	if reducedRecording(local, candidate) {
		score -= 0.5
		if score < 0 {
			score = 0
		}
	}
	return score
}

// fieldSimilarity blends token overlap with edit-distance similarity: the
// token overlap catches reordered words, Jaro-Winkler catches small
// spelling deviations.
func fieldSimilarity(source, result string) float64 {
	if source == "" || result == "" {
		return 0
	}

	overlap := tokenOverlap(source, result)

	similarity, err := edlib.StringsSimilarity(source, result, edlib.JaroWinkler)
	if err != nil {
		return overlap
	}
	if s := float64(similarity); s > overlap {
		return s
	}
	return overlap
}

// tokenOverlap returns the fraction of source words present in result.
func tokenOverlap(source, result string) float64 {
	words := tokens(source)
	if len(words) == 0 {
		return 0
	}

	hits := 0
	for _, word := range words {
		if strings.Contains(result, word) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// reducedRecording reports whether the candidate looks like an alternate
// recording: a reduce keyword appears in its title but not the source's.
func reducedRecording(local models.LocalTrack, candidate models.Candidate) bool {
	source := strings.ToLower(local.Title)
	result := strings.ToLower(candidate.Title)
	for _, word := range reduceWords {
		if strings.Contains(result, word) && !strings.Contains(source, word) {
			return true
		}
	}
	return false
}

// Karaoke reports whether the candidate is identified as a karaoke item
// by its title, artists, or album.
func Karaoke(candidate models.Candidate) bool {
	return containsKaraoke(candidate.Title, candidate.Artist(), candidate.Album)
}

// AlbumScore scores an album-as-unit against one album search result
// using only title overlap against the configured threshold; duration
// plays no part at album level.
func AlbumScore(localAlbum string, result models.AlbumCandidate, threshold float64) Verdict {
	overlap := tokenOverlap(CleanAlbum(localAlbum), CleanAlbum(result.Name))
	return Verdict{Accept: overlap >= threshold, Distance: 1 - overlap}
}

func durationDelta(local models.LocalTrack, candidate models.Candidate) int {
	delta := local.DurationSecs - candidate.DurationSecs
	if delta < 0 {
		delta = -delta
	}
	return delta
}
