// Package match implements the catalog matcher: staged search queries,
// candidate scoring across configurable strictness tiers, and
// deterministic selection of a single remote identifier per local track.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	parenthetical = regexp.MustCompile(`[(\[].*?[)\]]`)
	nonWord       = regexp.MustCompile(`[^\w']+`)

	// Words carrying no matching signal, removed from every field.
	noiseWords = map[string]bool{"the": true, "a": true, "&": true, "and": true}

	// Anything after these markers is a guest credit or mix note. Each is
	// anchored on a leading space so words merely containing them, and
	// unspaced slashes as in "24/7", survive.
	titleSplits  = []string{" featuring", " feat.", " ft.", " / "}
	artistSplits = []string{" featuring", " feat.", " ft.", " vs"}

	karaokeWords = []string{"karaoke", "backing", "instrumental"}

	// Present in a candidate but not the source, these suggest an
	// alternate recording and reduce the name score.
	reduceWords = []string{"live", "demo", "acoustic", "karaoke", "backing", "instrumental"}
)

// CleanTitle normalizes a track title for matching.
func CleanTitle(s string) string {
	return clean(s, []string{"part"}, titleSplits)
}

// CleanArtist normalizes an artist name for matching.
func CleanArtist(s string) string {
	return clean(s, nil, artistSplits)
}

// CleanAlbum normalizes an album title for matching. Only the part before
// a dash is kept, dropping edition suffixes.
func CleanAlbum(s string) string {
	s, _, _ = strings.Cut(s, "-")
	return clean(s, []string{"ep"}, nil)
}

// clean lowercases, strips diacritics, parentheticals, punctuation, and
// noise words, and cuts everything after the first split word.
func clean(s string, remove []string, splits []string) string {
	s = stripDiacritics(strings.ToLower(s))
	s = parenthetical.ReplaceAllString(s, "")

	for _, word := range splits {
		s, _, _ = strings.Cut(s, word)
	}

	s = nonWord.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, field := range fields {
		if noiseWords[field] {
			continue
		}
		redundant := false
		for _, word := range remove {
			if field == word {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, field)
		}
	}

	return strings.Join(kept, " ")
}

// stripDiacritics decomposes to NFD and drops combining marks, so
// "Beyoncé" and "Beyonce" compare equal.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// tokens splits a cleaned string into its word set.
func tokens(s string) []string {
	return strings.Fields(s)
}

// containsKaraoke reports whether any karaoke marker word appears in the
// given values.
func containsKaraoke(values ...string) bool {
	for _, value := range values {
		value = strings.ToLower(value)
		for _, word := range karaokeWords {
			if strings.Contains(value, word) {
				return true
			}
		}
	}
	return false
}
