package match

import (
	"fmt"

	"github.com/geo-martino/musify/internal/shared"
)

// Tier is one strictness level of the matching algorithm: a duration
// tolerance and a name-overlap threshold. Both boundaries are inclusive.
type Tier struct {
	Name                 string
	LengthToleranceSecs  int
	NameOverlapThreshold float64
}

// LastResort selects what the matcher returns when no tier accepts any
// candidate.
type LastResort int

const (
	// ReturnNone reports no match.
	ReturnNone LastResort = iota
	// ReturnBest returns the single best-by-distance candidate
	// unconditionally; such results carry no tier and are low-confidence.
	ReturnBest
)

// Config holds the tier ladder and fallback behaviour for a Matcher.
type Config struct {
	// Ladder is the ordered set of tiers, as configured.
	Ladder []Tier
	// Fallback names the ladder positions tried in order against the same
	// candidate list. Empty means the full ladder in its own order.
	Fallback []string
	// QueryShapes is the ordered list of field combinations used to stage
	// search queries. Recognized fields: title, artist, album.
	QueryShapes [][]string

	LastResort          LastResort
	AllowKaraoke        bool
	AlbumTitleThreshold float64
	ResultLimit         int
}

// ConfigFrom converts the application matcher configuration, validating
// tier and fallback references.
func ConfigFrom(mc shared.MatcherConfig) (Config, error) {
	if len(mc.Tiers) == 0 {
		return Config{}, fmt.Errorf("%w: matcher requires at least one tier", shared.ErrInvalidConfig)
	}

	cfg := Config{
		Fallback:            mc.Fallback,
		QueryShapes:         mc.QueryShapes,
		AllowKaraoke:        mc.AllowKaraoke,
		AlbumTitleThreshold: mc.AlbumTitleThreshold,
		ResultLimit:         mc.ResultLimit,
	}
	for _, tier := range mc.Tiers {
		cfg.Ladder = append(cfg.Ladder, Tier{
			Name:                 tier.Name,
			LengthToleranceSecs:  tier.LengthToleranceSeconds,
			NameOverlapThreshold: tier.NameOverlapThreshold,
		})
	}

	switch mc.LastResort {
	case "", "return-none":
		cfg.LastResort = ReturnNone
	case "return-best":
		cfg.LastResort = ReturnBest
	default:
		return Config{}, fmt.Errorf("%w: unknown last_resort %q", shared.ErrInvalidConfig, mc.LastResort)
	}

	if cfg.AlbumTitleThreshold <= 0 {
		cfg.AlbumTitleThreshold = 0.8
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 10
	}
	if len(cfg.QueryShapes) == 0 {
		cfg.QueryShapes = [][]string{{"title", "artist"}, {"title", "album"}, {"title"}}
	}
	for _, shape := range cfg.QueryShapes {
		for _, field := range shape {
			switch field {
			case "title", "artist", "album":
			default:
				return Config{}, fmt.Errorf("%w: unknown query shape field %q", shared.ErrInvalidConfig, field)
			}
		}
	}

	if _, err := cfg.Sequence(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Sequence resolves the fallback tier names against the ladder, returning
// the tiers to try in order.
func (c Config) Sequence() ([]Tier, error) {
	if len(c.Fallback) == 0 {
		return c.Ladder, nil
	}

	byName := make(map[string]Tier, len(c.Ladder))
	for _, tier := range c.Ladder {
		byName[tier.Name] = tier
	}

	sequence := make([]Tier, 0, len(c.Fallback))
	for _, name := range c.Fallback {
		tier, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: fallback references unknown tier %q", shared.ErrInvalidConfig, name)
		}
		sequence = append(sequence, tier)
	}
	return sequence, nil
}
