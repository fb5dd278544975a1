// Package models defines the data model shared by the gateway, matcher, and catalog client.
//
// The types here are plain value objects:
//   - [LocalTrack] : immutable snapshot of one local track's tags
//   - [Candidate] : one remote catalog item returned from a search query
//   - [MatchResult] : the matcher's terminal decision for one local track
//   - [Collection] : an ordered group of local tracks matched as a unit
//   - [Playlist] : remote playlist metadata
//
// The core never persists these; persistence of match output is the
// caller's job.
package models

import "strings"

// LocalTrack is an immutable snapshot of one local track's tags.
//
// The core never mutates it; writing tags back to the originating file is
// an external collaborator's job.
type LocalTrack struct {
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	TrackNumber  int    `json:"track_number"`
	DurationSecs int    `json:"duration_seconds"`
	Compilation  bool   `json:"compilation"`
}

// Candidate is one remote catalog item evaluated for a potential match.
type Candidate struct {
	RemoteID     string   `json:"remote_id"`
	Title        string   `json:"title"`
	Artists      []string `json:"artists"`
	Album        string   `json:"album"`
	DurationSecs int      `json:"duration_seconds"`
}

// Artist returns all candidate artists joined as a single display string.
func (c Candidate) Artist() string {
	return strings.Join(c.Artists, ", ")
}

// AlbumCandidate is one remote album returned from an album search query.
type AlbumCandidate struct {
	RemoteID    string   `json:"remote_id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	TotalTracks int      `json:"total_tracks"`
}

// MatchResult is the matcher's decision for one local track.
//
// RemoteID is empty when no acceptable candidate was found. TierUsed is
// empty both for "no match" and for a last-resort best-by-distance result,
// which callers must treat as low-confidence.
type MatchResult struct {
	Track    LocalTrack `json:"track"`
	RemoteID string     `json:"remote_id,omitempty"`
	TierUsed string     `json:"tier_used,omitempty"`
}

// Matched reports whether a remote identifier was found.
func (r MatchResult) Matched() bool {
	return r.RemoteID != ""
}

// Confident reports whether the match was accepted by a configured tier
// rather than returned as a last resort.
func (r MatchResult) Confident() bool {
	return r.RemoteID != "" && r.TierUsed != ""
}

// Collection is an ordered group of local tracks searched as one unit,
// typically an album.
type Collection struct {
	Name   string       `json:"name"`
	Tracks []LocalTrack `json:"tracks"`
}

// IsCompilation reports whether the collection should be matched per-track
// rather than album-as-unit: either any track carries the compilation flag
// or the tracks do not share a single artist.
func (c Collection) IsCompilation() bool {
	if len(c.Tracks) == 0 {
		return false
	}

	artist := c.Tracks[0].Artist
	for _, track := range c.Tracks {
		if track.Compilation {
			return true
		}
		if track.Artist != artist {
			return true
		}
	}
	return false
}

// Playlist represents remote playlist metadata.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}
