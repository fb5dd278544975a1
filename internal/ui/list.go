package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/geo-martino/musify/internal/models"
)

var (
	_ list.Item = collectionItem{}
	_ list.Item = trackItem{}
)

// collectionItem wraps [models.Collection] to implement [list.Item].
type collectionItem struct {
	collection models.Collection
}

func (i collectionItem) FilterValue() string { return i.collection.Name }
func (i collectionItem) Title() string       { return i.collection.Name }
func (i collectionItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.collection.Tracks))
	if i.collection.IsCompilation() {
		desc = fmt.Sprintf("%s • compilation", desc)
	}
	return desc
}

// trackItem wraps [models.LocalTrack] to implement [list.Item].
type trackItem struct {
	track models.LocalTrack
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
