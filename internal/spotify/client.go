// Spotify catalog client built on the remote gateway.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/geo-martino/musify/internal/api"
	"github.com/geo-martino/musify/internal/models"
	"github.com/geo-martino/musify/internal/shared"
)

// BaseURL is the Spotify Web API root.
const BaseURL = "https://api.spotify.com/v1"

// Client provides typed catalog operations over the shared gateway.
// It implements the matcher's Searcher interface.
type Client struct {
	handler *api.Handler
	logger  *log.Logger
}

// NewClient creates a Client using the given gateway handler.
func NewClient(handler *api.Handler, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{handler: handler, logger: logger}
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type spotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []spotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	URI         string          `json:"uri"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
	Items []struct {
		Track spotifyTrack `json:"track"`
	} `json:"items"`
}

type spotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       owner          `json:"owner"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	URI         string         `json:"uri"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

func (t spotifyTrack) candidate() models.Candidate {
	artists := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		artists = append(artists, artist.Name)
	}
	return models.Candidate{
		RemoteID:     t.ID,
		Title:        t.Name,
		Artists:      artists,
		Album:        t.Album.Name,
		DurationSecs: t.DurationMS / 1000,
	}
}

// SearchTracks queries the catalog for tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	resp, err := c.search(ctx, query, "track", limit)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(payload.Tracks.Items))
	for _, track := range payload.Tracks.Items {
		candidates = append(candidates, track.candidate())
	}
	return candidates, nil
}

// SearchAlbums queries the catalog for albums matching query.
func (c *Client) SearchAlbums(ctx context.Context, query string, limit int) ([]models.AlbumCandidate, error) {
	resp, err := c.search(ctx, query, "album", limit)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Albums struct {
			Items []spotifyAlbum `json:"items"`
		} `json:"albums"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	albums := make([]models.AlbumCandidate, 0, len(payload.Albums.Items))
	for _, album := range payload.Albums.Items {
		artists := make([]string, 0, len(album.Artists))
		for _, artist := range album.Artists {
			artists = append(artists, artist.Name)
		}
		albums = append(albums, models.AlbumCandidate{
			RemoteID:    album.ID,
			Name:        album.Name,
			Artists:     artists,
			TotalTracks: album.TotalTracks,
		})
	}
	return albums, nil
}

func (c *Client) search(ctx context.Context, query, kind string, limit int) (*api.Response, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	return c.handler.Do(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/search",
		Query: url.Values{
			"q":     {query},
			"type":  {kind},
			"limit": {strconv.Itoa(limit)},
		},
	})
}

// AlbumTracks retrieves the tracks of an album. The album name is filled
// into every returned candidate since the tracks endpoint omits it.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]models.Candidate, error) {
	resp, err := c.handler.Do(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/albums/" + albumID,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Name    string          `json:"name"`
		Artists []spotifyArtist `json:"artists"`
		Tracks  struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(payload.Tracks.Items))
	for _, track := range payload.Tracks.Items {
		candidate := track.candidate()
		candidate.Album = payload.Name
		if len(candidate.Artists) == 0 {
			for _, artist := range payload.Artists {
				candidate.Artists = append(candidate.Artists, artist.Name)
			}
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// UserProfile retrieves the current authenticated user's profile.
func (c *Client) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	resp, err := c.handler.Do(ctx, api.Request{Method: http.MethodGet, Path: "/me"})
	if err != nil {
		return nil, err
	}

	var user SpotifyUser
	if err := resp.JSON(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlist retrieves a playlist's metadata and tracks by ID.
func (c *Client) Playlist(ctx context.Context, playlistID string) (*models.Playlist, []models.Candidate, error) {
	resp, err := c.handler.Do(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/playlists/" + playlistID,
	})
	if err != nil {
		return nil, nil, err
	}

	var payload spotifyPlaylist
	if err := resp.JSON(&payload); err != nil {
		return nil, nil, err
	}

	playlist := &models.Playlist{
		ID:          payload.ID,
		Name:        payload.Name,
		Description: payload.Description,
		TrackCount:  payload.Tracks.Total,
		Public:      payload.Public,
	}

	tracks := make([]models.Candidate, 0, len(payload.Tracks.Items))
	for _, item := range payload.Tracks.Items {
		tracks = append(tracks, item.Track.candidate())
	}
	return playlist, tracks, nil
}

// Playlists retrieves all playlists for the authenticated user.
func (c *Client) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	limit := 50
	offset := 0

	for {
		resp, err := c.handler.Do(ctx, api.Request{
			Method: http.MethodGet,
			Path:   "/me/playlists",
			Query: url.Values{
				"limit":  {strconv.Itoa(limit)},
				"offset": {strconv.Itoa(offset)},
			},
		})
		if err != nil {
			return nil, err
		}

		var payload struct {
			Items []spotifyPlaylist `json:"items"`
			Next  *string           `json:"next"`
		}
		if err := resp.JSON(&payload); err != nil {
			return nil, err
		}

		for _, item := range payload.Items {
			all = append(all, models.Playlist{
				ID:          item.ID,
				Name:        item.Name,
				Description: item.Description,
				TrackCount:  item.Tracks.Total,
				Public:      item.Public,
			})
		}

		if payload.Next == nil {
			break
		}
		offset += limit
	}
	return all, nil
}

// CreatePlaylist creates a playlist for the given user.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	body, err := json.Marshal(map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist body: %w", err)
	}

	resp, err := c.handler.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/users/" + userID + "/playlists",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var payload spotifyPlaylist
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}
	return &models.Playlist{
		ID:          payload.ID,
		Name:        payload.Name,
		Description: payload.Description,
		Public:      payload.Public,
	}, nil
}

// AddTracks appends tracks to a playlist by remote ID. The mutation
// invalidates any cached reads of the playlist through the gateway.
func (c *Client) AddTracks(ctx context.Context, playlistID string, remoteIDs []string) error {
	if len(remoteIDs) == 0 {
		return fmt.Errorf("%w: no tracks to add", shared.ErrInvalidArgument)
	}

	uris := make([]string, 0, len(remoteIDs))
	for _, id := range remoteIDs {
		uris = append(uris, "spotify:track:"+id)
	}

	// The API caps a single add at 100 URIs.
	for len(uris) > 0 {
		batch := uris
		if len(batch) > 100 {
			batch = uris[:100]
		}
		uris = uris[len(batch):]

		body, err := json.Marshal(map[string]any{"uris": batch})
		if err != nil {
			return fmt.Errorf("failed to encode track URIs: %w", err)
		}

		if _, err := c.handler.Do(ctx, api.Request{
			Method: http.MethodPost,
			Path:   "/playlists/" + playlistID + "/tracks",
			Body:   body,
		}); err != nil {
			return err
		}
	}

	c.logger.Debugf("added %d tracks to playlist %s", len(remoteIDs), playlistID)
	return nil
}
