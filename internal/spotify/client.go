// Package spotify is a small Spotify Web API client covering what the playlist front end needs.
// Every call takes the caller's access token; the client holds no credentials.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sopatech/hiddengems/internal/infra"
	"github.com/sopatech/hiddengems/internal/metrics"
)

// MaxSearchLimit is the largest page the search endpoint returns.
const MaxSearchLimit = 50

// Client is the interface used by the music service and handlers for Web API operations.
// Implementations can be the HTTP client or a test fake.
type Client interface {
	SearchTracks(ctx context.Context, token string, q SearchQuery) (TrackPage, error)
	Artist(ctx context.Context, token, id string) (Artist, error)
	TopArtists(ctx context.Context, token string) ([]string, error)
	CurrentArtist(ctx context.Context, token string) (string, error)
	CurrentUser(ctx context.Context, token string) (User, error)
	PlaylistImage(ctx context.Context, token, id string) (string, error)
	CreatePlaylist(ctx context.Context, token, userID, artist string) (Playlist, error)
	AddTracks(ctx context.Context, token, playlistID string, uris []string) (string, error)
}

// HTTPClient implements Client against the Web API base URL (https://api.spotify.com/v1).
type HTTPClient struct {
	api     *infra.APIClient
	metrics *metrics.Recorder
}

var _ Client = (*HTTPClient)(nil)

// errNoContent reports a 204; only endpoints that may legitimately return it check for it.
var errNoContent = errors.New("spotify: no content")

func NewHTTPClient(api *infra.APIClient, rec *metrics.Recorder) *HTTPClient {
	return &HTTPClient{api: api, metrics: rec}
}

func (c *HTTPClient) SearchTracks(ctx context.Context, token string, q SearchQuery) (TrackPage, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	params := url.Values{
		"q":      {q.Query()},
		"type":   {"track"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(q.Offset)},
	}
	var resp struct {
		Tracks TrackPage `json:"tracks"`
	}
	if err := c.do(ctx, "search", token, http.MethodGet, "search?"+params.Encode(), nil, &resp); err != nil {
		return TrackPage{}, err
	}
	return resp.Tracks, nil
}

func (c *HTTPClient) Artist(ctx context.Context, token, id string) (Artist, error) {
	if id == "" {
		return Artist{}, ErrNotFound
	}
	var a Artist
	err := c.do(ctx, "artist", token, http.MethodGet, "artists/"+url.PathEscape(id), nil, &a)
	return a, err
}

// TopArtists returns the names of the user's top artists.
func (c *HTTPClient) TopArtists(ctx context.Context, token string) ([]string, error) {
	var resp struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := c.do(ctx, "top_artists", token, http.MethodGet, "me/top/artists", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		names = append(names, it.Name)
	}
	return names, nil
}

// CurrentArtist returns the first artist of the currently playing item, or "" when nothing plays.
func (c *HTTPClient) CurrentArtist(ctx context.Context, token string) (string, error) {
	var resp struct {
		Item *struct {
			Artists []SimpleArtist `json:"artists"`
		} `json:"item"`
	}
	err := c.do(ctx, "currently_playing", token, http.MethodGet, "me/player/currently-playing", nil, &resp)
	if errors.Is(err, errNoContent) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if resp.Item == nil || len(resp.Item.Artists) == 0 {
		return "", nil
	}
	return resp.Item.Artists[0].Name, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context, token string) (User, error) {
	var resp struct {
		ID     string  `json:"id"`
		Images []Image `json:"images"`
	}
	if err := c.do(ctx, "me", token, http.MethodGet, "me", nil, &resp); err != nil {
		return User{}, err
	}
	return User{ID: resp.ID, ImageURL: firstImage(resp.Images)}, nil
}

// PlaylistImage returns the playlist's first cover image URL, or "".
func (c *HTTPClient) PlaylistImage(ctx context.Context, token, id string) (string, error) {
	if id == "" {
		return "", ErrNotFound
	}
	var resp struct {
		Images []Image `json:"images"`
	}
	if err := c.do(ctx, "playlist", token, http.MethodGet, "playlists/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", err
	}
	return firstImage(resp.Images), nil
}

// CreatePlaylist creates the private "<artist>'s Hidden Gems" playlist for userID.
func (c *HTTPClient) CreatePlaylist(ctx context.Context, token, userID, artist string) (Playlist, error) {
	if userID == "" {
		return Playlist{}, ErrNotFound
	}
	body := map[string]any{
		"name":        PlaylistName(artist),
		"description": PlaylistDescription(artist),
		"public":      false,
	}
	var resp struct {
		ID           string            `json:"id"`
		URI          string            `json:"uri"`
		ExternalURLs map[string]string `json:"external_urls"`
	}
	if err := c.do(ctx, "create_playlist", token, http.MethodPost, "users/"+url.PathEscape(userID)+"/playlists", body, &resp); err != nil {
		return Playlist{}, err
	}
	return Playlist{ID: resp.ID, URI: resp.URI, ExternalURL: resp.ExternalURLs["spotify"]}, nil
}

// AddTracks appends uris to the playlist and returns the new snapshot id.
func (c *HTTPClient) AddTracks(ctx context.Context, token, playlistID string, uris []string) (string, error) {
	if playlistID == "" {
		return "", ErrNotFound
	}
	if uris == nil {
		uris = []string{}
	}
	var resp struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := c.do(ctx, "add_tracks", token, http.MethodPost, "playlists/"+url.PathEscape(playlistID)+"/tracks", map[string]any{"uris": uris}, &resp); err != nil {
		return "", err
	}
	return resp.SnapshotID, nil
}

func PlaylistName(artist string) string {
	return artist + "'s Hidden Gems"
}

func PlaylistDescription(artist string) string {
	return "A playlist of " + artist + "'s hidden gems"
}

func (c *HTTPClient) do(ctx context.Context, op, token, method, path string, in, out any) error {
	if token == "" {
		return ErrUnauthorized
	}
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("spotify: encode %s request: %w", op, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.api.URL(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("spotify: create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.api.DoWithRetry(ctx, req)
	if err != nil {
		c.metrics.ObserveAPICall(op, 0)
		return fmt.Errorf("spotify: %s: %w", op, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPICall(op, resp.StatusCode)

	if resp.StatusCode == http.StatusNoContent {
		return errNoContent
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("spotify: read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error.Message}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("spotify: decode %s response: %w", op, err)
	}
	return nil
}
