package music

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	slogctx "github.com/veqryn/slog-context"

	"github.com/sopatech/hiddengems/internal/auth"
	"github.com/sopatech/hiddengems/internal/spotify"
)

// DefaultSongLimit applies when /api/songs is called without a limit.
const DefaultSongLimit = 20

// Handler serves the playlist front end's Spotify-backed endpoints. Routes must be wrapped with
// auth.AccessToken; POST/PUT bodies may carry the token instead.
type Handler struct {
	svc    Service
	client spotify.Client
}

func NewHandler(svc Service, client spotify.Client) *Handler {
	return &Handler{svc: svc, client: client}
}

// Songs returns the artist's hidden gems: GET /api/songs?artist=&limit=&hipster=.
func (h *Handler) Songs(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r, "")
	if !ok {
		return
	}
	q := r.URL.Query()
	artist := q.Get("artist")
	if artist == "" {
		http.Error(w, "artist required", http.StatusBadRequest)
		return
	}
	limit := DefaultSongLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	hipster, _ := strconv.ParseBool(q.Get("hipster"))

	tracks, err := h.svc.HiddenGems(r.Context(), token, artist, limit, hipster)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// TopArtists returns the names of the user's top artists.
func (h *Handler) TopArtists(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r, "")
	if !ok {
		return
	}
	names, err := h.client.TopArtists(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// CurrentArtist returns the currently playing artist's name, or "" when nothing is playing.
func (h *Handler) CurrentArtist(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r, "")
	if !ok {
		return
	}
	name, err := h.client.CurrentArtist(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, name)
}

// Artist returns one artist: GET /api/artists?id=.
func (h *Handler) Artist(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r, "")
	if !ok {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	artist, err := h.client.Artist(r.Context(), token, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

// User returns [id, image url]; the image is null when the profile has none.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r, "")
	if !ok {
		return
	}
	u, err := h.client.CurrentUser(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, []any{u.ID, nullable(u.ImageURL)})
}

// PlaylistImage returns {"img": url-or-null}: GET /api/playlist?id=.
func (h *Handler) PlaylistImage(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r, "")
	if !ok {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	img, err := h.client.PlaylistImage(r.Context(), token, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"img": nullable(img)})
}

// CreatePlaylist creates the artist's hidden gems playlist for the user: POST {artist, id}.
func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Artist string `json:"artist"`
		UserID string `json:"id"`
		Token  string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	token, ok := requireToken(w, r, body.Token)
	if !ok {
		return
	}
	if body.Artist == "" || body.UserID == "" {
		http.Error(w, "artist and id required", http.StatusBadRequest)
		return
	}
	p, err := h.client.CreatePlaylist(r.Context(), token, body.UserID, body.Artist)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AddSongs appends track URIs to a playlist: PUT {playlist_id, songs}.
func (h *Handler) AddSongs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlaylistID string   `json:"playlist_id"`
		Songs      []string `json:"songs"`
		Token      string   `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	token, ok := requireToken(w, r, body.Token)
	if !ok {
		return
	}
	if body.PlaylistID == "" {
		http.Error(w, "playlist_id required", http.StatusBadRequest)
		return
	}
	snapshot, err := h.client.AddTracks(r.Context(), token, body.PlaylistID, body.Songs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"snapshot_id": snapshot})
}

func requireToken(w http.ResponseWriter, r *http.Request, bodyToken string) (string, bool) {
	token := auth.AccessTokenFromContext(r.Context())
	if token == "" {
		token = bodyToken
	}
	if token == "" {
		http.Error(w, "access token required", http.StatusUnauthorized)
		return "", false
	}
	return token, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *spotify.APIError
	switch {
	case errors.Is(err, spotify.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, spotify.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests:
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	default:
		slogctx.Error(r.Context(), "spotify request failed", "err", err)
		http.Error(w, "upstream error", http.StatusBadGateway)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
