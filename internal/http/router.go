package http

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sopatech/hiddengems/internal/auth"
	"github.com/sopatech/hiddengems/internal/music"
)

// RouterConfig carries the non-handler router settings.
type RouterConfig struct {
	Cookie         auth.CookieConfig
	AllowedOrigins []string // empty disables CORS
	StaticDir      string // optional; served with index.html fallback
}

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func NewRouter(logger *slog.Logger, authH *auth.Handler, musicH *music.Handler, metricsHandler http.Handler, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	wrap := func(h http.Handler) http.Handler {
		return chain(h,
			Recoverer(logger),
			RealIP,
			RequestLogger(logger),
		)
	}
	withSession := auth.Session(cfg.Cookie)
	withToken := auth.AccessToken

	// Authorization flow (browser session scoped)
	mux.Handle("GET /api/auth/url", wrap(withSession(http.HandlerFunc(authH.URL))))
	mux.Handle("POST /api/auth/token", wrap(withSession(http.HandlerFunc(authH.Token))))
	mux.Handle("GET /api/auth/callback", wrap(withSession(http.HandlerFunc(authH.Callback))))

	// Spotify-backed (caller's access token)
	mux.Handle("GET /api/songs", wrap(withToken(http.HandlerFunc(musicH.Songs))))
	mux.Handle("GET /api/artists/top", wrap(withToken(http.HandlerFunc(musicH.TopArtists))))
	mux.Handle("GET /api/artists/current", wrap(withToken(http.HandlerFunc(musicH.CurrentArtist))))
	mux.Handle("GET /api/artists", wrap(withToken(http.HandlerFunc(musicH.Artist))))
	mux.Handle("GET /api/user", wrap(withToken(http.HandlerFunc(musicH.User))))
	mux.Handle("GET /api/playlist", wrap(withToken(http.HandlerFunc(musicH.PlaylistImage))))
	mux.Handle("POST /api/playlist", wrap(withToken(http.HandlerFunc(musicH.CreatePlaylist))))
	mux.Handle("PUT /api/playlist", wrap(withToken(http.HandlerFunc(musicH.AddSongs))))

	// Ops
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.StaticDir != "" {
		mux.Handle("GET /", wrap(spaHandler(cfg.StaticDir)))
	}

	return otelhttp.NewHandler(corsHandler(cfg.AllowedOrigins)(mux), "http.server")
}

// corsHandler allows the listed front end origins. With no origins the API stays same-origin;
// a "*" entry allows any origin but never with credentials.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(h http.Handler) http.Handler { return h }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	})
}

// spaHandler serves files from dir and falls back to index.html for unknown paths so
// client-side routes (e.g. the Spotify redirect back to "/?code=...") load the app.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
