// Package loopback receives the authorization redirect on a local HTTP listener so a terminal
// client can complete the browser-based authorization flow.
package loopback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultAddr is tried first so the redirect URI can be registered with the provider.
	DefaultAddr  = "127.0.0.1:3000"
	CallbackPath = "/callback"
)

// Receiver serves CallbackPath until the first redirect arrives.
type Receiver struct {
	ln        net.Listener
	srv       *http.Server
	redirects chan string
}

// Listen opens addr, falling back to a random loopback port when it is busy.
func Listen(addr string) (*Receiver, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		ln, err = net.Listen("tcp", "127.0.0.1:0")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open callback listener: %w", err)
	}

	r := &Receiver{ln: ln, redirects: make(chan string, 1)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+CallbackPath, r.handleCallback)
	r.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		_ = r.srv.Serve(ln)
	}()
	return r, nil
}

// RedirectURI is the URI the provider must send the browser back to.
func (r *Receiver) RedirectURI() string {
	return "http://" + r.ln.Addr().String() + CallbackPath
}

// Wait blocks until a redirect arrives or ctx ends and returns the full redirect URL.
func (r *Receiver) Wait(ctx context.Context) (string, error) {
	select {
	case u := <-r.redirects:
		return u, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Receiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := r.srv.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (r *Receiver) handleCallback(w http.ResponseWriter, req *http.Request) {
	redirect := "http://" + req.Host + req.URL.RequestURI()
	select {
	case r.redirects <- redirect:
	default:
		http.Error(w, "login already completed", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, `<html><body><p>Spotify login received. You can close this window.</p></body></html>`)
}
