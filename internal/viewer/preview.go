package viewer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skratchdot/open-golang/open"

	"github.com/ontree-co/sitegen/internal/logging"
	"github.com/ontree-co/sitegen/internal/website"
)

const bindHost = "127.0.0.1"

// Opener shows a URL to the user.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }

// BrowserOpener opens URLs with the system browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	return open.Run(url)
}

// ListenLocal listens on the loopback interface. Port 0 picks a free port.
func ListenLocal(port int) (net.Listener, string, error) {
	if port < 0 || port > 65535 {
		return nil, "", fmt.Errorf("invalid port %d (must be 0..65535)", port)
	}

	addr := net.JoinHostPort(bindHost, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if strings.Contains(err.Error(), "address already in use") {
			return nil, "", fmt.Errorf("port %d is already in use", port)
		}
		return nil, "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port
	return listener, fmt.Sprintf("http://%s:%d", bindHost, actualPort), nil
}

// PreviewServer serves one generated site on the loopback interface.
type PreviewServer struct {
	URL  string
	srv  *http.Server
	done chan struct{}
}

// Done is closed once the server has stopped.
func (p *PreviewServer) Done() <-chan struct{} {
	return p.done
}

// Close stops the server immediately.
func (p *PreviewServer) Close() error {
	return p.srv.Close()
}

func newPreviewHandler(document string, bundle *website.Bundle) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/"+website.HTMLFileName {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(document))
	})
	if bundle != nil {
		for _, a := range bundle.Artifacts() {
			if a.Kind == website.KindHTML {
				continue
			}
			a := a
			mux.HandleFunc("/"+a.FileName, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", a.ContentType+"; charset=utf-8")
				_, _ = w.Write([]byte(a.Content))
			})
		}
	}
	return mux
}

func startPreviewServer(ctx context.Context, port int, handler http.Handler) (*PreviewServer, error) {
	listener, baseURL, err := ListenLocal(port)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ps := &PreviewServer{URL: baseURL + "/", srv: srv, done: make(chan struct{})}

	go func() {
		defer close(ps.done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf("Preview server error: %v", err)
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
		case <-ps.done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return ps, nil
}
