// Package web serves the aux-lights status page and JSON views over HTTP.
package web

import (
	"context"
	"net"
	"net/http"
	"path/filepath"

	"github.com/sweeney/aux-lights/internal/status"
)

// MQTTScript is the browser MQTT client the live page loads.
const MQTTScript = "mqtt.min.js"

// Server serves the status page, the full status and the light and input views.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	assets     string
}

// New creates a Server that reads state from tracker. When assets is set,
// MQTTScript is served from that directory for the live page.
func New(addr string, tracker *status.Tracker, assets string) *Server {
	s := &Server{tracker: tracker, assets: assets}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.Handle("/index.json", s.view(status.FormatJSON))
	mux.Handle("/lights.json", s.view(status.FormatLightsJSON))
	mux.Handle("/inputs.json", s.view(status.FormatInputsJSON))
	mux.HandleFunc("/"+MQTTScript, s.handleScript)
	return getOnly(mux)
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// getOnly rejects anything but GET and HEAD.
func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.tracker.Snapshot())
}

// view serves format's output. A nil result means the data is not there yet.
func (s *Server) view(format func(status.Snapshot) []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := format(s.tracker.Snapshot())
		w.Header().Set("Content-Type", "application/json")
		if data == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"not sampled yet"}`))
			return
		}
		w.Write(data)
	})
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	if s.assets == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	http.ServeFile(w, r, filepath.Join(s.assets, MQTTScript))
}
