package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/htmlinject/internal/livereload"
	"github.com/conneroisu/htmlinject/internal/version"
)

const indexFile = "index.html"

// handleHealth returns the server health status for health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     version.GetShortVersion(),
		"root":        s.root,
		"live_reload": s.liveReload(),
	}
	if s.liveReload() {
		health["clients"] = s.hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode health response")
	}
}

// handleStatic serves files below root. Directories resolve to their
// index.html; HTML responses carry the live reload client when enabled.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.root, filepath.FromSlash(name))

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		full = filepath.Join(full, indexFile)
		info, err = os.Stat(full)
	}
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		s.logger.Error(r.Context(), err, "Cannot open file", "path", full)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if !s.liveReload() || !isHTML(full) {
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		return
	}

	page, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error(r.Context(), err, "Cannot read file", "path", full)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(livereload.InjectScript(page)))
}

func isHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
