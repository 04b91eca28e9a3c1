package web

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"
)

const (
	faviconFile     = "favicon.ico"
	immutableAssets = "public, max-age=31536000, immutable"
)

// serveAsset serves a file from the bundle. The request path is taken
// relative to the bundle base.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, s.cfg.Base)
	if !fs.ValidPath(name) || name == "." {
		http.NotFound(w, r)
		return
	}
	if !s.cfg.Sourcemap && strings.HasSuffix(name, ".map") {
		http.NotFound(w, r)
		return
	}
	if s.dev {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", immutableAssets)
	}
	if !s.serveFile(w, r, name) {
		http.NotFound(w, r)
	}
}

// serveFavicon answers 204 when the bundle ships no icon, so browsers stop
// asking the route table for it.
func (s *Server) serveFavicon(w http.ResponseWriter, r *http.Request) {
	if !s.serveFile(w, r, faviconFile) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// serveFile writes name from the bundle FS. It returns false when name is
// missing or a directory, leaving w untouched.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := s.files.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(f)
		if err != nil {
			return false
		}
		content = bytes.NewReader(b)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
	return true
}

// readIndex loads index.html from the bundle.
func (s *Server) readIndex() ([]byte, error) {
	b, err := fs.ReadFile(s.files, "index.html")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoIndex
	}
	return b, err
}

// countFiles walks the bundle and counts regular files.
func countFiles(fsys fs.FS) (int, error) {
	n := 0
	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	return n, err
}
