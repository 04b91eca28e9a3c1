package router

import (
	"bytes"
	"net/http"
	"time"
)

// Handler serves the table: view routes answer with index, static routes
// with their fixed content, and redirects with 302 Found.
func (t *Table) Handler(index []byte) http.Handler {
	modTime := time.Now()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		nav, ok := t.Resolve(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if nav.Redirected() {
			target := nav.Route.Path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		switch nav.Route.Kind {
		case KindStatic:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			_, _ = w.Write([]byte(nav.Route.Content))
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeContent(w, r, "index.html", modTime, bytes.NewReader(index))
		}
	})
}
