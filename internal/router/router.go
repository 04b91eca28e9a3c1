// Package router holds the page route table of the single-page app and
// serves it over HTTP.
package router

import (
	"errors"
	"fmt"
	"strings"
)

// CatchAll is the path of the wildcard route. It matches any path no other
// route matches.
const CatchAll = "*"

// PingText is the body of the diagnostic route.
const PingText = "Router OK"

var (
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrBadRedirect    = errors.New("redirect target does not resolve")
)

// Kind tells what a route does when it matches.
type Kind int

const (
	KindView Kind = iota
	KindStatic
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindView:
		return "view"
	case KindStatic:
		return "static"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Route maps a path to a view, a fixed placeholder, or another path.
type Route struct {
	Path string
	Name string
	Kind Kind

	// Component is the source path of the view, e.g. "@/views/Home.vue".
	Component string
	// Content is the fixed body of a static route.
	Content string
	// Redirect is the target path of a redirect route.
	Redirect string
}

// Scroll is the position the page is moved to after a navigation.
type Scroll struct {
	Top int
}

// Navigation is the outcome of resolving a path.
type Navigation struct {
	Path  string // as requested
	Route Route  // final route after redirects
	// RedirectedFrom is the path of the redirect route that was followed, if any.
	RedirectedFrom string
	Scroll         Scroll
}

// Redirected reports whether a redirect was followed.
func (n Navigation) Redirected() bool { return n.RedirectedFrom != "" }

// Table is an immutable route table.
type Table struct {
	routes   []Route
	byPath   map[string]int
	catchAll int
}

// View routes of the app.
var (
	Home   = Route{Path: "/", Name: "home", Kind: KindView, Component: "@/views/Home.vue"}
	Trend  = Route{Path: "/trend", Name: "trend", Kind: KindView, Component: "@/views/Trend.vue"}
	Report = Route{Path: "/report", Name: "report", Kind: KindView, Component: "@/views/Report.vue"}
	Ping   = Route{Path: "/_ping", Name: "ping", Kind: KindStatic, Content: PingText}
	// NotFound sends every unknown path back home.
	NotFound = Route{Path: CatchAll, Name: "not-found", Kind: KindRedirect, Redirect: "/"}
)

// New builds a table. Paths must be unique and every redirect must land on a
// route that is not itself a redirect.
func New(routes ...Route) (*Table, error) {
	t := &Table{
		routes:   make([]Route, len(routes)),
		byPath:   make(map[string]int, len(routes)),
		catchAll: -1,
	}
	copy(t.routes, routes)

	for i, r := range t.routes {
		key := normalize(r.Path)
		if _, dup := t.byPath[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, r.Path)
		}
		t.byPath[key] = i
		if r.Path == CatchAll {
			t.catchAll = i
		}
	}
	for _, r := range t.routes {
		if r.Kind != KindRedirect {
			continue
		}
		target, ok := t.match(r.Redirect)
		if !ok || target.Kind == KindRedirect {
			return nil, fmt.Errorf("%w: %s -> %s", ErrBadRedirect, r.Path, r.Redirect)
		}
	}
	return t, nil
}

// Default returns the app's route table.
func Default() *Table {
	t, err := New(Home, Trend, Report, Ping, NotFound)
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns the table in declaration order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Resolve matches path ignoring case and one trailing slash, falling back to
// the catch-all route, and follows one redirect. ok is false only when nothing matches and the table
// has no catch-all.
func (t *Table) Resolve(path string) (Navigation, bool) {
	nav := Navigation{Path: path, Scroll: Scroll{Top: 0}}
	r, ok := t.match(path)
	if !ok {
		return nav, false
	}
	if r.Kind == KindRedirect {
		nav.RedirectedFrom = r.Path
		// New guarantees the target resolves to a non-redirect route.
		r, _ = t.match(r.Redirect)
	}
	nav.Route = r
	return nav, true
}

func (t *Table) match(path string) (Route, bool) {
	if path != CatchAll {
		if i, ok := t.byPath[normalize(path)]; ok {
			return t.routes[i], true
		}
	}
	if t.catchAll >= 0 {
		return t.routes[t.catchAll], true
	}
	return Route{}, false
}

// normalize folds case and drops one trailing slash, so "/Trend/" and
// "/trend" name the same route.
func normalize(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return strings.ToLower(path)
}
