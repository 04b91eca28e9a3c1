package web

import (
	"embed"
	"io/fs"
)

// dist is the bundle emitted by `luckctl build` (bundle.DefaultOutDir).
//
//go:embed dist
var dist embed.FS

// EmbeddedFS returns the embedded bundle rooted at dist/.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		// Only fails for an invalid literal path.
		panic(err)
	}
	return sub
}
