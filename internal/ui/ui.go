// Package ui embeds and serves the single-page search frontend.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler serves the embedded frontend. index.html answers "/".
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// embed is resolved at build time, a failure here is a packaging bug
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
