// Package web embeds the static landing page served by the API at /.
//
// The page is a single HTML file with a form that requests
// /api/v1/compare/report and shows the rendered report.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// FS returns a filesystem rooted at the embedded static/ directory.
func FS() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic("web: " + err.Error())
	}
	return sub
}

// Index returns the landing page.
func Index() ([]byte, error) {
	return fs.ReadFile(FS(), "index.html")
}
