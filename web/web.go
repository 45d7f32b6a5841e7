// Package web embeds the page templates and browser assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var content embed.FS

// GetTemplatesFS returns the page templates, rooted at templates/
func GetTemplatesFS() fs.FS {
	return sub("templates")
}

// GetStaticFS returns the css and js assets, rooted at static/
func GetStaticFS() fs.FS {
	return sub("static")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		// dir is a compile-time constant embedded above
		panic(err)
	}
	return f
}
