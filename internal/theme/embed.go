package theme

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed themes/*.css
var embedded embed.FS

// DefaultThemeName is the bundled theme used when nothing else resolves.
const DefaultThemeName = "default"

// EmbeddedCSS returns a bundled stylesheet. Partials (leading "_") are
// addressed by their file name, themes by their bare name.
func EmbeddedCSS(name string) (string, bool) {
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}
	data, err := embedded.ReadFile(path.Join("themes", name))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// EmbeddedThemes lists the bundled theme names, excluding partials.
func EmbeddedThemes() []string {
	entries, err := fs.ReadDir(embedded, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || path.Ext(name) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".css"))
	}
	return names
}
