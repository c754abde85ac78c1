package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

// importRegex matches @import "file.css"; @import 'file.css'; and @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Source says where a theme was loaded from.
type Source string

const (
	SourceFile     Source = "file"
	SourceEmbedded Source = "embedded"
)

// Theme is a resolved stylesheet with its imports inlined.
type Theme struct {
	Name    string
	Path    string // empty for embedded themes
	Source  Source
	CSS     string
	ModTime time.Time
}

// Watchable reports whether the theme lives on disk.
func (t *Theme) Watchable() bool {
	return t != nil && t.Path != ""
}

// Dir returns the user themes directory, $XDG_CONFIG_HOME/histshell/themes.
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "histshell", "themes")
}

// isPath reports whether name refers to a file rather than a theme name.
func isPath(name string) bool {
	return strings.HasSuffix(name, ".css") || strings.ContainsRune(name, filepath.Separator)
}

// Resolve finds the theme called name. An explicit path is read as is;
// a bare name is looked up in dir first, then among the bundled themes.
// An unknown name falls back to the default theme together with an error
// describing the miss, so callers can log it and carry on.
func Resolve(name, dir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if isPath(name) {
		t, err := fromFile(strings.TrimSuffix(filepath.Base(name), ".css"), expandHome(name))
		if err == nil {
			return t, nil
		}
		return embeddedTheme(DefaultThemeName), err
	}

	if dir != "" {
		p := filepath.Join(dir, name+".css")
		t, err := fromFile(name, p)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return embeddedTheme(DefaultThemeName), err
		}
	}

	if _, ok := EmbeddedCSS(name); ok && !strings.HasPrefix(name, "_") {
		return embeddedTheme(name), nil
	}
	return embeddedTheme(DefaultThemeName), fmt.Errorf("theme %q not found", name)
}

func fromFile(name, path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Theme{
		Name:    name,
		Path:    path,
		Source:  SourceFile,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

func embeddedTheme(name string) *Theme {
	css, _ := EmbeddedCSS(name)
	return &Theme{
		Name:   name,
		Source: SourceEmbedded,
		CSS:    ProcessImports(css, "", nil),
	}
}

// Reload rereads a file theme. It reports whether the CSS changed.
func (t *Theme) Reload() (bool, error) {
	if !t.Watchable() {
		return false, nil
	}
	fresh, err := fromFile(t.Name, t.Path)
	if err != nil {
		return false, err
	}
	changed := fresh.CSS != t.CSS
	*t = *fresh
	return changed, nil
}

// ProcessImports inlines @import statements. Relative imports resolve
// against baseDir; partials missing on disk fall back to the bundled ones.
// seen guards against import cycles.
func ProcessImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		sub := importRegex.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		importPath := sub[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		data, err := os.ReadFile(fullPath)
		if err != nil {
			if css, ok := EmbeddedCSS(filepath.Base(importPath)); ok {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(css, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}
		return "/* imported: " + importPath + " */\n" + ProcessImports(string(data), filepath.Dir(fullPath), seen)
	})
}

// Available lists bundled theme names followed by any extra themes in dir.
func Available(dir string) []string {
	names := EmbeddedThemes()
	if dir == "" {
		return names
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return names
	}
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, "_") || filepath.Ext(n) != ".css" {
			continue
		}
		if n = strings.TrimSuffix(n, ".css"); !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}
