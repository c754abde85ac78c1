// Package output renders notification history and tray menus for the CLI.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/model"
)

// Format names an output format.
type Format string

const (
	FormatPlain Format = "plain"
	FormatDmenu Format = "dmenu"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTree  Format = "tree"
)

// HistoryFormats lists the formats accepted by NewHistoryFormatter.
var HistoryFormats = []Format{FormatPlain, FormatDmenu, FormatJSON, FormatYAML}

// MenuFormats lists the formats accepted by NewMenuFormatter.
var MenuFormats = []Format{FormatTree, FormatJSON, FormatYAML}

// HistoryFormatter writes notification history, newest first.
type HistoryFormatter interface {
	Format(w io.Writer, notifications []*model.Notification) error
}

// MenuFormatter writes a decoded menu.
type MenuFormatter interface {
	Format(w io.Writer, nodes []dbusmenu.Node) error
}

// Options configures the text formatters.
type Options struct {
	Template       string // text/template for plain and dmenu lines
	ShowIndex      bool
	ShowTime       bool
	ShowApp        bool
	BodyMaxLen     int    // 0 = unlimited
	Separator      string // dmenu field separator
	IncludeNewline bool   // keep newlines in bodies
}

// DefaultOptions returns the options used by histshellctl.
func DefaultOptions() Options {
	return Options{
		ShowIndex:  true,
		ShowTime:   true,
		ShowApp:    true,
		BodyMaxLen: 80,
		Separator:  " | ",
	}
}

// NewHistoryFormatter returns the history formatter for format.
func NewHistoryFormatter(format Format, opts Options) (HistoryFormatter, error) {
	switch format {
	case FormatPlain, "":
		f, err := NewPlainFormatter(opts)
		if err != nil {
			return nil, err
		}
		return f, nil
	case FormatDmenu:
		f, err := NewDmenuFormatter(opts)
		if err != nil {
			return nil, err
		}
		return f, nil
	case FormatJSON:
		return JSONFormatter{}, nil
	case FormatYAML:
		return YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown history format %q (want one of %v)", format, HistoryFormats)
	}
}

// NewMenuFormatter returns the menu formatter for format.
func NewMenuFormatter(format Format) (MenuFormatter, error) {
	switch format {
	case FormatTree, "":
		return TreeFormatter{}, nil
	case FormatJSON:
		return MenuJSONFormatter{}, nil
	case FormatYAML:
		return MenuYAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown menu format %q (want one of %v)", format, MenuFormats)
	}
}
