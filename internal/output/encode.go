package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/model"
)

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// JSONFormatter writes history as a JSON array.
type JSONFormatter struct{}

// Format implements HistoryFormatter.
func (JSONFormatter) Format(w io.Writer, notifications []*model.Notification) error {
	return encodeJSON(w, nonNil(notifications))
}

// YAMLFormatter writes history as a YAML sequence.
type YAMLFormatter struct{}

// Format implements HistoryFormatter.
func (YAMLFormatter) Format(w io.Writer, notifications []*model.Notification) error {
	return encodeYAML(w, nonNil(notifications))
}

// MenuJSONFormatter writes a menu as nested JSON entries.
type MenuJSONFormatter struct{}

// Format implements MenuFormatter.
func (MenuJSONFormatter) Format(w io.Writer, nodes []dbusmenu.Node) error {
	return encodeJSON(w, nonNil(menuEntries(nodes)))
}

// MenuYAMLFormatter writes a menu as nested YAML entries.
type MenuYAMLFormatter struct{}

// Format implements MenuFormatter.
func (MenuYAMLFormatter) Format(w io.Writer, nodes []dbusmenu.Node) error {
	return encodeYAML(w, nonNil(menuEntries(nodes)))
}
