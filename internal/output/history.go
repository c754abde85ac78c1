package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/histshell/internal/model"
)

// templateData is the value handed to custom line templates.
type templateData struct {
	Index        int
	Notification *model.Notification
	RelativeTime string
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"reltime": func(ts int64) string {
			return relativeTime(ts)
		},
		"urgencyIcon": func(urgency int) string {
			switch urgency {
			case model.UrgencyLow:
				return "L"
			case model.UrgencyCritical:
				return "!"
			default:
				return "-"
			}
		},
	}
}

func parseTemplate(name, text string) (*template.Template, error) {
	if text == "" {
		return nil, nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s template: %w", name, err)
	}
	return tmpl, nil
}

func relativeTime(ts int64) string {
	if ts == 0 {
		return "unknown"
	}
	return humanize.Time(time.Unix(ts, 0))
}

// PlainFormatter writes a header line and an indented body per notification.
type PlainFormatter struct {
	opts     Options
	template *template.Template
}

// NewPlainFormatter creates a plain formatter.
func NewPlainFormatter(opts Options) (*PlainFormatter, error) {
	tmpl, err := parseTemplate("plain", opts.Template)
	if err != nil {
		return nil, err
	}
	return &PlainFormatter{opts: opts, template: tmpl}, nil
}

// Format implements HistoryFormatter.
func (f *PlainFormatter) Format(w io.Writer, notifications []*model.Notification) error {
	for i, n := range notifications {
		if err := f.write(w, i+1, n); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) write(w io.Writer, index int, n *model.Notification) error {
	if f.template != nil {
		if err := f.template.Execute(w, templateData{index, n, relativeTime(n.Timestamp)}); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}
	fmt.Fprintf(&sb, "#%d ", n.ID)
	if f.opts.ShowApp && n.AppName != "" {
		fmt.Fprintf(&sb, "<%s> ", n.AppName)
	}
	sb.WriteString(n.Summary)
	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (%s)", relativeTime(n.Timestamp))
	}
	sb.WriteString("\n")

	if body := sanitizeBody(n.Body, f.opts.BodyMaxLen, f.opts.IncludeNewline); body != "" {
		sb.WriteString("    " + body + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// DmenuFormatter writes one line per notification for dmenu, rofi or fuzzel.
// Lines start with the notification id so a selection can be fed back to
// histshellctl.
type DmenuFormatter struct {
	opts     Options
	template *template.Template
}

// NewDmenuFormatter creates a dmenu formatter.
func NewDmenuFormatter(opts Options) (*DmenuFormatter, error) {
	tmpl, err := parseTemplate("dmenu", opts.Template)
	if err != nil {
		return nil, err
	}
	return &DmenuFormatter{opts: opts, template: tmpl}, nil
}

// Format implements HistoryFormatter.
func (f *DmenuFormatter) Format(w io.Writer, notifications []*model.Notification) error {
	for i, n := range notifications {
		line, err := f.line(i+1, n)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) line(index int, n *model.Notification) (string, error) {
	if f.template != nil {
		var sb strings.Builder
		err := f.template.Execute(&sb, templateData{index, n, relativeTime(n.Timestamp)})
		return sb.String(), err
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	parts := []string{fmt.Sprintf("%d", n.ID)}
	if f.opts.ShowTime {
		parts = append(parts, relativeTime(n.Timestamp))
	}
	if f.opts.ShowApp && n.AppName != "" {
		parts = append(parts, n.AppName)
	}
	content := n.Summary
	if body := sanitizeBody(n.Body, f.opts.BodyMaxLen, false); body != "" {
		content += ": " + body
	}
	parts = append(parts, content)
	return strings.Join(parts, sep), nil
}

// FormatField returns one field of n, for scripting.
func FormatField(n *model.Notification, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return fmt.Sprintf("%d", n.ID)
	case "app", "app_name", "appname":
		return n.AppName
	case "summary":
		return n.Summary
	case "body":
		return n.Body
	case "category":
		return n.Category
	case "icon", "image":
		if n.Image != "" {
			return n.Image
		}
		return n.AppIcon
	case "urgency":
		return n.UrgencyName
	case "time":
		return relativeTime(n.Timestamp)
	case "all", "full":
		return n.Summary + "\n" + n.Body
	default:
		return n.Summary
	}
}

func sanitizeBody(body string, maxLen int, includeNewline bool) string {
	if !includeNewline {
		body = strings.ReplaceAll(body, "\r", "")
		body = strings.ReplaceAll(body, "\n", " ")
	}
	for strings.Contains(body, "  ") {
		body = strings.ReplaceAll(body, "  ", " ")
	}
	return truncate(strings.TrimSpace(body), maxLen)
}

// truncate shortens s to maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
