package display

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/model"
	"github.com/jmylchreest/histshell/internal/notify"
)

// urgencyClass converts an urgency level to its CSS class.
func urgencyClass(urgency int) string {
	switch urgency {
	case model.UrgencyLow:
		return "urgency-low"
	case model.UrgencyCritical:
		return "urgency-critical"
	default:
		return "urgency-normal"
	}
}

// sanitizeClassName lowercases name and collapses anything that is not a
// letter or digit into single hyphens.
func sanitizeClassName(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		case !hyphen && b.Len() > 0:
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// popupClasses lists the CSS classes of a popup's outer box.
func popupClasses(c notify.PanelContent) []string {
	classes := []string{"notification-popup", urgencyClass(c.Urgency)}
	if app := sanitizeClassName(c.AppName); app != "" {
		classes = append(classes, "app-"+app)
	}
	if c.Body != "" {
		classes = append(classes, "has-body")
	}
	if len(c.Actions) > 0 {
		classes = append(classes, "has-actions")
	}
	if c.HasDefault {
		classes = append(classes, "has-default")
	}
	return classes
}

// menuRowClasses lists the CSS classes of one tray menu row.
func menuRowClasses(n dbusmenu.Node) []string {
	if n.IsSeparator() {
		return []string{"tray-menu-separator"}
	}
	classes := []string{"tray-menu-item"}
	if n.Disposition != dbusmenu.DispositionNormal {
		classes = append(classes, "disposition-"+n.Disposition.String())
	}
	if n.HasChildren() || n.SubmenuHint {
		classes = append(classes, "has-submenu")
	}
	if n.Toggle.Type != dbusmenu.ToggleNone {
		classes = append(classes, "toggle-"+n.Toggle.Type.String())
	}
	return classes
}

// iconSource is how a popup icon gets loaded.
type iconSource struct {
	File string
	Name string
}

// popupIcon picks the image hint over the app icon. Values that look like
// paths or file:// URIs are loaded from disk, anything else is an icon name.
func popupIcon(c notify.PanelContent) iconSource {
	for _, v := range []string{c.Image, c.AppIcon} {
		switch {
		case v == "":
			continue
		case strings.HasPrefix(v, "file://"):
			return iconSource{File: strings.TrimPrefix(v, "file://")}
		case strings.HasPrefix(v, "/"):
			return iconSource{File: v}
		default:
			return iconSource{Name: v}
		}
	}
	return iconSource{Name: "dialog-information"}
}

// shortAge formats the time since ts compactly for the popup header.
func shortAge(ts int64, now time.Time) string {
	if ts == 0 {
		return ""
	}
	d := now.Sub(time.Unix(ts, 0))
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + "d"
	}
}

var (
	tagRegex    = regexp.MustCompile(`^<(/?)([a-zA-Z]+)[^>]*>`)
	entityRegex = regexp.MustCompile(`^&(?:[a-zA-Z]+|#[0-9]+|#x[0-9a-fA-F]+);`)
)

// keptTags are the body markup tags Pango renders. Links and images are
// reduced to their text.
var keptTags = map[string]bool{"b": true, "i": true, "u": true}

// sanitizeMarkup reduces notification body markup to what a GTK label
// accepts: <b>, <i> and <u> survive, other tags are dropped, stray
// ampersands and angle brackets are escaped, and tags left open are closed.
func sanitizeMarkup(body string) string {
	var b strings.Builder
	var open []string
	for i := 0; i < len(body); {
		switch body[i] {
		case '<':
			loc := tagRegex.FindStringSubmatchIndex(body[i:])
			if loc == nil || loc[0] != 0 {
				b.WriteString("&lt;")
				i++
				continue
			}
			tag := body[i : i+loc[1]]
			closing := loc[3] > loc[2]
			name := strings.ToLower(body[i+loc[4] : i+loc[5]])
			i += loc[1]
			if !keptTags[name] || strings.HasSuffix(tag, "/>") {
				continue
			}
			if !closing {
				open = append(open, name)
				b.WriteString("<" + name + ">")
				continue
			}
			if j := lastIndex(open, name); j >= 0 {
				for k := len(open) - 1; k >= j; k-- {
					b.WriteString("</" + open[k] + ">")
				}
				open = open[:j]
			}
		case '>':
			b.WriteString("&gt;")
			i++
		case '&':
			if m := entityRegex.FindString(body[i:]); m != "" {
				b.WriteString(m)
				i += len(m)
				continue
			}
			b.WriteString("&amp;")
			i++
		default:
			b.WriteByte(body[i])
			i++
		}
	}
	for k := len(open) - 1; k >= 0; k-- {
		b.WriteString("</" + open[k] + ">")
	}
	return b.String()
}

func lastIndex(tags []string, name string) int {
	for i := len(tags) - 1; i >= 0; i-- {
		if tags[i] == name {
			return i
		}
	}
	return -1
}
