package notify

import "unicode/utf8"

// Popup height heuristic. It only has to keep popups from overlapping until
// the presenter reports a measured height.
const (
	heightBase      = 60 // icon, header and summary
	heightPerLine   = 20
	charsPerLine    = 50
	maxBodyLines    = 4
	heightActionRow = 40
	heightPadding   = 24
)

// HeightFunc estimates the pixel height of a popup.
type HeightFunc func(c PanelContent) int

// EstimateHeight is the default HeightFunc.
func EstimateHeight(c PanelContent) int {
	height := heightBase

	if n := utf8.RuneCountInString(c.Body); n > 0 {
		lines := min((n+charsPerLine-1)/charsPerLine, maxBodyLines)
		height += lines * heightPerLine
	}

	if len(c.Actions) > 0 {
		height += heightActionRow
	}

	return height + heightPadding
}
