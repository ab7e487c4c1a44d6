// Package field holds the in-memory annotation model shared by the editing
// surface and the overlay renderer. Content arrives from callers in whatever
// shape the client sent (string, bool, number, data URL); everything is
// normalized into a tagged Content union at this boundary so downstream code
// never re-checks types.
package field

import (
	"regexp"
	"strings"
)

// Type enumerates the supported annotation kinds.
type Type string

const (
	TypeText      Type = "text"
	TypeDate      Type = "date"
	TypeCheckbox  Type = "checkbox"
	TypeSignature Type = "signature"
)

const (
	// DefaultFontSize applies to text and date fields created without an
	// explicit size.
	DefaultFontSize = 11.0

	// DefaultColor is the fill color used when a field omits or mangles its
	// color value.
	DefaultColor = "#000000"
)

// ParseType maps a wire type string onto a Type. The legacy "timestamp" kind
// renders identically to text and is folded into it here.
func ParseType(raw string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "text", "timestamp":
		return TypeText, true
	case "date":
		return TypeDate, true
	case "checkbox":
		return TypeCheckbox, true
	case "signature":
		return TypeSignature, true
	default:
		return "", false
	}
}

// Field is one annotation placed over a rendered page. Geometry is kept in
// unscaled editor units (on-screen pixels divided by the zoom scale at the
// time of the gesture) so it survives zoom changes; the transform package
// converts it to PDF space at render time.
type Field struct {
	ID       string
	Type     Type
	Page     int
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Content  Content
	FontSize float64
	Color    string
}

// New constructs a Field with defaults applied. Page is 1-based; geometry is
// already unscaled.
func New(id string, t Type, page int, x, y, width, height float64) Field {
	if page < 1 {
		page = 1
	}
	return Field{
		ID:       id,
		Type:     t,
		Page:     page,
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
		Content:  emptyContent(t),
		FontSize: DefaultFontSize,
		Color:    DefaultColor,
	}
}

// SetContent normalizes value for the field's type and stores it. Checkbox
// values are coerced to a real boolean on every write.
func (f *Field) SetContent(value any) {
	f.Content = Normalize(f.Type, value)
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// NormalizeColor ensures a usable hex color: a missing leading "#" is added,
// anything that still fails validation falls back to DefaultColor.
func NormalizeColor(raw string) string {
	c := strings.TrimSpace(raw)
	if c == "" {
		return DefaultColor
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	if !hexColorPattern.MatchString(c) {
		return DefaultColor
	}
	return strings.ToLower(c)
}

// Summary tallies the per-type counts reported after a submission.
type Summary struct {
	Text         int `json:"text"`
	Checkboxes   int `json:"checkboxes"`
	CheckedBoxes int `json:"checkedBoxes"`
	Dates        int `json:"dates"`
	Signatures   int `json:"signatures"`
}

// Summarize counts fields per type, including how many checkboxes were
// actually checked.
func Summarize(fields []Field) Summary {
	var s Summary
	for _, f := range fields {
		switch f.Type {
		case TypeText:
			s.Text++
		case TypeDate:
			s.Dates++
		case TypeCheckbox:
			s.Checkboxes++
			if f.Content.Checked() {
				s.CheckedBoxes++
			}
		case TypeSignature:
			s.Signatures++
		}
	}
	return s
}

// Total returns the number of fields covered by the summary.
func (s Summary) Total() int {
	return s.Text + s.Checkboxes + s.Dates + s.Signatures
}
