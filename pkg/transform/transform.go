// Package transform converts editor-space field geometry into PDF-space draw
// instructions. The editor works in unscaled units with a top-left origin and
// Y growing downward; PDF pages use points with a bottom-left origin and Y
// growing upward. Every per-type offset and anchor lives in the constants
// table below so tuning a placement changes one number, not duplicated logic.
package transform

import (
	"math"
	"strings"

	"github.com/goliatone/go-formfill/pkg/field"
)

// Placement constants. These are tunable alignment offsets, not load-bearing
// geometry; keep them in one place.
const (
	// ContentInset shifts drawn content off the field's left edge so it lines
	// up with the box interior the user saw while editing.
	ContentInset = 4.0

	// EdgeMargin is the minimum distance from any page edge for a final draw
	// position.
	EdgeMargin = 5.0

	// LineHeightFactor converts a font size into a line advance.
	LineHeightFactor = 1.2

	// LineClipMargin drops text lines whose baseline falls within this
	// distance of the top or bottom page edge.
	LineClipMargin = 10.0

	// CheckboxGlyphSize is the font size of the "X" drawn in a checked box.
	CheckboxGlyphSize = 12.0

	// SignatureMaxHeight caps the drawn height of a signature image.
	SignatureMaxHeight = 60.0

	// SignatureRightGutter keeps a signature's right edge off the page edge.
	SignatureRightGutter = 10.0
)

// Font size bounds per field type.
const (
	MinFontSize     = 8.0
	MaxTextFontSize = 20.0
	MaxDateFontSize = 16.0
)

// Anchor names the vertical alignment reference used when placing a field.
type Anchor string

const (
	// AnchorBaseline places text relative to its first baseline (text).
	AnchorBaseline Anchor = "baseline"
	// AnchorCenter centers content vertically in the field box (date,
	// checkbox).
	AnchorCenter Anchor = "center"
	// AnchorBottom aligns content with the field's bottom edge (signature).
	AnchorBottom Anchor = "bottom"
)

// TextLine is one renderable line of a text field with its resolved baseline.
type TextLine struct {
	Text string
	Y    float64
}

// Instruction is the ephemeral PDF-space draw order for a single field. It is
// derived per render pass and never persisted.
type Instruction struct {
	Type       field.Type
	PDFX       float64
	PDFY       float64
	DrawWidth  float64
	DrawHeight float64
	Anchor     Anchor
	FontSize   float64
	LineHeight float64
	Lines      []TextLine
	Glyph      string
}

// ToInstruction maps one field onto its draw instruction for the given page
// geometry. Pure and deterministic: same field and geometry, same output.
func ToInstruction(f field.Field, geom PageGeometry) Instruction {
	pageW, pageH := geom.WidthPoints, geom.HeightPoints

	ins := Instruction{Type: f.Type}
	ins.PDFX = clamp(f.X+ContentInset, EdgeMargin, pageW-EdgeMargin)

	switch f.Type {
	case field.TypeDate:
		ins.Anchor = AnchorCenter
		ins.FontSize = clamp(f.FontSize, MinFontSize, MaxDateFontSize)
		center := f.Y + f.Height/2
		ins.PDFY = clamp(pageH-center-ins.FontSize/2, EdgeMargin, pageH-EdgeMargin)
		if line := strings.TrimSpace(f.Content.Text()); line != "" {
			ins.Lines = []TextLine{{Text: line, Y: ins.PDFY}}
		}

	case field.TypeCheckbox:
		ins.Anchor = AnchorCenter
		ins.FontSize = CheckboxGlyphSize
		ins.PDFY = clamp(pageH-f.Y-f.Height/2-CheckboxGlyphSize/2, EdgeMargin, pageH-EdgeMargin)
		if f.Content.Checked() {
			ins.Glyph = "X"
		}

	case field.TypeSignature:
		ins.Anchor = AnchorBottom
		ins.PDFY = clamp(pageH-f.Y-(f.Height-ContentInset), EdgeMargin, pageH-EdgeMargin)
		ins.DrawWidth = math.Min(f.Width, pageW-ins.PDFX-SignatureRightGutter)
		ins.DrawHeight = math.Min(f.Height, SignatureMaxHeight)

	default: // text
		ins.Anchor = AnchorBaseline
		ins.FontSize = clamp(f.FontSize, MinFontSize, MaxTextFontSize)
		ins.LineHeight = ins.FontSize * LineHeightFactor
		ins.PDFY = clamp(pageH-f.Y-(ContentInset+ins.LineHeight), EdgeMargin, pageH-EdgeMargin)
		for i, raw := range strings.Split(f.Content.Text(), "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			y := ins.PDFY - float64(i)*ins.LineHeight
			if y < LineClipMargin || y > pageH-LineClipMargin {
				continue
			}
			ins.Lines = append(ins.Lines, TextLine{Text: line, Y: y})
		}
	}

	return ins
}

// FitImage scales intrinsic image dimensions into the instruction's draw box,
// preserving aspect ratio. Width-constrained first, then height-constrained
// when the width-derived height would overflow the box.
func (ins Instruction) FitImage(imgWidth, imgHeight int) (w, h float64) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return ins.DrawWidth, ins.DrawHeight
	}
	ratio := float64(imgWidth) / float64(imgHeight)
	w, h = ins.DrawWidth, ins.DrawHeight
	if h > 0 && w/ratio > h {
		return h * ratio, h
	}
	return w, w / ratio
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
