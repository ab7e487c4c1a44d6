package overlay

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/goliatone/go-formfill/pkg/field"
	"github.com/goliatone/go-formfill/pkg/transform"
)

// Resource names registered on pages that receive overlay marks. Prefixed to
// avoid colliding with the source document's own resources.
const (
	overlayFontRes = "FFov1"

	fallbackMarker   = "[SIGNATURE]"
	fallbackFontSize = 10.0
)

// renderPage draws every field targeting one page. Individual fields that
// fail to draw are logged and counted, never escalated.
func (e *Engine) renderPage(pdfCtx *model.Context, page int, fields []field.Field, sigs *signatureCache, report *Report) error {
	pageDict, _, inhPAttrs, err := pdfCtx.PageDict(page, false)
	if err != nil {
		return fmt.Errorf("overlay: page %d dict: %w", page, err)
	}
	if pageDict == nil {
		return fmt.Errorf("overlay: page %d not found", page)
	}

	geom, err := pageGeometry(pdfCtx, page)
	if err != nil {
		return err
	}

	var (
		ops       strings.Builder
		usesFont  bool
		usedImgs  []*embeddedImage
		drawCount int
	)
	// Close the graphics state left by the original content, then isolate
	// our own marks.
	ops.WriteString("Q q\n")

	for _, f := range fields {
		ins := transform.ToInstruction(f, geom)

		switch f.Type {
		case field.TypeSignature:
			if f.Content.Empty() {
				continue
			}
			img, err := sigs.embed(pdfCtx, f.Content.Image())
			if err != nil {
				// Unrecognized payload: draw the marker instead of failing
				// the field silently.
				e.logger.Warn("overlay: signature payload not drawable, using marker",
					"field", f.ID, "page", page, "error", err)
				report.FieldFailures++
				writeTextOp(&ops, fallbackFontSize, ins.PDFX, ins.PDFY, fallbackMarker)
				usesFont = true
				drawCount++
				continue
			}
			w, h := ins.FitImage(img.width, img.height)
			writeImageOp(&ops, img.name, ins.PDFX, ins.PDFY, w, h)
			usedImgs = append(usedImgs, img)
			drawCount++

		case field.TypeCheckbox:
			if ins.Glyph == "" {
				continue
			}
			writeTextOp(&ops, ins.FontSize, ins.PDFX, ins.PDFY, ins.Glyph)
			usesFont = true
			drawCount++

		default: // text, date
			if len(ins.Lines) == 0 {
				continue
			}
			for _, line := range ins.Lines {
				writeTextOp(&ops, ins.FontSize, ins.PDFX, line.Y, line.Text)
			}
			usesFont = true
			drawCount++
		}
	}

	ops.WriteString("Q\n")

	if drawCount == 0 {
		return nil
	}

	if err := appendPageContent(pdfCtx, pageDict, ops.String()); err != nil {
		return err
	}
	if err := mergeResources(pdfCtx, pageDict, inhPAttrs, usesFont, usedImgs); err != nil {
		return err
	}

	report.FieldsRendered += drawCount
	return nil
}

// appendPageContent brackets the page's existing content stream(s) with a
// state-save prefix and our overlay suffix so overlay coordinates are not
// affected by transforms the original content never restored.
func appendPageContent(pdfCtx *model.Context, pageDict types.Dict, overlayOps string) error {
	prefix, err := newContentStream(pdfCtx, "q\n")
	if err != nil {
		return err
	}
	suffix, err := newContentStream(pdfCtx, overlayOps)
	if err != nil {
		return err
	}

	var contents types.Array
	switch obj := pageDict["Contents"].(type) {
	case types.Array:
		contents = obj
	case types.IndirectRef:
		contents = types.Array{obj}
	case nil:
		contents = types.Array{}
	default:
		return fmt.Errorf("overlay: unexpected page contents type %T", obj)
	}

	merged := make(types.Array, 0, len(contents)+2)
	merged = append(merged, *prefix)
	merged = append(merged, contents...)
	merged = append(merged, *suffix)
	pageDict["Contents"] = merged
	return nil
}

func newContentStream(pdfCtx *model.Context, ops string) (*types.IndirectRef, error) {
	sd, err := pdfCtx.NewStreamDictForBuf([]byte(ops))
	if err != nil {
		return nil, fmt.Errorf("overlay: new content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("overlay: encode content stream: %w", err)
	}
	ref, err := pdfCtx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("overlay: register content stream: %w", err)
	}
	return ref, nil
}

// mergeResources ensures the page's resource dictionary carries the overlay
// font and any embedded signature images. Inherited resources are material-
// ized onto the page first so siblings are unaffected.
func mergeResources(pdfCtx *model.Context, pageDict types.Dict, inhPAttrs *model.InheritedPageAttrs, usesFont bool, images []*embeddedImage) error {
	res := resolveDict(pdfCtx, pageDict, "Resources")
	if res == nil {
		if inhPAttrs != nil && inhPAttrs.Resources != nil {
			res = inhPAttrs.Resources
		} else {
			res = types.Dict{}
		}
		pageDict["Resources"] = res
	}

	if usesFont {
		fonts := resolveDict(pdfCtx, res, "Font")
		if fonts == nil {
			fonts = types.Dict{}
			res["Font"] = fonts
		}
		if _, found := fonts.Find(overlayFontRes); !found {
			fonts[overlayFontRes] = types.Dict{
				"Type":     types.Name("Font"),
				"Subtype":  types.Name("Type1"),
				"BaseFont": types.Name("Helvetica"),
			}
		}
	}

	if len(images) > 0 {
		xobjects := resolveDict(pdfCtx, res, "XObject")
		if xobjects == nil {
			xobjects = types.Dict{}
			res["XObject"] = xobjects
		}
		for _, img := range images {
			if _, found := xobjects.Find(img.name); !found {
				xobjects[img.name] = *img.ref
			}
		}
	}

	return nil
}

// resolveDict returns the dictionary behind parent[key], following an
// indirect reference when present. Missing or non-dict entries yield nil.
func resolveDict(pdfCtx *model.Context, parent types.Dict, key string) types.Dict {
	obj, found := parent.Find(key)
	if !found || obj == nil {
		return nil
	}
	d, err := pdfCtx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return d
}

func writeTextOp(b *strings.Builder, size, x, y float64, text string) {
	fmt.Fprintf(b, "BT\n/%s %.2f Tf\n0 0 0 rg\n%.2f %.2f Td\n(%s) Tj\nET\n",
		overlayFontRes, size, x, y, escapeText(text))
}

func writeImageOp(b *strings.Builder, name string, x, y, w, h float64) {
	fmt.Fprintf(b, "q\n%.2f 0 0 %.2f %.2f %.2f cm\n/%s Do\nQ\n", w, h, x, y, name)
}

// escapeText produces a PDF literal string body. Backslash and parentheses
// are escaped; runes outside Latin-1 are replaced since the overlay font uses
// a single-byte encoding.
func escapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '(':
			b.WriteString(`\(`)
		case ')':
			b.WriteString(`\)`)
		case '\n', '\r':
			b.WriteByte(' ')
		default:
			if r > 0xFF {
				b.WriteByte('?')
				continue
			}
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}
