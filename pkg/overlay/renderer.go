// Package overlay flattens a field snapshot onto the pages of a PDF
// document. Marks are appended as page content streams so the output is
// indistinguishable from the source document's own drawing; pages without
// fields pass through untouched.
package overlay

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/goliatone/go-formfill/pkg/field"
	"github.com/goliatone/go-formfill/pkg/transform"
)

// Renderer produces flattened output bytes from an original document and a
// read-only field snapshot.
type Renderer interface {
	Render(ctx context.Context, original []byte, fields []field.Field) ([]byte, Report, error)
}

// SourceError reports that the original bytes could not be parsed as a
// document. It is the only fatal render error; everything else degrades
// per field or per page.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("overlay: source document unreadable: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Report aggregates the non-fatal outcomes of one render pass.
type Report struct {
	FieldsRendered int
	FieldFailures  int
	SkippedPages   []int

	// SignaturesEmbedded counts unique image payloads embedded this pass;
	// duplicate payloads share one embed.
	SignaturesEmbedded int
}

// Option customises the renderer.
type Option func(*Engine)

// WithLogger injects the logger used for warn-and-skip paths. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine is the pdfcpu-backed Renderer implementation.
type Engine struct {
	logger *slog.Logger
}

// New constructs an Engine applying any provided options.
func New(options ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Render executes one pass over an immutable field snapshot. Fields are
// grouped by page and drawn in creation order; per-field failures are logged
// and isolated, fields on pages the document does not have are skipped with
// a warning. Only an unparseable source document aborts the pass.
func (e *Engine) Render(ctx context.Context, original []byte, fields []field.Field) ([]byte, Report, error) {
	var report Report

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(original), conf)
	if err != nil {
		return nil, report, &SourceError{Err: err}
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, report, &SourceError{Err: err}
	}

	pages := groupByPage(fields)
	sigs := newSignatureCache()

	for _, page := range sortedPages(pages) {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		if page < 1 || page > pdfCtx.PageCount {
			e.logger.Warn("overlay: field page out of range, skipping",
				"page", page, "pageCount", pdfCtx.PageCount, "fields", len(pages[page]))
			report.SkippedPages = append(report.SkippedPages, page)
			continue
		}
		if err := e.renderPage(pdfCtx, page, pages[page], sigs, &report); err != nil {
			// Page-level draw problems degrade like field failures; the
			// remaining pages still render.
			e.logger.Warn("overlay: page render failed, skipping", "page", page, "error", err)
			report.SkippedPages = append(report.SkippedPages, page)
		}
	}

	report.SignaturesEmbedded = sigs.size()

	var out bytes.Buffer
	if err := api.WriteContext(pdfCtx, &out); err != nil {
		return nil, report, fmt.Errorf("overlay: write output: %w", err)
	}
	return out.Bytes(), report, nil
}

func groupByPage(fields []field.Field) map[int][]field.Field {
	grouped := make(map[int][]field.Field)
	for _, f := range fields {
		grouped[f.Page] = append(grouped[f.Page], f)
	}
	return grouped
}

func sortedPages(grouped map[int][]field.Field) []int {
	pages := make([]int, 0, len(grouped))
	for page := range grouped {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// pageGeometry reads the page's MediaBox dimensions in points.
func pageGeometry(pdfCtx *model.Context, page int) (transform.PageGeometry, error) {
	_, _, inhPAttrs, err := pdfCtx.PageDict(page, true)
	if err != nil {
		return transform.PageGeometry{}, fmt.Errorf("overlay: page %d attributes: %w", page, err)
	}
	if inhPAttrs == nil || inhPAttrs.MediaBox == nil {
		return transform.PageGeometry{}, fmt.Errorf("overlay: page %d has no media box", page)
	}
	mb := inhPAttrs.MediaBox
	return transform.PageGeometry{
		PageNumber:   page,
		WidthPoints:  mb.Width(),
		HeightPoints: mb.Height(),
	}, nil
}

// GeometrySource exposes a document's page dimensions through the transform
// package's lazy-lookup interface. Callers that already hold the original
// bytes can share one source between the editing surface and the renderer.
func GeometrySource(original []byte) (transform.GeometrySource, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(original), conf)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, &SourceError{Err: err}
	}
	return transform.GeometrySourceFunc(func(ctx context.Context, page int) (transform.PageGeometry, error) {
		if err := ctx.Err(); err != nil {
			return transform.PageGeometry{}, err
		}
		if page < 1 || page > pdfCtx.PageCount {
			return transform.PageGeometry{}, fmt.Errorf("overlay: page %d out of range (document has %d)", page, pdfCtx.PageCount)
		}
		return pageGeometry(pdfCtx, page)
	}), nil
}
