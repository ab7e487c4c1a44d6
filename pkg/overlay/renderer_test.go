package overlay

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/goliatone/go-formfill/pkg/field"
	"github.com/goliatone/go-formfill/pkg/testsupport"
)

// parseOutput re-reads rendered bytes and returns the page count, failing the
// test if the output is not a valid document.
func parseOutput(t *testing.T, output []byte) int {
	t.Helper()

	ctx, err := api.ReadContext(bytes.NewReader(output), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		t.Fatalf("output does not validate: %v", err)
	}
	return ctx.PageCount
}

func textField(id string, page int, content string) field.Field {
	f := field.New(id, field.TypeText, page, 50, 100, 200, 30)
	f.SetContent(content)
	return f
}

func TestRenderZeroFieldsRoundTrip(t *testing.T) {
	original := testsupport.MinimalPDF(3)

	output, report, err := New().Render(testsupport.Context(), original, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := parseOutput(t, output); got != 3 {
		t.Fatalf("page count = %d, want 3", got)
	}
	if report.FieldsRendered != 0 || report.FieldFailures != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRenderTextAndCheckbox(t *testing.T) {
	original := testsupport.MinimalPDF(2)

	checked := field.New("cb", field.TypeCheckbox, 2, 100, 200, 20, 20)
	checked.SetContent(true)
	unchecked := field.New("cb2", field.TypeCheckbox, 2, 140, 200, 20, 20)
	unchecked.SetContent(false)

	fields := []field.Field{
		textField("t1", 1, "hello\nworld"),
		checked,
		unchecked,
	}

	output, report, err := New().Render(testsupport.Context(), original, fields)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := parseOutput(t, output); got != 2 {
		t.Fatalf("page count = %d, want 2", got)
	}
	// The unchecked box draws nothing and is not counted as rendered.
	if report.FieldsRendered != 2 {
		t.Fatalf("FieldsRendered = %d, want 2", report.FieldsRendered)
	}
	if report.FieldFailures != 0 {
		t.Fatalf("FieldFailures = %d, want 0", report.FieldFailures)
	}
}

func TestRenderOutOfRangePageSkipped(t *testing.T) {
	original := testsupport.MinimalPDF(3)

	fields := []field.Field{
		textField("t1", 1, "kept"),
		textField("t2", 99, "dropped"),
	}

	output, report, err := New().Render(testsupport.Context(), original, fields)
	if err != nil {
		t.Fatalf("out-of-range page must not error: %v", err)
	}
	if got := parseOutput(t, output); got != 3 {
		t.Fatalf("page count = %d, want 3", got)
	}
	if len(report.SkippedPages) != 1 || report.SkippedPages[0] != 99 {
		t.Fatalf("SkippedPages = %v, want [99]", report.SkippedPages)
	}
	if report.FieldsRendered != 1 {
		t.Fatalf("FieldsRendered = %d, want 1", report.FieldsRendered)
	}
}

func TestRenderSignatureDedup(t *testing.T) {
	original := testsupport.MinimalPDF(2)
	payload := testsupport.TinyPNG(t, 40, 20, color.Black)

	a := field.New("s1", field.TypeSignature, 1, 50, 600, 180, 60)
	a.SetContent(payload)
	b := field.New("s2", field.TypeSignature, 2, 50, 600, 180, 60)
	b.SetContent(payload)

	output, report, err := New().Render(testsupport.Context(), original, []field.Field{a, b})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	parseOutput(t, output)

	if report.FieldsRendered != 2 {
		t.Fatalf("FieldsRendered = %d, want 2", report.FieldsRendered)
	}
	if report.SignaturesEmbedded != 1 {
		t.Fatalf("SignaturesEmbedded = %d, want 1 (identical payloads share an embed)", report.SignaturesEmbedded)
	}
}

func TestRenderSignatureCacheScopedPerPass(t *testing.T) {
	original := testsupport.MinimalPDF(1)
	payload := testsupport.TinyPNG(t, 40, 20, color.Black)

	f := field.New("s1", field.TypeSignature, 1, 50, 600, 180, 60)
	f.SetContent(payload)

	engine := New()
	for pass := 0; pass < 2; pass++ {
		output, report, err := engine.Render(testsupport.Context(), original, []field.Field{f})
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		parseOutput(t, output)
		if report.SignaturesEmbedded != 1 {
			t.Fatalf("pass %d: SignaturesEmbedded = %d, want 1 (cache must not leak across passes)",
				pass, report.SignaturesEmbedded)
		}
	}
}

func TestRenderMalformedSignatureFallsBack(t *testing.T) {
	original := testsupport.MinimalPDF(1)

	f := field.New("s1", field.TypeSignature, 1, 50, 600, 180, 60)
	f.SetContent("definitely-not-an-image")

	output, report, err := New().Render(testsupport.Context(), original, []field.Field{f})
	if err != nil {
		t.Fatalf("malformed payload must not abort the render: %v", err)
	}
	parseOutput(t, output)

	if report.FieldFailures != 1 {
		t.Fatalf("FieldFailures = %d, want 1", report.FieldFailures)
	}
	// The marker still draws, so the field counts as rendered.
	if report.FieldsRendered != 1 {
		t.Fatalf("FieldsRendered = %d, want 1", report.FieldsRendered)
	}
	if report.SignaturesEmbedded != 0 {
		t.Fatalf("SignaturesEmbedded = %d, want 0", report.SignaturesEmbedded)
	}
}

func TestRenderUnreadableSource(t *testing.T) {
	_, _, err := New().Render(testsupport.Context(), []byte("this is not a pdf"), []field.Field{
		textField("t1", 1, "x"),
	})
	if err == nil {
		t.Fatal("expected a source error")
	}
	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("error = %T (%v), want *SourceError", err, err)
	}
}

func TestRenderIdempotentAcrossPasses(t *testing.T) {
	original := testsupport.MinimalPDF(2)
	fields := []field.Field{textField("t1", 1, "same"), textField("t2", 2, "snapshot")}

	engine := New()
	first, reportA, err := engine.Render(testsupport.Context(), original, fields)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, reportB, err := engine.Render(testsupport.Context(), original, fields)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if parseOutput(t, first) != parseOutput(t, second) {
		t.Fatal("page counts diverged across identical passes")
	}
	if reportA.FieldsRendered != reportB.FieldsRendered || reportA.FieldFailures != reportB.FieldFailures {
		t.Fatalf("reports diverged: %+v vs %+v", reportA, reportB)
	}
}

func TestGeometrySource(t *testing.T) {
	src, err := GeometrySource(testsupport.MinimalPDF(2))
	if err != nil {
		t.Fatalf("GeometrySource: %v", err)
	}

	geom, err := src.PageGeometry(testsupport.Context(), 1)
	if err != nil {
		t.Fatalf("PageGeometry: %v", err)
	}
	if geom.WidthPoints != testsupport.PageWidth || geom.HeightPoints != testsupport.PageHeight {
		t.Fatalf("geometry = %+v, want %gx%g", geom, testsupport.PageWidth, testsupport.PageHeight)
	}

	if _, err := src.PageGeometry(testsupport.Context(), 5); err == nil {
		t.Fatal("out-of-range page should error")
	}
}

func TestEscapeText(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":      {"hello", "hello"},
		"parens":     {"a(b)c", `a\(b\)c`},
		"backslash":  {`a\b`, `a\\b`},
		"non latin1": {"日本", "??"},
		"newline":    {"a\nb", "a b"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := escapeText(tc.in); got != tc.want {
				t.Fatalf("escapeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
