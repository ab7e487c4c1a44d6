package field

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseType(t *testing.T) {
	cases := map[string]struct {
		in   string
		want Type
		ok   bool
	}{
		"text":           {"text", TypeText, true},
		"timestamp":      {"timestamp", TypeText, true},
		"date":           {"date", TypeDate, true},
		"checkbox":       {"checkbox", TypeCheckbox, true},
		"signature":      {"signature", TypeSignature, true},
		"mixed case":     {"  Checkbox ", TypeCheckbox, true},
		"unknown":        {"dropdown", "", false},
		"empty":          {"", "", false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseType(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParseType(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	f := New("f-1", TypeText, 0, 10, 20, 100, 30)

	if f.Page != 1 {
		t.Fatalf("page should clamp to 1, got %d", f.Page)
	}
	if f.FontSize != DefaultFontSize {
		t.Fatalf("font size = %v, want %v", f.FontSize, DefaultFontSize)
	}
	if f.Color != DefaultColor {
		t.Fatalf("color = %q, want %q", f.Color, DefaultColor)
	}
	if !f.Content.Empty() {
		t.Fatal("new field should have empty content")
	}
}

func TestNormalizeColor(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"with hash":    {"#1e3a8a", "#1e3a8a"},
		"without hash": {"1E3A8A", "#1e3a8a"},
		"invalid":      {"bogus", DefaultColor},
		"short":        {"#fff", DefaultColor},
		"empty":        {"", DefaultColor},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := NormalizeColor(tc.in); got != tc.want {
				t.Fatalf("NormalizeColor(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	fields := []Field{
		textField("t1", "hello"),
		textField("t2", ""),
		dateField("d1", "2026-08-23"),
		checkboxField("c1", true),
		checkboxField("c2", false),
		checkboxField("c3", true),
		signatureField("s1", []byte{1, 2, 3}),
	}

	got := Summarize(fields)
	want := Summary{Text: 2, Dates: 1, Checkboxes: 3, CheckedBoxes: 2, Signatures: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if got.Total() != 7 {
		t.Fatalf("Total() = %d, want 7", got.Total())
	}
}

func textField(id, content string) Field {
	f := New(id, TypeText, 1, 0, 0, 100, 20)
	f.SetContent(content)
	return f
}

func dateField(id, content string) Field {
	f := New(id, TypeDate, 1, 0, 0, 100, 20)
	f.SetContent(content)
	return f
}

func checkboxField(id string, checked bool) Field {
	f := New(id, TypeCheckbox, 1, 0, 0, 20, 20)
	f.SetContent(checked)
	return f
}

func signatureField(id string, payload []byte) Field {
	f := New(id, TypeSignature, 1, 0, 0, 180, 60)
	f.SetContent(payload)
	return f
}
