package field

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Wire is the dynamically typed field shape clients send: content may be a
// string, boolean, number, or data URL depending on the field type and the
// client's age.
type Wire struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Page     int     `json:"page"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Content  any     `json:"content"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
}

// FromWire normalizes one wire field into the typed model. fallbackID is used
// when the client omitted an id.
func FromWire(w Wire, fallbackID string) (Field, error) {
	t, ok := ParseType(w.Type)
	if !ok {
		return Field{}, fmt.Errorf("field: unsupported type %q", w.Type)
	}
	if w.Width <= 0 || w.Height <= 0 {
		return Field{}, fmt.Errorf("field: geometry must have positive width and height")
	}

	page := w.Page
	if page < 1 {
		page = 1
	}
	id := w.ID
	if id == "" {
		id = fallbackID
	}

	f := New(id, t, page, w.X, w.Y, w.Width, w.Height)
	if w.FontSize > 0 {
		f.FontSize = w.FontSize
	}
	f.Color = NormalizeColor(w.Color)
	f.SetContent(w.Content)
	return f, nil
}

// DecodeList converts a wire slice, assigning positional fallback ids.
func DecodeList(wires []Wire) ([]Field, error) {
	fields := make([]Field, 0, len(wires))
	for i, w := range wires {
		f, err := FromWire(w, "el-"+strconv.Itoa(i+1))
		if err != nil {
			return nil, fmt.Errorf("field: element %d: %w", i+1, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// DecodeJSON parses a JSON array of wire fields into the typed model.
func DecodeJSON(data []byte) ([]Field, error) {
	var wires []Wire
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("field: decode layout: %w", err)
	}
	return DecodeList(wires)
}
