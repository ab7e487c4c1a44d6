// Package surface models one interactive editing session: it owns the field
// snapshot, translates pointer gestures into unscaled geometry mutations, and
// coordinates page rasterization. The surface is event-driven and single
// threaded; the only asynchronous piece is rasterization, which is
// generation-stamped so a stale bitmap can never paint over current state.
package surface

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formfill/pkg/field"
)

// Default creation footprints per field type, in unscaled editor units.
var defaultSizes = map[field.Type][2]float64{
	field.TypeText:      {150, 24},
	field.TypeDate:      {110, 24},
	field.TypeCheckbox:  {20, 20},
	field.TypeSignature: {180, 60},
}

const minFieldSize = 10.0

// SignatureCapture is the external capture flow invoked when a contentless
// signature field is activated. It returns an encoded image payload.
type SignatureCapture func(ctx context.Context, fieldID string) ([]byte, error)

// Activation describes what a double-activation gesture resolved to.
type Activation string

const (
	// ActivationNone means the gesture had no effect.
	ActivationNone Activation = "none"
	// ActivationToggled means a checkbox flipped its checked state.
	ActivationToggled Activation = "toggled"
	// ActivationEditing means an inline editor opened for the field.
	ActivationEditing Activation = "editing"
	// ActivationSigned means the signature-capture flow ran and stored its
	// payload on the field.
	ActivationSigned Activation = "signed"
	// ActivationNeedsSignature means the field wants a signature but no
	// capture flow is configured; the caller must run one and SetContent.
	ActivationNeedsSignature Activation = "needs-signature"
)

// Option customises a session.
type Option func(*Session)

// WithSignatureCapture wires the external signature-capture flow.
func WithSignatureCapture(capture SignatureCapture) Option {
	return func(s *Session) {
		s.capture = capture
	}
}

// WithIDPrefix overrides the prefix used for generated field ids.
func WithIDPrefix(prefix string) Option {
	return func(s *Session) {
		if prefix != "" {
			s.idPrefix = prefix
		}
	}
}

// Session is one technician's editing state for one document. Fields live for
// the session only; on submit the snapshot feeds the renderer and the session
// is discarded.
type Session struct {
	fields    []field.Field
	nextID    int
	idPrefix  string
	editingID string
	capture   SignatureCapture

	// Unscaled page bounds recorded from completed rasterizations, used to
	// clamp drag/resize results to the host page.
	bounds map[int][2]float64

	raster rasterState
}

// NewSession constructs an empty session.
func NewSession(options ...Option) *Session {
	s := &Session{
		idPrefix: "fld",
		bounds:   make(map[int][2]float64),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// PlaceField creates a field of type t at an on-screen pointer position. The
// position is divided by the zoom scale so the stored geometry is invariant
// to later zoom changes.
func (s *Session) PlaceField(t field.Type, pointerX, pointerY float64, page int, scale float64) (field.Field, error) {
	if scale <= 0 {
		return field.Field{}, fmt.Errorf("surface: scale must be positive, got %v", scale)
	}
	if page < 1 {
		return field.Field{}, fmt.Errorf("surface: page must be >= 1, got %d", page)
	}

	size, ok := defaultSizes[t]
	if !ok {
		return field.Field{}, fmt.Errorf("surface: unknown field type %q", t)
	}

	s.nextID++
	f := field.New(
		fmt.Sprintf("%s-%d", s.idPrefix, s.nextID),
		t, page,
		pointerX/scale, pointerY/scale,
		size[0], size[1],
	)
	f.X, f.Y = s.clampPosition(f, f.X, f.Y)

	s.fields = append(s.fields, f)
	return f, nil
}

// MoveField shifts a field by an on-screen pointer delta. The delta is
// divided by scale before it touches unscaled geometry, so identical
// on-screen drags at different zoom levels land identically.
func (s *Session) MoveField(id string, dPointerX, dPointerY, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("surface: scale must be positive, got %v", scale)
	}
	f, idx, err := s.lookup(id)
	if err != nil {
		return err
	}
	x := f.X + dPointerX/scale
	y := f.Y + dPointerY/scale
	f.X, f.Y = s.clampPosition(*f, x, y)
	s.fields[idx] = *f
	return nil
}

// ResizeField grows or shrinks a field by an on-screen pointer delta applied
// to its bottom-right corner.
func (s *Session) ResizeField(id string, dPointerX, dPointerY, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("surface: scale must be positive, got %v", scale)
	}
	f, idx, err := s.lookup(id)
	if err != nil {
		return err
	}

	w := f.Width + dPointerX/scale
	h := f.Height + dPointerY/scale
	if w < minFieldSize {
		w = minFieldSize
	}
	if h < minFieldSize {
		h = minFieldSize
	}
	if b, ok := s.pageBounds(f.Page); ok {
		if f.X+w > b[0] {
			w = b[0] - f.X
		}
		if f.Y+h > b[1] {
			h = b[1] - f.Y
		}
		if w < minFieldSize {
			w = minFieldSize
		}
		if h < minFieldSize {
			h = minFieldSize
		}
	}

	f.Width, f.Height = w, h
	s.fields[idx] = *f
	return nil
}

// SetContent normalizes and stores content for a field.
func (s *Session) SetContent(id string, value any) error {
	f, idx, err := s.lookup(id)
	if err != nil {
		return err
	}
	f.SetContent(value)
	s.fields[idx] = *f
	return nil
}

// RemoveField deletes a field, ending its edit if it was being edited.
func (s *Session) RemoveField(id string) error {
	_, idx, err := s.lookup(id)
	if err != nil {
		return err
	}
	if s.editingID == id {
		s.editingID = ""
	}
	s.fields = append(s.fields[:idx], s.fields[idx+1:]...)
	return nil
}

// ClearAll drops every field and ends any edit.
func (s *Session) ClearAll() {
	s.fields = nil
	s.editingID = ""
}

// Activate resolves a double-activation gesture on a field: checkboxes
// toggle, text and date open their inline editor, a contentless signature
// field runs the capture flow.
func (s *Session) Activate(ctx context.Context, id string) (Activation, error) {
	f, idx, err := s.lookup(id)
	if err != nil {
		return ActivationNone, err
	}

	switch f.Type {
	case field.TypeCheckbox:
		f.SetContent(!f.Content.Checked())
		s.fields[idx] = *f
		return ActivationToggled, nil

	case field.TypeSignature:
		if !f.Content.Empty() {
			return ActivationNone, nil
		}
		if s.capture == nil {
			return ActivationNeedsSignature, nil
		}
		payload, err := s.capture(ctx, id)
		if err != nil {
			return ActivationNone, fmt.Errorf("surface: signature capture: %w", err)
		}
		f.SetContent(payload)
		s.fields[idx] = *f
		return ActivationSigned, nil

	default: // text, date
		s.beginEdit(id)
		return ActivationEditing, nil
	}
}

// EditingID returns the id of the field currently in edit mode, or "".
func (s *Session) EditingID() string { return s.editingID }

// EndEdit leaves edit mode.
func (s *Session) EndEdit() { s.editingID = "" }

// beginEdit puts a field into edit mode; at most one field edits at a time,
// so any prior edit implicitly ends.
func (s *Session) beginEdit(id string) {
	s.editingID = id
}

// Fields returns a read-only snapshot in creation order. The renderer
// receives this copy; session mutations after the call do not leak into an
// in-flight render.
func (s *Session) Fields() []field.Field {
	out := make([]field.Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len reports the number of fields.
func (s *Session) Len() int { return len(s.fields) }

// pageBounds reads the recorded unscaled bounds for a page. Guarded because
// rasterization results arrive on their own goroutine.
func (s *Session) pageBounds(page int) ([2]float64, bool) {
	s.raster.mu.Lock()
	defer s.raster.mu.Unlock()
	b, ok := s.bounds[page]
	return b, ok
}

func (s *Session) lookup(id string) (*field.Field, int, error) {
	for i := range s.fields {
		if s.fields[i].ID == id {
			f := s.fields[i]
			return &f, i, nil
		}
	}
	return nil, -1, fmt.Errorf("surface: field %q not found", id)
}

// clampPosition keeps a field inside [0, pageW-width] × [0, pageH-height]
// when the page's unscaled bounds are known.
func (s *Session) clampPosition(f field.Field, x, y float64) (float64, float64) {
	b, ok := s.pageBounds(f.Page)
	if !ok {
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		return x, y
	}

	maxX := b[0] - f.Width
	maxY := b[1] - f.Height
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	if x < 0 {
		x = 0
	} else if x > maxX {
		x = maxX
	}
	if y < 0 {
		y = 0
	} else if y > maxY {
		y = maxY
	}
	return x, y
}
