package field

import (
	"encoding/base64"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Content is the tagged union carried by a Field. Exactly one variant is
// meaningful, selected by the owning field's Type.
type Content struct {
	kind    Type
	text    string
	checked bool
	image   []byte
}

// Kind reports which variant the content holds.
func (c Content) Kind() Type { return c.kind }

// Text returns the string variant (text/date fields).
func (c Content) Text() string { return c.text }

// Checked returns the boolean variant (checkbox fields).
func (c Content) Checked() bool { return c.checked }

// Image returns the raw image payload (signature fields), nil when the field
// has not been signed.
func (c Content) Image() []byte { return c.image }

// Empty reports whether the content carries nothing drawable.
func (c Content) Empty() bool {
	switch c.kind {
	case TypeCheckbox:
		return !c.checked
	case TypeSignature:
		return len(c.image) == 0
	default:
		return strings.TrimSpace(c.text) == ""
	}
}

func emptyContent(t Type) Content {
	return Content{kind: t}
}

// Text builds text content, sanitized for markup.
func TextOf(s string) Content {
	return Content{kind: TypeText, text: sanitizeText(s)}
}

// CheckedOf builds checkbox content.
func CheckedOf(v bool) Content {
	return Content{kind: TypeCheckbox, checked: v}
}

// SignatureOf builds signature content from a raw payload.
func SignatureOf(payload []byte) Content {
	return Content{kind: TypeSignature, image: payload}
}

// Normalize coerces a dynamically typed value into the Content variant for t.
//
// Checkbox truthiness follows the original client contract: true, "true" and
// 1 are checked; every other value (including "1", "yes", nil) is not.
// Signature payloads given as a data URL or bare base64 are decoded to raw
// image bytes; payloads that fail to decode are kept verbatim so the renderer
// can fall back to its marker instead of dropping the field here.
func Normalize(t Type, value any) Content {
	switch t {
	case TypeCheckbox:
		return Content{kind: t, checked: truthy(value)}
	case TypeSignature:
		return Content{kind: t, image: decodePayload(value)}
	default:
		return Content{kind: t, text: sanitizeText(stringify(value))}
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case int:
		return v == 1
	case float64:
		// JSON numbers decode as float64.
		return v == 1
	default:
		return false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-zA-Z+.-]+;base64,`)

func decodePayload(value any) []byte {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		if v == "" {
			return nil
		}
		enc := dataURLPrefix.ReplaceAllString(v, "")
		if raw, err := base64.StdEncoding.DecodeString(enc); err == nil {
			return raw
		}
		return []byte(v)
	default:
		return nil
	}
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips any markup smuggled into user-entered content before it
// reaches the content stream. Sanitizing entity-escapes plain characters like
// "&", so the escaping is undone afterwards.
func sanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return html.UnescapeString(textPolicy.Sanitize(raw))
}
