// Package submit packages rendered output for the record-management backend:
// it derives the display filename, builds the multipart payload, and reports
// structured success or failure without retrying on its own.
package submit

import (
	"path"
	"regexp"
	"strings"
)

// CompletedPrefix marks uploaded filenames as technician-completed forms.
const CompletedPrefix = "Completed - "

var (
	trailingIDPattern = regexp.MustCompile(`(@@\d+).*$`)
	pdfExtPattern     = regexp.MustCompile(`(?i)\.pdf$`)
)

// DisplayName derives the upload filename from the original attachment name:
// the path is stripped, a trailing storage identifier is reduced to its
// "@@<digits>" stem, the extension is dropped, and the completed prefix is
// applied.
//
//	"Attaches/S2502270659@@3-_Gy1Go5m29TYQ~I8RbKS.pdf" → "Completed - S2502270659@@3.pdf"
func DisplayName(originalFileName string) string {
	name := strings.ReplaceAll(originalFileName, `\`, "/")
	name = path.Base(name)
	name = trailingIDPattern.ReplaceAllString(name, "$1")
	name = pdfExtPattern.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" || name == "/" || name == "." {
		name = "Form"
	}
	return CompletedPrefix + name + ".pdf"
}
