package guest

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	PreviewPDF         = "pdf"
	PreviewImage       = "image"
	PreviewText        = "text"
	PreviewUnsupported = "unsupported"
)

var textTypes = map[string]struct{}{
	"application/json":       {},
	"application/xml":        {},
	"application/javascript": {},
	"application/x-yaml":     {},
	"application/yaml":       {},
}

// PreviewCategory picks how a viewer should render a file. The file name is
// consulted only when the content type is missing or generic.
func PreviewCategory(fileType, fileName string) string {
	ct := strings.ToLower(strings.TrimSpace(fileType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
		if i := strings.Index(ct, ";"); i >= 0 {
			ct = strings.TrimSpace(ct[:i])
		}
	}
	switch {
	case ct == "application/pdf":
		return PreviewPDF
	case strings.HasPrefix(ct, "image/"):
		return PreviewImage
	case strings.HasPrefix(ct, "text/"):
		return PreviewText
	}
	if _, ok := textTypes[ct]; ok {
		return PreviewText
	}
	return PreviewUnsupported
}
