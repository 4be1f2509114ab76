package constants

import "strings"

// FileKind is the stored content kind for an uploaded document.
type FileKind string

const (
	KindPNG  FileKind = "png"
	KindJPG  FileKind = "jpg"
	KindJPEG FileKind = "jpeg"
	KindPDF  FileKind = "pdf"
)

// AllowedExtensions holds the file extensions accepted at upload time.
var AllowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"pdf":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt reports whether a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MIMEType maps an image kind to its MIME type. Only image kinds can be
// sent for extraction; anything else returns "" and must be pre-converted.
func MIMEType(kind FileKind) string {
	switch FileKind(NormalizeExt(string(kind))) {
	case KindPNG:
		return "image/png"
	case KindJPG, KindJPEG:
		return "image/jpeg"
	default:
		return ""
	}
}

// IsImageKind reports whether the kind is directly scannable.
func IsImageKind(kind FileKind) bool {
	return MIMEType(kind) != ""
}
