package constants

import "strings"

// Document formats recognized by the pipeline.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// AllowedMIMETypes is the upload allow-list checked before any expensive
// processing.
var AllowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/tiff":      {},
}

// PDFMagic is the byte signature every well-formed PDF starts with.
var PDFMagic = []byte("%PDF-")

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapMIMEToFormat returns PDF, IMAGE or "" for unsupported types.
func MapMIMEToFormat(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "application/pdf":
		return PDF
	case "image/jpeg", "image/png", "image/tiff":
		return IMAGE
	default:
		return ""
	}
}

// MapExtToFormat returns the format for a (normalized) file extension.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff":
		return IMAGE
	default:
		return ""
	}
}

// MIMEForExt maps a file extension to its declared MIME type.
func MIMEForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tif", "tiff":
		return "image/tiff"
	default:
		return ""
	}
}
