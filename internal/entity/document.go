package entity

import (
	"crypto/sha256"
	"path/filepath"
	"strings"
)

// SourceFile is an immutable uploaded document: raw bytes plus the caller's
// declared metadata. It is never mutated by the pipeline.
type SourceFile struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Size returns the byte size of the file content.
func (f SourceFile) Size() int64 { return int64(len(f.Data)) }

// BaseName returns the filename without directory or extension.
func (f SourceFile) BaseName() string {
	base := filepath.Base(f.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Ext returns the lowercase extension without the dot.
func (f SourceFile) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Filename), "."))
}

// ContentHash returns the sha256 digest of the file content.
func (f SourceFile) ContentHash() []byte {
	sum := sha256.Sum256(f.Data)
	return sum[:]
}
