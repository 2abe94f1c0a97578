// Package validate is the fast-fail input gate: everything after it is
// expensive and must not run on malformed uploads.
package validate

import (
	"bytes"
	"fmt"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

// Code classifies why an upload was rejected.
type Code string

const (
	EmptyFile       Code = "EMPTY_FILE"
	TooLarge        Code = "TOO_LARGE"
	UnsupportedType Code = "UNSUPPORTED_TYPE"
	CorruptFile     Code = "CORRUPT_FILE"
)

// Error is a validation rejection. It is terminal for the file.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Limits bounds acceptable input.
type Limits struct {
	MaxBytes     int64
	AllowedMIMEs map[string]struct{}
}

// DefaultLimits returns the standard upload limits.
func DefaultLimits(maxBytes int64) Limits {
	return Limits{MaxBytes: maxBytes, AllowedMIMEs: constants.AllowedMIMETypes}
}

// File checks the upload against limits, in order: non-empty content,
// size ceiling, MIME allow-list, and for PDFs the magic signature.
// No side effects.
func File(file entity.SourceFile, limits Limits) error {
	if len(file.Data) == 0 {
		return &Error{Code: EmptyFile, Message: fmt.Sprintf("file %q has no content", file.Filename)}
	}
	if limits.MaxBytes > 0 && file.Size() > limits.MaxBytes {
		return &Error{
			Code:    TooLarge,
			Message: fmt.Sprintf("file %q is %d bytes, limit is %d", file.Filename, file.Size(), limits.MaxBytes),
		}
	}
	allowed := limits.AllowedMIMEs
	if allowed == nil {
		allowed = constants.AllowedMIMETypes
	}
	if _, ok := allowed[file.MIMEType]; !ok {
		return &Error{
			Code:    UnsupportedType,
			Message: fmt.Sprintf("mime type %q is not accepted", file.MIMEType),
		}
	}
	if constants.MapMIMEToFormat(file.MIMEType) == constants.PDF {
		if !bytes.HasPrefix(file.Data, constants.PDFMagic) {
			return &Error{
				Code:    CorruptFile,
				Message: fmt.Sprintf("file %q declares PDF but lacks the PDF signature", file.Filename),
			}
		}
	}
	return nil
}
