package llm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/odunayo-falade/fleetdocs/constants"
)

// Provider is the language-model collaborator. The returned payload is
// expected to be JSON-shaped; formatting quirks (code fences, leading
// prose) are stripped by this package before parsing.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FieldSet is the normalized extraction output for one document.
// Invariant: Values contains every key in Keys, nil where the document
// did not yield a value. Callers never probe for missing keys.
type FieldSet struct {
	Category   constants.Category `json:"category"`
	Keys       []string           `json:"keys"`
	Values     map[string]any     `json:"values"`
	Confidence float32            `json:"confidence"`
	Notes      []string           `json:"notes,omitempty"`
}

// String returns the value for key rendered as a string, "" when null.
func (f FieldSet) String(key string) string {
	switch v := f.Values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsNull reports whether key has no extracted value.
func (f FieldSet) IsNull(key string) bool {
	return f.Values[key] == nil
}

// NullFraction returns the share of declared keys without a value.
func (f FieldSet) NullFraction() float32 {
	if len(f.Keys) == 0 {
		return 1
	}
	nulls := 0
	for _, key := range f.Keys {
		if f.IsNull(key) {
			nulls++
		}
	}
	return float32(nulls) / float32(len(f.Keys))
}

// Error codes for extraction failures.
const (
	CodeProviderFailure     = "PROVIDER_FAILURE"
	CodeUnparseableResponse = "UNPARSEABLE_RESPONSE"
)

// ExtractionError means the provider call or response parsing failed.
type ExtractionError struct {
	Code  string
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed (%s): %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("extraction failed (%s)", e.Code)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }
