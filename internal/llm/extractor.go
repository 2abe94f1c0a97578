// Package llm turns acquired document text into a normalized FieldSet by
// prompting a language-model provider and strictly validating its reply.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/odunayo-falade/fleetdocs/constants"
)

type Config struct {
	MaxPromptChars int // bounded prefix of acquired text fed to the model
}

type Extractor struct {
	provider Provider
	cfg      Config
	logger   *slog.Logger
}

func NewExtractor(provider Provider, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 4000
	}
	return &Extractor{provider: provider, cfg: cfg, logger: logger}
}

// Extract prompts the provider for the category's field set and parses the
// response. A malformed first response is retried once with a stricter
// JSON-only instruction before surfacing an unparseable-response error.
func (e *Extractor) Extract(ctx context.Context, text string, category constants.Category, filename string) (FieldSet, error) {
	spec, ok := constants.Spec(category)
	if !ok {
		return FieldSet{}, fmt.Errorf("unknown document category %q", category)
	}

	prompt := BuildPrompt(text, category, spec, filename, e.cfg.MaxPromptChars)
	start := time.Now()
	e.logger.Info("llm.extract.start",
		"category", category, "filename", filename, "text_len", len(text))

	content, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error("llm.extract.provider_error", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return FieldSet{}, &ExtractionError{Code: CodeProviderFailure, Cause: err}
	}

	fields, parseErr := e.parse(content, category, spec)
	if parseErr != nil {
		e.logger.Warn("llm.extract.retry_strict", "error", parseErr)
		content, err = e.provider.Complete(ctx, prompt+StrictJSONReminder)
		if err != nil {
			return FieldSet{}, &ExtractionError{Code: CodeProviderFailure, Cause: err}
		}
		fields, parseErr = e.parse(content, category, spec)
		if parseErr != nil {
			e.logger.Error("llm.extract.unparseable", "error", parseErr,
				"elapsed_ms", time.Since(start).Milliseconds())
			return FieldSet{}, &ExtractionError{Code: CodeUnparseableResponse, Cause: parseErr}
		}
	}

	e.logger.Info("llm.extract.ok",
		"category", category,
		"certificate", fields.String(constants.FieldCertificateName),
		"number", fields.String(constants.FieldCertificateNo),
		"confidence", fields.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}

func (e *Extractor) parse(content string, category constants.Category, spec constants.CategorySpec) (FieldSet, error) {
	payload, err := ExtractJSONPayload(content)
	if err != nil {
		return FieldSet{}, err
	}
	raw, err := decodeObject(payload)
	if err != nil {
		return FieldSet{}, err
	}

	cleaned, adjusted := NormalizeFields(raw, spec)
	if len(adjusted) > 0 {
		e.logger.Warn("llm.extract.normalized", "adjustments", adjusted)
	}

	normalized, err := json.Marshal(cleaned)
	if err != nil {
		return FieldSet{}, err
	}
	if err := ValidateAgainstSchema(BuildFieldSchema(spec.FieldKeys), normalized); err != nil {
		return FieldSet{}, err
	}

	fields := FieldSet{
		Category: category,
		Keys:     append([]string(nil), spec.FieldKeys...),
		Values:   cleaned,
	}
	fields.Confidence = resolveConfidence(fields, spec)
	delete(fields.Values, "confidence")
	return fields, nil
}

// resolveConfidence prefers the provider's own score when supplied, else
// derives one: 0.7 when both critical fields are present, scaled down by
// the null fraction otherwise.
func resolveConfidence(fields FieldSet, spec constants.CategorySpec) float32 {
	if v, ok := fields.Values["confidence"].(float64); ok && v > 0 && v <= 1 {
		return float32(v)
	}
	const base = 0.7
	for _, key := range spec.CriticalFields {
		if fields.IsNull(key) {
			return base * (1 - fields.NullFraction())
		}
	}
	return base
}
