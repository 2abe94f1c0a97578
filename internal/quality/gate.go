// Package quality decides whether an extraction is trustworthy enough for
// automatic record creation. A wrong auto-created record is worse than
// asking a human to type two fields.
package quality

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/llm"
)

type Config struct {
	MinConfidence float32 // below this, route to manual entry
	MinTextChars  int     // acquisitions shorter than this are untrusted
}

// Decision is the gate's routing verdict.
type Decision struct {
	Proceed bool
	Reason  string
}

type Gate struct {
	cfg    Config
	logger *slog.Logger
}

func NewGate(cfg Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.4
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 100
	}
	return &Gate{cfg: cfg, logger: logger}
}

// Assess routes to manual entry when any critical field is null, when
// confidence is below the floor, or when the acquired text was too short
// to trust. A null critical field forces manual entry regardless of
// confidence.
func (g *Gate) Assess(fields llm.FieldSet, acquiredTextLen int) Decision {
	spec, ok := constants.Spec(fields.Category)
	if !ok {
		return Decision{Proceed: false, Reason: fmt.Sprintf("unknown category %q", fields.Category)}
	}

	var missing []string
	for _, key := range spec.CriticalFields {
		if fields.IsNull(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		g.logger.Info("quality.manual_input", "reason", "missing_critical", "fields", missing)
		return Decision{
			Proceed: false,
			Reason:  "missing critical fields: " + strings.Join(missing, ", "),
		}
	}

	if fields.Confidence < g.cfg.MinConfidence {
		g.logger.Info("quality.manual_input", "reason", "low_confidence", "confidence", fields.Confidence)
		return Decision{
			Proceed: false,
			Reason:  fmt.Sprintf("extraction confidence %.2f below %.2f", fields.Confidence, g.cfg.MinConfidence),
		}
	}

	if acquiredTextLen < g.cfg.MinTextChars {
		g.logger.Info("quality.manual_input", "reason", "weak_acquisition", "text_len", acquiredTextLen)
		return Decision{
			Proceed: false,
			Reason:  fmt.Sprintf("acquired text too short to trust (%d chars)", acquiredTextLen),
		}
	}

	return Decision{Proceed: true}
}
