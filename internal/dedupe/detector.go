// Package dedupe fuzzy-matches a candidate certificate against existing
// records for the same vessel so re-uploads get a human confirmation
// instead of a silent duplicate row.
package dedupe

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
	"github.com/odunayo-falade/fleetdocs/internal/llm"
)

// Candidate is an existing record similar enough to the one being created
// that a human should confirm it is not a re-upload.
type Candidate struct {
	Record     entity.CertificateRecord `json:"record"`
	Similarity float64                  `json:"similarity"`
}

type Config struct {
	SimilarityFloor float64 // candidates below this are not reported
}

type Detector struct {
	cfg    Config
	logger *slog.Logger
}

func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SimilarityFloor <= 0 {
		cfg.SimilarityFloor = 0.85
	}
	return &Detector{cfg: cfg, logger: logger}
}

// FindDuplicates matches on normalized certificate name + number, scoped
// to the vessel. Exact match on both scores 1.0; an exact number with a
// near-equal name scores by edit-distance similarity. Candidates at or
// above the floor are returned in descending similarity order; an empty
// result means no duplicate.
func (d *Detector) FindDuplicates(fields llm.FieldSet, vesselID uuid.UUID, existing []entity.CertificateRecord) []Candidate {
	name := normalize(fields.String(constants.FieldCertificateName))
	number := normalize(fields.String(constants.FieldCertificateNo))
	if name == "" && number == "" {
		return nil
	}

	var candidates []Candidate
	for _, record := range existing {
		if record.VesselID != vesselID {
			continue
		}
		existingName := normalize(record.Name)
		existingNumber := normalize(record.Number)

		var similarity float64
		switch {
		case name == existingName && number == existingNumber:
			similarity = 1.0
		case number != "" && number == existingNumber:
			similarity = levenshtein.Similarity(name, existingName, nil)
		default:
			continue
		}
		if similarity >= d.cfg.SimilarityFloor {
			candidates = append(candidates, Candidate{Record: record, Similarity: similarity})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > 0 {
		d.logger.Info("dedupe.candidates_found",
			"vessel_id", vesselID, "count", len(candidates),
			"top_similarity", candidates[0].Similarity)
	}
	return candidates
}

// normalize lowercases and collapses whitespace for matching.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
