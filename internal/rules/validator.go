// Package rules enforces the business checks on extracted fields: the
// document must belong to the vessel it is being filed against, and its
// certificate must be permitted in the chosen category.
package rules

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
	"github.com/odunayo-falade/fleetdocs/internal/llm"
)

// Kind is the validation outcome class.
type Kind string

const (
	Accepted         Kind = "ACCEPTED"
	AcceptedWithNote Kind = "ACCEPTED_WITH_NOTE"
	RejectedHard     Kind = "REJECTED_HARD"
)

// Rejection reasons.
const (
	ReasonOwnershipMismatch = "OWNERSHIP_MISMATCH"
	ReasonCategoryMismatch  = "CATEGORY_MISMATCH"
)

// Verdict is the composed result of the identity and category checks.
// A hard rejection short-circuits; soft findings accumulate as notes.
type Verdict struct {
	Kind   Kind
	Reason string
	Notes  []string
}

func (v Verdict) Note() string { return strings.Join(v.Notes, "; ") }

type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// Validate composes the identity and category checks. The identifier is
// authoritative: a mismatch is a hard reject no matter how confident the
// extraction was. A vessel-name mismatch alone is a soft warning.
func (v *Validator) Validate(fields llm.FieldSet, vessel entity.Vessel, category constants.Category) Verdict {
	var notes []string

	// Identity check: exact identifier mismatch means the wrong document
	// was uploaded for the wrong vessel.
	if imo := normalizeIdentifier(fields.String(constants.FieldVesselIMO)); imo != "" {
		if imo != normalizeIdentifier(vessel.IMONumber) {
			v.logger.Warn("rules.ownership_mismatch",
				"extracted_imo", imo, "vessel_imo", vessel.IMONumber)
			return Verdict{
				Kind:   RejectedHard,
				Reason: ReasonOwnershipMismatch,
				Notes: []string{fmt.Sprintf(
					"document IMO %s does not match vessel IMO %s", imo, vessel.IMONumber)},
			}
		}
	}

	if name := fields.String(constants.FieldVesselName); name != "" {
		if normalizeName(name) != normalizeName(vessel.Name) {
			notes = append(notes, fmt.Sprintf(
				"vessel name %q in document does not match target %q; verify manually",
				name, vessel.Name))
		}
	}

	// Category check: the certificate name must belong to the category the
	// caller is uploading into.
	spec, ok := constants.Spec(category)
	if !ok {
		return Verdict{Kind: RejectedHard, Reason: ReasonCategoryMismatch,
			Notes: []string{fmt.Sprintf("unknown category %q", category)}}
	}
	certName := fields.String(constants.FieldCertificateName)
	if len(spec.AllowedNames) > 0 && !nameAllowed(certName, spec.AllowedNames) {
		v.logger.Warn("rules.category_mismatch", "certificate", certName, "category", category)
		return Verdict{
			Kind:   RejectedHard,
			Reason: ReasonCategoryMismatch,
			Notes: []string{fmt.Sprintf(
				"certificate %q is not permitted in category %s", certName, category)},
		}
	}

	if len(notes) > 0 {
		return Verdict{Kind: AcceptedWithNote, Notes: notes}
	}
	return Verdict{Kind: Accepted}
}

func nameAllowed(certName string, allowed []string) bool {
	normalized := normalizeName(certName)
	if normalized == "" {
		return false
	}
	for _, fragment := range allowed {
		if strings.Contains(normalized, normalizeName(fragment)) {
			return true
		}
	}
	return false
}

// normalizeIdentifier keeps registry digits only, so "IMO 9321483" and
// "9321483" compare equal.
func normalizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeName lowercases and collapses whitespace.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
