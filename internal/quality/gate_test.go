package quality

import (
	"strings"
	"testing"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/llm"
)

func fields(confidence float32, values map[string]any) llm.FieldSet {
	spec, _ := constants.Spec(constants.SafetyCertificate)
	full := make(map[string]any, len(spec.FieldKeys))
	for _, key := range spec.FieldKeys {
		full[key] = nil
	}
	for k, v := range values {
		full[k] = v
	}
	return llm.FieldSet{
		Category:   constants.SafetyCertificate,
		Keys:       append([]string(nil), spec.FieldKeys...),
		Values:     full,
		Confidence: confidence,
	}
}

func newGate() *Gate {
	return NewGate(Config{MinConfidence: 0.4, MinTextChars: 100}, nil)
}

func TestAssessProceeds(t *testing.T) {
	fs := fields(0.9, map[string]any{
		constants.FieldCertificateName: "Load Line Certificate",
		constants.FieldCertificateNo:   "LL-42",
	})
	d := newGate().Assess(fs, 500)
	if !d.Proceed {
		t.Fatalf("expected proceed, got: %s", d.Reason)
	}
}

func TestAssessNullCriticalForcesManualEvenAtFullConfidence(t *testing.T) {
	fs := fields(1.0, map[string]any{
		constants.FieldCertificateName: "Load Line Certificate",
		// certificate_number stays null
	})
	d := newGate().Assess(fs, 500)
	if d.Proceed {
		t.Fatalf("null critical field must force manual entry")
	}
	if !strings.Contains(d.Reason, constants.FieldCertificateNo) {
		t.Fatalf("reason should name the missing field, got: %s", d.Reason)
	}
}

func TestAssessLowConfidence(t *testing.T) {
	fs := fields(0.2, map[string]any{
		constants.FieldCertificateName: "Load Line Certificate",
		constants.FieldCertificateNo:   "LL-42",
	})
	d := newGate().Assess(fs, 500)
	if d.Proceed {
		t.Fatalf("confidence below floor must route to manual entry")
	}
}

func TestAssessWeakAcquisition(t *testing.T) {
	fs := fields(0.9, map[string]any{
		constants.FieldCertificateName: "Load Line Certificate",
		constants.FieldCertificateNo:   "LL-42",
	})
	d := newGate().Assess(fs, 20)
	if d.Proceed {
		t.Fatalf("short acquired text must route to manual entry")
	}
}

func TestAssessUnknownCategory(t *testing.T) {
	fs := llm.FieldSet{Category: constants.Category("Bogus"), Confidence: 1.0}
	if d := newGate().Assess(fs, 500); d.Proceed {
		t.Fatalf("unknown category must not proceed")
	}
}
