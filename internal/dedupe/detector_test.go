package dedupe

import (
	"testing"

	"github.com/google/uuid"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
	"github.com/odunayo-falade/fleetdocs/internal/llm"
)

var vesselID = uuid.MustParse("58b0a3e4-2d17-4f5f-9f37-7a54c7f6a6de")

func candidateFields(name, number string) llm.FieldSet {
	return llm.FieldSet{
		Category: constants.SafetyCertificate,
		Keys:     []string{constants.FieldCertificateName, constants.FieldCertificateNo},
		Values: map[string]any{
			constants.FieldCertificateName: name,
			constants.FieldCertificateNo:   number,
		},
	}
}

func record(vessel uuid.UUID, name, number string) entity.CertificateRecord {
	return entity.CertificateRecord{
		ID:       uuid.New(),
		VesselID: vessel,
		Category: constants.SafetyCertificate,
		Name:     name,
		Number:   number,
	}
}

func newDetector() *Detector {
	return NewDetector(Config{SimilarityFloor: 0.85}, nil)
}

func TestFindDuplicatesExactMatch(t *testing.T) {
	existing := []entity.CertificateRecord{
		record(vesselID, "Load Line Certificate", "LL-42"),
	}
	got := newDetector().FindDuplicates(candidateFields("Load Line Certificate", "LL-42"), vesselID, existing)
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %d", len(got))
	}
	if got[0].Similarity != 1.0 {
		t.Fatalf("exact match must score 1.0, got %v", got[0].Similarity)
	}
}

func TestFindDuplicatesIgnoresOtherVessels(t *testing.T) {
	existing := []entity.CertificateRecord{
		record(uuid.New(), "Load Line Certificate", "LL-42"),
	}
	got := newDetector().FindDuplicates(candidateFields("Load Line Certificate", "LL-42"), vesselID, existing)
	if len(got) != 0 {
		t.Fatalf("records of other vessels must not match, got %d", len(got))
	}
}

func TestFindDuplicatesFuzzyNameSameNumber(t *testing.T) {
	existing := []entity.CertificateRecord{
		record(vesselID, "Load Line Certificate", "LL-42"),
	}
	// OCR noise in the name only; the number still matches exactly.
	got := newDetector().FindDuplicates(candidateFields("Load Line Certifcate", "LL-42"), vesselID, existing)
	if len(got) != 1 {
		t.Fatalf("near-identical name with exact number must match, got %d", len(got))
	}
	if got[0].Similarity >= 1.0 || got[0].Similarity < 0.85 {
		t.Fatalf("expected similarity in [0.85, 1.0), got %v", got[0].Similarity)
	}
}

func TestFindDuplicatesUnrelatedName(t *testing.T) {
	existing := []entity.CertificateRecord{
		record(vesselID, "International Oil Pollution Prevention Certificate", "IOPP-7"),
	}
	got := newDetector().FindDuplicates(candidateFields("Safe Manning Document", "SMD-3"), vesselID, existing)
	if len(got) != 0 {
		t.Fatalf("unrelated certificates must not match, got %d", len(got))
	}
}

func TestFindDuplicatesSortedBySimilarity(t *testing.T) {
	existing := []entity.CertificateRecord{
		record(vesselID, "Load Line Certifikate", "LL-42"),
		record(vesselID, "Load Line Certificate", "LL-42"),
	}
	got := newDetector().FindDuplicates(candidateFields("Load Line Certificate", "LL-42"), vesselID, existing)
	if len(got) != 2 {
		t.Fatalf("expected two candidates, got %d", len(got))
	}
	if got[0].Similarity < got[1].Similarity {
		t.Fatalf("candidates must be sorted by descending similarity")
	}
	if got[0].Similarity != 1.0 {
		t.Fatalf("best candidate must be the exact match")
	}
}

func TestFindDuplicatesEmptyFields(t *testing.T) {
	existing := []entity.CertificateRecord{
		record(vesselID, "Load Line Certificate", "LL-42"),
	}
	got := newDetector().FindDuplicates(candidateFields("", ""), vesselID, existing)
	if got != nil {
		t.Fatalf("no extracted identity must yield no candidates")
	}
}
