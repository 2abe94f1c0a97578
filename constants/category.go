package constants

import "strings"

// Category is the compliance class a certificate is filed under.
type Category string

const (
	SafetyCertificate   Category = "SafetyCertificate"
	SecurityCertificate Category = "SecurityCertificate"
	LaborCompliance     Category = "LaborCompliance"
	ClassCertificate    Category = "ClassCertificate"
	AuditCertificate    Category = "AuditCertificate"
	CrewDocument        Category = "CrewDocument"
)

// Field keys shared by every certificate category. Extraction output must
// contain each of these keys, null when the value is not recoverable.
const (
	FieldCertificateName  = "certificate_name"
	FieldCertificateNo    = "certificate_number"
	FieldIssuingAuthority = "issuing_authority"
	FieldIssueDate        = "issue_date"
	FieldValidUntil       = "valid_until"
	FieldVesselIMO        = "vessel_imo"
	FieldVesselName       = "vessel_name"
)

// CategorySpec drives prompt building, quality gating and business
// validation for one category. Adding a category is a table entry, not a
// code change.
type CategorySpec struct {
	// FieldKeys is the exact, ordered key set the extractor must return.
	FieldKeys []string
	// CriticalFields are keys whose absence forces manual entry.
	CriticalFields []string
	// AllowedNames are normalized certificate-name fragments permitted in
	// this category; empty means any name is acceptable.
	AllowedNames []string
	// Abbreviations maps long issuing-authority names to their canonical
	// short forms, fed into the prompt vocabulary.
	Abbreviations map[string]string
}

var baseFieldKeys = []string{
	FieldCertificateName,
	FieldCertificateNo,
	FieldIssuingAuthority,
	FieldIssueDate,
	FieldValidUntil,
	FieldVesselIMO,
	FieldVesselName,
}

var baseCritical = []string{FieldCertificateName, FieldCertificateNo}

var authorityAbbreviations = map[string]string{
	"det norske veritas":                       "DNV",
	"lloyd's register":                         "LR",
	"bureau veritas":                           "BV",
	"american bureau of shipping":              "ABS",
	"nippon kaiji kyokai":                      "ClassNK",
	"international maritime organization":      "IMO",
	"maritime and coastguard agency":           "MCA",
	"norwegian maritime authority":             "NMA",
	"australian maritime safety authority":     "AMSA",
	"maritime and port authority of singapore": "MPA",
	"registro italiano navale":                 "RINA",
	"china classification society":             "CCS",
	"korean register of shipping":              "KR",
	"international labour organization":        "ILO",
	"panama maritime authority":                "PMA",
	"liberia maritime authority":               "LMA",
	"marshall islands maritime administration": "MIMA",
	"united states coast guard":                "USCG",
	"transport canada marine safety":           "TCMS",
	"danish maritime authority":                "DMA",
}

var categorySpecs = map[Category]CategorySpec{
	SafetyCertificate: {
		FieldKeys:      baseFieldKeys,
		CriticalFields: baseCritical,
		AllowedNames: []string{
			"safety", "safe manning", "load line", "tonnage", "pollution",
			"radio", "construction", "equipment", "iopp", "solas",
		},
		Abbreviations: authorityAbbreviations,
	},
	SecurityCertificate: {
		FieldKeys:      baseFieldKeys,
		CriticalFields: baseCritical,
		AllowedNames: []string{
			"security", "issc", "ship security", "continuous synopsis",
		},
		Abbreviations: authorityAbbreviations,
	},
	LaborCompliance: {
		FieldKeys:      baseFieldKeys,
		CriticalFields: baseCritical,
		AllowedNames: []string{
			"maritime labour", "mlc", "labour", "labor", "crew accommodation",
		},
		Abbreviations: authorityAbbreviations,
	},
	ClassCertificate: {
		FieldKeys:      baseFieldKeys,
		CriticalFields: baseCritical,
		AllowedNames: []string{
			"class", "classification", "hull", "machinery",
		},
	},
	// Audit certificates only accept safety/security/labor compliance
	// documents; filing anything else here is a hard reject.
	AuditCertificate: {
		FieldKeys:      baseFieldKeys,
		CriticalFields: baseCritical,
		AllowedNames: []string{
			"safety management", "smc", "document of compliance",
			"issc", "security", "mlc", "maritime labour", "audit",
		},
		Abbreviations: authorityAbbreviations,
	},
	CrewDocument: {
		FieldKeys:      baseFieldKeys,
		CriticalFields: baseCritical,
		AllowedNames:   nil, // crew documents carry free-form titles
		Abbreviations:  authorityAbbreviations,
	},
}

// Spec returns the table entry for cat; ok is false for unknown categories.
func Spec(cat Category) (CategorySpec, bool) {
	s, ok := categorySpecs[cat]
	return s, ok
}

func AllCategories() []Category {
	return []Category{
		SafetyCertificate,
		SecurityCertificate,
		LaborCompliance,
		ClassCertificate,
		AuditCertificate,
		CrewDocument,
	}
}

// ParseCategory resolves user input to a known category, case-insensitively.
func ParseCategory(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, cat := range AllCategories() {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return "", false
}

// CanonicalizeAuthority maps a long issuing-authority name to its canonical
// abbreviation when one is known; otherwise returns the trimmed input.
func CanonicalizeAuthority(name string) string {
	trimmed := strings.TrimSpace(name)
	if abbr, ok := authorityAbbreviations[strings.ToLower(trimmed)]; ok {
		return abbr
	}
	return trimmed
}
