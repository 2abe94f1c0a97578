package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/odunayo-falade/fleetdocs/constants"
)

type fakeProvider struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no queued response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

const goodResponse = `{
	"certificate_name": "Cargo Ship Safety Equipment Certificate",
	"certificate_number": "SEC-2024-118",
	"issuing_authority": "Det Norske Veritas",
	"issue_date": "2024-03-01",
	"valid_until": "2029-03-01",
	"vessel_imo": "IMO 9321483",
	"vessel_name": "MV Northern Light",
	"confidence": 0.92
}`

func TestExtractParsesAndNormalizes(t *testing.T) {
	provider := &fakeProvider{responses: []string{goodResponse}}
	e := NewExtractor(provider, Config{}, nil)

	fields, err := e.Extract(context.Background(), "document text", constants.SafetyCertificate, "cert.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fields.String(constants.FieldCertificateName); got != "Cargo Ship Safety Equipment Certificate" {
		t.Fatalf("unexpected certificate name: %q", got)
	}
	if got := fields.String(constants.FieldIssuingAuthority); got != "DNV" {
		t.Fatalf("authority not canonicalized: %q", got)
	}
	if got := fields.String(constants.FieldVesselIMO); got != "9321483" {
		t.Fatalf("imo not normalized: %q", got)
	}
	if fields.Confidence != 0.92 {
		t.Fatalf("expected provider confidence 0.92, got %v", fields.Confidence)
	}
	if _, ok := fields.Values["confidence"]; ok {
		t.Fatalf("confidence must not remain in Values")
	}
	for _, key := range fields.Keys {
		if _, ok := fields.Values[key]; !ok {
			t.Fatalf("declared key %q missing from Values", key)
		}
	}
}

func TestExtractRetriesOnceOnMalformedResponse(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"Sorry, I can only answer questions.",
		"```json\n" + goodResponse + "\n```",
	}}
	e := NewExtractor(provider, Config{}, nil)

	fields, err := e.Extract(context.Background(), "text", constants.SafetyCertificate, "cert.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.prompts) != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[1], StrictJSONReminder) {
		t.Fatalf("retry prompt must carry the strict JSON reminder")
	}
	if fields.String(constants.FieldCertificateNo) != "SEC-2024-118" {
		t.Fatalf("unexpected number: %q", fields.String(constants.FieldCertificateNo))
	}
}

func TestExtractUnparseableAfterRetry(t *testing.T) {
	provider := &fakeProvider{responses: []string{"prose", "more prose"}}
	e := NewExtractor(provider, Config{}, nil)

	_, err := e.Extract(context.Background(), "text", constants.SafetyCertificate, "cert.pdf")
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if xerr.Code != CodeUnparseableResponse {
		t.Fatalf("expected %s, got %s", CodeUnparseableResponse, xerr.Code)
	}
	if len(provider.prompts) != 2 {
		t.Fatalf("expected exactly two provider calls, got %d", len(provider.prompts))
	}
}

func TestExtractProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	e := NewExtractor(provider, Config{}, nil)

	_, err := e.Extract(context.Background(), "text", constants.SafetyCertificate, "cert.pdf")
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if xerr.Code != CodeProviderFailure {
		t.Fatalf("expected %s, got %s", CodeProviderFailure, xerr.Code)
	}
}

func TestExtractUnknownCategory(t *testing.T) {
	e := NewExtractor(&fakeProvider{responses: []string{goodResponse}}, Config{}, nil)
	if _, err := e.Extract(context.Background(), "text", constants.Category("Unknown"), "f.pdf"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestExtractDerivedConfidenceWhenProviderOmitsIt(t *testing.T) {
	response := `{
		"certificate_name": "Load Line Certificate",
		"certificate_number": "LL-1",
		"issuing_authority": null,
		"issue_date": null,
		"valid_until": null,
		"vessel_imo": null,
		"vessel_name": null
	}`
	provider := &fakeProvider{responses: []string{response}}
	e := NewExtractor(provider, Config{}, nil)

	fields, err := e.Extract(context.Background(), "text", constants.SafetyCertificate, "cert.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both critical fields present: the derived base confidence applies.
	if fields.Confidence != 0.7 {
		t.Fatalf("expected derived confidence 0.7, got %v", fields.Confidence)
	}
}

func TestExtractDerivedConfidenceScalesWithNulls(t *testing.T) {
	response := `{
		"certificate_name": null,
		"certificate_number": null,
		"issuing_authority": null,
		"issue_date": null,
		"valid_until": null,
		"vessel_imo": null,
		"vessel_name": null
	}`
	provider := &fakeProvider{responses: []string{response}}
	e := NewExtractor(provider, Config{}, nil)

	fields, err := e.Extract(context.Background(), "text", constants.SafetyCertificate, "cert.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Confidence != 0 {
		t.Fatalf("all-null extraction must score zero, got %v", fields.Confidence)
	}
}

func TestBuildPromptTruncatesText(t *testing.T) {
	spec, _ := constants.Spec(constants.SafetyCertificate)
	long := strings.Repeat("x", 10000)
	prompt := BuildPrompt(long, constants.SafetyCertificate, spec, "cert.pdf", 4000)
	if strings.Contains(prompt, strings.Repeat("x", 4001)) {
		t.Fatalf("prompt text not truncated")
	}
	for _, key := range spec.FieldKeys {
		if !strings.Contains(prompt, key) {
			t.Fatalf("prompt missing field key %q", key)
		}
	}
}
