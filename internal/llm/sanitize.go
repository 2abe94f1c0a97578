package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/odunayo-falade/fleetdocs/constants"
)

// ExtractJSONPayload strips provider formatting quirks (code fences,
// leading or trailing prose) and returns the raw JSON object bytes.
func ExtractJSONPayload(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	if fenced, ok := stripCodeFence(s); ok {
		s = fenced
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	return []byte(s[start : end+1]), nil
}

func stripCodeFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return s, false
	}
	s = strings.TrimPrefix(s, "```")
	// drop an optional language tag such as "json"
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s), true
}

// nullMarkers are string values some models emit instead of JSON null.
var nullMarkers = map[string]struct{}{
	"null": {}, "none": {}, "n/a": {}, "na": {}, "unknown": {}, "-": {},
}

// NormalizeFields trims extracted values, converts null-marker strings to
// real nulls, canonicalizes the issuing authority, drops unknown keys, and
// guarantees every declared key is present. Returns the cleaned map and
// the list of adjustments made.
func NormalizeFields(raw map[string]any, spec constants.CategorySpec) (map[string]any, []string) {
	var adjusted []string
	declared := make(map[string]struct{}, len(spec.FieldKeys))
	for _, key := range spec.FieldKeys {
		declared[key] = struct{}{}
	}

	cleaned := make(map[string]any, len(spec.FieldKeys))
	for key, value := range raw {
		if key == "confidence" {
			cleaned[key] = value
			continue
		}
		if _, ok := declared[key]; !ok {
			adjusted = append(adjusted, key+"(unknown)")
			continue
		}
		switch v := value.(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				cleaned[key] = nil
				adjusted = append(adjusted, key+"(empty)")
				continue
			}
			if _, isNull := nullMarkers[strings.ToLower(s)]; isNull {
				cleaned[key] = nil
				adjusted = append(adjusted, key+"(null-marker)")
				continue
			}
			if key == constants.FieldIssuingAuthority {
				if canon := constants.CanonicalizeAuthority(s); canon != s {
					adjusted = append(adjusted, key+"(canonicalized)")
					s = canon
				}
			}
			if key == constants.FieldVesselIMO {
				s = normalizeIMO(s)
			}
			cleaned[key] = s
		case float64, nil:
			cleaned[key] = v
		case bool:
			// the schema has no boolean fields; treat as noise
			cleaned[key] = nil
			adjusted = append(adjusted, key+"(type)")
		default:
			cleaned[key] = nil
			adjusted = append(adjusted, key+"(type)")
		}
	}

	// Every declared key must exist, null when absent.
	for _, key := range spec.FieldKeys {
		if _, ok := cleaned[key]; !ok {
			cleaned[key] = nil
			adjusted = append(adjusted, key+"(missing)")
		}
	}
	return cleaned, adjusted
}

// normalizeIMO strips the conventional "IMO" prefix and spacing so only
// registry digits remain.
func normalizeIMO(s string) string {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	upper = strings.TrimPrefix(upper, "IMO")
	upper = strings.TrimSpace(strings.TrimPrefix(upper, ":"))
	var digits strings.Builder
	for _, r := range upper {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return s
	}
	return digits.String()
}

// decodeObject parses payload bytes into a generic map.
func decodeObject(payload []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return m, nil
}
