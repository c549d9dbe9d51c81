package ai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	missingScore       = 0.5
	missingExplanation = "No analysis available"
)

// StripCodeFence removes a surrounding markdown code fence (``` or ```json) from raw model output.
func StripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// ParseBatchResponse decodes the oracle output into results. The payload must be a JSON array;
// entries that are not objects are skipped. A missing index is read as 0 and a missing score as 0.5.
func ParseBatchResponse(raw string) ([]Result, error) {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("parse batch response: empty payload")
	}
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("parse batch response: invalid json")
	}

	parsed := gjson.Parse(cleaned)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("parse batch response: expected array, got %s", parsed.Type)
	}

	var results []Result
	for _, item := range parsed.Array() {
		if !item.IsObject() {
			continue
		}

		result := Result{
			CandidateIndex: int(item.Get("candidate_index").Int()),
			Score:          missingScore,
			Explanation:    missingExplanation,
			Strengths:      stringList(item.Get("strengths")),
			Concerns:       stringList(item.Get("concerns")),
		}
		if score, ok := numeric(item.Get("score")); ok {
			result.Score = score
		}
		if explanation := strings.TrimSpace(item.Get("explanation").String()); explanation != "" {
			result.Explanation = explanation
		}

		results = append(results, result)
	}

	return results, nil
}

func stringList(value gjson.Result) []string {
	if !value.Exists() {
		return nil
	}
	if !value.IsArray() {
		if s := strings.TrimSpace(value.String()); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	for _, v := range value.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func numeric(value gjson.Result) (float64, bool) {
	switch value.Type {
	case gjson.Number:
		return value.Float(), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
