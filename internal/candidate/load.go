package candidate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// LoadCandidates reads already-extracted candidate records from a JSON file.
// The file holds either an array of records or an object with a "candidates" array.
// Records without an id, or repeating an id seen earlier in the file, get a new one.
func LoadCandidates(path string) ([]*Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates file %q: %w", path, err)
	}

	return DecodeCandidates(data)
}

// DecodeCandidates decodes candidate records from raw JSON.
func DecodeCandidates(data []byte) ([]*Candidate, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse candidates: %w", err)
	}

	var items any
	switch typed := raw.(type) {
	case []any:
		items = typed
	case map[string]any:
		list, ok := typed["candidates"]
		if !ok {
			return nil, fmt.Errorf("parse candidates: object without \"candidates\" key")
		}
		items = list
	default:
		return nil, fmt.Errorf("parse candidates: unexpected top-level %T", raw)
	}

	var candidates []*Candidate
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &candidates,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	seen := make(map[string]struct{}, len(candidates))
	for i, c := range candidates {
		if c == nil {
			return nil, fmt.Errorf("decode candidates: record %d is empty", i)
		}
		if _, dup := seen[c.ID]; dup || strings.TrimSpace(c.ID) == "" {
			c.ID = uuid.NewString()
		}
		seen[c.ID] = struct{}{}
	}

	return candidates, nil
}

// LoadJobDescription reads a job description from a JSON document or a plain text file.
func LoadJobDescription(path string) (*JobDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job description %q: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		var job JobDescription
		if err := json.Unmarshal(data, &job); err != nil {
			return nil, fmt.Errorf("parse job description %q: %w", path, err)
		}
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		if job.FilePath == "" {
			job.FilePath = path
		}
		return &job, nil
	case ".txt", ".md", "":
		text := strings.TrimSpace(string(data))
		return &JobDescription{
			ID:            uuid.NewString(),
			Title:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Description:   text,
			FilePath:      path,
			ProcessedText: NormalizeText(text),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported job description format: %s", ext)
	}
}

// NormalizeText collapses all whitespace runs into single spaces.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
