package candidate

import (
	"encoding/json"
	"os"
	"strings"
	"time"
)

const (
	ExcludeActorUser = "user"
	ExcludeActorAI   = "ai"
)

// ExcludedCandidates is the content of an exclude file.
type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	ID         string
	Email      string    `json:",omitempty"`
	Name       string    `json:",omitempty"`
	Actor      string    `json:",omitempty"`
	Reason     string    `json:",omitempty"`
	ExcludedAt time.Time
}

// ToExcluded converts the pool into exclude file entries.
func (p *Pool) ToExcluded(actor, reason string) *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	for _, c := range p.Items {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         c.ID,
			Email:      c.Email,
			Name:       c.DisplayName(),
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedFromFile reads an exclude file. A missing or empty file yields an empty list.
func GetExcludedFromFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedCandidates{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCandidates) Append(s *ExcludedCandidates) {
	e.Items = append(e.Items, s.Items...)
}

// Matches returns the ids of pool candidates listed by id or by e-mail (case-insensitive).
func (e *ExcludedCandidates) Matches(p *Pool) []string {
	ids := make(map[string]struct{}, len(e.Items))
	emails := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		if item.ID != "" {
			ids[item.ID] = struct{}{}
		}
		if email := strings.ToLower(strings.TrimSpace(item.Email)); email != "" {
			emails[email] = struct{}{}
		}
	}

	var matched []string
	for _, c := range p.Items {
		if _, ok := ids[c.ID]; ok {
			matched = append(matched, c.ID)
			continue
		}
		if _, ok := emails[strings.ToLower(strings.TrimSpace(c.Email))]; ok && c.Email != "" {
			matched = append(matched, c.ID)
		}
	}
	return matched
}

func (e *ExcludedCandidates) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
