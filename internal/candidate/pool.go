package candidate

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Pool is the working list of candidates passed between filters.
type Pool struct {
	Items []*Candidate
}

func NewPool(items []*Candidate) *Pool {
	return &Pool{Items: items}
}

func (p *Pool) Len() int {
	return len(p.Items)
}

func (p *Pool) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, c := range p.Items {
		ids = append(ids, c.ID)
	}
	return ids
}

func (p *Pool) FindByID(id string) *Candidate {
	for _, c := range p.Items {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Exclude removes candidates whose id is in ids and returns the removed ids.
// The relative order of the remaining candidates is preserved.
func (p *Pool) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var removed []string
	kept := p.Items[:0:0]
	for _, c := range p.Items {
		if _, ok := drop[c.ID]; ok {
			removed = append(removed, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	p.Items = kept

	return removed
}

// DumpToTmpFile writes the pool as indented JSON into a temp file and returns its name.
func (p *Pool) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByRank returns a flat, rank-ordered summary suitable for logging.
func (p *Pool) ReportByRank() []map[string]string {
	report := make([]map[string]string, 0, len(p.Items))
	for _, c := range p.Items {
		entry := map[string]string{
			"rank":   fmt.Sprintf("%d", c.Rank),
			"name":   c.DisplayName(),
			"score":  fmt.Sprintf("%.3f", c.ScoreValue()),
			"origin": string(c.ScoreOrigin),
		}
		if c.Email != "" {
			entry["email"] = c.Email
		}
		if c.AIAnalysis != "" {
			entry["ai_analysis"] = c.AIAnalysis
		}
		if len(c.AIStrengths) > 0 {
			entry["ai_strengths"] = strings.Join(c.AIStrengths, "; ")
		}
		if len(c.AIConcerns) > 0 {
			entry["ai_concerns"] = strings.Join(c.AIConcerns, "; ")
		}
		report = append(report, entry)
	}
	return report
}
