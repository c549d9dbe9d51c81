package candidate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ScoreOrigin tells which matching path produced a candidate score.
type ScoreOrigin string

const (
	OriginNone      ScoreOrigin = ""
	OriginScored    ScoreOrigin = "scored"
	OriginDefaulted ScoreOrigin = "defaulted"
	OriginLexical   ScoreOrigin = "lexical"
)

// completenessFields is the number of fields counted by Completeness.
const completenessFields = 6

// Candidate is one parsed resume.
type Candidate struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Skills       []string          `json:"skills,omitempty"`
	Education    []string          `json:"education,omitempty"`
	Experience   []string          `json:"experience,omitempty"`
	Competencies map[string]string `json:"competencies,omitempty"`
	ResumePath   string            `json:"resume_path,omitempty"`
	ResumeText   string            `json:"resume_text,omitempty"`

	Score       *float64    `json:"score,omitempty"`
	Rank        int         `json:"rank,omitempty"`
	ScoreOrigin ScoreOrigin `json:"score_origin,omitempty"`
	AIAnalysis  string      `json:"ai_analysis,omitempty"`
	AIStrengths []string    `json:"ai_strengths,omitempty"`
	AIConcerns  []string    `json:"ai_concerns,omitempty"`
}

// New returns a candidate with a freshly generated id.
func New() *Candidate {
	return &Candidate{ID: uuid.NewString()}
}

// DisplayName returns the candidate name, the resume file stem or a short id based label.
func (c *Candidate) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	if c.ResumePath != "" {
		base := filepath.Base(c.ResumePath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	id := c.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Candidate_%s", id)
}

// HasScore reports whether a matcher has scored the candidate.
func (c *Candidate) HasScore() bool {
	return c.Score != nil
}

// ScoreValue returns the score or 0 when the candidate is unscored.
func (c *Candidate) ScoreValue() float64 {
	if c.Score == nil {
		return 0
	}
	return *c.Score
}

// SetScore stores the score clamped to [0, 1] together with its origin.
func (c *Candidate) SetScore(score float64, origin ScoreOrigin) {
	score = Clamp(score)
	c.Score = &score
	c.ScoreOrigin = origin
}

// ClearAI drops analysis produced by a previous AI run.
func (c *Candidate) ClearAI() {
	c.AIAnalysis = ""
	c.AIStrengths = nil
	c.AIConcerns = nil
}

// Completeness is the share of populated core fields: name, email, phone, skills, education and experience.
func (c *Candidate) Completeness() float64 {
	filled := 0
	for _, s := range []string{c.Name, c.Email, c.Phone} {
		if s != "" {
			filled++
		}
	}
	for _, list := range [][]string{c.Skills, c.Education, c.Experience} {
		if len(list) > 0 {
			filled++
		}
	}
	return float64(filled) / completenessFields
}

// Clamp limits a score to [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// JobDescription is a hiring requisition. The core never mutates it.
type JobDescription struct {
	ID            string   `json:"id"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description"`
	Requirements  []string `json:"requirements,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	FilePath      string   `json:"file_path,omitempty"`
	ProcessedText string   `json:"processed_text,omitempty"`
}

// MatchText is the text used for matching: processed text when present, description otherwise.
func (j *JobDescription) MatchText() string {
	if strings.TrimSpace(j.ProcessedText) != "" {
		return j.ProcessedText
	}
	return j.Description
}

func (j *JobDescription) DisplayName() string {
	if j.Title != "" {
		return j.Title
	}
	if j.FilePath != "" {
		base := filepath.Base(j.FilePath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	id := j.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Job_%s", id)
}
