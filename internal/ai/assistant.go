package ai

import (
	"context"
	"errors"
)

var (
	// ErrConfiguration means the AI path cannot be used at all, e.g. credentials are missing.
	ErrConfiguration = errors.New("ai matching is not configured")
	// ErrBatchFailed marks a single oracle batch whose candidates received default scores.
	ErrBatchFailed = errors.New("ai batch failed")
)

// Generator is a text-in, text-out model transport.
type Generator interface {
	GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Excerpt is the part of a candidate sent to the oracle.
type Excerpt struct {
	Name       string
	Skills     []string
	Education  []string
	Experience []string
	ResumeText string
}

// Oracle scores a batch of candidate excerpts against a job excerpt and returns
// the raw model output. Parsing is left to the caller.
type Oracle interface {
	ScoreBatch(ctx context.Context, systemPrompt, jobExcerpt string, candidates []Excerpt) (string, error)
}

// Result is one parsed oracle entry.
type Result struct {
	CandidateIndex int
	Score          float64
	Explanation    string
	Strengths      []string
	Concerns       []string
}

// BatchOutcome summarizes how one batch was scored.
type BatchOutcome struct {
	Index     int
	Size      int
	Scored    int
	Defaulted int
	// Err is set, wrapping ErrBatchFailed, when the whole batch fell back to defaults.
	Err error
}
