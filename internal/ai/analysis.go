package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/utils"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const fallbackAnalysisScore = 0.5

// Analysis is a detailed single-candidate assessment.
type Analysis struct {
	Score           float64  `json:"score"`
	Strengths       []string `json:"strengths,omitempty"`
	Concerns        []string `json:"concerns,omitempty"`
	InterviewFocus  []string `json:"interview_focus,omitempty"`
	GrowthPotential string   `json:"growth_potential,omitempty"`
	Summary         string   `json:"summary,omitempty"`
}

// Analyzer produces detailed assessments for one candidate at a time.
type Analyzer struct {
	generator Generator
	opts      Options
	logger    *zap.Logger
}

func NewAnalyzer(generator Generator, log *zap.Logger, opts Options) (*Analyzer, error) {
	if generator == nil {
		return nil, errors.Join(ErrConfiguration, errors.New("generator is required"))
	}

	opts = opts.withDefaults()
	return &Analyzer{
		generator: generator,
		opts:      opts,
		logger:    logger.WithCommonFields(log, opts.Provider, opts.Model),
	}, nil
}

// Analyze always returns an analysis. On failure it is a fallback built from the
// candidate's current score and the error is returned alongside it.
func (a *Analyzer) Analyze(ctx context.Context, job *candidate.JobDescription, c *candidate.Candidate) (*Analysis, error) {
	if job == nil || c == nil {
		return fallbackAnalysis(c), errors.New("job description and candidate are required")
	}

	prompt := buildAnalysisPrompt(
		utils.Head(job.MatchText(), a.opts.JobBudget),
		c.DisplayName(),
		c.Skills,
		c.Education,
		c.Experience,
		utils.Head(c.ResumeText, a.opts.AnalysisBudget),
	)

	a.logger.Debug("ai analysis request",
		zap.String("candidate_id", c.ID),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.opts.MaxLogLength)),
	)

	raw, err := a.generator.GenerateContent(ctx, SystemPrompt(), prompt)
	if err != nil {
		return fallbackAnalysis(c), fmt.Errorf("detailed analysis: %w", err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		a.logger.Debug("ai analysis response is malformed",
			zap.String("candidate_id", c.ID),
			zap.String("response_preview", utils.TruncateForLog(raw, a.opts.MaxLogLength)),
		)
		return fallbackAnalysis(c), fmt.Errorf("detailed analysis: %w", err)
	}

	return analysis, nil
}

func parseAnalysis(raw string) (*Analysis, error) {
	cleaned := StripCodeFence(raw)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("parse analysis: invalid json")
	}

	parsed := gjson.Parse(cleaned)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("parse analysis: expected object, got %s", parsed.Type)
	}

	analysis := &Analysis{
		Score:           fallbackAnalysisScore,
		Strengths:       stringList(parsed.Get("strengths")),
		Concerns:        stringList(parsed.Get("concerns")),
		InterviewFocus:  stringList(parsed.Get("interview_focus")),
		GrowthPotential: strings.TrimSpace(parsed.Get("growth_potential").String()),
		Summary:         strings.TrimSpace(parsed.Get("summary").String()),
	}
	if score, ok := numeric(parsed.Get("score")); ok {
		analysis.Score = candidate.Clamp(score)
	}

	return analysis, nil
}

func fallbackAnalysis(c *candidate.Candidate) *Analysis {
	score := fallbackAnalysisScore
	if c != nil && c.HasScore() {
		score = c.ScoreValue()
	}

	return &Analysis{
		Score:           score,
		Strengths:       []string{"Analysis unavailable"},
		Concerns:        []string{"Analysis unavailable"},
		InterviewFocus:  []string{"General technical assessment"},
		GrowthPotential: "Unknown",
		Summary:         "Detailed analysis could not be completed",
	}
}
