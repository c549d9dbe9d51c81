package ai

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize      = 5
	DefaultJobBudget      = 2000
	DefaultResumeBudget   = 1500
	DefaultAnalysisBudget = 3000
	DefaultScore          = 0.3
	defaultMaxLogLength   = 200

	analysisIncomplete = "Analysis incomplete"
	analysisParseError = "AI analysis parsing failed - using default scoring"
)

// Options tunes batching, truncation and fallback scoring.
type Options struct {
	BatchSize      int
	JobBudget      int
	ResumeBudget   int
	AnalysisBudget int
	DefaultScore   float64
	MaxLogLength   int
	// Provider and Model only decorate log entries.
	Provider string
	Model    string
}

// DefaultOptions returns the stock batching and fallback settings.
func DefaultOptions() Options {
	return Options{
		BatchSize:      DefaultBatchSize,
		JobBudget:      DefaultJobBudget,
		ResumeBudget:   DefaultResumeBudget,
		AnalysisBudget: DefaultAnalysisBudget,
		DefaultScore:   DefaultScore,
		MaxLogLength:   defaultMaxLogLength,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = def.BatchSize
	}
	if o.JobBudget <= 0 {
		o.JobBudget = def.JobBudget
	}
	if o.ResumeBudget <= 0 {
		o.ResumeBudget = def.ResumeBudget
	}
	if o.AnalysisBudget <= 0 {
		o.AnalysisBudget = def.AnalysisBudget
	}
	if o.DefaultScore <= 0 {
		o.DefaultScore = def.DefaultScore
	}
	if o.MaxLogLength <= 0 {
		o.MaxLogLength = def.MaxLogLength
	}
	return o
}

// Matcher ranks candidates by asking the oracle to score them in fixed-size batches.
type Matcher struct {
	oracle Oracle
	opts   Options
	logger *zap.Logger
}

func NewMatcher(oracle Oracle, log *zap.Logger, opts Options) (*Matcher, error) {
	if oracle == nil {
		return nil, errors.Join(ErrConfiguration, errors.New("scoring oracle is required"))
	}

	opts = opts.withDefaults()
	return &Matcher{
		oracle: oracle,
		opts:   opts,
		logger: logger.WithCommonFields(log, opts.Provider, opts.Model),
	}, nil
}

// Match scores every candidate and returns them ranked. Batch failures degrade to
// default scores; Match never leaves a candidate unscored.
func (m *Matcher) Match(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate) ([]*candidate.Candidate, error) {
	ranked, _, err := m.MatchWithReport(ctx, job, candidates)
	return ranked, err
}

// MatchWithReport is Match plus the per-batch outcome list.
func (m *Matcher) MatchWithReport(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate) ([]*candidate.Candidate, []BatchOutcome, error) {
	if job == nil {
		return nil, nil, fmt.Errorf("job description is required")
	}
	for i, c := range candidates {
		if c == nil {
			return nil, nil, fmt.Errorf("candidate %d is nil", i)
		}
	}

	jobExcerpt := utils.Head(job.MatchText(), m.opts.JobBudget)

	var outcomes []BatchOutcome
	for start, index := 0, 0; start < len(candidates); start, index = start+m.opts.BatchSize, index+1 {
		end := start + m.opts.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		outcome := m.scoreBatch(ctx, index, jobExcerpt, candidates[start:end])
		outcomes = append(outcomes, outcome)
	}

	ranked := candidate.Rank(candidates)

	defaulted := 0
	for _, o := range outcomes {
		defaulted += o.Defaulted
	}
	m.logger.Info("ai matching finished",
		zap.Int("candidates", len(ranked)),
		zap.Int("batches", len(outcomes)),
		zap.Int("defaulted", defaulted),
	)

	return ranked, outcomes, nil
}

func (m *Matcher) scoreBatch(ctx context.Context, index int, jobExcerpt string, batch []*candidate.Candidate) BatchOutcome {
	log := m.logger.With(logger.BatchFields(index, len(batch))...)
	outcome := BatchOutcome{Index: index, Size: len(batch)}

	excerpts := make([]Excerpt, 0, len(batch))
	for _, c := range batch {
		c.ClearAI()
		excerpts = append(excerpts, Excerpt{
			Name:       c.DisplayName(),
			Skills:     firstN(c.Skills, maxPromptSkills),
			Education:  firstN(c.Education, maxPromptEducation),
			Experience: firstN(c.Experience, maxPromptExperience),
			ResumeText: utils.Head(c.ResumeText, m.opts.ResumeBudget),
		})
	}

	raw, err := m.oracle.ScoreBatch(ctx, SystemPrompt(), jobExcerpt, excerpts)
	if err != nil {
		log.Warn("ai batch call failed, using default scores", zap.Error(err))
		m.defaultAll(batch, fmt.Sprintf("AI analysis unavailable: %v", err))
		outcome.Defaulted = len(batch)
		outcome.Err = fmt.Errorf("%w: batch %d: %w", ErrBatchFailed, index, err)
		return outcome
	}

	log.Debug("ai batch response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.opts.MaxLogLength)),
	)

	results, err := ParseBatchResponse(raw)
	if err != nil {
		log.Warn("ai batch response is malformed, using default scores", zap.Error(err))
		m.defaultAll(batch, analysisParseError)
		outcome.Defaulted = len(batch)
		outcome.Err = fmt.Errorf("%w: batch %d: %w", ErrBatchFailed, index, err)
		return outcome
	}

	assigned := make([]bool, len(batch))
	for _, r := range results {
		if r.CandidateIndex < 0 || r.CandidateIndex >= len(batch) {
			log.Debug("ai result index out of batch range", zap.Int("candidate_index", r.CandidateIndex))
			continue
		}
		if assigned[r.CandidateIndex] {
			continue
		}

		c := batch[r.CandidateIndex]
		c.SetScore(r.Score, candidate.OriginScored)
		c.AIAnalysis = r.Explanation
		c.AIStrengths = r.Strengths
		c.AIConcerns = r.Concerns
		assigned[r.CandidateIndex] = true
		outcome.Scored++
	}

	for i, ok := range assigned {
		if ok {
			continue
		}
		m.applyDefault(batch[i], analysisIncomplete)
		outcome.Defaulted++
	}

	if outcome.Defaulted > 0 {
		log.Info("ai batch returned incomplete results", zap.Int("defaulted", outcome.Defaulted))
	}

	return outcome
}

func (m *Matcher) defaultAll(batch []*candidate.Candidate, analysis string) {
	for _, c := range batch {
		m.applyDefault(c, analysis)
	}
}

func (m *Matcher) applyDefault(c *candidate.Candidate, analysis string) {
	c.SetScore(m.opts.DefaultScore, candidate.OriginDefaulted)
	c.AIAnalysis = analysis
	c.AIStrengths = nil
	c.AIConcerns = nil
}
