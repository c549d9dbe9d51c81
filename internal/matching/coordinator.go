package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/cv-ranker/internal/candidate"
	"go.uber.org/zap"
)

// Method names the path that produced a ranking.
type Method string

const (
	MethodAI              Method = "ai"
	MethodLexical         Method = "lexical"
	MethodLexicalFallback Method = "lexical_fallback"
)

// Result is a complete ranking plus how it was produced.
type Result struct {
	Candidates []*candidate.Candidate
	Method     Method
	// Selection is the inclusion policy for the method used.
	Selection Selection
}

// Coordinator picks AI or lexical matching and falls back to lexical when the AI path fails.
type Coordinator struct {
	newAI    func() (Matcher, error)
	lexical  Selection
	fallback Selection
	logger   *zap.Logger
}

// NewCoordinator builds a coordinator. newAI may be nil when no AI provider is configured.
func NewCoordinator(newAI func() (Matcher, error), lexical, fallback Selection, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		newAI:    newAI,
		lexical:  lexical,
		fallback: fallback,
		logger:   logger,
	}
}

// Run ranks candidates. AI matching is attempted only when preferAI and aiAvailable are both set;
// any AI failure is logged and answered with lexical matching under the wider fallback selection.
func (c *Coordinator) Run(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate, preferAI, aiAvailable bool) (*Result, error) {
	if preferAI && aiAvailable && c.newAI != nil {
		ranked, err := c.runAI(ctx, job, candidates)
		if err == nil {
			c.logger.Info("candidates ranked", zap.String("method", string(MethodAI)), zap.Int("candidates", len(ranked)))
			return &Result{Candidates: ranked, Method: MethodAI, Selection: c.lexical}, nil
		}

		c.logger.Warn("ai matching failed, falling back to lexical matching", zap.Error(err))
		return c.runLexical(ctx, job, candidates, MethodLexicalFallback, c.fallback)
	}

	if preferAI && !aiAvailable {
		c.logger.Info("ai matching requested but no credentials are configured, using lexical matching")
	}

	return c.runLexical(ctx, job, candidates, MethodLexical, c.lexical)
}

func (c *Coordinator) runAI(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate) (ranked []*candidate.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ai matching panicked: %v", r)
		}
	}()

	matcher, err := c.newAI()
	if err != nil {
		return nil, fmt.Errorf("create ai matcher: %w", err)
	}
	if matcher == nil {
		return nil, errors.New("ai matcher is not available")
	}

	ranked, err = matcher.Match(ctx, job, candidates)
	if err != nil {
		return nil, err
	}
	if err := checkRanking(ranked, len(candidates)); err != nil {
		return nil, err
	}

	return ranked, nil
}

func (c *Coordinator) runLexical(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate, method Method, selection Selection) (*Result, error) {
	lexical := NewLexical(selection, c.logger)
	ranked, err := lexical.Match(ctx, job, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatchingFailed, err)
	}
	if err := checkRanking(ranked, len(candidates)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatchingFailed, err)
	}

	c.logger.Info("candidates ranked", zap.String("method", string(method)), zap.Int("candidates", len(ranked)))
	return &Result{Candidates: ranked, Method: method, Selection: lexical.Selection()}, nil
}

// checkRanking verifies that every candidate is scored within [0, 1] and ranks are exactly 1..N.
func checkRanking(ranked []*candidate.Candidate, want int) error {
	if len(ranked) != want {
		return fmt.Errorf("ranking returned %d candidates, want %d", len(ranked), want)
	}
	if !candidate.DenselyRanked(ranked) {
		return errors.New("ranking is incomplete")
	}
	for _, c := range ranked {
		if s := c.ScoreValue(); s < 0 || s > 1 {
			return fmt.Errorf("candidate %s has score %v out of range", c.ID, s)
		}
	}
	return nil
}
