package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type matcherFunc func(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate) ([]*candidate.Candidate, error)

func (f matcherFunc) Match(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate) ([]*candidate.Candidate, error) {
	return f(ctx, job, candidates)
}

func twoCandidates() []*candidate.Candidate {
	return []*candidate.Candidate{
		{ID: "y", ResumeText: "Graphic designer, Photoshop"},
		{ID: "x", ResumeText: "Python Django AWS backend engineer"},
	}
}

func TestCoordinatorFallsBackWhenOracleAlwaysFails(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	calls := 0
	newAI := func() (Matcher, error) {
		return matcherFunc(func(context.Context, *candidate.JobDescription, []*candidate.Candidate) ([]*candidate.Candidate, error) {
			calls++
			return nil, errors.New("oracle unreachable")
		}), nil
	}

	coordinator := NewCoordinator(newAI, DefaultSelection, FallbackSelection, zap.New(core))
	result, err := coordinator.Run(context.Background(), backendJob(), twoCandidates(), true, true)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, MethodLexicalFallback, result.Method)
	assert.Equal(t, FallbackSelection, result.Selection)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "x", result.Candidates[0].ID)
	assert.True(t, candidate.DenselyRanked(result.Candidates))
	assert.Equal(t, 1, logs.FilterMessage("ai matching failed, falling back to lexical matching").Len())
}

func TestCoordinatorFallsBackOnConstructionError(t *testing.T) {
	newAI := func() (Matcher, error) { return nil, errors.New("missing api key") }

	result, err := NewCoordinator(newAI, DefaultSelection, FallbackSelection, nil).
		Run(context.Background(), backendJob(), twoCandidates(), true, true)
	require.NoError(t, err)
	assert.Equal(t, MethodLexicalFallback, result.Method)
}

func TestCoordinatorFallsBackOnPanicAndPartialRanking(t *testing.T) {
	tests := []struct {
		name  string
		match matcherFunc
	}{
		{
			name: "panic",
			match: func(context.Context, *candidate.JobDescription, []*candidate.Candidate) ([]*candidate.Candidate, error) {
				panic("boom")
			},
		},
		{
			name: "unscored candidate",
			match: func(_ context.Context, _ *candidate.JobDescription, list []*candidate.Candidate) ([]*candidate.Candidate, error) {
				list[0].SetScore(0.9, candidate.OriginScored)
				list[0].Rank = 1
				list[1].Score = nil
				list[1].Rank = 2
				return list, nil
			},
		},
		{
			name: "dropped candidate",
			match: func(_ context.Context, _ *candidate.JobDescription, list []*candidate.Candidate) ([]*candidate.Candidate, error) {
				return candidate.Rank(list[:1]), nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newAI := func() (Matcher, error) { return tt.match, nil }
			result, err := NewCoordinator(newAI, DefaultSelection, FallbackSelection, nil).
				Run(context.Background(), backendJob(), twoCandidates(), true, true)
			require.NoError(t, err)
			assert.Equal(t, MethodLexicalFallback, result.Method)
			assert.Len(t, result.Candidates, 2)
			assert.True(t, candidate.DenselyRanked(result.Candidates))
		})
	}
}

func TestCoordinatorUsesAIResult(t *testing.T) {
	newAI := func() (Matcher, error) {
		return matcherFunc(func(_ context.Context, _ *candidate.JobDescription, list []*candidate.Candidate) ([]*candidate.Candidate, error) {
			for _, c := range list {
				c.SetScore(0.5, candidate.OriginScored)
			}
			return candidate.Rank(list), nil
		}), nil
	}

	result, err := NewCoordinator(newAI, DefaultSelection, FallbackSelection, nil).
		Run(context.Background(), backendJob(), twoCandidates(), true, true)
	require.NoError(t, err)

	assert.Equal(t, MethodAI, result.Method)
	assert.Equal(t, DefaultSelection, result.Selection)
	assert.Equal(t, "y", result.Candidates[0].ID)
}

func TestCoordinatorLexicalWhenAINotRequestedOrUnavailable(t *testing.T) {
	newAI := func() (Matcher, error) {
		t.Fatal("ai matcher must not be built")
		return nil, nil
	}

	for _, flags := range [][2]bool{{false, true}, {true, false}, {false, false}} {
		result, err := NewCoordinator(newAI, DefaultSelection, FallbackSelection, nil).
			Run(context.Background(), backendJob(), twoCandidates(), flags[0], flags[1])
		require.NoError(t, err)
		assert.Equal(t, MethodLexical, result.Method)
		assert.Equal(t, DefaultSelection, result.Selection)
	}
}

func TestCoordinatorReportsSingleErrorWhenBothPathsFail(t *testing.T) {
	newAI := func() (Matcher, error) { return nil, errors.New("no ai") }

	_, err := NewCoordinator(newAI, DefaultSelection, FallbackSelection, nil).
		Run(context.Background(), nil, twoCandidates(), true, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMatchingFailed)
}
