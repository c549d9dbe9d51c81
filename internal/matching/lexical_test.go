package matching

import (
	"context"
	"fmt"
	"testing"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func backendJob() *candidate.JobDescription {
	return &candidate.JobDescription{ID: "job", Description: "Python backend engineer, 5 years, Django, AWS"}
}

func TestLexicalRanksRelevantCandidateFirst(t *testing.T) {
	x := &candidate.Candidate{ID: "x", Skills: []string{"Python", "Django", "AWS"}, ResumeText: "Python backend engineer, 5 years, Django, AWS"}
	y := &candidate.Candidate{ID: "y", ResumeText: "Graphic designer, Photoshop"}

	ranked, err := NewLexical(DefaultSelection, zap.NewNop()).Match(context.Background(), backendJob(), []*candidate.Candidate{y, x})
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "x", ranked[0].ID)
	assert.Equal(t, 1, x.Rank)
	assert.Equal(t, 2, y.Rank)
	assert.Greater(t, x.ScoreValue(), y.ScoreValue())
	assert.InDelta(t, 1.0, x.ScoreValue(), 1e-9)
	assert.Equal(t, 0.0, y.ScoreValue())
	assert.Equal(t, candidate.OriginLexical, x.ScoreOrigin)
}

func TestLexicalEmptyResumeScoresZero(t *testing.T) {
	a := &candidate.Candidate{ID: "a"}
	b := &candidate.Candidate{ID: "b", ResumeText: "   "}
	c := &candidate.Candidate{ID: "c", ResumeText: "Django developer", AIAnalysis: "old"}

	ranked, err := NewLexical(DefaultSelection, nil).Match(context.Background(), backendJob(), []*candidate.Candidate{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b"}, candidate.NewPool(ranked).IDs())
	assert.True(t, a.HasScore())
	assert.Equal(t, 0.0, a.ScoreValue())
	assert.Empty(t, c.AIAnalysis)
}

func TestLexicalRankDensityAndScoreRange(t *testing.T) {
	texts := []string{
		"python django aws",
		"",
		"java spring kubernetes",
		"python python python flask",
		"c++ embedded engineer",
		"django aws python backend engineer node.js",
		"backend",
	}

	list := make([]*candidate.Candidate, 0, len(texts))
	for i, text := range texts {
		list = append(list, &candidate.Candidate{ID: fmt.Sprintf("c%d", i), ResumeText: text})
	}

	ranked, err := NewLexical(DefaultSelection, nil).Match(context.Background(), backendJob(), list)
	require.NoError(t, err)

	assert.True(t, candidate.DenselyRanked(ranked))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].ScoreValue(), ranked[i].ScoreValue())
	}
	for _, c := range ranked {
		assert.GreaterOrEqual(t, c.ScoreValue(), 0.0)
		assert.LessOrEqual(t, c.ScoreValue(), 1.0)
	}
}

func TestLexicalRejectsNilInput(t *testing.T) {
	l := NewLexical(DefaultSelection, nil)
	assert.Equal(t, DefaultSelection, l.Selection())

	_, err := l.Match(context.Background(), nil, nil)
	assert.Error(t, err)

	_, err = l.Match(context.Background(), backendJob(), []*candidate.Candidate{nil})
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "drops stop words and punctuation", input: "The Python, and the Django!", expect: []string{"python", "django"}},
		{name: "keeps language names", input: "C++ C# Node.js.", expect: []string{"c++", "c#", "node.js"}},
		{name: "drops single characters", input: "a b 5 go", expect: []string{"go"}},
		{name: "empty", input: "  ", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, tokenize(tt.input))
		})
	}
}
