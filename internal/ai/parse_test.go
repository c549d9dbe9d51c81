package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "plain", input: ` [1] `, expect: `[1]`},
		{name: "json fence", input: "```json\n[1]\n```", expect: `[1]`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", expect: `{"a":1}`},
		{name: "inline backticks", input: "`[2]`", expect: `[2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, StripCodeFence(tt.input))
		})
	}
}

func TestParseBatchResponseDefaults(t *testing.T) {
	results, err := ParseBatchResponse(`[{"score": "0.7", "strengths": "Go"}, {"candidate_index": 2, "score": "high"}]`)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[0].CandidateIndex)
	assert.Equal(t, 0.7, results[0].Score)
	assert.Equal(t, []string{"Go"}, results[0].Strengths)
	assert.Equal(t, missingExplanation, results[0].Explanation)

	assert.Equal(t, 2, results[1].CandidateIndex)
	assert.Equal(t, missingScore, results[1].Score)
}

func TestParseBatchResponseRejectsNonArray(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"candidate_index": 0}`, "```json\n```"} {
		_, err := ParseBatchResponse(raw)
		assert.Error(t, err, raw)
	}
}
