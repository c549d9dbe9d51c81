package dedup

import (
	"testing"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withScore(c *candidate.Candidate, score float64) *candidate.Candidate {
	c.SetScore(score, candidate.OriginLexical)
	return c
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		a, b    *candidate.Candidate
		discard string
	}{
		{
			name:    "higher score wins",
			a:       withScore(&candidate.Candidate{ID: "a"}, 0.2),
			b:       withScore(&candidate.Candidate{ID: "b", Name: "B", Email: "b@x"}, 0.1),
			discard: "b",
		},
		{
			name:    "higher score wins from second position",
			a:       withScore(&candidate.Candidate{ID: "a", Name: "A"}, 0.1),
			b:       withScore(&candidate.Candidate{ID: "b"}, 0.7),
			discard: "a",
		},
		{
			name:    "equal scores fall through to completeness",
			a:       withScore(&candidate.Candidate{ID: "a"}, 0.5),
			b:       withScore(&candidate.Candidate{ID: "b", Email: "b@x"}, 0.5),
			discard: "a",
		},
		{
			name:    "one side unscored uses completeness",
			a:       &candidate.Candidate{ID: "a", Name: "A", Phone: "1"},
			b:       withScore(&candidate.Candidate{ID: "b", Name: "B"}, 0.9),
			discard: "b",
		},
		{
			name:    "full tie keeps first",
			a:       &candidate.Candidate{ID: "a", Name: "A"},
			b:       &candidate.Candidate{ID: "b", Name: "B"},
			discard: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.discard, Decide(tt.a, tt.b).ID)
		})
	}
}

func TestResolveKeepsOrderAndNeverResurrects(t *testing.T) {
	a := withScore(&candidate.Candidate{ID: "a"}, 0.9)
	b := withScore(&candidate.Candidate{ID: "b"}, 0.5)
	c := withScore(&candidate.Candidate{ID: "c"}, 0.1)
	d := &candidate.Candidate{ID: "d"}

	twinA := &candidate.Candidate{ID: "twin", Name: "Ann", ResumePath: "/cv/ann.pdf"}
	twinB := &candidate.Candidate{ID: "twin", Name: "Ann", ResumePath: "/cv/ann.pdf"}

	tests := []struct {
		name  string
		list  []*candidate.Candidate
		pairs []Pair
		want  []string
	}{
		{
			name:  "chained pairs",
			list:  []*candidate.Candidate{d, c, b, a},
			pairs: []Pair{{A: a, B: b}, {A: b, B: c}},
			want:  []string{"d", "a"},
		},
		{
			name:  "pair sharing an id keeps both records",
			list:  []*candidate.Candidate{twinA, d, twinB},
			pairs: []Pair{{A: twinA, B: twinB, Similarity: 1}},
			want:  []string{"twin", "d", "twin"},
		},
		{
			name:  "same record paired with itself",
			list:  []*candidate.Candidate{twinA, d},
			pairs: []Pair{{A: twinA, B: twinA, Similarity: 1}},
			want:  []string{"twin", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := len(tt.list)
			kept := Resolve(tt.list, tt.pairs, nil)

			assert.Equal(t, tt.want, candidate.NewPool(kept).IDs())
			assert.Len(t, tt.list, size)
		})
	}
}

func TestDetectAndResolveKeepsOneOfResubmittedResume(t *testing.T) {
	first := &candidate.Candidate{ID: "first", Name: "Ann", Email: "ann@x.com", Skills: []string{"go"}, ResumeText: "go developer"}
	second := &candidate.Candidate{ID: "second", Name: "Ann", Email: "ann@x.com", Skills: []string{"go"}, ResumeText: "go developer"}
	other := &candidate.Candidate{ID: "other", Name: "Bob", Email: "bob@x.com", Skills: []string{"java"}, ResumeText: "java developer"}
	list := []*candidate.Candidate{first, second, other}

	pairs, err := NewDetector(DefaultThreshold, &countingHasher{}, nil).Detect(list)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	assert.Equal(t, []string{"first", "other"}, candidate.NewPool(Resolve(list, pairs, nil)).IDs())
}

func TestDetectAndResolveIsIdempotent(t *testing.T) {
	list := []*candidate.Candidate{
		{ID: "1", Name: "Ann", Email: "ann@x.com", Skills: []string{"go"}, ResumeText: "go developer"},
		{ID: "2", Name: "Ann", Email: "ann@x.com", Skills: []string{"go"}, ResumeText: "go developer"},
		{ID: "3", Name: "Bob", Email: "bob@x.com", Skills: []string{"java"}, ResumeText: "java developer"},
		{ID: "4", Name: "Ann", Email: "ANN@x.com", Phone: "555", Skills: []string{"Go"}, ResumeText: "go developer"},
	}
	d := NewDetector(DefaultThreshold, &countingHasher{}, nil)

	pairs, err := d.Detect(list)
	require.NoError(t, err)
	once := Resolve(list, pairs, nil)

	pairs, err = d.Detect(once)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	twice := Resolve(once, pairs, nil)
	assert.Equal(t, candidate.NewPool(once).IDs(), candidate.NewPool(twice).IDs())
	assert.Equal(t, []string{"3", "4"}, candidate.NewPool(once).IDs())
}
