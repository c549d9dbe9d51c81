package matching

import (
	"context"
	"fmt"
	"math"

	"github.com/spigell/cv-ranker/internal/candidate"
	"go.uber.org/zap"
)

// Lexical scores candidates by TF-IDF cosine similarity between the job text and resume text.
type Lexical struct {
	selection Selection
	logger    *zap.Logger
}

func NewLexical(selection Selection, logger *zap.Logger) *Lexical {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lexical{selection: selection, logger: logger}
}

// Selection returns the inclusion policy the caller should apply to the ranking.
func (l *Lexical) Selection() Selection {
	return l.selection
}

// Match scores every candidate; none is dropped here. Empty resume text scores 0.
func (l *Lexical) Match(_ context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate) ([]*candidate.Candidate, error) {
	if job == nil {
		return nil, fmt.Errorf("job description is required")
	}

	docs := make([][]string, 0, len(candidates)+1)
	docs = append(docs, tokenize(job.MatchText()))
	for i, c := range candidates {
		if c == nil {
			return nil, fmt.Errorf("candidate %d is nil", i)
		}
		docs = append(docs, tokenize(c.ResumeText))
	}

	vectors := tfidf(docs)
	jobVector := vectors[0]

	for i, c := range candidates {
		c.ClearAI()
		c.SetScore(dot(jobVector, vectors[i+1]), candidate.OriginLexical)
	}

	ranked := candidate.Rank(candidates)

	l.logger.Debug("lexical matching finished",
		zap.Int("candidates", len(ranked)),
		zap.Int("job_terms", len(jobVector)),
	)

	return ranked, nil
}

type vector map[string]float64

// tfidf builds L2-normalized vectors with raw term counts and smoothed idf: ln((1+n)/(1+df)) + 1.
func tfidf(docs [][]string) []vector {
	df := make(map[string]int)
	counts := make([]map[string]int, len(docs))
	for i, terms := range docs {
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		counts[i] = tf
	}

	n := float64(len(docs))
	vectors := make([]vector, len(docs))
	for i, tf := range counts {
		v := make(vector, len(tf))
		var norm float64
		for t, count := range tf {
			w := float64(count) * (math.Log((1+n)/(1+float64(df[t]))) + 1)
			v[t] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range v {
				v[t] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors
}

func dot(a, b vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for t, w := range a {
		sum += w * b[t]
	}
	return candidate.Clamp(sum)
}
