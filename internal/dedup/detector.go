package dedup

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/spigell/cv-ranker/internal/candidate"
	"go.uber.org/zap"
)

const (
	DefaultThreshold = 0.85

	contentWeight = 0.4
	contactWeight = 0.3
	skillsWeight  = 0.3
)

// ErrDetection is returned when the detection pass cannot run at all.
var ErrDetection = errors.New("duplicate detection failed")

// Pair is two candidates considered the same person.
type Pair struct {
	A, B       *candidate.Candidate
	Similarity float64
}

// Detector finds duplicate submissions by comparing all candidate pairs.
type Detector struct {
	threshold float64
	hasher    Hasher
	logger    *zap.Logger
}

func NewDetector(threshold float64, hasher Hasher, logger *zap.Logger) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if hasher == nil {
		hasher = FileHasher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{threshold: threshold, hasher: hasher, logger: logger}
}

// Detect returns every pair i<j whose similarity reaches the threshold, in input order.
func (d *Detector) Detect(candidates []*candidate.Candidate) ([]Pair, error) {
	for i, c := range candidates {
		if c == nil {
			return nil, fmt.Errorf("%w: candidate %d is nil", ErrDetection, i)
		}
	}

	hasher := newMemoHasher(d.hasher)

	var pairs []Pair
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]

			similarity := d.safeSimilarity(hasher, a, b)
			if similarity < d.threshold {
				continue
			}

			pairs = append(pairs, Pair{A: a, B: b, Similarity: similarity})
			d.logger.Info("duplicate found",
				zap.String("first", a.DisplayName()),
				zap.String("second", b.DisplayName()),
				zap.Float64("similarity", similarity),
			)
		}
	}

	d.logger.Info("duplicate detection finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("pairs", len(pairs)),
	)

	return pairs, nil
}

// Similarity scores one pair in [0, 1]. Identical resume files score 1.
func (d *Detector) Similarity(a, b *candidate.Candidate) float64 {
	return d.safeSimilarity(d.hasher, a, b)
}

func (d *Detector) safeSimilarity(hasher Hasher, a, b *candidate.Candidate) (similarity float64) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("similarity computation panicked", zap.Any("panic", r))
			similarity = 0
		}
	}()

	identical, err := sameFile(hasher, a.ResumePath, b.ResumePath)
	if err != nil {
		d.logger.Warn("comparing resume files failed",
			zap.String("first", a.ResumePath),
			zap.String("second", b.ResumePath),
			zap.Error(err),
		)
		return 0
	}
	if identical {
		return 1
	}

	return contentWeight*ContentSimilarity(a, b) +
		contactWeight*ContactSimilarity(a, b) +
		skillsWeight*SkillsSimilarity(a, b)
}

func sameFile(hasher Hasher, pathA, pathB string) (bool, error) {
	if pathA == "" || pathB == "" {
		return false, nil
	}

	sumA, foundA, err := hasher.Hash(pathA)
	if err != nil || !foundA {
		return false, err
	}
	sumB, foundB, err := hasher.Hash(pathB)
	if err != nil || !foundB {
		return false, err
	}

	return sumA == sumB, nil
}

// ContentSimilarity is the Jaccard index of lowercase whitespace-separated resume tokens.
func ContentSimilarity(a, b *candidate.Candidate) float64 {
	return jaccard(strings.Fields(strings.ToLower(a.ResumeText)), strings.Fields(strings.ToLower(b.ResumeText)))
}

// ContactSimilarity averages email, phone and name matches over the checks both sides can answer.
func ContactSimilarity(a, b *candidate.Candidate) float64 {
	checks, matches := 0, 0

	if a.Email != "" && b.Email != "" {
		checks++
		if strings.EqualFold(a.Email, b.Email) {
			matches++
		}
	}
	if a.Phone != "" && b.Phone != "" {
		checks++
		if digits(a.Phone) == digits(b.Phone) {
			matches++
		}
	}
	if a.Name != "" && b.Name != "" {
		checks++
		if strings.ToLower(strings.TrimSpace(a.Name)) == strings.ToLower(strings.TrimSpace(b.Name)) {
			matches++
		}
	}

	if checks == 0 {
		return 0
	}
	return float64(matches) / float64(checks)
}

// SkillsSimilarity is the Jaccard index of lowercase skill sets.
func SkillsSimilarity(a, b *candidate.Candidate) float64 {
	return jaccard(lowerAll(a.Skills), lowerAll(b.Skills))
}

func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func lowerAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, strings.ToLower(s))
	}
	return out
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
