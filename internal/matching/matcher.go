package matching

import (
	"context"
	"errors"

	"github.com/spigell/cv-ranker/internal/candidate"
)

// ErrMatchingFailed is returned when no matching path produced a ranking.
var ErrMatchingFailed = errors.New("matching failed")

// Matcher scores candidates against a job and returns them ranked.
type Matcher interface {
	Match(ctx context.Context, job *candidate.JobDescription, candidates []*candidate.Candidate) ([]*candidate.Candidate, error)
}

// Selection is the inclusion policy applied to a ranked list:
// keep candidates scoring at least Threshold, at most TopCount of them.
type Selection struct {
	TopCount  int     `mapstructure:"top-candidates-count" validate:"gte=1"`
	Threshold float64 `mapstructure:"similarity-threshold" validate:"gte=0,lte=1"`
}

var (
	DefaultSelection  = Selection{TopCount: 10, Threshold: 0.1}
	FallbackSelection = Selection{TopCount: 20, Threshold: 0.01}
)
