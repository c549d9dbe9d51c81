package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/spigell/cv-ranker/internal/matching"
	"go.uber.org/zap"
)

type topFilter struct {
	selection matching.Selection
	logger    *zap.Logger
}

// NewTop keeps ranked candidates scoring at least the threshold, at most TopCount of them.
// The pool must already be ranked; ranks are left untouched so they stay dense.
func NewTop(selection matching.Selection, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &topFilter{selection: selection, logger: logger}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(string) {}

func (f *topFilter) IsEnabled() bool { return true }

func (f *topFilter) Validate() error { return nil }

func (f *topFilter) Apply(_ context.Context, p *candidate.Pool) (*candidate.Pool, Step, error) {
	initial := p.Len()

	kept := make([]*candidate.Candidate, 0, initial)
	for _, c := range p.Items {
		if f.selection.TopCount > 0 && len(kept) >= f.selection.TopCount {
			break
		}
		if c.ScoreValue() < f.selection.Threshold {
			continue
		}
		kept = append(kept, c)
	}

	if dropped := initial - len(kept); dropped > 0 {
		f.logger.Debug("dropping candidates outside of selection",
			zap.Int("top_candidates_count", f.selection.TopCount),
			zap.Float64("similarity_threshold", f.selection.Threshold),
			zap.Int("dropped", dropped),
		)
	}

	p.Items = kept
	return p, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

func (f *topFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{
		"top_candidates_count": strconv.Itoa(f.selection.TopCount),
		"similarity_threshold": strconv.FormatFloat(f.selection.Threshold, 'f', 2, 64),
	}}
}
