package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/spigell/cv-ranker/internal/dedup"
	"go.uber.org/zap"
)

type duplicatesFilter struct {
	detector *dedup.Detector
	disabled bool
	reason   string
	logger   *zap.Logger

	threshold float64
}

// NewDuplicates creates a filter that keeps one candidate of every duplicate pair.
// A failed detection pass is logged and leaves the pool untouched.
func NewDuplicates(detector *dedup.Detector, threshold float64, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &duplicatesFilter{
		detector:  detector,
		threshold: threshold,
		logger:    logger,
	}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *duplicatesFilter) IsEnabled() bool { return !f.disabled }

func (f *duplicatesFilter) Validate() error {
	if f.detector == nil {
		return fmt.Errorf("duplicate detector is required")
	}
	return nil
}

func (f *duplicatesFilter) Apply(_ context.Context, p *candidate.Pool) (*candidate.Pool, Step, error) {
	initial := p.Len()

	pairs, err := f.detector.Detect(p.Items)
	if err != nil {
		f.logger.Warn("duplicate detection failed, skipping deduplication", zap.Error(err))
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	if len(pairs) == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	p.Items = dedup.Resolve(p.Items, pairs, f.logger)

	return p, Step{Initial: initial, Dropped: initial - p.Len(), Left: p.Len()}, nil
}

func (f *duplicatesFilter) Status() Status {
	details := map[string]string{
		"threshold": strconv.FormatFloat(f.threshold, 'f', 2, 64),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
