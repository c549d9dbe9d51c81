package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/cv-ranker/internal/candidate"
	"go.uber.org/zap"
)

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes candidates listed in the exclude file by id or e-mail.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{
		path:   strings.TrimSpace(path),
		logger: logger,
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, p *candidate.Pool) (*candidate.Pool, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded, err := candidate.GetExcludedFromFile(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	removed := p.Exclude(excluded.Matches(p))
	if len(removed) > 0 {
		f.logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

// AppendToExcludeFile records every pool candidate in the exclude file and returns the number added.
func AppendToExcludeFile(path string, p *candidate.Pool, actor, reason string) (int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, fmt.Errorf("exclude file is not configured")
	}

	excluded, err := candidate.GetExcludedFromFile(path)
	if err != nil {
		return 0, err
	}

	additions := p.ToExcluded(actor, reason)
	excluded.Append(additions)

	if err := excluded.ToFile(path); err != nil {
		return 0, err
	}

	return len(additions.Items), nil
}
