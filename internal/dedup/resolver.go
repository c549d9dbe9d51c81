package dedup

import (
	"github.com/spigell/cv-ranker/internal/candidate"
	"go.uber.org/zap"
)

// Decide returns the candidate to discard from a duplicate pair: the lower score when both
// are scored and differ, else the less complete record, else the second one.
func Decide(a, b *candidate.Candidate) *candidate.Candidate {
	if a.HasScore() && b.HasScore() {
		switch {
		case a.ScoreValue() > b.ScoreValue():
			return b
		case b.ScoreValue() > a.ScoreValue():
			return a
		}
	}

	switch ca, cb := a.Completeness(), b.Completeness(); {
	case ca > cb:
		return b
	case cb > ca:
		return a
	}

	return b
}

// Resolve drops one candidate per pair and returns the rest in their original order.
// A candidate discarded by any pair stays discarded. Discards are keyed by id, so a pair
// whose members share an id is skipped: dropping that id would remove both.
func Resolve(candidates []*candidate.Candidate, pairs []Pair, logger *zap.Logger) []*candidate.Candidate {
	if logger == nil {
		logger = zap.NewNop()
	}

	discard := make(map[string]struct{})
	for _, p := range pairs {
		if p.A.ID == p.B.ID {
			logger.Warn("duplicate pair shares one id, keeping both",
				zap.String("id", p.A.ID),
				zap.Float64("similarity", p.Similarity),
			)
			continue
		}

		loser := Decide(p.A, p.B)
		discard[loser.ID] = struct{}{}
		logger.Info("marking duplicate for removal",
			zap.String("candidate", loser.DisplayName()),
			zap.Float64("similarity", p.Similarity),
		)
	}

	kept := make([]*candidate.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := discard[c.ID]; ok {
			continue
		}
		kept = append(kept, c)
	}

	logger.Info("duplicates removed", zap.Int("removed", len(candidates)-len(kept)))
	return kept
}
