package candidate

import "sort"

// Rank returns a copy of the list stably sorted by score, highest first, with
// dense 1-based ranks assigned. Unscored candidates sort as score 0.
func Rank(list []*Candidate) []*Candidate {
	ranked := make([]*Candidate, len(list))
	copy(ranked, list)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ScoreValue() > ranked[j].ScoreValue()
	})

	for i, c := range ranked {
		c.Rank = i + 1
	}

	return ranked
}

// DenselyRanked reports whether every candidate is scored and ranks form exactly 1..N.
func DenselyRanked(list []*Candidate) bool {
	seen := make([]bool, len(list)+1)
	for _, c := range list {
		if c == nil || !c.HasScore() {
			return false
		}
		if c.Rank < 1 || c.Rank > len(list) || seen[c.Rank] {
			return false
		}
		seen[c.Rank] = true
	}
	return true
}
