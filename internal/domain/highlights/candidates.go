package highlights

import (
	"sort"

	"github.com/forPelevin/vocalcut/internal/types"
)

// MinImportance is the exclusive lower bound for a segment to be considered.
const MinImportance = 0.3

// Select builds a cut plan that fits into target seconds.
//
// Policy: greedy by importance, not an optimal knapsack. Candidates are
// visited from most to least important (ties keep transcript order) and each
// one is admitted if it still fits. A segment that would overflow the budget
// is skipped and the scan continues, since a later, shorter segment may fit.
// The admitted set is returned in chronological order.
//
// An empty plan is not an error here; callers decide what an empty plan means.
func Select(scored []types.ScoredSegment, target float64) (types.CutPlan, error) {
	if !(target > 0) { // also rejects NaN
		return nil, types.ErrInvalidBudget
	}

	cands := Candidates(scored)
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Importance > cands[j].Importance
	})

	var (
		plan    types.CutPlan
		running float64
	)
	for _, c := range cands {
		d := c.Duration()
		if d <= 0 {
			continue
		}
		if running+d > target {
			continue
		}
		plan = append(plan, c)
		running += d
	}

	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Start < plan[j].Start })
	return dropOverlaps(plan), nil
}

// Candidates keeps the segments eligible for selection, in transcript order.
func Candidates(scored []types.ScoredSegment) []types.ScoredSegment {
	out := make([]types.ScoredSegment, 0, len(scored))
	for _, s := range scored {
		if s.IsRedundant || s.Importance <= MinImportance {
			continue
		}
		out = append(out, s)
	}
	return out
}

// dropOverlaps guards against backends that emit overlapping timestamps. The
// earlier segment wins.
func dropOverlaps(plan types.CutPlan) types.CutPlan {
	if len(plan) < 2 {
		return plan
	}
	out := plan[:1]
	for _, s := range plan[1:] {
		if s.Start < out[len(out)-1].End {
			continue
		}
		out = append(out, s)
	}
	return out
}
