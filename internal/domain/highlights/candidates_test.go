package highlights

import (
	"errors"
	"math"
	"testing"

	"github.com/forPelevin/vocalcut/internal/types"
)

func seg(start, end, importance float64, redundant bool) types.ScoredSegment {
	return types.ScoredSegment{
		TranscriptSegment: types.TranscriptSegment{Start: start, End: end, Text: "x"},
		Importance:        importance,
		IsRedundant:       redundant,
	}
}

func TestSelect_RejectsNonPositiveBudget(t *testing.T) {
	scored := []types.ScoredSegment{seg(0, 30, 0.9, false), seg(40, 100, 0.8, false)}
	for _, target := range []float64{0, -1, math.NaN(), math.Inf(-1)} {
		plan, err := Select(scored, target)
		if !errors.Is(err, types.ErrInvalidBudget) {
			t.Fatalf("target %v: expected ErrInvalidBudget, got %v", target, err)
		}
		if len(plan) != 0 {
			t.Fatalf("target %v: expected no plan, got %d entries", target, len(plan))
		}
	}
}

func TestSelect_Scenario(t *testing.T) {
	scored := Classify([]types.TranscriptSegment{
		{Start: 0, End: 5, Text: "呃 测试"},
		{Start: 5, End: 15, Text: "这是重要的结论数据"},
		{Start: 15, End: 18, Text: "嗯"},
	})
	plan, err := Select(scored, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 || plan[0].Start != 5 || plan[0].End != 15 {
		t.Fatalf("expected only the 5-15 segment, got %+v", plan)
	}
	if plan.TotalDuration() > 10 {
		t.Fatalf("plan exceeds budget: %v", plan.TotalDuration())
	}
}

func TestSelect_SkipsOversizedAndKeepsScanning(t *testing.T) {
	scored := []types.ScoredSegment{
		seg(0, 8, 0.9, false),   // admitted first
		seg(10, 20, 0.8, false), // would overflow, skipped
		seg(30, 32, 0.6, false), // still fits
	}
	plan, err := Select(scored, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 2 {
		t.Fatalf("expected 2 segments, got %+v", plan)
	}
	if plan[0].Start != 0 || plan[1].Start != 30 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestSelect_FiltersRedundantAndLowImportance(t *testing.T) {
	scored := []types.ScoredSegment{
		seg(0, 1, 1.0, true),
		seg(1, 2, 0.3, false),
		seg(2, 3, 0.31, false),
	}
	plan, err := Select(scored, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 || plan[0].Start != 2 {
		t.Fatalf("expected only the 2-3 segment, got %+v", plan)
	}
	for _, s := range plan {
		if s.IsRedundant {
			t.Fatalf("redundant segment in plan: %+v", s)
		}
	}
}

func TestSelect_ChronologicalAndNonOverlapping(t *testing.T) {
	scored := []types.ScoredSegment{
		seg(0, 2, 0.6, false),
		seg(2, 4, 1.0, false),
		seg(4, 6, 0.8, false),
		seg(6, 8, 0.9, false),
	}
	plan, err := Select(scored, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 4 {
		t.Fatalf("expected all candidates when budget is large, got %d", len(plan))
	}
	for i := 1; i < len(plan); i++ {
		if plan[i].Start < plan[i-1].Start {
			t.Fatalf("plan not chronological: %+v", plan)
		}
		if plan[i].Start < plan[i-1].End {
			t.Fatalf("plan has overlap: %+v", plan)
		}
	}
}

func TestSelect_TiesKeepTranscriptOrder(t *testing.T) {
	scored := []types.ScoredSegment{
		seg(0, 6, 0.8, false),
		seg(10, 16, 0.8, false),
	}
	plan, err := Select(scored, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 || plan[0].Start != 0 {
		t.Fatalf("expected earlier tied segment to win, got %+v", plan)
	}
}

func TestSelect_EmptyWhenNothingFits(t *testing.T) {
	plan, err := Select([]types.ScoredSegment{seg(0, 30, 1, false)}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestSelect_DropsOverlappingTimestamps(t *testing.T) {
	scored := []types.ScoredSegment{
		seg(0, 5, 0.9, false),
		seg(4, 8, 0.8, false),
	}
	plan, err := Select(scored, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 || plan[0].Start != 0 {
		t.Fatalf("expected overlapping segment to be dropped, got %+v", plan)
	}
}
