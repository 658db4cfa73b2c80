package highlights

import (
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/vocalcut/internal/types"
)

const (
	baseImportance   = 0.5
	keywordBonus     = 0.2
	lengthBonus      = 0.1
	minUsefulRunes   = 5
	mediumLengthLow  = 10
	mediumLengthHigh = 100
)

// Verbal fillers and discourse markers. A segment containing any of them is
// never selected.
var fillerWords = []string{
	"呃", "嗯", "那个", "这个", "就是说", "然后呢",
	"好的", "OK", "对吧", "是不是", "怎么说呢",
}

var importanceKeywords = []string{
	"重要", "关键", "核心", "总结", "结论", "数据",
	"案例", "例子", "方法", "技巧", "注意",
}

type categoryRule struct {
	category types.Category
	markers  []string
}

// Evaluated in order, first match wins.
var categoryRules = []categoryRule{
	{types.CategoryData, []string{"数据", "百分比", "%", "数字"}},
	{types.CategoryExample, []string{"案例", "例子", "比如", "举例"}},
	{types.CategoryConclusion, []string{"总结", "结论", "最后", "综上"}},
	{types.CategoryKeyPoint, []string{"重要", "关键", "核心"}},
}

// Classify scores and tags every segment. It has no side effects and returns
// a new slice of the same length and order.
func Classify(segs []types.TranscriptSegment) []types.ScoredSegment {
	out := make([]types.ScoredSegment, 0, len(segs))
	for _, s := range segs {
		out = append(out, types.ScoredSegment{
			TranscriptSegment: s,
			IsRedundant:       IsRedundant(s.Text),
			Importance:        Importance(s.Text),
			Category:          CategoryOf(s.Text),
		})
	}
	return out
}

func IsRedundant(text string) bool {
	t := strings.TrimSpace(text)
	if containsAny(t, fillerWords) {
		return true
	}
	return utf8.RuneCountInString(t) < minUsefulRunes
}

// Importance returns a score in [0.5, 1.0]. Each keyword contributes once no
// matter how often it occurs.
func Importance(text string) float64 {
	t := strings.TrimSpace(text)
	score := baseImportance
	for _, kw := range importanceKeywords {
		if strings.Contains(t, kw) {
			score += keywordBonus
		}
	}
	if n := utf8.RuneCountInString(t); n >= mediumLengthLow && n <= mediumLengthHigh {
		score += lengthBonus
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func CategoryOf(text string) types.Category {
	for _, r := range categoryRules {
		if containsAny(text, r.markers) {
			return r.category
		}
	}
	return types.CategoryGeneral
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
