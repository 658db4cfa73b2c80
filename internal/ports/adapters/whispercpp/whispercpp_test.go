package whispercpp

import (
	"math"
	"testing"
)

const sample = `{
  "result": {"language": "zh"},
  "transcription": [
    {"offsets": {"from": 0, "to": 5000}, "text": " 呃 测试", "tokens": [{"text": "呃", "p": 0.5}, {"text": "测试", "p": 0.5}]},
    {"offsets": {"from": 5000, "to": 15000}, "text": "这是重要的结论数据 ", "tokens": []},
    {"offsets": {"from": 15000, "to": 15000}, "text": "dropped"}
  ]
}`

func TestParseOutput(t *testing.T) {
	tr, err := parseOutput([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Language != "zh" {
		t.Fatalf("language = %q", tr.Language)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments (zero-length dropped), got %d", len(tr.Segments))
	}

	s0 := tr.Segments[0]
	if s0.Start != 0 || s0.End != 5 || s0.Text != "呃 测试" {
		t.Fatalf("unexpected first segment: %+v", s0)
	}
	if math.Abs(s0.Confidence-math.Log(0.5)) > 1e-9 {
		t.Fatalf("confidence = %v", s0.Confidence)
	}

	s1 := tr.Segments[1]
	if s1.Start != 5 || s1.End != 15 || s1.Confidence != 0 {
		t.Fatalf("unexpected second segment: %+v", s1)
	}
	if tr.Text != "呃 测试 这是重要的结论数据" {
		t.Fatalf("text = %q", tr.Text)
	}
}

func TestParseOutput_Invalid(t *testing.T) {
	if _, err := parseOutput([]byte("{")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMeanLogProb_SkipsZero(t *testing.T) {
	got := meanLogProb([]float64{0, 1, 1})
	if got != 0 {
		t.Fatalf("meanLogProb = %v, want 0", got)
	}
}
