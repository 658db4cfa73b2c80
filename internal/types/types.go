package types

import "time"

// TranscriptSegment is one timestamped utterance as produced by a
// transcription backend. Times are seconds from the start of the source.
type TranscriptSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (s TranscriptSegment) Duration() float64 { return s.End - s.Start }

type Transcript struct {
	Text     string              `json:"text"`
	Language string              `json:"language"`
	Segments []TranscriptSegment `json:"segments"`
}

type Category string

const (
	CategoryData       Category = "data"
	CategoryExample    Category = "example"
	CategoryConclusion Category = "conclusion"
	CategoryKeyPoint   Category = "key_point"
	CategoryGeneral    Category = "general"
)

type ScoredSegment struct {
	TranscriptSegment
	IsRedundant bool     `json:"is_redundant"`
	Importance  float64  `json:"importance"`
	Category    Category `json:"category"`
}

// CutPlan is ordered by Start and never contains overlapping or redundant
// entries.
type CutPlan []ScoredSegment

func (p CutPlan) TotalDuration() float64 {
	var total float64
	for _, s := range p {
		total += s.Duration()
	}
	return total
}

type MediaArtifact struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`
}

type SegmentStats struct {
	TotalSegments    int `json:"total_segments"`
	SelectedSegments int `json:"selected_segments"`
	RedundantRemoved int `json:"redundant_removed"`
}

// Result is the envelope returned for every run. Failure is nil on success;
// otherwise the remaining fields are zero.
type Result struct {
	Artifact       MediaArtifact `json:"artifact"`
	OriginalText   string        `json:"original_text"`
	Language       string        `json:"language,omitempty"`
	Stats          SegmentStats  `json:"segment_stats"`
	Plan           CutPlan       `json:"plan,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	SourceSize     int64         `json:"source_size"`

	Failure *Failure `json:"failure,omitempty"`
}

func (r Result) OK() bool { return r.Failure == nil }

type Failure struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type Manifest struct {
	RunID     string         `json:"run_id"`
	Input     string         `json:"input"`
	TargetSec float64        `json:"target_sec"`
	Language  string         `json:"language,omitempty"`
	Output    MediaArtifact  `json:"output"`
	Stats     SegmentStats   `json:"stats"`
	Subtitles string         `json:"subtitles,omitempty"`
	Segments  []ManifestClip `json:"segments"`
}

type ManifestClip struct {
	ID         string   `json:"id"`
	StartSec   float64  `json:"start_sec"`
	EndSec     float64  `json:"end_sec"`
	Text       string   `json:"text"`
	Importance float64  `json:"importance"`
	Category   Category `json:"category"`
}
