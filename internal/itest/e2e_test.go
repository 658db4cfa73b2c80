//go:build integration

package itest

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/vocalcut/internal/config"
	"github.com/forPelevin/vocalcut/internal/pipeline"
	"github.com/forPelevin/vocalcut/internal/ports"
	"github.com/forPelevin/vocalcut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vocalcut/internal/types"
	"github.com/forPelevin/vocalcut/internal/usecase"
)

// Encoder rounding on a 25 fps source with AAC frames.
const durationTolerance = 0.25

type scriptedASR struct{ tr types.Transcript }

func (s scriptedASR) Transcribe(context.Context, string, string) (types.Transcript, error) {
	return s.tr, nil
}

func realVideo() ports.VideoTool {
	return ffmpeg.New("ffmpeg", "ffprobe", ffmpeg.DefaultSegmentSettings, ffmpeg.DefaultConcatSettings)
}

func TestRoundTrip_SingleSegment(t *testing.T) {
	requireFFmpeg(t)

	tmp := t.TempDir()
	in := filepath.Join(tmp, "input.mp4")
	makeFixture(t, in, 20)

	uc := usecase.New(usecase.Deps{
		Video: realVideo(),
		ASR: scriptedASR{tr: types.Transcript{Segments: []types.TranscriptSegment{
			{Start: 0, End: 5, Text: "呃 测试"},
			{Start: 5, End: 15, Text: "这是重要的结论数据"},
			{Start: 15, End: 18, Text: "嗯"},
		}}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	out := filepath.Join(tmp, "out", "short.mp4")
	res := uc.Run(ctx, usecase.Input{
		Source:    in,
		Output:    out,
		TargetSec: 10,
		WorkDir:   filepath.Join(tmp, "work"),
		Workers:   1,
	})
	if !res.OK() {
		t.Fatalf("pipeline failed: %+v", res.Failure)
	}

	got, err := probeDurationSeconds(out)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-10) > durationTolerance {
		t.Fatalf("output duration %.3fs, want 10s", got)
	}
}

func TestConcat_MultipleSegments(t *testing.T) {
	requireFFmpeg(t)

	tmp := t.TempDir()
	in := filepath.Join(tmp, "input.mp4")
	makeFixture(t, in, 15)

	uc := usecase.New(usecase.Deps{
		Video: realVideo(),
		ASR: scriptedASR{tr: types.Transcript{Segments: []types.TranscriptSegment{
			{Start: 0, End: 4, Text: "这是重要的结论数据"},
			{Start: 4, End: 9, Text: "第二个案例说明方法"},
			{Start: 9, End: 12, Text: "最后总结一下核心技巧"},
		}}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	work := filepath.Join(tmp, "work")
	out := filepath.Join(tmp, "short.mp4")
	res := uc.Run(ctx, usecase.Input{
		Source:    in,
		Output:    out,
		TargetSec: 100,
		WorkDir:   work,
		Workers:   2,
	})
	if !res.OK() {
		t.Fatalf("pipeline failed: %+v", res.Failure)
	}

	got, err := probeDurationSeconds(out)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-12) > 3*durationTolerance {
		t.Fatalf("output duration %.3fs, want 12s", got)
	}

	entries, _ := os.ReadDir(filepath.Join(work, "segments"))
	if len(entries) != 0 {
		t.Fatalf("intermediates left behind: %d files", len(entries))
	}
}

// TestE2E_Whisper runs the real transcriber when a model is available.
func TestE2E_Whisper(t *testing.T) {
	requireFFmpeg(t)
	repoRoot := mustRepoRoot(t)

	settings := config.Default()
	settings.ASR.WhisperBin = filepath.Join(repoRoot, settings.ASR.WhisperBin)
	settings.ASR.WhisperModel = filepath.Join(repoRoot, settings.ASR.WhisperModel)
	settings.ASR.Language = "en"
	if _, err := os.Stat(settings.ASR.WhisperModel); err != nil {
		t.Skipf("whisper model not available: %v", err)
	}
	if _, err := exec.LookPath("espeak-ng"); err != nil {
		t.Skip("espeak-ng not found in PATH")
	}

	tmp := t.TempDir()
	settings.CacheDir = filepath.Join(tmp, "cache")

	wav := filepath.Join(tmp, "speech.wav")
	text := "Here is the key idea. Step one: do this. Step two: measure results. This is important."
	if b, err := exec.Command("espeak-ng", "-w", wav, text).CombinedOutput(); err != nil {
		t.Fatalf("espeak-ng failed: %v\n%s", err, string(b))
	}
	in := filepath.Join(tmp, "input.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=1280x720:d=15",
		"-i", wav,
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	cfg := pipeline.Config{
		Input:         in,
		Output:        filepath.Join(tmp, "out", "short.mp4"),
		TargetSec:     60,
		WriteManifest: true,
		Settings:      settings,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	rep, err := pipeline.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("sidecars: %v", err)
	}
	// English speech has no importance keywords but every sentence scores
	// the base importance, so something is selected.
	if !rep.Result.OK() {
		t.Fatalf("pipeline failed: %+v", rep.Result.Failure)
	}
	if _, err := os.Stat(rep.ManifestPath); err != nil {
		t.Fatalf("missing manifest: %v", err)
	}
	if rep.Result.OriginalText == "" {
		t.Fatalf("expected transcript text in result")
	}
}
