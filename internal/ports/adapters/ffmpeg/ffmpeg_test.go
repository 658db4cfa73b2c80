package ffmpeg

import (
	"testing"
	"time"

	"github.com/forPelevin/vocalcut/internal/ports"
)

func TestFmtSeconds(t *testing.T) {
	if got := fmtSeconds(61*time.Second + 234*time.Millisecond); got != "61.234" {
		t.Fatalf("unexpected seconds: %s", got)
	}
}

func TestWithDefaults_FillsOnlyMissing(t *testing.T) {
	got := withDefaults(ports.EncodeSettings{VideoBitrate: "800k"}, DefaultSegmentSettings)
	if got.VideoBitrate != "800k" {
		t.Fatalf("override lost: %+v", got)
	}
	if got.VideoCodec != "libx264" || got.AudioBitrate != "128k" || got.CRF != 23 || got.Preset != "medium" {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestEncodeArgs_IsLossyReencode(t *testing.T) {
	args := encodeArgs(DefaultSegmentSettings)
	for i, a := range args {
		if a == "copy" {
			t.Fatalf("unexpected stream copy at arg %d: %v", i, args)
		}
	}
	want := []string{"-c:v", "libx264", "-b:v", "1000k", "-preset", "medium", "-crf", "23", "-c:a", "aac", "-b:a", "128k"}
	if len(args) != len(want) {
		t.Fatalf("unexpected args: %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
}
