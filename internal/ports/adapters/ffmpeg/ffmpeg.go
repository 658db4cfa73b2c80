package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/vocalcut/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	segment ports.EncodeSettings
	concat  ports.EncodeSettings
}

// DefaultSegmentSettings is the per-segment encode policy.
var DefaultSegmentSettings = ports.EncodeSettings{
	VideoCodec:   "libx264",
	AudioCodec:   "aac",
	VideoBitrate: "1000k",
	AudioBitrate: "128k",
	Preset:       "medium",
	CRF:          23,
}

// DefaultConcatSettings is used when several segments are joined.
var DefaultConcatSettings = ports.EncodeSettings{
	VideoCodec:   "libx264",
	AudioCodec:   "aac",
	VideoBitrate: "1500k",
	AudioBitrate: "128k",
	Preset:       "medium",
	CRF:          23,
}

func New(ffmpegPath, ffprobePath string, segment, concat ports.EncodeSettings) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		segment: withDefaults(segment, DefaultSegmentSettings),
		concat:  withDefaults(concat, DefaultConcatSettings),
	}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMedia, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inMedia,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) EncodeSegment(ctx context.Context, inMedia string, start, end time.Duration, outMedia string) error {
	if end <= start {
		return fmt.Errorf("ffmpeg encode segment: empty range %s-%s", start, end)
	}
	args := []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(end - start),
		"-i", inMedia,
	}
	args = append(args, encodeArgs(a.segment)...)
	args = append(args, outMedia)

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg encode segment: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) Concat(ctx context.Context, listFile, outMedia string) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	args = append(args, encodeArgs(a.concat)...)
	args = append(args, outMedia)

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMedia string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inMedia,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func encodeArgs(s ports.EncodeSettings) []string {
	return []string{
		"-c:v", s.VideoCodec,
		"-b:v", s.VideoBitrate,
		"-preset", s.Preset,
		"-crf", strconv.Itoa(s.CRF),
		"-c:a", s.AudioCodec,
		"-b:a", s.AudioBitrate,
	}
}

func withDefaults(s, def ports.EncodeSettings) ports.EncodeSettings {
	if s.VideoCodec == "" {
		s.VideoCodec = def.VideoCodec
	}
	if s.AudioCodec == "" {
		s.AudioCodec = def.AudioCodec
	}
	if s.VideoBitrate == "" {
		s.VideoBitrate = def.VideoBitrate
	}
	if s.AudioBitrate == "" {
		s.AudioBitrate = def.AudioBitrate
	}
	if s.Preset == "" {
		s.Preset = def.Preset
	}
	if s.CRF <= 0 {
		s.CRF = def.CRF
	}
	return s
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
