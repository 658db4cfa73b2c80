package ports

import (
	"context"
	"time"

	"github.com/forPelevin/vocalcut/internal/types"
)

// EncodeSettings is the fixed lossy policy used for every extracted segment
// and for multi-segment assembly.
type EncodeSettings struct {
	VideoCodec   string
	AudioCodec   string
	VideoBitrate string
	AudioBitrate string
	Preset       string
	CRF          int
}

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMedia, outWav string) error
	// EncodeSegment re-encodes [start, end) of inMedia into outMedia.
	EncodeSegment(ctx context.Context, inMedia string, start, end time.Duration, outMedia string) error
	// Concat joins the files listed in a concat-demuxer manifest into outMedia.
	Concat(ctx context.Context, listFile, outMedia string) error
	ProbeDuration(ctx context.Context, inMedia string) (time.Duration, error)
}

// Transcriber is the speech-to-text boundary. workDir is owned by the
// current run and may be used for scratch files.
type Transcriber interface {
	Transcribe(ctx context.Context, inMedia, workDir string) (types.Transcript, error)
}

type ObjectStore interface {
	Publish(ctx context.Context, objectName, filePath string) (string, error)
}
