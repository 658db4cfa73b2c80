package assemblyai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/cenkalti/backoff/v4"

	"github.com/forPelevin/vocalcut/internal/types"
)

// api is the slice of the SDK the adapter uses.
type api interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
	TranscribeFromURL(ctx context.Context, audioURL string, params *aai.TranscriptOptionalParams) (aai.Transcript, error)
}

type sdkAPI struct{ c *aai.Client }

func (s sdkAPI) Upload(ctx context.Context, r io.Reader) (string, error) {
	return s.c.Upload(ctx, r)
}

func (s sdkAPI) TranscribeFromURL(ctx context.Context, audioURL string, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
	return s.c.Transcripts.TranscribeFromURL(ctx, audioURL, params)
}

type Adapter struct {
	api      api
	language string

	// upload retry tuning
	initialInterval time.Duration
	maxElapsed      time.Duration
}

func New(apiKey, language string) *Adapter {
	return newAdapter(sdkAPI{c: aai.NewClient(apiKey)}, language)
}

func newAdapter(c api, language string) *Adapter {
	return &Adapter{
		api:             c,
		language:        language,
		initialInterval: 2 * time.Second,
		maxElapsed:      30 * time.Second,
	}
}

// Transcribe uploads the source media as-is; AssemblyAI extracts the audio
// track server side. Only the upload is retried.
func (a *Adapter) Transcribe(ctx context.Context, inMedia, _ string) (types.Transcript, error) {
	uploadURL, err := a.upload(ctx, inMedia)
	if err != nil {
		return types.Transcript{}, err
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if a.language == "" || a.language == "auto" {
		params.LanguageDetection = aai.Bool(true)
	} else {
		params.LanguageCode = aai.TranscriptLanguageCode(a.language)
	}

	tr, err := a.api.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("assemblyai transcribe: %w", err)
	}
	return toTranscript(tr)
}

func (a *Adapter) upload(ctx context.Context, path string) (string, error) {
	var uploadURL string
	op := func() error {
		f, err := os.Open(path)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()

		u, err := a.api.Upload(ctx, f)
		if err != nil {
			return err
		}
		uploadURL = u
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.initialInterval
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = a.maxElapsed

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("assemblyai upload: %w", err)
	}
	return uploadURL, nil
}

func toTranscript(t aai.Transcript) (types.Transcript, error) {
	if t.Status == aai.TranscriptStatusError {
		msg := "transcription failed"
		if t.Error != nil {
			msg = *t.Error
		}
		return types.Transcript{}, fmt.Errorf("assemblyai: %s", msg)
	}
	if t.Status != aai.TranscriptStatusCompleted {
		return types.Transcript{}, fmt.Errorf("assemblyai: unexpected status %q", t.Status)
	}

	out := types.Transcript{
		Text:     strings.TrimSpace(deref(t.Text)),
		Language: string(t.LanguageCode),
	}
	for _, u := range t.Utterances {
		if u.Start == nil || u.End == nil {
			continue
		}
		start, end := *u.Start, *u.End
		if end <= start {
			continue
		}
		var conf float64
		if u.Confidence != nil {
			conf = *u.Confidence
		}
		out.Segments = append(out.Segments, types.TranscriptSegment{
			Start:      float64(start) / 1000,
			End:        float64(end) / 1000,
			Text:       strings.TrimSpace(deref(u.Text)),
			Confidence: conf,
		})
	}
	if len(out.Segments) == 0 && out.Text != "" {
		return types.Transcript{}, errors.New("assemblyai: transcript has no timed utterances")
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
