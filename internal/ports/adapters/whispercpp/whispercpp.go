package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/vocalcut/internal/types"
)

// AudioExtractor prepares the 16 kHz mono WAV whisper.cpp expects.
type AudioExtractor interface {
	ExtractAudioMono16k(ctx context.Context, inMedia, outWav string) error
}

type Adapter struct {
	bin      string
	model    string
	language string
	audio    AudioExtractor
}

func New(binPath, modelPath, language string, audio AudioExtractor) *Adapter {
	if language == "" {
		language = "auto"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language, audio: audio}
}

func (a *Adapter) Transcribe(ctx context.Context, inMedia, workDir string) (types.Transcript, error) {
	wav := filepath.Join(workDir, "audio.wav")
	if err := a.audio.ExtractAudioMono16k(ctx, inMedia, wav); err != nil {
		return types.Transcript{}, err
	}

	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wav,
		"-l", a.language,
		"-ojf",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return parseOutput(jb)
}

type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text   string `json:"text"`
		Tokens []struct {
			P float64 `json:"p"`
		} `json:"tokens"`
	} `json:"transcription"`
}

func parseOutput(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper.cpp json: %w", err)
	}

	tr := types.Transcript{Language: out.Result.Language}
	texts := make([]string, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		if seg.Offsets.To <= seg.Offsets.From {
			continue
		}
		var probs []float64
		for _, tok := range seg.Tokens {
			probs = append(probs, tok.P)
		}
		tr.Segments = append(tr.Segments, types.TranscriptSegment{
			Start:      float64(seg.Offsets.From) / 1000,
			End:        float64(seg.Offsets.To) / 1000,
			Text:       text,
			Confidence: meanLogProb(probs),
		})
		if text != "" {
			texts = append(texts, text)
		}
	}
	tr.Text = strings.Join(texts, " ")
	return tr, nil
}

// meanLogProb is the average natural log of the token probabilities.
// Zero probabilities are ignored; no tokens yields 0.
func meanLogProb(ps []float64) float64 {
	var sum float64
	n := 0
	for _, p := range ps {
		if p <= 0 {
			continue
		}
		sum += math.Log(p)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
