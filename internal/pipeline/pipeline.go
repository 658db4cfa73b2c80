package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/forPelevin/vocalcut/internal/config"
	"github.com/forPelevin/vocalcut/internal/domain/subtitles"
	"github.com/forPelevin/vocalcut/internal/logger"
	"github.com/forPelevin/vocalcut/internal/ports"
	"github.com/forPelevin/vocalcut/internal/ports/adapters/assemblyai"
	"github.com/forPelevin/vocalcut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vocalcut/internal/ports/adapters/objectstore"
	"github.com/forPelevin/vocalcut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/vocalcut/internal/types"
	"github.com/forPelevin/vocalcut/internal/usecase"
	"github.com/forPelevin/vocalcut/internal/worker"
)

// Config describes a single run.
type Config struct {
	Input     string  `validate:"required"`
	Output    string  `validate:"required,nefield=Input"`
	TargetSec float64 // checked by the run itself so it surfaces as InvalidBudget

	WriteManifest  bool
	WriteSubtitles bool

	Settings *config.Config `validate:"required"`
	Log      *logger.Logger `validate:"-"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s: failed %q check", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return c.Settings.Validate()
}

// ManifestPath and SubtitlesPath sit next to the output file.
func (c Config) ManifestPath() string  { return sidecar(c.Output, ".manifest.json") }
func (c Config) SubtitlesPath() string { return sidecar(c.Output, ".ass") }

// Report is a finished run. Sidecar paths are empty when not written.
type Report struct {
	RunID         string
	Result        types.Result
	ManifestPath  string
	SubtitlesPath string
}

// NewDeps wires the adapters selected by settings.
func NewDeps(s *config.Config) (usecase.Deps, error) {
	video := ffmpeg.New(s.FFmpegPath, s.FFprobePath,
		ports.EncodeSettings{
			VideoCodec:   s.Encode.VideoCodec,
			AudioCodec:   s.Encode.AudioCodec,
			VideoBitrate: s.Encode.VideoBitrate,
			AudioBitrate: s.Encode.AudioBitrate,
			Preset:       s.Encode.Preset,
			CRF:          s.Encode.CRF,
		},
		ports.EncodeSettings{
			VideoCodec:   s.Encode.VideoCodec,
			AudioCodec:   s.Encode.AudioCodec,
			VideoBitrate: s.Encode.ConcatVideoBitrate,
			AudioBitrate: s.Encode.AudioBitrate,
			Preset:       s.Encode.Preset,
			CRF:          s.Encode.CRF,
		},
	)

	var asr ports.Transcriber
	switch s.ASR.Backend {
	case "whispercpp":
		asr = whispercpp.New(s.ASR.WhisperBin, s.ASR.WhisperModel, s.ASR.Language, video)
	case "assemblyai":
		asr = assemblyai.New(s.ASR.APIKey, s.ASR.Language)
	default:
		return usecase.Deps{}, fmt.Errorf("unknown asr backend %q", s.ASR.Backend)
	}
	return usecase.Deps{Video: video, ASR: asr}, nil
}

// Run executes one run synchronously in its own workspace, which is removed
// afterwards. The returned error covers sidecar files only; pipeline
// failures are in Report.Result.
func Run(ctx context.Context, cfg Config) (Report, error) {
	deps, err := NewDeps(cfg.Settings)
	if err != nil {
		return Report{}, err
	}
	return run(ctx, usecase.New(deps), cfg, uuid.NewString())
}

func run(ctx context.Context, uc usecase.Usecase, cfg Config, runID string) (Report, error) {
	lg := cfg.Log
	if lg == nil {
		lg = logger.Discard()
	}
	log := lg.WithRun(runID)
	rep := Report{RunID: runID}

	workDir := filepath.Join(cfg.Settings.CacheDir, "runs", runID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return rep, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.WithError(err).Warn("workspace cleanup failed")
		}
	}()
	log.WithField("workspace", workDir).Debug("workspace ready")

	rep.Result = uc.Run(ctx, usecase.Input{
		Source:    cfg.Input,
		Output:    cfg.Output,
		TargetSec: cfg.TargetSec,
		WorkDir:   workDir,
		Workers:   cfg.Settings.ExtractWorkers,
		Log:       log,
	})
	if !rep.Result.OK() {
		return rep, nil
	}

	if cfg.WriteSubtitles {
		ass, err := subtitles.RenderCutASS(rep.Result.Plan)
		if err != nil {
			return rep, err
		}
		if err := os.WriteFile(cfg.SubtitlesPath(), []byte(ass), 0o644); err != nil {
			return rep, fmt.Errorf("write subtitles: %w", err)
		}
		rep.SubtitlesPath = cfg.SubtitlesPath()
	}

	if cfg.WriteManifest {
		m := buildManifest(runID, cfg, rep)
		b, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return rep, fmt.Errorf("marshal manifest: %w", err)
		}
		if err := os.WriteFile(cfg.ManifestPath(), b, 0o644); err != nil {
			return rep, fmt.Errorf("write manifest: %w", err)
		}
		rep.ManifestPath = cfg.ManifestPath()
		log.WithField("segments", len(m.Segments)).Infof("manifest written: %s", rep.ManifestPath)
	}
	return rep, nil
}

// Pending is an in-flight run submitted to a worker pool.
type Pending struct {
	h   *worker.Handle
	rep *Report
	err *error
}

func (p *Pending) RunID() string { return p.h.ID }

// Wait blocks until the run finishes or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Report, error) {
	res, err := p.h.Wait(ctx)
	if err != nil {
		return Report{}, err
	}
	rep := *p.rep
	rep.Result = res
	return rep, *p.err
}

// Submit queues a run on pool and returns immediately.
func Submit(ctx context.Context, pool *worker.Pool, cfg Config) (*Pending, error) {
	deps, err := NewDeps(cfg.Settings)
	if err != nil {
		return nil, err
	}
	return submit(ctx, pool, usecase.New(deps), cfg)
}

func submit(ctx context.Context, pool *worker.Pool, uc usecase.Usecase, cfg Config) (*Pending, error) {
	runID := uuid.NewString()
	p := &Pending{rep: &Report{RunID: runID}, err: new(error)}
	h, err := pool.Submit(worker.Job{
		ID:  runID,
		Ctx: ctx,
		Run: func(ctx context.Context) types.Result {
			rep, err := run(ctx, uc, cfg, runID)
			*p.rep = rep
			*p.err = err
			return rep.Result
		},
	})
	if err != nil {
		return nil, err
	}
	p.h = h
	return p, nil
}

// Publish uploads the run's output to store and returns its download URL.
func Publish(ctx context.Context, store ports.ObjectStore, rep Report) (string, error) {
	if !rep.Result.OK() {
		return "", errors.New("publish: run did not succeed")
	}
	return store.Publish(ctx, objectstore.ObjectName(rep.RunID, rep.Result.Artifact.Path), rep.Result.Artifact.Path)
}

func buildManifest(runID string, cfg Config, rep Report) types.Manifest {
	res := rep.Result
	m := types.Manifest{
		RunID:     runID,
		Input:     cfg.Input,
		TargetSec: cfg.TargetSec,
		Language:  res.Language,
		Output:    res.Artifact,
		Stats:     res.Stats,
		Segments:  make([]types.ManifestClip, 0, len(res.Plan)),
	}
	if rep.SubtitlesPath != "" {
		m.Subtitles = filepath.Base(rep.SubtitlesPath)
	}
	for i, s := range res.Plan {
		m.Segments = append(m.Segments, types.ManifestClip{
			ID:         fmt.Sprintf("%03d", i+1),
			StartSec:   s.Start,
			EndSec:     s.End,
			Text:       s.Text,
			Importance: s.Importance,
			Category:   s.Category,
		})
	}
	return m
}

// DefaultOutputPath names the output after the input when --out is omitted.
func DefaultOutputPath(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s.mp4", name, ts, suffix))
}

func sidecar(output, ext string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ext
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*whispercpp.Adapter)(nil)
var _ ports.Transcriber = (*assemblyai.Adapter)(nil)
var _ ports.ObjectStore = (*objectstore.MinIO)(nil)
