package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/vocalcut/internal/domain/highlights"
	"github.com/forPelevin/vocalcut/internal/ports"
	"github.com/forPelevin/vocalcut/internal/types"
)

type Deps struct {
	Video ports.VideoTool
	ASR   ports.Transcriber
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Source    string
	Output    string
	TargetSec float64

	// WorkDir holds this run's scratch files and must not be shared.
	WorkDir string
	Workers int
	Log     *logrus.Entry
}

// Run executes transcribe, classify, select, extract and assemble in order.
// It never returns an error: every failure, panic or cancellation becomes
// Result.Failure.
func (u Usecase) Run(ctx context.Context, in Input) (res types.Result) {
	started := time.Now()
	log := in.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	stage := types.StageTranscribe
	defer func() {
		if r := recover(); r != nil {
			res = failed(log, types.NewStageError(stage, types.KindInternal, fmt.Errorf("panic: %v", r)))
		}
	}()

	if !(in.TargetSec > 0) { // also rejects NaN
		return failed(log, types.NewStageError(types.StageSelect, types.KindInvalidBudget, types.ErrInvalidBudget))
	}
	src, err := os.Stat(in.Source)
	if err != nil {
		return failed(log, types.NewStageError(stage, types.KindInvalidInput, fmt.Errorf("stat source: %w", err)))
	}
	if src.IsDir() {
		return failed(log, types.NewStageError(stage, types.KindInvalidInput, fmt.Errorf("source %s is a directory", in.Source)))
	}

	// transcribe
	if err := ctx.Err(); err != nil {
		return failed(log, canceled(stage, err))
	}
	t0 := time.Now()
	tr, err := u.d.ASR.Transcribe(ctx, in.Source, in.WorkDir)
	if err != nil {
		return failed(log, stageFailure(ctx, stage, types.KindAdapterFailure, err))
	}
	log.WithFields(logrus.Fields{
		"stage":       stage,
		"segments":    len(tr.Segments),
		"language":    tr.Language,
		"duration_ms": time.Since(t0).Milliseconds(),
	}).Info("transcribed")

	// classify
	stage = types.StageClassify
	if err := ctx.Err(); err != nil {
		return failed(log, canceled(stage, err))
	}
	scored := highlights.Classify(tr.Segments)
	redundant := 0
	for _, s := range scored {
		if s.IsRedundant {
			redundant++
		}
	}
	log.WithFields(logrus.Fields{"stage": stage, "redundant": redundant}).Debug("classified")

	// select
	stage = types.StageSelect
	if err := ctx.Err(); err != nil {
		return failed(log, canceled(stage, err))
	}
	plan, err := highlights.Select(scored, in.TargetSec)
	if err != nil {
		return failed(log, stageFailure(ctx, stage, types.KindInvalidBudget, err))
	}
	log.WithFields(logrus.Fields{
		"stage":        stage,
		"selected":     len(plan),
		"plan_seconds": plan.TotalDuration(),
		"target":       in.TargetSec,
	}).Info("plan selected")

	// extract
	stage = types.StageExtract
	if err := ctx.Err(); err != nil {
		return failed(log, canceled(stage, err))
	}
	t0 = time.Now()
	ex := Extractor{Video: u.d.Video, Workers: in.Workers}
	artifacts, err := ex.Extract(ctx, in.Source, plan, filepath.Join(in.WorkDir, "segments"))
	if err != nil {
		return failed(log, stageFailure(ctx, stage, types.KindEncodeFailure, err))
	}
	log.WithFields(logrus.Fields{
		"stage":       stage,
		"artifacts":   len(artifacts),
		"duration_ms": time.Since(t0).Milliseconds(),
	}).Info("segments extracted")

	// assemble
	stage = types.StageAssemble
	if err := ctx.Err(); err != nil {
		removeAll(artifactPaths(artifacts))
		return failed(log, canceled(stage, err))
	}
	t0 = time.Now()
	final, err := Assembler{Video: u.d.Video}.Assemble(ctx, artifacts, in.Output)
	if err != nil {
		return failed(log, stageFailure(ctx, stage, types.KindAssemblyFailure, err))
	}
	log.WithFields(logrus.Fields{
		"stage":       stage,
		"output":      final.Path,
		"size_bytes":  final.SizeBytes,
		"duration_ms": time.Since(t0).Milliseconds(),
	}).Info("output assembled")

	return types.Result{
		Artifact:     final,
		OriginalText: originalText(tr),
		Language:     tr.Language,
		Stats: types.SegmentStats{
			TotalSegments:    len(tr.Segments),
			SelectedSegments: len(plan),
			RedundantRemoved: redundant,
		},
		Plan:           plan,
		ProcessingTime: time.Since(started),
		SourceSize:     src.Size(),
	}
}

// stageFailure attributes err to stage. A StageError raised deeper keeps its
// own stage and kind; a cancelled context always reports Canceled.
func stageFailure(ctx context.Context, stage types.Stage, kind types.ErrorKind, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		var se *types.StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		return canceled(stage, err)
	}
	var se *types.StageError
	if errors.As(err, &se) {
		return err
	}
	return types.NewStageError(stage, kind, err)
}

func canceled(stage types.Stage, err error) error {
	return types.NewStageError(stage, types.KindCanceled, err)
}

func failed(log *logrus.Entry, err error) types.Result {
	f := types.FailureOf(err, types.StageTranscribe, types.KindInternal)
	log.WithFields(logrus.Fields{
		"stage": f.Stage,
		"kind":  f.Kind,
		"error": f.Message,
	}).Error("run failed")
	return types.Result{Failure: f}
}

func originalText(tr types.Transcript) string {
	if tr.Text != "" {
		return tr.Text
	}
	parts := make([]string, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

func artifactPaths(arts []types.MediaArtifact) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = a.Path
	}
	return out
}
