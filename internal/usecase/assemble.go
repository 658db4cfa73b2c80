package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/vocalcut/internal/ports"
	"github.com/forPelevin/vocalcut/internal/types"
)

// Assembler turns extracted artifacts into the single output file. It owns
// the artifacts it is given and never leaves them behind.
type Assembler struct {
	Video ports.VideoTool
}

func (a Assembler) Assemble(ctx context.Context, artifacts []types.MediaArtifact, outputPath string) (types.MediaArtifact, error) {
	paths := artifactPaths(artifacts)

	switch len(artifacts) {
	case 0:
		return types.MediaArtifact{}, types.NewStageError(types.StageAssemble, types.KindEmptyPlan, types.ErrEmptyPlan)
	case 1:
		return a.relocate(ctx, artifacts[0], outputPath)
	}

	listFile := filepath.Join(filepath.Dir(paths[0]), "concat.txt")
	defer func() {
		removeAll(paths)
		_ = os.Remove(listFile)
	}()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return types.MediaArtifact{}, assemblyFailure(fmt.Errorf("create output dir: %w", err))
	}

	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return types.MediaArtifact{}, assemblyFailure(err)
		}
		b.WriteString(concatListLine(abs))
	}
	if err := os.WriteFile(listFile, []byte(b.String()), 0o644); err != nil {
		return types.MediaArtifact{}, assemblyFailure(fmt.Errorf("write concat list: %w", err))
	}

	if err := a.Video.Concat(ctx, listFile, outputPath); err != nil {
		_ = os.Remove(outputPath)
		return types.MediaArtifact{}, assemblyFailure(err)
	}

	st, err := os.Stat(outputPath)
	if err != nil {
		return types.MediaArtifact{}, assemblyFailure(fmt.Errorf("stat output: %w", err))
	}
	var total float64
	for _, art := range artifacts {
		total += art.DurationSeconds
	}
	return types.MediaArtifact{
		Path:            outputPath,
		DurationSeconds: a.probedOr(ctx, outputPath, total),
		SizeBytes:       st.Size(),
	}, nil
}

// probedOr prefers the container duration; planned seconds are the fallback.
func (a Assembler) probedOr(ctx context.Context, path string, planned float64) float64 {
	d, err := a.Video.ProbeDuration(ctx, path)
	if err != nil || d <= 0 {
		return planned
	}
	return d.Seconds()
}

// relocate moves a lone artifact into place without re-encoding it.
func (a Assembler) relocate(ctx context.Context, art types.MediaArtifact, outputPath string) (types.MediaArtifact, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		_ = os.Remove(art.Path)
		return types.MediaArtifact{}, assemblyFailure(fmt.Errorf("create output dir: %w", err))
	}
	if err := moveFile(art.Path, outputPath); err != nil {
		_ = os.Remove(art.Path)
		_ = os.Remove(outputPath)
		return types.MediaArtifact{}, assemblyFailure(err)
	}
	art.Path = outputPath
	art.DurationSeconds = a.probedOr(ctx, outputPath, art.DurationSeconds)
	return art, nil
}

func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("move %s: %w", src, err)
	}
	// rename fails across filesystems; fall back to copy
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// concatListLine formats one entry of an ffmpeg concat-demuxer list.
func concatListLine(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'\n"
}

func assemblyFailure(err error) error {
	return types.NewStageError(types.StageAssemble, types.KindAssemblyFailure, err)
}
