package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/vocalcut/internal/ports"
	"github.com/forPelevin/vocalcut/internal/types"
)

// Extractor cuts every plan entry out of the source into its own
// re-encoded file. Either all artifacts are returned or none survive.
type Extractor struct {
	Video   ports.VideoTool
	Workers int
}

func (e Extractor) Extract(ctx context.Context, source string, plan types.CutPlan, dir string) ([]types.MediaArtifact, error) {
	if len(plan) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create segment dir: %w", err)
	}

	paths := make([]string, len(plan))
	for i := range plan {
		paths[i] = segmentPath(dir, i)
	}

	var err error
	if e.Workers > 1 && len(plan) > 1 {
		err = e.extractParallel(ctx, source, plan, paths)
	} else {
		err = e.extractSequential(ctx, source, plan, paths)
	}
	if err != nil {
		removeAll(paths)
		return nil, err
	}

	artifacts := make([]types.MediaArtifact, len(plan))
	for i, s := range plan {
		st, err := os.Stat(paths[i])
		if err != nil {
			removeAll(paths)
			return nil, types.EncodeFailure(i, fmt.Errorf("stat segment: %w", err))
		}
		artifacts[i] = types.MediaArtifact{
			Path:            paths[i],
			DurationSeconds: s.Duration(),
			SizeBytes:       st.Size(),
		}
	}
	return artifacts, nil
}

func (e Extractor) extractSequential(ctx context.Context, source string, plan types.CutPlan, paths []string) error {
	for i, s := range plan {
		if err := ctx.Err(); err != nil {
			return types.EncodeFailure(i, err)
		}
		if err := e.encode(ctx, source, s, paths[i]); err != nil {
			return types.EncodeFailure(i, err)
		}
	}
	return nil
}

// extractParallel returns the failure of the first segment that errored;
// the shared context stops the rest.
func (e Extractor) extractParallel(ctx context.Context, source string, plan types.CutPlan, paths []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for i, s := range plan {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return types.EncodeFailure(i, err)
			}
			if err := e.encode(gctx, source, s, paths[i]); err != nil {
				return types.EncodeFailure(i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e Extractor) encode(ctx context.Context, source string, s types.ScoredSegment, out string) error {
	return e.Video.EncodeSegment(ctx, source, seconds(s.Start), seconds(s.End), out)
}

func segmentPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("seg_%03d.mp4", i))
}

// removeAll deletes whatever exists of paths. Missing files are fine.
func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
