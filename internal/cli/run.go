package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/vocalcut/internal/config"
	"github.com/forPelevin/vocalcut/internal/logger"
	"github.com/forPelevin/vocalcut/internal/pipeline"
	"github.com/forPelevin/vocalcut/internal/ports/adapters/objectstore"
	"github.com/forPelevin/vocalcut/internal/types"
	"github.com/forPelevin/vocalcut/internal/worker"
)

func run(cmd *cobra.Command, input string) error {
	outPath, _ := cmd.Flags().GetString("out")
	target, _ := cmd.Flags().GetFloat64("target")
	configPath, _ := cmd.Flags().GetString("config")
	writeManifest, _ := cmd.Flags().GetBool("manifest")
	writeSubs, _ := cmd.Flags().GetBool("subtitles")
	publish, _ := cmd.Flags().GetBool("publish")
	workers, _ := cmd.Flags().GetInt("workers")

	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cmd.Flags().Changed("workers") {
		settings.ExtractWorkers = workers
	}
	if publish && !settings.Storage.Enabled() {
		return errors.New("config: --publish needs storage.endpoint (VOCALCUT_STORAGE_ENDPOINT)")
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = pipeline.DefaultOutputPath("out", absIn, time.Now())
	}
	absOut, err := filepath.Abs(outPath)
	if err != nil {
		return err
	}

	log := logger.New(settings.Environment, settings.LogLevel)
	log.SetOutput(cmd.ErrOrStderr())

	cfg := pipeline.Config{
		Input:          absIn,
		Output:         absOut,
		TargetSec:      target,
		WriteManifest:  writeManifest,
		WriteSubtitles: writeSubs,
		Settings:       settings,
		Log:            log,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	pool := worker.NewPool(1, 1, log.Entry)
	defer pool.Stop()

	pending, err := pipeline.Submit(ctx, pool, cfg)
	if err != nil {
		return err
	}
	log.WithRun(pending.RunID()).WithField("input", absIn).Info("run submitted")

	// The run sees ctx cancellation itself and still cleans up, so wait
	// for it to come back rather than abandoning it.
	rep, err := pending.Wait(context.Background())
	if err != nil {
		return err
	}
	if !rep.Result.OK() {
		f := rep.Result.Failure
		return fmt.Errorf("%s failed (%s): %s", f.Stage, f.Kind, f.Message)
	}

	printSummary(cmd.OutOrStdout(), rep)

	if publish {
		store, err := objectstore.NewMinIO(objectstore.Options{
			Endpoint:      settings.Storage.Endpoint,
			AccessKey:     settings.Storage.AccessKey,
			SecretKey:     settings.Storage.SecretKey,
			Bucket:        settings.Storage.Bucket,
			UseSSL:        settings.Storage.UseSSL,
			PresignExpiry: settings.Storage.PresignExpiry,
		})
		if err != nil {
			return err
		}
		url, err := pipeline.Publish(ctx, store, rep)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published: %s\n", url)
	}
	return nil
}

func printSummary(w io.Writer, rep pipeline.Report) {
	res := rep.Result
	fmt.Fprintf(w, "output: %s (%.1fs, %s)\n", res.Artifact.Path, res.Artifact.DurationSeconds, humanBytes(res.Artifact.SizeBytes))
	fmt.Fprintf(w, "segments: %d selected of %d, %d redundant removed\n",
		res.Stats.SelectedSegments, res.Stats.TotalSegments, res.Stats.RedundantRemoved)
	if res.SourceSize > 0 {
		fmt.Fprintf(w, "size: %s -> %s\n", humanBytes(res.SourceSize), humanBytes(res.Artifact.SizeBytes))
	}
	fmt.Fprintf(w, "took: %s\n", res.ProcessingTime.Round(time.Millisecond))
	if rep.SubtitlesPath != "" {
		fmt.Fprintf(w, "subtitles: %s\n", rep.SubtitlesPath)
	}
	if rep.ManifestPath != "" {
		fmt.Fprintf(w, "manifest: %s\n", rep.ManifestPath)
	}
	writePlan(w, res.Plan)
}

func writePlan(w io.Writer, plan types.CutPlan) {
	for i, s := range plan {
		fmt.Fprintf(w, "  %03d %7.2f-%7.2f %-10s %.2f %s\n", i+1, s.Start, s.End, s.Category, s.Importance, s.Text)
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
