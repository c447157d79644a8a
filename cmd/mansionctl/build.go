package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/pipeline"
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the warehouse from the raw source",
		Long: `Read raw transactions, normalize them and replace the warehouse
dimensions, facts and training set. Drop counts are recorded on the run.`,
		RunE: runBuild,
	}
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	return cmd
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train a model on the current warehouse",
		RunE:  runTrain,
	}
}

func rebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Build the warehouse and train a model",
		RunE:  runRebuild,
	}
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	attachProgress(a.Pipeline, cmd.ErrOrStderr(), noProgress)

	run, err := a.Retrain.Build(cmd.Context(), models.TriggerCLI)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	printRun(cmd.OutOrStdout(), run)
	return nil
}

func runTrain(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	art, pruned, err := a.Retrain.Train(cmd.Context(), nil)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Model %s trained on %d rows (test %d)\n", art.Version, art.TrainRows, art.TestRows)
	fmt.Fprintf(out, "  RMSE %.0f  MAE %.0f  MAPE %.2f%%  R2 %.4f\n",
		art.Metrics.RMSE, art.Metrics.MAE, art.Metrics.MAPE, art.Metrics.R2)
	if pruned != nil && pruned.DeletedCount > 0 {
		fmt.Fprintf(out, "  pruned %d old artifacts\n", pruned.DeletedCount)
	}
	return nil
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	attachProgress(a.Pipeline, cmd.ErrOrStderr(), noProgress)

	result, err := a.Retrain.Rebuild(cmd.Context(), models.TriggerCLI)
	if err != nil {
		if result != nil && result.Run != nil {
			printRun(cmd.OutOrStdout(), result.Run)
		}
		return fmt.Errorf("rebuild failed: %w", err)
	}
	printRun(cmd.OutOrStdout(), result.Run)
	return nil
}

// attachProgress reports pipeline stages on a progress bar.
func attachProgress(p *pipeline.Pipeline, w io.Writer, disabled bool) {
	if disabled {
		return
	}
	bar := progressbar.NewOptions(pipeline.StageCount,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("building warehouse"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
	p.Progress = func(stage string) {
		bar.Describe(stage)
		if err := bar.Add(1); err != nil {
			slog.Debug("Progress bar update failed", "error", err)
		}
	}
}

func printRun(w io.Writer, run *models.PipelineRun) {
	fmt.Fprintf(w, "Run %s: %s\n", run.ID, run.Status)
	fmt.Fprintf(w, "  raw %d  staged %d  facts %d  training %d  dropped %d\n",
		run.RawRecords, run.Staged, run.Facts, run.TrainingRows, run.Dropped)
	for _, d := range run.Drops {
		fmt.Fprintf(w, "    %-20s %d\n", d.Reason, d.Count)
	}
	if run.ModelVersion != "" {
		fmt.Fprintf(w, "  model %s\n", run.ModelVersion)
	}
	if run.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", run.Error)
	}
}
