package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/model"
)

func pruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old model artifacts",
		Long: `Delete versioned artifacts beyond the newest --keep. latest.gob is
never deleted. Use --dry-run to list what would be removed.`,
		RunE: runPrune,
	}
	cmd.Flags().Int("keep", 0, "Versions to keep (default: model.retention)")
	cmd.Flags().Int("max", 100, "Maximum number of artifacts to delete")
	cmd.Flags().Bool("dry-run", false, "Only list the artifacts that would be deleted")
	return cmd
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		RunE:  runRuns,
	}
	cmd.Flags().Int("limit", 10, "Number of runs to show")
	return cmd
}

func masterdataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "masterdata",
		Short: "Inspect the master data tables",
	}

	export := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the effective master data as YAML",
		Long: `Write the built-in tables merged with master_data_path in the override
file layout. The output can be edited and passed back as master_data_path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMasterdataExport,
	}
	cmd.AddCommand(export)
	return cmd
}

func runPrune(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	keep, _ := cmd.Flags().GetInt("keep")
	if keep <= 0 {
		keep = a.Config.Model.Retention
	}
	maxCount, _ := cmd.Flags().GetInt("max")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	result, err := a.Store.Prune(model.PruneConfig{Keep: keep, MaxDeletionCount: maxCount, DryRun: dryRun})
	if err != nil {
		return err
	}
	if !dryRun {
		if err := a.Warehouse.MarkPruned(cmd.Context(), result.Deleted); err != nil {
			return fmt.Errorf("failed to mark pruned versions: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}
	fmt.Fprintf(out, "%s %d of %d artifacts (keep %d)\n", verb, len(result.Deleted), result.TargetCount, keep)
	for _, v := range result.Deleted {
		fmt.Fprintf(out, "  %s\n", v)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
	return nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := a.Warehouse.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTRIGGER\tSTARTED\tRAW\tTRAINING\tDROPPED\tMODEL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.Trigger, r.StartedAt.Format("2006-01-02 15:04:05"),
			cast.ToString(r.RawRecords), cast.ToString(r.TrainingRows), cast.ToString(r.Dropped), r.ModelVersion)
	}
	return tw.Flush()
}

func runMasterdataExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tables, err := masterdata.Load(cfg.MasterDataPath)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return tables.Export(cmd.OutOrStdout())
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}
	if err := tables.Export(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
