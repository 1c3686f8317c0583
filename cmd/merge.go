package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viktsys/nifty50/merge"
)

var mergeFlags struct {
	baseline string
	recent   string
	output   string
}

var mergeCMD = &cobra.Command{
	Use:   "merge",
	Short: "Merge recent daily bars into the historical baseline CSV",
	Long: `Append to the baseline CSV the latest recent row of every (date, ticker)
pair the baseline does not already contain. Recent timestamps are converted
to the baseline's timezone convention; baseline rows are copied unchanged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("baseline") {
			cfg.Merge.Baseline = mergeFlags.baseline
		}
		if flags.Changed("recent") {
			cfg.Merge.Recent = mergeFlags.recent
		}
		if flags.Changed("output") {
			cfg.Merge.Output = mergeFlags.output
		}
		if err := validated(cfg.ValidateMerge); err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		res, err := merge.MergeFiles(ctx, merge.Options{
			BaselinePath: cfg.Merge.Baseline,
			RecentPath:   cfg.Merge.Recent,
			OutputPath:   cfg.Merge.Output,
		})
		if err != nil {
			return fmt.Errorf("merge failed: %w", err)
		}

		s := res.Stats
		zone := "naive"
		if res.Location != nil {
			zone = "aware"
		}
		fmt.Fprintf(os.Stdout, "Merged data saved to %s\n", cfg.Merge.Output)
		fmt.Fprintf(os.Stdout, "  baseline rows: %d (timestamps %s)\n", s.BaselineRows, zone)
		fmt.Fprintf(os.Stdout, "  recent rows:   %d (%d unparseable, %d collapsed, %d already present)\n",
			s.RecentRows, s.Unparseable, s.Collapsed, s.Covered)
		fmt.Fprintf(os.Stdout, "  appended:      %d\n", s.Appended)
		fmt.Fprintf(os.Stdout, "  total rows:    %d\n", len(res.Table.Rows))
		return nil
	},
}

func init() {
	flags := mergeCMD.Flags()
	flags.StringVar(&mergeFlags.baseline, "baseline", "", "historical CSV (default from config)")
	flags.StringVar(&mergeFlags.recent, "recent", "", "recently fetched CSV (default from config)")
	flags.StringVar(&mergeFlags.output, "output", "", "combined output CSV (default from config)")
}
