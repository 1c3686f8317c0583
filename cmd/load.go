package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/viktsys/nifty50/database"
	"github.com/viktsys/nifty50/ingest"
)

var loadFlags struct {
	batchSize int
	workers   int
}

var loadCMD = &cobra.Command{
	Use:   "load [csv-file-or-directory]",
	Short: "Load daily bars from CSV into the database with parallel batch inserts",
	Long: `Insert the rows of a fetched or merged CSV file (or of every CSV file in a
directory) into the configured database. Rows whose (date, tic) pair is
already stored are left untouched; invalid rows are skipped and counted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("batch-size") {
			cfg.Load.BatchSize = loadFlags.batchSize
		}
		if flags.Changed("workers") {
			cfg.Load.Workers = loadFlags.workers
		}
		if err := validated(cfg.ValidateDatabase, cfg.ValidateLoad); err != nil {
			return err
		}

		path := cfg.Merge.Output
		if len(args) == 1 {
			path = args[0]
		}

		slog.Info("initializing database", "driver", cfg.Database.Driver)
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close(db)

		ctx, stop := signalContext()
		defer stop()

		processor := ingest.NewProcessor(db, ingest.Options{
			BatchSize: cfg.Load.BatchSize,
			Workers:   cfg.Load.Workers,
		})
		slog.Info("starting load", "path", path, "load_id", processor.LoadID(),
			"batch_size", cfg.Load.BatchSize, "workers", cfg.Load.Workers)

		res, err := processor.Load(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to load data: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Load %s completed in %s\n", res.LoadID, res.Duration.Round(time.Millisecond))
		fmt.Fprintf(os.Stdout, "  files:    %d\n", res.Files)
		fmt.Fprintf(os.Stdout, "  rows:     %d\n", res.Rows)
		fmt.Fprintf(os.Stdout, "  inserted: %d\n", res.Inserted)
		fmt.Fprintf(os.Stdout, "  existing: %d\n", res.Existing)
		fmt.Fprintf(os.Stdout, "  invalid:  %d\n", res.Invalid)
		return nil
	},
}

func init() {
	flags := loadCMD.Flags()
	flags.IntVar(&loadFlags.batchSize, "batch-size", 0, "rows per insert batch (default from config)")
	flags.IntVar(&loadFlags.workers, "workers", 0, "parallel insert workers (default from config)")
}
