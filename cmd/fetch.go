package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/viktsys/nifty50/config"
	"github.com/viktsys/nifty50/fetch"
	"github.com/viktsys/nifty50/market"
)

var fetchFlags struct {
	start       string
	end         string
	tickers     string
	provider    string
	outDir      string
	concurrency int
	timeout     time.Duration
}

var fetchCMD = &cobra.Command{
	Use:   "fetch",
	Short: "Download daily bars for the configured tickers into a CSV file",
	Long: `Download daily OHLCV bars for every configured ticker between start
(inclusive) and end (exclusive), then write them sorted by date and ticker,
without duplicates, to <out-dir>/<prefix>_<start>_to_<end>.csv. Tickers that
fail are reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFetchFlags(cmd, &cfg.Fetch)
		if err := validated(cfg.ValidateFetch); err != nil {
			return err
		}

		f := cfg.Fetch
		start, _ := f.StartDate()
		end, _ := f.EndDate()

		provider, err := market.New(market.Config{
			Name:        f.Provider,
			BaseURL:     f.BaseURL,
			Proxy:       f.Proxy,
			TiingoToken: f.TiingoToken,
		})
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		summary, err := fetch.New(provider, fetch.Options{
			Tickers:     f.Tickers,
			Start:       start,
			End:         end,
			Interval:    f.Interval,
			OutputDir:   f.OutputDir,
			FilePrefix:  f.FilePrefix,
			Timeout:     f.Timeout,
			Concurrency: f.Concurrency,
		}).Run(ctx)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}

		summary.Print(os.Stdout)
		return nil
	},
}

func applyFetchFlags(cmd *cobra.Command, f *config.FetchConfig) {
	flags := cmd.Flags()
	if flags.Changed("start") {
		f.Start = fetchFlags.start
	}
	if flags.Changed("end") {
		f.End = fetchFlags.end
	}
	if flags.Changed("tickers") {
		f.Tickers = config.SplitTickers(fetchFlags.tickers)
	}
	if flags.Changed("provider") {
		f.Provider = fetchFlags.provider
	}
	if flags.Changed("out-dir") {
		f.OutputDir = fetchFlags.outDir
	}
	if flags.Changed("concurrency") {
		f.Concurrency = fetchFlags.concurrency
	}
	if flags.Changed("timeout") {
		f.Timeout = fetchFlags.timeout
	}
}

func init() {
	flags := fetchCMD.Flags()
	flags.StringVar(&fetchFlags.start, "start", config.DefaultStart, "first date to fetch (YYYY-MM-DD, inclusive)")
	flags.StringVar(&fetchFlags.end, "end", config.DefaultEnd, "end date (YYYY-MM-DD, exclusive)")
	flags.StringVar(&fetchFlags.tickers, "tickers", "", "comma-separated ticker symbols (default NIFTY-50 constituents)")
	flags.StringVar(&fetchFlags.provider, "provider", config.DefaultProvider, "market-data provider (yahoo, tiingo)")
	flags.StringVar(&fetchFlags.outDir, "out-dir", config.DefaultOutputDir, "directory for the output file")
	flags.IntVar(&fetchFlags.concurrency, "concurrency", config.DefaultConcurrency, "tickers fetched in parallel")
	flags.DurationVar(&fetchFlags.timeout, "timeout", config.DefaultTimeout, "per-request timeout")
}
