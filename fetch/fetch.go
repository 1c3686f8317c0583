// Package fetch downloads daily bars for a list of tickers and writes them
// to a single sorted, deduplicated CSV file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/viktsys/nifty50/csvio"
	"github.com/viktsys/nifty50/market"
	"github.com/viktsys/nifty50/timestamp"
)

// Header is the column layout of every file this package writes.
var Header = []string{"date", "tic", "open", "high", "low", "close", "volume"}

// ErrNoData matches a NoDataError with errors.Is.
var ErrNoData = errors.New("no data collected")

// NoDataError is returned when not a single ticker produced bars.
type NoDataError struct {
	Failed []string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s: all %d tickers failed", ErrNoData, len(e.Failed))
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// Options are the inputs of one fetch run. End is exclusive.
type Options struct {
	Tickers     []string
	Start       time.Time
	End         time.Time
	Interval    string
	OutputDir   string
	FilePrefix  string
	Timeout     time.Duration
	Concurrency int
}

// FileName is the deterministic output name for a date range.
func FileName(prefix string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_to_%s.csv", prefix, start.Format(timestamp.DateLayout), end.Format(timestamp.DateLayout))
}

// TickerResult is the outcome for a single ticker: bars or an error, never both.
type TickerResult struct {
	Ticker string
	Bars   []market.Bar
	Err    error
}

func (r TickerResult) OK() bool { return r.Err == nil }

// Summary describes the file produced by Run.
type Summary struct {
	Path       string
	Records    int
	Duplicates int
	FirstDate  string
	LastDate   string
	Tickers    int
	Requested  int
	Succeeded  int
	Failed     []string
	Sample     []market.Bar // first SampleRows bars of the file
	Close      ColumnStats
	Volume     ColumnStats
}

// SampleRows is how many leading bars a Summary keeps for display.
const SampleRows = 10

// ColumnStats describes one numeric column of the written file.
type ColumnStats struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Mean decimal.Decimal
}

func describe(values []decimal.Decimal) ColumnStats {
	if len(values) == 0 {
		return ColumnStats{}
	}
	st := ColumnStats{Min: values[0], Max: values[0]}
	sum := decimal.Zero
	for _, v := range values {
		if v.LessThan(st.Min) {
			st.Min = v
		}
		if v.GreaterThan(st.Max) {
			st.Max = v
		}
		sum = sum.Add(v)
	}
	st.Mean = sum.Div(decimal.NewFromInt(int64(len(values)))).Round(4)
	return st
}

// Print writes a human-readable report of s to w.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Total records: %d\n", s.Records)
	fmt.Fprintf(w, "Duplicates removed: %d\n", s.Duplicates)
	fmt.Fprintf(w, "Date range: %s to %s\n", s.FirstDate, s.LastDate)
	fmt.Fprintf(w, "Unique tickers: %d\n", s.Tickers)
	fmt.Fprintf(w, "Successful: %d/%d\n", s.Succeeded, s.Requested)
	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "Failed: %d (%s)\n", len(s.Failed), strings.Join(s.Failed, ", "))
	}
	fmt.Fprintf(w, "Data saved to: %s\n", s.Path)

	if len(s.Sample) > 0 {
		fmt.Fprintf(w, "\nFirst %d rows:\n", len(s.Sample))
		fmt.Fprintln(w, strings.Join(Header, ","))
		for _, b := range s.Sample {
			fmt.Fprintln(w, strings.Join(barRow(b), ","))
		}
	}
	if s.Records > 0 {
		fmt.Fprintf(w, "\n%-8s %14s %14s %14s\n", "", "min", "max", "mean")
		fmt.Fprintf(w, "%-8s %14s %14s %14s\n", "close", s.Close.Min, s.Close.Max, s.Close.Mean)
		fmt.Fprintf(w, "%-8s %14s %14s %14s\n", "volume", s.Volume.Min, s.Volume.Max, s.Volume.Mean)
	}
}

// Fetcher runs a provider over a ticker list.
type Fetcher struct {
	Provider market.Provider
	Options  Options
}

func New(provider market.Provider, opts Options) *Fetcher {
	if opts.Interval == "" {
		opts.Interval = "1d"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Fetcher{Provider: provider, Options: opts}
}

// Run fetches every ticker, combines the bars and writes the output file.
// Individual ticker failures are reported in the summary; only a run where
// every ticker failed is an error.
func (f *Fetcher) Run(ctx context.Context) (*Summary, error) {
	opts := f.Options
	slog.Info("fetch started",
		"provider", f.Provider.Name(),
		"tickers", len(opts.Tickers),
		"start", opts.Start.Format(timestamp.DateLayout),
		"end", opts.End.Format(timestamp.DateLayout),
	)

	results := f.FetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch interrupted: %w", err)
	}

	summary := &Summary{Requested: len(results)}
	for _, r := range results {
		if r.OK() {
			summary.Succeeded++
		} else {
			summary.Failed = append(summary.Failed, r.Ticker)
		}
	}
	if summary.Succeeded == 0 {
		return nil, &NoDataError{Failed: summary.Failed}
	}

	bars, dupes := Combine(results)
	summary.Records = len(bars)
	summary.Duplicates = dupes
	summary.Tickers = countTickers(bars)
	summary.FirstDate, summary.LastDate = dateSpan(bars)
	summary.Sample = bars[:min(SampleRows, len(bars))]
	summary.Close, summary.Volume = columnStats(bars)
	summary.Path = filepath.Join(opts.OutputDir, FileName(opts.FilePrefix, opts.Start, opts.End))

	if err := WriteBars(summary.Path, bars); err != nil {
		return nil, err
	}

	slog.Info("fetch completed",
		"path", summary.Path,
		"records", summary.Records,
		"duplicates", summary.Duplicates,
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failed),
	)
	return summary, nil
}

// FetchAll queries every ticker, at most Concurrency at a time. Results come
// back in ticker-list order regardless of completion order.
func (f *Fetcher) FetchAll(ctx context.Context) []TickerResult {
	results := make([]TickerResult, len(f.Options.Tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.Options.Concurrency)
	for i, ticker := range f.Options.Tickers {
		g.Go(func() error {
			results[i] = f.fetchOne(gctx, ticker)
			return nil
		})
	}
	g.Wait()
	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, ticker string) TickerResult {
	opts := f.Options
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	slog.Debug("fetching ticker", "ticker", ticker)
	bars, err := f.Provider.FetchBars(ctx, ticker, opts.Start, opts.End, opts.Interval)
	if err == nil {
		bars = inRange(bars, opts.Start, opts.End)
		if len(bars) == 0 {
			err = market.ErrNoData
		}
	}
	if err != nil {
		fe := &market.FetchError{Ticker: ticker, Err: err}
		slog.Warn("ticker failed", "ticker", ticker, "error", err)
		return TickerResult{Ticker: ticker, Err: fe}
	}

	slog.Info("ticker fetched", "ticker", ticker, "bars", len(bars))
	return TickerResult{Ticker: ticker, Bars: bars}
}

// inRange keeps bars whose calendar date is in [start, end), comparing
// dates rather than instants so exchange-local midnights are not lost.
func inRange(bars []market.Bar, start, end time.Time) []market.Bar {
	from := start.Format(timestamp.DateLayout)
	to := end.Format(timestamp.DateLayout)
	kept := bars[:0]
	for _, b := range bars {
		if d := b.Date.Date(); d >= from && d < to {
			kept = append(kept, b)
		}
	}
	return kept
}

// Combine concatenates successful results, sorts by (date, tic) and drops
// repeated (date, tic) pairs keeping the first occurrence. It returns the
// bars and the number of duplicates removed.
func Combine(results []TickerResult) ([]market.Bar, int) {
	var all []market.Bar
	for _, r := range results {
		if r.OK() {
			all = append(all, r.Bars...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Time.Equal(all[j].Date.Time) {
			return all[i].Date.Time.Before(all[j].Date.Time)
		}
		return all[i].Tic < all[j].Tic
	})

	out := make([]market.Bar, 0, len(all))
	for _, b := range all {
		if n := len(out); n > 0 && out[n-1].Tic == b.Tic && out[n-1].Date.Time.Equal(b.Date.Time) {
			continue
		}
		out = append(out, b)
	}
	return out, len(all) - len(out)
}

// WriteBars writes bars in the Header layout, replacing path atomically.
func WriteBars(path string, bars []market.Bar) error {
	t := &csvio.Table{Header: Header, Rows: make([][]string, 0, len(bars))}
	for _, b := range bars {
		t.Rows = append(t.Rows, barRow(b))
	}
	return t.WriteFile(path)
}

func barRow(b market.Bar) []string {
	return []string{
		b.Date.String(),
		b.Tic,
		b.Open.String(),
		b.High.String(),
		b.Low.String(),
		b.Close.String(),
		fmt.Sprint(b.Volume),
	}
}

func columnStats(bars []market.Bar) (ColumnStats, ColumnStats) {
	closes := make([]decimal.Decimal, len(bars))
	volumes := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = decimal.NewFromInt(b.Volume)
	}
	return describe(closes), describe(volumes)
}

func countTickers(bars []market.Bar) int {
	seen := make(map[string]struct{})
	for _, b := range bars {
		seen[b.Tic] = struct{}{}
	}
	return len(seen)
}

func dateSpan(bars []market.Bar) (string, string) {
	if len(bars) == 0 {
		return "", ""
	}
	return bars[0].Date.String(), bars[len(bars)-1].Date.String()
}
