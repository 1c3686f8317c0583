// Package merge combines a long-history baseline price CSV with a recently
// fetched one, producing a single file without duplicate (date, ticker) rows.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/viktsys/nifty50/csvio"
	"github.com/viktsys/nifty50/timestamp"
)

const (
	DateColumn   = "date"
	TickerColumn = "tic"
)

// Key identifies one daily bar. Ticker is empty when the data has no ticker column.
type Key struct {
	Date   string
	Ticker string
}

func (k Key) Less(other Key) bool {
	if k.Date != other.Date {
		return k.Date < other.Date
	}
	return k.Ticker < other.Ticker
}

type entry struct {
	ts  timestamp.Timestamp
	row []string
}

// Stats summarises one merge run.
type Stats struct {
	BaselineRows int
	RecentRows   int
	Unparseable  int // recent rows with a bad timestamp
	Collapsed    int // recent rows that lost to a later row with the same key
	Covered      int // recent keys already present in the baseline
	Appended     int
}

// Result is the merged table together with its stats.
type Result struct {
	Table    *csvio.Table
	Location *time.Location // nil when the baseline is naive
	Stats    Stats
}

// Options names the files taking part in MergeFiles.
type Options struct {
	BaselinePath string
	RecentPath   string
	OutputPath   string
}

// MergeFiles reads both inputs, merges them and writes the output file.
// Nothing is written when the inputs are rejected.
func MergeFiles(ctx context.Context, opts Options) (*Result, error) {
	baseline, err := csvio.ReadTable(opts.BaselinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	recent, err := csvio.ReadTable(opts.RecentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := Merge(baseline, recent)
	if err != nil {
		return nil, err
	}
	if err := res.Table.WriteFile(opts.OutputPath); err != nil {
		return nil, err
	}

	slog.Info("merge completed",
		"output", opts.OutputPath,
		"baseline_rows", res.Stats.BaselineRows,
		"recent_rows", res.Stats.RecentRows,
		"unparseable", res.Stats.Unparseable,
		"collapsed", res.Stats.Collapsed,
		"covered", res.Stats.Covered,
		"appended", res.Stats.Appended,
	)
	return res, nil
}

// Merge appends to baseline the latest recent row of every (date, ticker)
// key the baseline does not already cover. Baseline rows are kept verbatim
// and in order; appended rows follow in key order with their timestamps
// rewritten in the baseline's zone policy.
func Merge(baseline, recent *csvio.Table) (*Result, error) {
	if !slices.Equal(baseline.Header, recent.Header) {
		return nil, &HeaderMismatchError{Baseline: baseline.Header, Recent: recent.Header}
	}
	dateIdx := baseline.Index(DateColumn)
	if dateIdx < 0 {
		return nil, &MissingColumnError{Column: DateColumn, Header: baseline.Header}
	}
	tickerIdx := baseline.Index(TickerColumn)

	loc := DetectLocation(baseline.Rows, dateIdx)
	daily, stats := indexRecent(recent.Rows, dateIdx, tickerIdx, loc)
	existing := existingKeys(baseline.Rows, dateIdx, tickerIdx)

	keys := make([]Key, 0, len(daily))
	for key := range daily {
		if _, ok := existing[key]; ok {
			stats.Covered++
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := &csvio.Table{
		Header: slices.Clone(baseline.Header),
		Rows:   make([][]string, 0, len(baseline.Rows)+len(keys)),
	}
	out.Rows = append(out.Rows, baseline.Rows...)
	for _, key := range keys {
		out.Rows = append(out.Rows, daily[key].row)
	}

	stats.BaselineRows = len(baseline.Rows)
	stats.Appended = len(keys)
	return &Result{Table: out, Location: loc, Stats: stats}, nil
}

// DetectLocation returns the zone of the first row whose timestamp carries an
// offset, or nil when every parseable row is naive.
func DetectLocation(rows [][]string, dateIdx int) *time.Location {
	for _, row := range rows {
		ts, ok := parseAt(row, dateIdx)
		if ok && ts.Aware {
			return ts.Location()
		}
	}
	return nil
}

func indexRecent(rows [][]string, dateIdx, tickerIdx int, loc *time.Location) (map[Key]entry, Stats) {
	stats := Stats{RecentRows: len(rows)}
	daily := make(map[Key]entry)

	for _, row := range rows {
		ts, ok := parseAt(row, dateIdx)
		if !ok {
			stats.Unparseable++
			continue
		}
		ts = timestamp.Normalize(ts, loc)

		key := Key{Date: ts.Date(), Ticker: field(row, tickerIdx)}
		current, seen := daily[key]
		if seen {
			stats.Collapsed++
			// Equal timestamps keep the row seen first.
			if !ts.After(current.ts) {
				continue
			}
		}

		normalized := slices.Clone(row)
		normalized[dateIdx] = ts.String()
		daily[key] = entry{ts: ts, row: normalized}
	}
	return daily, stats
}

func existingKeys(rows [][]string, dateIdx, tickerIdx int) map[Key]struct{} {
	keys := make(map[Key]struct{}, len(rows))
	for _, row := range rows {
		ts, ok := parseAt(row, dateIdx)
		if !ok {
			continue
		}
		keys[Key{Date: ts.Date(), Ticker: field(row, tickerIdx)}] = struct{}{}
	}
	return keys
}

func parseAt(row []string, idx int) (timestamp.Timestamp, bool) {
	if idx >= len(row) {
		return timestamp.Timestamp{}, false
	}
	ts, err := timestamp.Parse(row[idx])
	if err != nil {
		return timestamp.Timestamp{}, false
	}
	return ts, true
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
