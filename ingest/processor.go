package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viktsys/nifty50/models"
	"github.com/viktsys/nifty50/timestamp"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultBatchSize   = 2000
	DefaultWorkerCount = 8
	DefaultBufferSize  = 64
)

// RequiredColumns must all be present in a file handed to the loader.
var RequiredColumns = []string{"date", "tic", "open", "high", "low", "close", "volume"}

type BarRecord struct {
	Date   string
	Tic    string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// Options tunes batching and parallelism.
type Options struct {
	BatchSize int
	Workers   int
}

// Result summarises one load.
type Result struct {
	LoadID   string
	Files    int
	Rows     int64
	Inserted int64
	Existing int64
	Invalid  int64
	Duration time.Duration
}

// tally counts the rows of a single file.
type tally struct {
	rows     int64
	inserted int64
	invalid  int64
}

type Processor struct {
	db        *gorm.DB
	opts      Options
	loadID    string
	rows      int64
	inserted  int64
	invalid   int64
	fileCount int64
}

func NewProcessor(db *gorm.DB, opts Options) *Processor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkerCount
	}
	return &Processor{
		db:     db,
		opts:   opts,
		loadID: uuid.NewString(),
	}
}

// LoadID identifies the rows inserted by this processor.
func (p *Processor) LoadID() string { return p.loadID }

// Load ingests a single CSV file, or every *.csv file when path is a directory.
func (p *Processor) Load(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return p.ProcessDirectory(ctx, path)
	}

	startTime := time.Now()
	if err := p.ProcessFile(ctx, path); err != nil {
		return nil, err
	}
	return p.result(time.Since(startTime)), nil
}

// ProcessDirectory loads every CSV file in dataDir, one at a time so rows
// from earlier files win on (date, tic) conflicts. A failing file is logged
// and skipped.
func (p *Processor) ProcessDirectory(ctx context.Context, dataDir string) (*Result, error) {
	startTime := time.Now()

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to find CSV files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in directory: %s", dataDir)
	}

	slog.Info("loading directory", "dir", dataDir, "files", len(files), "workers", p.opts.Workers)

	var failed int
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.ProcessFile(ctx, file); err != nil {
			slog.Error("failed to load file", "file", file, "error", err)
			failed++
		}
	}
	if failed == len(files) {
		return nil, fmt.Errorf("all %d files in %s failed to load", failed, dataDir)
	}
	return p.result(time.Since(startTime)), nil
}

func (p *Processor) result(d time.Duration) *Result {
	rows := atomic.LoadInt64(&p.rows)
	inserted := atomic.LoadInt64(&p.inserted)
	invalid := atomic.LoadInt64(&p.invalid)
	return &Result{
		LoadID:   p.loadID,
		Files:    int(atomic.LoadInt64(&p.fileCount)),
		Rows:     rows,
		Inserted: inserted,
		Existing: rows - invalid - inserted,
		Invalid:  invalid,
		Duration: d,
	}
}

// ProcessFile streams one CSV file through the batch workers.
func (p *Processor) ProcessFile(ctx context.Context, filename string) error {
	fileStart := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", filename, err)
	}
	columns, err := columnIndex(header)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	recordChan := make(chan []BarRecord, DefaultBufferSize)
	errorChan := make(chan error, p.opts.Workers)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var counts tally
	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go p.worker(ctx, &counts, recordChan, errorChan, &wg)
	}

	// Read and parse CSV in batches
	go func() {
		defer close(recordChan)

		batch := make([]BarRecord, 0, p.opts.BatchSize)
		batchCount := 0
		send := func() bool {
			select {
			case recordChan <- batch:
				batchCount++
				batch = make([]BarRecord, 0, p.opts.BatchSize)
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				slog.Warn("error reading CSV line", "file", filename, "error", err)
				continue
			}
			if len(record) == 1 && record[0] == "" {
				continue
			}

			atomic.AddInt64(&counts.rows, 1)
			batch = append(batch, columns.record(record))

			if len(batch) >= p.opts.BatchSize && !send() {
				return
			}
		}
		if len(batch) > 0 && !send() {
			return
		}

		slog.Debug("sent batches for processing", "file", filepath.Base(filename), "batches", batchCount)
	}()

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(errorChan)
	}()

	var workerErr error
	for err := range errorChan {
		if err != nil && workerErr == nil {
			workerErr = err
			cancel()
		}
	}
	if workerErr == nil {
		workerErr = ctx.Err()
	}
	if workerErr != nil {
		// Batches committed before the failure stay in the database but
		// the file does not count towards the totals.
		slog.Warn("file load aborted", "file", filename, "committed", atomic.LoadInt64(&counts.inserted))
		return fmt.Errorf("worker error: %w", workerErr)
	}

	atomic.AddInt64(&p.rows, counts.rows)
	atomic.AddInt64(&p.inserted, counts.inserted)
	atomic.AddInt64(&p.invalid, counts.invalid)
	atomic.AddInt64(&p.fileCount, 1)
	slog.Info("loaded file", "file", filename, "took", time.Since(fileStart))
	return nil
}

func (p *Processor) worker(ctx context.Context, counts *tally, recordChan <-chan []BarRecord, errorChan chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case batch, ok := <-recordChan:
			if !ok {
				return
			}
			if err := p.processBatch(ctx, counts, batch); err != nil {
				errorChan <- err
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Processor) processBatch(ctx context.Context, counts *tally, records []BarRecord) error {
	if len(records) == 0 {
		return nil
	}

	bars := make([]models.DailyBar, 0, len(records))
	for _, record := range records {
		bar, err := p.parseBarRecord(record)
		if err != nil {
			atomic.AddInt64(&counts.invalid, 1)
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(bars, len(bars))
		if res.Error != nil {
			return res.Error
		}
		atomic.AddInt64(&counts.inserted, res.RowsAffected)
		return nil
	})
}

// parseBarRecord converts a raw record. The stored date is the calendar
// date of the timestamp at midnight UTC, matching the (date, tic) key.
func (p *Processor) parseBarRecord(record BarRecord) (models.DailyBar, error) {
	var bar models.DailyBar

	ts, err := timestamp.Parse(record.Date)
	if err != nil {
		return bar, fmt.Errorf("invalid date format: %w", err)
	}
	date, err := time.Parse(timestamp.DateLayout, ts.Date())
	if err != nil {
		return bar, fmt.Errorf("invalid date format: %w", err)
	}

	tic := strings.TrimSpace(record.Tic)
	if tic == "" {
		return bar, errors.New("missing ticker")
	}

	prices := make([]decimal.Decimal, 4)
	for i, raw := range []string{record.Open, record.High, record.Low, record.Close} {
		prices[i], err = decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return bar, fmt.Errorf("invalid price format: %w", err)
		}
	}

	// Volume may be written as a float by some tools
	volume, err := strconv.ParseFloat(strings.TrimSpace(record.Volume), 64)
	if err != nil {
		return bar, fmt.Errorf("invalid volume format: %w", err)
	}

	bar.Date = date
	bar.Tic = tic
	bar.Open, bar.High, bar.Low, bar.Close = prices[0], prices[1], prices[2], prices[3]
	bar.Volume = int64(volume)
	bar.LoadID = p.loadID
	bar.CreatedAt = time.Now()

	return bar, nil
}

type columnPositions map[string]int

func columnIndex(header []string) (columnPositions, error) {
	pos := make(columnPositions, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("missing %q column", col)
		}
	}
	return pos, nil
}

func (c columnPositions) record(row []string) BarRecord {
	get := func(col string) string {
		if i := c[col]; i < len(row) {
			return row[i]
		}
		return ""
	}
	return BarRecord{
		Date:   get("date"),
		Tic:    get("tic"),
		Open:   get("open"),
		High:   get("high"),
		Low:    get("low"),
		Close:  get("close"),
		Volume: get("volume"),
	}
}
