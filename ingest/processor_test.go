package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/viktsys/nifty50/config"
	"github.com/viktsys/nifty50/database"
	"github.com/viktsys/nifty50/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "bars.db")})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseBarRecord(t *testing.T) {
	processor := NewProcessor(nil, Options{})

	bar, err := processor.parseBarRecord(BarRecord{
		Date:   "2022-01-03 00:00:00+05:30",
		Tic:    "TCS",
		Open:   "3750.5",
		High:   "3830",
		Low:    "3745.05",
		Close:  "3817.75",
		Volume: "2346158.0",
	})
	require.NoError(t, err)

	assert.True(t, bar.Date.Equal(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "TCS", bar.Tic)
	assert.True(t, bar.Close.Equal(decimal.RequireFromString("3817.75")))
	assert.Equal(t, int64(2346158), bar.Volume)
	assert.Equal(t, processor.LoadID(), bar.LoadID)
}

func TestParseInvalidDate(t *testing.T) {
	processor := NewProcessor(nil, Options{})

	_, err := processor.parseBarRecord(BarRecord{Date: "invalid-date", Tic: "TCS", Open: "1", High: "1", Low: "1", Close: "1", Volume: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date format")
}

func TestParseInvalidPrice(t *testing.T) {
	processor := NewProcessor(nil, Options{})

	_, err := processor.parseBarRecord(BarRecord{Date: "2022-01-03", Tic: "TCS", Open: "n/a", High: "1", Low: "1", Close: "1", Volume: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid price format")
}

func TestParseMissingTicker(t *testing.T) {
	processor := NewProcessor(nil, Options{})

	_, err := processor.parseBarRecord(BarRecord{Date: "2022-01-03", Tic: " ", Open: "1", High: "1", Low: "1", Close: "1", Volume: "1"})
	assert.Error(t, err)
}

func TestColumnIndex(t *testing.T) {
	cols, err := columnIndex([]string{"tic", "volume", "date", "close", "low", "high", "open", "extra"})
	require.NoError(t, err)

	rec := cols.record([]string{"INFY", "10", "2022-01-03", "4", "3", "2", "1", "x"})
	assert.Equal(t, BarRecord{Date: "2022-01-03", Tic: "INFY", Open: "1", High: "2", Low: "3", Close: "4", Volume: "10"}, rec)

	_, err = columnIndex([]string{"date", "tic", "open"})
	assert.ErrorContains(t, err, `missing "high" column`)
}

func TestLoadFileSkipsExistingAndInvalidRows(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "combined.csv", "date,tic,open,high,low,close,volume\n"+
		"2022-01-03 00:00:00+05:30,TCS,3750.5,3830,3745.05,3817.75,2346158\n"+
		"2022-01-03 00:00:00+05:30,INFY,1887.75,1914.95,1887.75,1898.45,3329616\n"+
		"\n"+
		"garbage,INFY,1,1,1,1,1\n"+
		"2022-01-04 00:00:00+05:30,TCS,3831,3864.4,3811.55,3855.1,2563014\n")

	first, err := NewProcessor(db, Options{BatchSize: 2, Workers: 2}).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Files)
	assert.Equal(t, int64(4), first.Rows)
	assert.Equal(t, int64(3), first.Inserted)
	assert.Equal(t, int64(1), first.Invalid)
	assert.Equal(t, int64(0), first.Existing)

	second, err := NewProcessor(db, Options{BatchSize: 2, Workers: 2}).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Inserted)
	assert.Equal(t, int64(3), second.Existing)
	assert.NotEqual(t, first.LoadID, second.LoadID)

	var count int64
	require.NoError(t, db.Model(&models.DailyBar{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var bar models.DailyBar
	require.NoError(t, db.Where("tic = ?", "TCS").Order("date").First(&bar).Error)
	assert.Equal(t, first.LoadID, bar.LoadID)
	assert.True(t, bar.Close.Equal(decimal.RequireFromString("3817.75")))
}

func TestLoadDirectory(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	header := "date,tic,open,high,low,close,volume\n"
	writeFile(t, dir, "a.csv", header+"2022-01-03,TCS,1,1,1,1,10\n")
	writeFile(t, dir, "b.csv", header+"2022-01-03,TCS,2,2,2,2,20\n2022-01-04,TCS,3,3,3,3,30\n")
	writeFile(t, dir, "c.csv", "date,tic\n2022-01-05,TCS\n")
	writeFile(t, dir, "notes.txt", "ignored")

	res, err := NewProcessor(db, Options{}).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, int64(2), res.Inserted)

	var bar models.DailyBar
	require.NoError(t, db.Where("tic = ? AND volume = ?", "TCS", 10).First(&bar).Error)
}

func TestLoadDirectoryCountsOnlyCompletedFiles(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON daily_bars
		WHEN NEW.tic = 'BOOM' BEGIN SELECT RAISE(ABORT, 'rejected'); END`).Error)

	dir := t.TempDir()
	header := "date,tic,open,high,low,close,volume\n"
	writeFile(t, dir, "a.csv", header+"2022-01-03,TCS,1,1,1,1,10\n")
	writeFile(t, dir, "b.csv", header+"2022-01-03,INFY,1,1,1,1,10\n2022-01-03,BOOM,1,1,1,1,10\n2022-01-04,INFY,1,1,1,1,10\n")

	res, err := NewProcessor(db, Options{BatchSize: 1, Workers: 1}).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, int64(1), res.Rows)
	assert.Equal(t, int64(1), res.Inserted)
	assert.Equal(t, int64(0), res.Existing)
	assert.Equal(t, int64(0), res.Invalid)
}

func TestLoadMissingColumns(t *testing.T) {
	db := newTestDB(t)
	path := writeFile(t, t.TempDir(), "bad.csv", "date,tic,close\n2022-01-03,TCS,1\n")

	_, err := NewProcessor(db, Options{}).Load(context.Background(), path)
	assert.ErrorContains(t, err, `missing "open" column`)
}

func TestLoadMissingPath(t *testing.T) {
	_, err := NewProcessor(nil, Options{}).Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
