package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	runMerge(t, dir)
}

func TestMergeCommandIgnoresFetchAndDatabaseSettings(t *testing.T) {
	t.Setenv("NIFTY_PROVIDER", "tiingo")
	t.Setenv("TIINGO_TOKEN", "")
	t.Setenv("DB_DRIVER", "mysql")
	runMerge(t, t.TempDir())
}

func runMerge(t *testing.T, dir string) {
	t.Helper()
	baseline := filepath.Join(dir, "baseline.csv")
	recent := filepath.Join(dir, "recent.csv")
	output := filepath.Join(dir, "combined.csv")
	require.NoError(t, os.WriteFile(baseline, []byte("date,tic,open\n2022-01-01,TCS,100\n"), 0o644))
	require.NoError(t, os.WriteFile(recent, []byte("date,tic,open\n2022-01-01T05:30:00+05:30,TCS,101\n2022-01-02T00:00:00+05:30,TCS,102\n"), 0o644))

	rootCMD.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"merge", "--baseline", baseline, "--recent", recent, "--output", output,
	})
	require.NoError(t, rootCMD.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "date,tic,open\n2022-01-01,TCS,100\n2022-01-02 00:00:00,TCS,102\n", string(data))
}

func TestLoadCommandRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	rootCMD.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "load", "none.csv"})
	err := rootCMD.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestFetchCommandRejectsBadRange(t *testing.T) {
	rootCMD.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"fetch", "--start", "2023-01-01", "--end", "2022-01-01", "--out-dir", t.TempDir(),
	})
	err := rootCMD.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.start must be before fetch.end")
}
