package csvio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTable(t *testing.T) {
	in := "date,tic,close\n2022-01-01,TCS,1\n\n2022-01-02,TCS,2,extra\n\"2022-01-03\",\"A,B\",3\n"

	tbl, err := DecodeTable(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "tic", "close"}, tbl.Header)
	assert.Equal(t, [][]string{
		{"2022-01-01", "TCS", "1"},
		{"2022-01-02", "TCS", "2", "extra"},
		{"2022-01-03", "A,B", "3"},
	}, tbl.Rows)
	assert.Equal(t, 1, tbl.Index("tic"))
	assert.Equal(t, -1, tbl.Index("volume"))
}

func TestDecodeTableStrayQuotes(t *testing.T) {
	in := "date,tic,name\n2022-01-01,TCS,Tata \"Consultancy\"\n2022-01-02,INFY,Infosys\n"

	tbl, err := DecodeTable(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, `Tata "Consultancy"`, tbl.Rows[0][2])

	var buf strings.Builder
	require.NoError(t, tbl.Encode(&buf))
	assert.Equal(t, "date,tic,name\n2022-01-01,TCS,\"Tata \"\"Consultancy\"\"\"\n2022-01-02,INFY,Infosys\n", buf.String())
}

func TestDecodeTableEmpty(t *testing.T) {
	_, err := DecodeTable(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header row")
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	tbl := &Table{
		Header: []string{"date", "tic"},
		Rows:   [][]string{{"2022-01-01 00:00:00+05:30", "M&M"}, {"2022-01-02", "A,B"}},
	}
	require.NoError(t, tbl.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,tic\n2022-01-01 00:00:00+05:30,M&M\n2022-01-02,\"A,B\"\n", string(data))

	back, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, tbl, back)
}

func TestWriteAtomicKeepsOldFileOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	err := WriteAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errors.New("boom")
	})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
