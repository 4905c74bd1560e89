package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridform/gridform/engine"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New()
	require.True(t, eng.AddWorkbook(workbook))
	require.True(t, eng.AddSheet(workbook, sheet))
	return eng
}

func TestExecuteWriteThenReadRoundTrips(t *testing.T) {
	eng := newTestEngine(t)
	var out bytes.Buffer

	assert.False(t, execute(eng, "A1 = 10", &out))
	assert.False(t, execute(eng, "B1 = =A1*2", &out))
	assert.False(t, execute(eng, "B1", &out))

	assert.Equal(t, "20", strings.TrimSpace(out.String()))
}

func TestExecuteQuitReturnsDone(t *testing.T) {
	eng := newTestEngine(t)
	var out bytes.Buffer
	assert.True(t, execute(eng, ":quit", &out))
}

func TestExecuteSheetsListsSheetNames(t *testing.T) {
	eng := newTestEngine(t)
	eng.AddSheet(workbook, "Sheet2")
	var out bytes.Buffer

	assert.False(t, execute(eng, ":sheets", &out))
	assert.Equal(t, "Sheet1, Sheet2", strings.TrimSpace(out.String()))
}

func TestExecuteBadCellReferenceReportsError(t *testing.T) {
	eng := newTestEngine(t)
	var out bytes.Buffer

	assert.False(t, execute(eng, "NotACell", &out))
	assert.Contains(t, out.String(), "bad cell reference")
}

func TestExecuteRejectsUnparseableFormulaWithoutWriting(t *testing.T) {
	eng := newTestEngine(t)
	var out bytes.Buffer

	assert.False(t, execute(eng, "A1 = =SUM(1,2", &out))
	assert.Contains(t, out.String(), "parse error")

	out.Reset()
	execute(eng, "A1", &out)
	assert.Equal(t, "", strings.TrimSpace(out.String()), "rejected formula must not be written to the cell")
}
