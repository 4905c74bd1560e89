package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridform/gridform/address"
)

func TestAddWorkbookRejectsDuplicateName(t *testing.T) {
	s := New()
	require.True(t, s.AddWorkbook("Book1"))
	assert.False(t, s.AddWorkbook("Book1"))
}

func TestRemoveWorkbookReportsAbsence(t *testing.T) {
	s := New()
	assert.False(t, s.RemoveWorkbook("Ghost"))
	s.AddWorkbook("Book1")
	assert.True(t, s.RemoveWorkbook("Book1"))
	_, ok := s.Workbook("Book1")
	assert.False(t, ok)
}

func TestSheetSetCellEmptyContentDeletesEntry(t *testing.T) {
	s := New()
	s.AddWorkbook("Book1")
	wb, _ := s.Workbook("Book1")
	wb.AddSheet("Sheet1")
	sh, _ := wb.Sheet("Sheet1")

	sh.SetCell("A1", NumberContent(10))
	assert.True(t, sh.Has("A1"))

	sh.SetCell("A1", EmptyContent)
	assert.False(t, sh.Has("A1"))
	assert.Equal(t, EmptyContent, sh.GetCell("A1"))
}

func TestSheetClearRemovesEveryCell(t *testing.T) {
	s := New()
	s.AddWorkbook("Book1")
	wb, _ := s.Workbook("Book1")
	wb.AddSheet("Sheet1")
	sh, _ := wb.Sheet("Sheet1")

	sh.SetCell("A1", NumberContent(1))
	sh.SetCell("B2", NumberContent(2))
	require.Len(t, sh.All(), 2)

	sh.Clear()
	assert.Empty(t, sh.All())
	assert.False(t, sh.Has("A1"))
}

func TestRemoveSheetDropsItsTablesAndSheetScopedNames(t *testing.T) {
	wb := newWorkbook("Book1")
	wb.AddSheet("Sheet1")
	wb.AddNamedExpression("Local", Scope{Sheet: "Sheet1"}, NumberContent(1))
	wb.AddNamedExpression("Glob", Scope{Global: true}, NumberContent(2))
	wb.AddTable(NewTable("Sales", "Book1", "Sheet1", 0, 0, address.End{Infinite: true}, []string{"Amount"}))

	wb.RemoveSheet("Sheet1")

	_, ok := wb.ResolveNamedExpression("Local", "Sheet1")
	assert.False(t, ok)
	_, ok = wb.ResolveNamedExpression("Glob", "Sheet1")
	assert.True(t, ok, "global names must survive the sheet that defined them")
	assert.Empty(t, wb.Tables(), "tables anchored on the removed sheet must go with it")
}

func TestRenameSheetRewritesFormulaQualifiers(t *testing.T) {
	wb := newWorkbook("Book1")
	wb.AddSheet("Sheet1")
	wb.AddSheet("Sheet2")
	sh2, _ := wb.Sheet("Sheet2")
	sh2.SetCell("A1", TextContent("=Sheet1!A1+1"))

	require.True(t, wb.RenameSheet("Sheet1", "Data"))

	assert.Equal(t, "=Data!A1+1", sh2.GetCell("A1").Text)
	_, stillOld := wb.Sheet("Sheet1")
	assert.False(t, stillOld)
	renamed, ok := wb.Sheet("Data")
	require.True(t, ok)
	assert.Equal(t, "Data", renamed.Name)
}

func TestRenameSheetMovesSheetScopedNamedExpression(t *testing.T) {
	wb := newWorkbook("Book1")
	wb.AddSheet("Sheet1")
	wb.AddNamedExpression("Local", Scope{Sheet: "Sheet1"}, NumberContent(5))

	require.True(t, wb.RenameSheet("Sheet1", "Data"))

	_, ok := wb.ResolveNamedExpression("Local", "Sheet1")
	assert.False(t, ok)
	_, ok = wb.ResolveNamedExpression("Local", "Data")
	assert.True(t, ok)
}

func TestRenameSheetRejectsNameCollision(t *testing.T) {
	wb := newWorkbook("Book1")
	wb.AddSheet("Sheet1")
	wb.AddSheet("Sheet2")
	assert.False(t, wb.RenameSheet("Sheet1", "Sheet2"))
}

func TestRewriteSheetQualifierQuotesNonIdentifierNames(t *testing.T) {
	got := RewriteSheetQualifier("=Sheet1!A1", "Sheet1", "My Sheet")
	assert.Equal(t, "='My Sheet'!A1", got)
}

func TestRewriteSheetQualifierHandlesAlreadyQuotedSource(t *testing.T) {
	got := RewriteSheetQualifier("='Old Name'!A1", "Old Name", "NewName")
	assert.Equal(t, "=NewName!A1", got)
}

func TestRewriteTableNameOnlyMatchesStructuredReferencePrefix(t *testing.T) {
	got := RewriteTableName("=SUM(Sales[Amount])+SalesTotal", "Sales", "Revenue")
	assert.Equal(t, "=SUM(Revenue[Amount])+SalesTotal", got)
}

func TestNewTableIndexesHeadersForColumnLookup(t *testing.T) {
	tbl := NewTable("Sales", "Book1", "Sheet1", 0, 0, address.End{Infinite: true}, []string{"Amount", "Region"})
	idx, ok := tbl.ColumnIndex("Region")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = tbl.ColumnIndex("Missing")
	assert.False(t, ok)
}

func TestWorkbookNamedExpressionsListsEveryEntry(t *testing.T) {
	wb := newWorkbook("Book1")
	wb.AddNamedExpression("Local", Scope{Sheet: "Sheet1"}, NumberContent(1))
	wb.AddNamedExpression("Glob", Scope{Global: true}, NumberContent(2))

	names := make([]string, 0, 2)
	for _, n := range wb.NamedExpressions() {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"Local", "Glob"}, names)
}
