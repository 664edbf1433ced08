package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genbea/internal/config"
)

func TestNewWorkbook_DuplicateSheetReplacesInPlace(t *testing.T) {
	wb := NewWorkbook([]string{"f.xlsx"},
		NewTable("A", []string{"x"}),
		NewTable("B", nil),
		NewTable("A", []string{"y"}),
	)

	assert.Equal(t, []string{"A", "B"}, wb.SheetNames())
	a, ok := wb.Sheet("A")
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, a.Columns)

	_, ok = wb.Sheet("missing")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	wb1 := NewWorkbook([]string{"t1.xlsx"},
		FromRecords("Estado_cepas", []string{"Codigo", "PCRs"}, [][]string{{"A1", "Sí"}}),
		FromRecords("Extraídas", []string{"Codigo"}, [][]string{{"A1"}}),
	)
	wb2 := NewWorkbook([]string{"t2.xlsx"},
		FromRecords("Otra", []string{"k"}, [][]string{{"v"}}),
		FromRecords("Estado_cepas", []string{"PCRs", "Codigo", "Nueva"}, [][]string{{"No", "B1", "n"}}),
	)

	merged := Merge(wb1, wb2)
	assert.Equal(t, []string{"t1.xlsx", "t2.xlsx"}, merged.Sources)
	assert.Equal(t, []string{"Estado_cepas", "Extraídas", "Otra"}, merged.SheetNames())

	primary, _ := merged.Sheet("Estado_cepas")
	assert.Equal(t, []string{"Codigo", "PCRs", "Nueva"}, primary.Columns)
	assert.Equal(t, [][]string{{"A1", "Sí", ""}, {"B1", "No", "n"}}, primary.Records())

	assert.Same(t, wb1, Merge(wb1), "single workbook is returned unchanged")
}

func TestSchema_Normalize(t *testing.T) {
	schema := Schema{
		PrimarySheet:   "P",
		TrackedColumns: []string{"PCRs", "Proyecto", "Ausente"},
		Sentinel:       "No definido",
	}
	source := FromRecords("P", []string{"Codigo", "PCRs", "Proyecto", "Nota"}, [][]string{
		{"A1", "Sí", "X", ""},
		{"A2", "", "Y", ""},
	})
	other := NewTable("O", []string{"z"})
	wb := NewWorkbook([]string{"f"}, source, other)

	got := schema.Normalize(wb)

	primary, _ := got.Sheet("P")
	assert.Equal(t, "No definido", primary.Rows[1]["PCRs"])
	assert.NotContains(t, primary.Rows[1], "Ausente", "absent tracked columns are not added")
	assert.NotContains(t, primary.Rows[0], "Nota", "untracked columns keep missing cells")
	assert.Equal(t, "", source.Rows[1]["PCRs"], "input rows are not mutated")

	o, _ := got.Sheet("O")
	assert.Same(t, other, o)

	assert.False(t, schema.Incomplete(primary.Rows[0]))
	assert.True(t, schema.Incomplete(primary.Rows[1]))
}

func TestSchema_NormalizeWithoutPrimarySheet(t *testing.T) {
	wb := NewWorkbook(nil, NewTable("Other", nil))
	assert.Same(t, wb, Schema{PrimarySheet: "P"}.Normalize(wb))
}

func TestSchemaFrom(t *testing.T) {
	cfg := config.Default().Dataset
	schema := SchemaFrom(cfg)

	assert.Equal(t, "Estado_cepas", schema.PrimarySheet)
	assert.Equal(t, "Codigo", schema.IdentifierColumn)
	assert.Equal(t, "No definido", schema.Sentinel)
	assert.Equal(t, cfg.TrackedColumns, schema.TrackedColumns)

	schema.TrackedColumns[0] = "changed"
	assert.NotEqual(t, "changed", cfg.TrackedColumns[0])
}
