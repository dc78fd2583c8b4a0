package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq/internal"
)

// row builds a row whose first cell is a header and the rest data cells.
func row(cells ...string) internal.Row {
	var r internal.Row
	for i, c := range cells {
		kind := internal.CellData
		if i == 0 {
			kind = internal.CellHeader
		}
		r.Cells = append(r.Cells, internal.Cell{Kind: kind, Text: c})
	}
	return r
}

func table(rows ...internal.Row) internal.Table {
	return internal.Table{Rows: rows}
}

func TestParseTablesKeepsNestedRowsSeparate(t *testing.T) {
	markup := `<?xml version="1.0"?>
<Document>
<Table>
  <TR><TH>General information</TH><TD>A1  passenger
  lift</TD></TR>
  <TR><TH>Notes</TH><TD>see below<Table><TR><TD>inner</TD></TR></Table></TD></TR>
</Table>
<Table><TR><TH>Project name</TH><TD>Kv. Hissen</TD></TR></Table>
</Document>`

	tables, err := ParseTables(strings.NewReader(markup))
	require.NoError(t, err)
	require.Len(t, tables, 3)

	outer := tables[0]
	require.Len(t, outer.Rows, 2)
	assert.Equal(t, internal.CellHeader, outer.Rows[0].Cells[0].Kind)
	assert.Equal(t, internal.CellData, outer.Rows[0].Cells[1].Kind)
	assert.Equal(t, "A1 passenger lift", outer.Rows[0].Cells[1].Text)
	assert.Equal(t, "see below", outer.Rows[1].Cells[1].Text)

	inner := tables[1]
	require.Len(t, inner.Rows, 1)
	assert.Equal(t, "inner", inner.Rows[0].Cells[0].Text)

	assert.Equal(t, "Kv. Hissen", tables[2].Rows[0].Cells[1].Text)
}

func TestExtractUnitsGroupedBlock(t *testing.T) {
	tables := []internal.Table{
		table(
			row("General information", "A1 passenger", "A2 passenger"),
			row("Rated load Q [kg]", "1000", " 630 "),
		),
		table(
			row("Door type", "Telescopic", "Central"),
			row("short row", "x"),
		),
	}

	units, global := ExtractUnits(tables)
	require.Len(t, units, 2)
	assert.Empty(t, global)

	assert.Equal(t, "A1 passenger", units[0]["general_information"])
	assert.Equal(t, "1000", units[0]["rated_load_q_kg"])
	assert.Equal(t, "Telescopic", units[0]["door_type"])
	assert.Equal(t, "630", units[1]["rated_load_q_kg"])
	assert.Equal(t, "group_1", units[0][internal.KeyGroupID])
	assert.Equal(t, "group_1", units[1][internal.KeyGroupID])
	assert.NotContains(t, units[0], "short_row")
}

func TestExtractUnitsDropsColumnsWithoutIdentity(t *testing.T) {
	tables := []internal.Table{
		table(
			row("General information", "A1", ""),
			row("Rated load Q [kg]", "1000", "630"),
		),
	}

	units, _ := ExtractUnits(tables)
	require.Len(t, units, 1)
	assert.Equal(t, "A1", units[0]["general_information"])
}

func TestExtractUnitsWidthChangeStartsNewBlock(t *testing.T) {
	tables := []internal.Table{
		table(row("General information", "A1", "A2", "A3")),
		table(row("General information", "B1", "B2")),
		table(row("Rated load Q [kg]", "400", "500")),
	}

	units, _ := ExtractUnits(tables)
	require.Len(t, units, 5)

	for _, u := range units[:3] {
		assert.Equal(t, "group_1", u[internal.KeyGroupID])
	}
	assert.Equal(t, "B1", units[3]["general_information"])
	assert.Equal(t, "group_2", units[3][internal.KeyGroupID])
	assert.Equal(t, "500", units[4]["rated_load_q_kg"])
}

func TestExtractUnitsManualUnitsAndGlobal(t *testing.T) {
	tables := []internal.Table{
		table(row("Project name", "Kv. Hissen"), row("Customer")),
		table(row("General information", "C1 goods lift"), row("Rated load Q [kg]", "2000")),
		table(row("Door type", "Side opening")),
		table(row("General information", "C2 goods lift")),
		table(row("Door type", "Central")),
	}

	units, global := ExtractUnits(tables)

	assert.Equal(t, internal.Record{"project_name": "Kv. Hissen", "customer": ""}, global)
	require.Len(t, units, 2)
	assert.Equal(t, "C1 goods lift", units[0]["general_information"])
	assert.Equal(t, "2000", units[0]["rated_load_q_kg"])
	assert.Equal(t, "Side opening", units[0]["door_type"])
	assert.Equal(t, "Central", units[1]["door_type"])
	assert.NotContains(t, units[1], internal.KeyGroupID)
}

func TestExtractUnitsGroupedBeforeManual(t *testing.T) {
	tables := []internal.Table{
		table(row("General information", "M1 manual")),
		table(row("General information", "A1", "A2")),
	}

	units, _ := ExtractUnits(tables)
	require.Len(t, units, 3)
	assert.Equal(t, "A1", units[0]["general_information"])
	assert.Equal(t, "A2", units[1]["general_information"])
	assert.Equal(t, "M1 manual", units[2]["general_information"])
}

func TestExtractUnitsSameIdentityMergesIntoCurrent(t *testing.T) {
	tables := []internal.Table{
		table(row("General information", "C1"), row("Door type", "Central")),
		table(row("General information", "C1"), row("Flooring material", "Vinyl")),
	}

	units, _ := ExtractUnits(tables)
	require.Len(t, units, 1)
	assert.Equal(t, "Central", units[0]["door_type"])
	assert.Equal(t, "Vinyl", units[0]["flooring_material"])
}

func TestExtractUnitsIsDeterministic(t *testing.T) {
	tables := []internal.Table{
		table(row("General information", "A1", "A2", "A3"), row("Door type", "x", "y", "z")),
		table(row("General information", "B1", "B2")),
		table(row("Project", "P")),
		table(row("General information", "M1")),
	}

	first, firstGlobal := ExtractUnits(tables)
	second, secondGlobal := ExtractUnits(tables)
	assert.Equal(t, first, second)
	assert.Equal(t, firstGlobal, secondGlobal)
}

func TestExtractUnitsEmptyInput(t *testing.T) {
	units, global := ExtractUnits(nil)
	assert.Empty(t, units)
	assert.Empty(t, global)

	units, _ = ExtractUnits([]internal.Table{{}})
	assert.Empty(t, units)
}

func TestExtractGroupDefinitions(t *testing.T) {
	tables := []internal.Table{
		table(row("General information", "A1 passenger lift", "a2 passenger lift", "")),
		table(row("Door type", "x", "y")),
		table(row("General information")),
		table(row("General information", "B1")),
	}

	defs := ExtractGroupDefinitions(tables)
	require.Len(t, defs, 2)
	assert.Equal(t, []string{"A1", "A2"}, defs[0].Labels)
	assert.Equal(t, 3, defs[0].Count)
	assert.Equal(t, []string{"B1"}, defs[1].Labels)
	assert.Equal(t, 1, defs[1].Count)
}
