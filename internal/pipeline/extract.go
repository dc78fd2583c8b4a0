package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rfq/internal"
	"rfq/internal/util"
)

// ParseTables reads tag-delimited table markup (Table/TR/TH/TD) and returns
// every table in document order. Rows belong to their nearest enclosing table,
// so nested tables are reported separately and do not leak rows into parents.
func ParseTables(r io.Reader) ([]internal.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse table markup: %w", err)
	}

	out := []internal.Table{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var t internal.Table
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if !row.Closest("table").IsSelection(table) {
				return
			}
			var r internal.Row
			row.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
				kind := internal.CellData
				if goquery.NodeName(cell) == "th" {
					kind = internal.CellHeader
				}
				r.Cells = append(r.Cells, internal.Cell{Kind: kind, Text: cellText(cell)})
			})
			t.Rows = append(t.Rows, r)
		})
		out = append(out, t)
	})
	return out, nil
}

// cellText is the cell's own text; nested tables are skipped.
func cellText(cell *goquery.Selection) string {
	var b strings.Builder
	cell.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "table" {
			return
		}
		b.WriteString(node.Text())
		b.WriteString(" ")
	})
	return util.NormalizeSpaces(b.String())
}

func IsValidUnit(r internal.Record) bool {
	return !util.IsBlank(r[internal.KeyGeneralInformation])
}

// groupedBlock accumulates one unit per value column while consecutive
// multi-column tables share the same width.
type groupedBlock struct {
	columns int
	units   []internal.Record
}

// manualUnit is a unit declared through one- or two-column tables.
type manualUnit struct {
	generalInformation string
	record             internal.Record
}

// unitScanner carries the extraction state explicitly. block is nil outside a
// grouped block; current is nil until the first manual unit has been opened.
type unitScanner struct {
	global  internal.Record
	grouped []internal.Record
	manual  []internal.Record
	block   *groupedBlock
	current *manualUnit
}

// ExtractUnits rebuilds unit records and the global record from the tables.
// Units from grouped blocks come first, followed by manually declared units.
func ExtractUnits(tables []internal.Table) ([]internal.Record, internal.Record) {
	s := &unitScanner{global: internal.Record{}}
	for _, table := range tables {
		s.scan(table)
	}
	s.flushBlock()
	if s.current != nil && IsValidUnit(s.current.record) {
		s.manual = append(s.manual, s.current.record)
	}

	units := make([]internal.Record, 0, len(s.grouped)+len(s.manual))
	units = append(units, s.grouped...)
	units = append(units, s.manual...)
	return units, s.global
}

func (s *unitScanner) scan(table internal.Table) {
	n := table.Columns()
	switch {
	case n == 0:
		return
	case n > 2:
		s.scanGrouped(table, n)
	default:
		s.scanManual(table)
	}
}

func (s *unitScanner) scanGrouped(table internal.Table, n int) {
	if s.block != nil && s.block.columns != n {
		// A width change ends the block; the table that caused it opens the next one.
		s.flushBlock()
	}
	if s.block == nil {
		s.block = &groupedBlock{columns: n, units: make([]internal.Record, n-1)}
		for i := range s.block.units {
			s.block.units[i] = internal.Record{}
		}
	}

	groupID := fmt.Sprintf("group_%d", len(s.grouped)/(n-1)+1)
	for _, row := range table.Rows {
		if len(row.Cells) < n {
			continue
		}
		key := util.NormalizeKey(row.Cells[0].Text)
		if key == "" {
			continue
		}
		for i := 1; i < n; i++ {
			unit := s.block.units[i-1]
			unit[key] = strings.TrimSpace(row.Cells[i].Text)
			unit[internal.KeyGroupID] = groupID
		}
	}
}

func (s *unitScanner) flushBlock() {
	if s.block == nil {
		return
	}
	for _, unit := range s.block.units {
		if IsValidUnit(unit) {
			s.grouped = append(s.grouped, unit)
		}
	}
	s.block = nil
}

func (s *unitScanner) scanManual(table internal.Table) {
	scratch := internal.Record{}
	for _, row := range table.Rows {
		switch len(row.Cells) {
		case 1:
			if key := util.NormalizeKey(row.Cells[0].Text); key != "" {
				scratch[key] = ""
			}
		case 2:
			if key := util.NormalizeKey(row.Cells[0].Text); key != "" {
				scratch[key] = strings.TrimSpace(row.Cells[1].Text)
			}
		}
	}

	generalInformation := scratch[internal.KeyGeneralInformation]
	switch {
	case generalInformation != "" && (s.current == nil || s.current.generalInformation != generalInformation):
		if s.current != nil && IsValidUnit(s.current.record) {
			s.manual = append(s.manual, s.current.record)
		}
		s.current = &manualUnit{generalInformation: generalInformation, record: scratch}
	case s.current != nil:
		s.current.record.Merge(scratch)
	default:
		s.global.Merge(scratch)
	}
}

// ExtractGroupDefinitions reads the declared groups from header rows of the
// form "General information | A1 ... | A2 ...".
func ExtractGroupDefinitions(tables []internal.Table) []internal.GroupDefinition {
	out := []internal.GroupDefinition{}
	for _, table := range tables {
		if len(table.Rows) == 0 {
			continue
		}
		header := table.Rows[0].Cells
		if len(header) < 2 || util.NormalizeKey(header[0].Text) != internal.KeyGeneralInformation {
			continue
		}
		def := internal.GroupDefinition{Count: len(header) - 1}
		for _, cell := range header[1:] {
			name := util.NormalizeKey(cell.Text)
			if name == "" {
				continue
			}
			def.Labels = append(def.Labels, strings.ToUpper(strings.SplitN(name, "_", 2)[0]))
		}
		out = append(out, def)
	}
	return out
}
