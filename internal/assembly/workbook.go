// Package assembly realises the document side of the generator on xlsx
// workbooks: named placeholders are filled in place, marker rows are
// multiplied into generated clause rows, and optional rows are removed.
//
// Template cells hold plain text with {{key}} placeholders. A sheet is the
// unit of composition; the generator copies and fills sheets and saves the
// result as one workbook.
package assembly

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"rfq/internal"
	"rfq/internal/util"
)

var rePlaceholder = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Formatter turns the raw value of key into display text for a placeholder
// occurring in surrounding.
type Formatter interface {
	Format(surrounding, placeholder, key, value string) string
}

type Workbook struct {
	f          *excelize.File
	manualFill string
	logger     *slog.Logger
}

func Open(path, manualFill string, logger *slog.Logger) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", path, err)
	}
	return newWorkbook(f, manualFill, logger), nil
}

func OpenReader(r io.Reader, manualFill string, logger *slog.Logger) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	return newWorkbook(f, manualFill, logger), nil
}

func newWorkbook(f *excelize.File, manualFill string, logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Workbook{f: f, manualFill: manualFill, logger: logger}
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) SaveAs(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return w.f.SaveAs(path)
}

func (w *Workbook) Write(out io.Writer) error {
	_, err := w.f.WriteTo(out)
	return err
}

func (w *Workbook) Sheets() []string {
	return w.f.GetSheetList()
}

func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Rows returns the raw text of every row in sheet.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	rows, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// CloneSheet copies src into a new sheet named dst.
func (w *Workbook) CloneSheet(src, dst string) error {
	from, err := w.f.GetSheetIndex(src)
	if err != nil || from < 0 {
		return fmt.Errorf("sheet %s not found", src)
	}
	to, err := w.f.NewSheet(dst)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", dst, err)
	}
	return w.f.CopySheet(from, to)
}

func (w *Workbook) RenameSheet(from, to string) error {
	return w.f.SetSheetName(from, to)
}

func (w *Workbook) DeleteSheet(name string) error {
	return w.f.DeleteSheet(name)
}

// Activate makes sheet the one shown on open. Failures are cosmetic and only logged.
func (w *Workbook) Activate(sheet string) {
	idx, err := w.f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		w.logger.Warn("assembly: cannot activate sheet", "sheet", sheet, "error", err)
		return
	}
	w.f.SetActiveSheet(idx)
}

// Fill replaces every {{key}} in sheet. Suppressed keys are removed, keys
// absent from data get the manual-fill marker, everything else goes through
// format in the context of the cell text.
func (w *Workbook) Fill(sheet string, data internal.Record, format Formatter, suppress []string) error {
	normalized := make(internal.Record, len(data))
	for k, v := range data {
		normalized[util.NormalizeKey(k)] = v
	}
	suppressed := map[string]struct{}{}
	for _, k := range suppress {
		suppressed[util.NormalizeKey(k)] = struct{}{}
	}

	return w.eachCell(sheet, func(text string) (string, bool) {
		if !strings.Contains(text, "{{") {
			return text, false
		}
		return FillText(text, normalized, format, suppressed, w.manualFill), true
	})
}

// FillText substitutes the placeholders of one text run. data keys must
// already be normalized.
func FillText(text string, data internal.Record, format Formatter, suppressed map[string]struct{}, manualFill string) string {
	for _, m := range rePlaceholder.FindAllStringSubmatch(text, -1) {
		placeholder, key := m[0], util.NormalizeKey(m[1])
		if !strings.Contains(text, placeholder) {
			continue
		}
		if _, ok := suppressed[key]; ok {
			text = strings.ReplaceAll(text, placeholder, "")
			continue
		}
		raw, ok := data[key]
		if !ok {
			raw = manualFill
		}
		text = strings.ReplaceAll(text, placeholder, format.Format(text, placeholder, key, raw))
	}
	return text
}

// ReplaceAll substitutes old with replacement in every sheet.
func (w *Workbook) ReplaceAll(old, replacement string) error {
	for _, sheet := range w.f.GetSheetList() {
		err := w.eachCell(sheet, func(text string) (string, bool) {
			if !strings.Contains(text, old) {
				return text, false
			}
			return strings.ReplaceAll(text, old, replacement), true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) eachCell(sheet string, fn func(string) (string, bool)) error {
	rows, err := w.Rows(sheet)
	if err != nil {
		return err
	}
	for r, row := range rows {
		for c, text := range row {
			updated, changed := fn(text)
			if !changed {
				continue
			}
			if err := w.setCell(sheet, c+1, r+1, updated); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Workbook) setCell(sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStr(sheet, cell, value)
}

// findMarkerRow returns the 1-based row and column of the first cell
// containing marker, or zero values when absent.
func (w *Workbook) findMarkerRow(sheet, marker string) (row, col int, cells []string, err error) {
	rows, err := w.Rows(sheet)
	if err != nil {
		return 0, 0, nil, err
	}
	for r, cells := range rows {
		for c, text := range cells {
			if strings.Contains(text, marker) {
				return r + 1, c + 1, cells, nil
			}
		}
	}
	return 0, 0, nil, nil
}

// MultiplyRow replaces the first row holding marker with one row per text.
// It reports false, without touching the sheet, when no row holds marker.
func (w *Workbook) MultiplyRow(sheet, marker string, texts []string) (bool, error) {
	row, col, cells, err := w.findMarkerRow(sheet, marker)
	if err != nil || row == 0 {
		return false, err
	}
	return true, w.writeRows(sheet, row, ClauseRowSpecs(cells, col-1, texts))
}

// MultiplyHeadingRow replaces the first row holding marker with one row per
// heading, substituting the marker in every cell.
func (w *Workbook) MultiplyHeadingRow(sheet, marker string, headings []string) (bool, error) {
	row, _, cells, err := w.findMarkerRow(sheet, marker)
	if err != nil || row == 0 {
		return false, err
	}
	return true, w.writeRows(sheet, row, HeadingRowSpecs(cells, marker, headings))
}

// writeRows turns the template row at row into len(specs) styled copies
// holding specs, or removes it when specs is empty.
func (w *Workbook) writeRows(sheet string, row int, specs [][]string) error {
	if len(specs) == 0 {
		return w.f.RemoveRow(sheet, row)
	}
	for i := 1; i < len(specs); i++ {
		if err := w.f.DuplicateRow(sheet, row); err != nil {
			return fmt.Errorf("duplicate row %d: %w", row, err)
		}
	}
	for i, spec := range specs {
		for c, value := range spec {
			if err := w.setCell(sheet, c+1, row+i, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveRowsFor deletes rows that reference {{key}} for a key whose value in
// data is blank. It returns the number of removed rows.
func (w *Workbook) RemoveRowsFor(sheet string, keys []string, data internal.Record) (int, error) {
	rows, err := w.Rows(sheet)
	if err != nil {
		return 0, err
	}
	placeholders := make([]string, 0, len(keys))
	for _, k := range keys {
		placeholders = append(placeholders, util.NormalizeKey(k))
	}

	removed := 0
	for r := len(rows) - 1; r >= 0; r-- {
		text := strings.Join(rows[r], " ")
		for _, key := range placeholders {
			if !strings.Contains(text, "{{"+key+"}}") || !util.IsBlank(data[key]) {
				continue
			}
			w.logger.Debug("assembly: removing row without value", "sheet", sheet, "row", r+1, "key", key)
			if err := w.f.RemoveRow(sheet, r+1); err != nil {
				return removed, err
			}
			removed++
			break
		}
	}
	return removed, nil
}
