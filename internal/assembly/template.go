package assembly

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Default template content. Keys follow the normalized field names of the
// tagged export; anything not found in the export renders as manual fill.
var (
	masterRows = [][]string{
		{"Förfrågningsunderlag hissar", ""},
		{"Projekt", "{{project_name}}"},
		{"Datum", "{{datum}}"},
		{"Antal sidor", PageMarker},
		{"", ""},
		{HeadingMarker, ""},
	}
	unitRows = [][]string{
		{"Hissbeteckning", "{{hissbeteckning}}"},
		{"Antal hissar", "{{antal_hissar}}"},
		{"Maskinrum", "{{machineroom_type}}"},
		{"Märklast", "{{rated_load_q_kg}} kg"},
		{"Hastighet", "{{rated_speed_v_m_s}} m/s"},
		{"Antal plan", "{{number_of_floors}}"},
		{"Korgmått", "{{car_shell_width_bb_mm}} x {{car_shell_depth_dd_mm}} mm"},
		{"Dörrtyp", "{{door_type}}"},
		{"Motvikt med fångapparat", "{{counterweight_with_safety_gear}}"},
		{"Styrning", "Hissen skall ha styrning för {{control_system}}."},
	}
	closingTail = [][]string{
		{"Prioriterad körning", "{{prl}}"},
		{"Nödsänkning", "{{ebd_emergency_battery_drive}}"},
	}
)

// DefaultTemplate builds a workbook with the master, unit and closing sheets.
// The closing sheet gets one row per clause marker.
func DefaultTemplate(clauseMarkers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetMaster); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetUnit, SheetClosing} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	closingRows := [][]string{{"Utförande", ""}}
	for _, marker := range clauseMarkers {
		closingRows = append(closingRows, []string{marker, ""})
	}
	closingRows = append(closingRows, closingTail...)

	sheets := []struct {
		name string
		rows [][]string
	}{
		{SheetMaster, masterRows},
		{SheetUnit, append([][]string{{HeadingMarker, ""}}, unitRows...)},
		{SheetClosing, closingRows},
	}
	for _, s := range sheets {
		for r, row := range s.rows {
			for c, value := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellStr(s.name, cell, value); err != nil {
					return nil, err
				}
			}
		}
		_ = f.SetColWidth(s.name, "A", "A", 40)
		_ = f.SetColWidth(s.name, "B", "B", 60)
		_ = f.SetCellStyle(s.name, "A1", "A1", bold)
	}

	// Group data for the first group is printed on the master sheet.
	offset := len(masterRows)
	for r, row := range unitRows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, offset+r+1)
			if err := f.SetCellStr(SheetMaster, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func WriteDefaultTemplate(path string, clauseMarkers []string) error {
	f, err := DefaultTemplate(clauseMarkers)
	if err != nil {
		return fmt.Errorf("build template: %w", err)
	}
	defer f.Close()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}
