package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rfq/internal"
)

// ExportGroupsToXLSX writes one row per group: labels, count, machine room
// and every spec field of the representative.
func ExportGroupsToXLSX(groups []internal.SpecGroup, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := append([]string{"group", internal.KeyUnitLabels, internal.KeyUnitCount, internal.KeyMachineRoomType}, SpecFields...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, g := range groups {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, i+1)
		set(2, g.Representative[internal.KeyUnitLabels])
		set(3, g.UnitCount)
		set(4, g.MachineRoomType)
		for j, field := range SpecFields {
			set(5+j, g.Representative[field])
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
