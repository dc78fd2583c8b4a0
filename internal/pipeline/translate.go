package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"rfq/internal"
	"rfq/internal/util"
)

const (
	translationSourceColumn = "english"
	translationTargetColumn = "generic_swedish"
)

// Translations maps normalized source values to display text. A value is
// immutable once loaded and safe to share between goroutines.
type Translations struct {
	entries map[string]string
	yes     string
	no      string
}

func NewTranslations(entries map[string]string, yes, no string) Translations {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[util.NormalizeKey(k)] = v
	}
	return Translations{entries: copied, yes: yes, no: no}
}

func (t Translations) Len() int {
	return len(t.entries)
}

// Translate returns the display text for value. The safety-gear flag becomes
// a yes/no word, the page-count placeholder is kept for later substitution,
// and unknown values are returned unchanged.
func (t Translations) Translate(value, key string) string {
	switch key {
	case internal.KeyPageCount:
		return "{{" + internal.KeyPageCount + "}}"
	case internal.KeySafetyGear:
		if strings.TrimSpace(value) == "1" {
			return t.yes
		}
		return t.no
	}
	if translated, ok := t.entries[util.NormalizeKey(value)]; ok {
		return translated
	}
	return value
}

func LoadTranslationsFile(path, yes, no string) (Translations, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Translations{}, fmt.Errorf("read translation table: %w", err)
	}
	return LoadTranslationsXLSX(blob, yes, no)
}

// LoadTranslationsXLSX reads the first sheet whose header row carries both an
// "english" and a "generic_swedish" column. Rows blank on either side are skipped.
func LoadTranslationsXLSX(content []byte, yes, no string) (Translations, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return Translations{}, fmt.Errorf("open translation workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		srcIdx, dstIdx := -1, -1
		for i, h := range rows[0] {
			switch util.NormalizeKey(h) {
			case translationSourceColumn:
				srcIdx = i
			case translationTargetColumn:
				dstIdx = i
			}
		}
		if srcIdx < 0 || dstIdx < 0 {
			continue
		}

		entries := map[string]string{}
		for _, row := range rows[1:] {
			src := strings.TrimSpace(pickCell(row, srcIdx))
			dst := strings.TrimSpace(pickCell(row, dstIdx))
			if src == "" || dst == "" {
				continue
			}
			entries[util.NormalizeKey(src)] = dst
		}
		return NewTranslations(entries, yes, no), nil
	}
	return Translations{}, fmt.Errorf("translation workbook has no %q/%q header", translationSourceColumn, translationTargetColumn)
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return cells[idx]
	}
	return ""
}
