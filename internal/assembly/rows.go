package assembly

import (
	"fmt"
	"strings"

	"rfq/internal"
)

const (
	SheetMaster  = "master"
	SheetUnit    = "unit"
	SheetClosing = "closing"

	HeadingMarker  = "{{section_heading}}"
	PageMarker     = "{{numpag}}"
	DateFormat     = "2006-01-02"
	ManualFillText = "fyll i manuellt"
)

// ClauseRowSpecs returns one row per text, each a copy of template with the
// cell at col replaced by the text.
func ClauseRowSpecs(template []string, col int, texts []string) [][]string {
	specs := make([][]string, 0, len(texts))
	for _, text := range texts {
		row := make([]string, max(len(template), col+1))
		copy(row, template)
		row[col] = text
		specs = append(specs, row)
	}
	return specs
}

// HeadingRowSpecs returns one row per heading with marker substituted in
// every cell of template.
func HeadingRowSpecs(template []string, marker string, headings []string) [][]string {
	specs := make([][]string, 0, len(headings))
	for _, heading := range headings {
		row := make([]string, len(template))
		for i, cell := range template {
			row[i] = strings.ReplaceAll(cell, marker, heading)
		}
		specs = append(specs, row)
	}
	return specs
}

// GroupHeadings renders "Grupp N: A" for single-label groups and
// "Grupp N: A–Z" otherwise. Definitions without labels keep their number.
func GroupHeadings(defs []internal.GroupDefinition) []string {
	out := make([]string, 0, len(defs))
	for i, def := range defs {
		labels := make([]string, 0, len(def.Labels))
		for _, l := range def.Labels {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, strings.ToUpper(strings.Fields(l)[0]))
			}
		}
		switch len(labels) {
		case 0:
			continue
		case 1:
			out = append(out, fmt.Sprintf("Grupp %d: %s", i+1, labels[0]))
		default:
			out = append(out, fmt.Sprintf("Grupp %d: %s–%s", i+1, labels[0], labels[len(labels)-1]))
		}
	}
	return out
}

// PageCount is the page estimate printed in the document header: fixed
// front matter, one page per additional group, fixed closing matter.
func PageCount(groups, before, after int) int {
	if groups < 1 {
		groups = 1
	}
	return before + (groups - 1) + after
}
