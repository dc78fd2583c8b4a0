package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"rfq/internal"
	"rfq/internal/assembly"
	"rfq/internal/config"
	"rfq/internal/storage"
)

var ErrNoUnits = errors.New("no elevator units found in input")

// Sheet names of the composed document.
const (
	sheetFront   = "Förfrågan"
	sheetClosing = "Utförande"
)

// optionalKeys name rows that are dropped when no unit carries a value.
var optionalKeys = []string{"prl", "ebd_emergency_battery_drive"}

// displayFormatter translates a value and fits its case to the cell text.
type displayFormatter struct {
	translations Translations
}

func (d displayFormatter) Format(surrounding, placeholder, key, value string) string {
	return AdjustCase(surrounding, placeholder, d.translations.Translate(value, key))
}

// Generator turns a tagged export into a filled request-for-quotation workbook.
type Generator struct {
	db           *storage.DB
	cfg          config.Config
	logger       *slog.Logger
	translations Translations
	catalog      ClauseCatalog
	synth        *Synthesizer
	now          func() time.Time
}

// NewGenerator loads the translation table and clause catalog named by cfg.
// db may be nil, in which case runs are not recorded.
func NewGenerator(db *storage.DB, cfg config.Config, logger *slog.Logger) (*Generator, error) {
	translations, err := LoadTranslationsFile(cfg.TranslationPath, cfg.YesWord, cfg.NoWord)
	if err != nil {
		return nil, err
	}
	catalog, err := LoadClauseCatalog(cfg.ClausesPath)
	if err != nil {
		return nil, err
	}
	return NewGeneratorWith(db, cfg, logger, translations, catalog), nil
}

func NewGeneratorWith(db *storage.DB, cfg config.Config, logger *slog.Logger, translations Translations, catalog ClauseCatalog) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		db:           db,
		cfg:          cfg,
		logger:       logger,
		translations: translations,
		catalog:      catalog,
		synth:        NewSynthesizer(translations),
		now:          time.Now,
	}
}

type GenerateResult struct {
	TraceID    string
	Units      int
	Groups     int
	OutputPath string
	Elapsed    time.Duration
}

// Generate builds the document for input and saves it at outputPath.
func (g *Generator) Generate(ctx context.Context, name string, input []byte, outputPath string) (GenerateResult, error) {
	return g.run(ctx, name, input, outputPath, func(wb *assembly.Workbook) error {
		if err := wb.SaveAs(outputPath); err != nil {
			return fmt.Errorf("save %s: %w", outputPath, err)
		}
		return nil
	})
}

// Render builds the document for input and writes the workbook to out.
func (g *Generator) Render(ctx context.Context, name string, input []byte, out io.Writer) (GenerateResult, error) {
	return g.run(ctx, name, input, "", func(wb *assembly.Workbook) error {
		return wb.Write(out)
	})
}

// Groups extracts and partitions the units of input without composing a
// document. Units are grouped by keys when given, otherwise by SpecFields.
func (g *Generator) Groups(name string, input []byte, keys ...string) ([]internal.SpecGroup, error) {
	tables, err := TablesFromInput(name, input)
	if err != nil {
		return nil, err
	}
	units, _ := ExtractUnits(tables)
	if len(units) == 0 {
		return nil, ErrNoUnits
	}
	if len(keys) > 0 {
		return GroupByKeys(units, keys), nil
	}
	return GroupBySpec(units), nil
}

func (g *Generator) run(ctx context.Context, name string, input []byte, outputPath string, emit func(*assembly.Workbook) error) (GenerateResult, error) {
	start := time.Now()
	res := GenerateResult{TraceID: uuid.NewString(), OutputPath: outputPath}
	logger := g.logger.With("trace_id", res.TraceID, "input", name)
	timings := map[string]float64{}

	err := func() error {
		wb, err := g.build(ctx, name, input, &res, timings, logger)
		if err != nil {
			return err
		}
		defer wb.Close()

		if err := ctx.Err(); err != nil {
			return err
		}
		emitStart := time.Now()
		if err := emit(wb); err != nil {
			return err
		}
		timings["emitMs"] = float64(time.Since(emitStart).Milliseconds())
		return nil
	}()

	res.Elapsed = time.Since(start)
	timings["totalMs"] = float64(res.Elapsed.Milliseconds())
	// Interrupted runs are not recorded; the input stays eligible for a retry.
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		g.recordRun(name, input, res, timings, err, logger)
	}

	if err != nil {
		logger.Error("generate failed", "error", err)
		return res, err
	}
	logger.Info("document generated", "units", res.Units, "groups", res.Groups, "output", outputPath, "elapsed", res.Elapsed)
	return res, nil
}

func (g *Generator) build(ctx context.Context, name string, input []byte, res *GenerateResult, timings map[string]float64, logger *slog.Logger) (*assembly.Workbook, error) {
	stage := time.Now()
	tables, err := TablesFromInput(name, input)
	if err != nil {
		return nil, err
	}
	units, global := ExtractUnits(tables)
	if len(units) == 0 {
		return nil, ErrNoUnits
	}
	defs := ExtractGroupDefinitions(tables)
	groups := GroupBySpec(units)
	res.Units, res.Groups = len(units), len(groups)
	timings["extractMs"] = float64(time.Since(stage).Milliseconds())
	logger.Debug("units extracted", "units", len(units), "groups", len(groups), "definitions", len(defs))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stage = time.Now()
	wb, err := assembly.Open(g.cfg.TemplatePath, g.cfg.ManualFill, logger)
	if err != nil {
		return nil, err
	}
	if err := g.compose(wb, units, global, groups, defs, logger); err != nil {
		_ = wb.Close()
		return nil, err
	}
	timings["composeMs"] = float64(time.Since(stage).Milliseconds())
	return wb, nil
}

// compose fills the template: the front sheet with global data and the first
// group, one unit sheet per further group, then the closing clauses.
func (g *Generator) compose(wb *assembly.Workbook, units []internal.Record, global internal.Record, groups []internal.SpecGroup, defs []internal.GroupDefinition, logger *slog.Logger) error {
	for _, sheet := range []string{assembly.SheetMaster, assembly.SheetUnit, assembly.SheetClosing} {
		if !wb.HasSheet(sheet) {
			return fmt.Errorf("template %s lacks sheet %q", g.cfg.TemplatePath, sheet)
		}
	}

	global = global.Clone()
	global[internal.KeyDate] = g.now().Format(assembly.DateFormat)
	format := displayFormatter{translations: g.translations}
	headings := assembly.GroupHeadings(defs)
	dropOptional := AllMissing(optionalKeys, units)

	first := global.Clone()
	first.Merge(groups[0].Representative)
	if dropOptional {
		logger.Debug("removing optional rows, no unit has a value", "keys", optionalKeys)
		if _, err := wb.RemoveRowsFor(assembly.SheetMaster, optionalKeys, first); err != nil {
			return err
		}
	}
	if _, err := wb.MultiplyHeadingRow(assembly.SheetMaster, assembly.HeadingMarker, headings); err != nil {
		return err
	}
	if err := wb.Fill(assembly.SheetMaster, first, format, nil); err != nil {
		return err
	}

	for i, group := range groups[1:] {
		sheet := fmt.Sprintf("Grupp %d", i+2)
		if err := wb.CloneSheet(assembly.SheetUnit, sheet); err != nil {
			return err
		}
		var heading []string
		if i+1 < len(headings) {
			heading = headings[i+1 : i+2]
		}
		if _, err := wb.MultiplyHeadingRow(sheet, assembly.HeadingMarker, heading); err != nil {
			return err
		}
		data := global.Clone()
		data.Merge(group.Representative)
		if err := wb.Fill(sheet, data, format, nil); err != nil {
			return err
		}
	}

	// The closing sheet is copied so it lands after the unit sheets.
	if err := wb.CloneSheet(assembly.SheetClosing, sheetClosing); err != nil {
		return err
	}
	for _, clause := range g.catalog.Render(g.synth, units) {
		found, err := wb.MultiplyRow(sheetClosing, clause.Marker, clause.Texts)
		if err != nil {
			return err
		}
		if !found {
			logger.Debug("clause marker not in template", "marker", clause.Marker)
		}
	}
	merged := MergeUnits(units, global)
	if _, err := wb.RemoveRowsFor(sheetClosing, optionalKeys, merged); err != nil {
		return err
	}
	if err := wb.Fill(sheetClosing, merged, format, optionalKeys); err != nil {
		return err
	}

	for _, sheet := range []string{assembly.SheetUnit, assembly.SheetClosing} {
		if err := wb.DeleteSheet(sheet); err != nil {
			logger.Warn("cannot remove template sheet", "sheet", sheet, "error", err)
		}
	}
	if err := wb.RenameSheet(assembly.SheetMaster, sheetFront); err != nil {
		logger.Warn("cannot rename front sheet", "error", err)
	}

	pages := assembly.PageCount(len(groups), g.cfg.PagesBefore, g.cfg.PagesAfter)
	if err := wb.ReplaceAll(assembly.PageMarker, strconv.Itoa(pages)); err != nil {
		return err
	}
	wb.Activate(sheetFront)
	return nil
}

func (g *Generator) recordRun(name string, input []byte, res GenerateResult, timings map[string]float64, runErr error, logger *slog.Logger) {
	if g.db == nil {
		return
	}
	sum := sha256.Sum256(input)
	row := internal.RunRow{
		TraceID:    res.TraceID,
		InputName:  name,
		InputHash:  hex.EncodeToString(sum[:]),
		Units:      res.Units,
		Groups:     res.Groups,
		OutputPath: res.OutputPath,
		Status:     storage.RunOK,
	}
	if runErr != nil {
		row.Status = storage.RunFailed
		row.Error = runErr.Error()
	}
	if _, err := g.db.InsertRun(row, timings); err != nil {
		logger.Warn("cannot record run", "error", err)
		return
	}
	if runErr == nil && res.OutputPath != "" {
		_ = g.db.SetMetadata("lastOutputPath", res.OutputPath)
	}
}
