package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"rfq/internal/assembly"
	"rfq/internal/config"
	"rfq/internal/connectors"
	"rfq/internal/listener"
	"rfq/internal/pipeline"
	"rfq/internal/server"
	"rfq/internal/storage"
	"rfq/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.LogLevel, os.Stderr)

	cmd := os.Args[1]
	if cmd == "template:init" {
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", cfg.TemplatePath, "template xlsx path")
		_ = fs.Parse(os.Args[2:])
		catalog, err := pipeline.LoadClauseCatalog(cfg.ClausesPath)
		must(err)
		must(assembly.WriteDefaultTemplate(*out, catalog.Markers()))
		fmt.Printf("template written to %s\n", *out)
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "generate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "xml export or .eml path")
		out := fs.String("out", cfg.OutputPath(), "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		generate(ctx, db, cfg, logger, *input, *out)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.ListenAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		gen, err := pipeline.NewGenerator(db, cfg, logger)
		must(err)
		srv, err := server.New(gen, cfg, logger)
		must(err)
		go func() {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		must(srv.Start(*addr))
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			line := fmt.Sprintf("%d\t%s\t%s\t%s\tunits=%d groups=%d", r.ID, r.CreatedAt, r.Status, r.InputName, r.Units, r.Groups)
			if r.Error != "" {
				line += "\terror=" + r.Error
			} else if r.OutputPath != "" {
				line += "\t" + r.OutputPath
			}
			fmt.Println(line)
		}
	case "groups:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "xml export or .eml path")
		out := fs.String("out", "", "output xlsx path")
		keys := fs.String("keys", "", "comma-separated keys to group by (default: spec fields)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--input and --out are required"))
		}
		raw, err := os.ReadFile(*input)
		must(err)
		gen, err := pipeline.NewGenerator(db, cfg, logger)
		must(err)
		groups, err := gen.Groups(filepath.Base(*input), raw, splitKeys(*keys)...)
		must(err)
		must(pipeline.ExportGroupsToXLSX(groups, *out))
		fmt.Printf("exported %d groups to %s\n", len(groups), *out)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", orDefault(cfg.MailProvider, "gmail"), "gmail|imap")
		label := fs.String("label", cfg.MailLabel, "mailbox/label")
		max := fs.Int("max", cfg.MailFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := listener.MakeConnector(ctx, cfg, *provider)
		must(err)
		if conn == nil {
			must(fmt.Errorf("--provider is required"))
		}
		fetch := connectors.NewFetchService(cfg.InboxDir, conn, logger)
		result, err := fetch.FetchToInbox(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d skipped=%d\n", *provider, result.Fetched, result.Stored, result.Skipped)
	case "inbox:process":
		gen, err := pipeline.NewGenerator(db, cfg, logger)
		must(err)
		res, err := listener.NewService(db, cfg, gen, logger).RunCycle(ctx)
		must(err)
		fmt.Printf("inbox processed generated=%d failed=%d\n", res.Generated, res.Failed)
	case "watch":
		gen, err := pipeline.NewGenerator(db, cfg, logger)
		must(err)
		must(listener.NewService(db, cfg, gen, logger).Run(ctx))
	default:
		if len(os.Args) == 2 && !strings.HasPrefix(cmd, "-") {
			generate(ctx, db, cfg, logger, cmd, cfg.OutputPath())
			return
		}
		usage()
		os.Exit(1)
	}
}

func generate(ctx context.Context, db *storage.DB, cfg config.Config, logger *slog.Logger, input, out string) {
	raw, err := os.ReadFile(input)
	must(err)
	gen, err := pipeline.NewGenerator(db, cfg, logger)
	must(err)
	res, err := gen.Generate(ctx, filepath.Base(input), raw, out)
	must(err)
	fmt.Printf("document written to %s units=%d groups=%d trace=%s\n", res.OutputPath, res.Units, res.Groups, res.TraceID)
}

func splitKeys(value string) []string {
	var out []string
	for _, k := range strings.Split(value, ",") {
		if k = util.NormalizeKey(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func usage() {
	fmt.Println("usage: rfq <command>")
	fmt.Println("       rfq <export.xml>")
	fmt.Println("commands:")
	fmt.Println("  generate --input=hissar.xml [--out=./output/komplett_rfqdokument.xlsx]")
	fmt.Println("  serve [--addr=:8080]")
	fmt.Println("  template:init [--out=./backend_data/rfq_mall.xlsx]")
	fmt.Println("  runs:list [--limit=20]")
	fmt.Println("  groups:export --input=hissar.xml --out=./output/grupper.xlsx [--keys=door_type,flooring_material]")
	fmt.Println("  mail:fetch [--provider=gmail|imap] [--label=INBOX] [--max=20]")
	fmt.Println("  inbox:process")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
