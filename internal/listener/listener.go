// Package listener watches the inbox directory and generates one document per
// new export, optionally pulling mail into the inbox first.
package listener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"rfq/internal/config"
	"rfq/internal/connectors"
	gmailconnector "rfq/internal/connectors/gmail"
	imapconnector "rfq/internal/connectors/imap"
	"rfq/internal/pipeline"
	"rfq/internal/storage"
)

// Generator is the part of pipeline.Generator the watcher needs.
type Generator interface {
	Generate(ctx context.Context, name string, input []byte, outputPath string) (pipeline.GenerateResult, error)
}

type Service struct {
	db     *storage.DB
	cfg    config.Config
	gen    Generator
	logger *slog.Logger

	// connector overrides the configured mail provider.
	connector connectors.MailConnector
}

func NewService(db *storage.DB, cfg config.Config, gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{db: db, cfg: cfg, gen: gen, logger: logger}
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Generated int
	Failed    int
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.WatchIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		res, err := s.RunCycle(ctx)
		if err != nil {
			s.logger.Error("listener cycle error", "error", err)
		} else {
			s.logger.Info("listener cycle done", "fetched", res.Fetched, "stored", res.Stored, "generated", res.Generated, "failed", res.Failed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// RunCycle fetches mail when a provider is configured, then generates a
// document for every inbox file not seen in an earlier run.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult

	conn, err := s.mailConnector(ctx)
	if err != nil {
		return res, err
	}
	if conn != nil {
		fetch := connectors.NewFetchService(s.cfg.InboxDir, conn, s.logger)
		fr, err := fetch.FetchToInbox(ctx, s.cfg.MailLabel, s.cfg.MailFetchMax)
		if err != nil {
			return res, err
		}
		res.Fetched, res.Stored = fr.Fetched, fr.Stored
	}

	entries, err := os.ReadDir(s.cfg.InboxDir)
	if os.IsNotExist(err) {
		return res, nil
	}
	if err != nil {
		return res, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if entry.IsDir() || !isInput(entry.Name()) {
			continue
		}
		generated, err := s.processFile(ctx, filepath.Join(s.cfg.InboxDir, entry.Name()))
		if err != nil {
			res.Failed++
			continue
		}
		if generated {
			res.Generated++
		}
	}
	return res, nil
}

// processFile reports false for inputs already handled by an earlier run,
// whether it succeeded or not.
func (s *Service) processFile(ctx context.Context, path string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("cannot read inbox file", "path", path, "error", err)
		return false, err
	}
	sum := sha256.Sum256(raw)
	seen, err := s.db.HasRun(hex.EncodeToString(sum[:]))
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	name := filepath.Base(path)
	out := filepath.Join(s.cfg.OutputDir, "inbox", sanitizeName(strings.TrimSuffix(name, filepath.Ext(name)))+".xlsx")
	if _, err := s.gen.Generate(ctx, name, raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) mailConnector(ctx context.Context) (connectors.MailConnector, error) {
	if s.connector != nil {
		return s.connector, nil
	}
	return MakeConnector(ctx, s.cfg, s.cfg.MailProvider)
}

// MakeConnector returns nil without error when provider is empty.
func MakeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "":
		return nil, nil
	case "gmail":
		conn, err := gmailconnector.NewConnector(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "imap":
		conn, err := imapconnector.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}

func isInput(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml", ".eml":
		return true
	}
	return false
}

const maxNameBytes = 120

func sanitizeName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut]
	}
	if out == "" {
		out = "dokument"
	}
	return out
}
