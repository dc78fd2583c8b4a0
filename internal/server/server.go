// Package server exposes document generation over HTTP: an upload form, the
// upload endpoint returning the generated workbook, health and metrics.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rfq/internal/config"
	"rfq/internal/pipeline"
)

const (
	uploadField = "xml"
	xlsxMIME    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	msgNoFile   = "Ingen XML-fil bifogad."
	msgTooLarge = "Filen är för stor."
)

// Renderer produces a document from an uploaded export.
type Renderer interface {
	Render(ctx context.Context, name string, input []byte, out io.Writer) (pipeline.GenerateResult, error)
}

type Server struct {
	echo       *echo.Echo
	renderer   Renderer
	metrics    *Metrics
	logger     *slog.Logger
	maxUpload  int64
	outputName string
}

func New(renderer Renderer, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 20
	}
	s := &Server{
		echo:       echo.New(),
		renderer:   renderer,
		metrics:    metrics,
		logger:     logger,
		maxUpload:  int64(maxMB) << 20,
		outputName: cfg.OutputName,
	}
	if s.outputName == "" {
		s.outputName = "komplett_rfqdokument.xlsx"
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.GET("/", s.handleForm)
	s.echo.POST("/", s.handleUpload)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleForm(c echo.Context) error {
	return c.HTML(http.StatusOK, uploadForm)
}

func (s *Server) handleUpload(c echo.Context) error {
	file, err := c.FormFile(uploadField)
	if err != nil {
		s.metrics.Uploads.WithLabelValues("missing").Inc()
		return c.String(http.StatusBadRequest, msgNoFile)
	}
	if file.Size > s.maxUpload {
		s.metrics.Uploads.WithLabelValues("too_large").Inc()
		return c.String(http.StatusRequestEntityTooLarge, msgTooLarge)
	}

	src, err := file.Open()
	if err != nil {
		s.metrics.Uploads.WithLabelValues("failed").Inc()
		return c.String(http.StatusInternalServerError, fmt.Sprintf("Kunde inte läsa filen: %v", err))
	}
	defer src.Close()
	input, err := io.ReadAll(io.LimitReader(src, s.maxUpload))
	if err != nil {
		s.metrics.Uploads.WithLabelValues("failed").Inc()
		return c.String(http.StatusInternalServerError, fmt.Sprintf("Kunde inte läsa filen: %v", err))
	}

	var out bytes.Buffer
	res, err := s.renderer.Render(c.Request().Context(), file.Filename, input, &out)
	s.metrics.Duration.Observe(res.Elapsed.Seconds())
	if err != nil {
		s.metrics.Uploads.WithLabelValues("failed").Inc()
		s.logger.Warn("upload failed", "file", file.Filename, "trace_id", res.TraceID, "error", err)
		return c.String(http.StatusInternalServerError, fmt.Sprintf("Dokumentet kunde inte genereras:\n\n%v", err))
	}

	s.metrics.Uploads.WithLabelValues("ok").Inc()
	s.metrics.UnitsProcessed.Add(float64(res.Units))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", s.outputName))
	return c.Blob(http.StatusOK, xlsxMIME, out.Bytes())
}

const uploadForm = `<!doctype html>
<html lang="sv">
<head><meta charset="utf-8"><title>RFQ-generator</title></head>
<body>
  <h1>Skapa förfrågningsunderlag</h1>
  <form method="post" enctype="multipart/form-data">
    <input type="file" name="xml" accept=".xml,.eml">
    <button type="submit">Generera</button>
  </form>
</body>
</html>
`
