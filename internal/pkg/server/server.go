// Package server exposes the interactive dashboard over HTTP.
//
// Every input control of the dashboard is a query parameter: changing a control resubmits the form
// and the server recomputes the affected chart.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/fredbi/tvviz/internal/pkg/chart"
	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/fredbi/tvviz/internal/pkg/dataset"
	"github.com/fredbi/tvviz/internal/pkg/organizer"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templatesFS embed.FS

const indexTemplate = "index.html"

// Server serves the dashboard page, the individual charts and their underlying data.
type Server struct {
	options

	cfg     *config.Config
	org     *organizer.Organizer
	builder *chart.Builder
	report  dataset.Report
	e       *echo.Echo
	l       *slog.Logger
}

// New builds a dashboard [Server] for the views derived by an [organizer.Organizer].
func New(cfg *config.Config, org *organizer.Organizer, opts ...Option) (*Server, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		options: optionsWithDefaults(options{
			Addr:  cfg.Server.Addr,
			Grace: cfg.Server.Grace(),
		}, opts),
		cfg:     cfg,
		org:     org,
		builder: chart.New(cfg, org),
		report:  org.Dataset().Report(),
		l:       slog.Default().With(slog.String("module", "server")),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{templates: templates}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(
		middleware.Recover(),
		middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:     true,
			LogURI:        true,
			LogStatus:     true,
			LogLatency:    true,
			LogError:      true,
			HandleError:   true,
			LogValuesFunc: s.logRequest,
		}),
	)

	e.GET("/", s.index)
	e.GET("/charts/:view", s.chart)
	e.GET("/api/views/:view", s.view)
	e.GET("/api/report", s.datasetReport)
	e.GET("/healthz", s.healthz)

	s.e = e

	return s, nil
}

// Handler returns the HTTP handler of the dashboard.
func (s *Server) Handler() http.Handler {
	return s.e
}

// ListenerAddr returns the address the server listens on, or nil when it is not started yet.
func (s *Server) ListenerAddr() net.Addr {
	return s.e.ListenerAddr()
}

// Run starts the server and blocks until the context is canceled.
//
// Upon cancellation, in-flight requests are given the configured grace period to complete.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.l.Info("dashboard listening", slog.String("addr", s.Addr))

		if err := s.e.Start(s.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving dashboard: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.l.Info("shutting down", slog.Duration("grace", s.Grace))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Grace)
		defer cancel()

		if err := s.e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down dashboard: %w", err)
		}

		return nil
	})

	return g.Wait()
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	attrs := []slog.Attr{
		slog.String("method", v.Method),
		slog.String("uri", v.URI),
		slog.Int("status", v.Status),
		slog.Duration("latency", v.Latency),
	}

	level := slog.LevelInfo
	if v.Error != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", v.Error.Error()))
	}

	s.l.LogAttrs(c.Request().Context(), level, "request", attrs...)

	return nil
}

type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
