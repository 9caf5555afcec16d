package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/fredbi/tvviz/internal/pkg/chart"
	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/labstack/echo/v4"
)

type navItem struct {
	Name   string
	Label  string
	Active bool
}

type genreOption struct {
	Name     string
	Selected bool
}

// indexPage holds the data rendered by the dashboard template.
type indexPage struct {
	Title       string
	Description string
	InfoLink    string
	InfoText    string
	Nav         []navItem
	View        string
	Section     config.View
	N           int
	MaxN        int
	Genres      []genreOption
	Multi       bool
	From        int
	To          int
	ChartURL    string
	FrameHeight string
}

// index serves the dashboard page.
//
// An unknown or missing view falls back to the bar chart.
func (s *Server) index(c echo.Context) error {
	raw := c.QueryParam(paramView)
	view, err := config.ParseView(raw)
	if err != nil {
		if raw != "" {
			s.l.Debug("unknown view, falling back to bar chart", slog.String("view", raw))
		}

		view = config.ViewBar
	}

	params, err := s.parseParams(c)
	if err != nil {
		return badRequest(err)
	}

	multi := params.Filter.Checklist || len(params.Filter.Genres) > 1

	return c.Render(http.StatusOK, indexTemplate, s.indexPage(view, params, multi))
}

// chart serves one chart as a standalone HTML document.
func (s *Server) chart(c echo.Context) error {
	view, err := parseView(c)
	if err != nil {
		return badRequest(err)
	}

	params, err := s.parseParams(c)
	if err != nil {
		return badRequest(err)
	}

	built, err := s.builder.BuildView(view, params)
	if err != nil {
		return fmt.Errorf("building %s chart: %w", view, err)
	}

	var buf bytes.Buffer
	if err := built.Render(&buf); err != nil {
		return fmt.Errorf("rendering %s chart: %w", view, err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// view serves the data behind one chart as JSON.
func (s *Server) view(c echo.Context) error {
	view, err := parseView(c)
	if err != nil {
		return badRequest(err)
	}

	params, err := s.parseParams(c)
	if err != nil {
		return badRequest(err)
	}

	switch view {
	case config.ViewBar:
		return c.JSON(http.StatusOK, s.org.TopProductions(params.N))
	case config.ViewBox:
		return c.JSON(http.StatusOK, s.org.ScoreByGenre())
	case config.ViewPie:
		return c.JSON(http.StatusOK, s.org.ProductionShares(s.cfg.Render.PieThreshold))
	default:
		return c.JSON(http.StatusOK, s.org.ScoresByRelease(params.Filter))
	}
}

func (s *Server) datasetReport(c echo.Context) error {
	return c.JSON(http.StatusOK, s.report)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) indexPage(view config.ViewName, params chart.Params, multi bool) indexPage {
	section, _ := s.cfg.GetView(view)

	page := indexPage{
		Title:       s.cfg.Render.Title,
		Description: s.cfg.Render.Description,
		InfoLink:    s.cfg.Render.InfoLink,
		InfoText:    s.cfg.Render.InfoText,
		View:        view.String(),
		Section:     section,
		N:           params.N,
		MaxN:        s.cfg.Render.MaxProductions,
		Multi:       multi,
		From:        params.Filter.FromYear,
		To:          params.Filter.ToYear,
		ChartURL:    "/charts/" + view.String() + "?" + encodeParams(params),
		FrameHeight: section.Height,
	}

	for _, name := range config.AllViewNames() {
		item, _ := s.cfg.GetView(name)
		page.Nav = append(page.Nav, navItem{
			Name:   name.String(),
			Label:  item.Label,
			Active: name == view,
		})
	}

	for _, genre := range s.org.Dataset().Genres() {
		page.Genres = append(page.Genres, genreOption{
			Name:     genre,
			Selected: slices.Contains(params.Filter.Genres, genre),
		})
	}

	return page
}
