package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fredbi/tvviz/internal/pkg/chart"
	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/labstack/echo/v4"
)

// query parameters
const (
	paramView  = "view"
	paramN     = "n"
	paramGenre = "genre"
	paramMulti = "multi"
	paramFrom  = "from"
	paramTo    = "to"
)

// parseView resolves the view from the path of the chart and API endpoints.
func parseView(c echo.Context) (config.ViewName, error) {
	view, err := config.ParseView(c.Param(paramView))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidView, err)
	}

	return view, nil
}

// parseParams reads the input controls from the query string.
//
// Missing values take the defaults of the dashboard: the maximum number of productions
// and the default genre. The default genre does not apply to the checklist, which may be left empty.
func (s *Server) parseParams(c echo.Context) (chart.Params, error) {
	params := s.builder.DefaultParams()

	if raw := c.QueryParam(paramN); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidParameter, paramN, raw)
		}

		if n < 1 || n > s.cfg.Render.MaxProductions {
			return params, fmt.Errorf("%w: %s must be in [1, %d], got %d",
				ErrInvalidParameter, paramN, s.cfg.Render.MaxProductions, n,
			)
		}

		params.N = n
	}

	for _, genre := range c.QueryParams()[paramGenre] {
		genre = strings.TrimSpace(genre)
		if genre == "" {
			continue
		}

		params.Filter.Genres = append(params.Filter.Genres, genre)
	}

	params.Filter.Checklist = c.QueryParam(paramMulti) != ""

	if len(params.Filter.Genres) == 0 && !params.Filter.Checklist && s.cfg.Render.DefaultGenre != "" {
		params.Filter.Genres = []string{s.cfg.Render.DefaultGenre}
	}

	var err error
	if params.Filter.FromYear, err = yearParam(c, paramFrom); err != nil {
		return params, err
	}

	if params.Filter.ToYear, err = yearParam(c, paramTo); err != nil {
		return params, err
	}

	if params.Filter.FromYear != 0 && params.Filter.ToYear != 0 && params.Filter.FromYear > params.Filter.ToYear {
		return params, fmt.Errorf("%w: %s (%d) is after %s (%d)",
			ErrInvalidParameter, paramFrom, params.Filter.FromYear, paramTo, params.Filter.ToYear,
		)
	}

	return params, nil
}

func yearParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}

	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		return 0, fmt.Errorf("%w: %s must be a year, got %q", ErrInvalidParameter, name, raw)
	}

	return year, nil
}

// encodeParams builds the query string which reproduces the input controls.
func encodeParams(params chart.Params) string {
	values := url.Values{}
	values.Set(paramN, strconv.Itoa(params.N))
	for _, genre := range params.Filter.Genres {
		values.Add(paramGenre, genre)
	}

	if params.Filter.Checklist {
		values.Set(paramMulti, "1")
	}

	if params.Filter.FromYear != 0 {
		values.Set(paramFrom, strconv.Itoa(params.Filter.FromYear))
	}

	if params.Filter.ToYear != 0 {
		values.Set(paramTo, strconv.Itoa(params.Filter.ToYear))
	}

	return values.Encode()
}
