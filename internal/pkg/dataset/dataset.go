// Package dataset loads the TV show table from a CSV source.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Normalized column names of the [Dataset] frame, whatever the CSV headers are.
const (
	ColTitle       = "title"
	ColProduction  = "production"
	ColGenre       = "genre"
	ColScore       = "score"
	ColReleaseYear = "release_year"
)

var (
	// ErrMissingColumn is returned when the CSV header lacks a required column.
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidRow is returned in strict mode when a row cannot be ingested.
	ErrInvalidRow = errors.New("invalid row")

	// ErrEmptyDataset is returned in strict mode when no row could be ingested.
	ErrEmptyDataset = errors.New("empty dataset")
)

// Show is a single TV show from the dataset.
type Show struct {
	Title       string  `json:"title,omitempty"`
	Production  string  `json:"main_production"`
	Genre       string  `json:"main_genre"`
	Score       float64 `json:"score"`
	ReleaseYear int     `json:"release_year"`
}

// Dataset is the immutable in-memory table of TV shows.
//
// It is loaded once and only read afterwards, so it may be shared by concurrent readers.
type Dataset struct {
	source      string
	headers     []string
	dropped     int
	shows       []Show
	genres      []string
	productions []string
	frame       dataframe.DataFrame
}

// Source of the dataset (URL, file or "-").
func (d *Dataset) Source() string { return d.source }

// Len is the number of ingested shows.
func (d *Dataset) Len() int { return len(d.shows) }

// Rows returns the ingested shows, in file order.
func (d *Dataset) Rows() []Show { return d.shows }

// Genres returns the distinct genres, in order of first appearance.
func (d *Dataset) Genres() []string { return d.genres }

// Productions returns the distinct main productions, in order of first appearance.
func (d *Dataset) Productions() []string { return d.productions }

// Frame returns the normalized [dataframe.DataFrame] with columns
// [ColProduction], [ColGenre], [ColScore], [ColReleaseYear] and [ColTitle].
func (d *Dataset) Frame() dataframe.DataFrame { return d.frame }

// HasGenre reports whether some show has this genre.
func (d *Dataset) HasGenre(genre string) bool {
	return slices.Contains(d.genres, genre)
}

// Loader reads a CSV source into a [Dataset].
type Loader struct {
	options

	cfg *config.Config
	l   *slog.Logger
}

// New [Loader] ready to load datasets described by the configuration.
func New(cfg *config.Config, opts ...Option) *Loader {
	ld := &Loader{
		options: optionsWithDefaults(opts),
		cfg:     cfg,
		l:       slog.Default().With(slog.String("module", "dataset")),
	}

	if ld.client == nil {
		ld.client = &http.Client{Timeout: cfg.Dataset.HTTPTimeout()}
	}

	if ld.stdin == nil {
		ld.stdin = os.Stdin
	}

	return ld
}

// Load the dataset from source: a http(s) URL, a local file or "-" for standard input.
//
// An empty source falls back on the configured dataset.source.
func (ld *Loader) Load(ctx context.Context, source string) (*Dataset, error) {
	if source == "" {
		source = ld.cfg.Dataset.Source
	}

	t0 := time.Now()

	reader, closer, err := ld.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer closer()

	d, err := ld.LoadReader(reader, source)
	if err != nil {
		return nil, err
	}

	ld.l.Info("dataset loaded",
		slog.String("source", source),
		slog.Int("shows", d.Len()),
		slog.Int("dropped", d.dropped),
		slog.Duration("duration", time.Since(t0)),
	)

	return d, nil
}

func (ld *Loader) open(ctx context.Context, source string) (io.Reader, func(), error) {
	switch {
	case source == "-":
		return ld.stdin, func() {}, nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return ld.fetch(ctx, source)
	default:
		file, err := os.Open(source)
		if err != nil {
			return nil, nil, fmt.Errorf("input file %q: %w", source, err)
		}

		return file, func() { _ = file.Close() }, nil
	}
}

func (ld *Loader) fetch(ctx context.Context, url string) (io.Reader, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request for %q: %w", url, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := ld.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %q: %w", url, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()

		return nil, nil, fmt.Errorf("fetching %q: unexpected status %s", url, resp.Status)
	}

	ld.l.Debug("dataset fetched", slog.String("url", url), slog.Int64("content_length", resp.ContentLength))

	return resp.Body, func() { _ = resp.Body.Close() }, nil
}

// LoadReader parses a CSV stream into a [Dataset]. The source is only informative.
func (ld *Loader) LoadReader(r io.Reader, source string) (*Dataset, error) {
	// all columns are read as strings: numbers are validated row by row
	raw := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithLazyQuotes(true),
		dataframe.NaNValues([]string{}),
	)
	if raw.Err != nil {
		return nil, fmt.Errorf("reading CSV %q: %w", source, raw.Err)
	}

	columns := ld.cfg.Dataset.Columns
	headers := raw.Names()
	for _, name := range columns.Required() {
		if !slices.Contains(headers, name) {
			return nil, fmt.Errorf("%w: %q in %q (found %v)", ErrMissingColumn, name, source, headers)
		}
	}

	d := &Dataset{
		source:  source,
		headers: headers,
	}

	productions := raw.Col(columns.Production).Records()
	genres := raw.Col(columns.Genre).Records()
	scores := raw.Col(columns.Score).Records()
	years := raw.Col(columns.ReleaseYear).Records()

	var titles []string
	if columns.Title != "" && slices.Contains(headers, columns.Title) {
		titles = raw.Col(columns.Title).Records()
	}

	seenGenres := make(map[string]struct{})
	seenProductions := make(map[string]struct{})

	for i := range productions {
		show, err := parseShow(productions[i], genres[i], scores[i], years[i])
		if err != nil {
			line := i + 2 // 1-based, after the header
			ld.l.Warn("row not ingested", slog.String("source", source), slog.Int("line", line), slog.String("error", err.Error()))
			if ld.cfg.IsStrict {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, err)
			}

			d.dropped++

			continue
		}

		if titles != nil {
			show.Title = strings.TrimSpace(titles[i])
		}

		if _, seen := seenGenres[show.Genre]; !seen {
			seenGenres[show.Genre] = struct{}{}
			d.genres = append(d.genres, show.Genre)
		}

		if _, seen := seenProductions[show.Production]; !seen {
			seenProductions[show.Production] = struct{}{}
			d.productions = append(d.productions, show.Production)
		}

		d.shows = append(d.shows, show)
	}

	if len(d.shows) == 0 {
		ld.l.Warn("dataset is empty", slog.String("source", source))
		if ld.cfg.IsStrict {
			return nil, fmt.Errorf("%w: %q", ErrEmptyDataset, source)
		}
	}

	if len(d.shows) > 0 {
		d.frame = buildFrame(d.shows)
	}

	return d, nil
}

func parseShow(production, genre, score, year string) (Show, error) {
	production = strings.TrimSpace(production)
	genre = strings.TrimSpace(genre)

	if production == "" {
		return Show{}, errors.New("empty main production")
	}

	if genre == "" {
		return Show{}, errors.New("empty main genre")
	}

	s, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
	if err != nil {
		return Show{}, fmt.Errorf("score %q: %w", score, err)
	}

	if math.IsNaN(s) || math.IsInf(s, 0) {
		return Show{}, fmt.Errorf("score %q: not a finite number", score)
	}

	// release years are sometimes exported as floats, e.g. "2010.0"
	y, err := strconv.ParseFloat(strings.TrimSpace(year), 64)
	if err != nil {
		return Show{}, fmt.Errorf("release year %q: %w", year, err)
	}

	if math.IsNaN(y) || math.IsInf(y, 0) || y != math.Trunc(y) {
		return Show{}, fmt.Errorf("release year %q: not a year", year)
	}

	return Show{
		Production:  production,
		Genre:       genre,
		Score:       s,
		ReleaseYear: int(y),
	}, nil
}

func buildFrame(shows []Show) dataframe.DataFrame {
	var (
		titles      = make([]string, 0, len(shows))
		productions = make([]string, 0, len(shows))
		genres      = make([]string, 0, len(shows))
		scores      = make([]float64, 0, len(shows))
		years       = make([]int, 0, len(shows))
	)

	for _, show := range shows {
		titles = append(titles, show.Title)
		productions = append(productions, show.Production)
		genres = append(genres, show.Genre)
		scores = append(scores, show.Score)
		years = append(years, show.ReleaseYear)
	}

	return dataframe.New(
		series.New(titles, series.String, ColTitle),
		series.New(productions, series.String, ColProduction),
		series.New(genres, series.String, ColGenre),
		series.New(scores, series.Float, ColScore),
		series.New(years, series.Int, ColReleaseYear),
	)
}
