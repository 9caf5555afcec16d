package chart

import (
	"fmt"
	"log/slog"

	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/fredbi/tvviz/internal/pkg/model"
	"github.com/fredbi/tvviz/internal/pkg/organizer"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

// Params holds the values of the dashboard input controls.
//
// N is the value of the "number of countries" slider, Filter the genre dropdown or checklist
// and the release year range.
type Params struct {
	N      int
	Filter model.Filter
}

// Builder constructs charts from the views derived by an [organizer.Organizer].
type Builder struct {
	cfg         *config.Config
	org         *organizer.Organizer
	genreColors map[string]string
	l           *slog.Logger
}

// New creates a new chart [Builder], given a [config.Config] and an [organizer.Organizer].
//
// Genre colors are assigned from the palette in order of first appearance of genres,
// so that the box plot and the scatter plot agree.
func New(cfg *config.Config, org *organizer.Organizer) *Builder {
	genres := org.Dataset().Genres()
	colors := make(map[string]string, len(genres))
	for i, genre := range genres {
		colors[genre] = cfg.Render.Color(i)
	}

	return &Builder{
		cfg:         cfg,
		org:         org,
		genreColors: colors,
		l:           slog.Default().With(slog.String("module", "chart")),
	}
}

// DefaultParams returns the initial values of the input controls.
func (b *Builder) DefaultParams() Params {
	return Params{
		N: b.cfg.Render.MaxProductions,
	}
}

// BuildView builds the chart for one view of the dashboard, recomputed from the input controls.
func (b *Builder) BuildView(view config.ViewName, params Params) (*Chart, error) {
	switch view {
	case config.ViewBar:
		return b.Bar(params.N), nil
	case config.ViewBox:
		return b.Box(), nil
	case config.ViewPie:
		return b.Pie(), nil
	case config.ViewScatter:
		return b.Scatter(params.Filter), nil
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}
}

// BuildPage creates a page with all the charts, for the default values of the input controls.
//
// The scatter plot shows all genres.
func (b *Builder) BuildPage() *Page {
	page := NewPage(b.cfg.Render.Title)
	params := b.DefaultParams()

	for _, view := range config.AllViewNames() {
		chart, err := b.BuildView(view, params)
		if err != nil {
			b.l.Error("chart skipped", slog.String("view", view.String()), slog.String("error", err.Error()))

			continue
		}

		if chart.IsEmpty() {
			b.l.Warn("empty chart skipped", slog.String("view", view.String()))

			continue
		}

		page.AddChart(chart)
		b.l.Info("added chart", slog.String("view", view.String()))
	}

	b.l.Info("added charts", slog.Int("charts", len(page.Charts)))

	return page
}

// Bar builds the bar chart of the top n main productions.
func (b *Builder) Bar(n int) *Chart {
	top := b.org.TopProductions(n)
	view := b.view(config.ViewBar)

	chart := b.newChart(config.ViewBar, view, view.TitleWith(top.N, ""))
	chart.Categories = top.Counts.Labels()
	for i, count := range top.Counts {
		chart.Bars = append(chart.Bars, echartsopts.BarData{
			Name:  count.Label,
			Value: count.Count,
			ItemStyle: &echartsopts.ItemStyle{
				Color: b.cfg.Render.Color(i),
			},
		})
	}

	return chart
}

// Box builds the box plot of scores per genre, genres sorted by ascending median.
func (b *Builder) Box() *Chart {
	boxes := b.org.ScoreByGenre()
	view := b.view(config.ViewBox)

	chart := b.newChart(config.ViewBox, view, view.Title)
	chart.Categories = boxes.Genres()

	for _, box := range boxes.Boxes {
		chart.Boxes = append(chart.Boxes, echartsopts.BoxPlotData{
			Name:  box.Genre,
			Value: box.Values(),
		})

		points := make([]echartsopts.ScatterData, 0, len(box.Scores))
		for _, score := range box.Scores {
			points = append(points, echartsopts.ScatterData{
				Name:       box.Genre,
				Value:      []any{box.Genre, score},
				SymbolSize: pointSize / 2,
			})
		}

		chart.AddSeries(Series{
			Name:  box.Genre,
			Color: b.genreColors[box.Genre],
			Data:  points,
		})
	}

	return chart
}

// Pie builds the pie chart of main productions, restricted to shares above the configured threshold.
func (b *Builder) Pie() *Chart {
	shares := b.org.ProductionShares(b.cfg.Render.PieThreshold)
	view := b.view(config.ViewPie)

	chart := b.newChart(config.ViewPie, view, view.Title)
	for i, slice := range shares.Slices {
		chart.Slices = append(chart.Slices, echartsopts.PieData{
			Name:  slice.Label,
			Value: slice.Count,
			ItemStyle: &echartsopts.ItemStyle{
				Color: b.cfg.Render.Color(i),
			},
		})
	}

	return chart
}

// Scatter builds the scatter plot of score against release year, one series per genre.
func (b *Builder) Scatter(filter model.Filter) *Chart {
	points := b.org.ScoresByRelease(filter)
	view := b.view(config.ViewScatter)

	title := view.AltTitle
	if genre, ok := filter.SingleGenre(); ok {
		title = view.TitleWith(0, genre)
	}

	chart := b.newChart(config.ViewScatter, view, title)
	chart.ShowLegend = true

	for _, series := range points.Series {
		data := make([]echartsopts.ScatterData, 0, len(series.Points))
		for _, point := range series.Points {
			data = append(data, echartsopts.ScatterData{
				Name:       point.Title,
				Value:      []any{point.ReleaseYear, point.Score},
				SymbolSize: pointSize,
			})
		}

		chart.AddSeries(Series{
			Name:  series.Genre,
			Color: b.genreColors[series.Genre],
			Data:  data,
		})

		b.l.Debug("added series",
			slog.String("view", config.ViewScatter.String()),
			slog.String("genre", series.Genre),
			slog.Int("points", len(data)),
		)
	}

	return chart
}

func (b *Builder) view(id config.ViewName) config.View {
	view, ok := b.cfg.GetView(id)
	if !ok {
		return config.View{Title: config.Titleize(id)}
	}

	return view
}

func (b *Builder) newChart(kind config.ViewName, view config.View, title string) *Chart {
	return NewChart(kind,
		WithTitle(title),
		WithSubtitle(view.Subheading),
		WithXAxisLabel(view.XAxis),
		WithYAxisLabel(view.YAxis),
		WithHeight(view.Height),
		WithTheme(b.cfg.Render.Theme),
		WithLegend(false),
	)
}
