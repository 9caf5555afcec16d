package chart

import (
	"fmt"
	"io"

	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

const (
	defaultFontSize = 12
	xAxisLabelAngle = 30
	axisNameGap     = 32
	pointSize       = 10
	sliceBorder     = 1
)

// Renderable is a go-echarts chart which may be added to a page or rendered on its own.
type Renderable interface {
	components.Charter
	Render(w io.Writer) error
}

// Series represents a named, colored series of points (scatter plots and box plot overlays).
type Series struct {
	Name  string
	Color string
	Data  []echartsopts.ScatterData
}

// Chart represents one of the dashboard charts, before it is built as a go-echarts chart.
//
// Depending on its Kind, only some of the data fields are populated:
//
//   - bar: Categories and Bars
//   - box: Categories, Boxes and Series (the individual scores, colored by genre)
//   - pie: Slices
//   - scatter: Series
type Chart struct {
	options

	Kind       config.ViewName
	Categories []string
	Bars       []echartsopts.BarData
	Boxes      []echartsopts.BoxPlotData
	Slices     []echartsopts.PieData
	Series     []Series
}

// NewChart creates a new chart of a given kind.
func NewChart(kind config.ViewName, opts ...Option) *Chart {
	return &Chart{
		options: optionsWithDefaults(opts),
		Kind:    kind,
	}
}

// IsEmpty reports whether the chart holds no data.
func (c *Chart) IsEmpty() bool {
	return len(c.Bars) == 0 && len(c.Boxes) == 0 && len(c.Slices) == 0 && len(c.Series) == 0
}

// AddSeries adds a named series of points to the chart.
func (c *Chart) AddSeries(series Series) {
	c.Series = append(c.Series, series)
}

// Render writes the chart alone as a HTML document.
func (c *Chart) Render(w io.Writer) error {
	chart, err := c.Build()
	if err != nil {
		return err
	}

	return chart.Render(w)
}

// Build creates the go-echarts chart from the accumulated configuration.
func (c *Chart) Build() (Renderable, error) {
	switch c.Kind {
	case config.ViewBar:
		return c.buildBar(), nil
	case config.ViewBox:
		return c.buildBox(), nil
	case config.ViewPie:
		return c.buildPie(), nil
	case config.ViewScatter:
		return c.buildScatter(), nil
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", c.Kind)
	}
}

func (c *Chart) buildBar() *charts.Bar {
	bar := charts.NewBar()
	xAxisOpts, yAxisOpts := c.categoryAxes()

	bar.SetGlobalOptions(append(c.globalOptions(),
		charts.WithXAxisOpts(xAxisOpts),
		charts.WithYAxisOpts(yAxisOpts),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:    echartsopts.Bool(true),
			Trigger: "axis",
			AxisPointer: &echartsopts.AxisPointer{
				Type: "shadow",
			},
		}),
	)...)

	bar.SetXAxis(c.Categories)
	bar.AddSeries(c.YAxisLabel, c.Bars)

	return bar
}

func (c *Chart) buildBox() *charts.BoxPlot {
	box := charts.NewBoxPlot()
	xAxisOpts, yAxisOpts := c.categoryAxes()

	box.SetGlobalOptions(append(c.globalOptions(),
		charts.WithXAxisOpts(xAxisOpts),
		charts.WithYAxisOpts(yAxisOpts),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:    echartsopts.Bool(true),
			Trigger: "item",
		}),
	)...)

	box.SetXAxis(c.Categories)
	box.AddSeries(c.YAxisLabel, c.Boxes,
		charts.WithItemStyleOpts(echartsopts.ItemStyle{
			Color:       "transparent",
			BorderColor: "dimgray",
		}),
	)

	if len(c.Series) > 0 {
		points := charts.NewScatter()
		for _, s := range c.Series {
			points.AddSeries(s.Name, s.Data,
				charts.WithItemStyleOpts(echartsopts.ItemStyle{Color: s.Color}),
			)
		}
		box.Overlap(points)
	}

	return box
}

func (c *Chart) buildPie() *charts.Pie {
	pie := charts.NewPie()

	pie.SetGlobalOptions(append(c.globalOptions(),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:      echartsopts.Bool(true),
			Trigger:   "item",
			Formatter: "{b}: {c} ({d}%)",
		}),
	)...)

	pie.AddSeries(c.Title, c.Slices,
		charts.WithLabelOpts(echartsopts.Label{
			Show:      echartsopts.Bool(true),
			Position:  "inside",
			Formatter: "{b}\n{d}%",
		}),
		charts.WithItemStyleOpts(echartsopts.ItemStyle{
			BorderColor: "white",
			BorderWidth: sliceBorder,
		}),
	)

	return pie
}

func (c *Chart) buildScatter() *charts.Scatter {
	scatter := charts.NewScatter()

	scatter.SetGlobalOptions(append(c.globalOptions(),
		charts.WithXAxisOpts(echartsopts.XAxis{
			Name:         c.XAxisLabel,
			Type:         "value",
			NameLocation: "center",
			NameGap:      axisNameGap,
			Scale:        echartsopts.Bool(true),
		}),
		charts.WithYAxisOpts(echartsopts.YAxis{
			Name:  c.YAxisLabel,
			Type:  "value",
			Scale: echartsopts.Bool(true),
		}),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:    echartsopts.Bool(true),
			Trigger: "item",
		}),
	)...)

	for _, s := range c.Series {
		scatter.AddSeries(s.Name, s.Data,
			charts.WithItemStyleOpts(echartsopts.ItemStyle{Color: s.Color}),
		)
	}

	return scatter
}

// globalOptions are shared by every kind of chart.
func (c *Chart) globalOptions() []charts.GlobalOpts {
	titleOpts := echartsopts.Title{
		Title: c.Title,
	}
	if c.Subtitle != "" {
		titleOpts.Subtitle = c.Subtitle
		titleOpts.SubtitleStyle = &echartsopts.TextStyle{
			FontStyle: "italic",
			FontSize:  defaultFontSize,
		}
	}

	legendOpts := echartsopts.Legend{
		Show: echartsopts.Bool(c.ShowLegend),
	}
	if c.ShowLegend {
		legendOpts.X = "right"
		legendOpts.Y = "bottom"
	}

	toolboxOpts := echartsopts.Toolbox{
		Left: "right",
		Feature: &echartsopts.ToolBoxFeature{
			SaveAsImage: &echartsopts.ToolBoxFeatureSaveAsImage{
				Title: "Save as image",
			},
		},
	}

	return []charts.GlobalOpts{
		charts.WithInitializationOpts(echartsopts.Initialization{
			Theme:  c.Theme,
			Height: c.Height,
			Width:  "100%",
		}),
		charts.WithToolboxOpts(toolboxOpts),
		charts.WithTitleOpts(titleOpts),
		charts.WithLegendOpts(legendOpts),
		charts.WithGridOpts(echartsopts.Grid{
			Bottom: "100",
			Top:    "100",
		}),
	}
}

func (c *Chart) categoryAxes() (echartsopts.XAxis, echartsopts.YAxis) {
	xAxisOpts := echartsopts.XAxis{
		Name:         c.XAxisLabel,
		Type:         "category",
		Position:     "bottom",
		NameLocation: "center",
		NameGap:      axisNameGap + defaultFontSize,
		AxisTick: &echartsopts.AxisTick{
			AlignWithLabel: echartsopts.Bool(true),
		},
		AxisLabel: &echartsopts.AxisLabel{
			Rotate:       xAxisLabelAngle,
			Interval:     "0",
			ShowMinLabel: echartsopts.Bool(true),
			ShowMaxLabel: echartsopts.Bool(true),
			HideOverlap:  echartsopts.Bool(false),
		},
	}

	yAxisOpts := echartsopts.YAxis{
		Name:  c.YAxisLabel,
		Type:  "value",
		Scale: echartsopts.Bool(c.Kind != config.ViewBar), // counts start at zero
	}

	return xAxisOpts, yAxisOpts
}
