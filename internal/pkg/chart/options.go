package chart

// ThemeWhite is the built-in echarts theme, used when no theme is configured.
const ThemeWhite = "white"

const defaultHeight = "500px"

// Option configures a [Chart].
type Option func(*options)

type options struct {
	Title      string
	Subtitle   string
	XAxisLabel string
	YAxisLabel string
	Theme      string
	Height     string
	ShowLegend bool
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(c *options) {
		c.Title = title
	}
}

// WithSubtitle sets the chart subtitle.
func WithSubtitle(subtitle string) Option {
	return func(c *options) {
		c.Subtitle = subtitle
	}
}

// WithTheme sets the color theme.
func WithTheme(theme string) Option {
	return func(c *options) {
		if theme == "" {
			return
		}

		c.Theme = theme
	}
}

// WithLegend enables or disables the legend.
func WithLegend(show bool) Option {
	return func(c *options) {
		c.ShowLegend = show
	}
}

// WithXAxisLabel sets the X-axis name.
func WithXAxisLabel(xlabel string) Option {
	return func(c *options) {
		c.XAxisLabel = xlabel
	}
}

// WithYAxisLabel sets the Y-axis name.
func WithYAxisLabel(ylabel string) Option {
	return func(c *options) {
		c.YAxisLabel = ylabel
	}
}

// WithHeight sets the CSS height of the chart container, e.g. "400px".
func WithHeight(height string) Option {
	return func(c *options) {
		if height == "" {
			return
		}

		c.Height = height
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Theme:  ThemeWhite,
		Height: defaultHeight,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
