package config

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed default_config.yaml
var efs embed.FS

// ErrInvalidConfig is returned when the loaded configuration does not validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the configuration for tvviz.
type Config struct {
	Name     string
	IsStrict bool `mapstructure:"-"`
	Dataset  Dataset
	Render   Rendering
	Server   Server
	Outputs  Output `mapstructure:"-"`
	Views    map[ViewName]View
}

// GetView retrieves a view definition by its [ViewName].
func (c Config) GetView(id ViewName) (View, bool) {
	v, ok := c.Views[id]

	return v, ok
}

// EncodeYAML serializes a [Config] to YAML into the provided writer.
//
// Runtime-only fields (IsStrict, Outputs) are excluded from the output.
func (c *Config) EncodeYAML(w io.Writer) error {
	var raw map[string]any

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decoding config to map: %w", err)
	}

	return yaml.NewEncoder(w).Encode(raw)
}

// Dataset locates the CSV source and names its columns.
type Dataset struct {
	// Source is an http(s) URL, a local file or "-" for standard input.
	Source  string
	Timeout string
	Columns Columns
}

// HTTPTimeout parses the Timeout field as a [time.Duration].
func (d Dataset) HTTPTimeout() time.Duration {
	t, err := time.ParseDuration(d.Timeout)
	if t <= 0 || err != nil {
		return defaultHTTPTimeout
	}

	return t
}

// Columns maps dataset roles to CSV header names.
type Columns struct {
	Title       string
	Production  string
	Genre       string
	Score       string
	ReleaseYear string
}

// Required returns the header names which must be present in the CSV.
func (c Columns) Required() []string {
	return []string{c.Production, c.Genre, c.Score, c.ReleaseYear}
}

// Rendering holds chart rendering settings.
type Rendering struct {
	Title          string
	Description    string
	InfoLink       string
	InfoText       string
	Theme          string
	Palette        []string
	PieThreshold   float64
	MaxProductions int
	DefaultGenre   string
	Screenshot     Screenshot
}

// Color returns the palette color at index i, cycling over the palette.
func (r Rendering) Color(i int) string {
	if len(r.Palette) == 0 || i < 0 {
		return ""
	}

	return r.Palette[i%len(r.Palette)]
}

// Screenshot configures the headless Chrome screenshot used for PNG rendering.
type Screenshot struct {
	Height int64
	Width  int64
	Sleep  string
}

// SleepDuration parses the Sleep field as a [time.Duration].
func (s Screenshot) SleepDuration() time.Duration {
	d, err := time.ParseDuration(s.Sleep)
	if d == 0 || err != nil {
		return 0
	}

	return d
}

// Server configures the dashboard HTTP server.
type Server struct {
	Addr          string
	ShutdownGrace string
}

// Grace parses the ShutdownGrace field as a [time.Duration].
func (s Server) Grace() time.Duration {
	d, err := time.ParseDuration(s.ShutdownGrace)
	if d <= 0 || err != nil {
		return defaultShutdownGrace
	}

	return d
}

// Output holds the resolved output file paths for HTML and PNG rendering.
type Output struct {
	HTMLFile string
	PngFile  string
	IsTemp   bool
}

// View describes the texts shown around one chart of the dashboard.
//
// Title may contain the placeholders "{n}" and "{genre}". AltTitle is used when there is no single
// value to substitute, e.g. a scatter plot showing several genres.
type View struct {
	Label       string
	Heading     string
	Subheading  string
	Description string
	Title       string
	AltTitle    string
	XAxis       string
	YAxis       string
	Height      string
}

// TitleWith replaces the "{n}" and "{genre}" placeholders in the title of the view.
func (v View) TitleWith(n int, genre string) string {
	return strings.NewReplacer(
		"{n}", fmt.Sprint(n),
		"{genre}", genre,
	).Replace(v.Title)
}

const (
	defaultHTTPTimeout   = 30 * time.Second
	defaultShutdownGrace = 5 * time.Second
)

// Load a configuration file from the local file system, on top of the embedded defaults.
func Load(file string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	fsys := os.DirFS(filepath.Dir(file))
	pth := filepath.Join(".", filepath.Base(file))

	return load(fsys, pth, cfg)
}

// LoadDefaults loads the default configuration from the embedded default_config.yaml.
func LoadDefaults() (*Config, error) {
	return loadDefaults()
}

func loadDefaults() (*Config, error) {
	return load(efs, "default_config.yaml", &Config{})
}

func load(fsys fs.FS, file string, cfg *Config) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var raw any
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, err
	}

	// keep the previous views so a partial override doesn't lose texts
	previous := cfg.Views

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ZeroFields:       true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err = dec.Decode(raw); err != nil {
		return nil, err
	}

	cfg.Views = mergeViews(cfg.Views, previous)

	if err = cfg.validateDataset(); err != nil {
		return nil, err
	}

	if err = cfg.validateRendering(); err != nil {
		return nil, err
	}

	if err = cfg.validateViews(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func mergeViews(views, previous map[ViewName]View) map[ViewName]View {
	merged := make(map[ViewName]View, len(AllViewNames()))
	for id, v := range previous {
		merged[id] = v
	}

	for id, v := range views {
		def := merged[id]
		merged[id] = View{
			Label:       stringDefault(v.Label, def.Label),
			Heading:     stringDefault(v.Heading, def.Heading),
			Subheading:  stringDefault(v.Subheading, def.Subheading),
			Description: stringDefault(v.Description, def.Description),
			Title:       stringDefault(v.Title, def.Title),
			AltTitle:    stringDefault(v.AltTitle, def.AltTitle),
			XAxis:       stringDefault(v.XAxis, def.XAxis),
			YAxis:       stringDefault(v.YAxis, def.YAxis),
			Height:      stringDefault(v.Height, def.Height),
		}
	}

	return merged
}

func (c *Config) validateDataset() error {
	columns := c.Dataset.Columns
	for role, name := range map[string]string{
		"production":  columns.Production,
		"genre":       columns.Genre,
		"score":       columns.Score,
		"releaseYear": columns.ReleaseYear,
	} {
		if name == "" {
			return fmt.Errorf("%w: empty column name: dataset.columns.%s", ErrInvalidConfig, role)
		}
	}

	seen := make(map[string]struct{}, len(columns.Required()))
	for _, name := range columns.Required() {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate column name: %s", ErrInvalidConfig, name)
		}
		seen[name] = struct{}{}
	}

	if c.Dataset.Timeout != "" {
		if _, err := time.ParseDuration(c.Dataset.Timeout); err != nil {
			return fmt.Errorf("%w: dataset.timeout: %w", ErrInvalidConfig, err)
		}
	}

	return nil
}

func (c *Config) validateRendering() error {
	r := c.Render
	if len(r.Palette) == 0 {
		return fmt.Errorf("%w: render.palette must contain at least 1 color", ErrInvalidConfig)
	}

	for i, color := range r.Palette {
		if strings.TrimSpace(color) == "" {
			return fmt.Errorf("%w: empty color: render.palette[%d]", ErrInvalidConfig, i)
		}
	}

	if r.PieThreshold < 0 || r.PieThreshold >= 1 {
		return fmt.Errorf("%w: render.pieThreshold must be in [0,1): %v", ErrInvalidConfig, r.PieThreshold)
	}

	if r.MaxProductions < 1 {
		return fmt.Errorf("%w: render.maxProductions must be at least 1: %d", ErrInvalidConfig, r.MaxProductions)
	}

	return nil
}

func (c *Config) validateViews() error {
	for id, v := range c.Views {
		if !id.IsValid() {
			return fmt.Errorf("%w: invalid view: views.%s (should be one of %v)", ErrInvalidConfig, id, AllViewNames())
		}

		if v.Label == "" {
			v.Label = Titleize(id)
		}
		if v.Title == "" {
			v.Title = v.Label
		}
		if v.AltTitle == "" {
			v.AltTitle = v.Title
		}

		c.Views[id] = v
	}

	for _, id := range AllViewNames() {
		if _, ok := c.Views[id]; !ok {
			c.Views[id] = View{
				Label: Titleize(id),
				Title: Titleize(id),
			}
		}
	}

	return nil
}

type str interface {
	~string
}

// Titleize turns identifiers such as "sci-fi" or "main_genre" into display labels ("Sci Fi", "Main Genre").
func Titleize[T str](in T) string {
	caser := cases.Title(language.English, cases.NoLower) // the case is stateful: cannot declare it globally

	return caser.String(strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, string(in),
	))
}

func stringDefault(in, def string) string {
	if in == "" {
		return def
	}

	return in
}
