package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/fredbi/tvviz/internal/pkg/dataset"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestNewCommand(t *testing.T) {
	cli := NewCommand()
	require.NotNil(t, cli)
	assert.NotNil(t, cli.L)

	root := cli.Root()
	require.NotNil(t, root)
	for _, name := range []string{"serve", "render", "report", "config"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "data", "strict", "verbose", "quiet"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	for _, flag := range []string{"addr", "shutdown-grace"} {
		assert.NotNil(t, serve.Flags().Lookup(flag), "missing flag %q", flag)
	}
}

func TestInferHTMLFile(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"output.png", "output.html"},
		{"output.html", "output.html"},
		{"output", "output.html"},
		{"path/to/output.png", "path/to/output.html"},
		{"output.svg", "output.html"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, inferHTMLFile(tt.input))
		})
	}
}

func TestInferImageFile(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"output.html", "output.png"},
		{"output.png", "output.png"},
		{"output", "output.png"},
		{"path/to/output.html", "path/to/output.png"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, inferImageFile(tt.input))
		})
	}
}

func TestPrepareOutputsToStdout(t *testing.T) {
	cfg := &config.Config{}
	cli := &Command{
		OutputFile: "-",
		Png:        true,
		L:          newTestLogger(),
	}

	cleanup, err := cli.prepareOutputs(cfg)
	require.NoError(t, err)
	defer cleanup()

	// without an output file, HTML goes to stdout and no PNG is rendered
	assert.Equal(t, "-", cfg.Outputs.HTMLFile)
	assert.Empty(t, cfg.Outputs.PngFile)
}

func TestPrepareOutputsFile(t *testing.T) {
	cfg := &config.Config{}
	cli := &Command{
		OutputFile: "results",
		L:          newTestLogger(),
	}

	cleanup, err := cli.prepareOutputs(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "results.html", cfg.Outputs.HTMLFile)
	assert.Empty(t, cfg.Outputs.PngFile)
}

func TestPrepareOutputsFileWithPng(t *testing.T) {
	cfg := &config.Config{}
	cli := &Command{
		OutputFile: "results.html",
		Png:        true,
		L:          newTestLogger(),
	}

	cleanup, err := cli.prepareOutputs(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "results.html", cfg.Outputs.HTMLFile)
	assert.Equal(t, "results.png", cfg.Outputs.PngFile)
	assert.False(t, cfg.Outputs.IsTemp)
}

func TestPrepareOutputsPngOnly(t *testing.T) {
	cfg := &config.Config{}
	cli := &Command{
		OutputFile: "results.PNG",
		L:          newTestLogger(),
	}

	cleanup, err := cli.prepareOutputs(cfg)
	require.NoError(t, err)

	assert.Equal(t, "results.PNG", cfg.Outputs.PngFile)
	assert.True(t, cfg.Outputs.IsTemp)
	assert.True(t, strings.HasSuffix(cfg.Outputs.HTMLFile, ".html"))
	_, err = os.Stat(cfg.Outputs.HTMLFile)
	require.NoError(t, err)

	cleanup()
	_, err = os.Stat(cfg.Outputs.HTMLFile)
	assert.True(t, os.IsNotExist(err))
}

func TestPrepareOutputsTempHTML(t *testing.T) {
	cfg := &config.Config{
		Outputs: config.Output{
			PngFile: "output.png",
		},
	}
	cli := &Command{
		L: newTestLogger(),
	}

	cleanup, err := cli.prepareOutputs(cfg)
	require.NoError(t, err)

	assert.True(t, cfg.Outputs.IsTemp)
	assert.True(t, strings.Contains(cfg.Outputs.HTMLFile, "tvviz"),
		"expected temp file name to contain 'tvviz', got %q", cfg.Outputs.HTMLFile)
	_, err = os.Stat(cfg.Outputs.HTMLFile)
	require.NoError(t, err)

	cleanup()
	_, err = os.Stat(cfg.Outputs.HTMLFile)
	assert.True(t, os.IsNotExist(err))
}

func TestPrepareConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cli := &Command{L: newTestLogger()}
		require.NoError(t, cli.prepareConfig())
		require.NotNil(t, cli.cfg)
		assert.Contains(t, cli.cfg.Dataset.Source, "https://")
		assert.False(t, cli.cfg.IsStrict)
	})

	t.Run("flag overrides", func(t *testing.T) {
		cli := &Command{
			Config: writeTestConfig(t, testConfig()),
			Data:   "shows.csv",
			Strict: true,
			L:      newTestLogger(),
		}
		require.NoError(t, cli.prepareConfig())
		assert.Equal(t, "shows.csv", cli.cfg.Dataset.Source)
		assert.True(t, cli.cfg.IsStrict)
		assert.Equal(t, 3, cli.cfg.Render.MaxProductions)
	})

	t.Run("missing file", func(t *testing.T) {
		cli := &Command{
			Config: "/nonexistent/config.yaml",
			L:      newTestLogger(),
		}
		require.Error(t, cli.prepareConfig())
	})
}

func TestExecuteReport(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, execute(t, &out, nil, "report", "-q", "-d", datasetTestdataPath("shows.csv")))

	var report dataset.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 20, report.Shows)
	assert.Zero(t, report.Dropped)
	assert.Equal(t, "drama", report.Genres[0].Value)
}

func TestExecuteReportFromStdin(t *testing.T) {
	csv, err := os.ReadFile(datasetTestdataPath("shows.csv"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, execute(t, &out, bytes.NewReader(csv), "report", "-q", "--data", "-"))

	var report dataset.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 20, report.Shows)
	assert.Equal(t, "-", report.Source)
}

func TestExecuteStrict(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, execute(t, &out, nil, "report", "-q", "-d", datasetTestdataPath("invalid.csv")))

	err := execute(t, &out, nil, "report", "-q", "--strict", "-d", datasetTestdataPath("invalid.csv"))
	require.Error(t, err)
	require.ErrorIs(t, err, dataset.ErrInvalidRow)
}

func TestExecuteHTMLOutput(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "output.html")

	var out bytes.Buffer
	require.NoError(t, execute(t, &out, nil,
		"render", "-q",
		"-c", writeTestConfig(t, testConfig()),
		"-d", datasetTestdataPath("shows.csv"),
		"-o", outFile,
	))
	assert.Zero(t, out.Len())

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "echarts")
	assert.Contains(t, string(content), "Top 3 countries")
}

func TestExecuteHTMLToStdout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, execute(t, &out, nil, "render", "-q", "-d", datasetTestdataPath("shows.csv")))

	assert.Contains(t, out.String(), "echarts")
	assert.Contains(t, out.String(), "NETFLIX TV SHOW DATA VISUALIZATION")
}

func TestExecutePngOutput(t *testing.T) {
	skipIfNoBrowser(t)
	t.Setenv("CHROME_FLAGS", "--no-sandbox")

	dir := t.TempDir()
	outFile := filepath.Join(dir, "output.html")

	var out bytes.Buffer
	require.NoError(t, execute(t, &out, nil,
		"render", "-q",
		"-d", datasetTestdataPath("shows.csv"),
		"-o", outFile,
		"--png",
	))

	info, err := os.Stat(filepath.Join(dir, "output.png"))
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestExecutePngOnlyOutput(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	t.Setenv("CHROME_FLAGS", "--no-sandbox")

	outFile := filepath.Join(dir, "output.png")

	var out bytes.Buffer
	err := execute(t, &out, nil,
		"render", "-q",
		"-d", datasetTestdataPath("shows.csv"),
		"-o", outFile,
	)
	assert.Zero(t, out.Len())

	// the temporary HTML page is removed, whether the screenshot succeeded or not
	leftovers, globErr := filepath.Glob(filepath.Join(dir, "tvviz.*.html"))
	require.NoError(t, globErr)
	assert.Empty(t, leftovers)

	if !hasBrowser() {
		t.Skip("no Chrome/Chromium browser found, skipping screenshot check")
	}

	require.NoError(t, err)
	info, err := os.Stat(outFile)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestExecuteMissingInput(t *testing.T) {
	var out bytes.Buffer

	err := execute(t, &out, nil, "render", "-q", "-d", "/nonexistent/file.csv", "-o", filepath.Join(t.TempDir(), "output.html"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading dataset")
}

func TestExecuteConfig(t *testing.T) {
	t.Run("to stdout", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, execute(t, &out, nil, "config", "-q"))
		assert.Contains(t, out.String(), "NETFLIX TV SHOW DATA VISUALIZATION")
	})

	t.Run("generated config loads back", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "generated.yaml")

		var out bytes.Buffer
		require.NoError(t, execute(t, &out, nil, "config", "-q", "-c", writeTestConfig(t, testConfig()), "-o", outFile))

		cfg, err := config.Load(outFile)
		require.NoError(t, err)
		assert.Equal(t, "Test", cfg.Name)
		assert.Equal(t, 3, cfg.Render.MaxProductions)
		assert.Equal(t, []string{"red", "green"}, cfg.Render.Palette)
	})
}

func TestExecuteServe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	cli := NewCommand()
	cli.Root().SetOut(&out)
	cli.Root().SetErr(&out)

	require.NoError(t, cli.Execute(ctx, "serve", "-q",
		"-d", datasetTestdataPath("shows.csv"),
		"--addr", "127.0.0.1:0",
		"--shutdown-grace", "1s",
	))
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	ctx := context.Background()
	var buf bytes.Buffer

	tests := []struct {
		name           string
		verbose, quiet bool
		debug, info    bool
	}{
		{"default level", false, false, false, true},
		{"verbose", true, false, true, true},
		{"quiet", false, true, false, false},
		{"quiet takes precedence", true, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := setupLogger(&buf, tt.verbose, tt.quiet)
			require.NotNil(t, l)

			handler := slog.Default().Handler()
			assert.Equal(t, tt.debug, handler.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.info, handler.Enabled(ctx, slog.LevelInfo))
			assert.True(t, handler.Enabled(ctx, slog.LevelWarn))
		})
	}
}

// helpers

func newTestLogger() *slog.Logger {
	return slog.Default().With(slog.String("module", "test"))
}

func execute(t *testing.T, out *bytes.Buffer, in *bytes.Reader, args ...string) error {
	t.Helper()
	out.Reset()

	cli := NewCommand()
	cli.Root().SetOut(out)
	cli.Root().SetErr(&bytes.Buffer{})
	if in != nil {
		cli.Root().SetIn(in)
	}

	return cli.Execute(context.Background(), args...)
}

func writeTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yamlContent), 0o600))

	return file
}

func datasetTestdataPath(name string) string {
	return filepath.Join("..", "pkg", "dataset", "testdata", name)
}

func testConfig() string {
	return `
name: Test
render:
  theme: roma
  palette: [red, green]
  maxProductions: 3
`
}

func skipIfNoBrowser(t *testing.T) {
	t.Helper()
	if !hasBrowser() {
		t.Skip("no Chrome/Chromium browser found, skipping integration test")
	}
}

func hasBrowser() bool {
	for _, name := range []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}

	return false
}
