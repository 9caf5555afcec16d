package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/fredbi/tvviz/internal/pkg/chart"
	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/fredbi/tvviz/internal/pkg/image"
	"github.com/fredbi/tvviz/internal/pkg/organizer"
	"github.com/spf13/cobra"
)

func (c *Command) renderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render all charts as a static HTML page, and optionally as a PNG image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.render(cmd.Context(), cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&c.OutputFile, "output", "o", "-", "file output or - for standard output (a .png file only renders the image)")
	flags.BoolVar(&c.Png, "png", false, "enable PNG screenshot output")

	return cmd
}

// render builds the page with all charts, renders it as HTML then possibly takes a PNG screenshot.
func (c *Command) render(ctx context.Context, cmd *cobra.Command) error {
	cleanup, err := c.prepareOutputs(c.cfg)
	if err != nil {
		return fmt.Errorf("preparing outputs: %w", err)
	}
	defer cleanup()

	cfg := c.cfg

	// 1. load the dataset and build a chart page
	page, err := c.buildPage(ctx, cmd)
	if err != nil {
		return err
	}

	// 2. render the page as HTML, possibly to stdout, possibly to temp file
	htmlWriter, htmlCloser, err := getWriter(cmd, cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}

	if err := page.Render(htmlWriter); err != nil {
		htmlCloser()

		return fmt.Errorf("rendering page: %w", err)
	}

	htmlCloser()

	if cfg.Outputs.PngFile == "" {
		// html only: we're done
		return nil
	}

	// 3. convert the HTML page to a PNG image
	htmlReader, htmlCloser, err := getReader(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}
	defer htmlCloser()

	pngWriter, pngCloser, err := getWriter(cmd, cfg.Outputs.PngFile, "PNG")
	if err != nil {
		return err
	}
	defer pngCloser()

	opts := []image.Option{image.WithScreenshot(cfg.Render.Screenshot)}
	if len(page.Charts) > 0 {
		// echarts draws on a canvas
		opts = append(opts, image.WithWaitVisible("canvas"))
	}

	r := image.New(opts...)

	if err = r.Render(ctx, pngWriter, htmlReader); err != nil {
		return fmt.Errorf("rendering image: %w", err)
	}

	return nil
}

func (c *Command) buildPage(ctx context.Context, cmd *cobra.Command) (*chart.Page, error) {
	data, err := c.loadDataset(ctx, cmd)
	if err != nil {
		return nil, err
	}

	builder := chart.New(c.cfg, organizer.New(c.cfg, data))

	return builder.BuildPage(), nil
}

// prepareOutputs resolves the HTML and PNG output files from the CLI flags.
//
// When only a PNG image is wanted, i.e. the output file has a ".png" extension, the HTML page is rendered to a
// temporary file, removed by the returned cleanup.
func (c *Command) prepareOutputs(cfg *config.Config) (cleanup func(), err error) {
	cleanup = func() {}

	switch {
	case c.OutputFile == "" || c.OutputFile == "-":
		// HTML to standard output
	case strings.EqualFold(path.Ext(c.OutputFile), ".png"):
		cfg.Outputs.PngFile = c.OutputFile
	default:
		// an outfile is defined: infer the PNG file from the HTML file provided
		cfg.Outputs.HTMLFile = inferHTMLFile(c.OutputFile)
		if cfg.Outputs.PngFile == "" && c.Png {
			cfg.Outputs.PngFile = inferImageFile(cfg.Outputs.HTMLFile)
		}
	}

	switch {
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile == "":
		c.L.Info("output sent to standard output as HTML, no PNG image rendered")
		if c.Png {
			c.L.Info("set an output file to render a PNG image")
		}
		cfg.Outputs.HTMLFile = "-"
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile != "":
		c.L.Info("HTML generated as a temporary file to produce PNG")
		tmp, err := os.CreateTemp("", "tvviz.*.html")
		if err != nil {
			return cleanup, err
		}
		cfg.Outputs.HTMLFile = tmp.Name()
		cfg.Outputs.IsTemp = true
		_ = tmp.Close()
	}

	if cfg.Outputs.IsTemp {
		cleanup = func() {
			_ = os.Remove(cfg.Outputs.HTMLFile)
		}
	}

	return cleanup, nil
}

func inferHTMLFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".html"
}

func inferImageFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".png"
}
