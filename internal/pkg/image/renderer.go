// Package image converts a HTML page with charts into a PNG screenshot.
package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

const qualityPNG = 100 // 100 to force PNG

// Renderer knows how to take a screenshot from a HTML input and write it as PNG.
type Renderer struct {
	options

	l *slog.Logger
}

// New builds an image [Renderer] from HTML.
func New(opts ...Option) *Renderer {
	return &Renderer{
		options: optionsWithDefaults(opts),
		l:       slog.Default().With(slog.String("module", "image")),
	}
}

// Render a PNG image as a screenshot from a HTML input [io.Reader].
//
// The headless browser is stopped when the context is canceled.
func (r *Renderer) Render(ctx context.Context, dest io.Writer, source io.Reader) error {
	screenshot, err := r.screenshot(ctx, source)
	if err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}

	_, err = dest.Write(screenshot)
	if err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	r.l.Debug("screenshot written", slog.Int("bytes", len(screenshot)))

	return nil
}

func (r *Renderer) screenshot(parent context.Context, reader io.Reader) ([]byte, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Emulate(device.Info{
			Height:    r.Height,
			Width:     r.Width,
			Landscape: true,
		}),
		// base64 encoding keeps characters such as '#' or '%' in the page intact
		chromedp.Navigate("data:text/html;base64," + base64.StdEncoding.EncodeToString(content)),
	}

	if r.WaitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(r.WaitSelector, chromedp.ByQuery))
	}

	var screenshot []byte
	actions = append(actions,
		chromedp.Sleep(r.SleepDuration), // wait for the charts to be drawn
		chromedp.FullScreenshot(&screenshot, qualityPNG),
	)

	r.l.Debug("taking screenshot",
		slog.Int64("height", r.Height),
		slog.Int64("width", r.Width),
		slog.Duration("sleep", r.SleepDuration),
	)

	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, err
	}

	return screenshot, nil
}
