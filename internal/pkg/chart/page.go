package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/components"
)

// Page represents a static page containing all the dashboard charts.
//
// A [Page] knows how to [Page.Render] as HTML.
type Page struct {
	Title  string
	Charts []*Chart
}

// NewPage creates a new page with the given title.
func NewPage(title string) *Page {
	return &Page{
		Title: title,
	}
}

// AddChart adds a chart to the page.
func (p *Page) AddChart(c *Chart) {
	p.Charts = append(p.Charts, c)
}

// Render writes the page HTML to the given writer.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.SetPageTitle(p.Title)

	for _, c := range p.Charts {
		built, err := c.Build()
		if err != nil {
			return fmt.Errorf("building %s chart: %w", c.Kind, err)
		}

		page.AddCharts(built)
	}

	return page.Render(w)
}
