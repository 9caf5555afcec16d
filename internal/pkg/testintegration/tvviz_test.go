package testintegration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fredbi/tvviz/internal/pkg/chart"
	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/fredbi/tvviz/internal/pkg/dataset"
	"github.com/fredbi/tvviz/internal/pkg/model"
	"github.com/fredbi/tvviz/internal/pkg/organizer"
	"github.com/fredbi/tvviz/internal/pkg/server"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestTvviz(t *testing.T) {
	csv, err := os.ReadFile(filepath.Join("..", "dataset", "testdata", "shows.csv"))
	require.NoError(t, err)

	// the dataset is served over HTTP, like the published CSV
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(csv)
	}))
	defer origin.Close()

	outDir := t.TempDir()

	t.Run("should load config", func(t *testing.T) {
		cfg, err := config.LoadDefaults()
		require.NoError(t, err)
		cfg.Dataset.Source = origin.URL + "/data.csv"

		writeData(t, outDir, "test_config.json", cfg)

		t.Run("should fetch dataset", func(t *testing.T) {
			data, err := dataset.New(cfg).Load(context.Background(), "")
			require.NoError(t, err)
			require.Equal(t, 20, data.Len())

			writeData(t, outDir, "test_report.json", data.Report())

			t.Run("should organize views", func(t *testing.T) {
				o := organizer.New(cfg, data)

				top := o.TopProductions(cfg.Render.MaxProductions)
				assert.Len(t, top.Counts, 5)
				writeData(t, outDir, "test_bar.json", top)
				writeData(t, outDir, "test_box.json", o.ScoreByGenre())
				writeData(t, outDir, "test_pie.json", o.ProductionShares(cfg.Render.PieThreshold))
				writeData(t, outDir, "test_scatter.json", o.ScoresByRelease(model.Filter{Genres: []string{cfg.Render.DefaultGenre}}))

				t.Run("should build and render page", func(t *testing.T) {
					page := chart.New(cfg, o).BuildPage()
					require.Len(t, page.Charts, 4)

					var buf bytes.Buffer
					require.NoError(t, page.Render(&buf))
					assert.Contains(t, buf.String(), "echarts")

					writeResult(t, outDir, "test_html.html", &buf)
				})

				t.Run("should serve dashboard", func(t *testing.T) {
					srv, err := server.New(cfg, o)
					require.NoError(t, err)

					ts := httptest.NewServer(srv.Handler())
					defer ts.Close()

					for _, target := range []string{
						"/",
						"/?view=box",
						"/?view=pie",
						"/?view=scatter&genre=comedy&genre=crime",
						"/charts/bar?n=2",
						"/charts/scatter?genre=scifi&from=2015",
						"/api/views/box",
						"/api/report",
					} {
						resp, err := http.Get(ts.URL + target) //nolint:noctx
						require.NoError(t, err)
						body, err := io.ReadAll(resp.Body)
						_ = resp.Body.Close()
						require.NoError(t, err)
						require.Equal(t, http.StatusOK, resp.StatusCode, "GET %s: %s", target, body)
					}

					resp, err := http.Get(ts.URL + "/charts/bar?n=42") //nolint:noctx
					require.NoError(t, err)
					_ = resp.Body.Close()
					assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				})
			})
		})
	})
}

func writeData(t *testing.T, dir, name string, data any) {
	t.Helper()

	buf, err := json.MarshalIndent(data, "", "  ")
	require.NoError(t, err)

	writeResult(t, dir, name, bytes.NewReader(buf))
}

func writeResult(t *testing.T, dir, name string, rdr io.Reader) {
	t.Helper()

	file, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	_, err = io.Copy(file, rdr)
	require.NoError(t, err)
}
