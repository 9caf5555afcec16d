// Package organizer derives chartable views from the TV show dataset.
package organizer

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"

	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/fredbi/tvviz/internal/pkg/dataset"
	"github.com/fredbi/tvviz/internal/pkg/model"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// Organizer computes aggregated views over a loaded [dataset.Dataset].
//
// Views are pure functions of the dataset and of one filter value: an [Organizer] is safe for concurrent use.
type Organizer struct {
	cfg  *config.Config
	data *dataset.Dataset
	l    *slog.Logger
}

// New builds an [Organizer] ready to derive views from a dataset.
func New(cfg *config.Config, data *dataset.Dataset) *Organizer {
	return &Organizer{
		cfg:  cfg,
		data: data,
		l:    slog.Default().With(slog.String("module", "organizer")),
	}
}

// Dataset returns the underlying dataset.
func (o *Organizer) Dataset() *dataset.Dataset {
	return o.data
}

// ProductionCounts returns the number of shows per main production, by descending count.
//
// Ties are kept in order of first appearance in the dataset.
func (o *Organizer) ProductionCounts() model.Counts {
	if o.data.Len() == 0 {
		return nil
	}

	counts := o.countBy(dataset.ColProduction)
	total := o.data.Len()

	result := make(model.Counts, 0, len(counts))
	for _, production := range o.data.Productions() {
		count := counts[production]
		result = append(result, model.Count{
			Label: production,
			Count: count,
			Share: float64(count) / float64(total),
		})
	}

	slices.SortStableFunc(result, func(a, b model.Count) int {
		return cmp.Compare(b.Count, a.Count)
	})

	return result
}

// TopProductions returns the n main productions with the most shows.
//
// Like pandas nlargest(keep="all"), productions tied with the n-th one are all retained.
// n is clamped to at least 1.
func (o *Organizer) TopProductions(n int) model.BarView {
	n = max(n, 1)
	counts := o.ProductionCounts()
	view := model.BarView{N: n}

	if len(counts) <= n {
		view.Counts = counts

		return view
	}

	smallest := counts[n-1].Count
	end := n
	for end < len(counts) && counts[end].Count == smallest {
		end++
	}

	if end > n {
		o.l.Debug("ties retained in top productions", slog.Int("n", n), slog.Int("retained", end))
	}

	view.Counts = counts[:end]

	return view
}

// ProductionShares returns the main productions whose share of all shows is strictly above threshold.
func (o *Organizer) ProductionShares(threshold float64) model.PieView {
	counts := o.ProductionCounts()
	view := model.PieView{
		Threshold: threshold,
		Total:     counts.Total(),
	}

	for _, count := range counts {
		if count.Share > threshold {
			view.Slices = append(view.Slices, count)
		}
	}

	return view
}

// ScoreByGenre returns the distribution of scores for every genre, ordered by ascending median score.
//
// Genres with the same median are ordered by name.
func (o *Organizer) ScoreByGenre() model.BoxView {
	if o.data.Len() == 0 {
		return model.BoxView{}
	}

	byGenre := make(map[string][]float64, len(o.data.Genres()))
	for _, group := range o.data.Frame().GroupBy(dataset.ColGenre).GetGroups() {
		genre := group.Col(dataset.ColGenre).Elem(0).String()
		byGenre[genre] = group.Col(dataset.ColScore).Float()
	}

	boxes := make([]model.BoxStats, 0, len(byGenre))
	for _, genre := range slices.Sorted(maps.Keys(byGenre)) {
		boxes = append(boxes, boxStats(genre, byGenre[genre]))
	}

	slices.SortStableFunc(boxes, func(a, b model.BoxStats) int {
		return cmp.Compare(a.Median, b.Median)
	})

	return model.BoxView{Boxes: boxes}
}

// ScoresByRelease returns score against release year for the shows retained by the filter, one series per genre.
//
// Unknown genres are ignored. If the filter only names unknown genres, or is an empty checklist, the view is empty.
func (o *Organizer) ScoresByRelease(filter model.Filter) model.ScatterView {
	view := model.ScatterView{Filter: filter}
	if o.data.Len() == 0 || filter.SelectsNone() {
		return view
	}

	frame := o.data.Frame()

	if len(filter.Genres) > 0 {
		known := make([]string, 0, len(filter.Genres))
		for _, genre := range filter.Genres {
			if !o.data.HasGenre(genre) {
				o.l.Debug("unknown genre ignored", slog.String("genre", genre))

				continue
			}
			known = append(known, genre)
		}

		if len(known) == 0 {
			return view
		}

		frame = frame.Filter(dataframe.F{
			Colname:    dataset.ColGenre,
			Comparator: series.In,
			Comparando: known,
		})
		if frame.Err != nil {
			o.l.Error("filtering genres", slog.String("error", frame.Err.Error()))

			return view
		}
	}

	titles := frame.Col(dataset.ColTitle).Records()
	genres := frame.Col(dataset.ColGenre).Records()
	scores := frame.Col(dataset.ColScore).Float()
	years, err := frame.Col(dataset.ColReleaseYear).Int()
	if err != nil {
		o.l.Error("reading release years", slog.String("error", err.Error()))

		return view
	}

	points := make(map[string][]model.Point, len(o.data.Genres()))
	for i := range genres {
		if !filter.AcceptsYear(years[i]) {
			continue
		}

		points[genres[i]] = append(points[genres[i]], model.Point{
			Title:       titles[i],
			ReleaseYear: years[i],
			Score:       scores[i],
		})
	}

	for _, genre := range o.data.Genres() {
		if len(points[genre]) == 0 {
			continue
		}

		view.Series = append(view.Series, model.ScatterSeries{
			Genre:  genre,
			Points: points[genre],
		})
	}

	return view
}

func (o *Organizer) countBy(column string) map[string]int {
	counts := make(map[string]int)
	for _, value := range o.data.Frame().Col(column).Records() {
		counts[value]++
	}

	return counts
}

func boxStats(genre string, scores []float64) model.BoxStats {
	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	box := model.BoxStats{
		Genre:  genre,
		Count:  len(sorted),
		Scores: sorted,
	}

	if len(sorted) == 0 {
		return box
	}

	box.Min = sorted[0]
	box.Max = sorted[len(sorted)-1]
	box.Q1 = quantile(sorted, 0.25)
	box.Median = quantile(sorted, 0.5)
	box.Q3 = quantile(sorted, 0.75)
	box.Mean = stat.Mean(sorted, nil)

	return box
}

// quantile computes the p-quantile of sorted values with linear interpolation between closest ranks.
//
// This is the method used by pandas and plotly (Hyndman & Fan type 7), which gonum's [stat.Quantile] doesn't provide.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := p * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}

	frac := pos - float64(lower)

	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
