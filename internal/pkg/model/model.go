// Package model holds the views derived from the TV show dataset, ready to be charted.
package model

// Count is the number of shows for one value of a grouping column.
type Count struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Counts is a list of [Count], sorted by descending count.
type Counts []Count

// Labels returns the labels of the counts, in order.
func (c Counts) Labels() []string {
	labels := make([]string, 0, len(c))
	for _, count := range c {
		labels = append(labels, count.Label)
	}

	return labels
}

// Total returns the sum of all counts.
func (c Counts) Total() (total int) {
	for _, count := range c {
		total += count.Count
	}

	return total
}

// BarView is the top-n of main productions by number of shows.
//
// N is the requested size: Counts may hold more entries when counts are tied with the n-th one.
type BarView struct {
	N      int    `json:"n"`
	Counts Counts `json:"counts"`
}

// PieView is the share of main productions above a threshold.
type PieView struct {
	Threshold float64 `json:"threshold"`
	Total     int     `json:"total"`
	Slices    Counts  `json:"slices"`
}

// BoxStats summarizes the distribution of scores for one genre.
type BoxStats struct {
	Genre  string    `json:"genre"`
	Count  int       `json:"count"`
	Min    float64   `json:"min"`
	Q1     float64   `json:"q1"`
	Median float64   `json:"median"`
	Q3     float64   `json:"q3"`
	Max    float64   `json:"max"`
	Mean   float64   `json:"mean"`
	Scores []float64 `json:"-"`
}

// Values returns the five-number summary in the order expected by box plots.
func (b BoxStats) Values() []float64 {
	return []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max}
}

// BoxView is the distribution of scores per genre, ordered by ascending median.
type BoxView struct {
	Boxes []BoxStats `json:"boxes"`
}

// Genres returns the genres of the boxes, in order.
func (v BoxView) Genres() []string {
	genres := make([]string, 0, len(v.Boxes))
	for _, box := range v.Boxes {
		genres = append(genres, box.Genre)
	}

	return genres
}

// Point is a single show on the scatter plot.
type Point struct {
	Title       string  `json:"title,omitempty"`
	ReleaseYear int     `json:"release_year"`
	Score       float64 `json:"score"`
}

// ScatterSeries holds the points of one genre.
type ScatterSeries struct {
	Genre  string  `json:"genre"`
	Points []Point `json:"points"`
}

// ScatterView is the score of shows against their release year, grouped by genre.
type ScatterView struct {
	Filter Filter          `json:"filter"`
	Series []ScatterSeries `json:"series"`
}

// Len is the total number of points in the view.
func (v ScatterView) Len() (n int) {
	for _, s := range v.Series {
		n += len(s.Points)
	}

	return n
}

// Filter restricts the shows retained by a view.
//
// An empty genre list means all genres, except for a checklist where it selects none.
// Zero year bounds mean no bound.
type Filter struct {
	Genres    []string `json:"genres,omitempty"`
	Checklist bool     `json:"checklist,omitempty"`
	FromYear  int      `json:"from_year,omitempty"`
	ToYear    int      `json:"to_year,omitempty"`
}

// SelectsNone reports whether the filter is a checklist with no genre checked.
func (f Filter) SelectsNone() bool {
	return f.Checklist && len(f.Genres) == 0
}

// SingleGenre returns the genre when the filter selects exactly one.
func (f Filter) SingleGenre() (string, bool) {
	if len(f.Genres) != 1 {
		return "", false
	}

	return f.Genres[0], true
}

// AcceptsYear reports whether a release year is within the filter bounds.
func (f Filter) AcceptsYear(year int) bool {
	if f.FromYear != 0 && year < f.FromYear {
		return false
	}

	if f.ToYear != 0 && year > f.ToYear {
		return false
	}

	return true
}
