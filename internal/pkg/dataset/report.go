package dataset

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Report allows to inspect the contents of a loaded dataset.
type Report struct {
	Source      string     `json:"source"`
	Shows       int        `json:"shows"`
	Dropped     int        `json:"dropped_rows"`
	Columns     []string   `json:"columns"`
	Genres      []Tally    `json:"genres"`
	Productions []Tally    `json:"productions"`
	Score       ScoreRange `json:"score"`
	FirstYear   int        `json:"first_release_year"`
	LastYear    int        `json:"last_release_year"`
}

// Tally counts the shows for one distinct value.
type Tally struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ScoreRange summarizes the score column.
type ScoreRange struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Report produces a [Report], which allows for closer inspection of the content of the loaded data.
func (d *Dataset) Report() Report {
	r := Report{
		Source:  d.source,
		Shows:   len(d.shows),
		Dropped: d.dropped,
		Columns: slices.Clone(d.headers),
	}

	if len(d.shows) == 0 {
		return r
	}

	genreCounts := make(map[string]int, len(d.genres))
	productionCounts := make(map[string]int, len(d.productions))
	scores := make([]float64, 0, len(d.shows))
	r.FirstYear = d.shows[0].ReleaseYear
	r.LastYear = d.shows[0].ReleaseYear

	for _, show := range d.shows {
		genreCounts[show.Genre]++
		productionCounts[show.Production]++
		scores = append(scores, show.Score)
		r.FirstYear = min(r.FirstYear, show.ReleaseYear)
		r.LastYear = max(r.LastYear, show.ReleaseYear)
	}

	r.Genres = tallies(d.genres, genreCounts)
	r.Productions = tallies(d.productions, productionCounts)

	mean, std := stat.MeanStdDev(scores, nil)
	if len(scores) < 2 { // the unbiased estimator is NaN for a single sample
		std = 0
	}
	r.Score = ScoreRange{
		Min:    floats.Min(scores),
		Max:    floats.Max(scores),
		Mean:   mean,
		StdDev: std,
	}

	return r
}

func tallies(values []string, counts map[string]int) []Tally {
	t := make([]Tally, 0, len(values))
	for _, v := range values {
		t = append(t, Tally{Value: v, Count: counts[v]})
	}

	return t
}
