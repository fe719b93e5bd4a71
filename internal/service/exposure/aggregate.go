package exposure

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultRounds is the number of sampling rounds per analysis.
const DefaultRounds = 5

// Statistics summarizes the per-round mean brightness.
type Statistics struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
}

// Validate rejects statistics outside the domain of the recommendation policy.
func (s Statistics) Validate() error {
	switch {
	case math.IsNaN(s.Mean) || math.IsNaN(s.StdDev):
		return fmt.Errorf("brightness statistics contain NaN")
	case s.Mean < 0 || s.Mean > 1:
		return fmt.Errorf("average brightness %.4f outside [0,1]", s.Mean)
	case s.StdDev < 0:
		return fmt.Errorf("brightness stddev %.4f is negative", s.StdDev)
	}
	return nil
}

// Aggregator repeats sampling and reduces the round means to statistics.
type Aggregator struct {
	Sampler Sampler
	Rounds  int
}

// NewAggregator creates an aggregator; rounds below one fall back to DefaultRounds.
func NewAggregator(sampler Sampler, rounds int) Aggregator {
	if rounds < 1 {
		rounds = DefaultRounds
	}
	return Aggregator{Sampler: sampler, Rounds: rounds}
}

// Aggregate samples img Rounds times. The returned map is the one from the
// final round; it is not averaged across rounds.
func (a Aggregator) Aggregate(img image.Image) (Statistics, BrightnessMap, error) {
	if err := checkImage(img); err != nil {
		return Statistics{}, BrightnessMap{}, err
	}
	rounds := a.Rounds
	if rounds < 1 {
		rounds = DefaultRounds
	}

	src := toNRGBA(img)
	means := make([]float64, 0, rounds)
	var last BrightnessMap
	for i := 0; i < rounds; i++ {
		last = a.Sampler.sample(src)
		means = append(means, last.Mean())
	}

	mean, std := stat.PopMeanStdDev(means, nil)
	return Statistics{
		Mean:   mean,
		StdDev: std,
		Median: median(means),
	}, last, nil
}

// median averages the two middle values when len(x) is even.
func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
