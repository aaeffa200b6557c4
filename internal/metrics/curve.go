package metrics

import (
	"sort"

	"github.com/san-kum/pollinet/internal/dynamo"
)

// Area integrates a robustness curve sampled at k = 0..n removals over the
// fraction of plants removed (k/n) with the trapezoidal rule. A curve with
// fewer than two points has no area.
func Area(robustness []float64) float64 {
	n := len(robustness) - 1
	if n < 1 {
		return 0
	}
	area := 0.0
	for k := 1; k <= n; k++ {
		area += 0.5 * (robustness[k-1] + robustness[k])
	}
	return area / float64(n)
}

// Degrees counts for every species the distinct partners it interacts with
// (positive weight) in any patch.
func Degrees(gamma *dynamo.Tensor) (plants, insects []int) {
	plants = make([]int, gamma.Plants())
	insects = make([]int, gamma.Insects())
	for i := 0; i < gamma.Plants(); i++ {
		for j := 0; j < gamma.Insects(); j++ {
			for s := 0; s < gamma.Patches(); s++ {
				if gamma.At(s, i, j) > 0 {
					plants[i]++
					insects[j]++
					break
				}
			}
		}
	}
	return plants, insects
}

// Ranked is one entry of a rank-abundance list.
type Ranked struct {
	Index int
	Total float64
}

// RankAbundance orders species from most to least abundant, ties by index.
func RankAbundance(totals []float64) []Ranked {
	out := make([]Ranked, len(totals))
	for i, t := range totals {
		out[i] = Ranked{Index: i, Total: t}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Total > out[b].Total })
	return out
}
