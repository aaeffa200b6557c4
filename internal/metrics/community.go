package metrics

import "github.com/san-kum/pollinet/internal/dynamo"

// Guild summarises one side of the network (plants or insects).
type Guild struct {
	Surviving int     `json:"surviving"`
	Biomass   float64 `json:"biomass"`
	Diversity float64 `json:"diversity"`
}

// Snapshot holds the community metrics of one equilibrium.
type Snapshot struct {
	Plants             Guild   `json:"plants"`
	Insects            Guild   `json:"insects"`
	Robustness         float64 `json:"robustness"`
	PollinationService float64 `json:"pollination_service"`
}

// Totals returns each species' abundance summed over patches.
func Totals(m *dynamo.Matrix) []float64 {
	out := make([]float64, m.Rows())
	for i := range out {
		out[i] = m.RowSum(i)
	}
	return out
}

// Survivors counts species whose total exceeds viability and sums their totals.
func Survivors(totals []float64, viability float64) (int, float64) {
	n, biomass := 0, 0.0
	for _, t := range totals {
		if t > viability {
			n++
			biomass += t
		}
	}
	return n, biomass
}

// Simpson returns 1 − Σ share² over species above viability, where share is a
// species' fraction of the surviving biomass. It is 0 for a guild with no
// biomass.
func Simpson(totals []float64, viability float64) float64 {
	_, biomass := Survivors(totals, viability)
	if biomass <= 0 {
		return 0
	}
	sum2 := 0.0
	for _, t := range totals {
		if t > viability {
			share := t / biomass
			sum2 += share * share
		}
	}
	return 1 - sum2
}

func guild(totals []float64, viability float64) Guild {
	n, biomass := Survivors(totals, viability)
	return Guild{Surviving: n, Biomass: biomass, Diversity: Simpson(totals, viability)}
}

// Community computes survivors, biomass and diversity of both guilds. The
// pollination service is the surviving insect biomass.
func Community(x dynamo.State, viability float64) Snapshot {
	s := Snapshot{
		Plants:  guild(Totals(x.P), viability),
		Insects: guild(Totals(x.V), viability),
	}
	if pool := x.Plants() + x.Insects(); pool > 0 {
		s.Robustness = float64(s.Plants.Surviving+s.Insects.Surviving) / float64(pool)
	}
	s.PollinationService = s.Insects.Biomass
	return s
}
