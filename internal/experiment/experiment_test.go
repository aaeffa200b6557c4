package experiment_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/san-kum/pollinet/internal/metrics"
	"github.com/san-kum/pollinet/internal/models"
	"github.com/san-kum/pollinet/internal/sim"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// star is three plants sharing one insect at a single patch.
func star() *dynamo.Tensor {
	g, err := dynamo.NewTensor(1, 3, 1)
	Expect(err).NotTo(HaveOccurred())
	for i := 0; i < 3; i++ {
		Expect(g.Set(0, i, 0, 1)).To(Succeed())
	}
	return g
}

func starState() dynamo.State {
	x, err := dynamo.NewState(3, 1, 1)
	Expect(err).NotTo(HaveOccurred())
	copy(x.P.Data(), []float64{50, 10, 30})
	x.V.Set(0, 0, 200)
	return x
}

func detectorFor(g *dynamo.Tensor, params dynamo.Params) *sim.Detector {
	det, _, err := experiment.NewRegistry().Detector(experiment.Setup{
		Gamma:  g,
		Params: params,
		Sim:    sim.DefaultConfig(),
		Logger: quiet,
	})
	Expect(err).NotTo(HaveOccurred())
	return det
}

var _ = Describe("KnockoutOrder", func() {
	It("ranks plants from least to most abundant", func() {
		Expect(experiment.KnockoutOrder(starState(), experiment.Ranked, nil)).To(Equal([]int{1, 2, 0}))
	})

	It("breaks ties by plant index", func() {
		x := starState()
		copy(x.P.Data(), []float64{5, 5, 1})
		Expect(experiment.KnockoutOrder(x, experiment.Ranked, nil)).To(Equal([]int{2, 0, 1}))
	})

	It("sums abundance over patches before ranking", func() {
		x, _ := dynamo.NewState(2, 0, 2)
		copy(x.P.Row(0), []float64{4, 4})
		copy(x.P.Row(1), []float64{7, 0})
		Expect(experiment.KnockoutOrder(x, experiment.Ranked, nil)).To(Equal([]int{1, 0}))
	})

	It("draws a reproducible permutation for the random order", func() {
		a := experiment.KnockoutOrder(starState(), experiment.Random, rand.New(rand.NewSource(42)))
		b := experiment.KnockoutOrder(starState(), experiment.Random, rand.New(rand.NewSource(42)))
		Expect(a).To(Equal(b))

		sorted := append([]int(nil), a...)
		sort.Ints(sorted)
		Expect(sorted).To(Equal([]int{0, 1, 2}))
	})
})

var _ = Describe("ParseOrder", func() {
	DescribeTable("names",
		func(in string, want experiment.Order, ok bool) {
			got, err := experiment.ParseOrder(in)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("ranked", "ranked", experiment.Ranked, true),
		Entry("empty defaults to ranked", "", experiment.Ranked, true),
		Entry("random", "random", experiment.Random, true),
		Entry("unknown", "alphabetical", experiment.Ranked, false),
	)

	It("round-trips through text", func() {
		var o experiment.Order
		Expect(o.UnmarshalText([]byte("random"))).To(Succeed())
		b, err := o.MarshalText()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal("random"))
	})
})

var _ = Describe("Experiment", func() {
	var (
		ctx context.Context
		g   *dynamo.Tensor
		eq  dynamo.State
		exp *experiment.Experiment
	)

	BeforeEach(func() {
		ctx = context.Background()
		g = star()
		eq = starState()
		exp = experiment.New(detectorFor(g, dynamo.DefaultParams()), experiment.Config{
			Order:     experiment.Ranked,
			Viability: 1e-5,
		}, quiet)
	})

	It("records a row for every knockout count", func() {
		res, err := exp.Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Rows).To(HaveLen(4))
		for k, row := range res.Rows {
			Expect(row.Removed).To(Equal(k))
		}
		Expect(res.Knockouts).To(Equal([]int{1, 2, 0}))
	})

	It("reports the unperturbed community first", func() {
		res, err := exp.Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())

		snap := metrics.Community(eq, 1e-5)
		first := res.Rows[0]
		Expect(first.Species).To(Equal(-1))
		Expect(first.Settle).To(BeNil())
		Expect(first.Robustness).To(Equal(snap.Robustness))
		Expect(first.SurvivingPlants).To(Equal(snap.Plants.Surviving))
		Expect(first.SurvivingInsects).To(Equal(snap.Insects.Surviving))
		Expect(first.PollinationService).To(Equal(snap.PollinationService))
		Expect(first.PlantDiversity).To(Equal(snap.Plants.Diversity))
	})

	It("removes the least abundant plant first", func() {
		res, err := exp.Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Rows[1].Species).To(Equal(1))
		Expect(res.Rows[1].SurvivingPlants).To(Equal(2))
		Expect(res.Rows[1].Settle).NotTo(BeNil())
		Expect(res.Rows[1].Settle.Converged()).To(BeTrue())
	})

	It("keeps removed plants extinct", func() {
		res, err := exp.Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())
		for k, row := range res.Rows {
			Expect(row.SurvivingPlants).To(BeNumerically("<=", 3-k))
		}
		Expect(res.Rows[3].SurvivingPlants).To(Equal(0))
		// without any plant the insect starves
		Expect(res.Rows[3].SurvivingInsects).To(Equal(0))
		Expect(res.Rows[3].Robustness).To(Equal(0.0))
	})

	It("keeps robustness within [0,1] and integrates it", func() {
		res, err := exp.Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())
		for _, r := range res.Robustness() {
			Expect(r).To(BeNumerically(">=", 0))
			Expect(r).To(BeNumerically("<=", 1))
		}
		Expect(res.Area).To(BeNumerically("~", metrics.Area(res.Robustness()), 1e-15))
		Expect(res.Unsettled()).To(Equal(0))
	})

	It("does not modify the equilibrium it is given", func() {
		before := eq.Clone()
		_, err := exp.Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())
		Expect(eq.Vec()).To(Equal(before.Vec()))
	})

	It("notifies the row observer in order", func() {
		var seen []int
		exp.OnRow(func(r experiment.Row) { seen = append(seen, r.Removed) })
		_, err := exp.Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal([]int{0, 1, 2, 3}))
	})

	It("repeats a random run exactly for the same seed", func() {
		cfg := experiment.Config{Order: experiment.Random, Seed: 7, Viability: 1e-5}
		det := detectorFor(g, dynamo.DefaultParams())

		a, err := experiment.New(det, cfg, quiet).Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())
		b, err := experiment.New(det, cfg, quiet).Run(ctx, eq)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Knockouts).To(Equal(b.Knockouts))
		Expect(a.Rows).To(Equal(b.Rows))
		Expect(a.Seed).To(Equal(int64(7)))
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := exp.Run(cctx, eq)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("rejects an equilibrium with fewer plants than the network", func() {
		x, _ := dynamo.NewState(2, 1, 1)
		x.P.Set(0, 0, 40)
		x.V.Set(0, 0, 200)
		res, err := exp.Run(ctx, x)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		Expect(res).To(BeNil())
	})

	It("rejects an equilibrium larger than the network without panicking", func() {
		x, _ := dynamo.NewState(4, 2, 1)
		var err error
		Expect(func() { _, err = exp.Run(ctx, x) }).NotTo(Panic())
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("rejects a negative viability threshold", func() {
		bad := experiment.New(detectorFor(g, dynamo.DefaultParams()), experiment.Config{Viability: -1}, quiet)
		_, err := bad.Run(ctx, eq)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		Expect(err.Error()).To(ContainSubstring("viability"))
	})

	It("handles a network without plants", func() {
		empty, _ := dynamo.NewTensor(1, 0, 1)
		x, _ := dynamo.NewState(0, 1, 1)
		x.V.Set(0, 0, 3)
		res, err := experiment.New(detectorFor(empty, dynamo.DefaultParams()), experiment.Config{Viability: 1e-5}, quiet).Run(ctx, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Rows).To(HaveLen(1))
		Expect(res.Area).To(Equal(0.0))
	})
})

var _ = Describe("Sweep", func() {
	It("runs every dispersal value and keeps their order", func() {
		g, _ := dynamo.NewTensor(2, 2, 2)
		Expect(g.Set(0, 0, 0, 1)).To(Succeed())
		Expect(g.Set(0, 1, 1, 0.5)).To(Succeed())
		Expect(g.Set(1, 1, 0, 0.8)).To(Succeed())

		sw := &experiment.Sweep{
			Setup: experiment.Setup{
				Gamma:  g,
				Params: dynamo.DefaultParams(),
				Sim:    sim.DefaultConfig(),
				Logger: quiet,
			},
			Config:  experiment.Config{Order: experiment.Ranked, Viability: 1e-5},
			Values:  []float64{0, 2.5, 10},
			Workers: 2,
		}

		x0 := models.InitialState(g, models.DefaultPlantAbundance, models.DefaultInsectAbundance)
		points, err := sw.Run(context.Background(), experiment.NewRegistry(), x0)
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(3))

		for i, p := range points {
			Expect(p.Dispersal).To(Equal(sw.Values[i]))
			Expect(p.Result).NotTo(BeNil())
			Expect(p.Area).To(Equal(p.Result.Area))
			Expect(p.Area).To(BeNumerically(">=", 0))
			Expect(p.Area).To(BeNumerically("<=", 1))
			Expect(p.Result.Rows).To(HaveLen(3))
		}
		Expect(x0.P.At(0, 0)).To(Equal(models.DefaultPlantAbundance))
	})

	It("reports invalid parameters before integrating", func() {
		g, _ := dynamo.NewTensor(1, 1, 1)
		params := dynamo.DefaultParams()
		params.InsectCapacity = 0

		sw := &experiment.Sweep{
			Setup:  experiment.Setup{Gamma: g, Params: params, Sim: sim.DefaultConfig(), Logger: quiet},
			Values: []float64{1},
		}
		x0, _ := dynamo.NewState(1, 1, 1)
		_, err := sw.Run(context.Background(), experiment.NewRegistry(), x0)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})
})

var _ = Describe("Sweep failures", func() {
	var g *dynamo.Tensor

	BeforeEach(func() {
		g, _ = dynamo.NewTensor(1, 1, 1)
		Expect(g.Set(0, 0, 0, 1)).To(Succeed())
	})

	sweepOver := func(values ...float64) *experiment.Sweep {
		return &experiment.Sweep{
			Setup:   experiment.Setup{Gamma: g, Params: dynamo.DefaultParams(), Sim: sim.DefaultConfig(), Logger: quiet},
			Config:  experiment.Config{Order: experiment.Ranked, Viability: 1e-5},
			Values:  values,
			Workers: 2,
		}
	}

	It("rejects an initial state that does not fit the network", func() {
		x0, _ := dynamo.NewState(2, 1, 1)
		_, err := sweepOver(0, 2.5).Run(context.Background(), experiment.NewRegistry(), x0)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("reports the failing dispersal value rather than the cancelled ones", func() {
		x0 := models.InitialState(g, models.DefaultPlantAbundance, models.DefaultInsectAbundance)
		points, err := sweepOver(-1, 2.5).Run(context.Background(), experiment.NewRegistry(), x0)
		Expect(points).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		Expect(err.Error()).To(ContainSubstring("dispersal -1"))
	})
})

var _ = Describe("Registry", func() {
	It("lists its integrators", func() {
		Expect(experiment.NewRegistry().ListIntegrators()).To(Equal([]string{"euler", "rk4"}))
	})

	It("rejects an unknown integrator", func() {
		_, err := experiment.NewRegistry().GetIntegrator("leapfrog")
		Expect(err).To(HaveOccurred())
	})

	It("defaults to rk4 and applies the worker count", func() {
		g, _ := dynamo.NewTensor(1, 1, 1)
		_, model, err := experiment.NewRegistry().Detector(experiment.Setup{
			Gamma: g, Params: dynamo.DefaultParams(), Sim: sim.DefaultConfig(), Workers: 3,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Workers).To(Equal(3))
	})
})
