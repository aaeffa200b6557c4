package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pollinet/internal/automation"
	"github.com/san-kum/pollinet/internal/config"
	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/san-kum/pollinet/internal/metrics"
	"github.com/san-kum/pollinet/internal/models"
	"github.com/san-kum/pollinet/internal/network"
	"github.com/san-kum/pollinet/internal/sim"
	"github.com/san-kum/pollinet/internal/storage"
	"github.com/san-kum/pollinet/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	ledgerPath string
	logLevel   string
	logFile    string

	dt         float64
	dispersal  float64
	integrator string
	workers    int
	clamp      bool
	order      string
	seed       int64
	live       bool
	values     string
	plotWidth  int
	plotHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "pollinet",
		Short:        "plant-pollinator metapopulation simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pollinet", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "sqlite run ledger to record runs in")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	runCmd := &cobra.Command{
		Use:   "run [interactions]",
		Short: "integrate a network to its stationary state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEquilibrium,
	}
	addModelFlags(runCmd)

	extinctCmd := &cobra.Command{
		Use:   "extinct [interactions]",
		Short: "run the plant extinction experiment",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExtinction,
	}
	addModelFlags(extinctCmd)
	extinctCmd.Flags().StringVar(&order, "order", config.DefaultOrder, "knockout order (ranked, random)")
	extinctCmd.Flags().Int64Var(&seed, "seed", 0, "random order seed")
	extinctCmd.Flags().BoolVar(&live, "live", false, "follow the experiment in a live view")

	sweepCmd := &cobra.Command{
		Use:   "sweep [interactions]",
		Short: "robustness area as a function of dispersal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&order, "order", config.DefaultOrder, "knockout order (ranked, random)")
	sweepCmd.Flags().Int64Var(&seed, "seed", 0, "random order seed")
	sweepCmd.Flags().StringVar(&values, "values", "", "comma separated dispersal values")

	degreesCmd := &cobra.Command{
		Use:   "degrees [interactions]",
		Short: "species degree against stationary abundance",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDegrees,
	}
	addModelFlags(degreesCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "list runs recorded in the ledger",
		RunE:  showHistory,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario]",
		Short: "run the experiments listed in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, extinctCmd, sweepCmd, degreesCmd, listCmd, plotCmd, exportJSONCmd, historyCmd, batchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&dispersal, "dispersal", dynamo.DefaultParams().Dispersal, "insect dispersal rate between patches")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (rk4, euler)")
	cmd.Flags().IntVar(&workers, "workers", 1, "goroutines evaluating the model")
	cmd.Flags().BoolVar(&clamp, "clamp", false, "clamp negative abundances to zero after each step")
}

// resolveConfig applies, in order: defaults, preset, config file, and the
// flags the user actually set.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.SteadyState.Dt = dt
	}
	if flags.Changed("dispersal") {
		cfg.Model.Dispersal = dispersal
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("clamp") {
		cfg.SteadyState.ClampNegative = clamp
	}
	if flags.Changed("order") {
		cfg.Experiment.Order = order
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("values") {
		vals, err := parseValues(values)
		if err != nil {
			return nil, err
		}
		cfg.Sweep.Dispersal = vals
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseValues(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid dispersal value %q: %w", p, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no dispersal values given")
	}
	return out, nil
}

// session is everything a simulation command needs after flag handling.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	net      *network.Network
	source   string
	registry *experiment.Registry
	setup    experiment.Setup
	x0       dynamo.State
	cleanup  func() error
}

func openSession(cmd *cobra.Command, args []string) (*session, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, cleanup := config.SetupLogger(cfg.Log.File, level)
	slog.SetDefault(logger)

	source := cfg.Interactions
	if len(args) > 0 {
		source = args[0]
	}
	if source == "" {
		cleanup()
		return nil, fmt.Errorf("no interaction file given")
	}

	net, err := network.Load(source)
	if err != nil {
		cleanup()
		return nil, err
	}
	logger.Info("network loaded", "file", source, "plants", len(net.Plants), "insects", len(net.Insects),
		"patches", net.Patches(), "skipped", net.Skipped)

	setup := cfg.Setup(net.Gamma)
	setup.Logger = logger

	return &session{
		cfg:      cfg,
		logger:   logger,
		net:      net,
		source:   source,
		registry: experiment.NewRegistry(),
		setup:    setup,
		x0:       models.InitialState(net.Gamma, cfg.InitState.Plant, cfg.InitState.Insect),
		cleanup:  cleanup,
	}, nil
}

func (s *session) metadata(kind string) storage.RunMetadata {
	return storage.RunMetadata{
		Kind:       kind,
		Network:    s.source,
		Seed:       s.cfg.Seed,
		Dt:         s.cfg.SteadyState.Dt,
		Integrator: s.cfg.Integrator,
		Params:     s.cfg.Model,
		Plants:     len(s.net.Plants),
		Insects:    len(s.net.Insects),
		Patches:    s.net.Patches(),
	}
}

// equilibrate integrates x0 to its stationary state, writing the trajectory
// into the run directory.
func (s *session) equilibrate(ctx context.Context, det *sim.Detector, run *storage.Run) (dynamo.State, sim.Result, error) {
	x := s.x0.Clone()

	traj, closeTraj, err := run.Trajectory()
	if err != nil {
		return x, sim.Result{}, err
	}
	overshoot := metrics.NewOvershoot()
	plantFile := traj.Plants
	traj.Plants = sim.SinkFunc(func(t float64, v []float64) error {
		overshoot.Append(t, v)
		return plantFile.Append(t, v)
	})

	res, err := det.Run(ctx, x, 0, traj)
	if cerr := closeTraj(); err == nil {
		err = cerr
	}
	if overshoot.Violations() > 0 {
		s.logger.Warn("negative plant abundance during integration", "records", overshoot.Violations(), "minimum", overshoot.Minimum())
	}
	return x, res, err
}

func communityMetrics(x dynamo.State, viability float64) map[string]float64 {
	snap := metrics.Community(x, viability)
	return map[string]float64{
		"robustness":          snap.Robustness,
		"surviving_plants":    float64(snap.Plants.Surviving),
		"surviving_insects":   float64(snap.Insects.Surviving),
		"pollination_service": snap.PollinationService,
		"plant_biomass":       snap.Plants.Biomass,
		"plant_diversity":     snap.Plants.Diversity,
		"insect_diversity":    snap.Insects.Diversity,
	}
}

func record(ctx context.Context, meta storage.RunMetadata, rows []experiment.Row) error {
	if ledgerPath == "" {
		return nil
	}
	ledger, err := storage.OpenLedger(ledgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()
	return ledger.Record(ctx, meta, rows)
}

func runEquilibrium(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	det, _, err := s.registry.Detector(s.setup)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	run, err := st.Create(s.metadata(storage.KindEquilibrium))
	if err != nil {
		return err
	}

	start := time.Now()
	x, res, err := s.equilibrate(ctx, det, run)
	if err != nil {
		return err
	}

	run.Meta.Baseline = &res
	run.Meta.Metrics = communityMetrics(x, s.cfg.Model.Viability)
	if err := run.Finish(); err != nil {
		return err
	}
	if err := record(ctx, run.Meta, nil); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", run.Meta.ID)
	fmt.Printf("status: %s after %d iterations (t = %.2f)\n", res.Status, res.Iterations, res.Time)
	fmt.Println("\nmetrics:")
	for _, name := range []string{"surviving_plants", "surviving_insects", "pollination_service", "plant_diversity", "insect_diversity"} {
		fmt.Printf("  %s: %.6f\n", name, run.Meta.Metrics[name])
	}
	return nil
}

func runExtinction(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	expCfg, err := s.cfg.ExperimentSettings()
	if err != nil {
		return err
	}
	det, _, err := s.registry.Detector(s.setup)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := s.metadata(storage.KindExtinction)
	meta.Order = expCfg.Order.String()
	run, err := st.Create(meta)
	if err != nil {
		return err
	}

	eq, base, err := s.equilibrate(ctx, det, run)
	if err != nil {
		return err
	}
	run.Meta.Baseline = &base

	exp := experiment.New(det, expCfg, s.logger)

	var res *experiment.Result
	if live {
		res, err = runLiveExtinction(ctx, exp, eq, s)
	} else {
		res, err = exp.Run(ctx, eq)
	}
	if err != nil {
		return err
	}

	if err := run.SaveResults(res.Rows); err != nil {
		return err
	}
	run.Meta.Area = res.Area
	run.Meta.Metrics = communityMetrics(eq, s.cfg.Model.Viability)
	if err := run.Finish(); err != nil {
		return err
	}
	if err := record(ctx, run.Meta, res.Rows); err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", run.Meta.ID)
	fmt.Printf("removed %d plants (%s), robustness area R = %.6f\n", len(res.Knockouts), res.Order, res.Area)
	if n := res.Unsettled(); n > 0 {
		fmt.Printf("warning: %d knockouts did not reach a stationary state\n", n)
	}
	return nil
}

// runLiveExtinction runs the experiment in the background while a Bubble
// Tea program shows its rows. Quitting the view cancels the experiment.
func runLiveExtinction(ctx context.Context, exp *experiment.Experiment, eq dynamo.State, s *session) (*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewExtinctionModel(s.source, eq.Plants(), exp.Config().Order), tea.WithAltScreen())
	exp.OnRow(func(r experiment.Row) { p.Send(viz.RowMsg{Row: r}) })

	type outcome struct {
		res *experiment.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := exp.Run(ctx, eq)
		p.Send(viz.DoneMsg{Result: res, Err: err})
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	cancel()
	out := <-done
	return out.res, out.err
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	expCfg, err := s.cfg.ExperimentSettings()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := s.metadata(storage.KindSweep)
	meta.Order = expCfg.Order.String()
	run, err := st.Create(meta)
	if err != nil {
		return err
	}

	sw := &experiment.Sweep{
		Setup:   s.setup,
		Config:  expCfg,
		Values:  s.cfg.Sweep.Dispersal,
		Workers: s.cfg.Sweep.Workers,
	}

	start := time.Now()
	points, err := sw.Run(ctx, s.registry, s.x0)
	if err != nil {
		return err
	}

	if err := run.SaveSweep(points); err != nil {
		return err
	}
	run.Meta.Metrics = make(map[string]float64, len(points))
	ds, areas := make([]float64, len(points)), make([]float64, len(points))
	for i, p := range points {
		ds[i], areas[i] = p.Dispersal, p.Area
		run.Meta.Metrics[fmt.Sprintf("area_D%g", p.Dispersal)] = p.Area
	}
	if err := run.Finish(); err != nil {
		return err
	}

	for _, p := range points {
		meta := run.Meta
		meta.ID = fmt.Sprintf("%s-D%g", run.Meta.ID, p.Dispersal)
		meta.Params = meta.Params.WithDispersal(p.Dispersal)
		meta.Area = p.Area
		meta.Baseline = &p.Baseline
		if err := record(ctx, meta, p.Result.Rows); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n\n", run.Meta.ID)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "D\tR\tBASELINE")
	for _, p := range points {
		fmt.Fprintf(w, "%g\t%.6f\t%s\n", p.Dispersal, p.Area, p.Baseline.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.RenderSweep(ds, areas, 60, 10))
	return nil
}

func runDegrees(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	det, _, err := s.registry.Detector(s.setup)
	if err != nil {
		return err
	}
	x := s.x0.Clone()
	if _, err := det.Run(ctx, x, 0, sim.Trajectory{}); err != nil {
		return err
	}

	plantDeg, insectDeg := metrics.Degrees(s.net.Gamma)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GUILD\tRANK\tSPECIES\tDEGREE\tABUNDANCE")
	guilds := []struct {
		name    string
		names   []string
		degrees []int
		totals  []float64
	}{
		{"plant", s.net.Plants, plantDeg, metrics.Totals(x.P)},
		{"insect", s.net.Insects, insectDeg, metrics.Totals(x.V)},
	}
	for _, g := range guilds {
		for rank, r := range metrics.RankAbundance(g.totals) {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.6f\n", g.name, rank+1, g.names[r.Index], g.degrees[r.Index], r.Total)
		}
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tNETWORK\tD\tDT\tINTEG\tR")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%.4f\t%s\t%.4f\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Network,
			run.Params.Dispersal,
			run.Dt,
			run.Integrator,
			run.Area,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s (%s)", meta.ID, meta.Kind)))
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("%s · D = %g · %s", meta.Network, meta.Params.Dispersal, meta.Integrator)))
	fmt.Println(viz.Separator(plotWidth))
	fmt.Println()

	switch meta.Kind {
	case storage.KindExtinction:
		rows, err := st.LoadResults(runID)
		if err != nil {
			return err
		}
		fmt.Println(viz.RenderCurves(rows, plotWidth, plotHeight))
	case storage.KindSweep:
		points, err := st.LoadSweep(runID)
		if err != nil {
			return err
		}
		ds, areas := make([]float64, len(points)), make([]float64, len(points))
		for i, p := range points {
			ds[i], areas[i] = p.Dispersal, p.Area
		}
		fmt.Println(viz.RenderSweep(ds, areas, plotWidth, plotHeight))
	default:
		plants, insects, err := st.LoadTrajectory(runID)
		if err != nil {
			return err
		}
		fmt.Println(viz.RenderTotals(plants, "total plant abundance", plotWidth, plotHeight))
		fmt.Println(viz.Separator(plotWidth))
		fmt.Println(viz.RenderTotals(insects, "total insect abundance", plotWidth, plotHeight))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var rows []experiment.Row
	if meta.Kind == storage.KindExtinction {
		if rows, err = st.LoadResults(runID); err != nil {
			return err
		}
	}
	return storage.ExportJSON(os.Stdout, *meta, rows)
}

func showHistory(cmd *cobra.Command, args []string) error {
	if ledgerPath == "" {
		return fmt.Errorf("history needs --ledger")
	}
	ledger, err := storage.OpenLedger(ledgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	entries, err := ledger.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tNETWORK\tORDER\tSEED\tD\tR\tROWS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%g\t%.6f\t%d\n",
			e.ID, e.Kind, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Network,
			e.Order, e.Seed, e.Dispersal, e.Area, e.Rows)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	level, err := config.ParseLevel(base.Log.Level)
	if err != nil {
		return err
	}
	logger, cleanup := config.SetupLogger(base.Log.File, level)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	save := func(sr automation.StepResult) {
		for _, res := range sr.Results {
			run, err := st.Create(storage.RunMetadata{
				Kind:       storage.KindExtinction,
				Network:    sr.Config.Interactions,
				Seed:       res.Seed,
				Order:      res.Order.String(),
				Dt:         sr.Config.SteadyState.Dt,
				Integrator: sr.Config.Integrator,
				Params:     sr.Config.Model,
				Plants:     len(sr.Network.Plants),
				Insects:    len(sr.Network.Insects),
				Patches:    sr.Network.Patches(),
				Baseline:   &sr.Baseline,
				Area:       res.Area,
			})
			if err == nil {
				err = run.SaveResults(res.Rows)
			}
			if err == nil {
				err = run.Finish()
			}
			if err == nil {
				err = record(ctx, run.Meta, res.Rows)
			}
			if err != nil {
				logger.Error("failed to save replicate", "step", sr.Step.Name, "seed", res.Seed, "error", err)
			}
		}
		fmt.Printf("  %s: R = %.6f (n=%d)\n", sr.Step.Name, sr.Stats.MeanArea, sr.Stats.N)
	}

	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), base, logger, save)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNETWORK\tORDER\tD\tN\tMEAN R\tSTD\tMIN\tMAX\tUNSETTLED")
	for _, sr := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%.6f\t%.6f\t%.6f\t%.6f\t%d\n",
			sr.Step.Name, sr.Config.Interactions, sr.Config.Experiment.Order, sr.Config.Model.Dispersal,
			sr.Stats.N, sr.Stats.MeanArea, sr.Stats.StdArea, sr.Stats.MinArea, sr.Stats.MaxArea, sr.Stats.Unsettled)
	}
	return w.Flush()
}
