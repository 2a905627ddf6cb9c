// Package main provides the CLI entrypoint for calcviz.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/calcviz/internal/anim"
	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/config"
	"github.com/verte-zerg/calcviz/internal/explorer"
	"github.com/verte-zerg/calcviz/internal/model"
	"github.com/verte-zerg/calcviz/internal/store"
	"github.com/verte-zerg/calcviz/internal/termplot"
)

const (
	defaultXMin       = -10.0
	defaultXMax       = 10.0
	defaultAnimTarget = "phase"
	defaultIntervalMs = 50
)

// chartFlags holds the chart settings shared by every command that draws.
type chartFlags struct {
	function     string
	xMin         float64
	xMax         float64
	steps        int
	subdivisions int
	amplitude    float64
	frequency    float64
	phase        float64
	show         []string
	preset       string
}

type renderFlags struct {
	width     float64
	height    float64
	exportDir string
}

type animationFlags struct {
	target     string
	step       float64
	intervalMs int
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var chartOpts chartFlags
	var renderOpts renderFlags
	var animOpts animationFlags
	rootCmd := &cobra.Command{
		Use:           "calcviz",
		Short:         "Calculus visualizer: functions, derivatives and integrals",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplorerCmd(cmd, &chartOpts, &renderOpts, &animOpts)
		},
	}
	chartOpts.register(rootCmd)
	renderOpts.register(rootCmd)
	rootCmd.Flags().StringVar(&animOpts.target, "animate", defaultAnimTarget, "animated parameter (amplitude, frequency, phase)")
	rootCmd.Flags().Float64Var(&animOpts.step, "anim-step", anim.DefaultStep, "parameter increment per frame")
	rootCmd.Flags().IntVar(&animOpts.intervalMs, "anim-interval", defaultIntervalMs, "milliseconds between frames")

	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newPlotCmd())
	rootCmd.AddCommand(newFunctionsCmd())
	rootCmd.AddCommand(newPresetCmd())
	rootCmd.AddCommand(newExportsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.function, "function", calculus.DefaultFunction, "sample function (see: calcviz functions)")
	cmd.Flags().Float64Var(&f.xMin, "x-min", defaultXMin, "domain start")
	cmd.Flags().Float64Var(&f.xMax, "x-max", defaultXMax, "domain end")
	cmd.Flags().IntVar(&f.steps, "steps", calculus.DefaultSteps, "sample intervals across the domain")
	cmd.Flags().IntVar(&f.subdivisions, "subdivisions", calculus.DefaultIntegralSubdivisions, "trapezoids per integral sample")
	cmd.Flags().Float64Var(&f.amplitude, "amplitude", 1, "amplitude A in A*f(F*x + P)")
	cmd.Flags().Float64Var(&f.frequency, "frequency", 1, "frequency F in A*f(F*x + P)")
	cmd.Flags().Float64Var(&f.phase, "phase", 0, "phase P in A*f(F*x + P)")
	cmd.Flags().StringSliceVar(&f.show, "show", defaultShow(), "visible elements ("+strings.Join(chart.FlagNames(), ", ")+")")
	cmd.Flags().StringVar(&f.preset, "preset", "", "load a saved preset; explicit flags still win")
}

func (f *renderFlags) register(cmd *cobra.Command) {
	layout := chart.DefaultLayout()
	cmd.Flags().Float64Var(&f.width, "width", layout.Width, "SVG width in points")
	cmd.Flags().Float64Var(&f.height, "height", layout.Height, "SVG height in points")
	cmd.Flags().StringVar(&f.exportDir, "export-dir", config.DefaultExportDir(), "directory for explorer exports")
}

// resolve merges defaults, the config file, an optional preset and
// explicit flags, in increasing precedence.
func (f *chartFlags) resolve(cmd *cobra.Command, fileCfg config.ChartConfig, st *store.Store) (model.ChartConfig, error) {
	applyStringConfig(cmd, "function", &f.function, fileCfg.Function)
	applyFloatConfig(cmd, "x-min", &f.xMin, fileCfg.XMin)
	applyFloatConfig(cmd, "x-max", &f.xMax, fileCfg.XMax)
	applyIntConfig(cmd, "steps", &f.steps, fileCfg.Steps)
	applyIntConfig(cmd, "subdivisions", &f.subdivisions, fileCfg.Subdivisions)
	applyFloatConfig(cmd, "amplitude", &f.amplitude, fileCfg.Amplitude)
	applyFloatConfig(cmd, "frequency", &f.frequency, fileCfg.Frequency)
	applyFloatConfig(cmd, "phase", &f.phase, fileCfg.Phase)
	applyStringSliceConfig(cmd, "show", &f.show, fileCfg.Show)

	flags, err := parseShow(f.show)
	if err != nil {
		return model.ChartConfig{}, err
	}

	if name := strings.TrimSpace(f.preset); name != "" {
		if st == nil {
			return model.ChartConfig{}, fmt.Errorf("--preset needs the database")
		}
		p, err := st.GetPreset(context.Background(), name)
		if err != nil {
			return model.ChartConfig{}, err
		}
		pc := p.Config
		applyStringConfig(cmd, "function", &f.function, &pc.Function)
		applyFloatConfig(cmd, "x-min", &f.xMin, &pc.Domain.XMin)
		applyFloatConfig(cmd, "x-max", &f.xMax, &pc.Domain.XMax)
		applyIntConfig(cmd, "steps", &f.steps, &pc.Steps)
		applyIntConfig(cmd, "subdivisions", &f.subdivisions, &pc.Subdivisions)
		applyFloatConfig(cmd, "amplitude", &f.amplitude, &pc.Params.Amplitude)
		applyFloatConfig(cmd, "frequency", &f.frequency, &pc.Params.Frequency)
		applyFloatConfig(cmd, "phase", &f.phase, &pc.Params.Phase)
		if !cmd.Flags().Changed("show") {
			flags = chart.Flag(pc.Flags)
		}
	}

	return model.ChartConfig{
		Function:     strings.ToLower(strings.TrimSpace(f.function)),
		Domain:       model.Domain{XMin: f.xMin, XMax: f.xMax},
		Params:       model.Params{Amplitude: f.amplitude, Frequency: f.frequency, Phase: f.phase},
		Steps:        f.steps,
		Subdivisions: f.subdivisions,
		Flags:        uint32(flags),
	}, nil
}

func (f *renderFlags) resolve(cmd *cobra.Command, fileCfg config.RenderConfig) (chart.Layout, error) {
	applyFloatConfig(cmd, "width", &f.width, fileCfg.Width)
	applyFloatConfig(cmd, "height", &f.height, fileCfg.Height)
	if cmd.Flags().Lookup("export-dir") != nil {
		applyStringConfig(cmd, "export-dir", &f.exportDir, fileCfg.ExportDir)
	}
	layout := chart.DefaultLayout()
	if f.width <= layout.Margin.Left+layout.Margin.Right {
		return chart.Layout{}, fmt.Errorf("--width must be > %g", layout.Margin.Left+layout.Margin.Right)
	}
	if f.height <= layout.Margin.Top+layout.Margin.Bottom {
		return chart.Layout{}, fmt.Errorf("--height must be > %g", layout.Margin.Top+layout.Margin.Bottom)
	}
	layout.Width = f.width
	layout.Height = f.height
	return layout, nil
}

func runExplorerCmd(cmd *cobra.Command, chartOpts *chartFlags, renderOpts *renderFlags, animOpts *animationFlags) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	reg := calculus.NewRegistry()
	cfg, err := chartOpts.resolve(cmd, fileCfg.Chart, st)
	if err != nil {
		return err
	}
	if err := validateConfig(reg, cfg); err != nil {
		return err
	}
	layout, err := renderOpts.resolve(cmd, fileCfg.Render)
	if err != nil {
		return err
	}

	applyStringConfig(cmd, "animate", &animOpts.target, fileCfg.Animation.Target)
	applyFloatConfig(cmd, "anim-step", &animOpts.step, fileCfg.Animation.Step)
	applyIntConfig(cmd, "anim-interval", &animOpts.intervalMs, fileCfg.Animation.IntervalMs)
	target, err := anim.ParseTarget(animOpts.target)
	if err != nil {
		return fmt.Errorf("invalid --animate value: %w", err)
	}
	if animOpts.step <= 0 || math.IsInf(animOpts.step, 0) || math.IsNaN(animOpts.step) {
		return fmt.Errorf("--anim-step must be > 0")
	}
	if animOpts.intervalMs <= 0 {
		return fmt.Errorf("--anim-interval must be > 0")
	}
	animator := anim.DefaultAnimator()
	animator.Step = animOpts.step

	m := explorer.NewModel(cfg, explorer.Options{
		Registry:  reg,
		Store:     st,
		Animator:  animator,
		Interval:  time.Duration(animOpts.intervalMs) * time.Millisecond,
		ExportDir: renderOpts.exportDir,
		SVGLayout: layout,
		UseColor:  termplot.ShouldUseColor(os.Stdout, false),
	})
	m.SetAnimTarget(target)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run explorer: %w", err)
	}
	return nil
}

func defaultShow() []string {
	var names []string
	for _, name := range chart.FlagNames() {
		f, err := chart.ParseFlag(name)
		if err == nil && chart.DefaultFlags&f != 0 {
			names = append(names, name)
		}
	}
	return names
}

func parseShow(names []string) (chart.Flag, error) {
	var flags chart.Flag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == "none" {
			continue
		}
		f, err := chart.ParseFlag(name)
		if err != nil {
			return 0, fmt.Errorf("invalid --show value: %w", err)
		}
		flags |= f
	}
	return flags, nil
}

func validateConfig(reg *calculus.Registry, cfg model.ChartConfig) error {
	if _, err := reg.Lookup(cfg.Function); err != nil {
		return fmt.Errorf("invalid --function: %w", err)
	}
	if err := calculus.ValidateDomain(cfg.Domain); err != nil {
		if errors.Is(err, calculus.ErrInvalidDomain) {
			return fmt.Errorf("--x-min must be less than --x-max (both finite)")
		}
		return err
	}
	if cfg.Steps < 1 || cfg.Steps > calculus.MaxSteps {
		return fmt.Errorf("--steps must be between 1 and %d", calculus.MaxSteps)
	}
	if cfg.Subdivisions < 1 || cfg.Subdivisions > calculus.MaxSubdivisions {
		return fmt.Errorf("--subdivisions must be between 1 and %d", calculus.MaxSubdivisions)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"--amplitude", cfg.Params.Amplitude},
		{"--frequency", cfg.Params.Frequency},
		{"--phase", cfg.Params.Phase},
	} {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%s must be finite", p.name)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func openStoreBestEffort() *store.Store {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db: %v\n", err)
		return nil
	}
	return st
}

func closeStore(st *store.Store) {
	if st == nil {
		return
	}
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
