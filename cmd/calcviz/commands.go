package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/calcviz/internal/anim"
	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/config"
	"github.com/verte-zerg/calcviz/internal/model"
	"github.com/verte-zerg/calcviz/internal/store"
	"github.com/verte-zerg/calcviz/internal/termplot"
)

const (
	defaultPlotRows     = 16
	defaultExportsLimit = 20
)

func newRenderCmd() *cobra.Command {
	var chartOpts chartFlags
	var renderOpts renderFlags
	var out string
	var pointer float64
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the chart as SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRenderCmd(cmd, &chartOpts, &renderOpts, out, pointer)
		},
	}
	chartOpts.register(cmd)
	cmd.Flags().Float64Var(&renderOpts.width, "width", chart.DefaultLayout().Width, "SVG width in points")
	cmd.Flags().Float64Var(&renderOpts.height, "height", chart.DefaultLayout().Height, "SVG height in points")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&pointer, "pointer", -1, "pointer x in SVG points; negative hides the read-out")
	return cmd
}

func runRenderCmd(cmd *cobra.Command, chartOpts *chartFlags, renderOpts *renderFlags, out string, pointer float64) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st := openStoreBestEffort()
	defer closeStore(st)

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

	s := chart.NewState(cfg)
	if pointer >= 0 {
		if s, err = s.Apply(chart.PointerMove{X: pointer}); err != nil {
			return err
		}
	}
	fr, err := chart.Compute(s, reg, layout)
	if err != nil {
		return fmt.Errorf("failed to compute chart: %w", err)
	}

	if out == "" || out == "-" {
		return chart.WriteSVG(cmd.OutOrStdout(), fr)
	}
	if err := chart.SaveSVG(out, fr); err != nil {
		return err
	}
	logErrf("Wrote %s\n", out)
	if st != nil {
		abs, err := filepath.Abs(out)
		if err != nil {
			abs = out
		}
		rec := model.ExportRecord{Path: abs, Function: cfg.Function, Domain: cfg.Domain, CreatedAt: time.Now()}
		if _, err := st.RecordExport(context.Background(), rec); err != nil {
			logErrf("failed to record export: %v\n", err)
		}
	}
	return nil
}

type plotOptions struct {
	ascii bool
	rows  int
	cols  int
	at    float64
	color bool
}

func newPlotCmd() *cobra.Command {
	var chartOpts chartFlags
	var opts plotOptions
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Print the chart to the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlotCmd(cmd, &chartOpts, opts)
		},
	}
	chartOpts.register(cmd)
	cmd.Flags().BoolVar(&opts.ascii, "ascii", false, "plain line chart instead of braille")
	cmd.Flags().IntVar(&opts.rows, "rows", defaultPlotRows, "chart height in lines")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "chart width in columns (default: terminal width)")
	cmd.Flags().Float64Var(&opts.at, "at", 0, "show the read-out and tangent at this x")
	cmd.Flags().BoolVar(&opts.color, "color", false, "force colored output")
	return cmd
}

func runPlotCmd(cmd *cobra.Command, chartOpts *chartFlags, opts plotOptions) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	var st *store.Store
	if strings.TrimSpace(chartOpts.preset) != "" {
		st = openStoreBestEffort()
		defer closeStore(st)
	}

	reg := calculus.NewRegistry()
	cfg, err := chartOpts.resolve(cmd, fileCfg.Chart, st)
	if err != nil {
		return err
	}
	if err := validateConfig(reg, cfg); err != nil {
		return err
	}
	if opts.rows < 2 {
		return fmt.Errorf("--rows must be >= 2")
	}
	cols := opts.cols
	if cols <= 0 {
		cols = termplot.PlotWidthFor(termplot.TerminalWidth())
	}

	layout := termplot.LayoutFor(cols, opts.rows)
	s := chart.NewState(cfg)
	if cmd.Flags().Changed("at") {
		if !cfg.Domain.Contains(opts.at) {
			return fmt.Errorf("--at must lie within [%g, %g]", cfg.Domain.XMin, cfg.Domain.XMax)
		}
		px := chart.XScale(cfg.Domain, layout).Map(opts.at)
		if s, err = s.Apply(chart.PointerMove{X: px}); err != nil {
			return err
		}
	}
	fr, err := chart.Compute(s, reg, layout)
	if err != nil {
		return fmt.Errorf("failed to compute chart: %w", err)
	}

	w := cmd.OutOrStdout()
	useColor := termplot.ShouldUseColor(os.Stdout, opts.color)
	if opts.ascii {
		return writeLines(w, termplot.RenderASCII(fr, cols, opts.rows))
	}
	lines := []string{fr.Equation, termplot.Render(fr, cols, opts.rows, useColor), termplot.Legend(fr, useColor)}
	if fr.Cursor != nil {
		lines = append(lines, chart.ReadOut(*fr.Cursor))
	}
	return writeLines(w, lines...)
}

func newFunctionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the sample functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := calculus.NewRegistry()
			rows := make([][]string, 0, len(reg.Entries()))
			for _, e := range reg.Entries() {
				rows = append(rows, []string{e.Name, e.Equation(model.DefaultParams()), e.Description})
			}
			return writeLines(cmd.OutOrStdout(), termplot.FormatTable([]string{"NAME", "EQUATION", "DESCRIPTION"}, rows, nil)...)
		},
	}
}

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved chart presets",
	}
	cmd.AddCommand(newPresetSaveCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE:  runPresetListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE:  runPresetDeleteCmd,
	})
	return cmd
}

func newPresetSaveCmd() *cobra.Command {
	var chartOpts chartFlags
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the chart settings under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			st, err := store.Open(config.DefaultDBPath())
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer closeStore(st)

			reg := calculus.NewRegistry()
			cfg, err := chartOpts.resolve(cmd, fileCfg.Chart, st)
			if err != nil {
				return err
			}
			if err := validateConfig(reg, cfg); err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if err := st.SavePreset(context.Background(), model.Preset{Name: name, Config: cfg, UpdatedAt: time.Now()}); err != nil {
				return fmt.Errorf("failed to save preset: %w", err)
			}
			logErrf("Saved preset %s\n", name)
			return nil
		},
	}
	chartOpts.register(cmd)
	return cmd
}

func runPresetListCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	presets, err := st.ListPresets(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list presets: %w", err)
	}
	if len(presets) == 0 {
		logErrln("No presets saved. Save one with: calcviz preset save <name>")
		return nil
	}
	return writeLines(cmd.OutOrStdout(), formatPresets(presets)...)
}

func runPresetDeleteCmd(_ *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	if err := st.DeletePreset(context.Background(), args[0]); err != nil {
		return err
	}
	logErrf("Deleted preset %s\n", args[0])
	return nil
}

func formatPresets(presets []model.Preset) []string {
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		c := p.Config
		rows = append(rows, []string{
			p.Name,
			c.Function,
			fmt.Sprintf("[%s, %s]", formatFloat(c.Domain.XMin), formatFloat(c.Domain.XMax)),
			fmt.Sprintf("A=%s F=%s P=%s", formatFloat(c.Params.Amplitude), formatFloat(c.Params.Frequency), formatFloat(c.Params.Phase)),
			strings.Join(flagList(chart.Flag(c.Flags)), ","),
			p.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return termplot.FormatTable([]string{"NAME", "FUNCTION", "DOMAIN", "PARAMS", "SHOW", "UPDATED"}, rows, nil)
}

func flagList(flags chart.Flag) []string {
	var names []string
	for _, name := range chart.FlagNames() {
		f, err := chart.ParseFlag(name)
		if err == nil && flags&f != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return []string{"none"}
	}
	return names
}

func newExportsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List recorded SVG exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.Open(config.DefaultDBPath())
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer closeStore(st)

			recs, err := st.ListExports(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("failed to list exports: %w", err)
			}
			if len(recs) == 0 {
				logErrln("No exports recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(recs))
			for _, r := range recs {
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Function,
					fmt.Sprintf("[%s, %s]", formatFloat(r.Domain.XMin), formatFloat(r.Domain.XMax)),
					r.Path,
				})
			}
			lines := termplot.FormatTable([]string{"ID", "CREATED", "FUNCTION", "DOMAIN", "PATH"}, rows, map[int]bool{0: true})
			return writeLines(cmd.OutOrStdout(), lines...)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultExportsLimit, "number of exports to show (0 for all)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func defaultConfigTemplate() string {
	layout := chart.DefaultLayout()
	return fmt.Sprintf(`# calcviz configuration
# Uncomment a value to enable it. CLI flags override config values.

[chart]
# function = %q        # Sample function (see: calcviz functions)
# x-min = %.1f             # Domain start
# x-max = %.1f              # Domain end
# steps = %d               # Sample intervals across the domain (max %d)
# subdivisions = %d        # Trapezoids per integral sample (max %d)
# amplitude = 1.0
# frequency = 1.0
# phase = 0.0
# show = [%s]

[render]
# width = %.1f             # SVG width in points
# height = %.1f            # SVG height in points
# export-dir = %q

[animation]
# target = %q          # amplitude, frequency or phase
# step = %g              # Parameter increment per frame
# interval-ms = %d          # Milliseconds between frames
`,
		calculus.DefaultFunction,
		defaultXMin,
		defaultXMax,
		calculus.DefaultSteps, calculus.MaxSteps,
		calculus.DefaultIntegralSubdivisions, calculus.MaxSubdivisions,
		quotedList(defaultShow()),
		layout.Width,
		layout.Height,
		config.DefaultExportDir(),
		defaultAnimTarget,
		anim.DefaultStep,
		defaultIntervalMs,
	)
}

func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return strings.Join(quoted, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeLines(w io.Writer, lines ...string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
