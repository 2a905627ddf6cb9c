package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/config"
	"github.com/verte-zerg/calcviz/internal/model"
	"github.com/verte-zerg/calcviz/internal/store"
)

func isolateXDG(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func validConfig() model.ChartConfig {
	return model.ChartConfig{
		Function:     "sine",
		Domain:       model.Domain{XMin: -10, XMax: 10},
		Params:       model.DefaultParams(),
		Steps:        calculus.DefaultSteps,
		Subdivisions: calculus.DefaultIntegralSubdivisions,
	}
}

func TestValidateConfig(t *testing.T) {
	reg := calculus.NewRegistry()
	tests := []struct {
		name   string
		mutate func(*model.ChartConfig)
		want   string
	}{
		{"valid", func(*model.ChartConfig) {}, ""},
		{"unknown function", func(c *model.ChartConfig) { c.Function = "tangent" }, "--function"},
		{"empty domain", func(c *model.ChartConfig) { c.Domain.XMax = c.Domain.XMin }, "--x-min"},
		{"infinite domain", func(c *model.ChartConfig) { c.Domain.XMax = math.Inf(1) }, "--x-min"},
		{"zero steps", func(c *model.ChartConfig) { c.Steps = 0 }, "--steps"},
		{"too many steps", func(c *model.ChartConfig) { c.Steps = calculus.MaxSteps + 1 }, "--steps"},
		{"too many subdivisions", func(c *model.ChartConfig) { c.Subdivisions = calculus.MaxSubdivisions + 1 }, "--subdivisions"},
		{"nan phase", func(c *model.ChartConfig) { c.Params.Phase = math.NaN() }, "--phase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateConfig(reg, cfg)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestParseShow(t *testing.T) {
	flags, err := parseShow([]string{"derivative", " area ", "none", ""})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if flags != chart.ShowDerivative|chart.ShowArea {
		t.Fatalf("unexpected flags %b", flags)
	}
	if _, err := parseShow([]string{"sparkles"}); err == nil {
		t.Fatalf("expected error for unknown name")
	}
	def, err := parseShow(defaultShow())
	if err != nil || def != chart.DefaultFlags {
		t.Fatalf("default show should round trip, got %b %v", def, err)
	}
}

func newChartCmd(f *chartFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	return cmd
}

func TestResolvePrecedence(t *testing.T) {
	var f chartFlags
	cmd := newChartCmd(&f)
	if err := cmd.Flags().Set("steps", "50"); err != nil {
		t.Fatal(err)
	}
	function := "cosine"
	steps := 300
	xMin := -2.0
	show := []string{"grid"}
	cfg, err := f.resolve(cmd, config.ChartConfig{Function: &function, Steps: &steps, XMin: &xMin, Show: &show}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Function != "cosine" || cfg.Domain.XMin != -2 || cfg.Domain.XMax != defaultXMax {
		t.Fatalf("config file values not applied: %+v", cfg)
	}
	if cfg.Steps != 50 {
		t.Fatalf("explicit flag should win, got %d", cfg.Steps)
	}
	if chart.Flag(cfg.Flags) != chart.ShowGrid {
		t.Fatalf("expected show from config, got %b", cfg.Flags)
	}
}

func TestResolvePreset(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "calcviz.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer closeStore(st)
	saved := model.ChartConfig{
		Function:     "quadratic",
		Domain:       model.Domain{XMin: -3, XMax: 3},
		Params:       model.Params{Amplitude: 2, Frequency: 1, Phase: 0.5},
		Steps:        80,
		Subdivisions: 20,
		Flags:        uint32(chart.ShowArea),
	}
	if err := st.SavePreset(context.Background(), model.Preset{Name: "bowl", Config: saved}); err != nil {
		t.Fatal(err)
	}

	var f chartFlags
	cmd := newChartCmd(&f)
	if err := cmd.Flags().Set("preset", "bowl"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("amplitude", "4"); err != nil {
		t.Fatal(err)
	}
	cfg, err := f.resolve(cmd, config.ChartConfig{}, st)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := saved
	want.Params.Amplitude = 4
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}

	var missing chartFlags
	cmd = newChartCmd(&missing)
	if err := cmd.Flags().Set("preset", "nope"); err != nil {
		t.Fatal(err)
	}
	if _, err := missing.resolve(cmd, config.ChartConfig{}, st); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	isolateXDG(t)
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("commented template should load: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	setting := regexp.MustCompile(`(?m)^# ([a-z-]+ = )`)
	uncommented := setting.ReplaceAllString(string(data), "$1")
	if err := os.WriteFile(path, []byte(uncommented), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("uncommented template should load: %v", err)
	}
	if cfg.Chart.Function == nil || *cfg.Chart.Function != calculus.DefaultFunction {
		t.Fatalf("unexpected function %v", cfg.Chart.Function)
	}
	if cfg.Animation.IntervalMs == nil || *cfg.Animation.IntervalMs != defaultIntervalMs {
		t.Fatalf("unexpected interval %v", cfg.Animation.IntervalMs)
	}
}

func TestRenderCommandWritesAndRecords(t *testing.T) {
	isolateXDG(t)
	path := filepath.Join(t.TempDir(), "out", "cos.svg")
	if _, err := execute(t, "render", "--function", "cosine", "--pointer", "400", "--out", path); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("expected svg output")
	}

	out, err := execute(t, "exports")
	if err != nil {
		t.Fatalf("exports: %v", err)
	}
	if !strings.Contains(out, "cos.svg") || !strings.Contains(out, "cosine") {
		t.Fatalf("expected export listed, got %q", out)
	}
}

func TestRenderCommandStdout(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "render", "--show", "derivative,second-derivative,area")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<svg") {
		t.Fatalf("expected svg on stdout")
	}
}

func TestRenderCommandRejectsBadDomain(t *testing.T) {
	isolateXDG(t)
	if _, err := execute(t, "render", "--x-min", "3", "--x-max", "1"); err == nil {
		t.Fatalf("expected domain error")
	}
}

func TestPlotCommand(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "plot", "--function", "quadratic", "--cols", "40", "--rows", "8", "--at", "1")
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	for _, want := range []string{"f(x) = x²", "Legend", "x = 1.000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("plot output missing %q:\n%s", want, out)
		}
	}
	if _, err := execute(t, "plot", "--at", "50"); err == nil {
		t.Fatalf("expected error for pointer outside domain")
	}
}

func TestPlotCommandASCII(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "plot", "--ascii", "--function", "cosine", "--cols", "40", "--rows", "8")
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if !strings.Contains(out, "cos(x)") {
		t.Fatalf("expected caption, got %q", out)
	}
}

func TestFunctionsCommand(t *testing.T) {
	out, err := execute(t, "functions")
	if err != nil {
		t.Fatalf("functions: %v", err)
	}
	for _, name := range calculus.NewRegistry().Names() {
		if !strings.Contains(out, name) {
			t.Fatalf("functions output missing %s", name)
		}
	}
}

func TestPresetCommands(t *testing.T) {
	isolateXDG(t)
	if _, err := execute(t, "preset", "save", "bowl", "--function", "quadratic", "--x-min", "-3", "--x-max", "3"); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := execute(t, "preset", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "bowl") || !strings.Contains(out, "[-3, 3]") {
		t.Fatalf("unexpected list output %q", out)
	}
	out, err = execute(t, "plot", "--preset", "bowl", "--cols", "30", "--rows", "6")
	if err != nil {
		t.Fatalf("plot with preset: %v", err)
	}
	if !strings.Contains(out, "x²") {
		t.Fatalf("expected preset function, got %q", out)
	}
	if _, err := execute(t, "preset", "delete", "bowl"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := execute(t, "preset", "delete", "bowl"); err == nil {
		t.Fatalf("expected error deleting twice")
	}
}
