// Package chart turns a view State into a computed Frame (series, colors,
// scales and pointer read-out) and draws frames as SVG.
package chart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/calcviz/internal/anim"
	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/model"
)

// Flag is a single boolean view toggle.
type Flag uint32

const (
	ShowDerivative Flag = 1 << iota
	ShowSecondDerivative
	ShowIntegral
	ShowArea
	ShowGrid
	ShowPoints
	ShowTangent
	DarkMode
	Gradient
)

// DefaultFlags is the toggle set a fresh chart starts with.
const DefaultFlags = ShowDerivative | ShowIntegral | ShowTangent | Gradient

var flagNames = map[string]Flag{
	"derivative":        ShowDerivative,
	"second-derivative": ShowSecondDerivative,
	"integral":          ShowIntegral,
	"area":              ShowArea,
	"grid":              ShowGrid,
	"points":            ShowPoints,
	"tangent":           ShowTangent,
	"dark":              DarkMode,
	"gradient":          Gradient,
}

// ParseFlag maps a toggle name to its Flag.
func ParseFlag(name string) (Flag, error) {
	f, ok := flagNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown toggle %q (use %s)", name, strings.Join(FlagNames(), ", "))
	}
	return f, nil
}

// FlagNames lists toggle names in sorted order.
func FlagNames() []string {
	names := make([]string, 0, len(flagNames))
	for n := range flagNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// State is the complete, immutable view state of one chart. Every change
// produces a new State through Apply.
type State struct {
	Function     string
	Domain       model.Domain
	Params       model.Params
	Steps        int
	Subdivisions int
	Flags        Flag

	// PointerX is a device x coordinate, valid when HasPointer is set.
	PointerX   float64
	HasPointer bool

	AnimTarget anim.Target
	Animating  bool
}

// NewState builds a State from a chart configuration.
func NewState(cfg model.ChartConfig) State {
	name := cfg.Function
	if name == "" {
		name = calculus.DefaultFunction
	}
	return State{
		Function:     name,
		Domain:       cfg.Domain,
		Params:       cfg.Params,
		Steps:        cfg.Steps,
		Subdivisions: cfg.Subdivisions,
		Flags:        Flag(cfg.Flags),
		AnimTarget:   anim.TargetPhase,
	}
}

// Config returns the persisted part of the state.
func (s State) Config() model.ChartConfig {
	return model.ChartConfig{
		Function:     s.Function,
		Domain:       s.Domain,
		Params:       s.Params,
		Steps:        s.Steps,
		Subdivisions: s.Subdivisions,
		Flags:        uint32(s.Flags),
	}
}

// Has reports whether flag f is on.
func (s State) Has(f Flag) bool {
	return s.Flags&f != 0
}

// Apply returns the state after ev. On error the original state is returned.
func (s State) Apply(ev Event) (State, error) {
	next, err := ev.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

// Event is a state transition.
type Event interface {
	apply(State) (State, error)
}

// Toggle flips one flag.
type Toggle struct{ Flag Flag }

func (e Toggle) apply(s State) (State, error) {
	s.Flags ^= e.Flag
	return s, nil
}

// SetFlag forces one flag on or off.
type SetFlag struct {
	Flag Flag
	On   bool
}

func (e SetFlag) apply(s State) (State, error) {
	if e.On {
		s.Flags |= e.Flag
	} else {
		s.Flags &^= e.Flag
	}
	return s, nil
}

// SelectFunction switches the sampled function.
type SelectFunction struct{ Name string }

func (e SelectFunction) apply(s State) (State, error) {
	name := strings.ToLower(strings.TrimSpace(e.Name))
	if name == "" {
		return s, fmt.Errorf("function name is empty")
	}
	s.Function = name
	return s, nil
}

// SetDomain replaces the sampling interval.
type SetDomain struct{ Domain model.Domain }

func (e SetDomain) apply(s State) (State, error) {
	if err := calculus.ValidateDomain(e.Domain); err != nil {
		return s, err
	}
	s.Domain = e.Domain
	return s, nil
}

// SetParams replaces amplitude, frequency and phase.
type SetParams struct{ Params model.Params }

func (e SetParams) apply(s State) (State, error) {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"amplitude", e.Params.Amplitude},
		{"frequency", e.Params.Frequency},
		{"phase", e.Params.Phase},
	} {
		if !isFinite(p.value) {
			return s, fmt.Errorf("%s must be finite, got %g", p.name, p.value)
		}
	}
	s.Params = e.Params
	return s, nil
}

// PointerMove places the pointer at device x coordinate X.
type PointerMove struct{ X float64 }

func (e PointerMove) apply(s State) (State, error) {
	s.PointerX = e.X
	s.HasPointer = true
	return s, nil
}

// PointerLeave removes the pointer read-out.
type PointerLeave struct{}

func (PointerLeave) apply(s State) (State, error) {
	s.HasPointer = false
	return s, nil
}

// SetAnimTarget chooses the animated parameter.
type SetAnimTarget struct{ Target anim.Target }

func (e SetAnimTarget) apply(s State) (State, error) {
	s.AnimTarget = e.Target
	return s, nil
}

// SetAnimating turns animation on or off.
type SetAnimating struct{ On bool }

func (e SetAnimating) apply(s State) (State, error) {
	s.Animating = e.On
	return s, nil
}

// AnimationFrame advances the animated parameter by one step. It is a no-op
// unless animation is on.
type AnimationFrame struct{ Animator anim.Animator }

func (e AnimationFrame) apply(s State) (State, error) {
	if !s.Animating {
		return s, nil
	}
	s.Params = e.Animator.Advance(s.Params, s.AnimTarget)
	return s, nil
}
