// Package anim steps chart parameters frame by frame and tracks whether the
// frame loop is still allowed to run.
package anim

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/calcviz/internal/model"
)

// Target selects the parameter an animation drives.
type Target int

const (
	TargetAmplitude Target = iota
	TargetFrequency
	TargetPhase
)

var targetNames = []string{"amplitude", "frequency", "phase"}

func (t Target) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targetNames[t]
}

// ParseTarget maps a name to a Target.
func ParseTarget(name string) (Target, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range targetNames {
		if n == name {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("unknown animation target %q (use %s)", name, strings.Join(targetNames, ", "))
}

// Bounds is the closed range a cycled parameter stays in.
type Bounds struct {
	Min float64
	Max float64
}

// Animator advances one parameter by Step per frame.
type Animator struct {
	Step      float64
	Amplitude Bounds
	Frequency Bounds
}

// DefaultStep is the per-frame increment.
const DefaultStep = 0.05

// DefaultAnimator returns the stock step and bounds.
func DefaultAnimator() Animator {
	return Animator{
		Step:      DefaultStep,
		Amplitude: Bounds{Min: 0.1, Max: 3},
		Frequency: Bounds{Min: 0.1, Max: 5},
	}
}

// Advance returns p with target moved by one step.
func (a Animator) Advance(p model.Params, target Target) model.Params {
	switch target {
	case TargetAmplitude:
		p.Amplitude = cycle(p.Amplitude+a.Step, a.Amplitude)
	case TargetFrequency:
		p.Frequency = cycle(p.Frequency+a.Step, a.Frequency)
	case TargetPhase:
		p.Phase = WrapPhase(p.Phase + a.Step)
	}
	return p
}

// WrapPhase keeps v in [-π, π]: crossing +π lands on -π exactly and
// crossing -π lands on +π.
func WrapPhase(v float64) float64 {
	switch {
	case v > math.Pi:
		return -math.Pi
	case v < -math.Pi:
		return math.Pi
	default:
		return v
	}
}

func cycle(v float64, b Bounds) float64 {
	if b.Max <= b.Min {
		return v
	}
	switch {
	case v > b.Max:
		return b.Min
	case v < b.Min:
		return b.Max
	default:
		return v
	}
}

// Scheduler gates a cooperative frame loop. Each Start hands out a new
// generation; ticks carrying any other generation, or arriving after Stop,
// are rejected so a stopped loop performs no further work.
type Scheduler struct {
	running bool
	gen     uint64
	frames  uint64
}

// Start begins a new loop and returns its generation.
func (s *Scheduler) Start() uint64 {
	s.gen++
	s.running = true
	return s.gen
}

// Stop halts the current loop.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.gen++
}

// Running reports whether a loop is active.
func (s *Scheduler) Running() bool {
	return s.running
}

// Tick reports whether a frame for gen should run, counting accepted frames.
func (s *Scheduler) Tick(gen uint64) bool {
	if !s.running || gen != s.gen {
		return false
	}
	s.frames++
	return true
}

// Frames returns the number of accepted ticks.
func (s *Scheduler) Frames() uint64 {
	return s.frames
}
