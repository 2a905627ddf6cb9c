// Package calculus contains the numerical routines behind the charts:
// sample functions, forward-difference derivatives, trapezoidal integrals,
// evenly spaced sampling and derivative-driven color gradients.
package calculus

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/calcviz/internal/model"
)

// Func is a real function of one variable.
type Func func(x float64) float64

// ErrUnknownFunction is returned when a name is not in the registry.
var ErrUnknownFunction = errors.New("unknown function")

// DefaultFunction is selected when no function is configured.
const DefaultFunction = "sine"

// Entry is a named closed-form sample function.
type Entry struct {
	Name        string
	Description string
	// template marks the argument F*x + P as {u}, or {U} where a compound
	// argument needs parentheses.
	template string
	base     Func
}

// Base returns the unparametrized function.
func (e Entry) Base() Func {
	return e.base
}

// Func returns A*f(F*x + P) for the given parameters.
func (e Entry) Func(p model.Params) Func {
	base := e.base
	a, k, phase := p.Amplitude, p.Frequency, p.Phase
	return func(x float64) float64 {
		return a * base(k*x+phase)
	}
}

// Equation renders the closed form with the parameters substituted.
func (e Entry) Equation(p model.Params) string {
	inner := formatInner(p.Frequency, p.Phase)
	grouped := inner
	if strings.Contains(inner, " ") {
		grouped = "(" + inner + ")"
	}
	body := strings.NewReplacer("{u}", inner, "{U}", grouped).Replace(e.template)
	if p.Amplitude == 1 {
		return "f(x) = " + body
	}
	if hasTopLevelSpace(body) {
		body = "(" + body + ")"
	}
	return fmt.Sprintf("f(x) = %.2f·%s", p.Amplitude, body)
}

func hasTopLevelSpace(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func formatInner(frequency, phase float64) string {
	var b strings.Builder
	if frequency == 1 {
		b.WriteString("x")
	} else {
		fmt.Fprintf(&b, "%.2fx", frequency)
	}
	switch {
	case phase > 0:
		fmt.Fprintf(&b, " + %.2f", phase)
	case phase < 0:
		fmt.Fprintf(&b, " − %.2f", -phase)
	}
	return b.String()
}

// Registry is an ordered, fixed set of sample functions.
type Registry struct {
	entries []Entry
	byName  map[string]int
}

// NewRegistry returns the built-in function set.
func NewRegistry() *Registry {
	entries := []Entry{
		{Name: "sine", Description: "sine wave", template: "sin({u})", base: math.Sin},
		{Name: "cosine", Description: "cosine wave", template: "cos({u})", base: math.Cos},
		{
			Name:        "polynomial",
			Description: "cubic polynomial",
			template:    "0.1{U}³ − 0.5{U}² + {U}",
			base: func(x float64) float64 {
				return 0.1*math.Pow(x, 3) - 0.5*math.Pow(x, 2) + x
			},
		},
		{
			Name:        "exponential",
			Description: "exponentially growing oscillation",
			template:    "e^({U}/3)·sin({u})",
			base: func(x float64) float64 {
				return math.Exp(x/3) * math.Sin(x)
			},
		},
		{
			Name:        "logistic",
			Description: "logistic sigmoid",
			template:    "1/(1 + e^(−{U}))",
			base: func(x float64) float64 {
				return 1 / (1 + math.Exp(-x))
			},
		},
		{
			Name:        "quadratic",
			Description: "parabola",
			template:    "{U}²",
			base: func(x float64) float64 {
				return x * x
			},
		},
		{Name: "logarithm", Description: "natural log, undefined for x <= 0", template: "ln({u})", base: math.Log},
	}
	r := &Registry{entries: entries, byName: make(map[string]int, len(entries))}
	for i, e := range entries {
		r.byName[e.Name] = i
	}
	return r
}

// Lookup finds an entry by name.
func (r *Registry) Lookup(name string) (Entry, error) {
	idx, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownFunction, name, strings.Join(r.Names(), ", "))
	}
	return r.entries[idx], nil
}

// Names lists the function names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of all entries in registry order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Next returns the name delta positions away from name, wrapping around.
func (r *Registry) Next(name string, delta int) string {
	count := len(r.entries)
	if count == 0 {
		return name
	}
	idx, ok := r.byName[name]
	if !ok {
		return r.entries[0].Name
	}
	next := ((idx+delta)%count + count) % count
	return r.entries[next].Name
}
