package translator

import (
	"fmt"
	"strings"

	"github.com/hororrklama-coder/DiscTransla/internal/backend"
)

// Leg translates between one language pair, trying each backend in order.
type Leg struct {
	Source   string
	Target   string
	Backends []backend.Backend
}

// Step is one way of producing a translation. All legs must succeed, each
// feeding its output to the next.
type Step struct {
	Name string
	Legs []Leg
}

// String describes the step, e.g. "pivot: es→en [mymemory,libretranslate], en→ja [...]".
func (s Step) String() string {
	parts := make([]string, 0, len(s.Legs))
	for _, leg := range s.Legs {
		names := make([]string, 0, len(leg.Backends))
		for _, b := range leg.Backends {
			names = append(names, b.Name())
		}
		parts = append(parts, fmt.Sprintf("%s→%s [%s]", leg.Source, leg.Target, strings.Join(names, ",")))
	}
	return s.Name + ": " + strings.Join(parts, ", ")
}

// Plan returns the ordered steps tried for one unit of text: the primary
// backend directly, the secondary backend directly, then a two-leg pivot
// through the pivot language. The pivot step is left out when either side
// already is the pivot language.
func (t *Translator) Plan(source, target string) []Step {
	steps := []Step{
		{
			Name: "primary",
			Legs: []Leg{{Source: source, Target: target, Backends: []backend.Backend{t.primary}}},
		},
		{
			Name: "secondary",
			Legs: []Leg{{Source: source, Target: target, Backends: []backend.Backend{t.secondary}}},
		},
	}

	pivot := t.cfg.Pivot
	if pivot == "" || source == pivot || target == pivot {
		return steps
	}

	both := []backend.Backend{t.primary, t.secondary}
	return append(steps, Step{
		Name: "pivot",
		Legs: []Leg{
			{Source: source, Target: pivot, Backends: both},
			{Source: pivot, Target: target, Backends: both},
		},
	})
}
