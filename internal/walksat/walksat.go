// Package walksat implements the WalkSAT stochastic local-search
// engine (C3): random initialization followed by greedy-with-noise
// flips until every clause is satisfied or a flip budget is
// exhausted.
package walksat

import (
	"io"
	"log"
	"math/rand"

	"github.com/akshat4474/hybridsat/internal/store"
)

// DefaultMaxFlips and DefaultPRandomFlip are the engine's default
// parameters, per the design doc.
const (
	DefaultMaxFlips     = 10000
	DefaultPRandomFlip  = 0.5
)

type clause = []int

// Stats reports engine-internal counters.
type Stats struct {
	Flips   int
	Solved  bool
}

// Engine is the WalkSAT local-search solver.
type Engine struct {
	maxFlips    int
	pRandomFlip float64
	rng         *rand.Rand
	logger      *log.Logger

	assignment map[int]bool
	stats      Stats
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithMaxFlips overrides DefaultMaxFlips.
func WithMaxFlips(n int) Option { return func(e *Engine) { e.maxFlips = n } }

// WithPRandomFlip overrides DefaultPRandomFlip.
func WithPRandomFlip(p float64) Option { return func(e *Engine) { e.pRandomFlip = p } }

// WithRand injects the random source. Tests use this for determinism;
// production callers should seed from a real entropy source.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithLogger injects a logger for conflict/flip tracing. A nil logger
// (or one never supplied) discards output.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// New constructs an Engine with defaults, then applies opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxFlips:    DefaultMaxFlips,
		pRandomFlip: DefaultPRandomFlip,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(1))
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	return e
}

// Solve runs the WalkSAT main loop over clauses/variables, recording
// one flip_history increment per flip into st. Initialization assigns
// each variable uniformly at random; a formula with zero variables
// trivially succeeds.
func (e *Engine) Solve(clauses []clause, variables []int, st *store.Store) (bool, error) {
	e.stats = Stats{}
	assignment := make(map[int]bool, len(variables))
	for _, v := range variables {
		assignment[v] = e.rng.Intn(2) == 1
	}
	if len(variables) == 0 {
		e.assignment = assignment
		e.stats.Solved = true
		return true, nil
	}

	hasEmpty := false
	for _, c := range clauses {
		if len(c) == 0 {
			hasEmpty = true
		}
	}

	for flip := 0; flip < e.maxFlips; flip++ {
		unsat := unsatisfiedClauses(clauses, assignment)
		if len(unsat) == 0 {
			if hasEmpty {
				// Only empty clauses remain unsatisfied; no flip can
				// satisfy them, so the budget runs out.
				continue
			}
			e.assignment = copyAssignment(assignment)
			e.stats.Solved = true
			e.logger.Printf("walksat: solved after %d flips", flip)
			return true, nil
		}
		c := unsat[e.rng.Intn(len(unsat))]

		var v int
		if e.rng.Float64() < e.pRandomFlip {
			v = varOf(c[e.rng.Intn(len(c))])
		} else {
			v = bestFlipVar(clauses, assignment, c)
		}
		assignment[v] = !assignment[v]
		st.IncrementFlipCount(v)
		e.stats.Flips++
	}
	e.logger.Printf("walksat: exhausted %d flips without a solution", e.maxFlips)
	return false, nil
}

// unsatisfiedClauses returns the clauses not satisfied under
// assignment. Empty clauses are skipped: they can never be satisfied,
// and including them would make every formula containing one
// unsolvable by construction rather than by exhausting max_flips.
func unsatisfiedClauses(clauses []clause, assignment map[int]bool) []clause {
	var unsat []clause
	for _, c := range clauses {
		if len(c) == 0 {
			continue
		}
		if !clauseSatisfied(c, assignment) {
			unsat = append(unsat, c)
		}
	}
	return unsat
}

func clauseSatisfied(c clause, assignment map[int]bool) bool {
	for _, lit := range c {
		if assignment[varOf(lit)] != (lit < 0) {
			return true
		}
	}
	return false
}

func varOf(lit int) int {
	if lit < 0 {
		return -lit
	}
	return lit
}

// bestFlipVar picks the variable among c's literals whose flip
// maximizes the number of satisfied clauses in the full formula, with
// ties broken by first-occurrence order within c.
func bestFlipVar(clauses []clause, assignment map[int]bool, c clause) int {
	bestVar := varOf(c[0])
	bestScore := -1
	seen := make(map[int]bool)
	for _, lit := range c {
		v := varOf(lit)
		if seen[v] {
			continue
		}
		seen[v] = true
		assignment[v] = !assignment[v]
		score := countSatisfied(clauses, assignment)
		assignment[v] = !assignment[v]
		if score > bestScore {
			bestScore = score
			bestVar = v
		}
	}
	return bestVar
}

func countSatisfied(clauses []clause, assignment map[int]bool) int {
	n := 0
	for _, c := range clauses {
		if len(c) == 0 {
			continue
		}
		if clauseSatisfied(c, assignment) {
			n++
		}
	}
	return n
}

func copyAssignment(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Assignment returns the satisfying assignment found by the most
// recent successful Solve call, or nil if none has succeeded.
func (e *Engine) Assignment() map[int]bool {
	return copyAssignment(e.assignment)
}

// Stats returns a snapshot of the engine's statistics bundle.
func (e *Engine) Stats() map[string]interface{} {
	return map[string]interface{}{
		"flips":  e.stats.Flips,
		"solved": e.stats.Solved,
	}
}
