// Package cdcl implements the conflict-driven clause-learning engine
// (C4): unit propagation over the union of original and learned
// clauses, a VSIDS-style activity decision heuristic with hint
// consultation, chronological backtracking, and periodic restarts and
// score decay.
//
// The reference implementation this engine generalizes is recursive;
// this one is rewritten as an explicit loop over the decision stack
// (see the design doc's notes on recursive CDCL and stack exhaustion).
// Conflict handling here is deliberately conservative: it learns the
// raw conflicting clause rather than a first-UIP resolvent, which is
// sound but weaker than a resolvent-based learner.
package cdcl

import (
	"context"
	"io"
	"log"

	"github.com/kr/pretty"

	"github.com/akshat4474/hybridsat/internal/store"
)

type clause = []int

// Stats reports engine-internal counters, matching the fields the
// controller surfaces in its per-run report.
type Stats struct {
	Conflicts        int
	Decisions        int
	UnitPropagations int
	LearnedClauses   int
	Restarts         int
	Solved           bool
}

// frame is a single decision-stack entry: a variable, the value it's
// currently assigned, whether that assignment was implied by unit
// propagation (as opposed to a branching decision), and — for decision
// frames only — whether both polarities have now been tried.
type frame struct {
	v         int
	value     bool
	implied   bool
	triedBoth bool
}

// Engine is the CDCL solver.
type Engine struct {
	logger *log.Logger

	clauses   []clause // original clauses plus every learned clause seen this run
	variables []int    // sorted, from the formula

	scores map[int]float64 // local cache, seeded from the store on entry
	hints  map[int]bool    // local cache, seeded from the store on entry

	assignment map[int]bool
	stack      []frame
	heap       *activityHeap

	nextRestartAt int
	nextDecayAt   int

	stats      Stats
	winningAssignment map[int]bool // the winning assignment, set only on success
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger injects a logger used for conflict/restart tracing. A
// nil logger (or one never supplied) discards output.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// New constructs an Engine, applying opts over the defaults.
func New(opts ...Option) *Engine {
	e := &Engine{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	return e
}

// Solve runs CDCL search over clauses/variables to completion, to
// exhaustion of the search tree, or until ctx is done. It reads
// variable_scores, assignment_hints, and learned_clauses from st on
// entry, and writes newly learned clauses and score bumps/decay to st
// as it runs.
func (e *Engine) Solve(ctx context.Context, clauses []clause, variables []int, st *store.Store) (bool, error) {
	e.init(clauses, variables, st)

	for {
		if err := ctx.Err(); err != nil {
			return false, &DeadlineExceededError{}
		}

		e.maybeRestart(st)
		e.maybeDecay(st)

		if !e.propagate(st) {
			if !e.backtrack() {
				e.stats.Solved = false
				return false, nil
			}
			continue
		}
		if e.complete() {
			e.stats.Solved = true
			e.winningAssignment = copyAssignment(e.assignment)
			return true, nil
		}
		v, polarity := e.pickVariable()
		e.pushDecision(v, polarity)
	}
}

func (e *Engine) init(clauses []clause, variables []int, st *store.Store) {
	learned := st.LearnedClauses()
	e.clauses = make([]clause, 0, len(clauses)+len(learned))
	e.clauses = append(e.clauses, clauses...)
	e.clauses = append(e.clauses, toClauses(learned)...)

	e.variables = variables
	e.scores = st.VariableScores()
	e.hints = st.AssignmentHints()

	e.assignment = make(map[int]bool, len(variables))
	e.stack = nil
	e.stats = Stats{}
	e.winningAssignment = nil

	e.nextRestartAt = 100
	e.nextDecayAt = 50

	e.rebuildHeap()
}

func toClauses(raw [][]int) []clause {
	out := make([]clause, len(raw))
	for i, c := range raw {
		out[i] = c
	}
	return out
}

func (e *Engine) rebuildHeap() {
	e.heap = newActivityHeap()
	for _, v := range e.variables {
		if _, assigned := e.assignment[v]; assigned {
			continue
		}
		e.heap.score[v] = e.scores[v]
		e.heap.push(v)
	}
}

// propagate iterates to a fixpoint over the union of original and
// learned clauses. It returns true once a pass makes no further
// change with no conflict, or false (having recorded the conflict)
// the first time a clause becomes a contradiction.
func (e *Engine) propagate(st *store.Store) bool {
	for {
		changed := false
		for _, cls := range e.clauses {
			if clauseSatisfied(cls, e.assignment) {
				continue
			}
			unassigned := unassignedLiterals(cls, e.assignment)
			switch len(unassigned) {
			case 0:
				e.recordConflict(cls, st)
				return false
			case 1:
				lit := unassigned[0]
				v, val := varOf(lit), lit > 0
				e.assignment[v] = val
				e.heap.remove(v)
				e.stack = append(e.stack, frame{v: v, value: val, implied: true})
				e.stats.UnitPropagations++
				changed = true
			}
		}
		if !changed {
			return true
		}
	}
}

func (e *Engine) recordConflict(cls clause, st *store.Store) {
	e.stats.Conflicts++
	for _, lit := range cls {
		e.bumpScore(varOf(lit), 1.0, st)
	}
	cp := append(clause(nil), cls...)
	if st.AddLearnedClause(cp) {
		e.clauses = append(e.clauses, cp)
		e.stats.LearnedClauses++
	}
	if e.logger.Writer() != io.Discard {
		e.logger.Printf("cdcl: conflict at clause %v\n%# v", cls, pretty.Formatter(e.stack))
	}
}

func (e *Engine) bumpScore(v int, delta float64, st *store.Store) {
	st.UpdateVariableScore(v, delta)
	e.scores[v] += delta
	e.heap.setScore(v, e.scores[v])
}

// maybeRestart clears the assignment and decision stack every time
// the conflict count crosses a multiple of 100. Learned clauses and
// scores persist across the restart.
func (e *Engine) maybeRestart(st *store.Store) {
	for e.stats.Conflicts >= e.nextRestartAt {
		e.assignment = make(map[int]bool, len(e.variables))
		e.stack = nil
		e.stats.Restarts++
		e.rebuildHeap()
		e.nextRestartAt += 100
		e.logger.Printf("cdcl: restart #%d at %d conflicts", e.stats.Restarts, e.stats.Conflicts)
	}
}

// maybeDecay subtracts 0.1 from every variable's score every time the
// conflict count crosses a multiple of 50.
func (e *Engine) maybeDecay(st *store.Store) {
	for e.stats.Conflicts >= e.nextDecayAt {
		for _, v := range e.variables {
			st.UpdateVariableScore(v, -0.1)
			e.scores[v] -= 0.1
			e.heap.setScore(v, e.scores[v])
		}
		e.nextDecayAt += 50
	}
}

// pickVariable selects the next unassigned variable and its first-try
// polarity: a hinted variable (smallest id among those hinted) takes
// priority; otherwise the unassigned variable with maximum activity
// score (ties to smallest id, via the heap) is chosen and tried true
// first.
func (e *Engine) pickVariable() (v int, polarity bool) {
	for _, cand := range e.variables {
		if _, assigned := e.assignment[cand]; assigned {
			continue
		}
		if hint, ok := e.hints[cand]; ok {
			return cand, hint
		}
	}
	return e.heap.peek(), true
}

func (e *Engine) pushDecision(v int, polarity bool) {
	e.assignment[v] = polarity
	e.heap.remove(v)
	e.stack = append(e.stack, frame{v: v, value: polarity})
	e.stats.Decisions++
}

// backtrack implements chronological backtracking: pop implied frames
// off the top, unassigning their variables, until a decision frame is
// reached. If that decision hasn't yet been tried both ways, flip its
// polarity and resume from there. Otherwise it, too, is popped and the
// search continues scanning for an earlier untried decision. backtrack
// reports false once the stack empties with no untried decision left,
// meaning the formula is unsolved by CDCL.
func (e *Engine) backtrack() bool {
	for len(e.stack) > 0 {
		top := e.stack[len(e.stack)-1]
		if top.implied {
			delete(e.assignment, top.v)
			e.heap.setScore(top.v, e.scores[top.v])
			e.heap.push(top.v)
			e.stack = e.stack[:len(e.stack)-1]
			continue
		}
		if !top.triedBoth {
			top.value = !top.value
			top.triedBoth = true
			e.assignment[top.v] = top.value
			e.stack[len(e.stack)-1] = top
			return true
		}
		delete(e.assignment, top.v)
		e.heap.setScore(top.v, e.scores[top.v])
		e.heap.push(top.v)
		e.stack = e.stack[:len(e.stack)-1]
	}
	return false
}

func (e *Engine) complete() bool {
	return len(e.assignment) == len(e.variables)
}

func clauseSatisfied(c clause, assignment map[int]bool) bool {
	for _, lit := range c {
		if val, ok := assignment[varOf(lit)]; ok && val == (lit > 0) {
			return true
		}
	}
	return false
}

// unassignedLiterals returns the literals of c whose variable has no
// assignment yet.
func unassignedLiterals(c clause, assignment map[int]bool) []int {
	var out []int
	for _, lit := range c {
		if _, ok := assignment[varOf(lit)]; !ok {
			out = append(out, lit)
		}
	}
	return out
}

func varOf(lit int) int {
	if lit < 0 {
		return -lit
	}
	return lit
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
	return copyAssignment(e.winningAssignment)
}

// Stats returns a snapshot of the engine's statistics bundle.
func (e *Engine) Stats() map[string]interface{} {
	return map[string]interface{}{
		"conflicts":         e.stats.Conflicts,
		"decisions":         e.stats.Decisions,
		"unit_propagations": e.stats.UnitPropagations,
		"learned_clauses":   e.stats.LearnedClauses,
		"restarts":          e.stats.Restarts,
		"solved":            e.stats.Solved,
	}
}

// DeadlineExceededError is returned when ctx is done before Solve
// reaches a result. No partial assignment is committed by the caller
// in this case.
type DeadlineExceededError struct{}

func (e *DeadlineExceededError) Error() string { return "cdcl: deadline exceeded" }
