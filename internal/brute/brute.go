// Package brute implements the exhaustive brute-force enumerator (C2):
// a truth-table search over small variable scopes, used by the
// controller as a last-resort, guaranteed-complete fallback.
package brute

import (
	"fmt"
	"io"
	"log"

	"github.com/akshat4474/hybridsat/internal/store"
)

// DefaultScopeLimit is the default maximum variable count the engine
// will enumerate over.
const DefaultScopeLimit = 14

// Stats reports engine-internal counters, for informational purposes
// only; their presence and meaning may change between versions.
type Stats struct {
	Evaluations      int
	AssignmentsTested int
	Solved           bool
}

// Engine is the brute-force enumerator. It satisfies the engine
// capability surface (Solve, Assignment, Stats) used by the
// controller.
type Engine struct {
	scopeLimit int
	logger     *log.Logger

	assignment map[int]bool
	stats      Stats
}

// New constructs an Engine with the given scope limit (0 selects
// DefaultScopeLimit), for enumeration over variables. Construction
// fails with a *ScopeExceededError if len(variables) exceeds the
// limit, matching the original tool's constructor-time precondition
// check: a caller can never hold an Engine it isn't allowed to run.
func New(variables []int, scopeLimit int, logger *log.Logger) (*Engine, error) {
	if scopeLimit <= 0 {
		scopeLimit = DefaultScopeLimit
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if len(variables) > scopeLimit {
		return nil, &ScopeExceededError{NumVars: len(variables), ScopeLimit: scopeLimit}
	}
	return &Engine{scopeLimit: scopeLimit, logger: logger}, nil
}

type clause = []int

// Solve enumerates all 2^|variables| assignments in lexicographic
// order over the sorted variable list, returning the first one that
// satisfies every clause. If no satisfying assignment exists, the
// sorted variable tuple is recorded into the store's unsat_scopes.
//
// variables must be within the scope limit given to New; that
// precondition is checked once, at construction.
func (e *Engine) Solve(clauses []clause, variables []int, st *store.Store) (bool, error) {
	e.stats = Stats{}
	n := len(variables)
	total := 1 << uint(n)
	e.logger.Printf("brute: enumerating %d assignments over %d variables", total, n)
	assignment := make(map[int]bool, n)
	for i := 0; i < total; i++ {
		for bit, v := range variables {
			assignment[v] = i&(1<<uint(n-1-bit)) != 0
		}
		e.stats.AssignmentsTested++
		if e.evaluate(clauses, assignment) {
			e.assignment = copyAssignment(assignment)
			e.stats.Solved = true
			return true, nil
		}
	}
	st.AddUnsatScope(store.SortedUnsatScope(variables))
	return false, nil
}

// evaluate reports whether every clause is satisfied under assignment,
// counting each clause it inspects.
func (e *Engine) evaluate(clauses []clause, assignment map[int]bool) bool {
	for _, cls := range clauses {
		e.stats.Evaluations++
		if !clauseSatisfied(cls, assignment) {
			return false
		}
	}
	return true
}

func clauseSatisfied(cls clause, assignment map[int]bool) bool {
	for _, lit := range cls {
		v, neg := lit, false
		if v < 0 {
			v, neg = -v, true
		}
		if assignment[v] != neg {
			return true
		}
	}
	return false
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

// Stats returns a snapshot of the engine's statistics bundle, keyed
// the way the controller expects for its stat_-prefixed report.
func (e *Engine) Stats() map[string]interface{} {
	return map[string]interface{}{
		"evaluations":       e.stats.Evaluations,
		"assignments_tested": e.stats.AssignmentsTested,
		"solved":            e.stats.Solved,
	}
}

// ScopeExceededError is returned when the enumerator is invoked over
// more variables than its scope limit allows.
type ScopeExceededError struct {
	NumVars    int
	ScopeLimit int
}

func (e *ScopeExceededError) Error() string {
	return fmt.Sprintf("brute: %d variables exceeds scope limit %d", e.NumVars, e.ScopeLimit)
}
