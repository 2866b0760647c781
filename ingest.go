package hybridsat

import (
	"fmt"
	"sort"
)

// Clause is an ordered sequence of literals, read as a disjunction. A
// zero literal never appears; it is reserved by the DIMACS format as a
// clause terminator and is stripped by the parser collaborator before
// it ever reaches Formula.
type Clause []int

// Formula is a CNF formula: a list of clauses over a variable universe.
// Variables is the sorted, duplicate-free list of variable ids that
// appear (as |literal|) in Clauses.
type Formula struct {
	Clauses   []Clause
	Variables []int
}

// NumVars reports the size of the formula's variable universe.
func (f *Formula) NumVars() int { return len(f.Variables) }

// NumClauses reports the number of clauses.
func (f *Formula) NumClauses() int { return len(f.Clauses) }

// ClauseVarRatio reports the clause-to-variable ratio the controller
// includes in its per-run report. A formula with zero variables has an
// undefined ratio and reports 0.
func (f *Formula) ClauseVarRatio() float64 {
	if len(f.Variables) == 0 {
		return 0
	}
	return float64(len(f.Clauses)) / float64(len(f.Variables))
}

// NewFormula validates a pre-parsed (clauses, variables) pair from the
// DIMACS ingest collaborator (see §6 of the design) and returns a
// Formula. It never re-derives Variables from Clauses: the caller
// (usually a CNF parser) is the authority on the variable universe,
// since DIMACS problem lines may declare variables that don't appear
// in any clause.
//
// Validation rules, all of which fail with *MalformedFormulaError:
//   - no literal is zero
//   - every |literal| appears in variables
//   - variables is sorted ascending with no duplicates
func NewFormula(clauses [][]int, variables []int) (*Formula, error) {
	for i := 1; i < len(variables); i++ {
		if variables[i] <= variables[i-1] {
			return nil, &MalformedFormulaError{
				Msg: fmt.Sprintf("variables not sorted without duplicates at index %d: %d <= %d", i, variables[i], variables[i-1]),
			}
		}
	}
	known := make(map[int]struct{}, len(variables))
	for _, v := range variables {
		known[v] = struct{}{}
	}
	f := &Formula{
		Clauses:   make([]Clause, len(clauses)),
		Variables: variables,
	}
	for i, cls := range clauses {
		c := make(Clause, len(cls))
		for j, lit := range cls {
			if lit == 0 {
				return nil, &MalformedFormulaError{
					Msg: fmt.Sprintf("clause %d contains a zero literal", i),
				}
			}
			v := lit
			if v < 0 {
				v = -v
			}
			if _, ok := known[v]; !ok {
				return nil, &MalformedFormulaError{
					Msg: fmt.Sprintf("clause %d refers to variable %d, which is not in the declared variable list", i, v),
				}
			}
			c[j] = lit
		}
		f.Clauses[i] = c
	}
	return f, nil
}

// deriveVariables computes the sorted union of |literal| over clauses.
// ParseDIMACS and WriteDIMACS use it to derive the variable universe
// from the clauses themselves.
func deriveVariables(clauses [][]int) []int {
	seen := make(map[int]struct{})
	for _, cls := range clauses {
		for _, lit := range cls {
			v := lit
			if v < 0 {
				v = -v
			}
			seen[v] = struct{}{}
		}
	}
	vars := make([]int, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	return vars
}

// Satisfied reports whether clause c is satisfied under assignment.
// An unassigned variable makes its literal evaluate to false for this
// purpose; callers that need partial-assignment semantics (e.g. unit
// propagation) inspect clauses themselves rather than calling this.
func (c Clause) Satisfied(assignment map[int]bool) bool {
	for _, lit := range c {
		v := lit
		neg := false
		if v < 0 {
			v = -v
			neg = true
		}
		val, ok := assignment[v]
		if !ok {
			continue
		}
		if val != neg {
			return true
		}
	}
	return false
}
