package cdcl

import (
	"context"
	"testing"

	"github.com/akshat4474/hybridsat/internal/store"
)

func solutionSatisfies(clauses []clause, assignment map[int]bool) bool {
	for _, c := range clauses {
		if !clauseSatisfied(c, assignment) {
			return false
		}
	}
	return true
}

func TestSolveUnitClause(t *testing.T) {
	e := New()
	st := store.New("")
	ok, err := e.Solve(context.Background(), []clause{{1}}, []int{1}, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !ok {
		t.Fatal("got UNSAT, want SAT")
	}
	if got := e.Assignment(); !got[1] {
		t.Fatalf("Assignment = %v, want {1: true}", got)
	}
	if e.Stats()["decisions"].(int) != 0 {
		t.Fatalf("unit clause required %v decisions, want 0", e.Stats()["decisions"])
	}
}

func TestSolveDirectContradiction(t *testing.T) {
	e := New()
	st := store.New("")
	ok, err := e.Solve(context.Background(), []clause{{1}, {-1}}, []int{1}, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if ok {
		t.Fatal("got SAT for {1}, {-1}, want UNSAT")
	}
}

func TestSolveEmptyFormula(t *testing.T) {
	e := New()
	st := store.New("")
	ok, err := e.Solve(context.Background(), nil, nil, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !ok {
		t.Fatal("got UNSAT for an empty formula, want trivially SAT")
	}
	if got := e.Assignment(); len(got) != 0 {
		t.Fatalf("Assignment = %v, want empty", got)
	}
	if e.Stats()["decisions"].(int) != 0 {
		t.Fatalf("empty formula required %v decisions, want 0", e.Stats()["decisions"])
	}
}

func TestSolveExactlyOneOfThree(t *testing.T) {
	clauses := []clause{
		{1, 2, 3},
		{-1, -2},
		{-1, -3},
		{-2, -3},
	}
	vars := []int{1, 2, 3}
	e := New()
	st := store.New("")
	ok, err := e.Solve(context.Background(), clauses, vars, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !ok {
		t.Fatal("got UNSAT, want SAT")
	}
	assignment := e.Assignment()
	if !solutionSatisfies(clauses, assignment) {
		t.Fatalf("assignment %v does not satisfy the formula", assignment)
	}
}

func TestLearnedClausePersistsAcrossEngineInstances(t *testing.T) {
	clauses := []clause{{1}, {-1}}
	vars := []int{1}
	st := store.New("")

	New().Solve(context.Background(), clauses, vars, st)
	if got := st.LearnedClauses(); len(got) == 0 {
		t.Fatal("expected a learned clause after a conflict")
	}

	// A second engine sharing the store should see the clause it
	// already has, not re-derive and re-add it.
	before := len(st.LearnedClauses())
	New().Solve(context.Background(), clauses, vars, st)
	if got := len(st.LearnedClauses()); got != before {
		t.Fatalf("learned clause count changed from %d to %d across an identical rerun", before, got)
	}
}

func TestHintsSteerDecisionPolarity(t *testing.T) {
	clauses := []clause{{1, 2}}
	vars := []int{1, 2}
	st := store.New("")
	st.SetAssignmentHint(1, false)
	st.SetAssignmentHint(2, true)

	e := New()
	ok, err := e.Solve(context.Background(), clauses, vars, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !ok {
		t.Fatal("got UNSAT, want SAT")
	}
	assignment := e.Assignment()
	if assignment[1] != false {
		t.Fatalf("hinted variable 1 = %v, want the hinted false tried first", assignment[1])
	}
}

func TestRandom3SAT(t *testing.T) {
	// A fixed random 3-SAT instance, 6 vars: verify SAT with a valid
	// witness rather than depending on any particular search order.
	clauses := []clause{
		{1, 2, -3},
		{-1, 2, 3},
		{1, -2, 3},
		{-1, -2, -3},
		{4, 5, 6},
		{-4, 5, -6},
		{4, -5, 6},
		{-4, -5, -6},
		{1, 4},
		{-2, 5},
	}
	vars := []int{1, 2, 3, 4, 5, 6}
	e := New()
	st := store.New("")
	ok, err := e.Solve(context.Background(), clauses, vars, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !ok {
		t.Fatal("got UNSAT, want SAT")
	}
	if assignment := e.Assignment(); !solutionSatisfies(clauses, assignment) {
		t.Fatalf("assignment %v does not satisfy the formula", assignment)
	}
}
