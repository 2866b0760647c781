package walksat

import (
	"math/rand"
	"testing"

	"github.com/akshat4474/hybridsat/internal/store"
)

func TestSolveSatisfiable(t *testing.T) {
	// (x1 v x2) and (-x1 v x2) and (x1 v -x2): satisfied only by x1=true,x2=true.
	clauses := []clause{
		{1, 2},
		{-1, 2},
		{1, -2},
	}
	vars := []int{1, 2}
	for seed := int64(0); seed < 20; seed++ {
		e := New(WithRand(rand.New(rand.NewSource(seed))))
		st := store.New("")
		ok, err := e.Solve(clauses, vars, st)
		if err != nil {
			t.Fatalf("[seed=%d] Solve: %v", seed, err)
		}
		if !ok {
			t.Fatalf("[seed=%d] got UNSAT, want SAT", seed)
		}
		assignment := e.Assignment()
		if !assignment[1] || !assignment[2] {
			t.Fatalf("[seed=%d] assignment %v does not satisfy the formula", seed, assignment)
		}
	}
}

func TestSolveZeroVariables(t *testing.T) {
	e := New()
	st := store.New("")
	ok, err := e.Solve(nil, nil, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !ok {
		t.Fatal("got UNSAT for a zero-variable formula, want trivially SAT")
	}
}

func TestFlipHistoryMonotonic(t *testing.T) {
	clauses := []clause{{1, 2}, {-1, 2}, {1, -2}}
	vars := []int{1, 2}
	e := New(WithRand(rand.New(rand.NewSource(7))), WithMaxFlips(50))
	st := store.New("")
	if _, err := e.Solve(clauses, vars, st); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	total := 0
	for _, n := range st.FlipHistory() {
		if n < 0 {
			t.Fatalf("flip count went negative: %d", n)
		}
		total += n
	}
	if got, want := e.Stats()["flips"], total; got != want {
		t.Fatalf("engine reported %v flips, store flip_history sums to %v", got, want)
	}
}

func TestExhaustsFlipsOnUnsat(t *testing.T) {
	clauses := []clause{{1}, {-1}}
	vars := []int{1}
	e := New(WithRand(rand.New(rand.NewSource(1))), WithMaxFlips(20))
	st := store.New("")
	ok, err := e.Solve(clauses, vars, st)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if ok {
		t.Fatal("got SAT for an unsatisfiable formula")
	}
}
