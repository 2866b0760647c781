package hybridsat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixtureTest drives the testdata-driven fixture convention: filenames
// ending .sat.cnf must be SATISFIABLE, .unsat.cnf must be
// UNSATISFIABLE, through the whole Controller portfolio.
type fixtureTest struct {
	name string
	f    *Formula
	sat  bool
}

func loadFixtures(t *testing.T) []fixtureTest {
	t.Helper()
	filenames, err := filepath.Glob("testdata/*.cnf")
	if err != nil {
		t.Fatal(err)
	}
	var tests []fixtureTest
	for _, filename := range filenames {
		file, err := os.Open(filename)
		if err != nil {
			t.Fatal(err)
		}
		clauses, variables, err := ParseDIMACS(file)
		file.Close()
		if err != nil {
			t.Fatalf("bad fixture %s: %s", filename, err)
		}
		f, err := NewFormula(clauses, variables)
		if err != nil {
			t.Fatalf("bad fixture %s: %s", filename, err)
		}
		name := filepath.Base(filename)
		switch {
		case strings.HasSuffix(filename, ".sat.cnf"):
			tests = append(tests, fixtureTest{name, f, true})
		case strings.HasSuffix(filename, ".unsat.cnf"):
			tests = append(tests, fixtureTest{name, f, false})
		default:
			t.Fatalf("bad testdata CNF filename: %q", filename)
		}
	}
	return tests
}

func TestFixtures(t *testing.T) {
	for _, tt := range loadFixtures(t) {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			result, err := c.Solve(context.Background(), tt.f)
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			if result.Satisfiable != tt.sat {
				t.Fatalf("got satisfiable=%v, want %v", result.Satisfiable, tt.sat)
			}
			if tt.sat && !satisfiesAll(tt.f.Clauses, result.Assignment) {
				t.Fatalf("assignment %v does not satisfy %s", result.Assignment, tt.name)
			}
		})
	}
}
