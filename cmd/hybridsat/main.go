// Command hybridsat is a toy portfolio SAT solver CLI: it reads a
// DIMACS CNF file (or generates a random one), escalates through
// hybridsat.Controller's CDCL/WalkSAT/brute-force portfolio, and
// prints the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/akshat4474/hybridsat"
	"github.com/akshat4474/hybridsat/internal/cnfgen"
	"github.com/akshat4474/hybridsat/internal/runlog"
)

func main() {
	log.SetFlags(0)

	cnfPath := flag.String("cnf", "", "path to an existing CNF file")
	generate := flag.Bool("generate", false, "generate a random CNF before solving")
	numVars := flag.Int("vars", 20, "number of variables for a generated CNF")
	numClauses := flag.Int("clauses", 85, "number of clauses for a generated CNF")
	outPath := flag.String("out", "generated.cnf", "output path for a generated CNF")
	seed := flag.Int64("seed", 1, "PRNG seed for a generated CNF")
	bruteLimit := flag.Int("brute_limit", 10, "max variables allowed for the brute-force solver")
	storePath := flag.String("store", "shared_memory.json", "path to the persistent knowledge store")
	runLogPath := flag.String("runlog", "solver_log.csv", "path to the CSV run log")
	verbose := flag.Bool("v", false, "verbose mode: trace engine internals to stderr")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `hybridsat: a toy hybrid SAT solver.

Usage:

  hybridsat -cnf input.cnf
  hybridsat -generate -vars 20 -clauses 85 -out generated.cnf

hybridsat reads a problem in the DIMACS CNF format, or generates a
random one, and solves it with a CDCL/WalkSAT/brute-force portfolio
that shares learned clauses and heuristics across runs via a
persistent store.

`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*generate && *cnfPath == "" {
		fmt.Fprintln(os.Stderr, "Please provide either -cnf <path> or -generate")
		flag.Usage()
		os.Exit(2)
	}

	sourcePath := *cnfPath
	if *generate {
		fmt.Printf("Generating CNF: %d vars, %d clauses\n", *numVars, *numClauses)
		rng := rand.New(rand.NewSource(*seed))
		clauses, meta := cnfgen.Generate(rng, *seed, *numVars, *numClauses, cnfgen.DefaultClauseSize)
		out, err := os.Create(*outPath)
		if err != nil {
			log.Fatal(err)
		}
		err = hybridsat.WriteDIMACS(out, clauses)
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Generated %s: clause-to-variable ratio %.2f\n", *outPath, meta.Ratio)
		sourcePath = *outPath
	}

	in, err := os.Open(sourcePath)
	if err != nil {
		log.Fatal(err)
	}
	clauses, variables, err := hybridsat.ParseDIMACS(in)
	in.Close()
	if err != nil {
		log.Fatalln("Error reading input file as DIMACS CNF:", err)
	}
	f, err := hybridsat.NewFormula(clauses, variables)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("CNF File:", sourcePath)
	fmt.Println("Variables:", f.NumVars())
	fmt.Println("Clauses:", f.NumClauses())
	if f.NumVars() > 0 {
		fmt.Printf("Clause-to-Variable Ratio: %.2f\n", f.ClauseVarRatio())
	}

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stderr, "", 0)
	} else {
		logger = log.New(io.Discard, "", 0)
	}

	controller := hybridsat.New(
		hybridsat.WithStorePath(*storePath),
		hybridsat.WithConfig(hybridsat.Config{
			BruteScopeLimit: *bruteLimit,
			Debug:           *verbose,
			Logger:          logger,
		}),
	)

	result, err := controller.Solve(context.Background(), f)
	if err != nil {
		log.Fatal(err)
	}

	if err := logRun(*runLogPath, sourcePath, result); err != nil {
		log.Println("warning: failed to write run log:", err)
	}

	if !result.Satisfiable {
		fmt.Println("UNSATISFIABLE or no solver succeeded")
		os.Exit(1)
	}
	fmt.Println("SATISFIABLE")
	fmt.Println("Solved by:", result.SolvedBy)
	fmt.Println("Assignment:", formatAssignment(result.Assignment))
}

func logRun(path, sourcePath string, result hybridsat.Result) error {
	l := runlog.New(path)
	return l.Log(runlog.Entry{
		Timestamp:       time.Now().Format(time.RFC3339),
		SourceFile:      sourcePath,
		Solver:          result.SolvedBy,
		Status:          statusOf(result),
		Variables:       result.Variables,
		Clauses:         result.Clauses,
		ClauseVarRatio:  result.ClauseVarRatio,
		AssignmentFound: result.Satisfiable,
		RuntimeSec:      result.RuntimeSec,
		Stats:           result.Stats,
	})
}

func statusOf(result hybridsat.Result) string {
	if result.Satisfiable {
		return "success"
	}
	return "failure"
}

func formatAssignment(assignment map[int]bool) string {
	vars := make([]int, 0, len(assignment))
	for v := range assignment {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	out := ""
	for i, v := range vars {
		if i > 0 {
			out += " "
		}
		lit := v
		if !assignment[v] {
			lit = -v
		}
		out += fmt.Sprint(lit)
	}
	return out
}
