package hybridsat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/akshat4474/hybridsat/internal/brute"
	"github.com/akshat4474/hybridsat/internal/cdcl"
	"github.com/akshat4474/hybridsat/internal/store"
	"github.com/akshat4474/hybridsat/internal/walksat"
)

// Solver names used in Result.SolvedBy and the run log's "solver"
// column.
const (
	SolverCDCL    = "cdcl"
	SolverWalkSAT = "walksat"
	SolverBrute   = "brute"
	SolverNone    = "none"
)

// Config configures a Controller. The zero value is valid and applies
// the same defaults as the original project's CLI: a brute-force scope
// limit of 10 variables and WalkSAT's own package defaults.
type Config struct {
	// BruteScopeLimit is the maximum variable count the brute-force
	// enumerator is allowed to run over. 0 selects the default (10,
	// matching the original tool's --brute_limit default).
	BruteScopeLimit int
	// MaxFlips overrides WalkSAT's default flip budget. 0 selects the
	// WalkSAT package default.
	MaxFlips int
	// Debug, when true, gates verbose logging of the escalation
	// sequence in addition to whatever Logger already writes.
	Debug bool
	// Logger receives engine-internal tracing (conflicts, restarts,
	// flip milestones) and the controller's own escalation narration.
	// A nil Logger discards output.
	Logger *log.Logger
}

const defaultBruteScopeLimit = 10

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithConfig sets the controller's configuration wholesale.
func WithConfig(cfg Config) Option { return func(c *Controller) { c.cfg = cfg } }

// WithStorePath opens (or creates) the shared knowledge store at path.
// Without this option the controller runs with an in-memory-only store
// that is never persisted to disk.
func WithStorePath(path string) Option {
	return func(c *Controller) { c.store = store.New(path) }
}

// Controller is the portfolio orchestrator (C5): it escalates through
// CDCL, then WalkSAT, then (scope permitting) brute-force enumeration,
// sharing one Store across all three and persisting it exactly once
// per Solve call regardless of outcome.
type Controller struct {
	cfg    Config
	store  *store.Store
	loaded bool
}

// New constructs a Controller, applying opts over the defaults. With no
// WithStorePath option, the store is in-memory only.
func New(opts ...Option) *Controller {
	c := &Controller{store: store.New("")}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.BruteScopeLimit <= 0 {
		c.cfg.BruteScopeLimit = defaultBruteScopeLimit
	}
	if c.cfg.Logger == nil {
		c.cfg.Logger = log.New(io.Discard, "", 0)
	}
	return c
}

// Result reports the outcome of a Solve call.
type Result struct {
	Satisfiable    bool
	SolvedBy       string // one of the Solver* constants
	Assignment     map[int]bool
	Variables      int
	Clauses        int
	ClauseVarRatio float64
	RuntimeSec     float64
	Stats          map[string]interface{}
}

// Solve loads the controller's store (if backed by a path and not
// already loaded), escalates through the engine portfolio, and
// persists the store exactly once before returning — on success,
// failure, or error alike, mirroring the original tool's
// always-save-before-reporting behavior. A load failure degrades to an
// empty store with a logged warning rather than aborting the call.
//
// ctx bounds the CDCL stage only: a deadline there is an ordinary
// escalation-worthy failure, not a reason to abort the whole
// portfolio, so WalkSAT and brute-force still get their turn.
// WalkSAT and brute-force otherwise run to their own internal
// completion criteria (flip budget, full enumeration), which is the
// escalation policy described in the design doc.
func (c *Controller) Solve(ctx context.Context, f *Formula) (Result, error) {
	start := time.Now()

	if !c.loaded {
		if err := c.store.Load(); err != nil {
			c.cfg.Logger.Printf("controller: failed to load store, continuing with empty state: %v", err)
		}
		c.loaded = true
	}

	clauses := make([][]int, len(f.Clauses))
	for i, cls := range f.Clauses {
		clauses[i] = cls
	}

	result := Result{
		Variables:      f.NumVars(),
		Clauses:        f.NumClauses(),
		ClauseVarRatio: f.ClauseVarRatio(),
	}

	c.cfg.Logger.Printf("controller: loaded %d learned clauses, %d variable scores, %d assignment hints",
		len(c.store.LearnedClauses()), len(c.store.VariableScores()), len(c.store.AssignmentHints()))

	result.SolvedBy = SolverNone
	solvedBy := SolverNone

	solved, assignment, stats, solveErr := c.runCDCL(ctx, clauses, f.Variables)
	if solveErr == nil {
		solvedBy = SolverCDCL
	}

	if solveErr == nil && !solved {
		solved, assignment, stats = c.runWalkSAT(clauses, f.Variables)
		solvedBy = SolverWalkSAT
	}

	if solveErr == nil && !solved {
		if len(f.Variables) <= c.cfg.BruteScopeLimit {
			solved, assignment, stats, solveErr = c.runBrute(clauses, f.Variables)
			solvedBy = SolverBrute
		} else if c.cfg.Debug {
			c.cfg.Logger.Printf("controller: brute force is SKIPPED (variables = %d, limit = %d)",
				len(f.Variables), c.cfg.BruteScopeLimit)
		}
	}

	result.Stats = stats
	if solveErr == nil {
		if solved {
			result.Satisfiable = true
			result.SolvedBy = solvedBy
			result.Assignment = assignment
		} else {
			result.SolvedBy = SolverNone
		}
	}

	result.RuntimeSec = time.Since(start).Seconds()

	if saveErr := c.store.Save(); saveErr != nil {
		if solveErr == nil {
			solveErr = &StorePersistenceError{Op: "save", Err: saveErr}
		}
	}

	if solveErr != nil {
		return result, solveErr
	}
	return result, nil
}

func (c *Controller) runCDCL(ctx context.Context, clauses [][]int, variables []int) (bool, map[int]bool, map[string]interface{}, error) {
	c.cfg.Logger.Printf("controller: running CDCL")
	e := cdcl.New(cdcl.WithLogger(c.cfg.Logger))
	ok, err := e.Solve(ctx, clauses, variables, c.store)
	if err != nil {
		var deadline *cdcl.DeadlineExceededError
		if errors.As(err, &deadline) {
			// A deadline is an ordinary escalation-worthy failure, not a
			// reason to abort the whole portfolio: WalkSAT and
			// brute-force still get their turn.
			c.cfg.Logger.Printf("controller: CDCL hit its deadline, escalating")
			return false, nil, e.Stats(), nil
		}
		return false, nil, nil, fmt.Errorf("cdcl: %w", err)
	}
	if ok {
		c.cfg.Logger.Printf("controller: CDCL solved the problem")
		return true, e.Assignment(), e.Stats(), nil
	}
	c.cfg.Logger.Printf("controller: CDCL failed to solve")
	return false, nil, e.Stats(), nil
}

func (c *Controller) runWalkSAT(clauses [][]int, variables []int) (bool, map[int]bool, map[string]interface{}) {
	c.cfg.Logger.Printf("controller: running WalkSAT")
	var opts []walksat.Option
	opts = append(opts, walksat.WithLogger(c.cfg.Logger))
	if c.cfg.MaxFlips > 0 {
		opts = append(opts, walksat.WithMaxFlips(c.cfg.MaxFlips))
	}
	e := walksat.New(opts...)
	ok, err := e.Solve(clauses, variables, c.store)
	if err != nil {
		// WalkSAT has no fallible paths today; surfaced defensively
		// in case a future option introduces one.
		c.cfg.Logger.Printf("controller: walksat returned an unexpected error: %v", err)
		return false, nil, e.Stats()
	}
	if ok {
		c.cfg.Logger.Printf("controller: WalkSAT solved the problem")
		assignment := e.Assignment()
		for v, val := range assignment {
			c.store.SetAssignmentHint(v, val)
		}
		return true, assignment, e.Stats()
	}
	c.cfg.Logger.Printf("controller: WalkSAT failed to solve")
	return false, nil, e.Stats()
}

func (c *Controller) runBrute(clauses [][]int, variables []int) (bool, map[int]bool, map[string]interface{}, error) {
	if c.cfg.Debug {
		c.cfg.Logger.Printf("controller: brute force is ENABLED (variables = %d, limit = %d)", len(variables), c.cfg.BruteScopeLimit)
	}
	e, err := brute.New(variables, c.cfg.BruteScopeLimit, c.cfg.Logger)
	if err != nil {
		var scopeErr *brute.ScopeExceededError
		if errors.As(err, &scopeErr) {
			return false, nil, nil, &ScopeExceededError{NumVars: scopeErr.NumVars, ScopeLimit: scopeErr.ScopeLimit}
		}
		return false, nil, nil, fmt.Errorf("brute: %w", err)
	}
	ok, err := e.Solve(clauses, variables, c.store)
	if err != nil {
		return false, nil, nil, fmt.Errorf("brute: %w", err)
	}
	if ok {
		c.cfg.Logger.Printf("controller: brute force solved the problem")
		return true, e.Assignment(), e.Stats(), nil
	}
	c.cfg.Logger.Printf("controller: brute force failed or scope too large")
	return false, nil, e.Stats(), nil
}

// Store exposes the controller's shared knowledge store, mainly so
// callers (e.g. cmd/hybridsat) can report its contents or force a
// Reset between independent runs.
func (c *Controller) Store() *store.Store { return c.store }
