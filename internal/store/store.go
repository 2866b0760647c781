// Package store implements the shared knowledge store: a
// concurrency-safe, JSON-persisted cache of learned clauses, variable
// activity scores, flip counts, and assignment hints that the CDCL and
// WalkSAT engines read on entry and write on exit. It is the only
// shared mutable resource in the solver (see the concurrency model in
// the design doc): every access, read or write, holds a single mutex
// for the duration of one method call, and every getter returns a deep
// copy that's safe for the caller to mutate.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// Store is the persistent, concurrency-safe knowledge cache shared by
// all engines in a controller invocation.
type Store struct {
	mu   sync.Mutex
	path string

	learnedClauses    [][]int
	failedAssignments []map[int]bool
	unsatScopes       [][]int
	variableScores    map[int]float64
	flipHistory       map[int]int
	assignmentHints   map[int]bool
}

// New creates a Store backed by the JSON document at path. The store
// starts empty; call Load to populate it from disk.
func New(path string) *Store {
	return &Store{
		path:            path,
		variableScores:  make(map[int]float64),
		flipHistory:     make(map[int]int),
		assignmentHints: make(map[int]bool),
	}
}

// AddLearnedClause inserts clause if no existing learned clause is
// element-wise equal to it. It reports whether the clause was added.
func (s *Store) AddLearnedClause(clause []int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.learnedClauses {
		if clauseEqual(existing, clause) {
			return false
		}
	}
	cp := make([]int, len(clause))
	copy(cp, clause)
	s.learnedClauses = append(s.learnedClauses, cp)
	return true
}

func clauseEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LearnedClauses returns a deep-copy snapshot of all learned clauses.
func (s *Store) LearnedClauses() [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]int, len(s.learnedClauses))
	for i, c := range s.learnedClauses {
		cp := make([]int, len(c))
		copy(cp, c)
		out[i] = cp
	}
	return out
}

// AddFailedAssignment records a dead-end partial assignment. Entries
// are purely informational: nothing in propagation consults them.
func (s *Store) AddFailedAssignment(assignment map[int]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedAssignments = append(s.failedAssignments, copyBoolMap(assignment))
}

// FailedAssignments returns a deep-copy snapshot.
func (s *Store) FailedAssignments() []map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[int]bool, len(s.failedAssignments))
	for i, a := range s.failedAssignments {
		out[i] = copyBoolMap(a)
	}
	return out
}

// AddUnsatScope records a sorted variable tuple proven UNSAT by the
// brute-force enumerator.
func (s *Store) AddUnsatScope(scope []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]int, len(scope))
	copy(cp, scope)
	s.unsatScopes = append(s.unsatScopes, cp)
}

// UnsatScopes returns a deep-copy snapshot.
func (s *Store) UnsatScopes() [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]int, len(s.unsatScopes))
	for i, c := range s.unsatScopes {
		cp := make([]int, len(c))
		copy(cp, c)
		out[i] = cp
	}
	return out
}

// UpdateVariableScore additively adjusts var's activity score by
// delta. Negative deltas (decay) are allowed; there is no upper or
// lower bound.
func (s *Store) UpdateVariableScore(v int, delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variableScores[v] += delta
}

// VariableScores returns a deep-copy snapshot. A variable absent from
// the map has an implicit score of 0.
func (s *Store) VariableScores() map[int]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]float64, len(s.variableScores))
	for v, score := range s.variableScores {
		out[v] = score
	}
	return out
}

// IncrementFlipCount bumps var's WalkSAT flip counter by one.
func (s *Store) IncrementFlipCount(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flipHistory[v]++
}

// FlipHistory returns a deep-copy snapshot.
func (s *Store) FlipHistory() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int, len(s.flipHistory))
	for v, n := range s.flipHistory {
		out[v] = n
	}
	return out
}

// SetAssignmentHint records a preferred polarity for var, carried
// across runs. Hints are advisory only; they carry no correctness
// obligation.
func (s *Store) SetAssignmentHint(v int, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignmentHints[v] = value
}

// AssignmentHints returns a deep-copy snapshot.
func (s *Store) AssignmentHints() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyBoolMap(s.assignmentHints)
}

func copyBoolMap(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Reset clears every field atomically, as if the store had just been
// created (but keeps the configured persistence path).
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learnedClauses = nil
	s.failedAssignments = nil
	s.unsatScopes = nil
	s.variableScores = make(map[int]float64)
	s.flipHistory = make(map[int]int)
	s.assignmentHints = make(map[int]bool)
}

// document is the on-disk JSON shape. Map keys are decimal variable
// ids encoded as strings, per the persistence format contract; note
// the singular "assignment_hint" key, which names the same field the
// rest of this package calls assignmentHints (plural).
type document struct {
	LearnedClauses    [][]int           `json:"learned_clauses"`
	FailedAssignments []map[string]bool `json:"failed_assignments"`
	UnsatScopes       [][]int           `json:"unsat_scopes"`
	VariableScores    map[string]float64 `json:"variable_scores"`
	FlipHistory       map[string]int    `json:"flip_history"`
	AssignmentHint    map[string]bool   `json:"assignment_hint"`
}

// Save persists the store to its configured path. State is read under
// the lock and the document is written to disk outside it, via a
// write-to-temp-file-then-rename so a concurrent reader never observes
// a partially written file. Concurrent Save calls serialize on the
// same OS-level rename semantics; the in-memory read is already
// serialized by s.mu.
//
// A Store constructed with an empty path (New("")) is in-memory only:
// Save is a no-op.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	doc := s.snapshotDocument()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".shared_memory-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	return nil
}

func (s *Store) snapshotDocument() document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := document{
		LearnedClauses:    make([][]int, len(s.learnedClauses)),
		FailedAssignments: make([]map[string]bool, len(s.failedAssignments)),
		UnsatScopes:       make([][]int, len(s.unsatScopes)),
		VariableScores:    make(map[string]float64, len(s.variableScores)),
		FlipHistory:       make(map[string]int, len(s.flipHistory)),
		AssignmentHint:    make(map[string]bool, len(s.assignmentHints)),
	}
	for i, c := range s.learnedClauses {
		cp := make([]int, len(c))
		copy(cp, c)
		doc.LearnedClauses[i] = cp
	}
	for i, a := range s.failedAssignments {
		m := make(map[string]bool, len(a))
		for v, b := range a {
			m[strconv.Itoa(v)] = b
		}
		doc.FailedAssignments[i] = m
	}
	for i, c := range s.unsatScopes {
		cp := make([]int, len(c))
		copy(cp, c)
		doc.UnsatScopes[i] = cp
	}
	for v, score := range s.variableScores {
		doc.VariableScores[strconv.Itoa(v)] = score
	}
	for v, n := range s.flipHistory {
		doc.FlipHistory[strconv.Itoa(v)] = n
	}
	for v, b := range s.assignmentHints {
		doc.AssignmentHint[strconv.Itoa(v)] = b
	}
	return doc
}

// Load populates the store from its configured path. A missing file is
// not an error: the store is left empty (as if just constructed).
// Missing keys within an existing document default to empty, per the
// persistence format contract.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode store file: %w", err)
	}

	learnedClauses := make([][]int, len(doc.LearnedClauses))
	copy(learnedClauses, doc.LearnedClauses)

	failedAssignments := make([]map[int]bool, len(doc.FailedAssignments))
	for i, m := range doc.FailedAssignments {
		fa, err := stringKeyedBoolMap(m)
		if err != nil {
			return fmt.Errorf("decode failed_assignments[%d]: %w", i, err)
		}
		failedAssignments[i] = fa
	}

	unsatScopes := make([][]int, len(doc.UnsatScopes))
	copy(unsatScopes, doc.UnsatScopes)

	variableScores := make(map[int]float64, len(doc.VariableScores))
	for k, v := range doc.VariableScores {
		iv, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("decode variable_scores key %q: %w", k, err)
		}
		variableScores[iv] = v
	}

	flipHistory := make(map[int]int, len(doc.FlipHistory))
	for k, v := range doc.FlipHistory {
		iv, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("decode flip_history key %q: %w", k, err)
		}
		flipHistory[iv] = v
	}

	assignmentHints, err := stringKeyedBoolMap(doc.AssignmentHint)
	if err != nil {
		return fmt.Errorf("decode assignment_hint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.learnedClauses = learnedClauses
	s.failedAssignments = failedAssignments
	s.unsatScopes = unsatScopes
	s.variableScores = variableScores
	s.flipHistory = flipHistory
	s.assignmentHints = assignmentHints
	return nil
}

func stringKeyedBoolMap(m map[string]bool) (map[int]bool, error) {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		iv, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[iv] = v
	}
	return out, nil
}

// SortedUnsatScope is a convenience used by the brute-force engine to
// build the sorted tuple it records on failure.
func SortedUnsatScope(vars []int) []int {
	cp := make([]int, len(vars))
	copy(cp, vars)
	sort.Ints(cp)
	return cp
}
