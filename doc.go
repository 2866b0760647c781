// Package hybridsat implements a portfolio SAT solver.
//
// Given a CNF formula, Controller.Solve tries a complete CDCL engine
// first, falls back to WalkSAT stochastic local search, and finally to
// brute-force enumeration for small variable scopes. All three engines
// read and write a persistent Store that carries learned clauses,
// variable activity scores, and assignment hints across runs.
package hybridsat
