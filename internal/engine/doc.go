// Package engine owns every mutation of the feature ledger. It checks phase
// transitions against the workflow table, runs the phase validators, records
// each change in the history log, and refreshes derived metrics afterwards.
//
// The engine assumes a single writer per project. Callers that may race (the
// CLI) serialise access with the ledger lock before calling in.
package engine
