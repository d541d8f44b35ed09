// Package history summarizes and browses past test runs of a project.
//
// The Aggregator fans out one "list runs" call per test domain through
// Settle, keeps every domain that answered with at least one run and
// reports the rest as failures instead of failing the whole summary.
//
// The per-domain viewers are pure reductions over a run list (E2EStats,
// SmokeStats and friends), a Viewer that discards results superseded by a
// newer load, an ExpandState for nested run details, and Download for
// saving a single run as JSON.
package history
