// Package types defines the shared data model of the scanner: bug entries,
// severities and categories, workflow records, network failures, and the
// unified structured error type.
//
// All entities here are created at run start, mutated only by appends during
// the run, and serialized at run end. There is no persistence or
// update-in-place inside a run.
package types
