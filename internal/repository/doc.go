// Package repository implements the Market State Repository.
//
// The repository is the sole owner of the authoritative instrument records,
// keyed by ISIN. All other components reference instruments by identity and
// read them through Snapshot; nobody holds a second mutable copy.
//
// Every Apply* entry point compares before mutating and emits a change
// notification only when observable state actually changed. Notifications
// are dispatched to a single registered sink after the data lock has been
// released, so downstream sends never run under the lock.
package repository
