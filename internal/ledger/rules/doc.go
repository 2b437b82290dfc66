// Package rules implements the deterministic fold that turns the event
// journal into materialized ledger state.
//
// Every handler is a total function of (current state, event payload): no
// I/O, no randomness, no clock other than the event's own timestamp. Folds
// are all-or-nothing; a handler checks every precondition before its first
// mutation, so a typed failure leaves the state untouched. Replaying the
// same journal from an empty state therefore always produces identical
// state, which is the core correctness property of the ledger.
package rules
