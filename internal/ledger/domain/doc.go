// Package domain defines the materialized ledger entities: users,
// proposals, comments, and delegations. Every record here is derived
// exclusively by folding the event log; nothing in this package is a
// source of truth on its own.
package domain
