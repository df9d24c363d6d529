/*
Package tally is the aggregation engine: it turns ledger records into
per-choice count and weight totals.

Tally is a read-only recomputation used for the live progress view of an
open item. FreezeItem runs inside the state machine's close transaction
and persists the snapshot into the item row, making the frozen copy the
source of truth once voting ends. There is no mutable accumulator: every
result is derived from the records present at call time.
*/
package tally
