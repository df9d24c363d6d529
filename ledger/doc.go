/*
Package ledger is the durable, append-only vote store.

# Cast

Cast checks its preconditions in a fixed order - assembly not closed, item
open, voter logged in, no prior vote, choice valid - then appends one
record for the voter's home unit and one per linked unit, all sharing the
choice and timestamp, in a single transaction. Either the whole proxy
bundle lands or none of it does.

# Concurrency

Cast and the state machine's transitions share one coarse mutex. The
duplicate check runs inside the critical section, so two concurrent casts
for the same voter and item produce exactly one accepted vote and one
ErrDuplicateVote. The lock is acquired with a bounded TryLock retry loop;
exhaustion surfaces ErrLedgerBusy, which is safe to retry because nothing
was written. A UNIQUE constraint on (assembly, item, voter, unit) backs
the check at the storage layer.

Records are never updated or deleted. Two home-unit records for one voter
and item cannot be produced by this code path; if the check ever sees that
state it returns ErrInvariantViolation rather than guessing.
*/
package ledger
