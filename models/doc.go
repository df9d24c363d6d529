/*
Package models defines request, response, and domain types for the
assembly voting server, plus the shared error taxonomy.

# Domain Types

  - Unit: one roster entry (block, unit, ownership fraction, access secret)
  - Assembly: the single assembly and its lifecycle status
  - Item: one agenda item with its voting window and frozen results
  - Voter: a checked-in attendee with optional linked (proxy) units
  - VoteRecord: one immutable ledger entry
  - TallySnapshot: per-choice count/weight aggregate

# Request Types

  - CheckInRequest: block, unit
  - LinkUnitRequest: block, unit, relation
  - LoginRequest: block, unit, secret
  - CastRequest: voter_handle, item_order_no, choice

# Errors

Component operations return sentinel errors (ErrDuplicateVote,
ErrItemNotOpen, ...). Kind classifies any error into the taxonomy:

	validation | state conflict | not found | access denied |
	transient | invariant violation | internal

State-conflict errors are never retryable with the same input; transient
errors (ErrLedgerBusy) are, because no partial write occurred.

# Constants

Assembly status:

	AssemblyIdle → AssemblyStarted → AssemblyClosed

Item status:

	ItemPending → ItemOpen → ItemClosed
	any non-closed → ItemVoid

Compute modes: ComputeUniform (weight 1.0), ComputeFractional (ownership
fraction). Vote kinds: VoteBinary (choices 1/2), VoteMulti.
*/
package models
