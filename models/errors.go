package models

import "errors"

// Sentinel errors returned by the core components. Handlers classify them
// with Kind to pick a transport status; the core never assumes a transport.
var (
	// Not found
	ErrUnitNotFound  = errors.New("unit not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrVoterNotFound = errors.New("voter not found")

	// State conflicts
	ErrAlreadyCheckedIn   = errors.New("unit already checked in")
	ErrAlreadyLinked      = errors.New("unit already linked to an attendee")
	ErrItemVoided         = errors.New("item has been voided")
	ErrItemAlreadyOpen    = errors.New("another item is already open")
	ErrItemNotOpen        = errors.New("item is not open for voting")
	ErrAssemblyClosed     = errors.New("assembly is closed")
	ErrAssemblyNotStarted = errors.New("assembly has not started")
	ErrDuplicateVote      = errors.New("vote already recorded for this item")
	ErrVoterNotLoggedIn   = errors.New("voter has not logged in")
	ErrInvalidTransition  = errors.New("invalid lifecycle transition")

	// Validation
	ErrInvalidChoice   = errors.New("invalid choice for this item")
	ErrInvalidRelation = errors.New("invalid link relation")

	// Authentication
	ErrAccessDenied = errors.New("access denied")

	// Transient: safe to retry, no partial write occurred.
	ErrLedgerBusy = errors.New("vote ledger is busy, retry")

	// ErrInvariantViolation marks a state the design makes unreachable,
	// such as two home-unit records for one voter and item. Treated as
	// fatal by callers, never silently patched.
	ErrInvariantViolation = errors.New("ledger invariant violation")
)

// ErrorKind buckets the sentinel errors per the error taxonomy.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindStateConflict
	KindNotFound
	KindAccessDenied
	KindTransient
	KindInvariant
)

// Kind classifies err into its taxonomy bucket. Wrapped errors are
// recognized through errors.Is.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrUnitNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrVoterNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyCheckedIn),
		errors.Is(err, ErrAlreadyLinked),
		errors.Is(err, ErrItemVoided),
		errors.Is(err, ErrItemAlreadyOpen),
		errors.Is(err, ErrItemNotOpen),
		errors.Is(err, ErrAssemblyClosed),
		errors.Is(err, ErrAssemblyNotStarted),
		errors.Is(err, ErrDuplicateVote),
		errors.Is(err, ErrVoterNotLoggedIn),
		errors.Is(err, ErrInvalidTransition):
		return KindStateConflict
	case errors.Is(err, ErrInvalidChoice),
		errors.Is(err, ErrInvalidRelation):
		return KindValidation
	case errors.Is(err, ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, ErrLedgerBusy):
		return KindTransient
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariant
	default:
		return KindInternal
	}
}
