package models

import "time"

// Assembly status constants
const (
	AssemblyIdle    = "idle"
	AssemblyStarted = "started"
	AssemblyClosed  = "closed"
)

// Item status constants
const (
	ItemPending = "pending"
	ItemOpen    = "open"
	ItemClosed  = "closed"
	ItemVoid    = "void"
)

// Compute mode constants
const (
	ComputeUniform    = "uniform"
	ComputeFractional = "fractional"
)

// Vote kind constants
const (
	VoteBinary = "binary"
	VoteMulti  = "multi"
)

// Quorum type constants
const (
	QuorumSimple    = "simple"
	QuorumQualified = "qualified"
)

// Linked-unit relation constants
const (
	RelationProxy     = "proxy"
	RelationExtraSeat = "extra_seat"
	RelationOther     = "other"
)

// Voter login status constants
const (
	LoginPending  = "pending"
	LoginLoggedIn = "logged_in"
)

// Binary vote choices
const (
	ChoiceYes = 1
	ChoiceNo  = 2
)

// Request types

type CheckInRequest struct {
	Block string `json:"block"`
	Unit  string `json:"unit"`
}

type LinkUnitRequest struct {
	Block    string `json:"block"`
	Unit     string `json:"unit"`
	Relation string `json:"relation"`
}

type LoginRequest struct {
	Block  string `json:"block"`
	Unit   string `json:"unit"`
	Secret string `json:"secret"`
}

type CastRequest struct {
	VoterHandle string `json:"voter_handle"`
	ItemOrderNo int    `json:"item_order_no"`
	Choice      int    `json:"choice"`
}

// Response types

type CheckInResponse struct {
	Attendee Voter `json:"attendee"`
}

type LinkUnitResponse struct {
	Attendee    Voter   `json:"attendee"`
	TotalWeight float64 `json:"total_weight"`
}

type LoginResponse struct {
	VoterHandle string    `json:"voter_handle"`
	LoginAt     time.Time `json:"login_at"`
}

type CastResponse struct {
	VoteID    string    `json:"vote_id"`
	CreatedAt time.Time `json:"created_at"`
}

type UnitSecretResponse struct {
	ID       int     `json:"id"`
	Block    string  `json:"block"`
	Unit     string  `json:"unit"`
	Fraction float64 `json:"fraction"`
	Secret   string  `json:"secret"`
}

type StatusResponse struct {
	Assembly    Assembly    `json:"assembly"`
	CurrentItem *ItemStatus `json:"current_item,omitempty"`
}

// ItemStatus is the public view of one agenda item: the open item with its
// live totals, or the most recently closed item with its frozen totals.
type ItemStatus struct {
	Item    Item          `json:"item"`
	Results TallySnapshot `json:"results"`
	Live    bool          `json:"live"`
}

// Domain types

// Unit is one row of the immutable unit roster. The access secret is used
// for voter login and never serialized.
type Unit struct {
	ID           int     `json:"id"`
	Block        string  `json:"block"`
	UnitID       string  `json:"unit"`
	Fraction     float64 `json:"fraction"`
	AccessSecret string  `json:"-"`
}

type Assembly struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Date      string     `json:"date"`
	Location  string     `json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type Item struct {
	AssemblyID      string         `json:"assembly_id"`
	OrderNo         int            `json:"order_no"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	QuorumType      string         `json:"quorum_type"`
	QuorumValue     *float64       `json:"quorum_value,omitempty"`
	ComputeMode     string         `json:"compute_mode"`
	VoteKind        string         `json:"vote_kind"`
	Status          string         `json:"status"`
	VotingStartedAt *time.Time     `json:"voting_started_at,omitempty"`
	VotingEndedAt   *time.Time     `json:"voting_ended_at,omitempty"`
	FrozenResults   *TallySnapshot `json:"frozen_results,omitempty"`
}

type LinkedUnit struct {
	Block    string  `json:"block"`
	UnitID   string  `json:"unit"`
	Fraction float64 `json:"fraction"`
	Relation string  `json:"relation"`
}

type Voter struct {
	Handle      string       `json:"voter_handle"`
	Block       string       `json:"block"`
	UnitID      string       `json:"unit"`
	Fraction    float64      `json:"fraction"`
	LoginStatus string       `json:"login_status"`
	LoginAt     *time.Time   `json:"login_at,omitempty"`
	CheckedInAt time.Time    `json:"checked_in_at"`
	LinkedUnits []LinkedUnit `json:"linked_units"`
}

// TotalWeight is the voter's home fraction plus the fraction of every
// linked unit.
func (v Voter) TotalWeight() float64 {
	total := v.Fraction
	for _, l := range v.LinkedUnits {
		total += l.Fraction
	}
	return total
}

// VoteRecord is one ledger entry. Immutable once written.
type VoteRecord struct {
	ID          string    `json:"id"`
	AssemblyID  string    `json:"assembly_id"`
	ItemOrderNo int       `json:"item_order_no"`
	VoterHandle string    `json:"voter_handle"`
	UnitBlock   string    `json:"unit_block"`
	UnitID      string    `json:"unit_id"`
	Choice      int       `json:"choice"`
	Weight      float64   `json:"weight"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChoiceTotal is the per-choice slice of a tally.
type ChoiceTotal struct {
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// TallySnapshot is a derived aggregate over the vote ledger. It is always
// reconstructible from the vote records; the copy stored on a closed item
// is authoritative for that item.
type TallySnapshot struct {
	Totals      map[string]ChoiceTotal `json:"totals"`
	TotalCount  int                    `json:"total_count"`
	TotalWeight float64                `json:"total_weight"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
