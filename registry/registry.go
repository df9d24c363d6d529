package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/condoboard/assembly-vote/auth"
	"github.com/condoboard/assembly-vote/db"
	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/units"
)

// Registry tracks checked-in attendees, their proxy links, and login state.
// A unit may appear at most once across the whole registry, as a home unit
// or as a linked unit, never both: that is what keeps a fraction from being
// counted twice in a fractional tally. The per-table UNIQUE constraints
// cannot express that cross-table rule, so every mutation serializes
// through the shared coarse lock (the same one the state machine and the
// vote ledger take).
type Registry struct {
	db    *sql.DB
	units *units.Directory
	mu    *sync.Mutex
}

func New(conn *sql.DB, dir *units.Directory, mu *sync.Mutex) *Registry {
	return &Registry{db: conn, units: dir, mu: mu}
}

// CheckIn marks a unit present and creates its Voter with a fresh handle.
func (r *Registry) CheckIn(block, unit string) (models.Voter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units.FindByBlockUnit(block, unit)
	if !ok {
		return models.Voter{}, models.ErrUnitNotFound
	}

	taken, err := r.unitTaken(u.Block, u.UnitID)
	if err != nil {
		return models.Voter{}, err
	}
	if taken != "" {
		if taken == "home" {
			return models.Voter{}, models.ErrAlreadyCheckedIn
		}
		return models.Voter{}, models.ErrAlreadyLinked
	}

	voter := models.Voter{
		Handle:      uuid.NewString(),
		Block:       u.Block,
		UnitID:      u.UnitID,
		Fraction:    u.Fraction,
		LoginStatus: models.LoginPending,
		CheckedInAt: time.Now().UTC(),
		LinkedUnits: []models.LinkedUnit{},
	}

	_, err = r.db.Exec(`
		INSERT INTO voter (handle, block, unit_id, fraction, login_status, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, voter.Handle, voter.Block, voter.UnitID, voter.Fraction, voter.LoginStatus, voter.CheckedInAt)
	if err != nil {
		// Backstop for a second process writing to the same database.
		if db.IsUniqueViolation(err) {
			return models.Voter{}, models.ErrAlreadyCheckedIn
		}
		return models.Voter{}, fmt.Errorf("insert voter: %w", err)
	}

	slog.Info("unit checked in", "block", voter.Block, "unit", voter.UnitID, "handle", voter.Handle)
	return voter, nil
}

// LinkUnit appends a proxy or extra-seat link to an attendee and returns the
// updated voter with the new total weight.
func (r *Registry) LinkUnit(handle, block, unit, relation string) (models.Voter, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch relation {
	case models.RelationProxy, models.RelationExtraSeat, models.RelationOther:
	default:
		return models.Voter{}, 0, models.ErrInvalidRelation
	}

	voter, err := r.Lookup(handle)
	if err != nil {
		return models.Voter{}, 0, err
	}

	u, ok := r.units.FindByBlockUnit(block, unit)
	if !ok {
		return models.Voter{}, 0, models.ErrUnitNotFound
	}

	taken, err := r.unitTaken(u.Block, u.UnitID)
	if err != nil {
		return models.Voter{}, 0, err
	}
	if taken == "home" {
		return models.Voter{}, 0, models.ErrAlreadyCheckedIn
	}
	if taken == "linked" {
		return models.Voter{}, 0, models.ErrAlreadyLinked
	}

	_, err = r.db.Exec(`
		INSERT INTO linked_unit (voter_handle, block, unit_id, fraction, relation, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, voter.Handle, u.Block, u.UnitID, u.Fraction, relation, len(voter.LinkedUnits)+1)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.Voter{}, 0, models.ErrAlreadyLinked
		}
		return models.Voter{}, 0, fmt.Errorf("insert linked unit: %w", err)
	}

	voter.LinkedUnits = append(voter.LinkedUnits, models.LinkedUnit{
		Block:    u.Block,
		UnitID:   u.UnitID,
		Fraction: u.Fraction,
		Relation: relation,
	})

	slog.Info("unit linked", "handle", handle, "block", u.Block, "unit", u.UnitID,
		"relation", relation, "total_weight", voter.TotalWeight())
	return voter, voter.TotalWeight(), nil
}

// Login validates a unit's access secret and marks its voter logged in.
// Repeat calls with the same unit are idempotent and keep the original
// handle and login time. Every failure mode is the same access-denied
// error: a valid secret must not reveal whether its unit has checked in.
func (r *Registry) Login(block, unit, secret string) (models.Voter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units.FindByBlockUnit(block, unit)
	if !ok {
		return models.Voter{}, models.ErrAccessDenied
	}
	if !auth.SecretsMatch(secret, u.AccessSecret) {
		return models.Voter{}, models.ErrAccessDenied
	}

	voter, err := r.LookupByUnit(u.Block, u.UnitID)
	if errors.Is(err, models.ErrVoterNotFound) {
		return models.Voter{}, models.ErrAccessDenied
	}
	if err != nil {
		return models.Voter{}, err
	}

	if voter.LoginStatus == models.LoginLoggedIn {
		return voter, nil
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(`
		UPDATE voter SET login_status = $1, login_at = $2 WHERE handle = $3
	`, models.LoginLoggedIn, now, voter.Handle)
	if err != nil {
		return models.Voter{}, fmt.Errorf("update login status: %w", err)
	}

	voter.LoginStatus = models.LoginLoggedIn
	voter.LoginAt = &now

	slog.Info("voter logged in", "handle", voter.Handle, "block", voter.Block, "unit", voter.UnitID)
	return voter, nil
}

// Lookup returns the voter with the given handle, links included.
func (r *Registry) Lookup(handle string) (models.Voter, error) {
	return r.scanVoter(`
		SELECT handle, block, unit_id, fraction, login_status, login_at, checked_in_at
		FROM voter WHERE handle = $1
	`, handle)
}

// LookupByUnit returns the voter whose home unit matches.
func (r *Registry) LookupByUnit(block, unit string) (models.Voter, error) {
	b, u := units.Normalize(block, unit)
	return r.scanVoter(`
		SELECT handle, block, unit_id, fraction, login_status, login_at, checked_in_at
		FROM voter WHERE block = $1 AND unit_id = $2
	`, b, u)
}

// ListAttendees returns the roll call in check-in order.
func (r *Registry) ListAttendees() ([]models.Voter, error) {
	rows, err := r.db.Query(`
		SELECT handle, block, unit_id, fraction, login_status, login_at, checked_in_at
		FROM voter ORDER BY checked_in_at, handle
	`)
	if err != nil {
		return nil, fmt.Errorf("query attendees: %w", err)
	}
	defer rows.Close()

	var voters []models.Voter
	for rows.Next() {
		v, err := scanVoterRow(rows)
		if err != nil {
			return nil, err
		}
		voters = append(voters, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendees: %w", err)
	}

	for i := range voters {
		links, err := r.linkedUnits(voters[i].Handle)
		if err != nil {
			return nil, err
		}
		voters[i].LinkedUnits = links
	}
	return voters, nil
}

func (r *Registry) scanVoter(query string, args ...any) (models.Voter, error) {
	row := r.db.QueryRow(query, args...)
	v, err := scanVoterRow(row)
	if err == sql.ErrNoRows {
		return models.Voter{}, models.ErrVoterNotFound
	}
	if err != nil {
		return models.Voter{}, err
	}

	links, err := r.linkedUnits(v.Handle)
	if err != nil {
		return models.Voter{}, err
	}
	v.LinkedUnits = links
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoterRow(row rowScanner) (models.Voter, error) {
	var v models.Voter
	var loginAt sql.NullTime
	err := row.Scan(&v.Handle, &v.Block, &v.UnitID, &v.Fraction, &v.LoginStatus, &loginAt, &v.CheckedInAt)
	if err != nil {
		return models.Voter{}, err
	}
	if loginAt.Valid {
		t := loginAt.Time
		v.LoginAt = &t
	}
	v.LinkedUnits = []models.LinkedUnit{}
	return v, nil
}

func (r *Registry) linkedUnits(handle string) ([]models.LinkedUnit, error) {
	rows, err := r.db.Query(`
		SELECT block, unit_id, fraction, relation
		FROM linked_unit WHERE voter_handle = $1 ORDER BY position
	`, handle)
	if err != nil {
		return nil, fmt.Errorf("query linked units: %w", err)
	}
	defer rows.Close()

	links := []models.LinkedUnit{}
	for rows.Next() {
		var l models.LinkedUnit
		if err := rows.Scan(&l.Block, &l.UnitID, &l.Fraction, &l.Relation); err != nil {
			return nil, fmt.Errorf("scan linked unit: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// unitTaken reports how a unit is already represented in the registry:
// "home", "linked", or "" for free.
func (r *Registry) unitTaken(block, unit string) (string, error) {
	var home bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM voter WHERE block = $1 AND unit_id = $2)
	`, block, unit).Scan(&home)
	if err != nil {
		return "", fmt.Errorf("query home unit: %w", err)
	}
	if home {
		return "home", nil
	}

	var linked bool
	err = r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM linked_unit WHERE block = $1 AND unit_id = $2)
	`, block, unit).Scan(&linked)
	if err != nil {
		return "", fmt.Errorf("query linked unit: %w", err)
	}
	if linked {
		return "linked", nil
	}
	return "", nil
}
