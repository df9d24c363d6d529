package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/condoboard/assembly-vote/db"
	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/registry"
)

// Lock acquisition bounds for Cast. Matches the bounded-retry policy of
// the write path: roughly two seconds of waiting before the caller gets a
// retryable busy error.
const (
	lockRetries    = 20
	lockRetryDelay = 100 * time.Millisecond
)

// Ledger is the append-only vote store. Cast serializes through the shared
// coarse lock (the same one the state machine and registry take) so the sequence
// "check duplicate, then append batch" is atomic with respect to other casts
// and to item close transitions.
type Ledger struct {
	db       *sql.DB
	registry *registry.Registry
	mu       *sync.Mutex
}

func New(conn *sql.DB, reg *registry.Registry, mu *sync.Mutex) *Ledger {
	return &Ledger{db: conn, registry: reg, mu: mu}
}

// HasVoted reports whether the voter already has a home-unit record for
// this item. Pure read, no lock.
func (l *Ledger) HasVoted(voterHandle string, itemOrderNo int) (bool, error) {
	assemblyID, _, err := l.assemblyState()
	if err != nil {
		return false, err
	}

	var count int
	err = l.db.QueryRow(`
		SELECT COUNT(*) FROM vote
		WHERE assembly_id = $1 AND item_order_no = $2 AND voter_handle = $3
	`, assemblyID, itemOrderNo, voterHandle).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query votes: %w", err)
	}
	return count > 0, nil
}

// Cast records one vote: a record for the voter's home unit plus one per
// linked unit, all with the same choice and timestamp, written as a single
// transaction. Preconditions are checked in order; the duplicate check is
// re-run inside the critical section, not just optimistically.
func (l *Ledger) Cast(voterHandle string, itemOrderNo int, choice int) (models.VoteRecord, error) {
	if !l.acquire() {
		return models.VoteRecord{}, models.ErrLedgerBusy
	}
	defer l.mu.Unlock()

	tx, err := l.db.Begin()
	if err != nil {
		return models.VoteRecord{}, fmt.Errorf("begin cast: %w", err)
	}
	defer tx.Rollback()

	assemblyID, assemblyStatus, err := l.assemblyState()
	if err != nil {
		return models.VoteRecord{}, err
	}
	if assemblyStatus == models.AssemblyClosed {
		return models.VoteRecord{}, models.ErrAssemblyClosed
	}

	var itemStatus, computeMode, voteKind string
	err = tx.QueryRow(`
		SELECT status, compute_mode, vote_kind FROM item
		WHERE assembly_id = $1 AND order_no = $2
	`, assemblyID, itemOrderNo).Scan(&itemStatus, &computeMode, &voteKind)
	if err == sql.ErrNoRows {
		return models.VoteRecord{}, models.ErrItemNotFound
	}
	if err != nil {
		return models.VoteRecord{}, fmt.Errorf("query item: %w", err)
	}
	if itemStatus != models.ItemOpen {
		return models.VoteRecord{}, models.ErrItemNotOpen
	}

	voter, err := l.registry.Lookup(voterHandle)
	if err != nil {
		return models.VoteRecord{}, err
	}
	if voter.LoginStatus != models.LoginLoggedIn {
		return models.VoteRecord{}, models.ErrVoterNotLoggedIn
	}

	var homeCount int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM vote
		WHERE assembly_id = $1 AND item_order_no = $2 AND voter_handle = $3
		  AND unit_block = $4 AND unit_id = $5
	`, assemblyID, itemOrderNo, voter.Handle, voter.Block, voter.UnitID).Scan(&homeCount)
	if err != nil {
		return models.VoteRecord{}, fmt.Errorf("duplicate check: %w", err)
	}
	switch {
	case homeCount == 1:
		return models.VoteRecord{}, models.ErrDuplicateVote
	case homeCount > 1:
		slog.Error("multiple home-unit records for one voter and item",
			"handle", voter.Handle, "item", itemOrderNo, "count", homeCount)
		return models.VoteRecord{}, models.ErrInvariantViolation
	}

	if err := validChoice(voteKind, choice); err != nil {
		return models.VoteRecord{}, err
	}

	now := time.Now().UTC()
	home := models.VoteRecord{
		ID:          uuid.NewString(),
		AssemblyID:  assemblyID,
		ItemOrderNo: itemOrderNo,
		VoterHandle: voter.Handle,
		UnitBlock:   voter.Block,
		UnitID:      voter.UnitID,
		Choice:      choice,
		Weight:      unitWeight(voter.Fraction, computeMode),
		CreatedAt:   now,
	}

	batch := []models.VoteRecord{home}
	for _, link := range voter.LinkedUnits {
		batch = append(batch, models.VoteRecord{
			ID:          uuid.NewString(),
			AssemblyID:  assemblyID,
			ItemOrderNo: itemOrderNo,
			VoterHandle: voter.Handle,
			UnitBlock:   link.Block,
			UnitID:      link.UnitID,
			Choice:      choice,
			Weight:      unitWeight(link.Fraction, computeMode),
			CreatedAt:   now,
		})
	}

	for _, rec := range batch {
		_, err = tx.Exec(`
			INSERT INTO vote (id, assembly_id, item_order_no, voter_handle, unit_block, unit_id, choice, weight, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, rec.ID, rec.AssemblyID, rec.ItemOrderNo, rec.VoterHandle,
			rec.UnitBlock, rec.UnitID, rec.Choice, rec.Weight, rec.CreatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return models.VoteRecord{}, models.ErrDuplicateVote
			}
			return models.VoteRecord{}, fmt.Errorf("insert vote record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.VoteRecord{}, fmt.Errorf("commit cast: %w", err)
	}

	slog.Info("vote cast", "handle", voter.Handle, "item", itemOrderNo,
		"choice", choice, "records", len(batch))
	return home, nil
}

// RecordsForItem returns every ledger record for one item, oldest first.
func (l *Ledger) RecordsForItem(itemOrderNo int) ([]models.VoteRecord, error) {
	assemblyID, _, err := l.assemblyState()
	if err != nil {
		return nil, err
	}

	rows, err := l.db.Query(`
		SELECT id, assembly_id, item_order_no, voter_handle, unit_block, unit_id, choice, weight, created_at
		FROM vote WHERE assembly_id = $1 AND item_order_no = $2
		ORDER BY created_at, id
	`, assemblyID, itemOrderNo)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	var records []models.VoteRecord
	for rows.Next() {
		var rec models.VoteRecord
		err := rows.Scan(&rec.ID, &rec.AssemblyID, &rec.ItemOrderNo, &rec.VoterHandle,
			&rec.UnitBlock, &rec.UnitID, &rec.Choice, &rec.Weight, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan vote record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// acquire takes the shared lock with a bounded wait. Once acquired, the
// critical section runs to completion; callers that time out get a
// transient error and may retry, since nothing was written.
func (l *Ledger) acquire() bool {
	for i := 0; i < lockRetries; i++ {
		if l.mu.TryLock() {
			return true
		}
		time.Sleep(lockRetryDelay)
	}
	return false
}

func (l *Ledger) assemblyState() (string, string, error) {
	var id, status string
	err := l.db.QueryRow(`SELECT id, status FROM assembly`).Scan(&id, &status)
	if err != nil {
		return "", "", fmt.Errorf("query assembly: %w", err)
	}
	return id, status, nil
}

// unitWeight is the contribution of one unit's vote: 1.0 per unit in
// uniform mode, the ownership fraction in fractional mode.
func unitWeight(fraction float64, computeMode string) float64 {
	if computeMode == models.ComputeFractional {
		return fraction
	}
	return 1.0
}

func validChoice(voteKind string, choice int) error {
	switch voteKind {
	case models.VoteBinary:
		if choice != models.ChoiceYes && choice != models.ChoiceNo {
			return models.ErrInvalidChoice
		}
	case models.VoteMulti:
		if choice < 1 {
			return models.ErrInvalidChoice
		}
	default:
		return fmt.Errorf("unknown vote kind %q: %w", voteKind, models.ErrInvalidChoice)
	}
	return nil
}
