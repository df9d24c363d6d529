package tally

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/condoboard/assembly-vote/models"
)

// Engine aggregates vote records into per-choice totals. It holds no state
// of its own: Tally is a pure function of the ledger, so two calls without
// intervening writes return identical snapshots.
type Engine struct {
	db *sql.DB
}

func New(conn *sql.DB) *Engine {
	return &Engine{db: conn}
}

// Tally computes the live totals for one item from the vote ledger.
func (e *Engine) Tally(assemblyID string, orderNo int) (models.TallySnapshot, error) {
	return aggregate(e.db, assemblyID, orderNo)
}

// FreezeItem computes the item's final totals inside the caller's
// transaction and writes them into the item row. The state machine calls
// this as part of its close and void transitions so the status flip and the
// frozen snapshot commit together.
func (e *Engine) FreezeItem(tx *sql.Tx, assemblyID string, orderNo int) (models.TallySnapshot, error) {
	snap, err := aggregate(tx, assemblyID, orderNo)
	if err != nil {
		return models.TallySnapshot{}, err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("marshal tally snapshot: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE item SET results_json = $1 WHERE assembly_id = $2 AND order_no = $3
	`, string(payload), assemblyID, orderNo)
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("freeze results: %w", err)
	}

	return snap, nil
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func aggregate(q querier, assemblyID string, orderNo int) (models.TallySnapshot, error) {
	rows, err := q.Query(`
		SELECT choice, weight FROM vote
		WHERE assembly_id = $1 AND item_order_no = $2
	`, assemblyID, orderNo)
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	snap := models.TallySnapshot{Totals: map[string]models.ChoiceTotal{}}
	for rows.Next() {
		var choice int
		var weight float64
		if err := rows.Scan(&choice, &weight); err != nil {
			return models.TallySnapshot{}, fmt.Errorf("scan vote: %w", err)
		}

		key := strconv.Itoa(choice)
		total := snap.Totals[key]
		total.Count++
		total.Weight += weight
		snap.Totals[key] = total

		snap.TotalCount++
		snap.TotalWeight += weight
	}
	if err := rows.Err(); err != nil {
		return models.TallySnapshot{}, fmt.Errorf("iterate votes: %w", err)
	}

	return snap, nil
}
