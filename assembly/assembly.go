package assembly

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/condoboard/assembly-vote/models"
)

// Aggregator is the capability the state machine needs from the
// aggregation engine: compute and persist an item's final totals inside
// the transition's own transaction.
type Aggregator interface {
	FreezeItem(tx *sql.Tx, assemblyID string, orderNo int) (models.TallySnapshot, error)
}

// Service is the assembly/item lifecycle state machine. Every mutating
// transition runs under the shared coarse lock (the same one the vote
// ledger takes), inside a single transaction, so readers never observe an
// open item without a start stamp or a finalized close without frozen
// results.
type Service struct {
	db  *sql.DB
	agg Aggregator
	mu  *sync.Mutex
}

func New(conn *sql.DB, agg Aggregator, mu *sync.Mutex) *Service {
	return &Service{db: conn, agg: agg, mu: mu}
}

// View is the full state: the assembly, its items, and the order number of
// the currently open item, if any.
type View struct {
	Assembly    models.Assembly `json:"assembly"`
	Items       []models.Item   `json:"items"`
	CurrentItem *int            `json:"current_item,omitempty"`
}

type definitionFile struct {
	Assembly struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Date     string `json:"date"`
		Location string `json:"location"`
		Notes    string `json:"notes"`
	} `json:"assembly"`
	Items []struct {
		OrderNo     int      `json:"order_no"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		QuorumType  string   `json:"quorum_type"`
		QuorumValue *float64 `json:"quorum_value"`
		ComputeMode string   `json:"compute_mode"`
		VoteKind    string   `json:"vote_kind"`
	} `json:"items"`
}

// Seed creates the assembly and its items from the agenda definition file.
// A no-op when the assembly row already exists, so restarts keep the
// committed lifecycle state.
func Seed(conn *sql.DB, path string) error {
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM assembly`).Scan(&count); err != nil {
		return fmt.Errorf("count assemblies: %w", err)
	}
	if count > 0 {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read agenda definition: %w", err)
	}
	var def definitionFile
	if err := json.Unmarshal(raw, &def); err != nil {
		return fmt.Errorf("parse agenda definition %s: %w", path, err)
	}
	if def.Assembly.ID == "" || def.Assembly.Title == "" {
		return fmt.Errorf("agenda definition %s: assembly id and title are required", path)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO assembly (id, title, date, location, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, def.Assembly.ID, def.Assembly.Title, def.Assembly.Date,
		def.Assembly.Location, def.Assembly.Notes, models.AssemblyIdle)
	if err != nil {
		return fmt.Errorf("insert assembly: %w", err)
	}

	for _, it := range def.Items {
		quorum := it.QuorumType
		if quorum == "" {
			quorum = models.QuorumSimple
		}
		compute := it.ComputeMode
		if compute == "" {
			compute = models.ComputeUniform
		}
		kind := it.VoteKind
		if kind == "" {
			kind = models.VoteBinary
		}
		if compute != models.ComputeUniform && compute != models.ComputeFractional {
			return fmt.Errorf("item %d: unknown compute mode %q", it.OrderNo, compute)
		}
		if kind != models.VoteBinary && kind != models.VoteMulti {
			return fmt.Errorf("item %d: unknown vote kind %q", it.OrderNo, kind)
		}

		_, err = tx.Exec(`
			INSERT INTO item (assembly_id, order_no, title, description, quorum_type, quorum_value, compute_mode, vote_kind, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, def.Assembly.ID, it.OrderNo, it.Title, it.Description,
			quorum, it.QuorumValue, compute, kind, models.ItemPending)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", it.OrderNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	slog.Info("assembly seeded", "id", def.Assembly.ID, "items", len(def.Items))
	return nil
}

// Assembly returns the assembly record.
func (s *Service) Assembly() (models.Assembly, error) {
	a, _, err := readAssembly(s.db)
	return a, err
}

// State returns the assembly, all items in agenda order, and the open item.
func (s *Service) State() (View, error) {
	a, current, err := readAssembly(s.db)
	if err != nil {
		return View{}, err
	}

	rows, err := s.db.Query(`
		SELECT assembly_id, order_no, title, description, quorum_type, quorum_value,
		       compute_mode, vote_kind, status, voting_started_at, voting_ended_at, results_json
		FROM item WHERE assembly_id = $1 ORDER BY order_no
	`, a.ID)
	if err != nil {
		return View{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	view := View{Assembly: a}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return View{}, err
		}
		view.Items = append(view.Items, item)
	}
	if err := rows.Err(); err != nil {
		return View{}, fmt.Errorf("iterate items: %w", err)
	}

	if current.Valid {
		n := int(current.Int64)
		view.CurrentItem = &n
	}
	return view, nil
}

// Item returns one agenda item by order number.
func (s *Service) Item(orderNo int) (models.Item, error) {
	a, _, err := readAssembly(s.db)
	if err != nil {
		return models.Item{}, err
	}
	return readItem(s.db, a.ID, orderNo)
}

// Start transitions the assembly idle → started.
func (s *Service) Start() (models.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, _, err := readAssembly(s.db)
	if err != nil {
		return models.Assembly{}, err
	}
	if a.Status != models.AssemblyIdle {
		return models.Assembly{}, fmt.Errorf("start from %s: %w", a.Status, models.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		UPDATE assembly SET status = $1, started_at = $2 WHERE id = $3 AND status = $4
	`, models.AssemblyStarted, now, a.ID, models.AssemblyIdle)
	if err != nil {
		return models.Assembly{}, fmt.Errorf("start assembly: %w", err)
	}

	a.Status = models.AssemblyStarted
	a.StartedAt = &now
	slog.Info("assembly started", "id", a.ID)
	return a, nil
}

// Close transitions the assembly started → closed. An open item is
// force-closed (and its results frozen) first, in the same transaction.
func (s *Service) Close() (models.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, current, err := readAssembly(s.db)
	if err != nil {
		return models.Assembly{}, err
	}
	if a.Status != models.AssemblyStarted {
		return models.Assembly{}, fmt.Errorf("close from %s: %w", a.Status, models.ErrInvalidTransition)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Assembly{}, fmt.Errorf("begin close: %w", err)
	}
	defer tx.Rollback()

	if current.Valid {
		if _, err := s.closeItemTx(tx, a.ID, int(current.Int64)); err != nil {
			return models.Assembly{}, err
		}
	}

	now := time.Now().UTC()
	_, err = tx.Exec(`
		UPDATE assembly SET status = $1, ended_at = $2, current_item = NULL WHERE id = $3
	`, models.AssemblyClosed, now, a.ID)
	if err != nil {
		return models.Assembly{}, fmt.Errorf("close assembly: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Assembly{}, fmt.Errorf("commit close: %w", err)
	}

	a.Status = models.AssemblyClosed
	a.EndedAt = &now
	slog.Info("assembly closed", "id", a.ID)
	return a, nil
}

// OpenItem opens voting on an item. Requires a started assembly, a pending
// item, and no other item currently open.
func (s *Service) OpenItem(orderNo int) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, current, err := readAssembly(s.db)
	if err != nil {
		return models.Item{}, err
	}
	switch a.Status {
	case models.AssemblyClosed:
		return models.Item{}, models.ErrAssemblyClosed
	case models.AssemblyIdle:
		return models.Item{}, models.ErrAssemblyNotStarted
	}
	if current.Valid {
		return models.Item{}, models.ErrItemAlreadyOpen
	}

	item, err := readItem(s.db, a.ID, orderNo)
	if err != nil {
		return models.Item{}, err
	}
	switch item.Status {
	case models.ItemVoid:
		return models.Item{}, models.ErrItemVoided
	case models.ItemOpen:
		return models.Item{}, models.ErrItemAlreadyOpen
	case models.ItemClosed:
		return models.Item{}, fmt.Errorf("reopen closed item %d: %w", orderNo, models.ErrInvalidTransition)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Item{}, fmt.Errorf("begin open item: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.Exec(`
		UPDATE item SET status = $1, voting_started_at = $2 WHERE assembly_id = $3 AND order_no = $4
	`, models.ItemOpen, now, a.ID, orderNo)
	if err != nil {
		return models.Item{}, fmt.Errorf("open item: %w", err)
	}
	_, err = tx.Exec(`UPDATE assembly SET current_item = $1 WHERE id = $2`, orderNo, a.ID)
	if err != nil {
		return models.Item{}, fmt.Errorf("set current item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("commit open item: %w", err)
	}

	item.Status = models.ItemOpen
	item.VotingStartedAt = &now
	slog.Info("item opened", "order_no", orderNo)
	return item, nil
}

// CloseItem closes voting on an item and freezes its results. Closing a
// pending item is allowed and recorded as a no-vote close.
func (s *Service) CloseItem(orderNo int) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, _, err := readAssembly(s.db)
	if err != nil {
		return models.Item{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Item{}, fmt.Errorf("begin close item: %w", err)
	}
	defer tx.Rollback()

	item, err := s.closeItemTx(tx, a.ID, orderNo)
	if err != nil {
		return models.Item{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("commit close item: %w", err)
	}

	slog.Info("item closed", "order_no", orderNo,
		"total_count", item.FrozenResults.TotalCount, "total_weight", item.FrozenResults.TotalWeight)
	return item, nil
}

// VoidItem voids a non-closed item. An open item is closed (end time
// stamped, results frozen) before being marked void. Void is terminal.
func (s *Service) VoidItem(orderNo int) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, _, err := readAssembly(s.db)
	if err != nil {
		return models.Item{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Item{}, fmt.Errorf("begin void item: %w", err)
	}
	defer tx.Rollback()

	item, err := readItem(tx, a.ID, orderNo)
	if err != nil {
		return models.Item{}, err
	}
	switch item.Status {
	case models.ItemVoid:
		return models.Item{}, models.ErrItemVoided
	case models.ItemClosed:
		return models.Item{}, fmt.Errorf("void closed item %d: %w", orderNo, models.ErrInvalidTransition)
	case models.ItemOpen:
		if item, err = s.closeItemTx(tx, a.ID, orderNo); err != nil {
			return models.Item{}, err
		}
	}

	_, err = tx.Exec(`
		UPDATE item SET status = $1 WHERE assembly_id = $2 AND order_no = $3
	`, models.ItemVoid, a.ID, orderNo)
	if err != nil {
		return models.Item{}, fmt.Errorf("void item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("commit void item: %w", err)
	}

	item.Status = models.ItemVoid
	slog.Info("item voided", "order_no", orderNo)
	return item, nil
}

// closeItemTx performs the close transition inside tx: status flip, end
// stamp, current-item clear, and frozen results, all committing together.
func (s *Service) closeItemTx(tx *sql.Tx, assemblyID string, orderNo int) (models.Item, error) {
	item, err := readItem(tx, assemblyID, orderNo)
	if err != nil {
		return models.Item{}, err
	}
	switch item.Status {
	case models.ItemVoid:
		return models.Item{}, models.ErrItemVoided
	case models.ItemClosed:
		return models.Item{}, fmt.Errorf("close closed item %d: %w", orderNo, models.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(`
		UPDATE item SET status = $1, voting_ended_at = $2 WHERE assembly_id = $3 AND order_no = $4
	`, models.ItemClosed, now, assemblyID, orderNo)
	if err != nil {
		return models.Item{}, fmt.Errorf("close item: %w", err)
	}
	_, err = tx.Exec(`
		UPDATE assembly SET current_item = NULL WHERE id = $1 AND current_item = $2
	`, assemblyID, orderNo)
	if err != nil {
		return models.Item{}, fmt.Errorf("clear current item: %w", err)
	}

	snap, err := s.agg.FreezeItem(tx, assemblyID, orderNo)
	if err != nil {
		return models.Item{}, fmt.Errorf("freeze item %d: %w", orderNo, err)
	}

	item.Status = models.ItemClosed
	item.VotingEndedAt = &now
	item.FrozenResults = &snap
	return item, nil
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func readAssembly(q queryRower) (models.Assembly, sql.NullInt64, error) {
	var a models.Assembly
	var current sql.NullInt64
	var location, notes sql.NullString
	var startedAt, endedAt sql.NullTime

	err := q.QueryRow(`
		SELECT id, title, date, location, notes, status, current_item, started_at, ended_at
		FROM assembly
	`).Scan(&a.ID, &a.Title, &a.Date, &location, &notes, &a.Status, &current, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return models.Assembly{}, sql.NullInt64{}, fmt.Errorf("no assembly loaded: %w", err)
	}
	if err != nil {
		return models.Assembly{}, sql.NullInt64{}, fmt.Errorf("query assembly: %w", err)
	}

	a.Location = location.String
	a.Notes = notes.String
	if startedAt.Valid {
		t := startedAt.Time
		a.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		a.EndedAt = &t
	}
	return a, current, nil
}

func readItem(q queryRower, assemblyID string, orderNo int) (models.Item, error) {
	row := q.QueryRow(`
		SELECT assembly_id, order_no, title, description, quorum_type, quorum_value,
		       compute_mode, vote_kind, status, voting_started_at, voting_ended_at, results_json
		FROM item WHERE assembly_id = $1 AND order_no = $2
	`, assemblyID, orderNo)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return models.Item{}, models.ErrItemNotFound
	}
	return item, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var item models.Item
	var description, resultsJSON sql.NullString
	var quorumValue sql.NullFloat64
	var startedAt, endedAt sql.NullTime

	err := row.Scan(&item.AssemblyID, &item.OrderNo, &item.Title, &description,
		&item.QuorumType, &quorumValue, &item.ComputeMode, &item.VoteKind,
		&item.Status, &startedAt, &endedAt, &resultsJSON)
	if err != nil {
		return models.Item{}, err
	}

	item.Description = description.String
	if quorumValue.Valid {
		v := quorumValue.Float64
		item.QuorumValue = &v
	}
	if startedAt.Valid {
		t := startedAt.Time
		item.VotingStartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		item.VotingEndedAt = &t
	}
	if resultsJSON.Valid && resultsJSON.String != "" {
		var snap models.TallySnapshot
		if err := json.Unmarshal([]byte(resultsJSON.String), &snap); err != nil {
			return models.Item{}, fmt.Errorf("parse frozen results for item %d: %w", item.OrderNo, err)
		}
		item.FrozenResults = &snap
	}
	return item, nil
}
