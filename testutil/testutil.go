package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/condoboard/assembly-vote/assembly"
	"github.com/condoboard/assembly-vote/cliparse"
	"github.com/condoboard/assembly-vote/db"
	"github.com/condoboard/assembly-vote/ledger"
	"github.com/condoboard/assembly-vote/registry"
	"github.com/condoboard/assembly-vote/tally"
	"github.com/condoboard/assembly-vote/units"
)

// TestAssemblyID is the assembly used by all seeded test fixtures
const TestAssemblyID = "test-assembly-2026"

// SetupTestDB creates a fresh SQLite database in a temp dir with the full
// schema. The file is removed with the test's temp dir.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "assembly.db")
	conn, err := db.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          4580,
		DatabaseType:  "sqlite",
		AdminPassword: "test-admin-password",
	}
}

// RosterJSON is the default four-unit roster used across tests. Fractions
// are chosen so the proxy scenario (0.30 home + 0.20 linked) is easy to
// assert on.
const RosterJSON = `[
	{"id": 1, "block": "A", "unit": "101", "fraction": 0.30, "code": "AAA111"},
	{"id": 2, "block": "A", "unit": "102", "fraction": 0.20, "code": "BBB222"},
	{"id": 3, "block": "B", "unit": "201", "fraction": 0.25, "code": "CCC333"},
	{"id": 4, "block": "B", "unit": "202", "fraction": 0.25, "code": "DDD444"}
]`

// LoadTestDirectory writes the default roster to a temp file and loads it.
func LoadTestDirectory(t *testing.T) *units.Directory {
	t.Helper()

	path := filepath.Join(t.TempDir(), "units.json")
	if err := os.WriteFile(path, []byte(RosterJSON), 0o600); err != nil {
		t.Fatalf("Failed to write roster: %v", err)
	}

	dir, err := units.Load(path)
	if err != nil {
		t.Fatalf("Failed to load roster: %v", err)
	}
	return dir
}

// WriteAgendaFile writes the default three-item agenda definition and
// returns its path.
func WriteAgendaFile(t *testing.T) string {
	t.Helper()

	agenda := `{
		"assembly": {"id": "` + TestAssemblyID + `", "title": "Annual General Assembly", "date": "2026-08-28"},
		"items": [
			{"order_no": 1, "title": "Roof repair budget", "compute_mode": "fractional", "vote_kind": "binary"},
			{"order_no": 2, "title": "New building manager", "compute_mode": "uniform", "vote_kind": "binary"},
			{"order_no": 3, "title": "Garden redesign proposal", "compute_mode": "fractional", "vote_kind": "multi"}
		]
	}`

	path := filepath.Join(t.TempDir(), "assembly_items.json")
	if err := os.WriteFile(path, []byte(agenda), 0o600); err != nil {
		t.Fatalf("Failed to write agenda: %v", err)
	}
	return path
}

// Services is the fully wired core, sharing one lock like main does.
type Services struct {
	State    *assembly.Service
	Registry *registry.Registry
	Ledger   *ledger.Ledger
	Tally    *tally.Engine
	Units    *units.Directory
}

// NewServices seeds the test assembly and wires all core components.
func NewServices(t *testing.T, conn *sql.DB) Services {
	t.Helper()

	if err := assembly.Seed(conn, WriteAgendaFile(t)); err != nil {
		t.Fatalf("Failed to seed assembly: %v", err)
	}

	dir := LoadTestDirectory(t)
	var gate sync.Mutex
	engine := tally.New(conn)
	state := assembly.New(conn, engine, &gate)
	reg := registry.New(conn, dir, &gate)
	led := ledger.New(conn, reg, &gate)

	return Services{State: state, Registry: reg, Ledger: led, Tally: engine, Units: dir}
}

// StartAssembly drives the assembly to started via the state machine.
func StartAssembly(t *testing.T, svc Services) {
	t.Helper()
	if _, err := svc.State.Start(); err != nil {
		t.Fatalf("Failed to start assembly: %v", err)
	}
}

// OpenItem opens one agenda item via the state machine.
func OpenItem(t *testing.T, svc Services, orderNo int) {
	t.Helper()
	if _, err := svc.State.OpenItem(orderNo); err != nil {
		t.Fatalf("Failed to open item %d: %v", orderNo, err)
	}
}

// CountVotes returns the number of ledger records for one item.
func CountVotes(t *testing.T, conn *sql.DB, orderNo int) int {
	t.Helper()

	var count int
	err := conn.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE assembly_id = $1 AND item_order_no = $2
	`, TestAssemblyID, orderNo).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return count
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AdminHeaders returns the Authorization header for the test admin token.
func AdminHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer test-admin-password"}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
