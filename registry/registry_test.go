package registry_test

import (
	"database/sql"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/registry"
	"github.com/condoboard/assembly-vote/testutil"
)

func setup(t *testing.T) *registry.Registry {
	t.Helper()
	reg, _ := setupWithDB(t)
	return reg
}

func setupWithDB(t *testing.T) (*registry.Registry, *sql.DB) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	var gate sync.Mutex
	return registry.New(conn, testutil.LoadTestDirectory(t), &gate), conn
}

func TestCheckIn(t *testing.T) {
	reg := setup(t)

	voter, err := reg.CheckIn("A", "101")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	if voter.Handle == "" {
		t.Error("Expected a generated voter handle")
	}
	if voter.Block != "A" || voter.UnitID != "101" {
		t.Errorf("Expected A/101, got %s/%s", voter.Block, voter.UnitID)
	}
	if voter.Fraction != 0.30 {
		t.Errorf("Expected fraction 0.30 from roster, got %v", voter.Fraction)
	}
	if voter.LoginStatus != models.LoginPending {
		t.Errorf("Expected login status pending, got %s", voter.LoginStatus)
	}
}

func TestCheckInNormalizesSpelling(t *testing.T) {
	reg := setup(t)

	voter, err := reg.CheckIn("bloco a", "0101")
	if err != nil {
		t.Fatalf("CheckIn with unnormalized spelling failed: %v", err)
	}
	if voter.Block != "A" || voter.UnitID != "101" {
		t.Errorf("Expected normalized A/101, got %s/%s", voter.Block, voter.UnitID)
	}

	// The same unit under its canonical spelling is now taken
	if _, err := reg.CheckIn("A", "101"); !errors.Is(err, models.ErrAlreadyCheckedIn) {
		t.Errorf("Expected ErrAlreadyCheckedIn, got %v", err)
	}
}

func TestCheckInUnknownUnit(t *testing.T) {
	reg := setup(t)

	if _, err := reg.CheckIn("Z", "999"); !errors.Is(err, models.ErrUnitNotFound) {
		t.Errorf("Expected ErrUnitNotFound, got %v", err)
	}
}

func TestCheckInLinkedUnit(t *testing.T) {
	reg := setup(t)

	voter, err := reg.CheckIn("A", "101")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if _, _, err := reg.LinkUnit(voter.Handle, "A", "102", models.RelationProxy); err != nil {
		t.Fatalf("LinkUnit failed: %v", err)
	}

	// A unit held by proxy cannot also check in on its own
	if _, err := reg.CheckIn("A", "102"); !errors.Is(err, models.ErrAlreadyLinked) {
		t.Errorf("Expected ErrAlreadyLinked, got %v", err)
	}
}

func TestLinkUnit(t *testing.T) {
	reg := setup(t)

	voter, err := reg.CheckIn("A", "101")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	updated, totalWeight, err := reg.LinkUnit(voter.Handle, "A", "102", models.RelationProxy)
	if err != nil {
		t.Fatalf("LinkUnit failed: %v", err)
	}

	if len(updated.LinkedUnits) != 1 {
		t.Fatalf("Expected 1 linked unit, got %d", len(updated.LinkedUnits))
	}
	link := updated.LinkedUnits[0]
	if link.Block != "A" || link.UnitID != "102" || link.Relation != models.RelationProxy {
		t.Errorf("Unexpected link: %+v", link)
	}
	if math.Abs(totalWeight-0.50) > 1e-9 {
		t.Errorf("Expected total weight 0.50, got %v", totalWeight)
	}
}

func TestLinkUnitConflicts(t *testing.T) {
	reg := setup(t)

	a, err := reg.CheckIn("A", "101")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	b, err := reg.CheckIn("B", "201")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	// Cannot link a unit that checked in on its own
	if _, _, err := reg.LinkUnit(a.Handle, "B", "201", models.RelationProxy); !errors.Is(err, models.ErrAlreadyCheckedIn) {
		t.Errorf("Expected ErrAlreadyCheckedIn, got %v", err)
	}

	if _, _, err := reg.LinkUnit(a.Handle, "A", "102", models.RelationProxy); err != nil {
		t.Fatalf("LinkUnit failed: %v", err)
	}

	// Cannot link the same unit to a second attendee
	if _, _, err := reg.LinkUnit(b.Handle, "A", "102", models.RelationProxy); !errors.Is(err, models.ErrAlreadyLinked) {
		t.Errorf("Expected ErrAlreadyLinked, got %v", err)
	}

	// Unknown relation and unknown attendee
	if _, _, err := reg.LinkUnit(a.Handle, "B", "202", "friend"); !errors.Is(err, models.ErrInvalidRelation) {
		t.Errorf("Expected ErrInvalidRelation, got %v", err)
	}
	if _, _, err := reg.LinkUnit("missing-handle", "B", "202", models.RelationProxy); !errors.Is(err, models.ErrVoterNotFound) {
		t.Errorf("Expected ErrVoterNotFound, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	reg := setup(t)

	voter, err := reg.CheckIn("A", "101")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	logged, err := reg.Login("A", "101", "AAA111")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.Handle != voter.Handle {
		t.Errorf("Expected handle %s, got %s", voter.Handle, logged.Handle)
	}
	if logged.LoginStatus != models.LoginLoggedIn || logged.LoginAt == nil {
		t.Errorf("Expected logged_in with a login time, got %s %v", logged.LoginStatus, logged.LoginAt)
	}
}

func TestLoginIdempotent(t *testing.T) {
	reg := setup(t)

	if _, err := reg.CheckIn("A", "101"); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	first, err := reg.Login("A", "101", "AAA111")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	second, err := reg.Login("A", "101", "aaa111")
	if err != nil {
		t.Fatalf("Repeat login failed: %v", err)
	}

	if second.Handle != first.Handle {
		t.Errorf("Repeat login changed handle: %s vs %s", first.Handle, second.Handle)
	}
	if !second.LoginAt.Equal(*first.LoginAt) {
		t.Errorf("Repeat login changed login time: %v vs %v", first.LoginAt, second.LoginAt)
	}
}

func TestLoginAccessDenied(t *testing.T) {
	reg := setup(t)

	if _, err := reg.CheckIn("A", "101"); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	// Wrong secret and unknown unit both deny without detail
	if _, err := reg.Login("A", "101", "WRONG"); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied for wrong secret, got %v", err)
	}
	if _, err := reg.Login("Z", "999", "AAA111"); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied for unknown unit, got %v", err)
	}
}

func TestLoginWithoutCheckIn(t *testing.T) {
	reg := setup(t)

	// A valid secret for a unit that never checked in must not reveal
	// check-in state: same denial as a wrong secret.
	if _, err := reg.Login("A", "101", "AAA111"); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
}

func TestListAttendees(t *testing.T) {
	reg := setup(t)

	a, err := reg.CheckIn("A", "101")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if _, err := reg.CheckIn("B", "201"); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if _, _, err := reg.LinkUnit(a.Handle, "A", "102", models.RelationExtraSeat); err != nil {
		t.Fatalf("LinkUnit failed: %v", err)
	}

	attendees, err := reg.ListAttendees()
	if err != nil {
		t.Fatalf("ListAttendees failed: %v", err)
	}
	if len(attendees) != 2 {
		t.Fatalf("Expected 2 attendees, got %d", len(attendees))
	}

	byHandle := map[string]int{}
	for _, v := range attendees {
		byHandle[v.Handle] = len(v.LinkedUnits)
	}
	if byHandle[a.Handle] != 1 {
		t.Errorf("Expected 1 linked unit on first attendee, got %d", byHandle[a.Handle])
	}
}

// TestConcurrentCheckInAndLink races a check-in for a unit against linking
// the same unit to another attendee. The shared lock must let exactly one
// of them win; otherwise the unit would count twice in a fractional tally.
func TestConcurrentCheckInAndLink(t *testing.T) {
	for i := 0; i < 25; i++ {
		reg, conn := setupWithDB(t)

		host, err := reg.CheckIn("A", "101")
		if err != nil {
			t.Fatalf("CheckIn failed: %v", err)
		}

		start := make(chan struct{})
		var wg sync.WaitGroup
		var checkinErr, linkErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, checkinErr = reg.CheckIn("A", "102")
		}()
		go func() {
			defer wg.Done()
			<-start
			_, _, linkErr = reg.LinkUnit(host.Handle, "A", "102", models.RelationProxy)
		}()
		close(start)
		wg.Wait()

		if checkinErr == nil && linkErr == nil {
			t.Fatal("Unit became both a home unit and a linked unit")
		}
		if checkinErr != nil && linkErr != nil {
			t.Fatalf("Both operations failed: checkin=%v link=%v", checkinErr, linkErr)
		}

		// Exactly one representation of the unit in the whole registry
		var home, linked int
		if err := conn.QueryRow(`SELECT COUNT(*) FROM voter WHERE block = 'A' AND unit_id = '102'`).Scan(&home); err != nil {
			t.Fatalf("Count home rows failed: %v", err)
		}
		if err := conn.QueryRow(`SELECT COUNT(*) FROM linked_unit WHERE block = 'A' AND unit_id = '102'`).Scan(&linked); err != nil {
			t.Fatalf("Count linked rows failed: %v", err)
		}
		if home+linked != 1 {
			t.Fatalf("Expected one representation of A/102, got %d home and %d linked", home, linked)
		}
	}
}

func TestTotalWeight(t *testing.T) {
	v := models.Voter{
		Fraction: 0.30,
		LinkedUnits: []models.LinkedUnit{
			{Fraction: 0.20},
			{Fraction: 0.25},
		},
	}
	if math.Abs(v.TotalWeight()-0.75) > 1e-9 {
		t.Errorf("Expected total weight 0.75, got %v", v.TotalWeight())
	}
}
