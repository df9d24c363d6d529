package handlers_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/router"
	"github.com/condoboard/assembly-vote/testutil"
)

// setupServer wires a full router over a fresh database, the way main does.
func setupServer(t *testing.T) (*http.ServeMux, testutil.Services, *sql.DB) {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	svc := testutil.NewServices(t, conn)

	mux := router.NewRouter(router.Deps{
		DB:       conn,
		Cfg:      testutil.GetTestConfig(),
		Units:    svc.Units,
		Registry: svc.Registry,
		State:    svc.State,
		Ledger:   svc.Ledger,
		Tally:    svc.Tally,
	})
	return mux, svc, conn
}

func do(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

// loginVoter drives the real check-in and login flow and returns the handle.
func loginVoter(t *testing.T, mux *http.ServeMux, block, unit, secret string) string {
	t.Helper()

	w := do(mux, testutil.MakeRequest("POST", "/operator/checkin",
		models.CheckInRequest{Block: block, Unit: unit}, testutil.AdminHeaders()))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = do(mux, testutil.MakeRequest("POST", "/vote/login",
		models.LoginRequest{Block: block, Unit: unit, Secret: secret}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.LoginResponse
	testutil.AssertJSON(t, w, &resp)
	return resp.VoterHandle
}
