package handlers_test

import (
	"net/http"
	"testing"

	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/testutil"
)

func TestPublicStatus(t *testing.T) {
	mux, svc, _ := setupServer(t)

	// No item to display before anything opens
	w := do(mux, testutil.MakeRequest("GET", "/public/status", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.StatusResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.CurrentItem != nil {
		t.Errorf("Expected no current item, got %+v", resp.CurrentItem)
	}

	testutil.StartAssembly(t, svc)
	testutil.OpenItem(t, svc, 1)
	handle := loginVoter(t, mux, "A", "101", "AAA111")

	w = do(mux, testutil.MakeRequest("POST", "/vote/cast",
		models.CastRequest{VoterHandle: handle, ItemOrderNo: 1, Choice: models.ChoiceYes}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	// Open item shows a live tally
	w = do(mux, testutil.MakeRequest("GET", "/public/status", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &resp)
	if resp.CurrentItem == nil || !resp.CurrentItem.Live {
		t.Fatalf("Expected live current item, got %+v", resp.CurrentItem)
	}
	if resp.CurrentItem.Results.TotalCount != 1 {
		t.Errorf("Expected 1 vote in live tally, got %d", resp.CurrentItem.Results.TotalCount)
	}

	// After close the same item shows with frozen totals
	if _, err := svc.State.CloseItem(1); err != nil {
		t.Fatalf("CloseItem failed: %v", err)
	}
	w = do(mux, testutil.MakeRequest("GET", "/public/status", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &resp)
	if resp.CurrentItem == nil || resp.CurrentItem.Live {
		t.Fatalf("Expected frozen display item, got %+v", resp.CurrentItem)
	}
	if resp.CurrentItem.Item.OrderNo != 1 {
		t.Errorf("Expected item 1 on display, got %d", resp.CurrentItem.Item.OrderNo)
	}
}

func TestPublicResults(t *testing.T) {
	mux, svc, _ := setupServer(t)
	testutil.StartAssembly(t, svc)
	testutil.OpenItem(t, svc, 1)
	handle := loginVoter(t, mux, "A", "101", "AAA111")

	w := do(mux, testutil.MakeRequest("POST", "/vote/cast",
		models.CastRequest{VoterHandle: handle, ItemOrderNo: 1, Choice: models.ChoiceYes}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = do(mux, testutil.MakeRequest("GET", "/public/items/1/results", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var status models.ItemStatus
	testutil.AssertJSON(t, w, &status)
	if !status.Live || status.Results.TotalCount != 1 {
		t.Errorf("Expected live results with 1 vote, got %+v", status)
	}

	if _, err := svc.State.CloseItem(1); err != nil {
		t.Fatalf("CloseItem failed: %v", err)
	}

	w = do(mux, testutil.MakeRequest("GET", "/public/items/1/results", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &status)
	if status.Live || status.Results.TotalCount != 1 {
		t.Errorf("Expected frozen results with 1 vote, got %+v", status)
	}

	// Unknown item
	w = do(mux, testutil.MakeRequest("GET", "/public/items/99/results", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
