package client

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMapLevelTrimsStrings(t *testing.T) {
	decidedBy := "  Park Jisoo  "
	comments := "\tfine\n"
	now := time.Now().UTC()

	lv := mapLevel(levelWire{
		LevelOrder:             1,
		LevelName:              "  Team Lead  ",
		ExpectedApproverUserID: 10,
		ExpectedApproverName:   " Kim ",
		Decision:               "APPROVED",
		DecidedByName:          &decidedBy,
		DecidedAt:              &now,
		Comments:               &comments,
	})

	if lv.LevelName != "Team Lead" {
		t.Errorf("LevelName = %q", lv.LevelName)
	}
	if lv.ExpectedApproverName != "Kim" {
		t.Errorf("ExpectedApproverName = %q", lv.ExpectedApproverName)
	}
	if lv.DecidedByName == nil || *lv.DecidedByName != "Park Jisoo" {
		t.Errorf("DecidedByName = %v", lv.DecidedByName)
	}
	if lv.Comments == nil || *lv.Comments != "fine" {
		t.Errorf("Comments = %v", lv.Comments)
	}
}

func TestMapLevelNullStaysNull(t *testing.T) {
	lv := mapLevel(levelWire{LevelOrder: 2, LevelName: "Director", Decision: "PENDING"})

	if lv.DecidedByName != nil {
		t.Errorf("DecidedByName = %v, want nil", lv.DecidedByName)
	}
	if lv.Comments != nil {
		t.Errorf("Comments = %v, want nil", lv.Comments)
	}
	if lv.DecidedAt != nil {
		t.Errorf("DecidedAt = %v, want nil", lv.DecidedAt)
	}
}

func TestMapApprovalTrimsAndMapsLevels(t *testing.T) {
	desc := "  Q3 vendor onboarding  "
	w := approvalWire{
		ID:                42,
		EntityType:        "QUOTATION",
		EntityID:          1001,
		EntityDescription: &desc,
		CurrentLevel:      1,
		TotalLevels:       2,
		Status:            "PENDING",
		SubmittedByID:     3,
		SubmittedByName:   "  Lee Younghee  ",
		SubmittedAt:       time.Now().UTC(),
		Levels: []levelWire{
			{LevelOrder: 1, LevelName: " L1 ", Decision: "PENDING"},
			{LevelOrder: 2, LevelName: " L2 ", Decision: "PENDING"},
		},
	}

	a := mapApproval(w)
	if a.SubmittedByName != "Lee Younghee" {
		t.Errorf("SubmittedByName = %q", a.SubmittedByName)
	}
	if a.EntityDescription == nil || *a.EntityDescription != "Q3 vendor onboarding" {
		t.Errorf("EntityDescription = %v", a.EntityDescription)
	}
	if len(a.Levels) != 2 || a.Levels[0].LevelName != "L1" || a.Levels[1].LevelName != "L2" {
		t.Errorf("Levels = %+v", a.Levels)
	}
}

func TestMapApprovalNilLevelsStayNil(t *testing.T) {
	a := mapApproval(approvalWire{ID: 1, Status: "PENDING"})
	if a.Levels != nil {
		t.Errorf("Levels = %v, want nil", a.Levels)
	}
}

func TestMapApprovalTrustsStoredStatus(t *testing.T) {
	// Level 2 is still PENDING but the aggregate says REJECTED: the mapper
	// does not recompute status from the ledger, it carries it as-is.
	w := approvalWire{
		ID: 7, Status: "REJECTED", CurrentLevel: 1, TotalLevels: 2,
		Levels: []levelWire{
			{LevelOrder: 1, Decision: "REJECTED"},
			{LevelOrder: 2, Decision: "PENDING"},
		},
	}

	a := mapApproval(w)
	if a.Status != StatusRejected {
		t.Errorf("Status = %q, want REJECTED", a.Status)
	}
}

func TestMapApprovalCastsUnknownEnumUnvalidated(t *testing.T) {
	a := mapApproval(approvalWire{ID: 1, EntityType: "INVOICE", Status: "ON_HOLD"})
	if string(a.EntityType) != "INVOICE" {
		t.Errorf("EntityType = %q", a.EntityType)
	}
	if string(a.Status) != "ON_HOLD" {
		t.Errorf("Status = %q", a.Status)
	}
}

func TestMapHistoryTrims(t *testing.T) {
	levelName := " Team Lead "
	comments := " looks ok "
	h := mapHistory(historyWire{
		ID: 1, ApprovalID: 42, Action: "APPROVED",
		ActorName: "  Kim  ", LevelName: &levelName, Comments: &comments,
	})

	if h.ActorName != "Kim" {
		t.Errorf("ActorName = %q", h.ActorName)
	}
	if h.LevelName == nil || *h.LevelName != "Team Lead" {
		t.Errorf("LevelName = %v", h.LevelName)
	}
	if h.Comments == nil || *h.Comments != "looks ok" {
		t.Errorf("Comments = %v", h.Comments)
	}
}

func TestToListItemOmitsSubmitterIDAndLevels(t *testing.T) {
	a := mapApproval(approvalWire{
		ID: 42, EntityType: "QUOTATION", EntityID: 1001, Status: "PENDING",
		SubmittedByID: 3, SubmittedByName: "Lee",
		Levels: []levelWire{{LevelOrder: 1, Decision: "PENDING"}},
	})

	item := ToListItem(a)
	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	keys := map[string]any{}
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, leak := range []string{"SubmittedByID", "Levels"} {
		if _, ok := keys[leak]; ok {
			t.Errorf("list item leaks %s: %s", leak, raw)
		}
	}
	if item.ID != 42 || item.SubmittedByName != "Lee" {
		t.Errorf("item = %+v", item)
	}
}
