package client

import "strings"

// The mapper converts wire records into domain values. All functions are
// pure and total: strings are trimmed (null stays null, never coerced to
// empty), and enum strings are cast without validation against the closed
// sets. Malformed enum values therefore propagate as-is; callers must not
// assume exhaustiveness at this boundary.

func mapLevel(w levelWire) ApprovalLevel {
	return ApprovalLevel{
		LevelOrder:             w.LevelOrder,
		LevelName:              strings.TrimSpace(w.LevelName),
		ExpectedApproverUserID: w.ExpectedApproverUserID,
		ExpectedApproverName:   strings.TrimSpace(w.ExpectedApproverName),
		Decision:               ApprovalStatus(w.Decision),
		DecidedByUserID:        w.DecidedByUserID,
		DecidedByName:          trimPtr(w.DecidedByName),
		DecidedAt:              w.DecidedAt,
		Comments:               trimPtr(w.Comments),
	}
}

func mapApproval(w approvalWire) Approval {
	a := Approval{
		ID:                w.ID,
		EntityType:        EntityType(w.EntityType),
		EntityID:          w.EntityID,
		EntityDescription: trimPtr(w.EntityDescription),
		CurrentLevel:      w.CurrentLevel,
		TotalLevels:       w.TotalLevels,
		Status:            ApprovalStatus(w.Status),
		SubmittedByID:     w.SubmittedByID,
		SubmittedByName:   strings.TrimSpace(w.SubmittedByName),
		SubmittedAt:       w.SubmittedAt,
		CompletedAt:       w.CompletedAt,
		CreatedAt:         w.CreatedAt,
	}
	if w.Levels != nil {
		a.Levels = make([]ApprovalLevel, 0, len(w.Levels))
		for _, lv := range w.Levels {
			a.Levels = append(a.Levels, mapLevel(lv))
		}
	}
	return a
}

func mapHistory(w historyWire) ApprovalHistory {
	return ApprovalHistory{
		ID:         w.ID,
		ApprovalID: w.ApprovalID,
		LevelOrder: w.LevelOrder,
		LevelName:  trimPtr(w.LevelName),
		Action:     HistoryAction(w.Action),
		ActorID:    w.ActorID,
		ActorName:  strings.TrimSpace(w.ActorName),
		Comments:   trimPtr(w.Comments),
		CreatedAt:  w.CreatedAt,
	}
}

func mapListItem(w listItemWire) ApprovalListItem {
	return ApprovalListItem{
		ID:                w.ID,
		EntityType:        EntityType(w.EntityType),
		EntityID:          w.EntityID,
		EntityDescription: trimPtr(w.EntityDescription),
		CurrentLevel:      w.CurrentLevel,
		TotalLevels:       w.TotalLevels,
		Status:            ApprovalStatus(w.Status),
		SubmittedByName:   strings.TrimSpace(w.SubmittedByName),
		SubmittedAt:       w.SubmittedAt,
	}
}

// ToListItem narrows an Approval to its summary projection. The result
// carries neither SubmittedByID nor Levels.
func ToListItem(a Approval) ApprovalListItem {
	return ApprovalListItem{
		ID:                a.ID,
		EntityType:        a.EntityType,
		EntityID:          a.EntityID,
		EntityDescription: a.EntityDescription,
		CurrentLevel:      a.CurrentLevel,
		TotalLevels:       a.TotalLevels,
		Status:            a.Status,
		SubmittedByName:   a.SubmittedByName,
		SubmittedAt:       a.SubmittedAt,
	}
}

// trimPtr trims a nullable string; nil stays nil, never an empty string.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
