// Package domain provides domain models for Approval Hub.
//
// Repository and service methods exchange these types, never raw rows or
// wire records.
package domain

import (
	"fmt"
	"time"
)

// ApprovalStatus represents the decision state of an approval or one of its
// levels. PENDING is the only non-terminal state.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ApprovalStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseApprovalStatus validates a wire string against the closed status set.
// Unknown values fail instead of passing through as a catch-all.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return ApprovalStatus(s), nil
	}
	return "", fmt.Errorf("unknown approval status %q", s)
}

// EntityType identifies the kind of business object under approval.
type EntityType string

const (
	EntityQuotation       EntityType = "QUOTATION"
	EntityProject         EntityType = "PROJECT"
	EntityPurchaseRequest EntityType = "PURCHASE_REQUEST"
	EntityVendor          EntityType = "VENDOR"
)

// ParseEntityType validates a wire string against the closed entity set.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityQuotation, EntityProject, EntityPurchaseRequest, EntityVendor:
		return EntityType(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// HistoryAction classifies one audit entry.
type HistoryAction string

const (
	ActionSubmitted HistoryAction = "SUBMITTED"
	ActionApproved  HistoryAction = "APPROVED"
	ActionRejected  HistoryAction = "REJECTED"
)

// ParseHistoryAction validates a wire string against the closed action set.
func ParseHistoryAction(s string) (HistoryAction, error) {
	switch HistoryAction(s) {
	case ActionSubmitted, ActionApproved, ActionRejected:
		return HistoryAction(s), nil
	}
	return "", fmt.Errorf("unknown history action %q", s)
}

// ApprovalLevel is one approver's slot in the fixed, ordered chain.
// DecidedBy fields are set iff Decision != PENDING.
type ApprovalLevel struct {
	LevelOrder             int            `json:"levelOrder"`
	LevelName              string         `json:"levelName"`
	ExpectedApproverUserID int64          `json:"expectedApproverUserId"`
	ExpectedApproverName   string         `json:"expectedApproverName"`
	Decision               ApprovalStatus `json:"decision"`
	DecidedByUserID        *int64         `json:"decidedByUserId"`
	DecidedByName          *string        `json:"decidedByName"`
	DecidedAt              *time.Time     `json:"decidedAt"`
	Comments               *string        `json:"comments"`
}

// Approval is the aggregate root: one approval request for one entity.
// Levels is nil when only summary data was requested (list views).
type Approval struct {
	ID                int64            `json:"id"`
	EntityType        EntityType       `json:"entityType"`
	EntityID          int64            `json:"entityId"`
	EntityDescription *string          `json:"entityDescription"`
	CurrentLevel      int              `json:"currentLevel"`
	TotalLevels       int              `json:"totalLevels"`
	Status            ApprovalStatus   `json:"status"`
	SubmittedByID     int64            `json:"submittedById"`
	SubmittedByName   string           `json:"submittedByName"`
	SubmittedAt       time.Time        `json:"submittedAt"`
	CompletedAt       *time.Time       `json:"completedAt"`
	CreatedAt         time.Time        `json:"createdAt"`
	Levels            []*ApprovalLevel `json:"levels"`
}

// CurrentPendingLevel returns the level awaiting a decision, or nil when the
// aggregate is terminal or levels are not loaded.
func (a *Approval) CurrentPendingLevel() *ApprovalLevel {
	if a.Status.IsTerminal() {
		return nil
	}
	for _, lv := range a.Levels {
		if lv.LevelOrder == a.CurrentLevel && lv.Decision == StatusPending {
			return lv
		}
	}
	return nil
}

// Validate checks the aggregate invariants: level count and ordering,
// decidedAt presence, currentLevel bounds and completedAt consistency.
func (a *Approval) Validate() error {
	if a.TotalLevels < 1 {
		return fmt.Errorf("approval %d: totalLevels must be positive", a.ID)
	}
	if a.CurrentLevel < 1 || a.CurrentLevel > a.TotalLevels {
		return fmt.Errorf("approval %d: currentLevel %d out of range [1,%d]", a.ID, a.CurrentLevel, a.TotalLevels)
	}
	if a.Status.IsTerminal() != (a.CompletedAt != nil) {
		return fmt.Errorf("approval %d: completedAt must be set iff status is terminal", a.ID)
	}
	if a.Levels == nil {
		return nil
	}
	if len(a.Levels) != a.TotalLevels {
		return fmt.Errorf("approval %d: %d levels loaded, want %d", a.ID, len(a.Levels), a.TotalLevels)
	}
	for i, lv := range a.Levels {
		if lv.LevelOrder != i+1 {
			return fmt.Errorf("approval %d: level at index %d has order %d", a.ID, i, lv.LevelOrder)
		}
		decided := lv.Decision != StatusPending
		if decided != (lv.DecidedAt != nil) {
			return fmt.Errorf("approval %d level %d: decidedAt must be set iff decided", a.ID, lv.LevelOrder)
		}
	}
	return nil
}

// ApprovalListItem is the summary projection used for list rendering.
// It intentionally omits SubmittedByID and Levels.
type ApprovalListItem struct {
	ID                int64          `json:"id"`
	EntityType        EntityType     `json:"entityType"`
	EntityID          int64          `json:"entityId"`
	EntityDescription *string        `json:"entityDescription"`
	CurrentLevel      int            `json:"currentLevel"`
	TotalLevels       int            `json:"totalLevels"`
	Status            ApprovalStatus `json:"status"`
	SubmittedByName   string         `json:"submittedByName"`
	SubmittedAt       time.Time      `json:"submittedAt"`
}

// ListItem narrows the aggregate to its list projection.
func (a *Approval) ListItem() ApprovalListItem {
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

// ApprovalHistory is an immutable, append-only audit entry. LevelOrder and
// LevelName are nil for entity-level actions (SUBMITTED) that precede any
// level decision.
type ApprovalHistory struct {
	ID         int64         `json:"id"`
	ApprovalID int64         `json:"approvalId"`
	LevelOrder *int          `json:"levelOrder"`
	LevelName  *string       `json:"levelName"`
	Action     HistoryAction `json:"action"`
	ActorID    int64         `json:"actorId"`
	ActorName  string        `json:"actorName"`
	Comments   *string       `json:"comments"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// LevelTemplate describes one slot of the chain at submission time.
type LevelTemplate struct {
	LevelName              string
	ExpectedApproverUserID int64
	ExpectedApproverName   string
}

// User is an authenticated actor.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Enabled      bool
	CreatedAt    time.Time
}
