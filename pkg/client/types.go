// Package client is the Go consumer library for the approval service API.
//
// It owns the wire-to-domain mapping boundary, deterministic cache keys for
// read deduplication and invalidation, and the approve/reject commands with
// their local validation rules. Mapped objects are plain values; refreshing
// state means refetching, never partial mutation.
package client

import "time"

// ApprovalStatus is the closed decision state set.
type ApprovalStatus string

// ApprovalStatus values.
const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
)

// IsTerminal reports whether the status can no longer change.
func (s ApprovalStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// EntityType identifies the kind of business object under approval.
type EntityType string

// HistoryAction classifies one audit entry.
type HistoryAction string

// HistoryAction values.
const (
	ActionSubmitted HistoryAction = "SUBMITTED"
	ActionApproved  HistoryAction = "APPROVED"
	ActionRejected  HistoryAction = "REJECTED"
)

// ApprovalLevel is one approver's slot in the fixed, ordered chain.
type ApprovalLevel struct {
	LevelOrder             int
	LevelName              string
	ExpectedApproverUserID int64
	ExpectedApproverName   string
	Decision               ApprovalStatus
	DecidedByUserID        *int64
	DecidedByName          *string
	DecidedAt              *time.Time
	Comments               *string
}

// Approval is one approval request for one entity. Levels is nil when only
// summary data was fetched.
type Approval struct {
	ID                int64
	EntityType        EntityType
	EntityID          int64
	EntityDescription *string
	CurrentLevel      int
	TotalLevels       int
	Status            ApprovalStatus
	SubmittedByID     int64
	SubmittedByName   string
	SubmittedAt       time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	Levels            []ApprovalLevel
}

// ApprovalListItem is the summary projection used for list rendering. It
// deliberately has no SubmittedByID or Levels fields.
type ApprovalListItem struct {
	ID                int64
	EntityType        EntityType
	EntityID          int64
	EntityDescription *string
	CurrentLevel      int
	TotalLevels       int
	Status            ApprovalStatus
	SubmittedByName   string
	SubmittedAt       time.Time
}

// ApprovalHistory is one immutable audit entry.
type ApprovalHistory struct {
	ID         int64
	ApprovalID int64
	LevelOrder *int
	LevelName  *string
	Action     HistoryAction
	ActorID    int64
	ActorName  string
	Comments   *string
	CreatedAt  time.Time
}

// Pagination carries the list metadata unchanged from the server.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// ApprovalPage is one mapped page of approvals.
type ApprovalPage struct {
	Items      []ApprovalListItem
	Pagination Pagination
}

// CommandAck is the acknowledgment returned by approve and reject. It is not
// the updated aggregate; callers refetch to observe new state.
type CommandAck struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}
