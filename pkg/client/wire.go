package client

import "time"

// Wire records mirror the raw JSON shapes returned by the server. The mapper
// in mapper.go is the sole translation boundary; nothing else may read these.

type levelWire struct {
	LevelOrder             int        `json:"levelOrder"`
	LevelName              string     `json:"levelName"`
	ExpectedApproverUserID int64      `json:"expectedApproverUserId"`
	ExpectedApproverName   string     `json:"expectedApproverName"`
	Decision               string     `json:"decision"`
	DecidedByUserID        *int64     `json:"decidedByUserId"`
	DecidedByName          *string    `json:"decidedByName"`
	DecidedAt              *time.Time `json:"decidedAt"`
	Comments               *string    `json:"comments"`
}

type approvalWire struct {
	ID                int64       `json:"id"`
	EntityType        string      `json:"entityType"`
	EntityID          int64       `json:"entityId"`
	EntityDescription *string     `json:"entityDescription"`
	CurrentLevel      int         `json:"currentLevel"`
	TotalLevels       int         `json:"totalLevels"`
	Status            string      `json:"status"`
	SubmittedByID     int64       `json:"submittedById"`
	SubmittedByName   string      `json:"submittedByName"`
	SubmittedAt       time.Time   `json:"submittedAt"`
	CompletedAt       *time.Time  `json:"completedAt"`
	CreatedAt         time.Time   `json:"createdAt"`
	Levels            []levelWire `json:"levels"`
}

type historyWire struct {
	ID         int64     `json:"id"`
	ApprovalID int64     `json:"approvalId"`
	LevelOrder *int      `json:"levelOrder"`
	LevelName  *string   `json:"levelName"`
	Action     string    `json:"action"`
	ActorID    int64     `json:"actorId"`
	ActorName  string    `json:"actorName"`
	Comments   *string   `json:"comments"`
	CreatedAt  time.Time `json:"createdAt"`
}

type listItemWire struct {
	ID                int64     `json:"id"`
	EntityType        string    `json:"entityType"`
	EntityID          int64     `json:"entityId"`
	EntityDescription *string   `json:"entityDescription"`
	CurrentLevel      int       `json:"currentLevel"`
	TotalLevels       int       `json:"totalLevels"`
	Status            string    `json:"status"`
	SubmittedByName   string    `json:"submittedByName"`
	SubmittedAt       time.Time `json:"submittedAt"`
}

type listResponseWire struct {
	Items []listItemWire `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}
