// Package notification implements decision and reminder notifications.
//
// V1 ships a log-backed sender only; delivery runs on the notify worker
// pool so slow channels never block job workers. Email/webhook channels
// plug in behind the same Sender interface later.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"approvalhub.io/approvalhub/internal/pkg/logger"
	"approvalhub.io/approvalhub/internal/pkg/worker"
)

// Notification type constants.
const (
	TypeApprovalCompleted = "APPROVAL_COMPLETED"
	TypeApprovalRejected  = "APPROVAL_REJECTED"
	TypeApprovalReminder  = "APPROVAL_REMINDER"
)

// Params holds the required fields for one notification.
type Params struct {
	RecipientID int64  // user ID of the recipient
	Type        string // one of the Type* constants
	Title       string
	Message     string
	ApprovalID  int64 // related approval for navigation
}

// Sender delivers notifications to recipients.
type Sender interface {
	// Send notifies a single recipient.
	Send(ctx context.Context, params Params) error

	// SendToMany notifies multiple recipients. Best-effort: individual
	// failures are logged, not propagated.
	SendToMany(ctx context.Context, recipientIDs []int64, params Params)
}

// LogSender emits notifications to the structured log. Delivery is
// dispatched through the notify pool.
type LogSender struct {
	pools *worker.Pools
}

// NewLogSender creates a log-backed sender.
func NewLogSender(pools *worker.Pools) *LogSender {
	return &LogSender{pools: pools}
}

// Send delivers one notification.
func (s *LogSender) Send(ctx context.Context, params Params) error {
	if err := validateParams(params); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}

	deliver := func(ctx context.Context) {
		logger.Info("notification delivered",
			zap.Int64("recipient_id", params.RecipientID),
			zap.String("type", params.Type),
			zap.String("title", params.Title),
			zap.Int64("approval_id", params.ApprovalID),
		)
	}

	if s.pools == nil {
		deliver(ctx)
		return nil
	}
	return s.pools.Notify.Submit(ctx, deliver)
}

// SendToMany fans one notification out to several recipients.
func (s *LogSender) SendToMany(ctx context.Context, recipientIDs []int64, params Params) {
	for _, id := range recipientIDs {
		p := params
		p.RecipientID = id
		if err := s.Send(ctx, p); err != nil {
			logger.Warn("notification delivery failed",
				zap.Int64("recipient_id", id),
				zap.String("type", params.Type),
				zap.Error(err),
			)
		}
	}
}

func validateParams(p Params) error {
	if p.RecipientID <= 0 {
		return fmt.Errorf("recipient id must be positive")
	}
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}
