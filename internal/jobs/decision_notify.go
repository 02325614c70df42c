package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"approvalhub.io/approvalhub/internal/domain"
	"approvalhub.io/approvalhub/internal/notification"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
	"approvalhub.io/approvalhub/internal/pkg/logger"
	"approvalhub.io/approvalhub/internal/repository"
)

// QueueNotifications carries decision notification jobs. It must be listed
// in the River client's queue config or its jobs never leave `available`.
const QueueNotifications = "notifications"

// ---------------------------------------------------------------------------
// Job Args
// ---------------------------------------------------------------------------

// DecisionNotifyArgs carries only the approval ID; the worker re-reads the
// aggregate so the notification always reflects committed state.
type DecisionNotifyArgs struct {
	ApprovalID int64 `json:"approval_id"`
}

// Kind returns the job kind identifier for decision notifications.
func (DecisionNotifyArgs) Kind() string { return "approval_decision_notify" }

// InsertOpts returns default insert options for decision notification jobs.
func (DecisionNotifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueNotifications,
		MaxAttempts: 3,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
		},
	}
}

// ---------------------------------------------------------------------------
// Worker
// ---------------------------------------------------------------------------

// approvalGetter is the slice of the approval repository this worker needs.
type approvalGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Approval, error)
}

var _ approvalGetter = (*repository.ApprovalRepository)(nil)

// DecisionNotifyWorker notifies interested users after a decision commits.
//
// Execution flow:
//  1. Fetch the approval aggregate by ID
//  2. Terminal status: fan the outcome out to everyone involved, the
//     submitter plus each approver who decided a level
//  3. Non-terminal status: an intermediate level was approved, notify the
//     approver expected at the new current level
//
// The job is enqueued in the same transaction as the decision write, so a
// visible job always refers to committed state.
type DecisionNotifyWorker struct {
	river.WorkerDefaults[DecisionNotifyArgs]
	approvals approvalGetter
	sender    notification.Sender
}

// NewDecisionNotifyWorker creates a new DecisionNotifyWorker.
func NewDecisionNotifyWorker(approvals approvalGetter, sender notification.Sender) *DecisionNotifyWorker {
	return &DecisionNotifyWorker{approvals: approvals, sender: sender}
}

// Work delivers the notification for one committed decision.
func (w *DecisionNotifyWorker) Work(ctx context.Context, job *river.Job[DecisionNotifyArgs]) error {
	if w == nil || w.approvals == nil || w.sender == nil {
		return fmt.Errorf("decision notify worker is not initialized")
	}

	approval, err := w.approvals.GetByID(ctx, job.Args.ApprovalID)
	if err != nil {
		// The approval may have been removed between enqueue and execution.
		// Nothing to notify about; do not retry.
		if appErr, ok := apperrors.IsAppError(err); ok && appErr.Code == apperrors.CodeApprovalNotFound {
			logger.Warn("decision notify skipped, approval gone",
				zap.Int64("approval_id", job.Args.ApprovalID))
			return nil
		}
		return fmt.Errorf("load approval %d: %w", job.Args.ApprovalID, err)
	}

	switch approval.Status {
	case domain.StatusApproved:
		w.sender.SendToMany(ctx, outcomeRecipients(approval), notification.Params{
			Type:       notification.TypeApprovalCompleted,
			Title:      "Approval completed",
			Message:    fmt.Sprintf("%s #%d has been approved at all levels.", approval.EntityType, approval.EntityID),
			ApprovalID: approval.ID,
		})
		return nil

	case domain.StatusRejected:
		w.sender.SendToMany(ctx, outcomeRecipients(approval), notification.Params{
			Type:       notification.TypeApprovalRejected,
			Title:      "Approval rejected",
			Message:    fmt.Sprintf("%s #%d has been rejected.", approval.EntityType, approval.EntityID),
			ApprovalID: approval.ID,
		})
		return nil

	case domain.StatusPending:
		level := approval.CurrentPendingLevel()
		if level == nil {
			logger.Warn("decision notify found pending approval without pending level",
				zap.Int64("approval_id", approval.ID),
				zap.Int("current_level", approval.CurrentLevel))
			return nil
		}
		return w.sender.Send(ctx, notification.Params{
			RecipientID: level.ExpectedApproverUserID,
			Type:        notification.TypeApprovalReminder,
			Title:       "Approval awaiting your decision",
			Message:     fmt.Sprintf("%s #%d is now at level %d and awaits your decision.", approval.EntityType, approval.EntityID, level.LevelOrder),
			ApprovalID:  approval.ID,
		})
	}

	return fmt.Errorf("approval %d has unexpected status %q", approval.ID, approval.Status)
}

// outcomeRecipients lists the submitter followed by every approver who
// decided a level, deduplicated in chain order.
func outcomeRecipients(a *domain.Approval) []int64 {
	seen := map[int64]bool{a.SubmittedByID: true}
	out := []int64{a.SubmittedByID}
	for _, lv := range a.Levels {
		if lv.DecidedByUserID == nil || seen[*lv.DecidedByUserID] {
			continue
		}
		seen[*lv.DecidedByUserID] = true
		out = append(out, *lv.DecidedByUserID)
	}
	return out
}
