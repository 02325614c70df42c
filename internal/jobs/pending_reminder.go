package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"approvalhub.io/approvalhub/internal/notification"
	"approvalhub.io/approvalhub/internal/pkg/logger"
	"approvalhub.io/approvalhub/internal/repository"
)

const (
	// DefaultPendingReminderAge is how long an approval may sit pending
	// before its current approver gets a reminder.
	DefaultPendingReminderAge = 48 * time.Hour

	// pendingReminderBatchSize caps how many stale approvals one run handles.
	pendingReminderBatchSize = 200
)

// PendingReminderArgs is a periodic job that nudges approvers whose decision
// has been outstanding for too long.
type PendingReminderArgs struct{}

// Kind returns the job kind identifier for periodic pending reminders.
func (PendingReminderArgs) Kind() string { return "approval_pending_reminder" }

// InsertOpts ensures at most one reminder job is enqueued within the same hour.
func (PendingReminderArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// PendingReminderWorker finds stale pending approvals and reminds the approver
// expected at each one's current level.
type PendingReminderWorker struct {
	river.WorkerDefaults[PendingReminderArgs]
	approvals *repository.ApprovalRepository
	sender    notification.Sender
	age       time.Duration
}

// NewPendingReminderWorker creates a reminder worker. Non-positive age falls
// back to the 48-hour default.
func NewPendingReminderWorker(approvals *repository.ApprovalRepository, sender notification.Sender, age time.Duration) *PendingReminderWorker {
	if age <= 0 {
		age = DefaultPendingReminderAge
	}
	return &PendingReminderWorker{approvals: approvals, sender: sender, age: age}
}

// Work sends one reminder per stale pending approval.
func (w *PendingReminderWorker) Work(ctx context.Context, _ *river.Job[PendingReminderArgs]) error {
	if w == nil || w.approvals == nil || w.sender == nil {
		return fmt.Errorf("pending reminder worker is not initialized")
	}

	cutoff := time.Now().UTC().Add(-w.age)
	stale, err := w.approvals.ListPendingOlderThan(ctx, cutoff, pendingReminderBatchSize)
	if err != nil {
		return fmt.Errorf("list pending approvals before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	sent := 0
	for _, approval := range stale {
		level := approval.CurrentPendingLevel()
		if level == nil {
			logger.Warn("pending reminder found approval without pending level",
				zap.Int64("approval_id", approval.ID),
				zap.Int("current_level", approval.CurrentLevel))
			continue
		}

		waiting := time.Since(approval.SubmittedAt).Round(time.Hour)
		err := w.sender.Send(ctx, notification.Params{
			RecipientID: level.ExpectedApproverUserID,
			Type:        notification.TypeApprovalReminder,
			Title:       "Approval still awaiting your decision",
			Message:     fmt.Sprintf("%s #%d has been waiting %s at level %d.", approval.EntityType, approval.EntityID, waiting, level.LevelOrder),
			ApprovalID:  approval.ID,
		})
		if err != nil {
			logger.Warn("pending reminder delivery failed",
				zap.Int64("approval_id", approval.ID),
				zap.Int64("recipient_id", level.ExpectedApproverUserID),
				zap.Error(err))
			continue
		}
		sent++
	}

	logger.Info("pending reminder run completed",
		zap.Int("stale_approvals", len(stale)),
		zap.Int("reminders_sent", sent),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
	)
	return nil
}
