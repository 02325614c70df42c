package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"approvalhub.io/approvalhub/internal/domain"
	"approvalhub.io/approvalhub/internal/notification"
)

type fakeGetter struct {
	approval *domain.Approval
	err      error
}

func (f *fakeGetter) GetByID(context.Context, int64) (*domain.Approval, error) {
	return f.approval, f.err
}

type captureSender struct {
	sent    []notification.Params
	fanOuts [][]int64
	fanned  []notification.Params
}

func (c *captureSender) Send(_ context.Context, p notification.Params) error {
	c.sent = append(c.sent, p)
	return nil
}

func (c *captureSender) SendToMany(_ context.Context, ids []int64, p notification.Params) {
	c.fanOuts = append(c.fanOuts, ids)
	c.fanned = append(c.fanned, p)
}

func TestDecisionNotifyArgsKind(t *testing.T) {
	t.Parallel()

	if got := (DecisionNotifyArgs{}).Kind(); got != "approval_decision_notify" {
		t.Fatalf("Kind() = %q, want %q", got, "approval_decision_notify")
	}
}

func TestDecisionNotifyArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (DecisionNotifyArgs{}).InsertOpts()
	if opts.Queue != QueueNotifications {
		t.Fatalf("Queue = %q, want %q", opts.Queue, QueueNotifications)
	}
	if opts.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", opts.MaxAttempts)
	}
	if !opts.UniqueOpts.ByArgs {
		t.Fatal("UniqueOpts.ByArgs = false, want true")
	}
	if !opts.UniqueOpts.ByQueue {
		t.Fatal("UniqueOpts.ByQueue = false, want true")
	}
}

func TestDecisionNotifyWorkerWork_Uninitialized(t *testing.T) {
	t.Parallel()

	w := &DecisionNotifyWorker{}
	err := w.Work(context.Background(), &river.Job[DecisionNotifyArgs]{})
	if err == nil {
		t.Fatal("Work() = nil, want initialization error")
	}
}

func terminalApproval(status domain.ApprovalStatus) *domain.Approval {
	decidedBy1, decidedBy2 := int64(7), int64(8)
	now := time.Now().UTC()
	return &domain.Approval{
		ID:            42,
		EntityType:    domain.EntityQuotation,
		EntityID:      1001,
		CurrentLevel:  2,
		TotalLevels:   2,
		Status:        status,
		SubmittedByID: 3,
		CompletedAt:   &now,
		Levels: []*domain.ApprovalLevel{
			{LevelOrder: 1, Decision: domain.StatusApproved, ExpectedApproverUserID: 7, DecidedByUserID: &decidedBy1},
			{LevelOrder: 2, Decision: status, ExpectedApproverUserID: 8, DecidedByUserID: &decidedBy2},
		},
	}
}

func TestDecisionNotifyWork_TerminalFansOutToParticipants(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	w := NewDecisionNotifyWorker(&fakeGetter{approval: terminalApproval(domain.StatusApproved)}, sender)

	err := w.Work(context.Background(), &river.Job[DecisionNotifyArgs]{Args: DecisionNotifyArgs{ApprovalID: 42}})
	if err != nil {
		t.Fatalf("Work() = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("single sends = %d, want fan-out only", len(sender.sent))
	}
	if len(sender.fanOuts) != 1 {
		t.Fatalf("fan-outs = %d, want 1", len(sender.fanOuts))
	}
	got := sender.fanOuts[0]
	want := []int64{3, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recipients = %v, want %v", got, want)
		}
	}
	if sender.fanned[0].Type != notification.TypeApprovalCompleted {
		t.Errorf("Type = %q, want %q", sender.fanned[0].Type, notification.TypeApprovalCompleted)
	}
}

func TestDecisionNotifyWork_RecipientsDeduplicated(t *testing.T) {
	t.Parallel()

	// Submitter 7 also decided level 1; they get the outcome once.
	approval := terminalApproval(domain.StatusRejected)
	approval.SubmittedByID = 7

	sender := &captureSender{}
	w := NewDecisionNotifyWorker(&fakeGetter{approval: approval}, sender)

	if err := w.Work(context.Background(), &river.Job[DecisionNotifyArgs]{Args: DecisionNotifyArgs{ApprovalID: 42}}); err != nil {
		t.Fatalf("Work() = %v", err)
	}
	got := sender.fanOuts[0]
	if len(got) != 2 || got[0] != 7 || got[1] != 8 {
		t.Fatalf("recipients = %v, want [7 8]", got)
	}
	if sender.fanned[0].Type != notification.TypeApprovalRejected {
		t.Errorf("Type = %q, want %q", sender.fanned[0].Type, notification.TypeApprovalRejected)
	}
}

func TestDecisionNotifyWork_AdvanceNotifiesNextApprover(t *testing.T) {
	t.Parallel()

	decidedBy := int64(7)
	approval := &domain.Approval{
		ID:            42,
		EntityType:    domain.EntityProject,
		EntityID:      55,
		CurrentLevel:  2,
		TotalLevels:   2,
		Status:        domain.StatusPending,
		SubmittedByID: 3,
		Levels: []*domain.ApprovalLevel{
			{LevelOrder: 1, Decision: domain.StatusApproved, ExpectedApproverUserID: 7, DecidedByUserID: &decidedBy},
			{LevelOrder: 2, Decision: domain.StatusPending, ExpectedApproverUserID: 8},
		},
	}

	sender := &captureSender{}
	w := NewDecisionNotifyWorker(&fakeGetter{approval: approval}, sender)

	if err := w.Work(context.Background(), &river.Job[DecisionNotifyArgs]{Args: DecisionNotifyArgs{ApprovalID: 42}}); err != nil {
		t.Fatalf("Work() = %v", err)
	}
	if len(sender.fanOuts) != 0 {
		t.Fatalf("fan-outs = %d, want none before the chain ends", len(sender.fanOuts))
	}
	if len(sender.sent) != 1 {
		t.Fatalf("single sends = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].RecipientID != 8 {
		t.Errorf("RecipientID = %d, want 8", sender.sent[0].RecipientID)
	}
}

func TestPendingReminderArgsKind(t *testing.T) {
	t.Parallel()

	if got := (PendingReminderArgs{}).Kind(); got != "approval_pending_reminder" {
		t.Fatalf("Kind() = %q, want %q", got, "approval_pending_reminder")
	}
}

func TestPendingReminderArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (PendingReminderArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
	if opts.UniqueOpts.ByPeriod != time.Hour {
		t.Fatalf("UniqueOpts.ByPeriod = %s, want %s", opts.UniqueOpts.ByPeriod, time.Hour)
	}
}

func TestNewPendingReminderWorkerAge(t *testing.T) {
	t.Parallel()

	t.Run("defaults to forty-eight hours when non-positive", func(t *testing.T) {
		w := NewPendingReminderWorker(nil, nil, 0)
		if w.age != DefaultPendingReminderAge {
			t.Fatalf("age = %s, want %s", w.age, DefaultPendingReminderAge)
		}
	})

	t.Run("uses explicit age when provided", func(t *testing.T) {
		want := 12 * time.Hour
		w := NewPendingReminderWorker(nil, nil, want)
		if w.age != want {
			t.Fatalf("age = %s, want %s", w.age, want)
		}
	})
}

func TestPendingReminderWorkerWork_Uninitialized(t *testing.T) {
	t.Parallel()

	w := &PendingReminderWorker{}
	err := w.Work(context.Background(), &river.Job[PendingReminderArgs]{})
	if err == nil {
		t.Fatal("Work() = nil, want initialization error")
	}
}
