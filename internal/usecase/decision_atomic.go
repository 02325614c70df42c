// Package usecase provides application use cases.
//
// Core approval writes and their job enqueues must be atomic: a level
// decision, the aggregate transition it causes, the audit entry, and the
// notification job all commit in a single pgx.Tx, or none of them do.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"

	"approvalhub.io/approvalhub/internal/domain"
	"approvalhub.io/approvalhub/internal/jobs"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
	"approvalhub.io/approvalhub/internal/repository"
)

// DecisionWriter executes approval state transitions + River enqueue in one
// pgx transaction.
type DecisionWriter struct {
	pool        *pgxpool.Pool
	riverClient *river.Client[pgx.Tx]
	approvals   *repository.ApprovalRepository
	history     *repository.HistoryRepository
}

// NewDecisionWriter creates a new atomic decision writer.
func NewDecisionWriter(
	pool *pgxpool.Pool,
	riverClient *river.Client[pgx.Tx],
	approvals *repository.ApprovalRepository,
	history *repository.HistoryRepository,
) *DecisionWriter {
	return &DecisionWriter{
		pool:        pool,
		riverClient: riverClient,
		approvals:   approvals,
		history:     history,
	}
}

// DecisionInput describes one approve or reject command against the
// approval's current level.
type DecisionInput struct {
	ApprovalID int64
	Decision   domain.ApprovalStatus // StatusApproved or StatusRejected
	ActorID    int64
	ActorName  string
	Comments   *string
}

// Decide atomically:
// 1) locks the aggregate row (SELECT ... FOR UPDATE),
// 2) records the decision on the current level,
// 3) advances the chain, or completes the approval on rejection or final
//    level approval,
// 4) appends the audit entry,
// 5) inserts a River decision notification job via InsertTx.
//
// It returns the post-commit aggregate with levels loaded.
func (w *DecisionWriter) Decide(ctx context.Context, in DecisionInput) (*domain.Approval, error) {
	if w.pool == nil || w.riverClient == nil || w.approvals == nil || w.history == nil {
		return nil, fmt.Errorf("decision writer is not initialized")
	}
	if in.Decision != domain.StatusApproved && in.Decision != domain.StatusRejected {
		return nil, fmt.Errorf("decision %q is not a terminal level decision", in.Decision)
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin decision tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	approvals := w.approvals.WithTx(tx)
	history := w.history.WithTx(tx)

	approval, err := approvals.GetForUpdate(ctx, in.ApprovalID)
	if err != nil {
		return nil, err
	}
	if approval.Status.IsTerminal() {
		return nil, apperrors.ErrApprovalCompleted(string(approval.Status))
	}

	level := approval.CurrentPendingLevel()
	if level == nil {
		return nil, fmt.Errorf("approval %d is pending but level %d is not decidable", approval.ID, approval.CurrentLevel)
	}
	if level.ExpectedApproverUserID != in.ActorID {
		return nil, apperrors.ErrNotCurrentApprover()
	}

	now := time.Now().UTC()

	affected, err := approvals.DecideLevel(ctx,
		approval.ID, level.LevelOrder, in.Decision,
		in.ActorID, in.ActorName, now, in.Comments,
	)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, apperrors.Conflict(apperrors.CodeLevelDecided,
			"this approval level has already been decided")
	}

	switch {
	case in.Decision == domain.StatusRejected:
		// Rejection at any level terminates the whole approval.
		if err := approvals.Complete(ctx, approval.ID, domain.StatusRejected, now); err != nil {
			return nil, err
		}
	case level.LevelOrder >= approval.TotalLevels:
		if err := approvals.Complete(ctx, approval.ID, domain.StatusApproved, now); err != nil {
			return nil, err
		}
	default:
		if err := approvals.AdvanceCurrentLevel(ctx, approval.ID, level.LevelOrder+1); err != nil {
			return nil, err
		}
	}

	action := domain.ActionApproved
	if in.Decision == domain.StatusRejected {
		action = domain.ActionRejected
	}
	if err := history.Append(ctx, &domain.ApprovalHistory{
		ApprovalID: approval.ID,
		LevelOrder: &level.LevelOrder,
		LevelName:  &level.LevelName,
		Action:     action,
		ActorID:    in.ActorID,
		ActorName:  in.ActorName,
		Comments:   in.Comments,
	}); err != nil {
		return nil, err
	}

	if _, err := w.riverClient.InsertTx(ctx, tx, jobs.DecisionNotifyArgs{
		ApprovalID: approval.ID,
	}, nil); err != nil {
		return nil, fmt.Errorf("enqueue decision notify for approval %d: %w", approval.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit decision tx: %w", err)
	}

	return w.approvals.GetByID(ctx, approval.ID)
}

// SubmitInput describes one submission command.
type SubmitInput struct {
	EntityType        domain.EntityType
	EntityID          int64
	EntityDescription *string
	SubmittedByID     int64
	SubmittedByName   string
	Levels            []domain.LevelTemplate
}

// Submit atomically creates the approval with its level chain and appends
// the SUBMITTED audit entry.
func (w *DecisionWriter) Submit(ctx context.Context, in SubmitInput) (*domain.Approval, error) {
	if w.pool == nil || w.approvals == nil || w.history == nil {
		return nil, fmt.Errorf("decision writer is not initialized")
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin submit tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	approval := &domain.Approval{
		EntityType:        in.EntityType,
		EntityID:          in.EntityID,
		EntityDescription: in.EntityDescription,
		SubmittedByID:     in.SubmittedByID,
		SubmittedByName:   in.SubmittedByName,
	}
	if err := w.approvals.WithTx(tx).Create(ctx, approval, in.Levels); err != nil {
		return nil, err
	}

	if err := w.history.WithTx(tx).Append(ctx, &domain.ApprovalHistory{
		ApprovalID: approval.ID,
		Action:     domain.ActionSubmitted,
		ActorID:    in.SubmittedByID,
		ActorName:  in.SubmittedByName,
		Comments:   in.EntityDescription,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit submit tx: %w", err)
	}

	return approval, nil
}
