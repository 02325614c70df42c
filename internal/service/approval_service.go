// Package service implements the approval workflow business rules.
package service

import (
	"context"
	"fmt"
	"strings"

	"approvalhub.io/approvalhub/internal/domain"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
	"approvalhub.io/approvalhub/internal/repository"
	"approvalhub.io/approvalhub/internal/usecase"
)

// DefaultMaxLevels bounds the chain length when configuration does not.
const DefaultMaxLevels = 5

// decisionWriter is the atomic write surface the service needs.
type decisionWriter interface {
	Decide(ctx context.Context, in usecase.DecisionInput) (*domain.Approval, error)
	Submit(ctx context.Context, in usecase.SubmitInput) (*domain.Approval, error)
}

// approvalReader is the read surface the service needs.
type approvalReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Approval, error)
	List(ctx context.Context, f repository.ListFilter) ([]*domain.Approval, int, error)
	PendingCountFor(ctx context.Context, userID int64) (int, error)
}

// historyReader lists the audit trail of one approval.
type historyReader interface {
	ListByApproval(ctx context.Context, approvalID int64) ([]*domain.ApprovalHistory, error)
}

// ApprovalService orchestrates submissions, decisions and reads.
type ApprovalService struct {
	writer    decisionWriter
	approvals approvalReader
	history   historyReader
	maxLevels int
}

// NewApprovalService creates a new ApprovalService. Non-positive maxLevels
// falls back to the default.
func NewApprovalService(writer decisionWriter, approvals approvalReader, history historyReader, maxLevels int) *ApprovalService {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}
	return &ApprovalService{
		writer:    writer,
		approvals: approvals,
		history:   history,
		maxLevels: maxLevels,
	}
}

// SubmitRequest describes one submission.
type SubmitRequest struct {
	EntityType        domain.EntityType
	EntityID          int64
	EntityDescription *string
	Levels            []domain.LevelTemplate
}

// Submit validates the level chain and creates the approval on behalf of the
// actor. The actor becomes the submitter.
func (s *ApprovalService) Submit(ctx context.Context, actor *domain.User, req SubmitRequest) (*domain.Approval, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "authentication required")
	}
	if req.EntityID <= 0 {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "entityId must be positive")
	}
	if _, err := domain.ParseEntityType(string(req.EntityType)); err != nil {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidEnumValue, err.Error())
	}
	if err := s.validateChain(req.Levels); err != nil {
		return nil, err
	}

	return s.writer.Submit(ctx, usecase.SubmitInput{
		EntityType:        req.EntityType,
		EntityID:          req.EntityID,
		EntityDescription: normalizeDescription(req.EntityDescription),
		SubmittedByID:     actor.ID,
		SubmittedByName:   actor.DisplayName,
		Levels:            req.Levels,
	})
}

// Approve records an approval decision by the actor on the current level.
// Comments are optional; blank comments are stored as absent.
func (s *ApprovalService) Approve(ctx context.Context, actor *domain.User, approvalID int64, comments *string) (*domain.Approval, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "authentication required")
	}
	return s.writer.Decide(ctx, usecase.DecisionInput{
		ApprovalID: approvalID,
		Decision:   domain.StatusApproved,
		ActorID:    actor.ID,
		ActorName:  actor.DisplayName,
		Comments:   normalizeDescription(comments),
	})
}

// Reject records a rejection by the actor on the current level. The reason is
// mandatory; a blank reason fails before any state is touched.
func (s *ApprovalService) Reject(ctx context.Context, actor *domain.User, approvalID int64, reason string, comments *string) (*domain.Approval, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "authentication required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ErrRejectReasonRequired()
	}
	// Extra comments are folded into the audit record after the reason.
	record := reason
	if c := normalizeDescription(comments); c != nil {
		record = reason + "\n" + *c
	}
	return s.writer.Decide(ctx, usecase.DecisionInput{
		ApprovalID: approvalID,
		Decision:   domain.StatusRejected,
		ActorID:    actor.ID,
		ActorName:  actor.DisplayName,
		Comments:   &record,
	})
}

// ListPage is one page of approval summaries.
type ListPage struct {
	Items []domain.ApprovalListItem
	Total int
	Page  int
	Size  int
}

// List returns the summary projection for matching approvals.
func (s *ApprovalService) List(ctx context.Context, f repository.ListFilter) (*ListPage, error) {
	approvals, total, err := s.approvals.List(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ApprovalListItem, 0, len(approvals))
	for _, a := range approvals {
		items = append(items, a.ListItem())
	}
	return &ListPage{Items: items, Total: total, Page: f.Page, Size: f.Size}, nil
}

// Detail returns one approval with its full level chain.
func (s *ApprovalService) Detail(ctx context.Context, id int64) (*domain.Approval, error) {
	return s.approvals.GetByID(ctx, id)
}

// History returns the audit trail of one approval in insertion order. A
// missing approval is an error even when it has no history rows.
func (s *ApprovalService) History(ctx context.Context, id int64) ([]*domain.ApprovalHistory, error) {
	if _, err := s.approvals.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.history.ListByApproval(ctx, id)
}

// PendingCount returns how many approvals currently await the user's decision.
func (s *ApprovalService) PendingCount(ctx context.Context, userID int64) (int, error) {
	return s.approvals.PendingCountFor(ctx, userID)
}

func (s *ApprovalService) validateChain(levels []domain.LevelTemplate) error {
	if len(levels) == 0 {
		return apperrors.BadRequest(apperrors.CodeInvalidChain, "approval chain must have at least one level")
	}
	if len(levels) > s.maxLevels {
		return apperrors.BadRequest(apperrors.CodeInvalidChain,
			fmt.Sprintf("approval chain exceeds the maximum of %d levels", s.maxLevels))
	}

	seen := make(map[int64]struct{}, len(levels))
	for i, lv := range levels {
		if strings.TrimSpace(lv.LevelName) == "" {
			return apperrors.BadRequest(apperrors.CodeInvalidChain,
				fmt.Sprintf("level %d is missing a name", i+1))
		}
		if lv.ExpectedApproverUserID <= 0 {
			return apperrors.BadRequest(apperrors.CodeInvalidChain,
				fmt.Sprintf("level %d is missing an approver", i+1))
		}
		if strings.TrimSpace(lv.ExpectedApproverName) == "" {
			return apperrors.BadRequest(apperrors.CodeInvalidChain,
				fmt.Sprintf("level %d is missing the approver name", i+1))
		}
		if _, dup := seen[lv.ExpectedApproverUserID]; dup {
			return apperrors.BadRequest(apperrors.CodeInvalidChain,
				fmt.Sprintf("approver %d appears more than once in the chain", lv.ExpectedApproverUserID))
		}
		seen[lv.ExpectedApproverUserID] = struct{}{}
	}
	return nil
}

// normalizeDescription trims the text and treats blank input as absent.
func normalizeDescription(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
