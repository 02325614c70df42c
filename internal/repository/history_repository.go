package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"approvalhub.io/approvalhub/internal/domain"
)

// HistoryRepository manages the append-only approval audit trail.
// Entries are inserted exactly once per transition and never touched again;
// there are deliberately no update or delete methods.
type HistoryRepository struct {
	db DBTX
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: pool}
}

// WithTx rebinds the repository to a transaction.
func (r *HistoryRepository) WithTx(tx pgx.Tx) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Append writes one audit entry.
func (r *HistoryRepository) Append(ctx context.Context, h *domain.ApprovalHistory) error {
	const query = `
		INSERT INTO approval_history
		    (approval_id, level_order, level_name, action, actor_id, actor_name, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		h.ApprovalID, h.LevelOrder, h.LevelName,
		string(h.Action), h.ActorID, h.ActorName, h.Comments,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("append approval history: %w", err)
	}
	return nil
}

// ListByApproval returns all audit entries for one approval in creation order.
func (r *HistoryRepository) ListByApproval(ctx context.Context, approvalID int64) ([]*domain.ApprovalHistory, error) {
	const query = `
		SELECT id, approval_id, level_order, level_name,
		       action, actor_id, actor_name, comments, created_at
		FROM approval_history
		WHERE approval_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, approvalID)
	if err != nil {
		return nil, fmt.Errorf("query approval history: %w", err)
	}
	defer rows.Close()

	var out []*domain.ApprovalHistory
	for rows.Next() {
		h := &domain.ApprovalHistory{}
		var action string
		if err := rows.Scan(
			&h.ID, &h.ApprovalID, &h.LevelOrder, &h.LevelName,
			&action, &h.ActorID, &h.ActorName, &h.Comments, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan approval history: %w", err)
		}
		if h.Action, err = domain.ParseHistoryAction(action); err != nil {
			return nil, fmt.Errorf("history %d: %w", h.ID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
