package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"approvalhub.io/approvalhub/internal/domain"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
)

// ApprovalRepository manages approvals and their level chains.
// Approval + level creation is always done together in a single transaction.
type ApprovalRepository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewApprovalRepository creates a new ApprovalRepository.
func NewApprovalRepository(pool *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{db: pool, pool: pool}
}

// WithTx rebinds the repository to a transaction.
func (r *ApprovalRepository) WithTx(tx pgx.Tx) *ApprovalRepository {
	return &ApprovalRepository{db: tx}
}

// ListFilter narrows the approval list query. Nil fields mean "no filter".
type ListFilter struct {
	Page       int
	Size       int
	EntityType *domain.EntityType
	Status     *domain.ApprovalStatus
	// PendingApproverID selects approvals whose current level awaits this user.
	PendingApproverID *int64
}

// Create inserts an approval and its level chain. A pool-backed repository
// opens its own transaction; a transaction-scoped one writes into the
// caller's transaction. The chain is fixed at creation; levels are numbered
// 1..len(levels).
func (r *ApprovalRepository) Create(ctx context.Context, a *domain.Approval, levels []domain.LevelTemplate) error {
	if len(levels) == 0 {
		return fmt.Errorf("create approval: empty level chain")
	}

	if r.pool == nil {
		return r.createIn(ctx, r.db, a, levels)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin approval create tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.createIn(ctx, tx, a, levels); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ApprovalRepository) createIn(ctx context.Context, db DBTX, a *domain.Approval, levels []domain.LevelTemplate) error {
	const approvalQuery = `
		INSERT INTO approvals
		    (entity_type, entity_id, entity_description,
		     current_level, total_levels, status,
		     submitted_by_id, submitted_by_name)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $7)
		RETURNING id, submitted_at, created_at
	`

	err := db.QueryRow(ctx, approvalQuery,
		string(a.EntityType),
		a.EntityID,
		a.EntityDescription,
		len(levels),
		string(domain.StatusPending),
		a.SubmittedByID,
		a.SubmittedByName,
	).Scan(&a.ID, &a.SubmittedAt, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict(apperrors.CodeDuplicatePending,
				"a pending approval already exists for this entity")
		}
		return fmt.Errorf("insert approval: %w", err)
	}
	a.CurrentLevel = 1
	a.TotalLevels = len(levels)
	a.Status = domain.StatusPending

	const levelQuery = `
		INSERT INTO approval_levels
		    (approval_id, level_order, level_name,
		     expected_approver_user_id, expected_approver_name, decision)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	a.Levels = make([]*domain.ApprovalLevel, 0, len(levels))
	for i, tpl := range levels {
		order := i + 1
		if _, err := db.Exec(ctx, levelQuery,
			a.ID, order, tpl.LevelName,
			tpl.ExpectedApproverUserID, tpl.ExpectedApproverName,
			string(domain.StatusPending),
		); err != nil {
			return fmt.Errorf("insert approval level %d: %w", order, err)
		}
		a.Levels = append(a.Levels, &domain.ApprovalLevel{
			LevelOrder:             order,
			LevelName:              tpl.LevelName,
			ExpectedApproverUserID: tpl.ExpectedApproverUserID,
			ExpectedApproverName:   tpl.ExpectedApproverName,
			Decision:               domain.StatusPending,
		})
	}

	return nil
}

const approvalColumns = `
	id, entity_type, entity_id, entity_description,
	current_level, total_levels, status,
	submitted_by_id, submitted_by_name, submitted_at,
	completed_at, created_at
`

// GetByID retrieves one approval including its level chain.
func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*domain.Approval, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves one approval with its row locked. Must be called on
// a transaction-scoped repository; the lock guards level decisions against
// concurrent double-clicks.
func (r *ApprovalRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Approval, error) {
	return r.get(ctx, id, true)
}

func (r *ApprovalRepository) get(ctx context.Context, id int64, forUpdate bool) (*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	a, err := scanApproval(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrApprovalNotFoundf(id)
	}
	if err != nil {
		return nil, err
	}

	levels, err := r.loadLevels(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Levels = levels
	return a, nil
}

func (r *ApprovalRepository) loadLevels(ctx context.Context, approvalID int64) ([]*domain.ApprovalLevel, error) {
	const query = `
		SELECT level_order, level_name,
		       expected_approver_user_id, expected_approver_name,
		       decision, decided_by_user_id, decided_by_name, decided_at, comments
		FROM approval_levels
		WHERE approval_id = $1
		ORDER BY level_order
	`

	rows, err := r.db.Query(ctx, query, approvalID)
	if err != nil {
		return nil, fmt.Errorf("query approval levels: %w", err)
	}
	defer rows.Close()

	var levels []*domain.ApprovalLevel
	for rows.Next() {
		lv := &domain.ApprovalLevel{}
		var decision string
		if err := rows.Scan(
			&lv.LevelOrder, &lv.LevelName,
			&lv.ExpectedApproverUserID, &lv.ExpectedApproverName,
			&decision, &lv.DecidedByUserID, &lv.DecidedByName, &lv.DecidedAt, &lv.Comments,
		); err != nil {
			return nil, fmt.Errorf("scan approval level: %w", err)
		}
		lv.Decision, err = domain.ParseApprovalStatus(decision)
		if err != nil {
			return nil, fmt.Errorf("approval %d level %d: %w", approvalID, lv.LevelOrder, err)
		}
		levels = append(levels, lv)
	}
	return levels, rows.Err()
}

// List returns one page of approvals without levels, newest first, plus the
// unfiltered total for pagination.
func (r *ApprovalRepository) List(ctx context.Context, f ListFilter) ([]*domain.Approval, int, error) {
	where, args := buildListWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM approvals a`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count approvals: %w", err)
	}

	query := `SELECT ` + approvalColumns + ` FROM approvals a` + where +
		fmt.Sprintf(` ORDER BY a.submitted_at DESC, a.id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Size, f.Page*f.Size)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// PendingCountFor counts approvals whose current level awaits the given user.
func (r *ApprovalRepository) PendingCountFor(ctx context.Context, userID int64) (int, error) {
	const query = `
		SELECT count(*)
		FROM approvals a
		JOIN approval_levels l
		  ON l.approval_id = a.id AND l.level_order = a.current_level
		WHERE a.status = 'PENDING'
		  AND l.decision = 'PENDING'
		  AND l.expected_approver_user_id = $1
	`

	var n int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending approvals for user %d: %w", userID, err)
	}
	return n, nil
}

// ListPendingOlderThan returns pending approvals submitted before the cutoff,
// with levels loaded. Used by the reminder job.
func (r *ApprovalRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Approval, error) {
	const query = `
		SELECT ` + approvalColumns + `
		FROM approvals
		WHERE status = 'PENDING' AND submitted_at < $1
		ORDER BY submitted_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending approvals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range out {
		levels, err := r.loadLevels(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		a.Levels = levels
	}
	return out, nil
}

// DecideLevel records a decision for one level. The guard on decision =
// 'PENDING' makes re-deciding a no-op; zero rows affected means the level
// was already decided.
func (r *ApprovalRepository) DecideLevel(
	ctx context.Context,
	approvalID int64,
	levelOrder int,
	decision domain.ApprovalStatus,
	decidedByID int64,
	decidedByName string,
	decidedAt time.Time,
	comments *string,
) (int64, error) {
	const query = `
		UPDATE approval_levels
		SET decision           = $4,
		    decided_by_user_id = $5,
		    decided_by_name    = $6,
		    decided_at         = $7,
		    comments           = $8
		WHERE approval_id = $1 AND level_order = $2 AND decision = $3
	`

	tag, err := r.db.Exec(ctx, query,
		approvalID, levelOrder, string(domain.StatusPending),
		string(decision), decidedByID, decidedByName, decidedAt, comments,
	)
	if err != nil {
		return 0, fmt.Errorf("decide level %d of approval %d: %w", levelOrder, approvalID, err)
	}
	return tag.RowsAffected(), nil
}

// AdvanceCurrentLevel moves a pending approval to the next level.
func (r *ApprovalRepository) AdvanceCurrentLevel(ctx context.Context, approvalID int64, nextLevel int) error {
	const query = `
		UPDATE approvals
		SET current_level = $2
		WHERE id = $1 AND status = 'PENDING'
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, approvalID, nextLevel).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrApprovalNotFoundf(approvalID)
	}
	return err
}

// Complete stamps a terminal status and completion time on the aggregate.
func (r *ApprovalRepository) Complete(ctx context.Context, approvalID int64, status domain.ApprovalStatus, completedAt time.Time) error {
	const query = `
		UPDATE approvals
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = 'PENDING'
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, approvalID, string(status), completedAt).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrApprovalCompleted(string(status))
	}
	return err
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(row rowScanner) (*domain.Approval, error) {
	a := &domain.Approval{}
	var entityType, status string
	err := row.Scan(
		&a.ID, &entityType, &a.EntityID, &a.EntityDescription,
		&a.CurrentLevel, &a.TotalLevels, &status,
		&a.SubmittedByID, &a.SubmittedByName, &a.SubmittedAt,
		&a.CompletedAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Enum validation at the storage boundary: malformed rows fail loudly
	// instead of leaking values outside the closed sets.
	if a.EntityType, err = domain.ParseEntityType(entityType); err != nil {
		return nil, fmt.Errorf("approval %d: %w", a.ID, err)
	}
	if a.Status, err = domain.ParseApprovalStatus(status); err != nil {
		return nil, fmt.Errorf("approval %d: %w", a.ID, err)
	}
	return a, nil
}

func buildListWhere(f ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.EntityType != nil {
		add("a.entity_type = $%d", string(*f.EntityType))
	}
	if f.Status != nil {
		add("a.status = $%d", string(*f.Status))
	}
	if f.PendingApproverID != nil {
		add(`EXISTS (
			SELECT 1 FROM approval_levels l
			WHERE l.approval_id = a.id
			  AND l.level_order = a.current_level
			  AND l.decision = 'PENDING'
			  AND l.expected_approver_user_id = $%d
		) AND a.status = 'PENDING'`, *f.PendingApproverID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
