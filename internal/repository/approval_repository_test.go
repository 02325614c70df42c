package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"approvalhub.io/approvalhub/internal/domain"
	"approvalhub.io/approvalhub/internal/infrastructure"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
	"approvalhub.io/approvalhub/internal/testutil"
)

func newTestRepos(t *testing.T, prefix string) (*ApprovalRepository, *HistoryRepository, *UserRepository, *pgxpool.Pool) {
	t.Helper()
	pool := testutil.OpenPGXPool(t, prefix)

	_, err := pool.Exec(context.Background(), infrastructure.Schema())
	require.NoError(t, err, "apply schema")

	return NewApprovalRepository(pool), NewHistoryRepository(pool), NewUserRepository(pool), pool
}

func seedUser(t *testing.T, users *UserRepository, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		DisplayName:  "User " + username,
		PasswordHash: "x",
		Enabled:      true,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func seedApproval(t *testing.T, repo *ApprovalRepository, submitter *domain.User, approvers ...*domain.User) *domain.Approval {
	t.Helper()
	levels := make([]domain.LevelTemplate, 0, len(approvers))
	for i, ap := range approvers {
		levels = append(levels, domain.LevelTemplate{
			LevelName:              "Level " + string(rune('A'+i)),
			ExpectedApproverUserID: ap.ID,
			ExpectedApproverName:   ap.DisplayName,
		})
	}
	desc := "test quotation"
	a := &domain.Approval{
		EntityType:        domain.EntityQuotation,
		EntityID:          time.Now().UnixNano(),
		EntityDescription: &desc,
		SubmittedByID:     submitter.ID,
		SubmittedByName:   submitter.DisplayName,
	}
	require.NoError(t, repo.Create(context.Background(), a, levels))
	return a
}

func TestApprovalRepository_CreateAndGet(t *testing.T) {
	repo, _, users, _ := newTestRepos(t, "approval_create")
	ctx := context.Background()

	submitter := seedUser(t, users, "submitter")
	lead := seedUser(t, users, "lead")
	director := seedUser(t, users, "director")

	a := seedApproval(t, repo, submitter, lead, director)
	require.NotZero(t, a.ID)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Equal(t, 1, got.CurrentLevel)
	require.Equal(t, 2, got.TotalLevels)
	require.Len(t, got.Levels, 2)
	require.Equal(t, lead.ID, got.Levels[0].ExpectedApproverUserID)
	require.NoError(t, got.Validate())
}

func TestApprovalRepository_DuplicatePending(t *testing.T) {
	repo, _, users, _ := newTestRepos(t, "approval_dup")
	ctx := context.Background()

	submitter := seedUser(t, users, "submitter")
	lead := seedUser(t, users, "lead")

	a := seedApproval(t, repo, submitter, lead)

	dup := &domain.Approval{
		EntityType:      a.EntityType,
		EntityID:        a.EntityID,
		SubmittedByID:   submitter.ID,
		SubmittedByName: submitter.DisplayName,
	}
	err := repo.Create(ctx, dup, []domain.LevelTemplate{{
		LevelName:              "Level A",
		ExpectedApproverUserID: lead.ID,
		ExpectedApproverName:   lead.DisplayName,
	}})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok, "want AppError, got %v", err)
	require.Equal(t, apperrors.CodeDuplicatePending, appErr.Code)
}

func TestApprovalRepository_DecideLevel_NoRedecide(t *testing.T) {
	repo, _, users, _ := newTestRepos(t, "approval_decide")
	ctx := context.Background()

	submitter := seedUser(t, users, "submitter")
	lead := seedUser(t, users, "lead")
	a := seedApproval(t, repo, submitter, lead)

	now := time.Now().UTC()
	affected, err := repo.DecideLevel(ctx, a.ID, 1, domain.StatusApproved, lead.ID, lead.DisplayName, now, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	// A second decision on the same level touches zero rows.
	affected, err = repo.DecideLevel(ctx, a.ID, 1, domain.StatusRejected, lead.ID, lead.DisplayName, now, nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)
}

func TestApprovalRepository_CompleteAndPendingCount(t *testing.T) {
	repo, _, users, _ := newTestRepos(t, "approval_complete")
	ctx := context.Background()

	submitter := seedUser(t, users, "submitter")
	lead := seedUser(t, users, "lead")
	a := seedApproval(t, repo, submitter, lead)

	n, err := repo.PendingCountFor(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	now := time.Now().UTC()
	_, err = repo.DecideLevel(ctx, a.ID, 1, domain.StatusApproved, lead.ID, lead.DisplayName, now, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(ctx, a.ID, domain.StatusApproved, now))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, got.Status)
	require.NotNil(t, got.CompletedAt)

	n, err = repo.PendingCountFor(ctx, lead.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	// Terminal aggregates refuse a second completion.
	err = repo.Complete(ctx, a.ID, domain.StatusRejected, now)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeApprovalCompleted, appErr.Code)
}

func TestApprovalRepository_ListFilters(t *testing.T) {
	repo, _, users, _ := newTestRepos(t, "approval_list")
	ctx := context.Background()

	submitter := seedUser(t, users, "submitter")
	lead := seedUser(t, users, "lead")
	other := seedUser(t, users, "other")

	seedApproval(t, repo, submitter, lead)
	seedApproval(t, repo, submitter, other)

	all, total, err := repo.List(ctx, ListFilter{Page: 0, Size: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, all, 2)
	// List rows never carry levels.
	require.Nil(t, all[0].Levels)

	mine, total, err := repo.List(ctx, ListFilter{Page: 0, Size: 10, PendingApproverID: &lead.ID})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, mine, 1)
	require.Equal(t, lead.ID, func() int64 {
		full, err := repo.GetByID(ctx, mine[0].ID)
		require.NoError(t, err)
		return full.Levels[0].ExpectedApproverUserID
	}())

	et := domain.EntityProject
	none, total, err := repo.List(ctx, ListFilter{Page: 0, Size: 10, EntityType: &et})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, none)
}

func TestApprovalRepository_ListPagination(t *testing.T) {
	repo, _, users, _ := newTestRepos(t, "approval_paging")
	ctx := context.Background()

	submitter := seedUser(t, users, "submitter")
	lead := seedUser(t, users, "lead")

	seeded := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		seeded = append(seeded, seedApproval(t, repo, submitter, lead).ID)
	}

	// Page 0 is the first page; with size 2 it holds the 2 newest rows.
	first, total, err := repo.List(ctx, ListFilter{Page: 0, Size: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, first, 2)
	require.Equal(t, seeded[2], first[0].ID)
	require.Equal(t, seeded[1], first[1].ID)

	second, total, err := repo.List(ctx, ListFilter{Page: 1, Size: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, second, 1)
	require.Equal(t, seeded[0], second[0].ID)
}

func TestHistoryRepository_AppendAndList(t *testing.T) {
	repo, history, users, _ := newTestRepos(t, "history")
	ctx := context.Background()

	submitter := seedUser(t, users, "submitter")
	lead := seedUser(t, users, "lead")
	a := seedApproval(t, repo, submitter, lead)

	require.NoError(t, history.Append(ctx, &domain.ApprovalHistory{
		ApprovalID: a.ID,
		Action:     domain.ActionSubmitted,
		ActorID:    submitter.ID,
		ActorName:  submitter.DisplayName,
	}))

	order := 1
	name := "Level A"
	require.NoError(t, history.Append(ctx, &domain.ApprovalHistory{
		ApprovalID: a.ID,
		LevelOrder: &order,
		LevelName:  &name,
		Action:     domain.ActionApproved,
		ActorID:    lead.ID,
		ActorName:  lead.DisplayName,
	}))

	entries, err := history.ListByApproval(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domain.ActionSubmitted, entries[0].Action)
	require.Nil(t, entries[0].LevelOrder)
	require.Equal(t, domain.ActionApproved, entries[1].Action)
	require.NotNil(t, entries[1].LevelOrder)
}
