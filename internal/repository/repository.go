// Package repository provides PostgreSQL persistence for Approval Hub.
//
// Repositories run raw SQL through pgx against the shared pool. Methods
// that must participate in a caller-owned transaction are reached through
// WithTx, which rebinds the repository to a pgx.Tx.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
