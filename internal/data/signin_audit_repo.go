package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gatewatch/ui-gateway/internal/data/pgxutil"
	apperrors "github.com/gatewatch/ui-gateway/internal/errors"
	"github.com/gatewatch/ui-gateway/internal/ports"
)

// TimeProvider supplies the current time. Repos take it as a seam so tests
// can pin timestamps.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the wall clock.
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time { return time.Now() }

// SignInAttempt is a persisted sign-in audit row.
type SignInAttempt struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Succeeded  bool      `json:"succeeded"`
	FailReason string    `json:"fail_reason,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SignInAuditRepo provides database operations for the sign-in audit trail.
// It implements ports.SignInAudit.
type SignInAuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSignInAuditRepo creates a new SignInAuditRepo with real time provider.
func NewSignInAuditRepo(db *sql.DB) *SignInAuditRepo {
	return &SignInAuditRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewSignInAuditRepoWithTimeProvider creates a new SignInAuditRepo with a custom time provider.
func NewSignInAuditRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SignInAuditRepo {
	return &SignInAuditRepo{DB: db, timeProvider: tp}
}

// RecordSignIn inserts an audit row for a sign-in attempt. Email may be
// empty: an ID-token attempt rejected at verification never resolves a
// profile, and the attempt is still recorded.
func (r *SignInAuditRepo) RecordSignIn(ctx context.Context, rec ports.SignInRecord) error {
	createdAt := r.timeProvider.Now().UTC()
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO signin_audit (email, succeeded, fail_reason, remote_addr, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, rec.Email, rec.Succeeded, rec.FailReason, rec.RemoteAddr, createdAt)
		return execErr
	})
	return apperrors.MapDBError(err)
}

// Recent returns the most recent sign-in attempts, newest first.
func (r *SignInAuditRepo) Recent(ctx context.Context, limit int) ([]SignInAttempt, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var attempts []SignInAttempt
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			SELECT id, email, succeeded, fail_reason, remote_addr, created_at
			FROM signin_audit
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var a SignInAttempt
			if scanErr := rows.Scan(&a.ID, &a.Email, &a.Succeeded, &a.FailReason, &a.RemoteAddr, &a.CreatedAt); scanErr != nil {
				return scanErr
			}
			attempts = append(attempts, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return attempts, nil
}

// RecentByEmail returns the most recent attempts for a single email, newest first.
func (r *SignInAuditRepo) RecentByEmail(ctx context.Context, email string, limit int) ([]SignInAttempt, error) {
	if email == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var attempts []SignInAttempt
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			SELECT id, email, succeeded, fail_reason, remote_addr, created_at
			FROM signin_audit
			WHERE email = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, email, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var a SignInAttempt
			if scanErr := rows.Scan(&a.ID, &a.Email, &a.Succeeded, &a.FailReason, &a.RemoteAddr, &a.CreatedAt); scanErr != nil {
				return scanErr
			}
			attempts = append(attempts, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return attempts, nil
}

// PruneOlderThan removes audit rows older than the cutoff and reports how
// many were deleted. The audit retention job calls this on an interval.
func (r *SignInAuditRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `DELETE FROM signin_audit WHERE created_at < $1`, cutoff)
		if execErr != nil {
			return execErr
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return deleted, nil
}

var _ ports.SignInAudit = (*SignInAuditRepo)(nil)
