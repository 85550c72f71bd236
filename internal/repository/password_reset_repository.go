package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// PasswordResetToken records an issued reset token by its jti. The token
// itself is never stored.
type PasswordResetToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// PasswordResetRepository is the single-use ledger for reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	// Redeem marks jti used and sets the password of userID to passwordHash in
	// one transaction. It reports false, changing nothing, when the jti is
	// unknown, already used, past its expiry or issued to another account.
	Redeem(ctx context.Context, jti, userID, passwordHash string) (bool, error)
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *PasswordResetToken) error {
	if r.pool == nil {
		return errorutil.ErrUpstreamUnavailable
	}
	const query = `
        INSERT INTO password_reset_tokens (jti, user_id, expires_at)
        VALUES ($1,$2,$3)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		token.JTI,
		token.UserID,
		token.ExpiresAt,
	).Scan(&token.CreatedAt)
}

func (r *passwordResetRepository) Redeem(ctx context.Context, jti, userID, passwordHash string) (bool, error) {
	if r.pool == nil {
		return false, errorutil.ErrUpstreamUnavailable
	}
	const consume = `
        UPDATE password_reset_tokens SET used_at=NOW()
        WHERE jti=$1 AND user_id=$2 AND used_at IS NULL AND expires_at > NOW()`
	const setPassword = `
        UPDATE users SET password_hash=$1, updated_at=NOW()
        WHERE id=$2`

	redeemed := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, consume, jti, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() != 1 {
			return nil
		}
		cmd, err = tx.Exec(ctx, setPassword, passwordHash, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return errorutil.NewNotFound("User")
		}
		redeemed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return redeemed, nil
}
