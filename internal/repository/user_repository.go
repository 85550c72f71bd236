package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// UserRepository defines persistence access for storefront accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	MarkVerified(ctx context.Context, id string) error
	List(ctx context.Context, page, limit int) ([]domain.Identity, int64, error)
	ResolveIdentity(ctx context.Context, id string) (*domain.Identity, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// identityColumns is the credential-free projection; password_hash is never
// selected for a request identity.
const identityColumns = `id, email, first_name, last_name, role, is_verified`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if r.pool == nil {
		return errorutil.ErrUpstreamUnavailable
	}
	const query = `
        INSERT INTO users (first_name, last_name, email, password_hash, phone, role, is_verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	return r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if r.pool == nil {
		return nil, errorutil.ErrUpstreamUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, errorutil.NewMalformedIdentifier(err)
	}
	const query = `
        SELECT id, first_name, last_name, email, password_hash, phone, role, is_verified, created_at, updated_at
        FROM users WHERE id=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id), "User")
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.pool == nil {
		return nil, errorutil.ErrUpstreamUnavailable
	}
	const query = `
        SELECT id, first_name, last_name, email, password_hash, phone, role, is_verified, created_at, updated_at
        FROM users WHERE email=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email), "User")
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if r.pool == nil {
		return errorutil.ErrUpstreamUnavailable
	}
	const query = `
        UPDATE users SET password_hash=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errorutil.NewNotFound("User")
	}
	return nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	if r.pool == nil {
		return errorutil.ErrUpstreamUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return errorutil.NewMalformedIdentifier(err)
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET is_verified=TRUE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errorutil.NewNotFound("User")
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]domain.Identity, int64, error) {
	if r.pool == nil {
		return nil, 0, errorutil.ErrUpstreamUnavailable
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + identityColumns + ` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	identities := make([]domain.Identity, 0, limit)
	for rows.Next() {
		var identity domain.Identity
		if err := scanIdentity(rows, &identity); err != nil {
			return nil, 0, err
		}
		identities = append(identities, identity)
	}
	return identities, total, rows.Err()
}

// ResolveIdentity implements the authentication middleware's identity
// lookup. An id that is not a UUID cannot name an account and is reported as
// not found.
func (r *userRepository) ResolveIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	if r.pool == nil {
		return nil, errorutil.ErrUpstreamUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, errorutil.ErrIdentityNotFound
	}

	var identity domain.Identity
	err := scanIdentity(r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM users WHERE id=$1`, id), &identity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return &identity, nil
}

func (r *userRepository) scanUser(row pgx.Row, resource string) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Role,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound(resource)
		}
		return nil, err
	}
	return &user, nil
}

func scanIdentity(row pgx.Row, identity *domain.Identity) error {
	return row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.FirstName,
		&identity.LastName,
		&identity.Role,
		&identity.IsVerified,
	)
}
