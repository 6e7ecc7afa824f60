package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

const userColumns = `id::text, email, username, role, is_active, is_staff, is_superuser, password_hash, last_login, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	const query = `
	SELECT ` + userColumns + `
	FROM users
	WHERE ($1 = '' OR email ILIKE $6 ESCAPE '\' OR username ILIKE $6 ESCAPE '\')
	  AND ($2 = '' OR role = $2)
	  AND ($3::boolean IS NULL OR is_active = $3)
	ORDER BY created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.Search,
		string(filter.Role),
		filter.Active,
		clampLimit(filter.Limit),
		filter.Offset,
		containsPattern(filter.Search),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO users (id, email, username, role, is_active, is_staff, is_superuser, password_hash)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		nullString(user.Handle),
		string(user.Role),
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return translateUnique(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE users
	SET email = $2,
		username = $3,
		role = $4,
		is_active = $5,
		is_staff = $6,
		is_superuser = $7,
		password_hash = $8,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		nullString(user.Handle),
		string(user.Role),
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.PasswordHash,
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return translateUnique(err)
	}
	return nil
}

func (r *userRepository) UpsertByEmail(ctx context.Context, user *domain.User) (bool, error) {
	if user == nil {
		return false, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	// xmax = 0 only for freshly inserted rows.
	const query = `
	INSERT INTO users (id, email, username, role, is_active, is_staff, is_superuser, password_hash)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (email) DO UPDATE
	SET password_hash = EXCLUDED.password_hash,
		updated_at = NOW()
	RETURNING id::text, (xmax = 0) AS inserted, created_at, updated_at
	`
	var inserted bool
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		nullString(user.Handle),
		string(user.Role),
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.PasswordHash,
	).Scan(&user.ID, &inserted, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return false, translateUnique(err)
	}
	return inserted, nil
}

func (r *userRepository) SetPassword(ctx context.Context, id string, hash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Counts(ctx context.Context) (repository.UserCounts, error) {
	const query = `
	SELECT COUNT(*),
		COUNT(*) FILTER (WHERE role = 'admin'),
		COUNT(*) FILTER (WHERE role = 'user')
	FROM users
	`
	var counts repository.UserCounts
	err := r.pool.QueryRow(ctx, query).Scan(&counts.Total, &counts.Admins, &counts.Regular)
	return counts, err
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user      domain.User
		role      string
		lastLogin *time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Handle,
		&role,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.PasswordHash,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = domain.Role(role)
	user.LastLogin = lastLogin
	return &user, nil
}
