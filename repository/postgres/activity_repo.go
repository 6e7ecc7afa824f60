package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewLoginActivityRepository returns a Postgres-backed audit log.
func NewLoginActivityRepository(pool *pgxpool.Pool) repository.LoginActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Append(ctx context.Context, activity *domain.LoginActivity) error {
	if activity == nil || activity.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO login_activities (id, user_id, ip_address, timestamp)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		activity.ID,
		activity.UserID,
		activity.IPAddress,
		activity.Timestamp,
	)
	return err
}

func (r *activityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]domain.LoginActivity, error) {
	const query = `
	SELECT a.id::text, a.user_id::text, u.email, u.username, a.ip_address, a.timestamp
	FROM login_activities a
	JOIN users u ON u.id = a.user_id
	WHERE ($1 = '' OR a.user_id::text = $1)
	  AND ($2::timestamptz IS NULL OR a.timestamp >= $2)
	  AND ($3::timestamptz IS NULL OR a.timestamp <= $3)
	ORDER BY a.timestamp DESC, a.id DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.UserID,
		nullTime(filter.From),
		nullTime(filter.To),
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LoginActivity
	for rows.Next() {
		var a domain.LoginActivity
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserEmail, &a.UserHandle, &a.IPAddress, &a.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
