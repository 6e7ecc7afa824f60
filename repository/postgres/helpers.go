package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/accounts/domain"
)

const (
	uniqueViolation = "23505"

	usersEmailKey    = "users_email_key"
	usersUsernameKey = "users_username_key"
)

func nullTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// translateUnique maps unique-constraint violations on users to domain errors.
func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case usersEmailKey:
		return domain.ErrEmailTaken
	case usersUsernameKey:
		return domain.ErrHandleTaken
	default:
		return domain.WrapError(domain.ErrCodeConflict, "duplicate value", err)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE ... ESCAPE '\' pattern matching s literally
// anywhere in the column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

type scanner interface {
	Scan(dest ...interface{}) error
}
