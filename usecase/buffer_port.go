package usecase

import (
	"context"

	"github.com/fastygo/accounts/domain"
)

// ActivityBuffer holds login activity writes that failed on the primary store
// until they can be replayed.
type ActivityBuffer interface {
	BufferActivity(ctx context.Context, activity *domain.LoginActivity) error
}
