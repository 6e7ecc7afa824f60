package auth

import (
	"context"

	"go.uber.org/zap"

	appLogger "github.com/fastygo/accounts/pkg/logger"
)

// Observer receives authentication events. Implementations must be safe for
// concurrent use.
type Observer interface {
	CredentialRejected(ctx context.Context, reason string, tokenPrefix string)
	LoginSucceeded(ctx context.Context, userID string, clientIP string)
	LoginFailed(ctx context.Context, email string, reason string)
}

type logObserver struct {
	logger *zap.Logger
}

// NewLogObserver writes authentication events to logger.
func NewLogObserver(logger *zap.Logger) Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logObserver{logger: logger.Named("auth")}
}

func (o *logObserver) CredentialRejected(ctx context.Context, reason string, tokenPrefix string) {
	appLogger.WithRequestID(ctx, o.logger).Info("credential rejected",
		zap.String("reason", reason),
		zap.String("token_prefix", tokenPrefix))
}

func (o *logObserver) LoginSucceeded(ctx context.Context, userID string, clientIP string) {
	appLogger.WithRequestID(ctx, o.logger).Info("login succeeded",
		zap.String("user_id", userID),
		zap.String("client_ip", clientIP))
}

func (o *logObserver) LoginFailed(ctx context.Context, email string, reason string) {
	appLogger.WithRequestID(ctx, o.logger).Info("login failed",
		zap.String("email", email),
		zap.String("reason", reason))
}

type nopObserver struct{}

func (nopObserver) CredentialRejected(context.Context, string, string) {}
func (nopObserver) LoginSucceeded(context.Context, string, string)     {}
func (nopObserver) LoginFailed(context.Context, string, string)        {}

// tokenPrefix keeps enough of a credential to correlate log lines without
// making the logged value usable.
func tokenPrefix(raw string) string {
	const keep = 10
	if len(raw) <= keep {
		return raw
	}
	return raw[:keep] + "..."
}
