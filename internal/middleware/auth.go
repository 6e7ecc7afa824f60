package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/credential"
	"github.com/fastygo/accounts/pkg/httpcontext"
	appLogger "github.com/fastygo/accounts/pkg/logger"
)

const principalKey = "principal"

// PrincipalResolver turns a raw access credential into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, raw string, now time.Time) (domain.Principal, error)
}

// Authenticator resolves the principal of each request once and stores it on
// the request for handlers and authorization middleware.
type Authenticator struct {
	transport *credential.Transport
	resolver  PrincipalResolver
	adapter   *httpcontext.Adapter
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthenticator(tr *credential.Transport, resolver PrincipalResolver, adapter *httpcontext.Adapter, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		transport: tr,
		resolver:  resolver,
		adapter:   adapter,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for expiry checks.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// Authenticate never rejects a request on a bad credential; it only fails
// when the user store cannot be reached.
func (a *Authenticator) Authenticate(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		raw, _ := a.transport.Extract(ctx)

		stdCtx, cancel := a.requestContext(ctx)
		principal, err := a.resolver.Resolve(stdCtx, raw, a.now())
		cancel()
		if err != nil {
			appLogger.WithRequestID(stdCtx, a.logger).Error("failed to resolve principal", zap.Error(err))
			writeError(ctx, http.StatusInternalServerError, domain.ErrCodeInternal, "internal error")
			return
		}

		ctx.SetUserValue(principalKey, principal)
		next(ctx)
	}
}

func (a *Authenticator) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if a.adapter != nil {
		return a.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// PrincipalFrom returns the principal stored by Authenticate, or Anonymous.
func PrincipalFrom(ctx *fasthttp.RequestCtx) domain.Principal {
	if ctx == nil {
		return domain.Anonymous()
	}
	if p, ok := ctx.UserValue(principalKey).(domain.Principal); ok {
		return p
	}
	return domain.Anonymous()
}

// RequireAuthenticated answers 401 for anonymous requests.
func RequireAuthenticated(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return guard(next, domain.RequireAuthenticated)
}

// RequireAdmin answers 401 for anonymous requests and 403 for
// authenticated non-admins.
func RequireAdmin(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return guard(next, domain.RequireAdmin)
}

// RequireReadOrAdmin lets safe methods through for anyone and requires an
// admin otherwise.
func RequireReadOrAdmin(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		method := string(ctx.Method())
		guard(next, func(p domain.Principal) error {
			return domain.RequireReadOrAdmin(p, method)
		})(ctx)
	}
}

func guard(next fasthttp.RequestHandler, check func(domain.Principal) error) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if err := check(PrincipalFrom(ctx)); err != nil {
			status := http.StatusForbidden
			code := domain.ErrCodeForbidden
			if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
				status = http.StatusUnauthorized
				code = domain.ErrCodeUnauthorized
			}
			writeError(ctx, status, code, err.Error())
			return
		}
		next(ctx)
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	body, _ := json.Marshal(transport.NewError(string(code), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
