package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/pkg/httpcontext"
	appLogger "github.com/fastygo/accounts/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

var errInvalidJSON = domain.NewError(domain.ErrCodeInvalid, "invalid payload")

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondPage(ctx *fasthttp.RequestCtx, data interface{}, page transport.Page) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(data, page))
}

func (h baseHandler) respondNoContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusNoContent)
	ctx.ResetBody()
}

// respondError renders err as an error envelope. Errors outside the domain
// taxonomy are logged and reported without detail.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "validation failed", fieldErrs))
		return
	}

	status, code := mapError(err)
	if code == domain.ErrCodeInternal {
		appLogger.WithRequestID(h.contextOf(ctx), h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.Error(err))
		h.respondJSON(ctx, status, transport.NewError(string(code), "internal error", nil))
		return
	}

	var meta interface{}
	if reason := domain.ReasonOf(err); reason != "" && reason != string(code) {
		meta = map[string]string{"reason": reason}
	}
	h.respondJSON(ctx, status, transport.NewError(string(code), err.Error(), meta))
}

// decode unmarshals the body into dst and runs its validation rules.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst validation.Validatable) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		return errInvalidJSON
	}
	return dst.Validate()
}

func (h baseHandler) contextOf(ctx *fasthttp.RequestCtx) context.Context {
	return appLogger.ContextWithRequestID(context.Background(), httpcontext.RequestID(ctx))
}

func pageFromQuery(ctx *fasthttp.RequestCtx) transport.Page {
	args := ctx.QueryArgs()
	limit, err := strconv.Atoi(string(args.Peek("limit")))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(string(args.Peek("offset")))
	if err != nil || offset < 0 {
		offset = 0
	}
	return transport.Page{Limit: limit, Offset: offset}
}

func mapError(err error) (int, domain.ErrorCode) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, domain.ErrCodeForbidden
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, domain.ErrCodeInvalid
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusBadRequest, domain.ErrCodeConflict
	case domain.IsDomainError(err, domain.ErrCodeInvariant):
		return http.StatusBadRequest, domain.ErrCodeInvariant
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}
