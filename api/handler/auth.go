package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/internal/credential"
	"github.com/fastygo/accounts/pkg/httpcontext"
	authUC "github.com/fastygo/accounts/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc        *authUC.UseCase
	transport *credential.Transport
	now       func() time.Time
}

func NewAuthHandler(uc *authUC.UseCase, tr *credential.Transport, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		transport:   tr,
		now:         time.Now,
	}
}

// WithClock replaces the clock used to compute cookie lifetimes.
func (h *AuthHandler) WithClock(now func() time.Time) *AuthHandler {
	h.now = now
	return h
}

type registerResponse struct {
	Message string                `json:"message"`
	User    transport.UserSummary `json:"user"`
}

// @Summary Register a user
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := h.decode(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, authUC.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Handle:   req.Username,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, registerResponse{
		Message: "User registered successfully.",
		User:    transport.NewUserSummary(user),
	})
}

// @Summary Sign in and receive credential cookies
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := h.decode(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.Login(stdCtx, req.Email, req.Password, httpcontext.ClientIPFrom(stdCtx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.transport.Attach(ctx, res.Pair, h.now())
	h.respondSuccess(ctx, http.StatusOK, transport.NewUserSummary(res.User))
}

// @Summary Clear credential cookies
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	// Issued credentials stay valid until they expire; only the cookies go.
	h.transport.Clear(ctx)
	h.respondSuccess(ctx, http.StatusOK, transport.Message{Message: "Successfully logged out."})
}

// @Summary Mint a new access credential from the refresh cookie
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	raw, _ := h.transport.ExtractRefresh(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.Refresh(stdCtx, raw)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.transport.AttachAccess(ctx, res.Access, res.Claims, h.now())
	h.respondSuccess(ctx, http.StatusOK, transport.NewUserSummary(res.User))
}
