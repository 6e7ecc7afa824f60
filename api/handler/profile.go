package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/internal/middleware"
	"github.com/fastygo/accounts/pkg/httpcontext"
	activityUC "github.com/fastygo/accounts/usecase/activity"
	profileUC "github.com/fastygo/accounts/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc         *profileUC.UseCase
	activities *activityUC.Recorder
}

func NewProfileHandler(uc *profileUC.UseCase, activities *activityUC.Recorder, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		activities:  activities,
	}
}

// @Summary Get own profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/user/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, middleware.PrincipalFrom(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewProfile(user))
}

// @Summary Update own profile
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/user/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	var req transport.ProfileUpdateRequest
	if err := h.decode(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProfile(stdCtx, middleware.PrincipalFrom(ctx), profileUC.UpdateInput{
		Email:  req.Email,
		Handle: req.Username,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewProfile(updated))
}

// @Summary Change own password
// @Tags profile
// @Router /api/v1/user/change-password [post]
func (h *ProfileHandler) ChangePassword(ctx *fasthttp.RequestCtx) {
	var req transport.ChangePasswordRequest
	if err := h.decode(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	err := h.uc.ChangePassword(stdCtx, middleware.PrincipalFrom(ctx), profileUC.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
		Confirm:     req.ConfirmPassword,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.Message{Message: "Password changed successfully."})
}

// @Summary Own login history, newest first
// @Tags profile
// @Router /api/v1/user/login-history [get]
func (h *ProfileHandler) LoginHistory(ctx *fasthttp.RequestCtx) {
	page := pageFromQuery(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rows, err := h.activities.ListMine(stdCtx, middleware.PrincipalFrom(ctx), page.Limit, page.Offset)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	page.Count = len(rows)
	h.respondPage(ctx, transport.NewLoginActivities(rows), page)
}
