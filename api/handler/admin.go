package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/middleware"
	"github.com/fastygo/accounts/pkg/httpcontext"
	"github.com/fastygo/accounts/repository"
	activityUC "github.com/fastygo/accounts/usecase/activity"
	adminUC "github.com/fastygo/accounts/usecase/admin"
)

const dateLayout = "2006-01-02"

type AdminHandler struct {
	baseHandler
	uc         *adminUC.UseCase
	activities *activityUC.Recorder
}

func NewAdminHandler(uc *adminUC.UseCase, activities *activityUC.Recorder, adapter *httpcontext.Adapter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		activities:  activities,
	}
}

// @Summary List users (search, role, active filters), newest first
// @Tags admin
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	filter, err := userFilterFromQuery(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	page := pageFromQuery(ctx)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.ListUsers(stdCtx, middleware.PrincipalFrom(ctx), filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	page.Count = len(users)
	h.respondPage(ctx, transport.NewAdminUsers(users), page)
}

// @Summary Create a user with any role
// @Tags admin
// @Router /api/v1/admin/users [post]
func (h *AdminHandler) CreateUser(ctx *fasthttp.RequestCtx) {
	var req transport.AdminCreateUserRequest
	if err := h.decode(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.CreateUser(stdCtx, middleware.PrincipalFrom(ctx), adminUC.CreateInput{
		Email:    req.Email,
		Password: req.Password,
		Handle:   req.Username,
		Role:     domain.Role(req.Role),
		IsActive: req.IsActive,
		IsStaff:  req.IsStaff,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.NewAdminUser(user))
}

// @Summary Get a user
// @Tags admin
// @Router /api/v1/admin/users/{id} [get]
func (h *AdminHandler) GetUser(ctx *fasthttp.RequestCtx) {
	id, err := userIDParam(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetUser(stdCtx, middleware.PrincipalFrom(ctx), id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewAdminUser(user))
}

// @Summary Update a user
// @Tags admin
// @Router /api/v1/admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(ctx *fasthttp.RequestCtx) {
	id, err := userIDParam(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	var req transport.AdminUpdateUserRequest
	if err := h.decode(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	in := adminUC.UpdateInput{
		Email:    req.Email,
		Handle:   req.Username,
		IsActive: req.IsActive,
		IsStaff:  req.IsStaff,
		Password: req.Password,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.UpdateUser(stdCtx, middleware.PrincipalFrom(ctx), id, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewAdminUser(user))
}

// @Summary Delete a user; deleting oneself is refused
// @Tags admin
// @Router /api/v1/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(ctx *fasthttp.RequestCtx) {
	id, err := userIDParam(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteUser(stdCtx, middleware.PrincipalFrom(ctx), id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary List login activities (user_id, start_date, end_date), newest first
// @Tags admin
// @Router /api/v1/admin/login-activities [get]
func (h *AdminHandler) ListLoginActivities(ctx *fasthttp.RequestCtx) {
	filter, err := activityFilterFromQuery(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	page := pageFromQuery(ctx)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rows, err := h.activities.ListAll(stdCtx, middleware.PrincipalFrom(ctx), filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	page.Count = len(rows)
	h.respondPage(ctx, transport.NewLoginActivities(rows), page)
}

// @Summary User counts and the latest sign-ins
// @Tags admin
// @Router /api/v1/admin/dashboard [get]
func (h *AdminHandler) Dashboard(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	dash, err := h.uc.Dashboard(stdCtx, middleware.PrincipalFrom(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, dash)
}

// userIDParam reads the {id} path segment. Ids that are not UUIDs cannot
// exist and are reported as not found.
func userIDParam(ctx *fasthttp.RequestCtx) (string, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.ErrUserNotFound
	}
	return id.String(), nil
}

func userFilterFromQuery(ctx *fasthttp.RequestCtx) (repository.UserFilter, error) {
	args := ctx.QueryArgs()
	filter := repository.UserFilter{Search: strings.TrimSpace(string(args.Peek("search")))}

	switch role := strings.ToLower(string(args.Peek("role"))); role {
	case "", "all":
	default:
		parsed, ok := domain.ParseRole(role)
		if !ok {
			return filter, domain.NewError(domain.ErrCodeInvalid, "role must be admin, user or all")
		}
		filter.Role = parsed
	}

	switch active := strings.ToLower(string(args.Peek("active"))); active {
	case "", "all":
	case "true", "false":
		value := active == "true"
		filter.Active = &value
	default:
		return filter, domain.NewError(domain.ErrCodeInvalid, "active must be true, false or all")
	}
	return filter, nil
}

func activityFilterFromQuery(ctx *fasthttp.RequestCtx) (repository.ActivityFilter, error) {
	args := ctx.QueryArgs()
	var filter repository.ActivityFilter

	if raw := string(args.Peek("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, domain.NewError(domain.ErrCodeInvalid, "user_id must be a UUID")
		}
		filter.UserID = id.String()
	}

	from, err := parseBound(string(args.Peek("start_date")), false)
	if err != nil {
		return filter, domain.WrapError(domain.ErrCodeInvalid, "start_date must be RFC 3339 or YYYY-MM-DD", err)
	}
	to, err := parseBound(string(args.Peek("end_date")), true)
	if err != nil {
		return filter, domain.WrapError(domain.ErrCodeInvalid, "end_date must be RFC 3339 or YYYY-MM-DD", err)
	}
	filter.From, filter.To = from, to
	return filter, nil
}

// parseBound accepts an RFC 3339 timestamp or a date. A date used as the
// upper bound covers the whole day.
func parseBound(raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if upper {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return &day, nil
}
