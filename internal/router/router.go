package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/accounts/api/handler"
	"github.com/fastygo/accounts/internal/middleware"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Admin   *apiHandler.AdminHandler
	Health  *apiHandler.HealthHandler
}

// Middleware wraps a handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New wires the routes. authenticate resolves the principal of every API
// request; authorization is applied per route on top of it.
func New(handlers Handlers, authenticate Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	anyone := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return authenticate(h)
	}
	user := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return authenticate(middleware.RequireAuthenticated(h))
	}
	admin := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return authenticate(middleware.RequireAdmin(h))
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", anyone(handlers.Auth.Register))
	auth.POST("/login", anyone(handlers.Auth.Login))
	auth.POST("/logout", anyone(handlers.Auth.Logout))
	auth.POST("/refresh", anyone(handlers.Auth.Refresh))

	me := api.Group("/user")
	me.GET("/profile", user(handlers.Profile.GetProfile))
	me.PUT("/profile", user(handlers.Profile.UpdateProfile))
	me.PATCH("/profile", user(handlers.Profile.UpdateProfile))
	me.POST("/change-password", user(handlers.Profile.ChangePassword))
	me.GET("/login-history", user(handlers.Profile.LoginHistory))

	adm := api.Group("/admin")
	adm.GET("/users", admin(handlers.Admin.ListUsers))
	adm.POST("/users", admin(handlers.Admin.CreateUser))
	adm.GET("/users/{id}", admin(handlers.Admin.GetUser))
	adm.PUT("/users/{id}", admin(handlers.Admin.UpdateUser))
	adm.PATCH("/users/{id}", admin(handlers.Admin.UpdateUser))
	// self-delete is refused before the role check, for admins and users alike
	adm.DELETE("/users/{id}", user(handlers.Admin.DeleteUser))
	adm.GET("/login-activities", admin(handlers.Admin.ListLoginActivities))
	adm.GET("/dashboard", admin(handlers.Admin.Dashboard))

	return r
}
