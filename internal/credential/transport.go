package credential

import (
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/accounts/domain"
)

const (
	DefaultAccessCookie  = "access_token"
	DefaultRefreshCookie = "refresh_token"

	// CookiePath is shared by set and clear; a cookie is only removed when
	// the browser sees the same name and path it was set with.
	CookiePath = "/"

	bearerPrefix = "bearer "
)

// Transport binds credentials to HTTP-only cookies and reads them back from
// incoming requests.
type Transport struct {
	accessCookie  string
	refreshCookie string
}

func NewTransport(accessCookie, refreshCookie string) *Transport {
	if accessCookie == "" {
		accessCookie = DefaultAccessCookie
	}
	if refreshCookie == "" {
		refreshCookie = DefaultRefreshCookie
	}
	return &Transport{accessCookie: accessCookie, refreshCookie: refreshCookie}
}

func (t *Transport) AccessCookie() string  { return t.accessCookie }
func (t *Transport) RefreshCookie() string { return t.refreshCookie }

// Attach sets both cookies with a max-age equal to each credential's
// remaining lifetime at now.
func (t *Transport) Attach(ctx *fasthttp.RequestCtx, pair domain.TokenPair, now time.Time) {
	t.AttachAccess(ctx, pair.Access, pair.AccessClaims, now)
	if pair.Refresh != "" {
		t.setCookie(ctx, t.refreshCookie, pair.Refresh, maxAge(pair.RefreshClaims, now))
	}
}

// AttachAccess sets only the access cookie.
func (t *Transport) AttachAccess(ctx *fasthttp.RequestCtx, token string, claims domain.Claims, now time.Time) {
	t.setCookie(ctx, t.accessCookie, token, maxAge(claims, now))
}

// Extract prefers a bearer Authorization header and falls back to the access
// cookie.
func (t *Transport) Extract(ctx *fasthttp.RequestCtx) (string, bool) {
	if token, ok := bearerToken(ctx); ok {
		return token, true
	}
	return cookieValue(ctx, t.accessCookie)
}

// ExtractRefresh reads the refresh cookie.
func (t *Transport) ExtractRefresh(ctx *fasthttp.RequestCtx) (string, bool) {
	return cookieValue(ctx, t.refreshCookie)
}

// Clear expires both cookies on the client.
func (t *Transport) Clear(ctx *fasthttp.RequestCtx) {
	for _, name := range []string{t.accessCookie, t.refreshCookie} {
		c := fasthttp.AcquireCookie()
		c.SetKey(name)
		c.SetValue("")
		c.SetPath(CookiePath)
		c.SetHTTPOnly(true)
		c.SetSecure(true)
		c.SetSameSite(fasthttp.CookieSameSiteNoneMode)
		c.SetExpire(fasthttp.CookieExpireDelete)
		ctx.Response.Header.SetCookie(c)
		fasthttp.ReleaseCookie(c)
	}
}

func (t *Transport) setCookie(ctx *fasthttp.RequestCtx, name, value string, maxAge int) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(name)
	c.SetValue(value)
	c.SetPath(CookiePath)
	c.SetHTTPOnly(true)
	c.SetSecure(true)
	// API and front-end may live on different origins.
	c.SetSameSite(fasthttp.CookieSameSiteNoneMode)
	c.SetMaxAge(maxAge)
	ctx.Response.Header.SetCookie(c)
}

func maxAge(claims domain.Claims, now time.Time) int {
	seconds := int(claims.Remaining(now) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func bearerToken(ctx *fasthttp.RequestCtx) (string, bool) {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func cookieValue(ctx *fasthttp.RequestCtx, name string) (string, bool) {
	value := string(ctx.Request.Header.Cookie(name))
	return value, value != ""
}
