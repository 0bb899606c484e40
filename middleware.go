package cms

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionCookie = "lw_session"
	tokenKey      = "token"

	// ctxSessionKey is where requireSession stashes the resolved Session.
	ctxSessionKey = "cms.session"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(session.Middleware(a.newCookieStore()))
}

// newCookieStore builds the cookie layer of the session: an HTTP-only,
// SameSite Lax cookie that carries nothing but the opaque token. The
// authoritative session state lives server-side in the SessionStore.
func (a *App) newCookieStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(a.Config.SessionTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

func sessionToken(c echo.Context) string {
	sess, err := session.Get(sessionCookie, c)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}

func setSessionToken(c echo.Context, token string) error {
	sess, err := session.Get(sessionCookie, c)
	if err != nil {
		return err
	}
	sess.Values[tokenKey] = token
	return sess.Save(c.Request(), c.Response())
}

func clearSessionCookie(c echo.Context) error {
	sess, err := session.Get(sessionCookie, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// currentSession resolves the caller's cookie token against the
// server-side session store. Returns ErrUnauthorized when the token is
// missing, unknown, or expired.
func (a *App) currentSession(c echo.Context) (Session, error) {
	token := sessionToken(c)
	if token == "" {
		return Session{}, ErrUnauthorized
	}
	sess, err := a.Sessions.Get(token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	return sess, nil
}

// requireSession gates admin and mutating routes. API requests without
// a live session get a 401 JSON body; page requests are redirected to
// the login page.
func (a *App) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := a.currentSession(c)
		if err != nil {
			if !errors.Is(err, ErrUnauthorized) {
				return err
			}
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		c.Set(ctxSessionKey, sess)
		return next(c)
	}
}

// requestSession returns the Session attached by requireSession.
func requestSession(c echo.Context) (Session, bool) {
	sess, ok := c.Get(ctxSessionKey).(Session)
	return sess, ok
}
