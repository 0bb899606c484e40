package cms

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Authenticate verifies credentials against the identity store and, on
// success, establishes a new server-side session. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (a *App) Authenticate(username, password string) (Session, error) {
	user, err := a.Store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return a.Sessions.Create(user.ID, user.Username)
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"message": "Too many login attempts. Try again later."})
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	sess, err := a.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			a.loginLimiter.Record(c.RealIP())
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid credentials"})
		}
		return err
	}
	if err := setSessionToken(c, sess.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Login successful",
		"username": sess.Username,
	})
}

func (a *App) handleLogout(c echo.Context) error {
	if token := sessionToken(c); token != "" {
		if err := a.Sessions.Delete(token); err != nil {
			return err
		}
	}
	if err := clearSessionCookie(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

func (a *App) handleCheckAuth(c echo.Context) error {
	sess, err := a.currentSession(c)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": true,
		"username":      sess.Username,
	})
}

// handleInitAdmin bootstraps the single admin identity. Idempotent in
// the create-if-absent sense: a second call reports the existing admin
// instead of creating another.
func (a *App) handleInitAdmin(c echo.Context) error {
	if _, err := a.Store.GetUserByUsername(a.Config.AdminUsername); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Admin already exists"})
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := a.Store.CreateUser(a.Config.AdminUsername, string(hash)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin user created successfully"})
}

// handleResetAdminPassword rehashes the configured password over the
// stored one.
func (a *App) handleResetAdminPassword(c echo.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := a.Store.UpdateUserPassword(a.Config.AdminUsername, string(hash)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Admin user not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin password reset successfully"})
}
