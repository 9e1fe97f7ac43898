package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mapgate/mapgate/internal/api/metrics"
	"github.com/mapgate/mapgate/internal/api/view"
	"github.com/mapgate/mapgate/internal/core/domain"
	"github.com/mapgate/mapgate/internal/core/ports"
)

const (
	msgUnavailable   = "service temporarily unavailable, please try again later"
	msgRegistered    = "registration successful, please log in"
	msgRegisterError = "registration failed, please try again"
)

type AuthHandler struct {
	auth    ports.Authenticator
	cookies CookieSettings
	log     zerolog.Logger
}

func NewAuthHandler(auth ports.Authenticator, cookies CookieSettings, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, log: log}
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type registerForm struct {
	Username        string `form:"username"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

// LoginForm renders the login page. Authenticated users go straight to the map.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	if CurrentUser(c) != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Render(http.StatusOK, "login.html", view.Page{
		Title:     "登录",
		Flash:     h.cookies.popFlash(c),
		CSRFToken: csrfToken(c),
	})
}

// Login verifies the credentials and starts a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return h.renderLogin(c, form, domain.ErrInvalidCredentials.Error())
	}

	ctx := c.Request().Context()
	user, err := h.auth.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return h.renderLogin(c, form, domain.ErrInvalidCredentials.Error())
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Msg("login failed")
		return h.renderLogin(c, form, msgUnavailable)
	}

	token, err := h.auth.Establish(ctx, user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("could not establish session")
		return h.renderLogin(c, form, msgUnavailable)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	c.SetCookie(h.cookies.session(token))
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) renderLogin(c echo.Context, form loginForm, msg string) error {
	return c.Render(http.StatusOK, "login.html", view.Page{
		Title:     "登录",
		Error:     msg,
		Username:  form.Username,
		CSRFToken: csrfToken(c),
	})
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	if CurrentUser(c) != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Render(http.StatusOK, "register.html", view.Page{
		Title:     "注册",
		CSRFToken: csrfToken(c),
	})
}

// Register creates the account and sends the user to the login page.
func (h *AuthHandler) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return h.renderRegister(c, form, domain.ErrMissingFields.Error())
	}

	_, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		msg, result := registrationFailure(err)
		metrics.RegistrationsTotal.WithLabelValues(result).Inc()
		if result == "error" {
			h.log.Error().Err(err).Msg("registration failed")
		}
		return h.renderRegister(c, form, msg)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.cookies.setFlash(c, msgRegistered)
	return c.Redirect(http.StatusFound, "/login")
}

// registrationFailure maps a registration error to its flash message and
// metric label.
func registrationFailure(err error) (msg, result string) {
	switch {
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrPasswordMismatch),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrUsernameTooLong),
		errors.Is(err, domain.ErrEmailTooLong):
		return err.Error(), "invalid"
	case errors.Is(err, domain.ErrInvalidInput):
		return domain.ErrInvalidInput.Error(), "invalid"
	case errors.Is(err, domain.ErrUserExists):
		return domain.ErrUserExists.Error(), "conflict"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return msgUnavailable, "error"
	default:
		return msgRegisterError, "error"
	}
}

func (h *AuthHandler) renderRegister(c echo.Context, form registerForm, msg string) error {
	return c.Render(http.StatusOK, "register.html", view.Page{
		Title:     "注册",
		Error:     msg,
		Username:  form.Username,
		Email:     form.Email,
		CSRFToken: csrfToken(c),
	})
}

// Logout ends the session and clears the cookie. Repeated calls are harmless.
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := sessionToken(c, h.cookies.Name); token != "" {
		if err := h.auth.Terminate(c.Request().Context(), token); err != nil {
			h.log.Warn().Err(err).Msg("could not terminate session")
		}
	}
	c.SetCookie(h.cookies.expire(h.cookies.Name))
	return c.Redirect(http.StatusFound, "/login")
}
