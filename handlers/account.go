package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/padraicbc/rungroop/middleware"
	"github.com/padraicbc/rungroop/models"
)

const (
	msgWrongCredentials = "Wrong credentials. Please, try again"
	msgEmailInUse       = "This email is already in use"
)

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type registerForm struct {
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type accountView struct {
	Email string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// HashPassword validates email/password input and returns a bcrypt hash
// for storage.
func HashPassword(email, password string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", errors.New("email is required")
	}
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// LoginForm shows the sign-in page.
func (h *Handler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", page(c, "Log in", accountView{}))
}

// Login checks credentials and issues a session cookie valid for 30 days.
func (h *Handler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form.Email = strings.TrimSpace(form.Email)

	fail := func() error {
		p := page(c, "Log in", accountView{Email: form.Email})
		p.Error = msgWrongCredentials
		return c.Render(http.StatusUnauthorized, "login", p)
	}

	if err := validate.Struct(form); err != nil {
		return fail()
	}

	user, err := h.users.FindByEmail(c.Request().Context(), form.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return fail()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		return fail()
	}

	if err := mw.SetSessionCookie(c, h.JWTKey, mw.User{ID: user.ID, Email: user.Email, Role: user.Role}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.log.Info("user signed in", zap.Int64("user_id", user.ID))
	return c.Redirect(http.StatusSeeOther, "/races")
}

// RegisterForm shows the registration page.
func (h *Handler) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, "register", page(c, "Register", accountView{}))
}

// RegisterUser creates a regular account. The new user still has to log in.
func (h *Handler) RegisterUser(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form.Email = strings.TrimSpace(form.Email)

	reject := func(msg string) error {
		p := page(c, "Register", accountView{Email: form.Email})
		p.Error = msg
		return c.Render(http.StatusUnprocessableEntity, "register", p)
	}

	if err := validate.Struct(form); err != nil {
		return reject(registerMessage(err))
	}

	existing, err := h.users.FindByEmail(c.Request().Context(), form.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if existing != nil {
		return reject(msgEmailInUse)
	}

	hash, err := HashPassword(form.Email, form.Password)
	if err != nil {
		return reject(err.Error())
	}
	user := &models.User{Email: form.Email, Password: hash, Role: models.RoleUser}
	if err := h.users.Create(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.log.Info("user registered", zap.Int64("user_id", user.ID))
	return c.Redirect(http.StatusSeeOther, "/races")
}

// Logout clears the session cookie.
func (h *Handler) Logout(c echo.Context) error {
	mw.ClearSessionCookie(c)
	return c.Redirect(http.StatusSeeOther, "/races")
}

func registerMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid registration"
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email":
		return "A valid email is required"
	case fe.Field() == "Password" && fe.Tag() == "min":
		return "Password must be at least 8 characters"
	case fe.Field() == "ConfirmPassword":
		return "Passwords do not match"
	default:
		return "Password is required"
	}
}
