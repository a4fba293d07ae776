package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// CookieName is the session cookie.
const CookieName = "rungroop_session"

// SessionTTL is how long a sign-in lasts.
const SessionTTL = 30 * 24 * time.Hour

const userKey = "user"

// Claims extends jwt.RegisteredClaims with application-specific fields.
// Subject holds the user id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// User is the signed-in user stored on the echo context.
type User struct {
	ID    int64
	Email string
	Role  string
}

// IssueToken signs a session token for the user.
func IssueToken(key []byte, u User, now time.Time) (string, error) {
	claims := &Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseToken validates a session token and returns its user.
func ParseToken(key []byte, token string) (User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return User{}, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Email: claims.Email, Role: claims.Role}, nil
}

// SetSessionCookie writes the session cookie for u.
func SetSessionCookie(c echo.Context, key []byte, u User) error {
	now := time.Now()
	token, err := IssueToken(key, u, now)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(SessionTTL),
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session returns an Echo middleware that loads the user from the session
// cookie. Missing or invalid cookies leave the request anonymous.
func Session(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err == nil && cookie.Value != "" {
				if u, err := ParseToken(key, cookie.Value); err == nil {
					c.Set(userKey, u)
				}
			}
			return next(c)
		}
	}
}

// RequireUser redirects anonymous requests to the login page.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := CurrentUser(c); !ok {
			return c.Redirect(http.StatusSeeOther, "/account/login")
		}
		return next(c)
	}
}

// CurrentUser returns the signed-in user, if any.
func CurrentUser(c echo.Context) (User, bool) {
	u, ok := c.Get(userKey).(User)
	return u, ok
}

// WithUser stores u on the context as if it had come from a session.
func WithUser(c echo.Context, u User) {
	c.Set(userKey, u)
}
