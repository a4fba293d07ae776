package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/padraicbc/rungroop/middleware"
	"github.com/padraicbc/rungroop/models"
)

func seedUser(t *testing.T, users *fakeUsers, email, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(email, password)
	require.NoError(t, err)
	u := &models.User{Email: email, Password: hash, Role: models.RoleUser}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == mw.CookieName {
			return c
		}
	}
	return nil
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("a@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))

	_, err = HashPassword(" ", "x")
	assert.Error(t, err)
	_, err = HashPassword("a@example.com", "")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	users := newFakeUsers()
	u := seedUser(t, users, "runner@example.com", "correct-horse")
	e := newServer(t, newFakeRaces(), users)

	rec := serve(e, formRequest("/account/login", url.Values{
		"email":    {"runner@example.com"},
		"password": {"correct-horse"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/races", rec.Header().Get(echo.HeaderLocation))

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	got, err := mw.ParseToken(testKey, cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "runner@example.com", got.Email)
}

func TestLoginWrongCredentials(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "runner@example.com", "correct-horse")
	e := newServer(t, newFakeRaces(), users)

	for _, values := range []url.Values{
		{"email": {"runner@example.com"}, "password": {"battery-staple"}},
		{"email": {"nobody@example.com"}, "password": {"correct-horse"}},
		{"email": {"not-an-email"}, "password": {"x"}},
	} {
		rec := serve(e, formRequest("/account/login", values))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Wrong credentials. Please, try again")
		assert.Nil(t, sessionCookie(rec))
	}
}

func TestRegister(t *testing.T) {
	users := newFakeUsers()
	e := newServer(t, newFakeRaces(), users)

	rec := serve(e, formRequest("/account/register", url.Values{
		"email":            {"new@example.com"},
		"password":         {"long-enough"},
		"confirm_password": {"long-enough"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/races", rec.Header().Get(echo.HeaderLocation))
	assert.Nil(t, sessionCookie(rec))

	u := users.byEmail["new@example.com"]
	require.NotNil(t, u)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("long-enough")))
}

func TestRegisterRejects(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "taken@example.com", "whatever-pass")
	e := newServer(t, newFakeRaces(), users)

	tests := []struct {
		name   string
		values url.Values
		msg    string
	}{
		{"email in use", url.Values{"email": {"taken@example.com"}, "password": {"long-enough"}, "confirm_password": {"long-enough"}}, "This email is already in use"},
		{"bad email", url.Values{"email": {"nope"}, "password": {"long-enough"}, "confirm_password": {"long-enough"}}, "A valid email is required"},
		{"short password", url.Values{"email": {"a@example.com"}, "password": {"short"}, "confirm_password": {"short"}}, "Password must be at least 8 characters"},
		{"mismatch", url.Values{"email": {"a@example.com"}, "password": {"long-enough"}, "confirm_password": {"different"}}, "Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, formRequest("/account/register", tt.values))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
		})
	}
	assert.Len(t, users.byEmail, 1)
}

func TestLogoutClearsCookie(t *testing.T) {
	e := newServer(t, newFakeRaces(), newFakeUsers())

	req := httptest.NewRequest(http.MethodPost, "/account/logout", nil)
	signIn(t, req, 1)
	rec := serve(e, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}
