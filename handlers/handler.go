package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/rungroop/logger"
	mw "github.com/padraicbc/rungroop/middleware"
	"github.com/padraicbc/rungroop/models"
	"github.com/padraicbc/rungroop/photo"
	"github.com/padraicbc/rungroop/races"
	"github.com/padraicbc/rungroop/views"
)

// RaceService is the race workflow the handlers drive.
type RaceService interface {
	Create(ctx context.Context, ownerID *int64, form races.Form, img photo.Image) (*models.Race, error)
	Edit(ctx context.Context, id int64, form races.Form, img photo.Image) (*models.Race, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Race, error)
	List(ctx context.Context, city string) ([]models.Race, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Race, error)
}

// UserStore looks up and creates accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	races  RaceService
	users  UserStore
	JWTKey []byte
	log    *zap.Logger
}

// New creates a Handler with the given services and session signing key.
func New(raceSvc RaceService, users UserStore, jwtKey []byte, log *zap.Logger) *Handler {
	return &Handler{races: raceSvc, users: users, JWTKey: jwtKey, log: logger.OrNop(log)}
}

// Register mounts every route on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/races")
	})

	e.GET("/races", h.RaceIndex)
	e.GET("/races/:id", h.RaceDetail)

	auth := mw.RequireUser
	e.GET("/races/create", h.CreateRaceForm, auth)
	e.POST("/races/create", h.CreateRace, auth)
	e.GET("/races/:id/edit", h.EditRaceForm, auth)
	e.POST("/races/:id/edit", h.EditRace, auth)
	e.GET("/races/:id/delete", h.DeleteRaceForm, auth)
	e.POST("/races/:id/delete", h.DeleteRace, auth)
	e.GET("/dashboard", h.Dashboard, auth)

	e.GET("/account/login", h.LoginForm)
	e.POST("/account/login", h.Login)
	e.GET("/account/register", h.RegisterForm)
	e.POST("/account/register", h.RegisterUser)
	e.POST("/account/logout", h.Logout)
}

func page(c echo.Context, title string, data interface{}) views.Page {
	p := views.Page{Title: title, Data: data}
	if u, ok := mw.CurrentUser(c); ok {
		p.UserEmail = u.Email
	}
	return p
}

// errorView renders the generic error page. Missing races land here rather
// than on a 404.
func errorView(c echo.Context) error {
	return c.Render(http.StatusOK, "error", page(c, "Error", nil))
}
