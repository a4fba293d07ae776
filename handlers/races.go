package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	mw "github.com/padraicbc/rungroop/middleware"
	"github.com/padraicbc/rungroop/models"
	"github.com/padraicbc/rungroop/photo"
	"github.com/padraicbc/rungroop/races"
)

type raceList struct {
	City  string
	Races []models.Race
}

type raceForm struct {
	Heading    string
	Action     string
	ImageURL   string
	Form       races.Form
	Errors     map[string]string
	Categories []models.Category
}

// RaceIndex lists all races, filtered by the city query parameter.
func (h *Handler) RaceIndex(c echo.Context) error {
	city := c.QueryParam("city")
	list, err := h.races.List(c.Request().Context(), city)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Render(http.StatusOK, "races", page(c, "Races", raceList{City: city, Races: list}))
}

// RaceDetail shows one race.
func (h *Handler) RaceDetail(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}
	if race == nil {
		return errorView(c)
	}
	return c.Render(http.StatusOK, "race_detail", page(c, race.Title, race))
}

// CreateRaceForm shows an empty race form.
func (h *Handler) CreateRaceForm(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, createForm(races.Form{Category: models.CategoryFiveK}), "")
}

// CreateRace uploads the photo and stores a new race owned by the
// signed-in user.
func (h *Handler) CreateRace(c echo.Context) error {
	var form races.Form
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	img, closer, err := formImage(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer closer.Close()

	var owner *int64
	if u, ok := mw.CurrentUser(c); ok {
		owner = &u.ID
	}

	if _, err := h.races.Create(c.Request().Context(), owner, form, img); err != nil {
		view := createForm(form)
		return h.formFailure(c, err, view, "Failed to create race")
	}
	return c.Redirect(http.StatusSeeOther, "/races")
}

// EditRaceForm shows the race form pre-filled from the stored race.
func (h *Handler) EditRaceForm(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}
	if race == nil {
		return errorView(c)
	}
	return h.renderForm(c, http.StatusOK, editForm(race.ID, race.ImageURL, races.FormFromRace(race)), "")
}

// EditRace replaces the race photo and fields.
func (h *Handler) EditRace(c echo.Context) error {
	id, ok := raceID(c)
	if !ok {
		return errorView(c)
	}

	var form races.Form
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	img, closer, err := formImage(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer closer.Close()

	if _, err := h.races.Edit(c.Request().Context(), id, form, img); err != nil {
		if races.IsNotFound(err) {
			return errorView(c)
		}
		view := editForm(id, "", form)
		if current, gerr := h.races.Get(c.Request().Context(), id); gerr == nil {
			view.ImageURL = current.ImageURL
		}
		return h.formFailure(c, err, view, "Failed to edit race")
	}
	return c.Redirect(http.StatusSeeOther, "/races")
}

// DeleteRaceForm asks for confirmation before deleting.
func (h *Handler) DeleteRaceForm(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}
	if race == nil {
		return errorView(c)
	}
	return c.Render(http.StatusOK, "race_delete", page(c, "Delete race", race))
}

// DeleteRace deletes the race. Its photo is removed in the background.
func (h *Handler) DeleteRace(c echo.Context) error {
	id, ok := raceID(c)
	if !ok {
		return errorView(c)
	}
	if err := h.races.Delete(c.Request().Context(), id); err != nil {
		if races.IsNotFound(err) {
			return errorView(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/races")
}

// Dashboard lists the signed-in user's races.
func (h *Handler) Dashboard(c echo.Context) error {
	u, ok := mw.CurrentUser(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/account/login")
	}
	list, err := h.races.ListByUser(c.Request().Context(), u.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Render(http.StatusOK, "dashboard", page(c, "Dashboard", list))
}

// loadRace returns the race named by the id path parameter, or nil when the
// id is malformed or unknown.
func (h *Handler) loadRace(c echo.Context) (*models.Race, error) {
	id, ok := raceID(c)
	if !ok {
		return nil, nil
	}
	race, err := h.races.Get(c.Request().Context(), id)
	if err != nil {
		if races.IsNotFound(err) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return race, nil
}

// formFailure re-renders the form for errors the user can act on and
// returns the rest to echo.
func (h *Handler) formFailure(c echo.Context, err error, view raceForm, fallback string) error {
	var (
		verr *races.ValidationError
		uerr *photo.UploadError
		derr *photo.DeleteError
	)
	switch {
	case errors.As(err, &verr):
		view.Errors = verr.Fields
		return h.renderForm(c, http.StatusUnprocessableEntity, view, fallback)
	case errors.As(err, &uerr):
		h.log.Warn("photo upload failed", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, photo.ErrInvalidImage) {
			status = http.StatusUnprocessableEntity
			view.Errors = map[string]string{"image": "Image must be a picture"}
		}
		return h.renderForm(c, status, view, "Photo upload failed")
	case errors.As(err, &derr):
		h.log.Warn("photo delete failed", zap.Error(err))
		return h.renderForm(c, http.StatusBadGateway, view, "Could not delete photo")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) renderForm(c echo.Context, status int, view raceForm, msg string) error {
	p := page(c, view.Heading, view)
	p.Error = msg
	return c.Render(status, "race_form", p)
}

func createForm(f races.Form) raceForm {
	return raceForm{
		Heading:    "Create race",
		Action:     "/races/create",
		Form:       f,
		Categories: models.Categories,
	}
}

func editForm(id int64, imageURL string, f races.Form) raceForm {
	return raceForm{
		Heading:    "Edit race",
		Action:     "/races/" + strconv.FormatInt(id, 10) + "/edit",
		ImageURL:   imageURL,
		Form:       f,
		Categories: models.Categories,
	}
}

func raceID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// formImage reads the optional image upload. A missing file yields an empty
// Image, which the race workflows reject.
func formImage(c echo.Context) (photo.Image, io.Closer, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return photo.Image{}, nopCloser{}, nil
		}
		return photo.Image{}, nopCloser{}, err
	}
	return openImage(fh)
}

func openImage(fh *multipart.FileHeader) (photo.Image, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return photo.Image{}, nopCloser{}, err
	}
	return photo.Image{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}
