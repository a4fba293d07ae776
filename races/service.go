// Package races runs the race create, edit and delete workflows.
//
// Each mutation touches two systems with no shared commit: the photo store
// and the race repository. The workflows run as small sagas whose partial
// failure states are fixed and logged:
//
//   - Create: upload, then insert. A failed upload leaves nothing behind. A
//     failed insert leaves an orphan photo, which is scheduled for cleanup.
//   - Edit: delete old photo, upload new photo, update row. A failed delete
//     aborts with nothing changed. A failed upload after the delete leaves
//     the row pointing at a photo that no longer exists.
//   - Delete: dispatch photo cleanup, delete row. The cleanup runs detached
//     from the request; its failure is logged and counted, never surfaced.
package races

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/padraicbc/rungroop/logger"
	"github.com/padraicbc/rungroop/models"
	"github.com/padraicbc/rungroop/photo"
)

// PhotoStore uploads and deletes race photos.
type PhotoStore interface {
	Upload(ctx context.Context, img photo.Image) (photo.Uploaded, error)
	Delete(ctx context.Context, ref string) error
}

// Repository persists races. Lookups return nil or found=false when the
// race does not exist.
type Repository interface {
	Add(ctx context.Context, race *models.Race) (bool, error)
	Update(ctx context.Context, race *models.Race) (bool, error)
	Delete(ctx context.Context, race *models.Race) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Race, error)
	GetSnapshot(ctx context.Context, id int64) (models.Race, bool, error)
	GetAll(ctx context.Context) ([]models.Race, error)
	FindByCity(ctx context.Context, city string) ([]models.Race, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Race, error)
}

// Recorder receives workflow outcomes.
type Recorder interface {
	RecordRaceOperation(op string, ok bool)
	RecordCleanupFailure()
}

type nopRecorder struct{}

func (nopRecorder) RecordRaceOperation(string, bool) {}
func (nopRecorder) RecordCleanupFailure()            {}

const defaultCleanupTimeout = 30 * time.Second

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = logger.OrNop(l) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithCleanupTimeout bounds each detached photo deletion.
func WithCleanupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cleanupTimeout = d
		}
	}
}

// Service composes the photo store and race repository.
type Service struct {
	photos         PhotoStore
	repo           Repository
	log            *zap.Logger
	rec            Recorder
	cleanupTimeout time.Duration

	cleanups sync.WaitGroup
}

// NewService returns a Service over photos and repo.
func NewService(photos PhotoStore, repo Repository, opts ...Option) *Service {
	s := &Service{
		photos:         photos,
		repo:           repo,
		log:            zap.NewNop(),
		rec:            nopRecorder{},
		cleanupTimeout: defaultCleanupTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates form, uploads img and inserts the race owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID *int64, form Form, img photo.Image) (race *models.Race, err error) {
	defer func() { s.rec.RecordRaceOperation("create", err == nil) }()

	if err := form.check(img.Empty()); err != nil {
		return nil, err
	}

	sg := s.begin("create", 0)

	up, err := s.photos.Upload(ctx, img)
	if err != nil {
		sg.fail(stepUploadPhoto, err)
		return nil, err
	}
	sg.done(stepUploadPhoto)

	race = &models.Race{
		Title:         form.Title,
		Description:   form.Description,
		ImageURL:      up.URL,
		ImagePublicID: up.PublicID,
		Category:      form.Category,
		AppUserID:     ownerID,
		Address:       form.address(),
	}
	if err := mutated(s.repo.Add(ctx, race)); err != nil {
		sg.fail(stepWriteRow, err)
		s.dispatchCleanup(ctx, sg, up.Ref())
		return nil, &StoreWriteError{Op: "create", Err: err}
	}
	sg.raceID = race.ID
	sg.done(stepWriteRow)

	return race, nil
}

// Edit replaces the photo and fields of race id.
//
// The old photo is deleted before the new one is uploaded. If that delete
// fails nothing is changed and the photo.DeleteError is returned.
func (s *Service) Edit(ctx context.Context, id int64, form Form, img photo.Image) (race *models.Race, err error) {
	defer func() { s.rec.RecordRaceOperation("edit", err == nil) }()

	if err := form.check(img.Empty()); err != nil {
		return nil, err
	}

	old, found, err := s.repo.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	sg := s.begin("edit", id)

	if ref := old.PhotoRef(); ref != "" {
		if err := s.photos.Delete(ctx, ref); err != nil {
			sg.fail(stepDeleteOldPhoto, err)
			return nil, err
		}
		sg.done(stepDeleteOldPhoto)
	}

	up, err := s.photos.Upload(ctx, img)
	if err != nil {
		sg.fail(stepUploadPhoto, err)
		return nil, err
	}
	sg.done(stepUploadPhoto)

	race = &models.Race{
		ID:            id,
		Title:         form.Title,
		Description:   form.Description,
		ImageURL:      up.URL,
		ImagePublicID: up.PublicID,
		Category:      form.Category,
		AppUserID:     old.AppUserID,
		Address:       form.address(),
	}
	if err := mutated(s.repo.Update(ctx, race)); err != nil {
		sg.fail(stepWriteRow, err)
		s.dispatchCleanup(ctx, sg, up.Ref())
		return nil, &StoreWriteError{Op: "edit", ID: id, Err: err}
	}
	sg.done(stepWriteRow)

	return race, nil
}

// Delete removes race id. Its photo deletion is dispatched in the
// background and never awaited.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.rec.RecordRaceOperation("delete", err == nil) }()

	race, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if race == nil {
		return ErrNotFound
	}

	sg := s.begin("delete", id)

	if ref := race.PhotoRef(); ref != "" {
		s.dispatchCleanup(ctx, sg, ref)
	}

	if err := mutated(s.repo.Delete(ctx, race)); err != nil {
		sg.fail(stepDeleteRow, err)
		return &StoreWriteError{Op: "delete", ID: id, Err: err}
	}
	sg.done(stepDeleteRow)

	return nil
}

// Get returns race id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*models.Race, error) {
	race, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if race == nil {
		return nil, ErrNotFound
	}
	return race, nil
}

// List returns all races, or those whose city contains city.
func (s *Service) List(ctx context.Context, city string) ([]models.Race, error) {
	if city = strings.TrimSpace(city); city != "" {
		return s.repo.FindByCity(ctx, city)
	}
	return s.repo.GetAll(ctx)
}

// ListByUser returns the races owned by userID.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]models.Race, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Wait blocks until every dispatched photo cleanup has finished.
func (s *Service) Wait() {
	s.cleanups.Wait()
}

// dispatchCleanup deletes ref in the background, detached from the
// request's cancellation but bounded by the cleanup timeout.
func (s *Service) dispatchCleanup(ctx context.Context, sg *saga, ref string) {
	sg.done(stepDispatchCleanup)

	detached := context.WithoutCancel(ctx)
	s.cleanups.Add(1)
	go func() {
		defer s.cleanups.Done()

		cctx, cancel := context.WithTimeout(detached, s.cleanupTimeout)
		defer cancel()

		if err := s.photos.Delete(cctx, ref); err != nil {
			s.rec.RecordCleanupFailure()
			s.log.Warn("photo cleanup failed",
				zap.String("op", sg.op),
				zap.Int64("race_id", sg.raceID),
				zap.String("ref", ref),
				zap.Error(err),
			)
			return
		}
		s.log.Debug("photo cleanup done", zap.String("ref", ref))
	}()
}

func mutated(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errNoRowsAffected
	}
	return nil
}

// IsNotFound reports whether err means the race does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
