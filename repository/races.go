// Package repository persists races and users with bun.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/padraicbc/rungroop/models"
)

// Races is the race store. Mutations commit immediately and report whether
// a row was affected; store failures are returned as errors.
type Races struct {
	db bun.IDB
}

// NewRaces returns a race store over db.
func NewRaces(db bun.IDB) *Races {
	return &Races{db: db}
}

// Add inserts race and fills in its ID.
func (r *Races) Add(ctx context.Context, race *models.Race) (bool, error) {
	res, err := r.db.NewInsert().Model(race).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert race: %w", err)
	}
	return affected(res)
}

// Update overwrites every column of the row with race.ID.
func (r *Races) Update(ctx context.Context, race *models.Race) (bool, error) {
	res, err := r.db.NewUpdate().Model(race).WherePK().Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("update race %d: %w", race.ID, err)
	}
	return affected(res)
}

// Delete removes the row with race.ID.
func (r *Races) Delete(ctx context.Context, race *models.Race) (bool, error) {
	res, err := r.db.NewDelete().Model(race).WherePK().Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete race %d: %w", race.ID, err)
	}
	return affected(res)
}

// GetByID loads a race, address included, for a later Update or Delete.
// It returns nil when no race has that id.
func (r *Races) GetByID(ctx context.Context, id int64) (*models.Race, error) {
	race := new(models.Race)
	err := r.db.NewSelect().Model(race).Where("r.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select race %d: %w", id, err)
	}
	return race, nil
}

// GetSnapshot loads a read-only copy of a race.
func (r *Races) GetSnapshot(ctx context.Context, id int64) (models.Race, bool, error) {
	race, err := r.GetByID(ctx, id)
	if err != nil || race == nil {
		return models.Race{}, false, err
	}
	return *race, true, nil
}

// GetAll returns every race ordered by id.
func (r *Races) GetAll(ctx context.Context) ([]models.Race, error) {
	var races []models.Race
	if err := r.db.NewSelect().Model(&races).OrderExpr("r.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select races: %w", err)
	}
	return races, nil
}

// FindByCity returns races whose city contains city, ignoring case.
// Wildcards in city match literally.
func (r *Races) FindByCity(ctx context.Context, city string) ([]models.Race, error) {
	var races []models.Race
	err := r.db.NewSelect().Model(&races).
		Where("LOWER(r.address_city) LIKE LOWER(?) ESCAPE '!'", "%"+escapeLike(city)+"%").
		OrderExpr("r.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select races by city: %w", err)
	}
	return races, nil
}

// ListByUser returns races owned by userID.
func (r *Races) ListByUser(ctx context.Context, userID int64) ([]models.Race, error) {
	var races []models.Race
	err := r.db.NewSelect().Model(&races).
		Where("r.app_user_id = ?", userID).
		OrderExpr("r.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select races for user %d: %w", userID, err)
	}
	return races, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
