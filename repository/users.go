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

// Users stores accounts.
type Users struct {
	db bun.IDB
}

// NewUsers returns a user store over db.
func NewUsers(db bun.IDB) *Users {
	return &Users{db: db}
}

// FindByEmail returns the user with email, or nil.
func (u *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(models.User)
	err := u.db.NewSelect().Model(user).
		Where("u.email = ?", normalizeEmail(email)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// Create inserts user with a normalized email.
func (u *Users) Create(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if _, err := u.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Upsert inserts user or replaces the password and role of the existing
// account with the same email.
func (u *Users) Upsert(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	existing, err := u.FindByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing == nil {
		return u.Create(ctx, user)
	}

	user.ID = existing.ID
	_, err = u.db.NewUpdate().Model(user).
		Column("password", "role").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
