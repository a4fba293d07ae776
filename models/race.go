package models

import "github.com/uptrace/bun"

// Race is a race listing with its photo and embedded address.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:r"`

	ID            int64    `bun:"id,pk,autoincrement" json:"id"`
	Title         string   `bun:"title,notnull" json:"title"`
	Description   string   `bun:"description,type:text,notnull" json:"description"`
	ImageURL      string   `bun:"image_url,type:text,notnull" json:"imageUrl"`
	ImagePublicID string   `bun:"image_public_id,type:text,notnull" json:"imagePublicId"`
	Category      Category `bun:"category,notnull" json:"category"`
	AppUserID     *int64   `bun:"app_user_id" json:"appUserId,omitempty"`
	Address       Address  `bun:"embed:address_" json:"address"`
}

// Address is owned by exactly one Race and stored in its row.
type Address struct {
	Street string `bun:"street,notnull" json:"street"`
	City   string `bun:"city,notnull" json:"city"`
	State  string `bun:"state,notnull" json:"state"`
}

// PhotoRef returns the identifier used to delete the race's photo:
// the public id when known, otherwise the URL.
func (r *Race) PhotoRef() string {
	if r.ImagePublicID != "" {
		return r.ImagePublicID
	}
	return r.ImageURL
}
