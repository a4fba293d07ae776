package models

import "github.com/uptrace/bun"

// Roles assigned to users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account with a bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Email    string `bun:"email,notnull,unique" json:"email"`
	Password string `bun:"password,notnull" json:"-"`
	Role     string `bun:"role,notnull,default:'user'" json:"role"`
}
