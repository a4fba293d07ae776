// cmd/adduser/main.go
// Creates or updates an account in the database.
//
// Usage:
//
//	go run ./cmd/adduser -email admin@example.com -password testing -role admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/padraicbc/rungroop/config"
	bundb "github.com/padraicbc/rungroop/db"
	"github.com/padraicbc/rungroop/handlers"
	"github.com/padraicbc/rungroop/models"
	"github.com/padraicbc/rungroop/repository"
)

func main() {
	email := flag.String("email", "", "email address (required)")
	password := flag.String("password", "", "plain-text password (required)")
	role := flag.String("role", models.RoleUser, "role: user or admin")
	flag.Parse()

	if *role != models.RoleUser && *role != models.RoleAdmin {
		log.Fatalf("unknown role %q", *role)
	}

	hash, err := handlers.HashPassword(*email, *password)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{Email: *email, Password: hash, Role: *role}
	if err := repository.NewUsers(db).Upsert(ctx, user); err != nil {
		log.Fatal("save user:", err)
	}

	fmt.Printf("user %q saved with role %s\n", user.Email, user.Role)
}
