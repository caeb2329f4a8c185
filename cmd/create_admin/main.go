// Command create_admin bootstraps a reviewer account directly in the
// database. Run it once after deploying; admins cannot be created through
// the public registration endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/platform/config"
	"github.com/KnMBursary/bursary_backend/internal/repositories/database/pgsql"
	"github.com/KnMBursary/bursary_backend/internal/utils"
	"github.com/KnMBursary/bursary_backend/pkg/database"
)

func main() {
	firstName := flag.String("first-name", "", "admin first name")
	lastName := flag.String("last-name", "", "admin last name")
	email := flag.String("email", "", "admin login email")
	password := flag.String("password", "", "initial password")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: create_admin -email <email> -password <password> [-first-name <name>] [-last-name <name>]")
		os.Exit(2)
	}

	if err := run(*firstName, *lastName, *email, *password); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(firstName, lastName, email, password string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	userRepo := pgsql.NewPgxUserRepository(pool)

	if _, err := userRepo.FindUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("an account with email %s already exists", email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check existing account: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		UserID:        uuid.NewString(),
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleAdmin,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save admin account: %w", err)
	}

	fmt.Printf("created admin %s (%s)\n", user.FullName(), user.Email)
	return nil
}
