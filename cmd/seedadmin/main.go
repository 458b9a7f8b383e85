// cmd/seedadmin creates the single admin account on an empty database.
// Usage: go run ./cmd/seedadmin -username admin -password secret
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"dealerstock/internal/config"
	"dealerstock/internal/dto"
	"dealerstock/internal/infra"
	"dealerstock/internal/repository"
	"dealerstock/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	username := flag.String("username", "admin", "Admin username")
	password := flag.String("password", "", "Admin password (or ADMIN_PASSWORD)")
	phone := flag.String("phone", "", "Admin phone number")
	name := flag.String("name", "Administrator", "Display name")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables")
	}
	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if len(*password) < 6 {
		log.Fatal().Msg("password must be at least 6 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	accounts := service.NewAccountService(repository.NewAccountRepository(db))
	acc, err := accounts.SeedAdmin(context.Background(), dto.CreateAccountRequest{
		Username:  *username,
		Phone:     *phone,
		FirstName: *name,
		Password:  *password,
	})
	if errors.Is(err, service.ErrAdminExists) {
		log.Info().Msg("admin already exists, nothing to do")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create admin")
	}
	log.Info().Str("id", acc.ID).Str("username", acc.Username).Msg("admin created")
}
