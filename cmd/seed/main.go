// Command seed creates the initial super admin from SEED_ADMIN_* variables.
// Run it again with --update-password to reset that account's password.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"time"

	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/config"
	"github.com/coworkdir/admin-api/internal/database"
	"github.com/coworkdir/admin-api/internal/logging"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/repository"
	"github.com/coworkdir/admin-api/internal/utils"
)

func main() {
	updatePassword := flag.Bool("update-password", false, "reset the password of an existing seed admin")
	flag.Parse()

	cfg := config.Load()
	seed := config.LoadSeedConfig()

	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, seed, *updatePassword, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func run(cfg config.Config, seed config.SeedConfig, updatePassword bool, log *zap.Logger) error {
	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db, logging.Printf{L: log.Sugar()}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	hash, err := utils.HashPassword(seed.Password, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	existing, err := users.GetByEmail(ctx, seed.Email)
	switch {
	case err == nil:
		log.Info("admin user already exists",
			zap.String("email", existing.Email), zap.String("name", existing.Name), zap.String("role", existing.Role))
		if !updatePassword {
			return nil
		}
		if err := users.Promote(ctx, existing.ID, hash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		log.Info("password updated", zap.String("email", existing.Email))
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("look up admin: %w", err)
	}

	u := &model.User{
		Email:        seed.Email,
		PasswordHash: hash,
		Name:         seed.Name,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin user created; change the password after first login",
		zap.Uint64("id", u.ID), zap.String("email", u.Email), zap.String("role", u.Role))
	return nil
}
