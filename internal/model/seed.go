package model

import (
	"context"
	"errors"
	"strings"

	"storerate/internal/auth"
	"storerate/internal/config"
	"storerate/internal/entity"

	"gorm.io/gorm"
)

// SeedAdminUser ensures a configured administrator account exists so a fresh
// database is manageable. Seeding is skipped when no admin email is
// configured or the account is already present.
func SeedAdminUser(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	password := strings.TrimSpace(cfg.SeedAdminPassword)
	if email == "" || password == "" {
		return nil
	}

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to creation
	default:
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(cfg.SeedAdminName)
	if name == "" {
		name = "System Administrator Account"
	}
	address := strings.TrimSpace(cfg.SeedAdminAddress)
	if address == "" {
		address = "Head Office"
	}

	admin := &entity.DbUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Address:      address,
		Role:         entity.RoleAdmin,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		// 并发启动时另一实例可能已经建好
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}
