package auth

import (
	"context"
	"fmt"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

type AdminStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *models.User) error
}

type DefaultAdmin struct {
	Username string
	Email    string
	Password string
}

// EnsureDefaultAdmin creates the admin account when no users exist yet. It
// reports whether an account was created.
func EnsureDefaultAdmin(ctx context.Context, store AdminStore, admin DefaultAdmin, bcryptCost int) (bool, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := HashPasswordCost(admin.Password, bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	user := &models.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := store.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	logger.WithUser(user.Username).Warn("Created default admin account, change its password")
	return true, nil
}
