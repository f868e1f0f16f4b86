package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// SeedAccount is a development account created on startup.
type SeedAccount struct {
	Username   string
	Password   string
	Email      string
	Role       domain.Role
	Department string
}

// DefaultSeedAccounts are the development accounts. Never enable seeding in production.
var DefaultSeedAccounts = []SeedAccount{
	{Username: "admin", Password: "admin123", Email: "admin@example.com", Role: domain.RoleAdmin},
	{Username: "student", Password: "student123", Email: "student@example.com", Role: domain.RoleStudent},
	{Username: "tech", Password: "tech123", Email: "it@university.edu", Role: domain.RoleDepartment, Department: "technology"},
	{Username: "facilities", Password: "facilities123", Email: "facilities@university.edu", Role: domain.RoleDepartment, Department: "facilities"},
}

// SeedUsers creates missing accounts. Existing department accounts get their role, department
// and email repaired; passwords of existing accounts are never replaced.
func (s *AuthService) SeedUsers(ctx context.Context, accounts []SeedAccount) error {
	for _, account := range accounts {
		existing, err := s.users.GetByUsername(ctx, account.Username)
		switch {
		case err == nil:
			if account.Role != domain.RoleDepartment || !repairDepartmentAccount(existing, account) {
				continue
			}
			if err := s.users.Update(ctx, existing); err != nil {
				return err
			}
			s.logger.Info("repaired seeded account", zap.String("username", account.Username))
		case errors.Is(err, pgx.ErrNoRows):
			hash, err := auth.HashPassword(account.Password, s.bcryptCost)
			if err != nil {
				return err
			}
			user := &domain.User{
				Username:     account.Username,
				Email:        account.Email,
				PasswordHash: hash,
				Role:         account.Role,
				Department:   account.Department,
			}
			if err := s.users.Create(ctx, user); err != nil {
				return err
			}
			s.logger.Info("seeded account",
				zap.String("username", account.Username),
				zap.String("role", string(account.Role)))
		default:
			return err
		}
	}
	return nil
}

func repairDepartmentAccount(user *domain.User, account SeedAccount) bool {
	changed := false
	if user.Role != domain.RoleDepartment {
		user.Role = domain.RoleDepartment
		changed = true
	}
	if strings.TrimSpace(user.Department) == "" {
		user.Department = account.Department
		changed = true
	}
	if strings.TrimSpace(user.Email) == "" {
		user.Email = account.Email
		changed = true
	}
	return changed
}
