package database

import (
	"context"
	"fmt"
	"log"

	"library_api/internal/common/security"
	"library_api/internal/domain/model"
	"library_api/internal/domain/repository"

	"github.com/google/uuid"
)

// SeedUsers creates the default accounts on first boot; any existing users
// mean seeding already happened (or real accounts exist) and it is skipped.
func SeedUsers(ctx context.Context, userRepo repository.UserRepository) error {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		log.Println("Users already exist in the database. Skipping seeding.")
		return nil
	}

	log.Println("No users found. Creating default users...")

	defaults := []struct {
		email     string
		password  string
		role      string
		firstName string
		lastName  string
	}{
		{"customer1@example.com", "customer123", model.RoleCustomer, "Customer", "One"},
		{"customer2@example.com", "customer123", model.RoleCustomer, "Customer", "Two"},
		{"employee1@example.com", "employee123", model.RoleEmployee, "Employee", "One"},
		{"employee2@example.com", "employee123", model.RoleEmployee, "Employee", "Two"},
	}

	for _, d := range defaults {
		hashed, err := security.HashPassword(d.password)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		firstName, lastName := d.firstName, d.lastName
		user := &model.User{
			ID:             uuid.NewString(),
			Email:          d.email,
			HashedPassword: hashed,
			Role:           d.role,
			FirstName:      &firstName,
			LastName:       &lastName,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", d.email, err)
		}
	}

	log.Println("Default users created successfully.")
	return nil
}
