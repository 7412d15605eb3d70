package users

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
)

type UserRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *UserRepository {
	return &UserRepository{repository: r}
}

func (r *UserRepository) query() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.From("users").Select(
		"id", "username", "full_name", "email", "password_hash", "role", "is_active", "last_login", "created_at",
	)
}

func (r *UserRepository) List(ctx context.Context, search string) ([]models.User, error) {
	conditions := repository.NewQueryBuilder().Contains(search, "username", "full_name", "email")
	query := r.query().
		Where(conditions.Build(nil)...).
		Order(goqu.C("username").Asc())

	var users []models.User
	if err := query.ScanStructsContext(ctx, &users); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return users, nil
}

func (r *UserRepository) get(ctx context.Context, ex goqu.Ex) (*models.User, error) {
	var user models.User
	found, err := r.query().Where(ex).ScanStructContext(ctx, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	return r.get(ctx, goqu.Ex{"id": id})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, goqu.Ex{"username": username})
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "users", "username", username, excludeID)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "users", "email", email, excludeID)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "users", goqu.Record{
		"username":      user.Username,
		"full_name":     user.FullName,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"is_active":     user.IsActive,
	})
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// Update writes the non-nil columns of changes. An empty email clears it.
func (r *UserRepository) Update(ctx context.Context, id int, changes *models.UserChanges) error {
	if !changes.HasChanges() {
		return nil
	}

	record := goqu.Record{}
	if changes.FullName != nil {
		record["full_name"] = *changes.FullName
	}
	if changes.Email != nil {
		if *changes.Email == "" {
			record["email"] = nil
		} else {
			record["email"] = *changes.Email
		}
	}
	if changes.Role != nil {
		record["role"] = *changes.Role
	}
	if changes.IsActive != nil {
		record["is_active"] = *changes.IsActive
	}
	if changes.PasswordHash != nil {
		record["password_hash"] = *changes.PasswordHash
	}
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "users", id, record)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "users", id, goqu.Record{"last_login": at})
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "users", id)
}

func (r *UserRepository) Options(ctx context.Context) ([]models.Option, error) {
	return repository.Options(ctx, r.repository.GoquDBWrapper, "users", goqu.C("username"))
}
