package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/takdim/inven-go/internal/config"
	"github.com/takdim/inven-go/internal/database"
	"github.com/takdim/inven-go/internal/repository"
	"github.com/takdim/inven-go/internal/users"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
	"github.com/takdim/inven-go/pkg/validation"
)

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string, excludeID int) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id int, changes *models.UserChanges) error
}

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts from the command line",
	}

	var fullName, email, role, password string
	createCmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create an account, an administrator unless --role says otherwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserStore(cmd.Context(), func(store userStore) error {
				user, err := createUser(cmd.Context(), store, args[0], fullName, email, role, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d)\n", user.Role, user.Username, user.ID)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&fullName, "full-name", "", "Full name (default USERNAME)")
	createCmd.Flags().StringVar(&email, "email", "", "Email address")
	createCmd.Flags().StringVar(&role, "role", roles.Admin.String(), "Role: viewer, staff or admin")
	createCmd.Flags().StringVar(&password, "password", "", "Password")
	_ = createCmd.MarkFlagRequired("password")

	var newPassword string
	resetCmd := &cobra.Command{
		Use:   "reset-password USERNAME",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserStore(cmd.Context(), func(store userStore) error {
				if err := resetPassword(cmd.Context(), store, args[0], newPassword); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password of %s was reset\n", args[0])
				return nil
			})
		},
	}
	resetCmd.Flags().StringVar(&newPassword, "password", "", "New password")
	_ = resetCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createCmd, resetCmd)
	return userCmd
}

func withUserStore(ctx context.Context, fn func(store userStore) error) error {
	dbURL, _ := config.LoadDatabase()
	db, err := database.NewPostgresConnection(ctx, dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(users.NewRepository(repository.NewRepository(db)))
}

func createUser(ctx context.Context, store userStore, username, fullName, email, role, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || strings.ContainsAny(username, " \t") {
		return nil, errors.New("username must have at least 3 characters and no spaces")
	}
	r, err := roles.NewRole(role)
	if err != nil {
		return nil, err
	}
	if len(password) < security.MinPasswordLength {
		return nil, fmt.Errorf("password must have at least %d characters", security.MinPasswordLength)
	}

	exists, err := store.UsernameExists(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("user %s already exists", username)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = username
	}

	user := &models.User{
		Username:     username,
		FullName:     strings.TrimSpace(fullName),
		Email:        validation.OptionalString(email),
		PasswordHash: hash,
		Role:         r,
		IsActive:     true,
	}
	if err := store.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func resetPassword(ctx context.Context, store userStore, username, password string) error {
	if len(password) < security.MinPasswordLength {
		return fmt.Errorf("password must have at least %d characters", security.MinPasswordLength)
	}

	user, err := store.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, custom_error.ErrNotFound) {
		return fmt.Errorf("user %s does not exist", username)
	}
	if err != nil {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	return store.Update(ctx, user.ID, &models.UserChanges{PasswordHash: &hash})
}
