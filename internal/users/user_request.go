package users

import (
	"fmt"
	"strings"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
	"github.com/takdim/inven-go/pkg/validation"
)

type userRequest struct {
	Username        string `form:"username" binding:"max=50"`
	FullName        string `form:"full_name" binding:"required,max=120"`
	Email           string `form:"email" binding:"omitempty,email,max=120"`
	Role            string `form:"role" binding:"required"`
	Active          string `form:"is_active"`
	Password        string `form:"password"`
	PasswordConfirm string `form:"password_confirm"`
}

// toUser checks the fields shared by create and edit. A new account needs
// a username and a password; on edit an empty password keeps the old one.
func (r userRequest) toUser(errs *validation.Errors, creating bool) *models.User {
	user := &models.User{
		Username: strings.TrimSpace(r.Username),
		FullName: strings.TrimSpace(r.FullName),
		Email:    validation.OptionalString(r.Email),
		IsActive: r.Active != "false",
	}

	if creating && !errs.Has("username") {
		switch {
		case user.Username == "":
			errs.Add("username", "This field is required.")
		case len(user.Username) < 3:
			errs.Add("username", "Must be at least 3 characters.")
		case strings.ContainsAny(user.Username, " \t"):
			errs.Add("username", "Must not contain spaces.")
		}
	}
	if user.FullName == "" && !errs.Has("full_name") {
		errs.Add("full_name", "This field is required.")
	}

	role, err := roles.NewRole(strings.TrimSpace(r.Role))
	if err != nil && !errs.Has("role") {
		errs.Add("role", "Unknown role.")
	}
	user.Role = role

	if creating || r.Password != "" {
		switch {
		case len(r.Password) < security.MinPasswordLength:
			errs.Add("password", fmt.Sprintf("Must be at least %d characters.", security.MinPasswordLength))
		case r.Password != r.PasswordConfirm:
			errs.Add("password_confirm", "Does not match.")
		}
	}
	return user
}

type activityQuery struct {
	ResourceType string `form:"resource"`
	UserID       int    `form:"user"`
}
