package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/auditlog"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
	"github.com/takdim/inven-go/pkg/validation"
)

type Repository interface {
	List(ctx context.Context, search string) ([]models.User, error)
	Get(ctx context.Context, id int) (*models.User, error)
	UsernameExists(ctx context.Context, username string, excludeID int) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id int, changes *models.UserChanges) error
	Delete(ctx context.Context, id int) error
}

type UserHandler struct {
	repository Repository
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
}

func NewUserHandler(r Repository, a *auditlog.Auditlog, logger *zap.Logger) *UserHandler {
	return &UserHandler{repository: r, auditLog: a, logger: logger}
}

func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/users", security.Authorize(roles.Admin), h.ListUsers)
	router.GET("/users/add", security.Authorize(roles.Admin), h.NewUser)
	router.POST("/users/add", security.Authorize(roles.Admin), h.CreateUser)
	router.GET("/users/:id/edit", security.Authorize(roles.Admin), h.EditUser)
	router.POST("/users/:id/edit", security.Authorize(roles.Admin), h.UpdateUser)
	router.POST("/users/:id/delete", security.Authorize(roles.Admin), h.RemoveUser)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	search := c.Query("q")
	users, err := h.repository.List(c.Request.Context(), search)
	if err != nil {
		h.logger.Error("Could not obtain list of users", zap.Error(err))
		web.ServerError(c)
		return
	}

	self := c.GetInt("userID")
	table := web.Table{
		Columns: []string{"Username", "Full name", "Email", "Role", "Status", "Last login"},
		Empty:   "No users match the search.",
	}
	for _, user := range users {
		status := web.Cell{Text: "Active", Badge: "safe"}
		if !user.IsActive {
			status = web.Cell{Text: "Disabled", Badge: "empty"}
		}
		row := web.Row{
			Cells: []web.Cell{
				{Text: user.Username},
				{Text: user.FullName},
				{Text: web.Dash(user.Email)},
				{Text: user.Role.String()},
				status,
				{Text: web.FormatTime(user.LastLogin)},
			},
			Actions: []web.Action{web.EditAction(fmt.Sprintf("/users/%d/edit", user.ID))},
		}
		if user.ID != self {
			row.Actions = append(row.Actions, web.DeleteAction(fmt.Sprintf("/users/%d/delete", user.ID), "Delete user "+user.Username+"?"))
		}
		table.Rows = append(table.Rows, row)
	}

	web.Render(c, http.StatusOK, "list.html", "Users", web.ListView{
		Heading: "Users",
		AddURL:  "/users/add",
		Filters: []web.Field{{Name: "q", Label: "Search", Type: "text", Value: search}},
		Table:   table,
	})
}

func (h *UserHandler) NewUser(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &models.User{Role: roles.Viewer, IsActive: true}, nil)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	req, user, errs, err := h.bind(c, 0)
	if err != nil {
		h.logger.Error("Could not check user uniqueness", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, user, errs)
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		web.ServerError(c)
		return
	}
	user.PasswordHash = hash

	if err := h.repository.Create(ctx, user); err != nil {
		h.writeFailed(c, user, err)
		return
	}

	h.auditLog.Log(ctx, security.Actor(c), "create", "Created user "+user.Username, user, user)
	web.Success(c, "User "+user.Username+" was added.")
	web.Redirect(c, "/users")
}

func (h *UserHandler) EditUser(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, user, nil)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()
	existing, ok := h.load(c)
	if !ok {
		return
	}

	req, user, errs, err := h.bind(c, existing.ID)
	if err != nil {
		h.logger.Error("Could not check user uniqueness", zap.Error(err))
		web.ServerError(c)
		return
	}
	user.ID, user.Username, user.LastLogin = existing.ID, existing.Username, existing.LastLogin
	if existing.ID == c.GetInt("userID") && (user.Role != roles.Admin || !user.IsActive) {
		errs.Add(validation.FormError, "You cannot remove your own administrator access.")
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, user, errs)
		return
	}

	changes := &models.UserChanges{}
	if user.FullName != existing.FullName {
		changes.FullName = &user.FullName
	}
	if web.Str(user.Email) != web.Str(existing.Email) {
		email := web.Str(user.Email)
		changes.Email = &email
	}
	if user.Role != existing.Role {
		changes.Role = &user.Role
	}
	if user.IsActive != existing.IsActive {
		changes.IsActive = &user.IsActive
	}
	if req.Password != "" {
		hash, err := security.HashPassword(req.Password)
		if err != nil {
			h.logger.Error("Failed to hash password", zap.Error(err))
			web.ServerError(c)
			return
		}
		changes.PasswordHash = &hash
	}

	if !changes.HasChanges() {
		web.Redirect(c, "/users")
		return
	}
	if err := h.repository.Update(ctx, existing.ID, changes); err != nil {
		h.writeFailed(c, user, err)
		return
	}

	h.auditLog.Log(ctx, security.Actor(c), "update", "Updated user "+user.Username, gin.H{
		"full_name":        changes.FullName,
		"email":            changes.Email,
		"role":             changes.Role,
		"is_active":        changes.IsActive,
		"password_changed": changes.PasswordHash != nil,
	}, user)
	web.Success(c, "User "+user.Username+" was updated.")
	web.Redirect(c, "/users")
}

func (h *UserHandler) RemoveUser(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if user.ID == c.GetInt("userID") {
		web.Danger(c, "You cannot delete your own account.")
		web.Redirect(c, "/users")
		return
	}

	err := h.repository.Delete(ctx, user.ID)
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "User")
		return
	case err != nil:
		h.logger.Error("Could not delete user", zap.Int("user_id", user.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(ctx, security.Actor(c), "delete", "Deleted user "+user.Username, user, user)
	web.Success(c, "User "+user.Username+" was deleted.")
	web.Redirect(c, "/users")
}

func (h *UserHandler) load(c *gin.Context) (*models.User, bool) {
	id, ok := web.ParamID(c, "id", "User")
	if !ok {
		return nil, false
	}
	user, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "User")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load user", zap.Int("user_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return user, true
}

func (h *UserHandler) bind(c *gin.Context, excludeID int) (*userRequest, *models.User, validation.Errors, error) {
	ctx := c.Request.Context()
	var req userRequest
	errs := validation.FromBinding(c.ShouldBind(&req))
	user := req.toUser(&errs, excludeID == 0)

	if excludeID == 0 && !errs.Has("username") {
		exists, err := h.repository.UsernameExists(ctx, user.Username, 0)
		if err != nil {
			return &req, user, nil, err
		}
		if exists {
			errs.Add("username", "This username is already taken.")
		}
	}
	if user.Email != nil && !errs.Has("email") {
		exists, err := h.repository.EmailExists(ctx, *user.Email, excludeID)
		if err != nil {
			return &req, user, nil, err
		}
		if exists {
			errs.Add("email", "This email is already used by another user.")
		}
	}
	return &req, user, errs, nil
}

func (h *UserHandler) writeFailed(c *gin.Context, user *models.User, err error) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "User")
	case custom_error.IsUniqueViolation(err):
		h.renderForm(c, http.StatusConflict, user, validation.Errors{
			{Field: validation.FormError, Message: "Another user with this username or email was saved at the same time. Please check the form."},
		})
	default:
		h.logger.Error("Could not save user", zap.String("username", user.Username), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *UserHandler) renderForm(c *gin.Context, status int, user *models.User, errs validation.Errors) {
	roleValues := make([]string, 0, len(roles.All()))
	for _, r := range roles.All() {
		roleValues = append(roleValues, r.String())
	}
	active := "true"
	if !user.IsActive {
		active = "false"
	}

	form := web.FormView{
		Heading: "Add user",
		Action:  "/users/add",
		Submit:  "Save",
		Cancel:  "/users",
		Fields: []web.Field{
			web.TextField("username", "Username", user.Username, true),
			web.TextField("full_name", "Full name", user.FullName, true),
			web.TextField("email", "Email", web.Str(user.Email), false),
			web.SelectField("role", "Role", web.ValueOptions(roleValues, []string{"Viewer", "Staff", "Administrator"}, user.Role.String()), true),
			web.SelectField("is_active", "Status", web.ValueOptions([]string{"true", "false"}, []string{"Active", "Disabled"}, active), true),
			web.PasswordField("password", "Password", true),
			web.PasswordField("password_confirm", "Confirm password", true),
		},
	}
	if user.ID > 0 {
		form.Heading = "Edit user " + user.Username
		form.Action = fmt.Sprintf("/users/%d/edit", user.ID)
		form.Fields[0] = web.HiddenField("username", user.Username)
		form.Fields[5] = web.PasswordField("password", "New password", false)
		form.Fields[5].Help = "Leave empty to keep the current password."
		form.Fields[6] = web.PasswordField("password_confirm", "Confirm new password", false)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}
