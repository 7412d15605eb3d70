package users

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/auditlog"
	"github.com/takdim/inven-go/internal/web/webtest"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context, search string) ([]models.User, error) {
	args := m.Called(search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string, excludeID int) (bool, error) {
	args := m.Called(username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	args := m.Called(email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	user.ID = 5
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, id int, changes *models.UserChanges) error {
	args := m.Called(id, changes)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func setup(role roles.Role) (*MockUserRepository, *webtest.AuditStore, http.Handler) {
	repo := new(MockUserRepository)
	auditLog, store := webtest.NewAuditLog()
	handler := NewUserHandler(repo, auditLog, zap.NewNop())

	router := webtest.SetupTestRouter(role)
	handler.RegisterRoutes(router)
	return repo, store, router
}

func strPtr(s string) *string { return &s }

func TestListUsers(t *testing.T) {
	repo, _, router := setup(roles.Admin)
	login := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	repo.On("List", "ani").Return([]models.User{
		{ID: 1, Username: "tester", FullName: "Test Admin", Role: roles.Admin, IsActive: true},
		{ID: 2, Username: "ani", FullName: "Ani Wijaya", Email: strPtr("ani@example.org"), Role: roles.Staff, LastLogin: &login},
	}, nil)

	w := webtest.Get(router, "/users?q=ani")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ani@example.org")
	assert.Contains(t, body, "Disabled")
	assert.Contains(t, body, "/users/2/delete")
	assert.NotContains(t, body, "/users/1/delete")
	repo.AssertExpectations(t)
}

func TestUsersRequireAdmin(t *testing.T) {
	for _, role := range []roles.Role{"", roles.Viewer, roles.Staff} {
		_, _, router := setup(role)

		w := webtest.Get(router, "/users")

		assert.Equal(t, http.StatusForbidden, w.Code, role)
	}
}

func TestCreateUser(t *testing.T) {
	repo, store, router := setup(roles.Admin)
	repo.On("UsernameExists", "ani", 0).Return(false, nil)
	repo.On("EmailExists", "ani@example.org", 0).Return(false, nil)
	repo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "ani" && u.Role == roles.Staff && u.IsActive &&
			security.CheckPassword(u.PasswordHash, "secret1")
	})).Return(nil)

	w := webtest.PostForm(router, "/users/add", url.Values{
		"username":         {" ani "},
		"full_name":        {"Ani Wijaya"},
		"email":            {"ani@example.org"},
		"role":             {"staff"},
		"is_active":        {"true"},
		"password":         {"secret1"},
		"password_confirm": {"secret1"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))
	assert.Equal(t, []string{"create user"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestCreateUserValidation(t *testing.T) {
	valid := func() url.Values {
		return url.Values{
			"username":         {"ani"},
			"full_name":        {"Ani Wijaya"},
			"role":             {"staff"},
			"password":         {"secret1"},
			"password_confirm": {"secret1"},
		}
	}

	tests := []struct {
		name     string
		change   func(url.Values)
		taken    bool
		expected string
	}{
		{name: "missing username", change: func(v url.Values) { v.Set("username", "") }, expected: "This field is required."},
		{name: "short username", change: func(v url.Values) { v.Set("username", "an") }, expected: "Must be at least 3 characters."},
		{name: "username with space", change: func(v url.Values) { v.Set("username", "ani w") }, expected: "Must not contain spaces."},
		{name: "taken username", taken: true, expected: "This username is already taken."},
		{name: "unknown role", change: func(v url.Values) { v.Set("role", "root") }, expected: "Unknown role."},
		{name: "short password", change: func(v url.Values) { v.Set("password", "abc"); v.Set("password_confirm", "abc") }, expected: "Must be at least 6 characters."},
		{name: "mismatched confirmation", change: func(v url.Values) { v.Set("password_confirm", "secret2") }, expected: "Does not match."},
		{name: "invalid email", change: func(v url.Values) { v.Set("email", "not-an-email") }, expected: "Must be a valid email address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store, router := setup(roles.Admin)
			repo.On("UsernameExists", mock.Anything, 0).Return(tt.taken, nil).Maybe()
			form := valid()
			if tt.change != nil {
				tt.change(form)
			}

			w := webtest.PostForm(router, "/users/add", form)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), tt.expected)
			assert.Empty(t, store.Entries)
			repo.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestCreateUserConflict(t *testing.T) {
	repo, store, router := setup(roles.Admin)
	repo.On("UsernameExists", "ani", 0).Return(false, nil)
	repo.On("Create", mock.Anything).Return(&custom_error.UniqueViolationError{Constraint: "users_username_key"})

	w := webtest.PostForm(router, "/users/add", url.Values{
		"username": {"ani"}, "full_name": {"Ani"}, "role": {"viewer"},
		"password": {"secret1"}, "password_confirm": {"secret1"},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, store.Entries)
}

func TestUpdateUser(t *testing.T) {
	repo, store, router := setup(roles.Admin)
	repo.On("Get", 2).Return(&models.User{ID: 2, Username: "ani", FullName: "Ani", Email: strPtr("ani@example.org"), Role: roles.Viewer, IsActive: true}, nil)
	repo.On("Update", 2, mock.MatchedBy(func(c *models.UserChanges) bool {
		return c.FullName == nil && c.Email != nil && *c.Email == "" &&
			c.Role != nil && *c.Role == roles.Staff && c.IsActive != nil && !*c.IsActive &&
			c.PasswordHash == nil
	})).Return(nil)

	w := webtest.PostForm(router, "/users/2/edit", url.Values{
		"username":  {"ani"},
		"full_name": {"Ani"},
		"email":     {""},
		"role":      {"staff"},
		"is_active": {"false"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"update user"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestUpdateUserWithoutChanges(t *testing.T) {
	repo, store, router := setup(roles.Admin)
	repo.On("Get", 2).Return(&models.User{ID: 2, Username: "ani", FullName: "Ani", Role: roles.Viewer, IsActive: true}, nil)

	w := webtest.PostForm(router, "/users/2/edit", url.Values{"full_name": {"Ani"}, "role": {"viewer"}, "is_active": {"true"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, store.Entries)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateUserNewPassword(t *testing.T) {
	repo, _, router := setup(roles.Admin)
	repo.On("Get", 2).Return(&models.User{ID: 2, Username: "ani", FullName: "Ani", Role: roles.Viewer, IsActive: true}, nil)
	repo.On("Update", 2, mock.MatchedBy(func(c *models.UserChanges) bool {
		return c.PasswordHash != nil && security.CheckPassword(*c.PasswordHash, "newsecret")
	})).Return(nil)

	w := webtest.PostForm(router, "/users/2/edit", url.Values{
		"full_name": {"Ani"}, "role": {"viewer"}, "is_active": {"true"},
		"password": {"newsecret"}, "password_confirm": {"newsecret"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	repo.AssertExpectations(t)
}

func TestAdminCannotDemoteThemselves(t *testing.T) {
	repo, _, router := setup(roles.Admin)
	repo.On("Get", 1).Return(&models.User{ID: 1, Username: "tester", FullName: "Test Admin", Role: roles.Admin, IsActive: true}, nil)

	w := webtest.PostForm(router, "/users/1/edit", url.Values{"full_name": {"Test Admin"}, "role": {"staff"}, "is_active": {"true"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "You cannot remove your own administrator access.")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRemoveUser(t *testing.T) {
	repo, store, router := setup(roles.Admin)
	repo.On("Get", 2).Return(&models.User{ID: 2, Username: "ani"}, nil)
	repo.On("Delete", 2).Return(nil)

	w := webtest.PostForm(router, "/users/2/delete", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"delete user"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestRemoveOwnAccount(t *testing.T) {
	repo, store, router := setup(roles.Admin)
	repo.On("Get", 1).Return(&models.User{ID: 1, Username: "tester"}, nil)

	w := webtest.PostForm(router, "/users/1/delete", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotEmpty(t, webtest.FlashCookie(w))
	assert.Empty(t, store.Entries)
	repo.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestEditMissingUser(t *testing.T) {
	repo, _, router := setup(roles.Admin)
	repo.On("Get", 9).Return(nil, custom_error.ErrNotFound)

	w := webtest.Get(router, "/users/9/edit")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) List(ctx context.Context, filter auditlog.Filter) ([]models.AuditLog, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLog), args.Error(1)
}

type MockUserOptions struct {
	mock.Mock
}

func (m *MockUserOptions) Options(ctx context.Context) ([]models.Option, error) {
	args := m.Called()
	return args.Get(0).([]models.Option), args.Error(1)
}

func TestListActivity(t *testing.T) {
	repo := new(MockActivityRepository)
	options := new(MockUserOptions)
	router := webtest.SetupTestRouter(roles.Admin)
	NewActivityHandler(repo, options, zap.NewNop()).RegisterRoutes(router)

	userID := 2
	repo.On("List", auditlog.Filter{ResourceType: "item", UserID: 2}).Return([]models.AuditLog{
		{ResourceID: 4, ResourceType: "item", Action: "create", Description: "Created item ATK-01", UserID: &userID, Username: strPtr("ani"), IPAddress: strPtr("10.0.0.7")},
		{ResourceID: 3, ResourceType: "damage_report", Action: "create", Description: "Damage reported for AST-1"},
	}, nil)
	options.On("Options").Return([]models.Option{{ID: 2, Label: "ani"}}, nil)

	w := webtest.Get(router, "/activity?resource=item&user=2")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Created item ATK-01")
	assert.Contains(t, body, "item #4")
	assert.Contains(t, body, "10.0.0.7")
	assert.Contains(t, body, "Public")
	repo.AssertExpectations(t)
}

func TestListActivityFailure(t *testing.T) {
	repo := new(MockActivityRepository)
	router := webtest.SetupTestRouter(roles.Admin)
	NewActivityHandler(repo, new(MockUserOptions), zap.NewNop()).RegisterRoutes(router)
	repo.On("List", auditlog.Filter{}).Return(nil, errors.New("connection refused"))

	w := webtest.Get(router, "/activity")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
