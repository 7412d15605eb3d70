package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) UsernameExists(ctx context.Context, username string, excludeID int) (bool, error) {
	args := m.Called(username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	user.ID = 1
	return args.Error(0)
}

func (m *MockUserStore) Update(ctx context.Context, id int, changes *models.UserChanges) error {
	args := m.Called(id, changes)
	return args.Error(0)
}

func TestCreateUser(t *testing.T) {
	store := new(MockUserStore)
	store.On("UsernameExists", "admin", 0).Return(false, nil)
	store.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.FullName == "admin" && u.Email == nil && u.IsActive && security.CheckPassword(u.PasswordHash, "changeme")
	})).Return(nil)

	user, err := createUser(context.Background(), store, " admin ", "", "", "admin", "changeme")

	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, roles.Admin, user.Role)
	store.AssertExpectations(t)
}

func TestCreateUserRejects(t *testing.T) {
	tests := []struct {
		name     string
		username string
		role     string
		password string
		exists   bool
	}{
		{name: "short username", username: "ad", role: "admin", password: "changeme"},
		{name: "unknown role", username: "admin", role: "root", password: "changeme"},
		{name: "short password", username: "admin", role: "admin", password: "abc"},
		{name: "existing user", username: "admin", role: "admin", password: "changeme", exists: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockUserStore)
			store.On("UsernameExists", tt.username, 0).Return(tt.exists, nil).Maybe()

			_, err := createUser(context.Background(), store, tt.username, "", "", tt.role, tt.password)

			assert.Error(t, err)
			store.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestResetPassword(t *testing.T) {
	store := new(MockUserStore)
	store.On("GetByUsername", "ani").Return(&models.User{ID: 4, Username: "ani"}, nil)
	store.On("GetByUsername", "ghost").Return(nil, custom_error.ErrNotFound)
	store.On("Update", 4, mock.MatchedBy(func(c *models.UserChanges) bool {
		return c.PasswordHash != nil && security.CheckPassword(*c.PasswordHash, "newsecret") && c.Role == nil
	})).Return(nil)

	require.NoError(t, resetPassword(context.Background(), store, "ani", "newsecret"))

	err := resetPassword(context.Background(), store, "ghost", "newsecret")
	assert.EqualError(t, err, "user ghost does not exist")

	assert.Error(t, resetPassword(context.Background(), store, "ani", "abc"))
	store.AssertExpectations(t)
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{{"serve"}, {"migrate", "up"}, {"migrate", "down"}, {"migrate", "version"}, {"user", "create"}, {"user", "reset-password"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
