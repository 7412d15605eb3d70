package category

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/web/webtest"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
)

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context, search string) ([]models.Category, error) {
	args := m.Called(search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Get(ctx context.Context, id int) (*models.Category, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	args := m.Called(name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(category)
	category.ID = 11
	return args.Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(category)
	return args.Error(0)
}

func (m *MockCategoryRepository) CountDependents(ctx context.Context, id int) (int, error) {
	args := m.Called(id)
	return args.Int(0), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func setup(role roles.Role) (*MockCategoryRepository, *webtest.AuditStore, http.Handler) {
	repo := new(MockCategoryRepository)
	auditLog, store := webtest.NewAuditLog()
	handler := NewCategoryHandler(repo, auditLog, zap.NewNop())

	router := webtest.SetupTestRouter(role)
	handler.RegisterRoutes(router)
	return repo, store, router
}

func TestListCategories(t *testing.T) {
	repo, _, router := setup(roles.Viewer)
	desc := "Paper goods"
	repo.On("List", "pap").Return([]models.Category{
		{ID: 1, Name: "Stationery", Description: &desc, ItemCount: 4, AssetCount: 0},
	}, nil)

	w := webtest.Get(router, "/categories?q=pap")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Stationery")
	assert.Contains(t, w.Body.String(), "Paper goods")
	assert.NotContains(t, w.Body.String(), "/categories/1/edit")
	repo.AssertExpectations(t)
}

func TestAddCategoryRequiresStaff(t *testing.T) {
	_, _, router := setup(roles.Viewer)

	w := webtest.Get(router, "/categories/add")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateCategory(t *testing.T) {
	repo, store, router := setup(roles.Staff)
	repo.On("NameExists", "Stationery", 0).Return(false, nil)
	repo.On("Create", mock.MatchedBy(func(c *models.Category) bool {
		return c.Name == "Stationery" && c.Description == nil
	})).Return(nil)

	w := webtest.PostForm(router, "/categories/add", url.Values{"name": {"  Stationery "}, "description": {" "}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/categories", w.Header().Get("Location"))
	assert.NotEmpty(t, webtest.FlashCookie(w))
	assert.Equal(t, []string{"create category"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestCreateCategoryValidation(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		nameExists bool
		message    string
	}{
		{name: "missing name", form: url.Values{"name": {""}}, message: "This field is required."},
		{name: "blank name", form: url.Values{"name": {"   "}}, message: "This field is required."},
		{name: "duplicate name", form: url.Values{"name": {"Stationery"}}, nameExists: true, message: "A category with this name already exists."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store, router := setup(roles.Staff)
			repo.On("NameExists", mock.Anything, 0).Return(tt.nameExists, nil).Maybe()

			w := webtest.PostForm(router, "/categories/add", tt.form)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Empty(t, store.Entries)
			repo.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestCreateCategoryUniqueRace(t *testing.T) {
	repo, _, router := setup(roles.Staff)
	repo.On("NameExists", "Stationery", 0).Return(false, nil)
	repo.On("Create", mock.Anything).Return(custom_error.WrapDBError("duplicate key", "23505", "categories_name_key"))

	w := webtest.PostForm(router, "/categories/add", url.Values{"name": {"Stationery"}})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "saved at the same time")
}

func TestUpdateCategoryKeepsOwnName(t *testing.T) {
	repo, store, router := setup(roles.Staff)
	repo.On("Get", 3).Return(&models.Category{ID: 3, Name: "Stationery"}, nil)
	repo.On("NameExists", "Stationery", 3).Return(false, nil)
	repo.On("Update", mock.MatchedBy(func(c *models.Category) bool { return c.ID == 3 })).Return(nil)

	w := webtest.PostForm(router, "/categories/3/edit", url.Values{"name": {"Stationery"}, "description": {"Office"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"update category"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestEditCategoryNotFound(t *testing.T) {
	repo, _, router := setup(roles.Staff)
	repo.On("Get", 99).Return(nil, custom_error.ErrNotFound)

	w := webtest.Get(router, "/categories/99/edit")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Category was not found.")
}

func TestEditCategoryInvalidID(t *testing.T) {
	_, _, router := setup(roles.Staff)

	w := webtest.Get(router, "/categories/abc/edit")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveCategory(t *testing.T) {
	t.Run("refused while items use it", func(t *testing.T) {
		repo, store, router := setup(roles.Staff)
		repo.On("Get", 3).Return(&models.Category{ID: 3, Name: "Stationery"}, nil)
		repo.On("CountDependents", 3).Return(1, nil)

		w := webtest.PostForm(router, "/categories/3/delete", nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/categories", w.Header().Get("Location"))
		assert.NotEmpty(t, webtest.FlashCookie(w))
		assert.Empty(t, store.Entries)
		repo.AssertNotCalled(t, "Delete", 3)
	})

	t.Run("deleted when unused", func(t *testing.T) {
		repo, store, router := setup(roles.Staff)
		repo.On("Get", 3).Return(&models.Category{ID: 3, Name: "Stationery"}, nil)
		repo.On("CountDependents", 3).Return(0, nil)
		repo.On("Delete", 3).Return(nil)

		w := webtest.PostForm(router, "/categories/3/delete", nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, []string{"delete category"}, store.Actions())
		repo.AssertExpectations(t)
	})

	t.Run("foreign key fallback", func(t *testing.T) {
		repo, store, router := setup(roles.Staff)
		repo.On("Get", 3).Return(&models.Category{ID: 3, Name: "Stationery"}, nil)
		repo.On("CountDependents", 3).Return(0, nil)
		repo.On("Delete", 3).Return(custom_error.WrapDBError("violates foreign key", "23503", "items_category_id_fkey"))

		w := webtest.PostForm(router, "/categories/3/delete", nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.NotEmpty(t, webtest.FlashCookie(w))
		assert.Empty(t, store.Entries)
	})
}
