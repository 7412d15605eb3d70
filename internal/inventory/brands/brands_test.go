package brands

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/web/webtest"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
)

type MockBrandRepository struct {
	mock.Mock
}

func (m *MockBrandRepository) List(ctx context.Context, search string) ([]models.Brand, error) {
	args := m.Called(search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Brand), args.Error(1)
}

func (m *MockBrandRepository) Get(ctx context.Context, id int) (*models.Brand, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Brand), args.Error(1)
}

func (m *MockBrandRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	args := m.Called(name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBrandRepository) Create(ctx context.Context, brand *models.Brand) error {
	return m.Called(brand).Error(0)
}

func (m *MockBrandRepository) Update(ctx context.Context, brand *models.Brand) error {
	return m.Called(brand).Error(0)
}

func (m *MockBrandRepository) CountDependents(ctx context.Context, id int) (int, error) {
	args := m.Called(id)
	return args.Int(0), args.Error(1)
}

func (m *MockBrandRepository) Delete(ctx context.Context, id int) error {
	return m.Called(id).Error(0)
}

type MockAssetBrandRepository struct {
	mock.Mock
}

func (m *MockAssetBrandRepository) List(ctx context.Context, search string) ([]models.AssetBrand, error) {
	args := m.Called(search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssetBrand), args.Error(1)
}

func (m *MockAssetBrandRepository) Get(ctx context.Context, id int) (*models.AssetBrand, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssetBrand), args.Error(1)
}

func (m *MockAssetBrandRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	args := m.Called(name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAssetBrandRepository) Create(ctx context.Context, brand *models.AssetBrand) error {
	return m.Called(brand).Error(0)
}

func (m *MockAssetBrandRepository) Update(ctx context.Context, brand *models.AssetBrand) error {
	return m.Called(brand).Error(0)
}

func (m *MockAssetBrandRepository) CountDependents(ctx context.Context, id int) (int, error) {
	args := m.Called(id)
	return args.Int(0), args.Error(1)
}

func (m *MockAssetBrandRepository) Delete(ctx context.Context, id int) error {
	return m.Called(id).Error(0)
}

func TestAssetCount(t *testing.T) {
	tests := []struct {
		name            string
		contract, total int
		want            int
	}{
		{name: "assets under the contract", contract: 3, total: 7, want: 3},
		{name: "no contract match falls back to all", contract: 0, total: 7, want: 7},
		{name: "no assets", contract: 0, total: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetCount(tt.contract, tt.total))
		})
	}
}

func TestCreateBrandDuplicateName(t *testing.T) {
	repo := new(MockBrandRepository)
	auditLog, store := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Staff)
	NewBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)
	repo.On("NameExists", "Epson", 0).Return(true, nil)

	w := webtest.PostForm(router, "/brands/add", url.Values{"name": {"Epson"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "This name is already used.")
	assert.Empty(t, store.Entries)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateBrandNameTooShort(t *testing.T) {
	repo := new(MockBrandRepository)
	auditLog, _ := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Staff)
	NewBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)

	w := webtest.PostForm(router, "/brands/add", url.Values{"name": {"E"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Must be at least 2 characters.")
	repo.AssertNotCalled(t, "NameExists", mock.Anything, mock.Anything)
}

func TestCreateBrand(t *testing.T) {
	repo := new(MockBrandRepository)
	auditLog, store := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Admin)
	NewBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)
	repo.On("NameExists", "Epson", 0).Return(false, nil)
	repo.On("Create", mock.MatchedBy(func(b *models.Brand) bool {
		return b.Name == "Epson" && b.Type != nil && *b.Type == "Ink"
	})).Return(nil)

	w := webtest.PostForm(router, "/brands/add", url.Values{"name": {"Epson"}, "type": {"Ink"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/brands", w.Header().Get("Location"))
	assert.Equal(t, []string{"create brand"}, store.Actions())
}

func TestRemoveBrandInUse(t *testing.T) {
	repo := new(MockBrandRepository)
	auditLog, store := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Staff)
	NewBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)
	repo.On("Get", 2).Return(&models.Brand{ID: 2, Name: "Epson"}, nil)
	repo.On("CountDependents", 2).Return(5, nil)

	w := webtest.PostForm(router, "/brands/2/delete", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotEmpty(t, webtest.FlashCookie(w))
	assert.Empty(t, store.Entries)
	repo.AssertNotCalled(t, "Delete", 2)
}

func TestListAssetBrands(t *testing.T) {
	repo := new(MockAssetBrandRepository)
	auditLog, _ := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Viewer)
	NewAssetBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)
	acquired := time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)
	contract := "SPK-01/2023"
	repo.On("List", "").Return([]models.AssetBrand{
		{ID: 4, Name: "Laptop", AcquisitionDate: &acquired, ContractNumber: &contract, AssetCount: 12},
	}, nil)

	w := webtest.Get(router, "/asset-brands")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, "2023-03-14")
	assert.Contains(t, body, "SPK-01/2023")
	assert.Contains(t, body, ">12<")
}

func TestCreateAssetBrandInvalidDate(t *testing.T) {
	repo := new(MockAssetBrandRepository)
	auditLog, _ := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Staff)
	NewAssetBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)
	repo.On("NameExists", "Laptop", 0).Return(false, nil)

	w := webtest.PostForm(router, "/asset-brands/add", url.Values{"name": {"Laptop"}, "acquisition_date": {"14/03/2023"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Must be a date in the form YYYY-MM-DD.")
}

func TestUpdateAssetBrandUniqueRace(t *testing.T) {
	repo := new(MockAssetBrandRepository)
	auditLog, _ := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Staff)
	NewAssetBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)
	repo.On("Get", 4).Return(&models.AssetBrand{ID: 4, Name: "Laptop"}, nil)
	repo.On("NameExists", "Laptops", 4).Return(false, nil)
	repo.On("Update", mock.Anything).Return(custom_error.WrapDBError("duplicate key", "23505", "asset_brands_name_key"))

	w := webtest.PostForm(router, "/asset-brands/4/edit", url.Values{"name": {"Laptops"}})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "saved at the same time")
}

func TestRemoveAssetBrand(t *testing.T) {
	repo := new(MockAssetBrandRepository)
	auditLog, store := webtest.NewAuditLog()
	router := webtest.SetupTestRouter(roles.Staff)
	NewAssetBrandHandler(repo, auditLog, zap.NewNop()).RegisterRoutes(router)
	repo.On("Get", 4).Return(&models.AssetBrand{ID: 4, Name: "Laptop"}, nil)
	repo.On("CountDependents", 4).Return(0, nil)
	repo.On("Delete", 4).Return(nil)

	w := webtest.PostForm(router, "/asset-brands/4/delete", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"delete asset_brand"}, store.Actions())
}
