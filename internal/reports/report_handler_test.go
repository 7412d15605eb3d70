package reports

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/inventory/assets"
	"github.com/takdim/inven-go/internal/inventory/contracts"
	"github.com/takdim/inven-go/internal/inventory/items"
	"github.com/takdim/inven-go/internal/inventory/stocks"
	"github.com/takdim/inven-go/internal/web/webtest"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
)

type MockItems struct {
	mock.Mock
}

func (m *MockItems) List(ctx context.Context, filter items.ItemFilter) ([]models.ItemStock, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.ItemStock), args.Error(1)
}

func (m *MockItems) CategoryOptions(ctx context.Context) ([]models.Option, error) {
	args := m.Called()
	return args.Get(0).([]models.Option), args.Error(1)
}

func (m *MockItems) BrandOptions(ctx context.Context) ([]models.Option, error) {
	args := m.Called()
	return args.Get(0).([]models.Option), args.Error(1)
}

type MockContracts struct {
	mock.Mock
}

func (m *MockContracts) List(ctx context.Context, filter contracts.ContractFilter) ([]models.ContractSummary, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.ContractSummary), args.Error(1)
}

type MockMovements struct {
	mock.Mock
}

func (m *MockMovements) List(ctx context.Context, direction models.Direction, filter stocks.MovementFilter) ([]models.Movement, error) {
	args := m.Called(direction, filter)
	return args.Get(0).([]models.Movement), args.Error(1)
}

type MockAssets struct {
	mock.Mock
}

func (m *MockAssets) List(ctx context.Context, filter assets.AssetFilter) ([]models.AssetView, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.AssetView), args.Error(1)
}

func (m *MockAssets) CategoryOptions(ctx context.Context) ([]models.Option, error) {
	args := m.Called()
	return args.Get(0).([]models.Option), args.Error(1)
}

func (m *MockAssets) AssetBrandOptions(ctx context.Context) ([]models.Option, error) {
	args := m.Called()
	return args.Get(0).([]models.Option), args.Error(1)
}

type MockDamage struct {
	mock.Mock
}

func (m *MockDamage) Get(ctx context.Context, id int) (*models.DamageReportView, error) {
	args := m.Called(id)
	report, _ := args.Get(0).(*models.DamageReportView)
	return report, args.Error(1)
}

type mocks struct {
	items     *MockItems
	contracts *MockContracts
	movements *MockMovements
	assets    *MockAssets
	damage    *MockDamage
}

func setupHandler(role roles.Role) (http.Handler, *mocks) {
	m := &mocks{
		items:     new(MockItems),
		contracts: new(MockContracts),
		movements: new(MockMovements),
		assets:    new(MockAssets),
		damage:    new(MockDamage),
	}
	h := NewReportHandler(Sources{
		Items:     m.items,
		Catalog:   m.items,
		Contracts: m.contracts,
		Movements: m.movements,
		Assets:    m.assets,
		Damage:    m.damage,
	}, Letterhead{Name: "University Library"}, zap.NewNop())
	h.now = func() time.Time { return generatedAt }

	router := webtest.SetupTestRouter(role)
	h.RegisterRoutes(router)
	return router, m
}

func TestReportIndex(t *testing.T) {
	router, _ := setupHandler(roles.Viewer)

	w := webtest.Get(router, "/reports")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/reports/stock-out/pdf"`)
	assert.Contains(t, w.Body.String(), `href="/reports/assets"`)
}

func TestItemsReportPage(t *testing.T) {
	router, m := setupHandler(roles.Viewer)
	m.items.On("List", items.ItemFilter{CategoryID: 2, Status: "low"}).Return(sampleItems()[:1], nil)
	m.items.On("CategoryOptions").Return([]models.Option{{ID: 2, Label: "Stationery"}}, nil)
	m.items.On("BrandOptions").Return([]models.Option{}, nil)

	w := webtest.Get(router, "/reports/items?category=2&status=low&q=ignored")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ITEM STOCK REPORT")
	assert.Contains(t, body, "ATK-01")
	assert.Contains(t, body, `href="/reports/items/excel?category=2&amp;status=low&amp;q=ignored"`)
	assert.Contains(t, body, "<td>TOTAL</td>")
	m.items.AssertExpectations(t)
}

func TestItemsReportExcel(t *testing.T) {
	router, m := setupHandler(roles.Viewer)
	m.items.On("List", items.ItemFilter{CategoryID: 2}).Return(sampleItems(), nil)
	m.items.On("CategoryOptions").Return([]models.Option{{ID: 2, Label: "Stationery"}}, nil)
	m.items.On("BrandOptions").Return([]models.Option{}, nil)

	w := webtest.Get(router, "/reports/items/excel?category=2")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, excelContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Item_Report_20240630_140509.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	label, _ := f.GetCellValue(sheetName, "A4")
	value, _ := f.GetCellValue(sheetName, "B4")
	assert.Equal(t, "Category", label)
	assert.Equal(t, "Stationery", value)
}

func TestContractsReportFilters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  contracts.ContractFilter
	}{
		{"year and month", "?year=2024&month=3", contracts.ContractFilter{Year: 2024, Month: 3}},
		{"month without year", "?month=3", contracts.ContractFilter{}},
		{"search is ignored", "?q=SPK&year=2023", contracts.ContractFilter{Year: 2023}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupHandler(roles.Viewer)
			m.contracts.On("List", tt.want).Return([]models.ContractSummary{}, nil)

			w := webtest.Get(router, "/reports/contracts"+tt.query)

			assert.Equal(t, http.StatusOK, w.Code)
			m.contracts.AssertExpectations(t)
		})
	}
}

func TestStockOutReportPDF(t *testing.T) {
	router, m := setupHandler(roles.Viewer)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m.movements.On("List", models.StockOut, stocks.MovementFilter{Search: "ATK", From: &from}).Return([]models.Movement{
		{Date: from, ItemCode: "ATK-01", ItemName: "HVS paper", Quantity: 3, ItemUnit: "ream"},
	}, nil)

	w := webtest.Get(router, "/reports/stock-out/pdf?q=ATK&from=2024-06-01&to=nonsense")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Stock_Out_Report_20240630_140509.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	m.movements.AssertExpectations(t)
}

func TestAssetsReportFailure(t *testing.T) {
	router, m := setupHandler(roles.Viewer)
	m.assets.On("List", assets.AssetFilter{AssetBrandID: 3}).Return([]models.AssetView(nil), errors.New("connection refused"))

	w := webtest.Get(router, "/reports/assets/excel?asset_brand=3")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDamageLetterRoute(t *testing.T) {
	router, m := setupHandler(roles.Viewer)
	m.damage.On("Get", 7).Return(&models.DamageReportView{
		DamageReport: models.DamageReport{ID: 7, UserName: "Andi", Location: "Lobby", Quantity: 1, Damage: "Broken hinge", Status: "draft", CreatedAt: generatedAt},
		AssetCode:    "AST-7",
		AssetName:    "Cabinet",
	}, nil)
	m.damage.On("Get", 8).Return(nil, custom_error.ErrNotFound)

	w := webtest.Get(router, "/damage-reports/7/letter")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Damage_Report_AST-7_20240630_140509.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = webtest.Get(router, "/damage-reports/8/letter")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportsForbidAnonymous(t *testing.T) {
	router, _ := setupHandler("")

	w := webtest.Get(router, "/reports/items/excel")

	assert.Equal(t, http.StatusForbidden, w.Code)
}
