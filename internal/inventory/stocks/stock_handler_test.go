package stocks

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/web/webtest"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
)

type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) List(ctx context.Context, direction models.Direction, filter MovementFilter) ([]models.Movement, error) {
	args := m.Called(direction, filter)
	return args.Get(0).([]models.Movement), args.Error(1)
}

func (m *MockStockRepository) Get(ctx context.Context, direction models.Direction, id int) (*models.Movement, error) {
	args := m.Called(direction, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movement), args.Error(1)
}

func (m *MockStockRepository) ItemChoices(ctx context.Context) ([]ItemChoice, error) {
	args := m.Called()
	return args.Get(0).([]ItemChoice), args.Error(1)
}

func (m *MockStockRepository) Create(ctx context.Context, movement *models.Movement) error {
	args := m.Called(movement)
	movement.ID = 11
	return args.Error(0)
}

func (m *MockStockRepository) Update(ctx context.Context, previous, movement *models.Movement) error {
	return m.Called(previous, movement).Error(0)
}

func (m *MockStockRepository) Delete(ctx context.Context, direction models.Direction, id int) error {
	return m.Called(direction, id).Error(0)
}

func setupHandler(direction models.Direction, role roles.Role) (*MockStockRepository, *webtest.AuditStore, *gin.Engine) {
	repo := new(MockStockRepository)
	auditLog, store := webtest.NewAuditLog()
	handler := NewStockHandler(direction, repo, auditLog, zap.NewNop())
	handler.now = func() time.Time { return time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC) }

	router := webtest.SetupTestRouter(role)
	handler.RegisterRoutes(router)
	repo.On("ItemChoices").Return([]ItemChoice{{Code: "A1", Name: "Paper", Unit: "ream"}}, nil).Maybe()
	return repo, store, router
}

func movementForm(code, quantity string) url.Values {
	return url.Values{
		"date":      {"2024-06-20"},
		"item_code": {code},
		"quantity":  {quantity},
		"note":      {"  monthly  "},
	}
}

func TestListMovements(t *testing.T) {
	repo, _, router := setupHandler(models.StockIn, roles.Viewer)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.On("List", models.StockIn, MovementFilter{Search: "A", From: &from}).Return([]models.Movement{
		{ID: 1, Date: from, ItemCode: "A1", ItemName: "Paper", Quantity: 50, ItemUnit: "ream"},
		{ID: 2, Date: from, ItemCode: "A2", ItemName: "Toner", Quantity: 3, ItemUnit: "pcs"},
	}, nil)

	w := webtest.Get(router, "/stock-in?q=A&from=2024-06-01&to=junk")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Paper")
	assert.Contains(t, body, "<td>53</td>")
	assert.Contains(t, body, "/reports/stock-in?")
	assert.NotContains(t, body, "/stock-in/add")
}

func TestNewMovementDefaultsToToday(t *testing.T) {
	_, _, router := setupHandler(models.StockOut, roles.Staff)

	w := webtest.Get(router, "/stock-out/add?item=A1")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="2024-06-30"`)
	assert.Contains(t, w.Body.String(), `<option value="A1" selected>A1 - Paper (ream)</option>`)
}

func TestCreateStockIn(t *testing.T) {
	repo, store, router := setupHandler(models.StockIn, roles.Staff)
	repo.On("Create", mock.MatchedBy(func(m *models.Movement) bool {
		return m.ItemCode == "A1" && m.Quantity == 50 && *m.Note == "monthly" &&
			m.Direction == models.StockIn && m.Date.Equal(time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC))
	})).Return(nil)

	w := webtest.PostForm(router, "/stock-in/add", movementForm("A1", "50"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/stock-in", w.Header().Get("Location"))
	assert.Equal(t, []string{"create stock_in"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestCreateMovementValidation(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{"zero quantity", movementForm("A1", "0"), "Must be at least 1."},
		{"missing item", movementForm("", "5"), "This field is required."},
		{"bad date", url.Values{"date": {"20/06/2024"}, "item_code": {"A1"}, "quantity": {"5"}}, "Must be a date in the form YYYY-MM-DD."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store, router := setupHandler(models.StockIn, roles.Staff)

			w := webtest.PostForm(router, "/stock-in/add", tt.form)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Empty(t, store.Entries)
			repo.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestCreateStockOutInsufficient(t *testing.T) {
	repo, store, router := setupHandler(models.StockOut, roles.Staff)
	repo.On("Create", mock.Anything).Return(&custom_error.InsufficientStockError{ItemCode: "A1", Available: 30, Requested: 31})

	w := webtest.PostForm(router, "/stock-out/add", movementForm("A1", "31"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock: only 30 available.")
	assert.Empty(t, store.Entries)
}

func TestCreateMovementUnknownItem(t *testing.T) {
	repo, _, router := setupHandler(models.StockIn, roles.Staff)
	repo.On("Create", mock.Anything).Return(ErrUnknownItem)

	w := webtest.PostForm(router, "/stock-in/add", movementForm("ZZ", "5"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "No item has this code.")
}

func TestUpdateStockOut(t *testing.T) {
	repo, store, router := setupHandler(models.StockOut, roles.Staff)
	previous := &models.Movement{ID: 4, ItemCode: "A1", Quantity: 20, Direction: models.StockOut}
	repo.On("Get", models.StockOut, 4).Return(previous, nil)
	repo.On("Update", previous, mock.MatchedBy(func(m *models.Movement) bool {
		return m.ID == 4 && m.Quantity == 25
	})).Return(nil)

	w := webtest.PostForm(router, "/stock-out/4/edit", movementForm("A1", "25"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/stock-out", w.Header().Get("Location"))
	assert.Equal(t, []string{"update stock_out"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestEditMovementNotFound(t *testing.T) {
	repo, _, router := setupHandler(models.StockIn, roles.Staff)
	repo.On("Get", models.StockIn, 9).Return(nil, custom_error.ErrNotFound)

	w := webtest.Get(router, "/stock-in/9/edit")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveMovement(t *testing.T) {
	repo, store, router := setupHandler(models.StockIn, roles.Staff)
	repo.On("Get", models.StockIn, 4).Return(&models.Movement{ID: 4, ItemCode: "A1", Quantity: 5, Direction: models.StockIn}, nil)
	repo.On("Delete", models.StockIn, 4).Return(nil)

	w := webtest.PostForm(router, "/stock-in/4/delete", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"delete stock_in"}, store.Actions())
}

func TestViewerCannotRecordStock(t *testing.T) {
	_, _, router := setupHandler(models.StockOut, roles.Viewer)

	w := webtest.PostForm(router, "/stock-out/add", movementForm("A1", "1"))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckAvailable(t *testing.T) {
	m := &models.Movement{ItemCode: "A1", Quantity: 31}

	err := checkAvailable(m, 30)

	var insufficient *custom_error.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 30, insufficient.Available)
	assert.Equal(t, 31, insufficient.Requested)
	assert.NoError(t, checkAvailable(m, 31))
}
