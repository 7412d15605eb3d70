package damage

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
	"github.com/takdim/inven-go/pkg/metadata"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/validation"
)

type MockDamageRepository struct {
	mock.Mock
}

func (m *MockDamageRepository) List(ctx context.Context, filter ReportFilter) ([]models.DamageReportView, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.DamageReportView), args.Error(1)
}

func (m *MockDamageRepository) Get(ctx context.Context, id int) (*models.DamageReportView, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DamageReportView), args.Error(1)
}

func (m *MockDamageRepository) Create(ctx context.Context, report *models.DamageReport) error {
	args := m.Called(report)
	report.ID = 21
	return args.Error(0)
}

func (m *MockDamageRepository) Update(ctx context.Context, report *models.DamageReport) error {
	return m.Called(report).Error(0)
}

func (m *MockDamageRepository) Delete(ctx context.Context, id int) error {
	return m.Called(id).Error(0)
}

func (m *MockDamageRepository) AssetOptions(ctx context.Context) ([]models.Option, error) {
	args := m.Called()
	return args.Get(0).([]models.Option), args.Error(1)
}

func (m *MockDamageRepository) AssetExists(ctx context.Context, id int) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func setupHandler(role roles.Role) (*MockDamageRepository, *webtest.AuditStore, *gin.Engine) {
	repo := new(MockDamageRepository)
	auditLog, store := webtest.NewAuditLog()
	handler := NewDamageHandler(repo, auditLog, zap.NewNop())
	handler.now = func() time.Time { return time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC) }

	router := webtest.SetupTestRouter(role)
	handler.RegisterRoutes(router)
	handler.RegisterPublicRoutes(router)
	repo.On("AssetOptions").Return([]models.Option{{ID: 3, Label: "AT-01 - Reading desk"}}, nil).Maybe()
	return repo, store, router
}

func reportForm() url.Values {
	return url.Values{
		"asset_id":      {"3"},
		"discovered_on": {"2024-06-28"},
		"user_name":     {"Dana Putri"},
		"location":      {"Room 2"},
		"damage":        {"Broken leg"},
	}
}

func TestToReport(t *testing.T) {
	tests := []struct {
		name     string
		req      reportRequest
		status   string
		quantity int
		errField string
	}{
		{"defaults", reportRequest{AssetID: 3, DiscoveredOn: "2024-06-28", UserName: "A", Location: "B", Damage: "C"}, "draft", 1, ""},
		{"explicit status", reportRequest{AssetID: 3, DiscoveredOn: "2024-06-28", UserName: "A", Location: "B", Damage: "C", Status: "Resolved"}, "resolved", 1, ""},
		{"unknown status", reportRequest{AssetID: 3, DiscoveredOn: "2024-06-28", UserName: "A", Location: "B", Damage: "C", Status: "lost"}, "draft", 1, "status"},
		{"no asset", reportRequest{DiscoveredOn: "2024-06-28", UserName: "A", Location: "B", Damage: "C"}, "draft", 1, "asset_id"},
		{"blank damage", reportRequest{AssetID: 3, DiscoveredOn: "2024-06-28", UserName: "A", Location: "B", Damage: "  "}, "draft", 1, "damage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs validation.Errors
			report := tt.req.toReport(&errs, metadata.DamageDraft)

			assert.Equal(t, tt.status, report.Status)
			assert.Equal(t, tt.quantity, report.Quantity)
			if tt.errField == "" {
				assert.False(t, errs.Any(), errs.Error())
			} else {
				assert.True(t, errs.Has(tt.errField))
			}
		})
	}
}

func TestCreateReportDefaultsToDraft(t *testing.T) {
	repo, store, router := setupHandler(roles.Staff)
	repo.On("AssetExists", 3).Return(true, nil)
	repo.On("Create", mock.MatchedBy(func(r *models.DamageReport) bool {
		return r.Status == "draft" && r.ReporterID != nil && *r.ReporterID == 1 && r.Quantity == 1
	})).Return(nil)

	w := webtest.PostForm(router, "/damage-reports/add", reportForm())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/damage-reports/21", w.Header().Get("Location"))
	assert.Equal(t, []string{"create damage_report"}, store.Actions())
	repo.AssertExpectations(t)
}

func TestPublicReportIsSubmittedWithoutReporter(t *testing.T) {
	repo, store, router := setupHandler("")
	repo.On("AssetExists", 3).Return(true, nil)
	form := reportForm()
	form.Set("status", "resolved")
	form.Set("quantity", "2")
	repo.On("Create", mock.MatchedBy(func(r *models.DamageReport) bool {
		return r.Status == "submitted" && r.ReporterID == nil && r.Quantity == 2
	})).Return(nil)

	w := webtest.PostForm(router, "/report-damage", form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/report-damage", w.Header().Get("Location"))
	assert.NotEmpty(t, webtest.FlashCookie(w))
	require.Len(t, store.Entries, 1)
	assert.Nil(t, store.Entries[0].UserID)
	repo.AssertExpectations(t)
}

func TestPublicReportWithoutAsset(t *testing.T) {
	repo, _, router := setupHandler("")
	form := reportForm()
	form.Del("asset_id")

	w := webtest.PostForm(router, "/report-damage", form)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please select an asset.")
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestPublicReportUnknownAsset(t *testing.T) {
	repo, _, router := setupHandler("")
	repo.On("AssetExists", 3).Return(false, nil)

	w := webtest.PostForm(router, "/report-damage", reportForm())

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please select an asset.")
}

func TestPublicFormDefaults(t *testing.T) {
	_, _, router := setupHandler("")

	w := webtest.Get(router, "/report-damage")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="quantity" value="1"`)
	assert.Contains(t, body, `value="2024-06-30"`)
	assert.NotContains(t, body, `name="status"`)
}

func TestUpdateReportKeepsStatusWhenOmitted(t *testing.T) {
	repo, store, router := setupHandler(roles.Staff)
	reporter := 5
	repo.On("Get", 21).Return(&models.DamageReportView{DamageReport: models.DamageReport{
		ID: 21, AssetID: 3, ReporterID: &reporter, Status: "submitted",
	}}, nil)
	repo.On("AssetExists", 3).Return(true, nil)
	repo.On("Update", mock.MatchedBy(func(r *models.DamageReport) bool {
		return r.ID == 21 && r.Status == "submitted" && *r.ReporterID == 5
	})).Return(nil)

	w := webtest.PostForm(router, "/damage-reports/21/edit", reportForm())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"update damage_report"}, store.Actions())
}

func TestListReportsStatusFilter(t *testing.T) {
	repo, _, router := setupHandler(roles.Viewer)
	repo.On("List", ReportFilter{Status: "resolved"}).Return([]models.DamageReportView{
		{DamageReport: models.DamageReport{ID: 2, Damage: "Cracked screen", Status: "resolved"}, AssetCode: "AT-09"},
	}, nil)

	w := webtest.Get(router, "/damage-reports?status=resolved")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cracked screen")
	assert.Contains(t, w.Body.String(), "/damage-reports/2/letter")
}

func TestRemoveReportNotFound(t *testing.T) {
	repo, _, router := setupHandler(roles.Staff)
	repo.On("Get", 9).Return(nil, custom_error.ErrNotFound)

	w := webtest.PostForm(router, "/damage-reports/9/delete", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
