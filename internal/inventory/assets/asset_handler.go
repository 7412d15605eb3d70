package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

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
	List(ctx context.Context, filter AssetFilter) ([]models.AssetView, error)
	Get(ctx context.Context, id int) (*models.AssetView, error)
	CodeExists(ctx context.Context, code string, excludeID int) (bool, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, id int) error
	CategoryOptions(ctx context.Context) ([]models.Option, error)
	AssetBrandOptions(ctx context.Context) ([]models.Option, error)
	DamageReports(ctx context.Context, assetID int) ([]models.DamageReportView, error)
	AssignedTo(ctx context.Context, name string) ([]models.AssignedAsset, error)
}

type AssetHandler struct {
	repository Repository
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
}

func NewAssetHandler(r Repository, a *auditlog.Auditlog, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{
		repository: r,
		auditLog:   a,
		logger:     logger,
	}
}

func (h *AssetHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/assets", security.Authorize(roles.Viewer), h.ListAssets)
	router.GET("/assets/add", security.Authorize(roles.Staff), h.NewAsset)
	router.POST("/assets/add", security.Authorize(roles.Staff), h.CreateAsset)
	router.GET("/assets/:id", security.Authorize(roles.Viewer), h.GetAsset)
	router.GET("/assets/:id/edit", security.Authorize(roles.Staff), h.EditAsset)
	router.POST("/assets/:id/edit", security.Authorize(roles.Staff), h.UpdateAsset)
	router.POST("/assets/:id/delete", security.Authorize(roles.Staff), h.RemoveAsset)
}

func (h *AssetHandler) ListAssets(c *gin.Context) {
	ctx := c.Request.Context()
	var query ListQuery
	_ = c.ShouldBindQuery(&query)

	assets, err := h.repository.List(ctx, query.Filter())
	if err != nil {
		h.logger.Error("Could not list assets", zap.Error(err))
		web.ServerError(c)
		return
	}
	categories, brands, err := h.options(ctx)
	if err != nil {
		h.logger.Error("Could not load asset filter options", zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Code", "Name", "Category", "Asset type", "Location", "User", "Units", "Damage reports"},
		Empty:   "No assets match the filters.",
	}
	for _, asset := range assets {
		row := web.Row{Cells: []web.Cell{
			{Text: asset.Code, URL: fmt.Sprintf("/assets/%d", asset.ID)},
			{Text: asset.Name},
			{Text: web.Dash(asset.CategoryName)},
			{Text: web.Dash(asset.AssetBrandName)},
			{Text: web.Dash(asset.Location)},
			{Text: web.Dash(asset.UserName)},
			{Text: strconv.Itoa(asset.UnitCount)},
			{Text: strconv.Itoa(asset.DamageReports)},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.EditAction(fmt.Sprintf("/assets/%d/edit", asset.ID)),
				web.DeleteAction(fmt.Sprintf("/assets/%d/delete", asset.ID), "Delete asset "+asset.Code+" and its damage reports?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}

	view := web.ListView{
		Heading: "Fixed assets",
		Filters: []web.Field{
			{Name: "q", Label: "Code, name, user or location", Type: "text", Value: query.Search},
			web.SelectField("category", "Category", web.IDOptions(categories, query.CategoryID, "All categories"), false),
			web.SelectField("asset_brand", "Asset type", web.IDOptions(brands, query.AssetBrandID, "All types"), false),
		},
		Exports: []web.Action{
			{Label: "Report", URL: web.WithQuery(c, "/reports/assets")},
		},
		Table: table,
	}
	if canEdit {
		view.AddURL = "/assets/add"
	}
	web.Render(c, http.StatusOK, "list.html", "Fixed assets", view)
}

func (h *AssetHandler) GetAsset(c *gin.Context) {
	asset, ok := h.load(c)
	if !ok {
		return
	}

	reports, err := h.repository.DamageReports(c.Request.Context(), asset.ID)
	if err != nil {
		h.logger.Error("Could not load damage reports", zap.Int("asset_id", asset.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	view := web.DetailView{
		Heading: asset.Code + " " + asset.Name,
		Stats: []web.Stat{
			{Label: "Units", Value: strconv.Itoa(asset.UnitCount)},
			{Label: "Damage reports", Value: strconv.Itoa(len(reports))},
		},
		Pairs: []web.Pair{
			{Label: "Code", Value: asset.Code},
			{Label: "Name", Value: asset.Name},
			{Label: "Category", Value: web.Dash(asset.CategoryName)},
			{Label: "Asset type", Value: web.Dash(asset.AssetBrandName)},
			{Label: "Unit", Value: web.Dash(asset.Unit)},
			{Label: "Contract", Value: web.Dash(asset.ContractNumber)},
			{Label: "Contract date", Value: web.FormatDatePtr(asset.ContractDate)},
			{Label: "Location", Value: web.Dash(asset.Location)},
			{Label: "User", Value: web.Dash(asset.UserName)},
			{Label: "Specification", Value: web.Dash(asset.Spec)},
		},
	}
	if roles.Role(c.GetString("role")).HasPermission(roles.Staff) {
		view.Actions = []web.Action{
			web.EditAction(fmt.Sprintf("/assets/%d/edit", asset.ID)),
			{Label: "Report damage", URL: fmt.Sprintf("/damage-reports/add?asset=%d", asset.ID)},
			web.DeleteAction(fmt.Sprintf("/assets/%d/delete", asset.ID), "Delete asset "+asset.Code+" and its damage reports?"),
		}
	}

	table := web.Table{
		Columns: []string{"Discovered", "Damage", "Quantity", "Reported by", "Status"},
		Empty:   "No damage reported.",
	}
	for _, report := range reports {
		status := report.DamageStatus()
		reporter := "Public form"
		if report.ReporterName != nil {
			reporter = *report.ReporterName
		}
		table.Rows = append(table.Rows, web.Row{Cells: []web.Cell{
			{Text: web.FormatDate(report.DiscoveredOn), URL: fmt.Sprintf("/damage-reports/%d", report.ID)},
			{Text: report.Damage},
			{Text: strconv.Itoa(report.Quantity)},
			{Text: reporter},
			{Text: status.Label(), Badge: status.String()},
		}})
	}
	view.Sections = []web.Section{{Heading: "Damage reports", Table: table}}

	web.Render(c, http.StatusOK, "detail.html", view.Heading, view)
}

func (h *AssetHandler) NewAsset(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &models.Asset{UnitCount: 1}, nil)
}

func (h *AssetHandler) CreateAsset(c *gin.Context) {
	asset, errs, err := h.bind(c, 0)
	if err != nil {
		h.logger.Error("Could not check asset code", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, asset, errs)
		return
	}

	if err := h.repository.Create(c.Request.Context(), asset); err != nil {
		h.writeFailed(c, asset, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", "Created asset "+asset.Code+" "+asset.Name, asset, asset)
	web.Success(c, "Asset "+asset.Name+" was added.")
	web.Redirect(c, fmt.Sprintf("/assets/%d", asset.ID))
}

func (h *AssetHandler) EditAsset(c *gin.Context) {
	asset, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, &asset.Asset, nil)
}

func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}

	asset, errs, err := h.bind(c, existing.ID)
	if err != nil {
		h.logger.Error("Could not check asset code", zap.Error(err))
		web.ServerError(c)
		return
	}
	asset.ID = existing.ID
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, asset, errs)
		return
	}

	if err := h.repository.Update(c.Request.Context(), asset); err != nil {
		h.writeFailed(c, asset, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", "Updated asset "+asset.Code+" "+asset.Name,
		map[string]interface{}{"previous_user_name": existing.UserName, "asset": asset}, asset)
	web.Success(c, "Asset "+asset.Name+" was updated.")
	web.Redirect(c, fmt.Sprintf("/assets/%d", asset.ID))
}

func (h *AssetHandler) RemoveAsset(c *gin.Context) {
	asset, ok := h.load(c)
	if !ok {
		return
	}

	err := h.repository.Delete(c.Request.Context(), asset.ID)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Asset")
		return
	}
	if err != nil {
		h.logger.Error("Could not delete asset", zap.Int("asset_id", asset.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "delete", "Deleted asset "+asset.Code+" "+asset.Name, asset.Asset, &asset.Asset)
	web.Success(c, "Asset "+asset.Name+" was deleted.")
	web.Redirect(c, "/assets")
}

func (h *AssetHandler) load(c *gin.Context) (*models.AssetView, bool) {
	id, ok := web.ParamID(c, "id", "Asset")
	if !ok {
		return nil, false
	}
	asset, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Asset")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load asset", zap.Int("asset_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return asset, true
}

func (h *AssetHandler) bind(c *gin.Context, excludeID int) (*models.Asset, validation.Errors, error) {
	var req assetRequest
	errs := validation.FromBinding(c.ShouldBind(&req))
	asset := req.toAsset(&errs)

	if !errs.Has("code") {
		if asset.Code == "" {
			errs.Add("code", "This field is required.")
		} else {
			exists, err := h.repository.CodeExists(c.Request.Context(), asset.Code, excludeID)
			if err != nil {
				return asset, nil, err
			}
			if exists {
				errs.Add("code", "Asset code "+asset.Code+" is already used.")
			}
		}
	}
	return asset, errs, nil
}

func (h *AssetHandler) writeFailed(c *gin.Context, asset *models.Asset, err error) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Asset")
	case custom_error.IsUniqueViolation(err):
		errs := validation.Errors{}
		errs.Add(validation.FormError, "Another asset with the same code was saved at the same time. Please check and submit again.")
		h.renderForm(c, http.StatusConflict, asset, errs)
	case custom_error.IsForeignKeyViolation(err):
		errs := validation.Errors{}
		errs.Add(validation.FormError, "The selected category or asset type no longer exists.")
		h.renderForm(c, http.StatusUnprocessableEntity, asset, errs)
	default:
		h.logger.Error("Could not save asset", zap.String("code", asset.Code), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *AssetHandler) renderForm(c *gin.Context, status int, asset *models.Asset, errs validation.Errors) {
	categories, brands, err := h.options(c.Request.Context())
	if err != nil {
		h.logger.Error("Could not load asset form options", zap.Error(err))
		web.ServerError(c)
		return
	}

	form := web.FormView{
		Heading: "Add asset",
		Action:  "/assets/add",
		Submit:  "Save",
		Cancel:  "/assets",
		Fields: []web.Field{
			web.TextField("code", "Code", asset.Code, true),
			web.TextField("name", "Name", asset.Name, true),
			web.SelectField("category_id", "Category", web.IDOptions(categories, web.IDString(asset.CategoryID), "-- none --"), false),
			web.SelectField("asset_brand_id", "Asset type", web.IDOptions(brands, web.IDString(asset.AssetBrandID), "-- none --"), false),
			web.TextField("contract_number", "Contract number", web.Str(asset.ContractNumber), false),
			web.DateField("contract_date", "Contract date", web.FormatDatePtr(asset.ContractDate), false),
			web.TextField("location", "Location", web.Str(asset.Location), false),
			web.TextField("user_name", "User", web.Str(asset.UserName), false),
			web.NumberField("unit_count", "Units", asset.UnitCount, false),
			web.TextField("unit", "Unit", web.Str(asset.Unit), false),
			web.TextArea("spec", "Specification", web.Str(asset.Spec)),
		},
	}
	if asset.ID > 0 {
		form.Heading = "Edit asset"
		form.Action = fmt.Sprintf("/assets/%d/edit", asset.ID)
		form.Cancel = fmt.Sprintf("/assets/%d", asset.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}

func (h *AssetHandler) options(ctx context.Context) ([]models.Option, []models.Option, error) {
	categories, err := h.repository.CategoryOptions(ctx)
	if err != nil {
		return nil, nil, err
	}
	brands, err := h.repository.AssetBrandOptions(ctx)
	if err != nil {
		return nil, nil, err
	}
	return categories, brands, nil
}
