package brands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

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

type AssetBrandStore interface {
	List(ctx context.Context, search string) ([]models.AssetBrand, error)
	Get(ctx context.Context, id int) (*models.AssetBrand, error)
	NameExists(ctx context.Context, name string, excludeID int) (bool, error)
	Create(ctx context.Context, brand *models.AssetBrand) error
	Update(ctx context.Context, brand *models.AssetBrand) error
	CountDependents(ctx context.Context, id int) (int, error)
	Delete(ctx context.Context, id int) error
}

// AssetBrandHandler manages brands of fixed assets.
type AssetBrandHandler struct {
	repository AssetBrandStore
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
}

func NewAssetBrandHandler(r AssetBrandStore, a *auditlog.Auditlog, logger *zap.Logger) *AssetBrandHandler {
	return &AssetBrandHandler{repository: r, auditLog: a, logger: logger}
}

func (h *AssetBrandHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/asset-brands", security.Authorize(roles.Viewer), h.ListAssetBrands)
	router.GET("/asset-brands/add", security.Authorize(roles.Staff), h.NewAssetBrand)
	router.POST("/asset-brands/add", security.Authorize(roles.Staff), h.CreateAssetBrand)
	router.GET("/asset-brands/:id/edit", security.Authorize(roles.Staff), h.EditAssetBrand)
	router.POST("/asset-brands/:id/edit", security.Authorize(roles.Staff), h.UpdateAssetBrand)
	router.POST("/asset-brands/:id/delete", security.Authorize(roles.Staff), h.RemoveAssetBrand)
}

type assetBrandRequest struct {
	Name            string `form:"name" binding:"required,min=2,max=100"`
	Type            string `form:"type" binding:"max=100"`
	AcquisitionDate string `form:"acquisition_date"`
	ContractNumber  string `form:"contract_number" binding:"max=100"`
	Spec            string `form:"spec" binding:"max=2000"`
}

func (h *AssetBrandHandler) ListAssetBrands(c *gin.Context) {
	search := c.Query("q")
	brands, err := h.repository.List(c.Request.Context(), search)
	if err != nil {
		h.logger.Error("Could not list asset brands", zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Asset type", "Type", "Acquired", "Contract", "Assets"},
		Empty:   "No asset brands yet.",
	}
	for _, brand := range brands {
		row := web.Row{Cells: []web.Cell{
			{Text: brand.Name},
			{Text: web.Dash(brand.Type)},
			{Text: web.FormatDatePtr(brand.AcquisitionDate)},
			{Text: web.Dash(brand.ContractNumber)},
			{Text: strconv.Itoa(brand.AssetCount), URL: fmt.Sprintf("/assets?asset_brand=%d", brand.ID)},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.EditAction(fmt.Sprintf("/asset-brands/%d/edit", brand.ID)),
				web.DeleteAction(fmt.Sprintf("/asset-brands/%d/delete", brand.ID), "Delete asset brand "+brand.Name+"?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}

	view := web.ListView{
		Heading: "Asset brands",
		Filters: []web.Field{{Name: "q", Label: "Search", Type: "text", Value: search}},
		Table:   table,
	}
	if canEdit {
		view.AddURL = "/asset-brands/add"
	}
	web.Render(c, http.StatusOK, "list.html", "Asset brands", view)
}

func (h *AssetBrandHandler) NewAssetBrand(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &models.AssetBrand{}, nil)
}

func (h *AssetBrandHandler) CreateAssetBrand(c *gin.Context) {
	brand, errs, err := h.bind(c, 0)
	if err != nil {
		h.logger.Error("Could not check asset brand name", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, brand, errs)
		return
	}

	if err := h.repository.Create(c.Request.Context(), brand); err != nil {
		h.writeFailed(c, brand, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", "Created asset brand "+brand.Name, brand, brand)
	web.Success(c, "Asset brand "+brand.Name+" was added.")
	web.Redirect(c, "/asset-brands")
}

func (h *AssetBrandHandler) EditAssetBrand(c *gin.Context) {
	brand, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, brand, nil)
}

func (h *AssetBrandHandler) UpdateAssetBrand(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}

	brand, errs, err := h.bind(c, existing.ID)
	if err != nil {
		h.logger.Error("Could not check asset brand name", zap.Error(err))
		web.ServerError(c)
		return
	}
	brand.ID = existing.ID
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, brand, errs)
		return
	}

	if err := h.repository.Update(c.Request.Context(), brand); err != nil {
		h.writeFailed(c, brand, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", "Updated asset brand "+brand.Name, brand, brand)
	web.Success(c, "Asset brand "+brand.Name+" was updated.")
	web.Redirect(c, "/asset-brands")
}

func (h *AssetBrandHandler) RemoveAssetBrand(c *gin.Context) {
	brand, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	dependents, err := h.repository.CountDependents(ctx, brand.ID)
	if err != nil {
		h.logger.Error("Could not count asset brand assets", zap.Int("asset_brand_id", brand.ID), zap.Error(err))
		web.ServerError(c)
		return
	}
	if dependents == 0 {
		err = h.repository.Delete(ctx, brand.ID)
	}

	switch {
	case dependents > 0 || custom_error.IsForeignKeyViolation(err):
		web.Danger(c, fmt.Sprintf("Asset brand %s cannot be deleted because assets still use it.", brand.Name))
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Asset brand")
		return
	case err != nil:
		h.logger.Error("Could not delete asset brand", zap.Int("asset_brand_id", brand.ID), zap.Error(err))
		web.ServerError(c)
		return
	default:
		h.auditLog.Log(ctx, security.Actor(c), "delete", "Deleted asset brand "+brand.Name, brand, brand)
		web.Success(c, "Asset brand "+brand.Name+" was deleted.")
	}
	web.Redirect(c, "/asset-brands")
}

func (h *AssetBrandHandler) load(c *gin.Context) (*models.AssetBrand, bool) {
	id, ok := web.ParamID(c, "id", "Asset brand")
	if !ok {
		return nil, false
	}
	brand, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Asset brand")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load asset brand", zap.Int("asset_brand_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return brand, true
}

func (h *AssetBrandHandler) bind(c *gin.Context, excludeID int) (*models.AssetBrand, validation.Errors, error) {
	var req assetBrandRequest
	errs := validation.FromBinding(c.ShouldBind(&req))

	brand := &models.AssetBrand{
		Name:           strings.TrimSpace(req.Name),
		Type:           validation.OptionalString(req.Type),
		ContractNumber: validation.OptionalString(req.ContractNumber),
		Spec:           validation.OptionalString(req.Spec),
	}
	brand.AcquisitionDate = validation.OptionalDate(&errs, "acquisition_date", req.AcquisitionDate)

	if err := checkName(c.Request.Context(), &errs, brand.Name, excludeID, h.repository.NameExists); err != nil {
		return brand, nil, err
	}
	return brand, errs, nil
}

func (h *AssetBrandHandler) writeFailed(c *gin.Context, brand *models.AssetBrand, err error) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Asset brand")
	case custom_error.IsUniqueViolation(err):
		h.renderForm(c, http.StatusConflict, brand, raceError())
	default:
		h.logger.Error("Could not save asset brand", zap.String("name", brand.Name), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *AssetBrandHandler) renderForm(c *gin.Context, status int, brand *models.AssetBrand, errs validation.Errors) {
	form := web.FormView{
		Heading: "Add asset brand",
		Action:  "/asset-brands/add",
		Submit:  "Save",
		Cancel:  "/asset-brands",
		Fields: []web.Field{
			web.TextField("name", "Asset type", brand.Name, true),
			web.TextField("type", "Type", web.Str(brand.Type), false),
			web.DateField("acquisition_date", "Acquisition date", web.FormatDatePtr(brand.AcquisitionDate), false),
			web.TextField("contract_number", "Contract number", web.Str(brand.ContractNumber), false),
			web.TextArea("spec", "Specification", web.Str(brand.Spec)),
		},
	}
	if brand.ID > 0 {
		form.Heading = "Edit asset brand"
		form.Action = fmt.Sprintf("/asset-brands/%d/edit", brand.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}
