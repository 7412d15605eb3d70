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

type BrandStore interface {
	List(ctx context.Context, search string) ([]models.Brand, error)
	Get(ctx context.Context, id int) (*models.Brand, error)
	NameExists(ctx context.Context, name string, excludeID int) (bool, error)
	Create(ctx context.Context, brand *models.Brand) error
	Update(ctx context.Context, brand *models.Brand) error
	CountDependents(ctx context.Context, id int) (int, error)
	Delete(ctx context.Context, id int) error
}

// BrandHandler manages brands of consumable items.
type BrandHandler struct {
	repository BrandStore
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
}

func NewBrandHandler(r BrandStore, a *auditlog.Auditlog, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{repository: r, auditLog: a, logger: logger}
}

func (h *BrandHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/brands", security.Authorize(roles.Viewer), h.ListBrands)
	router.GET("/brands/add", security.Authorize(roles.Staff), h.NewBrand)
	router.POST("/brands/add", security.Authorize(roles.Staff), h.CreateBrand)
	router.GET("/brands/:id/edit", security.Authorize(roles.Staff), h.EditBrand)
	router.POST("/brands/:id/edit", security.Authorize(roles.Staff), h.UpdateBrand)
	router.POST("/brands/:id/delete", security.Authorize(roles.Staff), h.RemoveBrand)
}

type brandRequest struct {
	Name string `form:"name" binding:"required,min=2,max=100"`
	Type string `form:"type" binding:"max=100"`
	Spec string `form:"spec" binding:"max=500"`
}

func (h *BrandHandler) ListBrands(c *gin.Context) {
	search := c.Query("q")
	brands, err := h.repository.List(c.Request.Context(), search)
	if err != nil {
		h.logger.Error("Could not list brands", zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Name", "Type", "Specification", "Items"},
		Empty:   "No brands yet.",
	}
	for _, brand := range brands {
		row := web.Row{Cells: []web.Cell{
			{Text: brand.Name},
			{Text: web.Dash(brand.Type)},
			{Text: web.Dash(brand.Spec)},
			{Text: strconv.Itoa(brand.ItemCount), URL: fmt.Sprintf("/items?brand=%d", brand.ID)},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.EditAction(fmt.Sprintf("/brands/%d/edit", brand.ID)),
				web.DeleteAction(fmt.Sprintf("/brands/%d/delete", brand.ID), "Delete brand "+brand.Name+"?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}

	view := web.ListView{
		Heading: "Brands",
		Filters: []web.Field{{Name: "q", Label: "Search", Type: "text", Value: search}},
		Table:   table,
	}
	if canEdit {
		view.AddURL = "/brands/add"
	}
	web.Render(c, http.StatusOK, "list.html", "Brands", view)
}

func (h *BrandHandler) NewBrand(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &models.Brand{}, nil)
}

func (h *BrandHandler) CreateBrand(c *gin.Context) {
	brand, errs, err := h.bind(c, 0)
	if err != nil {
		h.logger.Error("Could not check brand name", zap.Error(err))
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

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", "Created brand "+brand.Name, brand, brand)
	web.Success(c, "Brand "+brand.Name+" was added.")
	web.Redirect(c, "/brands")
}

func (h *BrandHandler) EditBrand(c *gin.Context) {
	brand, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, brand, nil)
}

func (h *BrandHandler) UpdateBrand(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}

	brand, errs, err := h.bind(c, existing.ID)
	if err != nil {
		h.logger.Error("Could not check brand name", zap.Error(err))
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

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", "Updated brand "+brand.Name, brand, brand)
	web.Success(c, "Brand "+brand.Name+" was updated.")
	web.Redirect(c, "/brands")
}

func (h *BrandHandler) RemoveBrand(c *gin.Context) {
	brand, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	dependents, err := h.repository.CountDependents(ctx, brand.ID)
	if err != nil {
		h.logger.Error("Could not count brand items", zap.Int("brand_id", brand.ID), zap.Error(err))
		web.ServerError(c)
		return
	}
	if dependents == 0 {
		err = h.repository.Delete(ctx, brand.ID)
	}

	switch {
	case dependents > 0 || custom_error.IsForeignKeyViolation(err):
		web.Danger(c, fmt.Sprintf("Brand %s cannot be deleted because items still use it.", brand.Name))
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Brand")
		return
	case err != nil:
		h.logger.Error("Could not delete brand", zap.Int("brand_id", brand.ID), zap.Error(err))
		web.ServerError(c)
		return
	default:
		h.auditLog.Log(ctx, security.Actor(c), "delete", "Deleted brand "+brand.Name, brand, brand)
		web.Success(c, "Brand "+brand.Name+" was deleted.")
	}
	web.Redirect(c, "/brands")
}

func (h *BrandHandler) load(c *gin.Context) (*models.Brand, bool) {
	id, ok := web.ParamID(c, "id", "Brand")
	if !ok {
		return nil, false
	}
	brand, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Brand")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load brand", zap.Int("brand_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return brand, true
}

func (h *BrandHandler) bind(c *gin.Context, excludeID int) (*models.Brand, validation.Errors, error) {
	var req brandRequest
	errs := validation.FromBinding(c.ShouldBind(&req))

	brand := &models.Brand{
		Name: strings.TrimSpace(req.Name),
		Type: validation.OptionalString(req.Type),
		Spec: validation.OptionalString(req.Spec),
	}
	if err := checkName(c.Request.Context(), &errs, brand.Name, excludeID, h.repository.NameExists); err != nil {
		return brand, nil, err
	}
	return brand, errs, nil
}

func (h *BrandHandler) writeFailed(c *gin.Context, brand *models.Brand, err error) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Brand")
	case custom_error.IsUniqueViolation(err):
		h.renderForm(c, http.StatusConflict, brand, raceError())
	default:
		h.logger.Error("Could not save brand", zap.String("name", brand.Name), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *BrandHandler) renderForm(c *gin.Context, status int, brand *models.Brand, errs validation.Errors) {
	form := web.FormView{
		Heading: "Add brand",
		Action:  "/brands/add",
		Submit:  "Save",
		Cancel:  "/brands",
		Fields: []web.Field{
			web.TextField("name", "Name", brand.Name, true),
			web.TextField("type", "Type", web.Str(brand.Type), false),
			web.TextArea("spec", "Specification", web.Str(brand.Spec)),
		},
	}
	if brand.ID > 0 {
		form.Heading = "Edit brand"
		form.Action = fmt.Sprintf("/brands/%d/edit", brand.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}

type nameLookup func(ctx context.Context, name string, excludeID int) (bool, error)

// checkName records a required or duplicate name on errs.
func checkName(ctx context.Context, errs *validation.Errors, name string, excludeID int, exists nameLookup) error {
	if errs.Has("name") {
		return nil
	}
	if name == "" {
		errs.Add("name", "This field is required.")
		return nil
	}
	taken, err := exists(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("name", "This name is already used.")
	}
	return nil
}

func raceError() validation.Errors {
	errs := validation.Errors{}
	errs.Add(validation.FormError, "Another record with the same name was saved at the same time. Please check and submit again.")
	return errs
}
