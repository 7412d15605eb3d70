package category

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

type Repository interface {
	List(ctx context.Context, search string) ([]models.Category, error)
	Get(ctx context.Context, id int) (*models.Category, error)
	NameExists(ctx context.Context, name string, excludeID int) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	CountDependents(ctx context.Context, id int) (int, error)
	Delete(ctx context.Context, id int) error
}

type CategoryHandler struct {
	repository Repository
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
}

func NewCategoryHandler(r Repository, a *auditlog.Auditlog, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		repository: r,
		auditLog:   a,
		logger:     logger,
	}
}

func (h *CategoryHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/categories", security.Authorize(roles.Viewer), h.ListCategories)
	router.GET("/categories/add", security.Authorize(roles.Staff), h.NewCategory)
	router.POST("/categories/add", security.Authorize(roles.Staff), h.CreateCategory)
	router.GET("/categories/:id/edit", security.Authorize(roles.Staff), h.EditCategory)
	router.POST("/categories/:id/edit", security.Authorize(roles.Staff), h.UpdateCategory)
	router.POST("/categories/:id/delete", security.Authorize(roles.Staff), h.RemoveCategory)
}

type categoryRequest struct {
	Name        string `form:"name" binding:"required,max=100"`
	Description string `form:"description" binding:"max=1000"`
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	search := c.Query("q")
	categories, err := h.repository.List(c.Request.Context(), search)
	if err != nil {
		h.logger.Error("Could not list categories", zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Name", "Description", "Items", "Assets"},
		Empty:   "No categories yet.",
	}
	for _, category := range categories {
		row := web.Row{Cells: []web.Cell{
			{Text: category.Name},
			{Text: web.Dash(category.Description)},
			{Text: strconv.Itoa(category.ItemCount), URL: fmt.Sprintf("/items?category=%d", category.ID)},
			{Text: strconv.Itoa(category.AssetCount), URL: fmt.Sprintf("/assets?category=%d", category.ID)},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.EditAction(fmt.Sprintf("/categories/%d/edit", category.ID)),
				web.DeleteAction(fmt.Sprintf("/categories/%d/delete", category.ID), "Delete category "+category.Name+"?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}

	view := web.ListView{
		Heading: "Categories",
		Filters: []web.Field{{Name: "q", Label: "Search", Type: "text", Value: search}},
		Table:   table,
	}
	if canEdit {
		view.AddURL = "/categories/add"
	}
	web.Render(c, http.StatusOK, "list.html", "Categories", view)
}

func (h *CategoryHandler) NewCategory(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &models.Category{}, nil)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	category, errs, err := h.bind(c, 0)
	if err != nil {
		h.logger.Error("Could not check category name", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, category, errs)
		return
	}

	if err := h.repository.Create(c.Request.Context(), category); err != nil {
		h.writeFailed(c, category, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", "Created category "+category.Name, category, category)
	web.Success(c, "Category "+category.Name+" was added.")
	web.Redirect(c, "/categories")
}

func (h *CategoryHandler) EditCategory(c *gin.Context) {
	category, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, category, nil)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}

	category, errs, err := h.bind(c, existing.ID)
	if err != nil {
		h.logger.Error("Could not check category name", zap.Error(err))
		web.ServerError(c)
		return
	}
	category.ID = existing.ID
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, category, errs)
		return
	}

	if err := h.repository.Update(c.Request.Context(), category); err != nil {
		h.writeFailed(c, category, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", "Updated category "+category.Name, category, category)
	web.Success(c, "Category "+category.Name+" was updated.")
	web.Redirect(c, "/categories")
}

func (h *CategoryHandler) RemoveCategory(c *gin.Context) {
	category, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	dependents, err := h.repository.CountDependents(ctx, category.ID)
	if err != nil {
		h.logger.Error("Could not count category dependents", zap.Int("category_id", category.ID), zap.Error(err))
		web.ServerError(c)
		return
	}
	if dependents > 0 {
		h.deletionBlocked(c, category, dependents)
		return
	}

	err = h.repository.Delete(ctx, category.ID)
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Category")
		return
	case custom_error.IsForeignKeyViolation(err):
		h.deletionBlocked(c, category, 1)
		return
	case err != nil:
		h.logger.Error("Could not delete category", zap.Int("category_id", category.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(ctx, security.Actor(c), "delete", "Deleted category "+category.Name, category, category)
	web.Success(c, "Category "+category.Name+" was deleted.")
	web.Redirect(c, "/categories")
}

func (h *CategoryHandler) deletionBlocked(c *gin.Context, category *models.Category, dependents int) {
	blocked := &custom_error.DeletionBlockedError{Resource: "category " + category.Name, Dependents: dependents}
	h.logger.Info("Category deletion refused", zap.Int("category_id", category.ID), zap.String("reason", blocked.Error()))
	web.Danger(c, fmt.Sprintf("Category %s cannot be deleted because items or assets still use it.", category.Name))
	web.Redirect(c, "/categories")
}

func (h *CategoryHandler) load(c *gin.Context) (*models.Category, bool) {
	id, ok := web.ParamID(c, "id", "Category")
	if !ok {
		return nil, false
	}
	category, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Category")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load category", zap.Int("category_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return category, true
}

// bind reads the form and checks the name against other categories.
func (h *CategoryHandler) bind(c *gin.Context, excludeID int) (*models.Category, validation.Errors, error) {
	var req categoryRequest
	errs := validation.FromBinding(c.ShouldBind(&req))

	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: validation.OptionalString(req.Description),
	}
	if !errs.Has("name") && category.Name == "" {
		errs.Add("name", "This field is required.")
	}

	if !errs.Has("name") {
		exists, err := h.repository.NameExists(c.Request.Context(), category.Name, excludeID)
		if err != nil {
			return category, nil, err
		}
		if exists {
			errs.Add("name", "A category with this name already exists.")
		}
	}
	return category, errs, nil
}

func (h *CategoryHandler) writeFailed(c *gin.Context, category *models.Category, err error) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Category")
	case custom_error.IsUniqueViolation(err):
		errs := validation.Errors{}
		errs.Add(validation.FormError, "Another category with the same name was saved at the same time. Please check and submit again.")
		h.renderForm(c, http.StatusConflict, category, errs)
	default:
		h.logger.Error("Could not save category", zap.String("name", category.Name), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *CategoryHandler) renderForm(c *gin.Context, status int, category *models.Category, errs validation.Errors) {
	form := web.FormView{
		Heading: "Add category",
		Action:  "/categories/add",
		Submit:  "Save",
		Cancel:  "/categories",
		Fields: []web.Field{
			web.TextField("name", "Name", category.Name, true),
			web.TextArea("description", "Description", web.Str(category.Description)),
		},
	}
	if category.ID > 0 {
		form.Heading = "Edit category"
		form.Action = fmt.Sprintf("/categories/%d/edit", category.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}
