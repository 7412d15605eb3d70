package items

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
	"github.com/takdim/inven-go/pkg/stock"
	"github.com/takdim/inven-go/pkg/validation"
)

type ItemHandler struct {
	repository Repository
	service    *ItemService
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
}

func NewItemHandler(r Repository, s *ItemService, a *auditlog.Auditlog, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		repository: r,
		service:    s,
		auditLog:   a,
		logger:     logger,
	}
}

func (h *ItemHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/items", security.Authorize(roles.Viewer), h.ListItems)
	router.GET("/items/add", security.Authorize(roles.Staff), h.NewItem)
	router.POST("/items/add", security.Authorize(roles.Staff), h.CreateItem)
	router.GET("/items/:id", security.Authorize(roles.Viewer), h.GetItem)
	router.GET("/items/:id/edit", security.Authorize(roles.Staff), h.EditItem)
	router.POST("/items/:id/edit", security.Authorize(roles.Staff), h.UpdateItem)
	router.POST("/items/:id/delete", security.Authorize(roles.Staff), h.RemoveItem)
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	var query ListQuery
	_ = c.ShouldBindQuery(&query)

	items, err := h.service.List(ctx, query.Filter())
	if err != nil {
		h.logger.Error("Could not list items", zap.Error(err))
		web.ServerError(c)
		return
	}
	categories, brands, err := h.options(ctx)
	if err != nil {
		h.logger.Error("Could not load item filter options", zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Code", "Name", "Kind", "Category", "Brand", "Unit", "Opening", "In", "Out", "Ending", "Status"},
		Empty:   "No items match the filters.",
	}
	for _, item := range items {
		status := item.Status()
		row := web.Row{Cells: []web.Cell{
			{Text: item.Code, URL: fmt.Sprintf("/items/%d", item.ID)},
			{Text: item.Name},
			{Text: item.Kind},
			{Text: web.Dash(item.CategoryName)},
			{Text: web.Dash(item.BrandName)},
			{Text: item.Unit},
			{Text: strconv.Itoa(item.OpeningStock)},
			{Text: strconv.Itoa(item.TotalIn)},
			{Text: strconv.Itoa(item.TotalOut)},
			{Text: strconv.Itoa(item.Ending())},
			{Text: status.Label(), Badge: status.String()},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.EditAction(fmt.Sprintf("/items/%d/edit", item.ID)),
				web.DeleteAction(fmt.Sprintf("/items/%d/delete", item.ID), "Delete item "+item.Code+" and its stock history?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}

	view := web.ListView{
		Heading: "Items",
		Filters: []web.Field{
			{Name: "q", Label: "Code or name", Type: "text", Value: query.Search},
			web.SelectField("category", "Category", web.IDOptions(categories, query.CategoryID, "All categories"), false),
			web.SelectField("brand", "Brand", web.IDOptions(brands, query.BrandID, "All brands"), false),
			web.SelectField("kind", "Kind", kindOptions(query.Kind, "All kinds"), false),
			web.SelectField("status", "Status", statusOptions(query.Status), false),
		},
		Exports: []web.Action{
			{Label: "Report", URL: web.WithQuery(c, "/reports/items")},
		},
		Table: table,
	}
	if canEdit {
		view.AddURL = "/items/add"
	}
	web.Render(c, http.StatusOK, "list.html", "Items", view)
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := web.ParamID(c, "id", "Item")
	if !ok {
		return
	}

	detail, err := h.service.Detail(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Item")
		return
	}
	if err != nil {
		h.logger.Error("Could not load item detail", zap.Int("item_id", id), zap.Error(err))
		web.ServerError(c)
		return
	}

	web.Render(c, http.StatusOK, "detail.html", detail.Item.Name, h.detailView(c, detail))
}

func (h *ItemHandler) detailView(c *gin.Context, detail *ItemDetail) web.DetailView {
	item := detail.Item
	status := item.Status()

	view := web.DetailView{
		Heading: item.Code + " " + item.Name,
		Stats: []web.Stat{
			{Label: "Ending stock (" + item.Unit + ")", Value: strconv.Itoa(item.Ending())},
			{Label: "Status", Value: status.Label(), Badge: status.String()},
			{Label: "Total in", Value: strconv.Itoa(item.TotalIn)},
			{Label: "Total out", Value: strconv.Itoa(item.TotalOut)},
		},
		Pairs: []web.Pair{
			{Label: "Code", Value: item.Code},
			{Label: "Name", Value: item.Name},
			{Label: "Kind", Value: item.Kind},
			{Label: "Category", Value: web.Dash(item.CategoryName)},
			{Label: "Brand", Value: web.Dash(item.BrandName)},
			{Label: "Unit", Value: item.Unit},
			{Label: "Secondary unit", Value: web.Dash(item.SecondaryUnit)},
			{Label: "Opening stock", Value: strconv.Itoa(item.OpeningStock)},
			{Label: "Minimum stock", Value: strconv.Itoa(item.MinimumStock)},
			{Label: "Specification", Value: web.Dash(item.Spec)},
		},
	}
	if item.StockKind().TracksDepletion() {
		view.Stats = append(view.Stats, projectionStat(detail.Projection, h.service.WindowDays()))
	}
	if roles.Role(c.GetString("role")).HasPermission(roles.Staff) {
		view.Actions = []web.Action{
			web.EditAction(fmt.Sprintf("/items/%d/edit", item.ID)),
			web.DeleteAction(fmt.Sprintf("/items/%d/delete", item.ID), "Delete item "+item.Code+" and its stock history?"),
		}
	}

	view.Sections = append(view.Sections,
		web.Section{Heading: "Latest stock in", Table: movementTable(detail.StockIns)},
		web.Section{Heading: "Latest stock out", Table: movementTable(detail.StockOuts)},
		web.Section{Heading: "Contracts", Table: contractTable(detail.Contracts)},
	)
	return view
}

func projectionStat(p *stock.Projection, windowDays int) web.Stat {
	stat := web.Stat{Label: fmt.Sprintf("Projection (%d-day usage)", windowDays)}
	switch {
	case p == nil:
		stat.Value = "No usage"
	case p.Exhausted:
		stat.Value = "Out of stock"
		stat.Badge = stock.StatusEmpty.String()
	default:
		stat.Value = fmt.Sprintf("%d days, until %s", p.DaysRemaining, web.FormatDate(p.DepletionDate))
	}
	return stat
}

func movementTable(movements []models.Movement) web.Table {
	table := web.Table{Columns: []string{"Date", "Quantity", "Note"}, Empty: "No transactions."}
	for _, m := range movements {
		table.Rows = append(table.Rows, web.Row{Cells: []web.Cell{
			{Text: web.FormatDate(m.Date)},
			{Text: strconv.Itoa(m.Quantity)},
			{Text: web.Dash(m.Note)},
		}})
	}
	return table
}

func contractTable(lines []models.ContractLine) web.Table {
	table := web.Table{Columns: []string{"Contract", "Date", "Quantity", "Unit price", "Subtotal"}, Empty: "Not part of any contract."}
	for _, l := range lines {
		price := "-"
		if l.UnitPrice.Valid {
			price = web.Money(l.UnitPrice.Decimal)
		}
		table.Rows = append(table.Rows, web.Row{Cells: []web.Cell{
			{Text: l.Number, URL: fmt.Sprintf("/contracts/%d", l.ContractID)},
			{Text: web.FormatDate(l.Date)},
			{Text: strconv.Itoa(l.Quantity)},
			{Text: price},
			{Text: web.Money(l.Subtotal())},
		}})
	}
	return table
}

func (h *ItemHandler) NewItem(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &models.Item{Kind: stock.Consumable.Name()}, nil)
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	item, errs, err := h.bind(c, 0)
	if err != nil {
		h.logger.Error("Could not check item code", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, item, errs)
		return
	}

	if err := h.repository.Create(c.Request.Context(), item); err != nil {
		h.writeFailed(c, item, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", "Created item "+item.Code+" "+item.Name, item, item)
	web.Success(c, "Item "+item.Name+" was added.")
	web.Redirect(c, fmt.Sprintf("/items/%d", item.ID))
}

func (h *ItemHandler) EditItem(c *gin.Context) {
	item, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, &item.Item, nil)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}

	item, errs, err := h.bind(c, existing.ID)
	if err != nil {
		h.logger.Error("Could not check item code", zap.Error(err))
		web.ServerError(c)
		return
	}
	item.ID = existing.ID
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, item, errs)
		return
	}

	if err := h.repository.Update(c.Request.Context(), item); err != nil {
		h.writeFailed(c, item, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", "Updated item "+item.Code+" "+item.Name,
		map[string]interface{}{"previous_code": existing.Code, "item": item}, item)
	web.Success(c, "Item "+item.Name+" was updated.")
	web.Redirect(c, fmt.Sprintf("/items/%d", item.ID))
}

func (h *ItemHandler) RemoveItem(c *gin.Context) {
	item, ok := h.load(c)
	if !ok {
		return
	}

	err := h.repository.Delete(c.Request.Context(), item.ID)
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Item")
		return
	case custom_error.IsForeignKeyViolation(err):
		web.Danger(c, "Item "+item.Code+" cannot be deleted because other records still use it.")
		web.Redirect(c, fmt.Sprintf("/items/%d", item.ID))
		return
	case err != nil:
		h.logger.Error("Could not delete item", zap.Int("item_id", item.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "delete", "Deleted item "+item.Code+" "+item.Name, item.Item, &item.Item)
	web.Success(c, "Item "+item.Name+" was deleted.")
	web.Redirect(c, "/items")
}

func (h *ItemHandler) load(c *gin.Context) (*models.ItemStock, bool) {
	id, ok := web.ParamID(c, "id", "Item")
	if !ok {
		return nil, false
	}
	item, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Item")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load item", zap.Int("item_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return item, true
}

func (h *ItemHandler) bind(c *gin.Context, excludeID int) (*models.Item, validation.Errors, error) {
	var req itemRequest
	errs := validation.FromBinding(c.ShouldBind(&req))
	item := req.toItem()

	if !errs.Has("code") {
		if item.Code == "" {
			errs.Add("code", "This field is required.")
		} else {
			exists, err := h.repository.CodeExists(c.Request.Context(), item.Code, excludeID)
			if err != nil {
				return item, nil, err
			}
			if exists {
				errs.Add("code", "Item code "+item.Code+" is already used.")
			}
		}
	}
	return item, errs, nil
}

func (h *ItemHandler) writeFailed(c *gin.Context, item *models.Item, err error) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Item")
	case custom_error.IsUniqueViolation(err):
		errs := validation.Errors{}
		errs.Add(validation.FormError, "Another item with the same code was saved at the same time. Please check and submit again.")
		h.renderForm(c, http.StatusConflict, item, errs)
	case custom_error.IsForeignKeyViolation(err):
		errs := validation.Errors{}
		errs.Add(validation.FormError, "The selected category or brand no longer exists.")
		h.renderForm(c, http.StatusUnprocessableEntity, item, errs)
	default:
		h.logger.Error("Could not save item", zap.String("code", item.Code), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *ItemHandler) renderForm(c *gin.Context, status int, item *models.Item, errs validation.Errors) {
	categories, brands, err := h.options(c.Request.Context())
	if err != nil {
		h.logger.Error("Could not load item form options", zap.Error(err))
		web.ServerError(c)
		return
	}

	opening := web.NumberField("opening_stock", "Opening stock", item.OpeningStock, true)
	opening.Help = "Quantity on hand before the first recorded transaction."
	minimum := web.NumberField("minimum_stock", "Minimum stock", item.MinimumStock, false)
	minimum.Help = "Consumables at or below this level are reported as low."

	form := web.FormView{
		Heading: "Add item",
		Action:  "/items/add",
		Submit:  "Save",
		Cancel:  "/items",
		Fields: []web.Field{
			web.TextField("code", "Code", item.Code, true),
			web.TextField("name", "Name", item.Name, true),
			web.SelectField("kind", "Kind", kindOptions(item.Kind, ""), true),
			web.SelectField("category_id", "Category", web.IDOptions(categories, web.IDString(item.CategoryID), "-- none --"), false),
			web.SelectField("brand_id", "Brand", web.IDOptions(brands, web.IDString(item.BrandID), "-- none --"), false),
			web.TextField("unit", "Unit", item.Unit, true),
			web.TextField("secondary_unit", "Secondary unit", web.Str(item.SecondaryUnit), false),
			opening,
			minimum,
			web.TextArea("spec", "Specification", web.Str(item.Spec)),
		},
	}
	if item.ID > 0 {
		form.Heading = "Edit item"
		form.Action = fmt.Sprintf("/items/%d/edit", item.ID)
		form.Cancel = fmt.Sprintf("/items/%d", item.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}

func (h *ItemHandler) options(ctx context.Context) ([]models.Option, []models.Option, error) {
	categories, err := h.repository.CategoryOptions(ctx)
	if err != nil {
		return nil, nil, err
	}
	brands, err := h.repository.BrandOptions(ctx)
	if err != nil {
		return nil, nil, err
	}
	return categories, brands, nil
}

func kindOptions(selected, blank string) []web.Option {
	values := make([]string, 0, 3)
	labels := make([]string, 0, 3)
	if blank != "" {
		values = append(values, "")
		labels = append(labels, blank)
	}
	for _, k := range stock.Kinds() {
		values = append(values, k.Name())
		labels = append(labels, k.Name())
	}
	return web.ValueOptions(values, labels, selected)
}

func statusOptions(selected string) []web.Option {
	values := []string{""}
	labels := []string{"All statuses"}
	for _, s := range stock.Statuses() {
		values = append(values, s.String())
		labels = append(labels, s.Label())
	}
	return web.ValueOptions(values, labels, selected)
}
