package contracts

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
	List(ctx context.Context, filter ContractFilter) ([]models.ContractSummary, error)
	Get(ctx context.Context, id int) (*models.ContractSummary, error)
	NumberExists(ctx context.Context, number string, excludeID int) (bool, error)
	Create(ctx context.Context, contract *models.Contract) error
	Update(ctx context.Context, contract *models.Contract) error
	Delete(ctx context.Context, id int) error
	Lines(ctx context.Context, contractID int) ([]models.ContractLine, error)
	LineExists(ctx context.Context, contractID, itemID int) (bool, error)
	AddLine(ctx context.Context, line *models.ContractLine) error
	DeleteLine(ctx context.Context, contractID, lineID int) error
	ItemOptions(ctx context.Context) ([]models.Option, error)
}

type ContractHandler struct {
	repository Repository
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
}

func NewContractHandler(r Repository, a *auditlog.Auditlog, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{
		repository: r,
		auditLog:   a,
		logger:     logger,
	}
}

func (h *ContractHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/contracts", security.Authorize(roles.Viewer), h.ListContracts)
	router.GET("/contracts/add", security.Authorize(roles.Staff), h.NewContract)
	router.POST("/contracts/add", security.Authorize(roles.Staff), h.CreateContract)
	router.GET("/contracts/:id", security.Authorize(roles.Viewer), h.GetContract)
	router.GET("/contracts/:id/edit", security.Authorize(roles.Staff), h.EditContract)
	router.POST("/contracts/:id/edit", security.Authorize(roles.Staff), h.UpdateContract)
	router.POST("/contracts/:id/delete", security.Authorize(roles.Staff), h.RemoveContract)
	router.POST("/contracts/:id/lines", security.Authorize(roles.Staff), h.AddLine)
	router.POST("/contracts/:id/lines/:lineId/delete", security.Authorize(roles.Staff), h.RemoveLine)
}

func (h *ContractHandler) ListContracts(c *gin.Context) {
	var query ListQuery
	_ = c.ShouldBindQuery(&query)

	contracts, err := h.repository.List(c.Request.Context(), query.Filter())
	if err != nil {
		h.logger.Error("Could not list contracts", zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Number", "Date", "Description", "Lines", "Quantity", "Value"},
		Empty:   "No contracts match the filters.",
	}
	for _, contract := range contracts {
		row := web.Row{Cells: []web.Cell{
			{Text: contract.Number, URL: fmt.Sprintf("/contracts/%d", contract.ID)},
			{Text: web.FormatDate(contract.Date)},
			{Text: web.Dash(contract.Description)},
			{Text: strconv.Itoa(contract.LineCount)},
			{Text: strconv.Itoa(contract.TotalQuantity)},
			{Text: web.Money(contract.TotalValue)},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.EditAction(fmt.Sprintf("/contracts/%d/edit", contract.ID)),
				web.DeleteAction(fmt.Sprintf("/contracts/%d/delete", contract.ID), "Delete contract "+contract.Number+" and its lines?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}

	view := web.ListView{
		Heading: "Contracts",
		Filters: []web.Field{
			{Name: "q", Label: "Number or description", Type: "text", Value: query.Search},
			numberFilter("year", "Year", query.Year),
			numberFilter("month", "Month", query.Month),
		},
		Exports: []web.Action{
			{Label: "Report", URL: web.WithQuery(c, "/reports/contracts")},
		},
		Table: table,
	}
	if canEdit {
		view.AddURL = "/contracts/add"
	}
	web.Render(c, http.StatusOK, "list.html", "Contracts", view)
}

func numberFilter(name, label string, value int) web.Field {
	field := web.Field{Name: name, Label: label, Type: "number"}
	if value > 0 {
		field.Value = strconv.Itoa(value)
	}
	return field
}

func (h *ContractHandler) GetContract(c *gin.Context) {
	contract, ok := h.load(c)
	if !ok {
		return
	}
	h.renderDetail(c, http.StatusOK, contract, &models.ContractLine{Quantity: 1}, nil)
}

func (h *ContractHandler) renderDetail(c *gin.Context, status int, contract *models.ContractSummary, line *models.ContractLine, errs validation.Errors) {
	ctx := c.Request.Context()
	lines, err := h.repository.Lines(ctx, contract.ID)
	if err != nil {
		h.logger.Error("Could not load contract lines", zap.Int("contract_id", contract.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	valuation := Valuate(lines)

	table := web.Table{
		Columns: []string{"Item code", "Item", "Quantity", "Unit", "Unit price", "Subtotal"},
		Empty:   "No lines yet.",
	}
	for _, l := range lines {
		price := "-"
		if l.UnitPrice.Valid {
			price = web.Money(l.UnitPrice.Decimal)
		}
		row := web.Row{Cells: []web.Cell{
			{Text: l.ItemCode, URL: fmt.Sprintf("/items/%d", l.ItemID)},
			{Text: l.ItemName},
			{Text: strconv.Itoa(l.Quantity)},
			{Text: l.ItemUnit},
			{Text: price},
			{Text: web.Money(l.Subtotal())},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.DeleteAction(fmt.Sprintf("/contracts/%d/lines/%d/delete", contract.ID, l.ID), "Remove "+l.ItemCode+" from this contract?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if len(lines) > 0 {
		table.Footer = []web.Cell{{Text: "Total"}, {}, {Text: strconv.Itoa(valuation.TotalQuantity)}, {}, {}, {Text: web.Money(valuation.TotalValue)}}
	}

	view := web.DetailView{
		Heading: "Contract " + contract.Number,
		Stats: []web.Stat{
			{Label: "Lines", Value: strconv.Itoa(len(lines))},
			{Label: "Total quantity", Value: strconv.Itoa(valuation.TotalQuantity)},
			{Label: "Total value", Value: web.Money(valuation.TotalValue)},
		},
		Pairs: []web.Pair{
			{Label: "Number", Value: contract.Number},
			{Label: "Date", Value: web.FormatDate(contract.Date)},
			{Label: "Description", Value: web.Dash(contract.Description)},
		},
	}

	section := web.Section{Heading: "Lines", Table: table}
	if canEdit {
		view.Actions = []web.Action{
			web.EditAction(fmt.Sprintf("/contracts/%d/edit", contract.ID)),
			web.DeleteAction(fmt.Sprintf("/contracts/%d/delete", contract.ID), "Delete contract "+contract.Number+" and its lines?"),
		}

		items, err := h.repository.ItemOptions(ctx)
		if err != nil {
			h.logger.Error("Could not load item options", zap.Error(err))
			web.ServerError(c)
			return
		}
		price := web.Field{Name: "unit_price", Label: "Unit price", Type: "number", Step: "0.01", Placeholder: "optional"}
		if line.UnitPrice.Valid {
			price.Value = line.UnitPrice.Decimal.String()
		}
		form := &web.FormView{
			Action: fmt.Sprintf("/contracts/%d/lines", contract.ID),
			Submit: "Add line",
			Fields: []web.Field{
				web.SelectField("item_id", "Item", web.IDOptions(items, line.ItemID, "Choose an item"), true),
				web.NumberField("quantity", "Quantity", line.Quantity, true),
				price,
			},
		}
		form.Bind(errs)
		section.Form = form
	}
	view.Sections = append(view.Sections, section)

	web.Render(c, status, "detail.html", view.Heading, view)
}

func (h *ContractHandler) NewContract(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &models.Contract{}, nil)
}

func (h *ContractHandler) CreateContract(c *gin.Context) {
	contract, errs, err := h.bind(c, 0)
	if err != nil {
		h.logger.Error("Could not check contract number", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, contract, errs)
		return
	}

	if err := h.repository.Create(c.Request.Context(), contract); err != nil {
		h.writeFailed(c, contract, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", "Created contract "+contract.Number, contract, contract)
	web.Success(c, "Contract "+contract.Number+" was added.")
	web.Redirect(c, fmt.Sprintf("/contracts/%d", contract.ID))
}

func (h *ContractHandler) EditContract(c *gin.Context) {
	contract, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, &contract.Contract, nil)
}

func (h *ContractHandler) UpdateContract(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}

	contract, errs, err := h.bind(c, existing.ID)
	if err != nil {
		h.logger.Error("Could not check contract number", zap.Error(err))
		web.ServerError(c)
		return
	}
	contract.ID = existing.ID
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, contract, errs)
		return
	}

	if err := h.repository.Update(c.Request.Context(), contract); err != nil {
		h.writeFailed(c, contract, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", "Updated contract "+contract.Number, contract, contract)
	web.Success(c, "Contract "+contract.Number+" was updated.")
	web.Redirect(c, fmt.Sprintf("/contracts/%d", contract.ID))
}

func (h *ContractHandler) RemoveContract(c *gin.Context) {
	contract, ok := h.load(c)
	if !ok {
		return
	}

	err := h.repository.Delete(c.Request.Context(), contract.ID)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Contract")
		return
	}
	if err != nil {
		h.logger.Error("Could not delete contract", zap.Int("contract_id", contract.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "delete", "Deleted contract "+contract.Number, contract, &contract.Contract)
	web.Success(c, "Contract "+contract.Number+" was deleted.")
	web.Redirect(c, "/contracts")
}

func (h *ContractHandler) AddLine(c *gin.Context) {
	contract, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req lineRequest
	errs := validation.FromBinding(c.ShouldBind(&req))
	line := req.toLine(contract.ID, &errs)

	if !errs.Has("item_id") {
		exists, err := h.repository.LineExists(ctx, contract.ID, line.ItemID)
		if err != nil {
			h.logger.Error("Could not check contract line", zap.Int("contract_id", contract.ID), zap.Error(err))
			web.ServerError(c)
			return
		}
		if exists {
			errs.Add("item_id", "This item is already part of the contract.")
		}
	}
	if errs.Any() {
		h.renderDetail(c, http.StatusUnprocessableEntity, contract, line, errs)
		return
	}

	err := h.repository.AddLine(ctx, line)
	switch {
	case custom_error.IsUniqueViolation(err):
		errs.Add("item_id", "This item is already part of the contract.")
		h.renderDetail(c, http.StatusConflict, contract, line, errs)
		return
	case custom_error.IsForeignKeyViolation(err):
		errs.Add("item_id", "The selected item no longer exists.")
		h.renderDetail(c, http.StatusUnprocessableEntity, contract, line, errs)
		return
	case err != nil:
		h.logger.Error("Could not add contract line", zap.Int("contract_id", contract.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(ctx, security.Actor(c), "create", fmt.Sprintf("Added %d units to contract %s", line.Quantity, contract.Number), line, line)
	web.Success(c, "The line was added.")
	web.Redirect(c, fmt.Sprintf("/contracts/%d", contract.ID))
}

func (h *ContractHandler) RemoveLine(c *gin.Context) {
	contractID, ok := web.ParamID(c, "id", "Contract")
	if !ok {
		return
	}
	lineID, ok := web.ParamID(c, "lineId", "Contract line")
	if !ok {
		return
	}

	err := h.repository.DeleteLine(c.Request.Context(), contractID, lineID)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Contract line")
		return
	}
	if err != nil {
		h.logger.Error("Could not delete contract line", zap.Int("contract_id", contractID), zap.Int("line_id", lineID), zap.Error(err))
		web.ServerError(c)
		return
	}

	line := &models.ContractLine{ID: lineID, ContractID: contractID}
	h.auditLog.Log(c.Request.Context(), security.Actor(c), "delete", "Removed a line from a contract", line, line)
	web.Success(c, "The line was removed.")
	web.Redirect(c, fmt.Sprintf("/contracts/%d", contractID))
}

func (h *ContractHandler) load(c *gin.Context) (*models.ContractSummary, bool) {
	id, ok := web.ParamID(c, "id", "Contract")
	if !ok {
		return nil, false
	}
	contract, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Contract")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load contract", zap.Int("contract_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return contract, true
}

func (h *ContractHandler) bind(c *gin.Context, excludeID int) (*models.Contract, validation.Errors, error) {
	var req contractRequest
	errs := validation.FromBinding(c.ShouldBind(&req))
	contract := req.toContract(&errs)

	if !errs.Has("number") && contract.Number == "" {
		errs.Add("number", "This field is required.")
	}
	if !errs.Has("number") {
		exists, err := h.repository.NumberExists(c.Request.Context(), contract.Number, excludeID)
		if err != nil {
			return contract, nil, err
		}
		if exists {
			errs.Add("number", "A contract with this number already exists.")
		}
	}
	return contract, errs, nil
}

func (h *ContractHandler) writeFailed(c *gin.Context, contract *models.Contract, err error) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Contract")
	case custom_error.IsUniqueViolation(err):
		errs := validation.Errors{}
		errs.Add(validation.FormError, "Another contract with the same number was saved at the same time. Please check and submit again.")
		h.renderForm(c, http.StatusConflict, contract, errs)
	default:
		h.logger.Error("Could not save contract", zap.String("number", contract.Number), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *ContractHandler) renderForm(c *gin.Context, status int, contract *models.Contract, errs validation.Errors) {
	form := web.FormView{
		Heading: "Add contract",
		Action:  "/contracts/add",
		Submit:  "Save",
		Cancel:  "/contracts",
		Fields: []web.Field{
			web.TextField("number", "Contract number", contract.Number, true),
			web.DateField("date", "Date", web.FormatDate(contract.Date), true),
			web.TextArea("description", "Description", web.Str(contract.Description)),
		},
	}
	if contract.ID > 0 {
		form.Heading = "Edit contract"
		form.Action = fmt.Sprintf("/contracts/%d/edit", contract.ID)
		form.Cancel = fmt.Sprintf("/contracts/%d", contract.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}
