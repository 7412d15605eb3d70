package stocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

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
	List(ctx context.Context, direction models.Direction, filter MovementFilter) ([]models.Movement, error)
	Get(ctx context.Context, direction models.Direction, id int) (*models.Movement, error)
	ItemChoices(ctx context.Context) ([]ItemChoice, error)
	Create(ctx context.Context, m *models.Movement) error
	Update(ctx context.Context, previous, m *models.Movement) error
	Delete(ctx context.Context, direction models.Direction, id int) error
}

// StockHandler serves one ledger. The stock-in and stock-out pages are two
// handlers over the same repository.
type StockHandler struct {
	direction  models.Direction
	repository Repository
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
	now        func() time.Time
}

func NewStockHandler(direction models.Direction, r Repository, a *auditlog.Auditlog, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		direction:  direction,
		repository: r,
		auditLog:   a,
		logger:     logger.With(zap.String("ledger", direction.Table())),
		now:        time.Now,
	}
}

func (h *StockHandler) RegisterRoutes(router gin.IRouter) {
	base := h.direction.Path()
	router.GET(base, security.Authorize(roles.Viewer), h.ListMovements)
	router.GET(base+"/add", security.Authorize(roles.Staff), h.NewMovement)
	router.POST(base+"/add", security.Authorize(roles.Staff), h.CreateMovement)
	router.GET(base+"/:id/edit", security.Authorize(roles.Staff), h.EditMovement)
	router.POST(base+"/:id/edit", security.Authorize(roles.Staff), h.UpdateMovement)
	router.POST(base+"/:id/delete", security.Authorize(roles.Staff), h.RemoveMovement)
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	var query ListQuery
	_ = c.ShouldBindQuery(&query)

	movements, err := h.repository.List(c.Request.Context(), h.direction, query.Filter())
	if err != nil {
		h.logger.Error("Could not list movements", zap.Error(err))
		web.ServerError(c)
		return
	}

	base := h.direction.Path()
	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Date", "Item code", "Item", "Quantity", "Unit", "Note"},
		Empty:   "No entries match the filters.",
	}
	total := 0
	for _, m := range movements {
		total += m.Quantity
		row := web.Row{Cells: []web.Cell{
			{Text: web.FormatDate(m.Date)},
			{Text: m.ItemCode},
			{Text: m.ItemName},
			{Text: strconv.Itoa(m.Quantity)},
			{Text: m.ItemUnit},
			{Text: web.Dash(m.Note)},
		}}
		if canEdit {
			row.Actions = []web.Action{
				web.EditAction(fmt.Sprintf("%s/%d/edit", base, m.ID)),
				web.DeleteAction(fmt.Sprintf("%s/%d/delete", base, m.ID), "Delete this entry?"),
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if len(movements) > 0 {
		table.Footer = []web.Cell{{Text: "Total"}, {}, {}, {Text: strconv.Itoa(total)}, {}, {}}
	}

	view := web.ListView{
		Heading: h.direction.Label(),
		Filters: []web.Field{
			{Name: "q", Label: "Item code or name", Type: "text", Value: query.Search},
			web.DateField("from", "From", query.From, false),
			web.DateField("to", "To", query.To, false),
		},
		Exports: []web.Action{
			{Label: "Report", URL: web.WithQuery(c, "/reports"+base)},
		},
		Table: table,
	}
	if canEdit {
		view.AddURL = base + "/add"
	}
	web.Render(c, http.StatusOK, "list.html", h.direction.Label(), view)
}

func (h *StockHandler) NewMovement(c *gin.Context) {
	m := &models.Movement{Date: h.now(), Direction: h.direction}
	if code := c.Query("item"); code != "" {
		m.ItemCode = code
	}
	h.renderForm(c, http.StatusOK, m, nil)
}

func (h *StockHandler) CreateMovement(c *gin.Context) {
	m, errs := h.bind(c)
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, m, errs)
		return
	}

	if err := h.repository.Create(c.Request.Context(), m); err != nil {
		h.writeFailed(c, m, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", h.describe(m), m, m)
	web.Success(c, fmt.Sprintf("%s of %d x %s was recorded.", h.direction.Label(), m.Quantity, m.ItemCode))
	web.Redirect(c, h.direction.Path())
}

func (h *StockHandler) EditMovement(c *gin.Context) {
	m, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, m, nil)
}

func (h *StockHandler) UpdateMovement(c *gin.Context) {
	previous, ok := h.load(c)
	if !ok {
		return
	}

	m, errs := h.bind(c)
	m.ID = previous.ID
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, m, errs)
		return
	}

	if err := h.repository.Update(c.Request.Context(), previous, m); err != nil {
		h.writeFailed(c, m, err)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", h.describe(m), gin.H{
		"previous_item_code": previous.ItemCode,
		"previous_quantity":  previous.Quantity,
		"item_code":          m.ItemCode,
		"quantity":           m.Quantity,
	}, m)
	web.Success(c, "The entry was updated.")
	web.Redirect(c, h.direction.Path())
}

func (h *StockHandler) RemoveMovement(c *gin.Context) {
	m, ok := h.load(c)
	if !ok {
		return
	}

	err := h.repository.Delete(c.Request.Context(), h.direction, m.ID)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Entry")
		return
	}
	if err != nil {
		h.logger.Error("Could not delete movement", zap.Int("movement_id", m.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "delete", h.describe(m), m, m)
	web.Success(c, "The entry was deleted.")
	web.Redirect(c, h.direction.Path())
}

func (h *StockHandler) describe(m *models.Movement) string {
	return fmt.Sprintf("%s %d x %s on %s", h.direction.Label(), m.Quantity, m.ItemCode, web.FormatDate(m.Date))
}

func (h *StockHandler) load(c *gin.Context) (*models.Movement, bool) {
	id, ok := web.ParamID(c, "id", "Entry")
	if !ok {
		return nil, false
	}
	m, err := h.repository.Get(c.Request.Context(), h.direction, id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Entry")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load movement", zap.Int("movement_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return m, true
}

func (h *StockHandler) bind(c *gin.Context) (*models.Movement, validation.Errors) {
	var req movementRequest
	errs := validation.FromBinding(c.ShouldBind(&req))
	m := req.toMovement(h.direction, &errs)
	return m, errs
}

func (h *StockHandler) writeFailed(c *gin.Context, m *models.Movement, err error) {
	var insufficient *custom_error.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		h.logger.Info("Stock-out rejected", zap.String("item_code", m.ItemCode), zap.String("reason", insufficient.Error()))
		errs := validation.Errors{}
		errs.Add("quantity", fmt.Sprintf("Insufficient stock: only %d available.", insufficient.Available))
		h.renderForm(c, http.StatusUnprocessableEntity, m, errs)
	case errors.Is(err, ErrUnknownItem):
		errs := validation.Errors{}
		errs.Add("item_code", "No item has this code.")
		h.renderForm(c, http.StatusUnprocessableEntity, m, errs)
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Entry")
	default:
		h.logger.Error("Could not save movement", zap.String("item_code", m.ItemCode), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *StockHandler) renderForm(c *gin.Context, status int, m *models.Movement, errs validation.Errors) {
	choices, err := h.repository.ItemChoices(c.Request.Context())
	if err != nil {
		h.logger.Error("Could not load item choices", zap.Error(err))
		web.ServerError(c)
		return
	}

	options := []web.Option{{Value: "", Label: "Choose an item"}}
	for _, choice := range choices {
		options = append(options, web.Option{
			Value:    choice.Code,
			Label:    fmt.Sprintf("%s - %s (%s)", choice.Code, choice.Name, choice.Unit),
			Selected: choice.Code == m.ItemCode,
		})
	}

	quantity := web.NumberField("quantity", "Quantity", m.Quantity, true)
	quantity.Value = ""
	if m.Quantity > 0 {
		quantity.Value = strconv.Itoa(m.Quantity)
	}

	form := web.FormView{
		Heading: "Add " + strings.ToLower(h.direction.Label()),
		Action:  h.direction.Path() + "/add",
		Submit:  "Save",
		Cancel:  h.direction.Path(),
		Fields: []web.Field{
			web.DateField("date", "Date", web.FormatDate(m.Date), true),
			web.SelectField("item_code", "Item", options, true),
			quantity,
			web.TextArea("note", "Note", web.Str(m.Note)),
		},
	}
	if m.ID > 0 {
		form.Heading = "Edit " + strings.ToLower(h.direction.Label())
		form.Action = fmt.Sprintf("%s/%d/edit", h.direction.Path(), m.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}
