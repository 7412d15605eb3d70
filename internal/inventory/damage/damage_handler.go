package damage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/auditlog"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/metadata"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
	"github.com/takdim/inven-go/pkg/validation"
)

type Repository interface {
	List(ctx context.Context, filter ReportFilter) ([]models.DamageReportView, error)
	Get(ctx context.Context, id int) (*models.DamageReportView, error)
	Create(ctx context.Context, report *models.DamageReport) error
	Update(ctx context.Context, report *models.DamageReport) error
	Delete(ctx context.Context, id int) error
	AssetOptions(ctx context.Context) ([]models.Option, error)
	AssetExists(ctx context.Context, id int) (bool, error)
}

type DamageHandler struct {
	repository Repository
	auditLog   *auditlog.Auditlog
	logger     *zap.Logger
	now        func() time.Time
}

func NewDamageHandler(r Repository, a *auditlog.Auditlog, logger *zap.Logger) *DamageHandler {
	return &DamageHandler{
		repository: r,
		auditLog:   a,
		logger:     logger,
		now:        time.Now,
	}
}

func (h *DamageHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/damage-reports", security.Authorize(roles.Viewer), h.ListReports)
	router.GET("/damage-reports/add", security.Authorize(roles.Staff), h.NewReport)
	router.POST("/damage-reports/add", security.Authorize(roles.Staff), h.CreateReport)
	router.GET("/damage-reports/:id", security.Authorize(roles.Viewer), h.GetReport)
	router.GET("/damage-reports/:id/edit", security.Authorize(roles.Staff), h.EditReport)
	router.POST("/damage-reports/:id/edit", security.Authorize(roles.Staff), h.UpdateReport)
	router.POST("/damage-reports/:id/delete", security.Authorize(roles.Staff), h.RemoveReport)
}

// RegisterPublicRoutes mounts the form anyone may use to report damage.
func (h *DamageHandler) RegisterPublicRoutes(router gin.IRouter) {
	router.GET("/report-damage", h.NewPublicReport)
	router.POST("/report-damage", h.CreatePublicReport)
}

func (h *DamageHandler) ListReports(c *gin.Context) {
	var query reportListQuery
	_ = c.ShouldBindQuery(&query)
	filter := query.filter()

	reports, err := h.repository.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Could not list damage reports", zap.Error(err))
		web.ServerError(c)
		return
	}

	canEdit := roles.Role(c.GetString("role")).HasPermission(roles.Staff)
	table := web.Table{
		Columns: []string{"Discovered", "Asset", "User", "Location", "Damage", "Quantity", "Status"},
		Empty:   "No damage reports match the filters.",
	}
	for _, report := range reports {
		status := report.DamageStatus()
		row := web.Row{Cells: []web.Cell{
			{Text: web.FormatDate(report.DiscoveredOn), URL: fmt.Sprintf("/damage-reports/%d", report.ID)},
			{Text: report.AssetCode + " " + report.AssetName, URL: fmt.Sprintf("/assets/%d", report.AssetID)},
			{Text: report.UserName},
			{Text: report.Location},
			{Text: report.Damage},
			{Text: strconv.Itoa(report.Quantity)},
			{Text: status.Label(), Badge: status.String()},
		}}
		row.Actions = []web.Action{{Label: "Letter", URL: fmt.Sprintf("/damage-reports/%d/letter", report.ID)}}
		if canEdit {
			row.Actions = append(row.Actions,
				web.EditAction(fmt.Sprintf("/damage-reports/%d/edit", report.ID)),
				web.DeleteAction(fmt.Sprintf("/damage-reports/%d/delete", report.ID), "Delete this damage report?"),
			)
		}
		table.Rows = append(table.Rows, row)
	}

	view := web.ListView{
		Heading: "Damage reports",
		Filters: []web.Field{
			{Name: "q", Label: "Asset, user or damage", Type: "text", Value: query.Search},
			web.SelectField("status", "Status", statusOptions(filter.Status, "All statuses"), false),
		},
		Table: table,
	}
	if canEdit {
		view.AddURL = "/damage-reports/add"
	}
	web.Render(c, http.StatusOK, "list.html", "Damage reports", view)
}

func statusOptions(selected, blank string) []web.Option {
	var values, labels []string
	if blank != "" {
		values, labels = append(values, ""), append(labels, blank)
	}
	for _, s := range metadata.DamageStatuses() {
		values = append(values, s.String())
		labels = append(labels, s.Label())
	}
	return web.ValueOptions(values, labels, selected)
}

func (h *DamageHandler) GetReport(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}

	status := report.DamageStatus()
	reporter := "Public form"
	if report.ReporterName != nil {
		reporter = *report.ReporterName
	}
	view := web.DetailView{
		Heading: fmt.Sprintf("Damage report #%d", report.ID),
		Stats: []web.Stat{
			{Label: "Status", Value: status.Label(), Badge: status.String()},
			{Label: "Quantity", Value: strconv.Itoa(report.Quantity)},
		},
		Pairs: []web.Pair{
			{Label: "Asset", Value: report.AssetCode + " " + report.AssetName},
			{Label: "Discovered on", Value: web.FormatDate(report.DiscoveredOn)},
			{Label: "User", Value: report.UserName},
			{Label: "Location", Value: report.Location},
			{Label: "Damage", Value: report.Damage},
			{Label: "Cause", Value: web.Dash(report.Cause)},
			{Label: "Action taken", Value: web.Dash(report.ActionTaken)},
			{Label: "Current condition", Value: web.Dash(report.CurrentCondition)},
			{Label: "Impact", Value: web.Dash(report.Impact)},
			{Label: "Reported by", Value: reporter},
			{Label: "Reported at", Value: web.FormatTime(&report.CreatedAt)},
		},
		Actions: []web.Action{{Label: "Letter (PDF)", URL: fmt.Sprintf("/damage-reports/%d/letter", report.ID)}},
	}
	if roles.Role(c.GetString("role")).HasPermission(roles.Staff) {
		view.Actions = append(view.Actions,
			web.EditAction(fmt.Sprintf("/damage-reports/%d/edit", report.ID)),
			web.DeleteAction(fmt.Sprintf("/damage-reports/%d/delete", report.ID), "Delete this damage report?"),
		)
	}
	web.Render(c, http.StatusOK, "detail.html", view.Heading, view)
}

func (h *DamageHandler) NewReport(c *gin.Context) {
	assetID, _ := strconv.Atoi(c.Query("asset"))
	report := &models.DamageReport{
		AssetID:      assetID,
		DiscoveredOn: h.now(),
		Quantity:     1,
		Status:       metadata.DamageDraft.String(),
	}
	h.renderForm(c, http.StatusOK, report, nil)
}

func (h *DamageHandler) CreateReport(c *gin.Context) {
	report, errs, err := h.bind(c, metadata.DamageDraft, false)
	if err != nil {
		h.logger.Error("Could not check damaged asset", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, report, errs)
		return
	}
	report.ReporterID = security.CurrentUserID(c)

	if err := h.repository.Create(c.Request.Context(), report); err != nil {
		h.writeFailed(c, report, err, h.renderForm)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", h.describe(report), report, report)
	web.Success(c, "The damage report was saved.")
	web.Redirect(c, fmt.Sprintf("/damage-reports/%d", report.ID))
}

func (h *DamageHandler) EditReport(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, &report.DamageReport, nil)
}

func (h *DamageHandler) UpdateReport(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}

	report, errs, err := h.bind(c, existing.DamageStatus(), false)
	if err != nil {
		h.logger.Error("Could not check damaged asset", zap.Error(err))
		web.ServerError(c)
		return
	}
	report.ID = existing.ID
	report.ReporterID = existing.ReporterID
	if errs.Any() {
		h.renderForm(c, http.StatusUnprocessableEntity, report, errs)
		return
	}

	if err := h.repository.Update(c.Request.Context(), report); err != nil {
		h.writeFailed(c, report, err, h.renderForm)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "update", h.describe(report),
		map[string]interface{}{"previous_status": existing.Status, "report": report}, report)
	web.Success(c, "The damage report was updated.")
	web.Redirect(c, fmt.Sprintf("/damage-reports/%d", report.ID))
}

func (h *DamageHandler) RemoveReport(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}

	err := h.repository.Delete(c.Request.Context(), report.ID)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Damage report")
		return
	}
	if err != nil {
		h.logger.Error("Could not delete damage report", zap.Int("damage_report_id", report.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	h.auditLog.Log(c.Request.Context(), security.Actor(c), "delete", h.describe(&report.DamageReport), report.DamageReport, &report.DamageReport)
	web.Success(c, "The damage report was deleted.")
	web.Redirect(c, "/damage-reports")
}

func (h *DamageHandler) NewPublicReport(c *gin.Context) {
	report := &models.DamageReport{DiscoveredOn: h.now(), Quantity: 1}
	h.renderPublicForm(c, http.StatusOK, report, nil)
}

// CreatePublicReport stores a submitted report without a reporter.
func (h *DamageHandler) CreatePublicReport(c *gin.Context) {
	report, errs, err := h.bind(c, metadata.DamageSubmitted, true)
	if err != nil {
		h.logger.Error("Could not check damaged asset", zap.Error(err))
		web.ServerError(c)
		return
	}
	if errs.Any() {
		h.renderPublicForm(c, http.StatusUnprocessableEntity, report, errs)
		return
	}
	report.ReporterID = nil

	if err := h.repository.Create(c.Request.Context(), report); err != nil {
		h.writeFailed(c, report, err, h.renderPublicForm)
		return
	}

	h.logger.Info("Public damage report received", zap.Int("damage_report_id", report.ID), zap.Int("asset_id", report.AssetID))
	h.auditLog.Log(c.Request.Context(), security.Actor(c), "create", "Public "+h.describe(report), report, report)
	web.Success(c, "Thank you. Your damage report was sent.")
	web.Redirect(c, "/report-damage")
}

func (h *DamageHandler) describe(report *models.DamageReport) string {
	return fmt.Sprintf("damage report for asset %d: %s", report.AssetID, report.Damage)
}

func (h *DamageHandler) load(c *gin.Context) (*models.DamageReportView, bool) {
	id, ok := web.ParamID(c, "id", "Damage report")
	if !ok {
		return nil, false
	}
	report, err := h.repository.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Damage report")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Could not load damage report", zap.Int("damage_report_id", id), zap.Error(err))
		web.ServerError(c)
		return nil, false
	}
	return report, true
}

// bind reads the form. The public form never chooses a status.
func (h *DamageHandler) bind(c *gin.Context, defaultStatus metadata.DamageStatus, public bool) (*models.DamageReport, validation.Errors, error) {
	var req reportRequest
	errs := validation.FromBinding(c.ShouldBind(&req))
	if public {
		req.Status = ""
	}
	report := req.toReport(&errs, defaultStatus)

	if !errs.Has("asset_id") {
		exists, err := h.repository.AssetExists(c.Request.Context(), report.AssetID)
		if err != nil {
			return report, nil, err
		}
		if !exists {
			errs.Add("asset_id", "Please select an asset.")
		}
	}
	return report, errs, nil
}

type formRenderer func(c *gin.Context, status int, report *models.DamageReport, errs validation.Errors)

func (h *DamageHandler) writeFailed(c *gin.Context, report *models.DamageReport, err error, render formRenderer) {
	switch {
	case errors.Is(err, custom_error.ErrNotFound):
		web.NotFound(c, "Damage report")
	case custom_error.IsForeignKeyViolation(err):
		errs := validation.Errors{}
		errs.Add("asset_id", "Please select an asset.")
		render(c, http.StatusUnprocessableEntity, report, errs)
	default:
		h.logger.Error("Could not save damage report", zap.Int("asset_id", report.AssetID), zap.Error(err))
		web.ServerError(c)
	}
}

func (h *DamageHandler) fields(ctx context.Context, report *models.DamageReport) ([]web.Field, error) {
	assets, err := h.repository.AssetOptions(ctx)
	if err != nil {
		return nil, err
	}
	return []web.Field{
		web.SelectField("asset_id", "Asset", web.IDOptions(assets, report.AssetID, "Choose an asset"), true),
		web.DateField("discovered_on", "Discovered on", web.FormatDate(report.DiscoveredOn), true),
		web.TextField("user_name", "User", report.UserName, true),
		web.TextField("location", "Location", report.Location, true),
		web.NumberField("quantity", "Quantity", report.Quantity, true),
		web.TextArea("damage", "Damage", report.Damage),
		web.TextArea("cause", "Cause (if known)", web.Str(report.Cause)),
		web.TextArea("action_taken", "Action taken", web.Str(report.ActionTaken)),
		web.TextArea("current_condition", "Current condition", web.Str(report.CurrentCondition)),
		web.TextArea("impact", "Impact", web.Str(report.Impact)),
	}, nil
}

func (h *DamageHandler) renderForm(c *gin.Context, status int, report *models.DamageReport, errs validation.Errors) {
	fields, err := h.fields(c.Request.Context(), report)
	if err != nil {
		h.logger.Error("Could not load asset options", zap.Error(err))
		web.ServerError(c)
		return
	}
	fields = append(fields, web.SelectField("status", "Status", statusOptions(report.Status, ""), true))

	form := web.FormView{
		Heading: "Add damage report",
		Action:  "/damage-reports/add",
		Submit:  "Save",
		Cancel:  "/damage-reports",
		Fields:  fields,
	}
	if report.ID > 0 {
		form.Heading = "Edit damage report"
		form.Action = fmt.Sprintf("/damage-reports/%d/edit", report.ID)
		form.Cancel = fmt.Sprintf("/damage-reports/%d", report.ID)
	}
	form.Bind(errs)
	web.Render(c, status, "form.html", form.Heading, form)
}

func (h *DamageHandler) renderPublicForm(c *gin.Context, status int, report *models.DamageReport, errs validation.Errors) {
	fields, err := h.fields(c.Request.Context(), report)
	if err != nil {
		h.logger.Error("Could not load asset options", zap.Error(err))
		web.ServerError(c)
		return
	}

	form := web.FormView{
		Heading: "Report damaged equipment",
		Intro:   "Tell us which asset is damaged. The report goes straight to the inventory staff.",
		Action:  "/report-damage",
		Submit:  "Send report",
		Fields:  fields,
	}
	form.Bind(errs)
	web.RenderPublic(c, status, "form.html", form.Heading, form)
}
