package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/inventory/assets"
	"github.com/takdim/inven-go/internal/inventory/contracts"
	"github.com/takdim/inven-go/internal/inventory/items"
	"github.com/takdim/inven-go/internal/inventory/stocks"
	"github.com/takdim/inven-go/internal/web"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
	"github.com/takdim/inven-go/pkg/stock"
)

const (
	excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType   = "application/pdf"
)

type ItemLister interface {
	List(ctx context.Context, filter items.ItemFilter) ([]models.ItemStock, error)
}

type ItemCatalog interface {
	CategoryOptions(ctx context.Context) ([]models.Option, error)
	BrandOptions(ctx context.Context) ([]models.Option, error)
}

type ContractLister interface {
	List(ctx context.Context, filter contracts.ContractFilter) ([]models.ContractSummary, error)
}

type MovementLister interface {
	List(ctx context.Context, direction models.Direction, filter stocks.MovementFilter) ([]models.Movement, error)
}

type AssetLister interface {
	List(ctx context.Context, filter assets.AssetFilter) ([]models.AssetView, error)
	CategoryOptions(ctx context.Context) ([]models.Option, error)
	AssetBrandOptions(ctx context.Context) ([]models.Option, error)
}

type DamageLoader interface {
	Get(ctx context.Context, id int) (*models.DamageReportView, error)
}

// Sources are the read models the reports are built from.
type Sources struct {
	Items     ItemLister
	Catalog   ItemCatalog
	Contracts ContractLister
	Movements MovementLister
	Assets    AssetLister
	Damage    DamageLoader
}

// builder loads one report for the current request together with the filter
// fields of its page.
type builder func(c *gin.Context) (*Report, []web.Field, error)

type ReportHandler struct {
	sources    Sources
	letterhead Letterhead
	logger     *zap.Logger
	now        func() time.Time
}

func NewReportHandler(s Sources, head Letterhead, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{sources: s, letterhead: head, logger: logger, now: time.Now}
}

var catalog = []struct {
	path, title, description string
}{
	{"/reports/items", "Items", "Stock per item with opening, in, out, ending and status."},
	{"/reports/contracts", "Contracts", "Contracts with line counts, quantities and value."},
	{"/reports/stock-in", "Stock in", "Incoming stock entries in a date range."},
	{"/reports/stock-out", "Stock out", "Outgoing stock entries in a date range."},
	{"/reports/assets", "Fixed assets", "Fixed assets with location and assigned user."},
}

func (h *ReportHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/reports", security.Authorize(roles.Viewer), h.Index)
	h.register(router, "/reports/items", h.itemsReport)
	h.register(router, "/reports/contracts", h.contractsReport)
	h.register(router, "/reports/stock-in", h.movementsReport(models.StockIn))
	h.register(router, "/reports/stock-out", h.movementsReport(models.StockOut))
	h.register(router, "/reports/assets", h.assetsReport)
	router.GET("/damage-reports/:id/letter", security.Authorize(roles.Viewer), h.DamageLetter)
}

func (h *ReportHandler) register(router gin.IRouter, path string, build builder) {
	router.GET(path, security.Authorize(roles.Viewer), func(c *gin.Context) { h.page(c, path, build) })
	router.GET(path+"/excel", security.Authorize(roles.Viewer), func(c *gin.Context) { h.excel(c, build) })
	router.GET(path+"/pdf", security.Authorize(roles.Viewer), func(c *gin.Context) { h.pdf(c, build) })
}

func (h *ReportHandler) Index(c *gin.Context) {
	table := web.Table{Columns: []string{"Report", "Description"}}
	for _, entry := range catalog {
		table.Rows = append(table.Rows, web.Row{
			Cells: []web.Cell{
				{Text: entry.title, URL: entry.path},
				{Text: entry.description},
			},
			Actions: []web.Action{
				{Label: "Excel", URL: entry.path + "/excel"},
				{Label: "PDF", URL: entry.path + "/pdf"},
			},
		})
	}
	web.Render(c, http.StatusOK, "list.html", "Reports", web.ListView{Heading: "Reports", Table: table})
}

func (h *ReportHandler) page(c *gin.Context, path string, build builder) {
	report, filters, ok := h.build(c, build)
	if !ok {
		return
	}

	table := web.Table{Empty: "No data matches the filters."}
	for _, col := range report.Columns {
		table.Columns = append(table.Columns, col.Header)
	}
	for _, values := range report.Rows {
		row := web.Row{}
		for _, value := range values {
			row.Cells = append(row.Cells, web.Cell{Text: Text(value)})
		}
		table.Rows = append(table.Rows, row)
	}
	if len(report.Rows) > 0 {
		for _, value := range report.Summary {
			table.Footer = append(table.Footer, web.Cell{Text: Text(value)})
		}
	}

	view := web.ListView{
		Heading: report.Title,
		Filters: filters,
		Exports: []web.Action{
			{Label: "Excel", URL: web.WithQuery(c, path+"/excel")},
			{Label: "PDF", URL: web.WithQuery(c, path+"/pdf")},
		},
		Stats: []web.Stat{{Label: "Rows", Value: strconv.Itoa(len(report.Rows))}},
		Table: table,
	}
	web.Render(c, http.StatusOK, "list.html", report.Title, view)
}

func (h *ReportHandler) excel(c *gin.Context, build builder) {
	report, _, ok := h.build(c, build)
	if !ok {
		return
	}
	data, err := Excel(report, SystemName)
	if err != nil {
		h.logger.Error("Could not render excel report", zap.String("report", report.Name), zap.Error(err))
		web.ServerError(c)
		return
	}
	attachment(c, report.Filename("xlsx"), excelContentType, data)
}

func (h *ReportHandler) pdf(c *gin.Context, build builder) {
	report, _, ok := h.build(c, build)
	if !ok {
		return
	}
	data, err := PDF(report, h.letterhead)
	if err != nil {
		h.logger.Error("Could not render pdf report", zap.String("report", report.Name), zap.Error(err))
		web.ServerError(c)
		return
	}
	attachment(c, report.Filename("pdf"), pdfContentType, data)
}

func (h *ReportHandler) build(c *gin.Context, build builder) (*Report, []web.Field, bool) {
	report, filters, err := build(c)
	if err != nil {
		h.logger.Error("Could not build report", zap.String("path", c.FullPath()), zap.Error(err))
		web.ServerError(c)
		return nil, nil, false
	}
	return report, filters, true
}

func (h *ReportHandler) DamageLetter(c *gin.Context) {
	id, ok := web.ParamID(c, "id", "Damage report")
	if !ok {
		return
	}
	report, err := h.sources.Damage.Get(c.Request.Context(), id)
	if errors.Is(err, custom_error.ErrNotFound) {
		web.NotFound(c, "Damage report")
		return
	}
	if err != nil {
		h.logger.Error("Could not load damage report", zap.Int("damage_report_id", id), zap.Error(err))
		web.ServerError(c)
		return
	}

	now := h.now()
	data, err := DamageLetter(report, h.letterhead, now)
	if err != nil {
		h.logger.Error("Could not render damage letter", zap.Int("damage_report_id", id), zap.Error(err))
		web.ServerError(c)
		return
	}
	attachment(c, LetterFilename(report, now), pdfContentType, data)
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *ReportHandler) itemsReport(c *gin.Context) (*Report, []web.Field, error) {
	ctx := c.Request.Context()
	var query items.ListQuery
	_ = c.ShouldBindQuery(&query)
	filter := query.Filter()
	filter.Search, filter.Kind = "", ""

	list, err := h.sources.Items.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list items: %w", err)
	}
	categories, err := h.sources.Catalog.CategoryOptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load categories: %w", err)
	}
	brands, err := h.sources.Catalog.BrandOptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load brands: %w", err)
	}

	var info []Info
	info = appendOption(info, "Category", categories, filter.CategoryID)
	info = appendOption(info, "Brand", brands, filter.BrandID)
	if status, err := stock.NewStatus(filter.Status); err == nil {
		info = append(info, Info{Label: "Status", Value: status.Label()})
	}

	fields := []web.Field{
		web.SelectField("category", "Category", web.IDOptions(categories, filter.CategoryID, "All categories"), false),
		web.SelectField("brand", "Brand", web.IDOptions(brands, filter.BrandID, "All brands"), false),
		web.SelectField("status", "Status", statusOptions(filter.Status), false),
	}
	return ItemsReport(list, info, h.now()), fields, nil
}

func (h *ReportHandler) contractsReport(c *gin.Context) (*Report, []web.Field, error) {
	var query contracts.ListQuery
	_ = c.ShouldBindQuery(&query)
	filter := query.Filter()
	filter.Search = ""

	list, err := h.sources.Contracts.List(c.Request.Context(), filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	var info []Info
	if filter.Year > 0 {
		period := strconv.Itoa(filter.Year)
		if filter.Month > 0 {
			period = time.Month(filter.Month).String() + " " + period
		}
		info = append(info, Info{Label: "Period", Value: period})
	}

	fields := []web.Field{
		{Name: "year", Label: "Year", Type: "number", Value: positive(filter.Year)},
		web.SelectField("month", "Month", monthOptions(filter.Month), false),
	}
	return ContractsReport(list, info, h.now()), fields, nil
}

func (h *ReportHandler) movementsReport(direction models.Direction) builder {
	return func(c *gin.Context) (*Report, []web.Field, error) {
		var query stocks.ListQuery
		_ = c.ShouldBindQuery(&query)
		filter := query.Filter()

		list, err := h.sources.Movements.List(c.Request.Context(), direction, filter)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list %s: %w", direction.Table(), err)
		}

		var info []Info
		if filter.Search != "" {
			info = append(info, Info{Label: "Item code", Value: filter.Search})
		}
		if filter.From != nil {
			info = append(info, Info{Label: "From", Value: filter.From.Format("02/01/2006")})
		}
		if filter.To != nil {
			info = append(info, Info{Label: "To", Value: filter.To.Format("02/01/2006")})
		}

		fields := []web.Field{
			web.DateField("from", "From", web.FormatDatePtr(filter.From), false),
			web.DateField("to", "To", web.FormatDatePtr(filter.To), false),
			{Name: "q", Label: "Item code", Type: "text", Value: filter.Search},
		}
		return MovementsReport(direction, list, filter.From, filter.To, info, h.now()), fields, nil
	}
}

func (h *ReportHandler) assetsReport(c *gin.Context) (*Report, []web.Field, error) {
	ctx := c.Request.Context()
	var query assets.ListQuery
	_ = c.ShouldBindQuery(&query)
	filter := query.Filter()
	filter.Search = ""

	list, err := h.sources.Assets.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list assets: %w", err)
	}
	categories, err := h.sources.Assets.CategoryOptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load categories: %w", err)
	}
	brands, err := h.sources.Assets.AssetBrandOptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load asset brands: %w", err)
	}

	var info []Info
	info = appendOption(info, "Category", categories, filter.CategoryID)
	info = appendOption(info, "Asset brand", brands, filter.AssetBrandID)

	fields := []web.Field{
		web.SelectField("category", "Category", web.IDOptions(categories, filter.CategoryID, "All categories"), false),
		web.SelectField("asset_brand", "Asset brand", web.IDOptions(brands, filter.AssetBrandID, "All asset brands"), false),
	}
	return AssetsReport(list, info, h.now()), fields, nil
}

// appendOption adds the label of the selected option as a filter line.
func appendOption(info []Info, label string, options []models.Option, selected int) []Info {
	for _, option := range options {
		if selected > 0 && option.ID == selected {
			return append(info, Info{Label: label, Value: option.Label})
		}
	}
	return info
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

func monthOptions(selected int) []web.Option {
	values := []string{""}
	labels := []string{"All months"}
	for m := time.January; m <= time.December; m++ {
		values = append(values, strconv.Itoa(int(m)))
		labels = append(labels, m.String())
	}
	return web.ValueOptions(values, labels, positive(selected))
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
