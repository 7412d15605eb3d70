package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/inventory/items"
	"github.com/takdim/inven-go/internal/inventory/stocks"
	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
)

const latestMovements = 5

type CountSource interface {
	Counts(ctx context.Context) (Counts, error)
}

type LowStockSource interface {
	LowStock(ctx context.Context) ([]items.Forecast, error)
}

type MovementSource interface {
	List(ctx context.Context, direction models.Direction, filter stocks.MovementFilter) ([]models.Movement, error)
}

// Overview is everything the dashboard page shows.
type Overview struct {
	Counts    Counts
	LowStock  []items.Forecast
	StockIns  []models.Movement
	StockOuts []models.Movement
}

type DashboardHandler struct {
	counts    CountSource
	lowStock  LowStockSource
	movements MovementSource
	logger    *zap.Logger
}

func NewDashboardHandler(c CountSource, l LowStockSource, m MovementSource, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		counts:    c,
		lowStock:  l,
		movements: m,
		logger:    logger,
	}
}

func (h *DashboardHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/dashboard", security.Authorize(roles.Viewer), h.GetDashboard)
}

func (h *DashboardHandler) Overview(ctx context.Context) (*Overview, error) {
	var (
		o   Overview
		err error
	)
	if o.Counts, err = h.counts.Counts(ctx); err != nil {
		return nil, err
	}
	if o.LowStock, err = h.lowStock.LowStock(ctx); err != nil {
		return nil, err
	}
	if o.StockIns, err = h.movements.List(ctx, models.StockIn, stocks.MovementFilter{Limit: latestMovements}); err != nil {
		return nil, err
	}
	if o.StockOuts, err = h.movements.List(ctx, models.StockOut, stocks.MovementFilter{Limit: latestMovements}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	overview, err := h.Overview(c.Request.Context())
	if err != nil {
		h.logger.Error("Could not load dashboard", zap.Error(err))
		web.ServerError(c)
		return
	}

	view := web.DetailView{
		Heading: "Dashboard",
		Stats: []web.Stat{
			{Label: "Items", Value: strconv.Itoa(overview.Counts.Items), URL: "/items"},
			{Label: "Fixed assets", Value: strconv.Itoa(overview.Counts.Assets), URL: "/assets"},
			{Label: "Categories", Value: strconv.Itoa(overview.Counts.Categories), URL: "/categories"},
			{Label: "Contracts", Value: strconv.Itoa(overview.Counts.Contracts), URL: "/contracts"},
			{Label: "Open damage reports", Value: strconv.Itoa(overview.Counts.OpenDamage), URL: "/damage-reports"},
			{Label: "Low or empty", Value: strconv.Itoa(len(overview.LowStock)), URL: "/items?status=low"},
		},
		Sections: []web.Section{
			{Heading: "Low stock", Table: lowStockTable(overview.LowStock)},
			{Heading: "Latest stock in", Table: movementTable(overview.StockIns)},
			{Heading: "Latest stock out", Table: movementTable(overview.StockOuts)},
		},
	}
	web.Render(c, http.StatusOK, "detail.html", "Dashboard", view)
}

func lowStockTable(forecasts []items.Forecast) web.Table {
	table := web.Table{
		Columns: []string{"Code", "Name", "Ending", "Minimum", "Status", "Runs out"},
		Empty:   "All consumables are above their minimum stock.",
	}
	for _, f := range forecasts {
		status := f.Item.Status()
		runsOut := "No recent usage"
		if p := f.Projection; p != nil {
			if p.Exhausted {
				runsOut = "Out of stock"
			} else {
				runsOut = fmt.Sprintf("in %d days (%s)", p.DaysRemaining, web.FormatDate(p.DepletionDate))
			}
		}
		table.Rows = append(table.Rows, web.Row{Cells: []web.Cell{
			{Text: f.Item.Code, URL: fmt.Sprintf("/items/%d", f.Item.ID)},
			{Text: f.Item.Name},
			{Text: strconv.Itoa(f.Item.Ending()) + " " + f.Item.Unit},
			{Text: strconv.Itoa(f.Item.MinimumStock)},
			{Text: status.Label(), Badge: status.String()},
			{Text: runsOut},
		}})
	}
	return table
}

func movementTable(movements []models.Movement) web.Table {
	table := web.Table{Columns: []string{"Date", "Item", "Quantity"}, Empty: "No transactions yet."}
	for _, m := range movements {
		table.Rows = append(table.Rows, web.Row{Cells: []web.Cell{
			{Text: web.FormatDate(m.Date)},
			{Text: m.ItemCode + " " + m.ItemName},
			{Text: strconv.Itoa(m.Quantity) + " " + m.ItemUnit},
		}})
	}
	return table
}
