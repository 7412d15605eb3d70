package users

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/auditlog"
	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
	"github.com/takdim/inven-go/pkg/security"
)

type ActivityRepository interface {
	List(ctx context.Context, filter auditlog.Filter) ([]models.AuditLog, error)
}

type UserOptions interface {
	Options(ctx context.Context) ([]models.Option, error)
}

var resourceTypes = []string{
	"", "item", "asset", "category", "brand", "asset_brand", "contract", "contract_line",
	"stock_in", "stock_out", "damage_report", "user",
}

var resourceLabels = []string{
	"All resources", "Items", "Assets", "Categories", "Brands", "Asset brands", "Contracts", "Contract lines",
	"Stock in", "Stock out", "Damage reports", "Users",
}

type ActivityHandler struct {
	repository ActivityRepository
	users      UserOptions
	logger     *zap.Logger
}

func NewActivityHandler(r ActivityRepository, users UserOptions, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{repository: r, users: users, logger: logger}
}

func (h *ActivityHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/activity", security.Authorize(roles.Admin), h.ListActivity)
}

func (h *ActivityHandler) ListActivity(c *gin.Context) {
	ctx := c.Request.Context()
	var query activityQuery
	_ = c.ShouldBindQuery(&query)

	logs, err := h.repository.List(ctx, auditlog.Filter{ResourceType: query.ResourceType, UserID: query.UserID})
	if err != nil {
		h.logger.Error("Could not obtain activity log", zap.Error(err))
		web.ServerError(c)
		return
	}
	userOptions, err := h.users.Options(ctx)
	if err != nil {
		h.logger.Error("Could not obtain user options", zap.Error(err))
		web.ServerError(c)
		return
	}

	table := web.Table{
		Columns: []string{"Time", "User", "Action", "Resource", "Description", "IP"},
		Empty:   "No activity recorded yet.",
	}
	for _, entry := range logs {
		user := web.Dash(entry.Username)
		if entry.UserID == nil {
			user = "Public"
		}
		resource := entry.ResourceType
		if entry.ResourceID > 0 {
			resource += " #" + strconv.Itoa(entry.ResourceID)
		}
		table.Rows = append(table.Rows, web.Row{Cells: []web.Cell{
			{Text: web.FormatTime(&entry.CreatedAt)},
			{Text: user},
			{Text: entry.Action, Badge: actionBadge(entry.Action)},
			{Text: resource},
			{Text: entry.Description},
			{Text: web.Dash(entry.IPAddress)},
		}})
	}

	web.Render(c, http.StatusOK, "list.html", "Activity", web.ListView{
		Heading: "Activity log",
		Filters: []web.Field{
			web.SelectField("resource", "Resource", web.ValueOptions(resourceTypes, resourceLabels, query.ResourceType), false),
			web.SelectField("user", "User", web.IDOptions(userOptions, query.UserID, "All users"), false),
		},
		Stats: []web.Stat{{Label: "Entries", Value: strconv.Itoa(len(logs))}},
		Table: table,
	})
}

func actionBadge(action string) string {
	switch action {
	case "create":
		return "safe"
	case "delete":
		return "empty"
	case "update":
		return "reorder"
	default:
		return ""
	}
}
