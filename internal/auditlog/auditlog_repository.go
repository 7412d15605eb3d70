package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	"github.com/takdim/inven-go/pkg/models"
)

type AuditLogRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AuditLogRepository {
	return &AuditLogRepository{repository: r}
}

func (r *AuditLogRepository) PersistLog(ctx context.Context, auditlog models.AuditLog, auditLogData interface{}) error {
	record := goqu.Record{
		"resource_id":   auditlog.ResourceID,
		"resource_type": auditlog.ResourceType,
		"action":        auditlog.Action,
		"description":   auditlog.Description,
		"user_id":       auditlog.UserID,
		"ip_address":    auditlog.IPAddress,
	}
	if auditLogData != nil {
		dataJSON, err := json.Marshal(auditLogData)
		if err != nil {
			return fmt.Errorf("failed to marshal audit log data: %w", err)
		}
		record["data"] = string(dataJSON)
	}

	_, err := r.repository.GoquDBWrapper.Insert("audit_logs").Rows(record).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// Filter narrows the activity list. Zero values are ignored.
type Filter struct {
	ResourceType string
	ResourceID   int
	UserID       int
	Limit        uint
}

func (r *AuditLogRepository) List(ctx context.Context, filter Filter) ([]models.AuditLog, error) {
	query := r.repository.GoquDBWrapper.
		From(goqu.T("audit_logs").As("a")).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("a.user_id").Eq(goqu.I("u.id")))).
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.resource_id").As("resource_id"),
			goqu.I("a.resource_type").As("resource_type"),
			goqu.I("a.action").As("action"),
			goqu.I("a.description").As("description"),
			goqu.COALESCE(goqu.I("a.data"), goqu.L("'{}'::jsonb")).As("data"),
			goqu.I("a.ip_address").As("ip_address"),
			goqu.I("a.created_at").As("created_at"),
			goqu.I("a.user_id").As("user_id"),
			goqu.I("u.username").As("username"),
		).
		Order(goqu.I("a.created_at").Desc(), goqu.I("a.id").Desc())

	qb := repository.NewQueryBuilder()
	if filter.ResourceType != "" {
		qb.Equal("resource_type", filter.ResourceType)
	}
	if filter.ResourceID > 0 {
		qb.Equal("resource_id", filter.ResourceID)
	}
	if filter.UserID > 0 {
		qb.Equal("user_id", filter.UserID)
	}
	query = query.Where(qb.Build(map[string]string{
		"resource_type": "a.resource_type",
		"resource_id":   "a.resource_id",
		"user_id":       "a.user_id",
	})...)

	limit := filter.Limit
	if limit == 0 {
		limit = 200
	}
	query = query.Limit(limit)

	var logs []models.AuditLog
	if err := query.ScanStructsContext(ctx, &logs); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	for i := range logs {
		logs[i].LoadFromDB()
	}

	return logs, nil
}
