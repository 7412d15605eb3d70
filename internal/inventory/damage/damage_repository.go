package damage

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

// ReportFilter narrows the damage report list. Zero values are ignored.
type ReportFilter struct {
	Search  string
	AssetID int
	Status  string
}

type DamageRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *DamageRepository {
	return &DamageRepository{repository: r}
}

// ReportQuery selects damage reports with their asset and reporter names.
func ReportQuery(db *goqu.Database) *goqu.SelectDataset {
	return db.From(goqu.T("damage_reports").As("d")).
		Join(goqu.T("assets").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("d.asset_id")))).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("d.reporter_id")))).
		Select(
			goqu.I("d.id").As("id"),
			goqu.I("d.asset_id").As("asset_id"),
			goqu.I("d.reporter_id").As("reporter_id"),
			goqu.I("d.discovered_on").As("discovered_on"),
			goqu.I("d.user_name").As("user_name"),
			goqu.I("d.location").As("location"),
			goqu.I("d.quantity").As("quantity"),
			goqu.I("d.damage").As("damage"),
			goqu.I("d.cause").As("cause"),
			goqu.I("d.action_taken").As("action_taken"),
			goqu.I("d.current_condition").As("current_condition"),
			goqu.I("d.impact").As("impact"),
			goqu.I("d.status").As("status"),
			goqu.I("d.created_at").As("created_at"),
			goqu.I("d.updated_at").As("updated_at"),
			goqu.I("a.code").As("asset_code"),
			goqu.I("a.name").As("asset_name"),
			goqu.I("u.full_name").As("reporter_name"),
		)
}

var reportAliases = map[string]string{
	"asset_code": "a.code",
	"asset_name": "a.name",
	"user_name":  "d.user_name",
	"damage":     "d.damage",
	"status":     "d.status",
	"asset_id":   "d.asset_id",
}

func (r *DamageRepository) List(ctx context.Context, filter ReportFilter) ([]models.DamageReportView, error) {
	conditions := repository.NewQueryBuilder().
		Contains(filter.Search, "asset_code", "asset_name", "user_name", "damage")
	if filter.Status != "" {
		conditions.Equal("status", filter.Status)
	}
	if filter.AssetID > 0 {
		conditions.Equal("asset_id", filter.AssetID)
	}

	query := ReportQuery(r.repository.GoquDBWrapper).
		Where(conditions.Build(reportAliases)...).
		Order(goqu.I("d.discovered_on").Desc(), goqu.I("d.id").Desc())

	var reports []models.DamageReportView
	if err := query.ScanStructsContext(ctx, &reports); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return reports, nil
}

func (r *DamageRepository) Get(ctx context.Context, id int) (*models.DamageReportView, error) {
	var report models.DamageReportView
	found, err := ReportQuery(r.repository.GoquDBWrapper).
		Where(goqu.I("d.id").Eq(id)).
		ScanStructContext(ctx, &report)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	return &report, nil
}

func reportRecord(report *models.DamageReport) goqu.Record {
	return goqu.Record{
		"asset_id":          report.AssetID,
		"discovered_on":     report.DiscoveredOn.Format(validation.DateLayout),
		"user_name":         report.UserName,
		"location":          report.Location,
		"quantity":          report.Quantity,
		"damage":            report.Damage,
		"cause":             report.Cause,
		"action_taken":      report.ActionTaken,
		"current_condition": report.CurrentCondition,
		"impact":            report.Impact,
		"status":            report.Status,
	}
}

func (r *DamageRepository) Create(ctx context.Context, report *models.DamageReport) error {
	record := reportRecord(report)
	record["reporter_id"] = report.ReporterID
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "damage_reports", record)
	if err != nil {
		return err
	}
	report.ID = id
	return nil
}

// Update rewrites the report. The reporter is never changed.
func (r *DamageRepository) Update(ctx context.Context, report *models.DamageReport) error {
	record := reportRecord(report)
	record["updated_at"] = goqu.L("NOW()")
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "damage_reports", report.ID, record)
}

func (r *DamageRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "damage_reports", id)
}

func (r *DamageRepository) AssetOptions(ctx context.Context) ([]models.Option, error) {
	return repository.Options(ctx, r.repository.GoquDBWrapper, "assets", goqu.L("code || ' - ' || name"))
}

func (r *DamageRepository) AssetExists(ctx context.Context, id int) (bool, error) {
	count, err := repository.CountWhere(ctx, r.repository.GoquDBWrapper, "assets", goqu.Ex{"id": id})
	return count > 0, err
}
