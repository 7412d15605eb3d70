package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/inventory/damage"
	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

// AssetFilter narrows the asset list. Zero values are ignored.
type AssetFilter struct {
	Search       string
	CategoryID   int
	AssetBrandID int
}

type AssetRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AssetRepository {
	return &AssetRepository{repository: r}
}

// ViewQuery selects assets with their category, brand and damage report count.
func ViewQuery(db *goqu.Database) *goqu.SelectDataset {
	reports := db.From("damage_reports").
		Select(goqu.C("asset_id"), goqu.COUNT("id").As("total")).
		GroupBy("asset_id")

	return db.From(goqu.T("assets").As("a")).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("a.category_id")))).
		LeftJoin(goqu.T("asset_brands").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("a.asset_brand_id")))).
		LeftJoin(reports.As("dr"), goqu.On(goqu.I("dr.asset_id").Eq(goqu.I("a.id")))).
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.code").As("code"),
			goqu.I("a.name").As("name"),
			goqu.I("a.category_id").As("category_id"),
			goqu.I("a.asset_brand_id").As("asset_brand_id"),
			goqu.I("a.spec").As("spec"),
			goqu.I("a.unit").As("unit"),
			goqu.I("a.contract_number").As("contract_number"),
			goqu.I("a.contract_date").As("contract_date"),
			goqu.I("a.location").As("location"),
			goqu.I("a.user_name").As("user_name"),
			goqu.I("a.unit_count").As("unit_count"),
			goqu.I("a.created_at").As("created_at"),
			goqu.I("a.updated_at").As("updated_at"),
			goqu.I("c.name").As("category_name"),
			goqu.I("b.name").As("asset_brand_name"),
			goqu.COALESCE(goqu.I("dr.total"), 0).As("damage_reports"),
		)
}

// FilterAssets applies filter to a ViewQuery, newest first.
func FilterAssets(query *goqu.SelectDataset, filter AssetFilter) *goqu.SelectDataset {
	conditions := repository.NewQueryBuilder().Contains(filter.Search, "code", "name", "user_name", "location")
	if filter.CategoryID > 0 {
		conditions.Equal("category_id", filter.CategoryID)
	}
	if filter.AssetBrandID > 0 {
		conditions.Equal("asset_brand_id", filter.AssetBrandID)
	}

	return query.Where(conditions.Build(map[string]string{
		"code":           "a.code",
		"name":           "a.name",
		"user_name":      "a.user_name",
		"location":       "a.location",
		"category_id":    "a.category_id",
		"asset_brand_id": "a.asset_brand_id",
	})...).
		Order(goqu.I("a.created_at").Desc(), goqu.I("a.id").Desc())
}

func (r *AssetRepository) List(ctx context.Context, filter AssetFilter) ([]models.AssetView, error) {
	var assets []models.AssetView
	err := FilterAssets(ViewQuery(r.repository.GoquDBWrapper), filter).ScanStructsContext(ctx, &assets)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return assets, nil
}

func (r *AssetRepository) Get(ctx context.Context, id int) (*models.AssetView, error) {
	var asset models.AssetView
	found, err := ViewQuery(r.repository.GoquDBWrapper).
		Where(goqu.I("a.id").Eq(id)).
		ScanStructContext(ctx, &asset)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	return &asset, nil
}

func (r *AssetRepository) CodeExists(ctx context.Context, code string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "assets", "code", code, excludeID)
}

func assetRecord(asset *models.Asset) goqu.Record {
	record := goqu.Record{
		"code":            asset.Code,
		"name":            asset.Name,
		"category_id":     asset.CategoryID,
		"asset_brand_id":  asset.AssetBrandID,
		"spec":            asset.Spec,
		"unit":            asset.Unit,
		"contract_number": asset.ContractNumber,
		"contract_date":   nil,
		"location":        asset.Location,
		"user_name":       asset.UserName,
		"unit_count":      asset.UnitCount,
	}
	if asset.ContractDate != nil {
		record["contract_date"] = asset.ContractDate.Format(validation.DateLayout)
	}
	return record
}

func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "assets", assetRecord(asset))
	if err != nil {
		return err
	}
	asset.ID = id
	return nil
}

func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	record := assetRecord(asset)
	record["updated_at"] = goqu.L("NOW()")
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "assets", asset.ID, record)
}

// Delete removes the asset together with its damage reports.
func (r *AssetRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "assets", id)
}

func (r *AssetRepository) CategoryOptions(ctx context.Context) ([]models.Option, error) {
	return repository.Options(ctx, r.repository.GoquDBWrapper, "categories", goqu.C("name"))
}

func (r *AssetRepository) AssetBrandOptions(ctx context.Context) ([]models.Option, error) {
	return repository.Options(ctx, r.repository.GoquDBWrapper, "asset_brands", goqu.C("name"))
}

func (r *AssetRepository) DamageReports(ctx context.Context, assetID int) ([]models.DamageReportView, error) {
	var reports []models.DamageReportView
	err := damage.ReportQuery(r.repository.GoquDBWrapper).
		Where(goqu.I("d.asset_id").Eq(assetID)).
		Order(goqu.I("d.discovered_on").Desc(), goqu.I("d.id").Desc()).
		ScanStructsContext(ctx, &reports)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return reports, nil
}

// AssignedTo lists assets whose user name matches name, ignoring case and
// surrounding spaces.
func (r *AssetRepository) AssignedTo(ctx context.Context, name string) ([]models.AssignedAsset, error) {
	var assets []models.AssignedAsset
	err := r.repository.GoquDBWrapper.From(goqu.T("assets").As("a")).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("a.category_id")))).
		LeftJoin(goqu.T("asset_brands").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("a.asset_brand_id")))).
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.code").As("code"),
			goqu.I("a.name").As("name"),
			goqu.I("a.location").As("location"),
			goqu.I("c.name").As("category_name"),
			goqu.I("b.name").As("asset_brand_name"),
			goqu.I("a.unit_count").As("unit_count"),
		).
		Where(goqu.L("LOWER(TRIM(?))", goqu.I("a.user_name")).Eq(strings.ToLower(strings.TrimSpace(name)))).
		Order(goqu.I("a.code").Asc()).
		ScanStructsContext(ctx, &assets)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return assets, nil
}
