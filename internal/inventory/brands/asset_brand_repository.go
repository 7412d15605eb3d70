package brands

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
)

type AssetBrandRepository struct {
	repository *repository.Repository
}

func NewAssetBrandRepository(r *repository.Repository) *AssetBrandRepository {
	return &AssetBrandRepository{repository: r}
}

type assetBrandRow struct {
	models.AssetBrand
	ContractAssets int `db:"contract_assets"`
	TotalAssets    int `db:"total_assets"`
}

// AssetCount counts the assets bought under the brand's contract, or every
// asset of the brand when none matches the contract number.
func AssetCount(contractAssets, totalAssets int) int {
	if contractAssets > 0 {
		return contractAssets
	}
	return totalAssets
}

func (r *AssetBrandRepository) query() *goqu.SelectDataset {
	db := r.repository.GoquDBWrapper
	totals := db.From("assets").
		Select(goqu.C("asset_brand_id"), goqu.COUNT("*").As("n")).
		GroupBy("asset_brand_id")
	contractTotals := db.From(goqu.T("assets").As("a")).
		Join(goqu.T("asset_brands").As("ab"), goqu.On(
			goqu.I("ab.id").Eq(goqu.I("a.asset_brand_id")),
			goqu.I("ab.contract_number").Eq(goqu.I("a.contract_number")),
		)).
		Select(goqu.I("a.asset_brand_id").As("asset_brand_id"), goqu.COUNT("*").As("n")).
		GroupBy(goqu.I("a.asset_brand_id"))

	return db.From(goqu.T("asset_brands").As("b")).
		LeftJoin(totals.As("t"), goqu.On(goqu.I("t.asset_brand_id").Eq(goqu.I("b.id")))).
		LeftJoin(contractTotals.As("ct"), goqu.On(goqu.I("ct.asset_brand_id").Eq(goqu.I("b.id")))).
		Select(
			goqu.I("b.id").As("id"),
			goqu.I("b.name").As("name"),
			goqu.I("b.type").As("type"),
			goqu.I("b.acquisition_date").As("acquisition_date"),
			goqu.I("b.contract_number").As("contract_number"),
			goqu.I("b.spec").As("spec"),
			goqu.L("0").As("asset_count"),
			goqu.I("b.created_at").As("created_at"),
			goqu.COALESCE(goqu.I("ct.n"), 0).As("contract_assets"),
			goqu.COALESCE(goqu.I("t.n"), 0).As("total_assets"),
		)
}

func (r *AssetBrandRepository) scan(ctx context.Context, query *goqu.SelectDataset) ([]models.AssetBrand, error) {
	var rows []assetBrandRow
	if err := query.ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	brands := make([]models.AssetBrand, 0, len(rows))
	for _, row := range rows {
		brand := row.AssetBrand
		brand.AssetCount = AssetCount(row.ContractAssets, row.TotalAssets)
		brands = append(brands, brand)
	}
	return brands, nil
}

func (r *AssetBrandRepository) List(ctx context.Context, search string) ([]models.AssetBrand, error) {
	conditions := repository.NewQueryBuilder().Contains(search, "name", "type", "contract_number")
	query := r.query().
		Where(conditions.Build(map[string]string{
			"name":            "b.name",
			"type":            "b.type",
			"contract_number": "b.contract_number",
		})...).
		Order(goqu.I("b.created_at").Desc())

	return r.scan(ctx, query)
}

func (r *AssetBrandRepository) Get(ctx context.Context, id int) (*models.AssetBrand, error) {
	brands, err := r.scan(ctx, r.query().Where(goqu.I("b.id").Eq(id)))
	if err != nil {
		return nil, err
	}
	if len(brands) == 0 {
		return nil, custom_error.ErrNotFound
	}
	return &brands[0], nil
}

func (r *AssetBrandRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "asset_brands", "name", name, excludeID)
}

func (r *AssetBrandRepository) record(brand *models.AssetBrand) goqu.Record {
	return goqu.Record{
		"name":             brand.Name,
		"type":             brand.Type,
		"acquisition_date": brand.AcquisitionDate,
		"contract_number":  brand.ContractNumber,
		"spec":             brand.Spec,
	}
}

func (r *AssetBrandRepository) Create(ctx context.Context, brand *models.AssetBrand) error {
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "asset_brands", r.record(brand))
	if err != nil {
		return err
	}
	brand.ID = id
	return nil
}

func (r *AssetBrandRepository) Update(ctx context.Context, brand *models.AssetBrand) error {
	record := r.record(brand)
	record["updated_at"] = goqu.L("NOW()")
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "asset_brands", brand.ID, record)
}

func (r *AssetBrandRepository) CountDependents(ctx context.Context, id int) (int, error) {
	return repository.CountWhere(ctx, r.repository.GoquDBWrapper, "assets", goqu.Ex{"asset_brand_id": id})
}

func (r *AssetBrandRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "asset_brands", id)
}
