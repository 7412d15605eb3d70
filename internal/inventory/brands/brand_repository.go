package brands

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
)

type BrandRepository struct {
	repository *repository.Repository
}

func NewBrandRepository(r *repository.Repository) *BrandRepository {
	return &BrandRepository{repository: r}
}

func (r *BrandRepository) query() *goqu.SelectDataset {
	db := r.repository.GoquDBWrapper
	itemCounts := db.From("items").
		Select(goqu.C("brand_id"), goqu.COUNT("*").As("n")).
		GroupBy("brand_id")

	return db.From(goqu.T("brands").As("b")).
		LeftJoin(itemCounts.As("ic"), goqu.On(goqu.I("ic.brand_id").Eq(goqu.I("b.id")))).
		Select(
			goqu.I("b.id").As("id"),
			goqu.I("b.name").As("name"),
			goqu.I("b.type").As("type"),
			goqu.I("b.spec").As("spec"),
			goqu.COALESCE(goqu.I("ic.n"), 0).As("item_count"),
			goqu.I("b.created_at").As("created_at"),
		)
}

func (r *BrandRepository) List(ctx context.Context, search string) ([]models.Brand, error) {
	conditions := repository.NewQueryBuilder().Contains(search, "name", "type")
	query := r.query().
		Where(conditions.Build(map[string]string{"name": "b.name", "type": "b.type"})...).
		Order(goqu.I("b.name").Asc())

	var brands []models.Brand
	if err := query.ScanStructsContext(ctx, &brands); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return brands, nil
}

func (r *BrandRepository) Get(ctx context.Context, id int) (*models.Brand, error) {
	var brand models.Brand
	found, err := r.query().Where(goqu.I("b.id").Eq(id)).ScanStructContext(ctx, &brand)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	return &brand, nil
}

func (r *BrandRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "brands", "name", name, excludeID)
}

func (r *BrandRepository) Create(ctx context.Context, brand *models.Brand) error {
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "brands", goqu.Record{
		"name": brand.Name,
		"type": brand.Type,
		"spec": brand.Spec,
	})
	if err != nil {
		return err
	}
	brand.ID = id
	return nil
}

func (r *BrandRepository) Update(ctx context.Context, brand *models.Brand) error {
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "brands", brand.ID, goqu.Record{
		"name":       brand.Name,
		"type":       brand.Type,
		"spec":       brand.Spec,
		"updated_at": goqu.L("NOW()"),
	})
}

func (r *BrandRepository) CountDependents(ctx context.Context, id int) (int, error) {
	return repository.CountWhere(ctx, r.repository.GoquDBWrapper, "items", goqu.Ex{"brand_id": id})
}

func (r *BrandRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "brands", id)
}
