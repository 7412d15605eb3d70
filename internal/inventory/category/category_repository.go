package category

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
)

type CategoryRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *CategoryRepository {
	return &CategoryRepository{repository: r}
}

func (r *CategoryRepository) query() *goqu.SelectDataset {
	db := r.repository.GoquDBWrapper
	itemCounts := db.From("items").
		Select(goqu.C("category_id"), goqu.COUNT("*").As("n")).
		GroupBy("category_id")
	assetCounts := db.From("assets").
		Select(goqu.C("category_id"), goqu.COUNT("*").As("n")).
		GroupBy("category_id")

	return db.From(goqu.T("categories").As("c")).
		LeftJoin(itemCounts.As("ic"), goqu.On(goqu.I("ic.category_id").Eq(goqu.I("c.id")))).
		LeftJoin(assetCounts.As("ac"), goqu.On(goqu.I("ac.category_id").Eq(goqu.I("c.id")))).
		Select(
			goqu.I("c.id").As("id"),
			goqu.I("c.name").As("name"),
			goqu.I("c.description").As("description"),
			goqu.COALESCE(goqu.I("ic.n"), 0).As("item_count"),
			goqu.COALESCE(goqu.I("ac.n"), 0).As("asset_count"),
			goqu.I("c.created_at").As("created_at"),
		)
}

func (r *CategoryRepository) List(ctx context.Context, search string) ([]models.Category, error) {
	conditions := repository.NewQueryBuilder().Contains(search, "name", "description")
	query := r.query().
		Where(conditions.Build(map[string]string{"name": "c.name", "description": "c.description"})...).
		Order(goqu.I("c.name").Asc())

	var categories []models.Category
	if err := query.ScanStructsContext(ctx, &categories); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id int) (*models.Category, error) {
	var category models.Category
	found, err := r.query().Where(goqu.I("c.id").Eq(id)).ScanStructContext(ctx, &category)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	return &category, nil
}

func (r *CategoryRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "categories", "name", name, excludeID)
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "categories", goqu.Record{
		"name":        category.Name,
		"description": category.Description,
	})
	if err != nil {
		return err
	}
	category.ID = id
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "categories", category.ID, goqu.Record{
		"name":        category.Name,
		"description": category.Description,
		"updated_at":  goqu.L("NOW()"),
	})
}

// CountDependents counts the items and assets that reference the category.
func (r *CategoryRepository) CountDependents(ctx context.Context, id int) (int, error) {
	db := r.repository.GoquDBWrapper
	items, err := repository.CountWhere(ctx, db, "items", goqu.Ex{"category_id": id})
	if err != nil {
		return 0, err
	}
	assets, err := repository.CountWhere(ctx, db, "assets", goqu.Ex{"category_id": id})
	if err != nil {
		return 0, err
	}
	return items + assets, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "categories", id)
}
