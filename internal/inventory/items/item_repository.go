package items

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/inventory/contracts"
	"github.com/takdim/inven-go/internal/inventory/stocks"
	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

// ItemFilter narrows the item list. Zero values are ignored.
type ItemFilter struct {
	Search     string
	CategoryID int
	BrandID    int
	Kind       string
	Status     string
}

type ItemRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ItemRepository {
	return &ItemRepository{repository: r}
}

// StockQuery selects items with their ending-stock inputs. The ledger sums
// are grouped subqueries joined by item code so each item appears once.
func StockQuery(db *goqu.Database) *goqu.SelectDataset {
	stockIn := db.From("stock_in").
		Select(goqu.C("item_code"), goqu.SUM("quantity").As("total")).
		GroupBy("item_code")
	stockOut := db.From("stock_out").
		Select(goqu.C("item_code"), goqu.SUM("quantity").As("total")).
		GroupBy("item_code")

	return db.From(goqu.T("items").As("i")).
		LeftJoin(stockIn.As("si"), goqu.On(goqu.I("si.item_code").Eq(goqu.I("i.code")))).
		LeftJoin(stockOut.As("so"), goqu.On(goqu.I("so.item_code").Eq(goqu.I("i.code")))).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("i.category_id")))).
		LeftJoin(goqu.T("brands").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("i.brand_id")))).
		Select(
			goqu.I("i.id").As("id"),
			goqu.I("i.code").As("code"),
			goqu.I("i.name").As("name"),
			goqu.I("i.unit").As("unit"),
			goqu.I("i.secondary_unit").As("secondary_unit"),
			goqu.I("i.kind").As("kind"),
			goqu.I("i.opening_stock").As("opening_stock"),
			goqu.I("i.minimum_stock").As("minimum_stock"),
			goqu.I("i.category_id").As("category_id"),
			goqu.I("i.brand_id").As("brand_id"),
			goqu.I("i.spec").As("spec"),
			goqu.I("i.created_at").As("created_at"),
			goqu.I("i.updated_at").As("updated_at"),
			goqu.I("c.name").As("category_name"),
			goqu.I("b.name").As("brand_name"),
			goqu.COALESCE(goqu.I("si.total"), 0).As("total_in"),
			goqu.COALESCE(goqu.I("so.total"), 0).As("total_out"),
		)
}

var itemAliases = map[string]string{
	"code":        "i.code",
	"name":        "i.name",
	"category_id": "i.category_id",
	"brand_id":    "i.brand_id",
	"kind":        "i.kind",
}

func (r *ItemRepository) List(ctx context.Context, filter ItemFilter) ([]models.ItemStock, error) {
	conditions := repository.NewQueryBuilder().Contains(filter.Search, "code", "name")
	if filter.CategoryID > 0 {
		conditions.Equal("category_id", filter.CategoryID)
	}
	if filter.BrandID > 0 {
		conditions.Equal("brand_id", filter.BrandID)
	}
	if filter.Kind != "" {
		conditions.Equal("kind", filter.Kind)
	}

	query := StockQuery(r.repository.GoquDBWrapper).
		Where(conditions.Build(itemAliases)...).
		Order(goqu.I("i.code").Asc())

	var items []models.ItemStock
	if err := query.ScanStructsContext(ctx, &items); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Get(ctx context.Context, id int) (*models.ItemStock, error) {
	var item models.ItemStock
	found, err := StockQuery(r.repository.GoquDBWrapper).
		Where(goqu.I("i.id").Eq(id)).
		ScanStructContext(ctx, &item)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	return &item, nil
}

func (r *ItemRepository) CodeExists(ctx context.Context, code string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "items", "code", code, excludeID)
}

func itemRecord(item *models.Item) goqu.Record {
	return goqu.Record{
		"code":           item.Code,
		"name":           item.Name,
		"unit":           item.Unit,
		"secondary_unit": item.SecondaryUnit,
		"kind":           item.Kind,
		"opening_stock":  item.OpeningStock,
		"minimum_stock":  item.MinimumStock,
		"category_id":    item.CategoryID,
		"brand_id":       item.BrandID,
		"spec":           item.Spec,
	}
}

func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "items", itemRecord(item))
	if err != nil {
		return err
	}
	item.ID = id
	return nil
}

// Update rewrites the item. A changed code cascades to its ledger rows.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	record := itemRecord(item)
	record["updated_at"] = goqu.L("NOW()")
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "items", item.ID, record)
}

// Delete removes the item together with its ledger and contract lines.
func (r *ItemRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "items", id)
}

func (r *ItemRepository) CategoryOptions(ctx context.Context) ([]models.Option, error) {
	return repository.Options(ctx, r.repository.GoquDBWrapper, "categories", goqu.C("name"))
}

func (r *ItemRepository) BrandOptions(ctx context.Context) ([]models.Option, error) {
	return repository.Options(ctx, r.repository.GoquDBWrapper, "brands", goqu.C("name"))
}

func (r *ItemRepository) RecentMovements(ctx context.Context, code string, direction models.Direction, limit uint) ([]models.Movement, error) {
	query := stocks.FilterMovements(
		stocks.MovementQuery(r.repository.GoquDBWrapper, direction).Where(goqu.I("m.item_code").Eq(code)),
		stocks.MovementFilter{Limit: limit},
	)

	var movements []models.Movement
	if err := query.ScanStructsContext(ctx, &movements); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	for i := range movements {
		movements[i].Direction = direction
	}
	return movements, nil
}

// OutBetween sums stock-out quantities dated within [from, to], per item
// code. With no codes every item is included.
func (r *ItemRepository) OutBetween(ctx context.Context, from, to time.Time, codes ...string) (map[string]int, error) {
	type row struct {
		Code  string `db:"item_code"`
		Total int    `db:"total"`
	}

	query := r.repository.GoquDBWrapper.From("stock_out").
		Select(goqu.C("item_code"), goqu.SUM("quantity").As("total")).
		Where(
			goqu.C("entry_date").Gte(from.Format(validation.DateLayout)),
			goqu.C("entry_date").Lte(to.Format(validation.DateLayout)),
		).
		GroupBy("item_code")
	if len(codes) > 0 {
		query = query.Where(goqu.C("item_code").In(codes))
	}

	var rows []row
	if err := query.ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	totals := make(map[string]int, len(rows))
	for _, row := range rows {
		totals[row.Code] = row.Total
	}
	return totals, nil
}

func (r *ItemRepository) ContractLines(ctx context.Context, itemID int) ([]models.ContractLine, error) {
	var lines []models.ContractLine
	err := contracts.LineQuery(r.repository.GoquDBWrapper).
		Where(goqu.I("l.item_id").Eq(itemID)).
		Order(goqu.I("k.contract_date").Desc()).
		ScanStructsContext(ctx, &lines)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return lines, nil
}
