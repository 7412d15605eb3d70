package contracts

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

// ContractFilter narrows the contract list. Month is only applied together with Year.
type ContractFilter struct {
	Search string
	Year   int
	Month  int
}

type ContractRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ContractRepository {
	return &ContractRepository{repository: r}
}

// SummaryQuery selects contracts with their line count, total quantity and
// total value. Lines without a unit price add nothing to the value.
func SummaryQuery(db *goqu.Database) *goqu.SelectDataset {
	totals := db.From("contract_lines").
		Select(
			goqu.C("contract_id"),
			goqu.COUNT("id").As("line_count"),
			goqu.SUM("quantity").As("total_quantity"),
			goqu.SUM(goqu.L("quantity * COALESCE(unit_price, 0)")).As("total_value"),
		).
		GroupBy("contract_id")

	return db.From(goqu.T("contracts").As("k")).
		LeftJoin(totals.As("t"), goqu.On(goqu.I("t.contract_id").Eq(goqu.I("k.id")))).
		Select(
			goqu.I("k.id").As("id"),
			goqu.I("k.number").As("number"),
			goqu.I("k.contract_date").As("contract_date"),
			goqu.I("k.description").As("description"),
			goqu.I("k.created_at").As("created_at"),
			goqu.COALESCE(goqu.I("t.line_count"), 0).As("line_count"),
			goqu.COALESCE(goqu.I("t.total_quantity"), 0).As("total_quantity"),
			goqu.COALESCE(goqu.I("t.total_value"), 0).As("total_value"),
		)
}

// FilterSummaries applies filter to a SummaryQuery.
func FilterSummaries(query *goqu.SelectDataset, filter ContractFilter) *goqu.SelectDataset {
	conditions := repository.NewQueryBuilder().Contains(filter.Search, "number", "description")
	query = query.Where(conditions.Build(map[string]string{
		"number":      "k.number",
		"description": "k.description",
	})...)

	if filter.Year > 0 {
		query = query.Where(goqu.L("EXTRACT(YEAR FROM ?)", goqu.I("k.contract_date")).Eq(filter.Year))
		if filter.Month > 0 {
			query = query.Where(goqu.L("EXTRACT(MONTH FROM ?)", goqu.I("k.contract_date")).Eq(filter.Month))
		}
	}
	return query.Order(goqu.I("k.contract_date").Desc(), goqu.I("k.id").Desc())
}

// LineQuery selects contract lines joined with their item and contract.
func LineQuery(db *goqu.Database) *goqu.SelectDataset {
	return db.From(goqu.T("contract_lines").As("l")).
		Join(goqu.T("contracts").As("k"), goqu.On(goqu.I("k.id").Eq(goqu.I("l.contract_id")))).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("l.item_id")))).
		Select(
			goqu.I("l.id").As("id"),
			goqu.I("l.item_id").As("item_id"),
			goqu.I("l.contract_id").As("contract_id"),
			goqu.I("l.quantity").As("quantity"),
			goqu.I("l.unit_price").As("unit_price"),
			goqu.I("i.code").As("item_code"),
			goqu.I("i.name").As("item_name"),
			goqu.I("i.unit").As("item_unit"),
			goqu.I("k.number").As("contract_number"),
			goqu.I("k.contract_date").As("contract_date"),
		)
}

func (r *ContractRepository) List(ctx context.Context, filter ContractFilter) ([]models.ContractSummary, error) {
	var contracts []models.ContractSummary
	err := FilterSummaries(SummaryQuery(r.repository.GoquDBWrapper), filter).ScanStructsContext(ctx, &contracts)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return contracts, nil
}

func (r *ContractRepository) Get(ctx context.Context, id int) (*models.ContractSummary, error) {
	var contract models.ContractSummary
	found, err := SummaryQuery(r.repository.GoquDBWrapper).
		Where(goqu.I("k.id").Eq(id)).
		ScanStructContext(ctx, &contract)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	return &contract, nil
}

func (r *ContractRepository) NumberExists(ctx context.Context, number string, excludeID int) (bool, error) {
	return repository.ExistsExcept(ctx, r.repository.GoquDBWrapper, "contracts", "number", number, excludeID)
}

func contractRecord(contract *models.Contract) goqu.Record {
	return goqu.Record{
		"number":        contract.Number,
		"contract_date": contract.Date.Format(validation.DateLayout),
		"description":   contract.Description,
	}
}

func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "contracts", contractRecord(contract))
	if err != nil {
		return err
	}
	contract.ID = id
	return nil
}

func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	return repository.UpdateByID(ctx, r.repository.GoquDBWrapper, "contracts", contract.ID, contractRecord(contract))
}

// Delete removes the contract and its lines.
func (r *ContractRepository) Delete(ctx context.Context, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, "contracts", id)
}

func (r *ContractRepository) Lines(ctx context.Context, contractID int) ([]models.ContractLine, error) {
	var lines []models.ContractLine
	err := LineQuery(r.repository.GoquDBWrapper).
		Where(goqu.I("l.contract_id").Eq(contractID)).
		Order(goqu.I("i.code").Asc()).
		ScanStructsContext(ctx, &lines)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return lines, nil
}

func (r *ContractRepository) LineExists(ctx context.Context, contractID, itemID int) (bool, error) {
	count, err := repository.CountWhere(ctx, r.repository.GoquDBWrapper, "contract_lines", goqu.Ex{
		"contract_id": contractID,
		"item_id":     itemID,
	})
	return count > 0, err
}

func (r *ContractRepository) AddLine(ctx context.Context, line *models.ContractLine) error {
	record := goqu.Record{
		"contract_id": line.ContractID,
		"item_id":     line.ItemID,
		"quantity":    line.Quantity,
		"unit_price":  line.UnitPrice,
	}
	id, err := repository.InsertReturningID(ctx, r.repository.GoquDBWrapper, "contract_lines", record)
	if err != nil {
		return err
	}
	line.ID = id
	return nil
}

// DeleteLine removes a line only when it belongs to contractID.
func (r *ContractRepository) DeleteLine(ctx context.Context, contractID, lineID int) error {
	result, err := r.repository.GoquDBWrapper.Delete("contract_lines").
		Where(goqu.C("id").Eq(lineID), goqu.C("contract_id").Eq(contractID)).
		Executor().ExecContext(ctx)
	if err != nil {
		return repository.TranslateError(err)
	}
	return repository.ExpectAffected(result)
}

func (r *ContractRepository) ItemOptions(ctx context.Context) ([]models.Option, error) {
	return repository.Options(ctx, r.repository.GoquDBWrapper, "items", goqu.L("code || ' - ' || name"))
}
