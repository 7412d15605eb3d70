package stocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/takdim/inven-go/internal/repository"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/stock"
	"github.com/takdim/inven-go/pkg/validation"
)

// ErrUnknownItem is returned when a ledger row names an item code that does not exist.
var ErrUnknownItem = errors.New("unknown item code")

// MovementFilter narrows a ledger listing. Zero values are ignored.
type MovementFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
	Limit  uint
}

// ItemChoice is an item offered in the ledger form.
type ItemChoice struct {
	Code string `db:"code"`
	Name string `db:"name"`
	Unit string `db:"unit"`
}

type StockRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *StockRepository {
	return &StockRepository{repository: r}
}

// MovementQuery selects ledger rows of direction joined with their item.
func MovementQuery(db *goqu.Database, direction models.Direction) *goqu.SelectDataset {
	return db.From(goqu.T(direction.Table()).As("m")).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.code").Eq(goqu.I("m.item_code")))).
		Select(
			goqu.I("m.id").As("id"),
			goqu.I("m.entry_date").As("entry_date"),
			goqu.I("m.item_code").As("item_code"),
			goqu.I("m.quantity").As("quantity"),
			goqu.I("m.note").As("note"),
			goqu.I("i.name").As("item_name"),
			goqu.I("i.unit").As("item_unit"),
			goqu.I("m.created_at").As("created_at"),
		)
}

// FilterMovements applies filter to a MovementQuery.
func FilterMovements(query *goqu.SelectDataset, filter MovementFilter) *goqu.SelectDataset {
	conditions := repository.NewQueryBuilder().
		Contains(filter.Search, "item_code", "item_name").
		Between("entry_date", filter.From, filter.To)

	query = query.Where(conditions.Build(map[string]string{
		"item_code":  "m.item_code",
		"item_name":  "i.name",
		"entry_date": "m.entry_date",
	})...).
		Order(goqu.I("m.entry_date").Desc(), goqu.I("m.id").Desc())
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query
}

func (r *StockRepository) List(ctx context.Context, direction models.Direction, filter MovementFilter) ([]models.Movement, error) {
	query := FilterMovements(MovementQuery(r.repository.GoquDBWrapper, direction), filter)

	var movements []models.Movement
	if err := query.ScanStructsContext(ctx, &movements); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	for i := range movements {
		movements[i].Direction = direction
	}
	return movements, nil
}

func (r *StockRepository) Get(ctx context.Context, direction models.Direction, id int) (*models.Movement, error) {
	var movement models.Movement
	found, err := MovementQuery(r.repository.GoquDBWrapper, direction).
		Where(goqu.I("m.id").Eq(id)).
		ScanStructContext(ctx, &movement)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.ErrNotFound
	}
	movement.Direction = direction
	return &movement, nil
}

func (r *StockRepository) ItemChoices(ctx context.Context) ([]ItemChoice, error) {
	var choices []ItemChoice
	err := r.repository.GoquDBWrapper.From("items").
		Select("code", "name", "unit").
		Order(goqu.C("code").Asc()).
		ScanStructsContext(ctx, &choices)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return choices, nil
}

func movementRecord(m *models.Movement) goqu.Record {
	return goqu.Record{
		"entry_date": m.Date.Format(validation.DateLayout),
		"item_code":  m.ItemCode,
		"quantity":   m.Quantity,
		"note":       m.Note,
	}
}

// Create appends a ledger row. A stock-out is checked against the ending
// stock while the item row is locked.
func (r *StockRepository) Create(ctx context.Context, m *models.Movement) error {
	return repository.WithTransaction(ctx, r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		totals, err := lockTotals(ctx, tx, m.ItemCode)
		if err != nil {
			return err
		}
		if m.Direction == models.StockOut {
			if err := checkAvailable(m, totals.Ending()); err != nil {
				return err
			}
		}

		var id int
		_, err = tx.Insert(m.Direction.Table()).
			Rows(movementRecord(m)).
			Returning("id").
			Executor().ScanValContext(ctx, &id)
		if err != nil {
			return repository.TranslateError(err)
		}
		m.ID = id
		return nil
	})
}

// Update replaces a ledger row. For a stock-out on the same item the
// replaced quantity counts as available again.
func (r *StockRepository) Update(ctx context.Context, previous, m *models.Movement) error {
	return repository.WithTransaction(ctx, r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		totals, err := lockTotals(ctx, tx, m.ItemCode)
		if err != nil {
			return err
		}
		if m.Direction == models.StockOut {
			available := totals.Ending()
			if previous.ItemCode == m.ItemCode {
				available = totals.AvailableFor(previous.Quantity)
			}
			if err := checkAvailable(m, available); err != nil {
				return err
			}
		}

		result, err := tx.Update(m.Direction.Table()).
			Set(movementRecord(m)).
			Where(goqu.C("id").Eq(m.ID)).
			Executor().ExecContext(ctx)
		if err != nil {
			return repository.TranslateError(err)
		}
		return repository.ExpectAffected(result)
	})
}

func (r *StockRepository) Delete(ctx context.Context, direction models.Direction, id int) error {
	return repository.DeleteByID(ctx, r.repository.GoquDBWrapper, direction.Table(), id)
}

func checkAvailable(m *models.Movement, available int) error {
	if m.Quantity > available {
		return &custom_error.InsufficientStockError{
			ItemCode:  m.ItemCode,
			Available: available,
			Requested: m.Quantity,
		}
	}
	return nil
}

// selector is satisfied by goqu databases, transactions and dialects.
type selector interface {
	From(from ...interface{}) *goqu.SelectDataset
}

func lockItemQuery(db selector, code string) *goqu.SelectDataset {
	return db.From("items").
		Select("opening_stock").
		Where(goqu.C("code").Eq(code)).
		ForUpdate(exp.Wait)
}

func ledgerSumQuery(db selector, direction models.Direction, code string) *goqu.SelectDataset {
	return db.From(direction.Table()).
		Select(goqu.COALESCE(goqu.SUM("quantity"), 0)).
		Where(goqu.C("item_code").Eq(code))
}

// lockTotals locks the item row and sums its ledger inside tx.
func lockTotals(ctx context.Context, tx *goqu.TxDatabase, code string) (stock.Totals, error) {
	var totals stock.Totals
	found, err := lockItemQuery(tx, code).ScanValContext(ctx, &totals.Opening)
	if err != nil {
		return totals, fmt.Errorf("failed to lock item %s: %w", code, err)
	}
	if !found {
		return totals, ErrUnknownItem
	}

	for _, part := range []struct {
		direction models.Direction
		dest      *int
	}{
		{models.StockIn, &totals.In},
		{models.StockOut, &totals.Out},
	} {
		_, err := ledgerSumQuery(tx, part.direction, code).ScanValContext(ctx, part.dest)
		if err != nil {
			return totals, fmt.Errorf("failed to sum %s for %s: %w", part.direction.Table(), code, err)
		}
	}
	return totals, nil
}
