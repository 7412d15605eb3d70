package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
)

// Repository holds the shared database handle. Domain repositories embed or
// wrap it and pass the request context to every query.
type Repository struct {
	DB            *sql.DB
	GoquDBWrapper *goqu.Database
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		DB:            db,
		GoquDBWrapper: goqu.New("postgres", db),
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// WithTransaction runs fn in a transaction that is committed when fn returns
// nil and rolled back on error or panic.
func WithTransaction(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return
}

// TranslateError maps driver errors to the typed errors of pkg/errors.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return custom_error.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return custom_error.WrapDBError(pqErr.Message, string(pqErr.Code), pqErr.Constraint)
	}
	return err
}

// ExistsExcept reports whether table has a row with column = value other than excludeID.
// An excludeID of zero checks all rows.
func ExistsExcept(ctx context.Context, db *goqu.Database, table, column string, value interface{}, excludeID int) (bool, error) {
	query := db.From(table).Where(goqu.C(column).Eq(value))
	if excludeID > 0 {
		query = query.Where(goqu.C("id").Neq(excludeID))
	}

	count, err := query.CountContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check %s.%s uniqueness: %w", table, column, err)
	}
	return count > 0, nil
}

// CountWhere counts rows of table matching ex.
func CountWhere(ctx context.Context, db *goqu.Database, table string, ex goqu.Ex) (int, error) {
	count, err := db.From(table).Where(ex).CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return int(count), nil
}

// DeleteByID deletes one row and returns ErrNotFound when nothing matched.
func DeleteByID(ctx context.Context, db *goqu.Database, table string, id int) error {
	result, err := db.Delete(table).Where(goqu.C("id").Eq(id)).Executor().ExecContext(ctx)
	if err != nil {
		return TranslateError(err)
	}
	return ExpectAffected(result)
}

// UpdateByID applies record to one row and returns ErrNotFound when nothing matched.
func UpdateByID(ctx context.Context, db *goqu.Database, table string, id int, record goqu.Record) error {
	result, err := db.Update(table).Set(record).Where(goqu.C("id").Eq(id)).Executor().ExecContext(ctx)
	if err != nil {
		return TranslateError(err)
	}
	return ExpectAffected(result)
}

// InsertReturningID inserts record and returns the generated id.
func InsertReturningID(ctx context.Context, db *goqu.Database, table string, record goqu.Record) (int, error) {
	var id int
	_, err := db.Insert(table).Rows(record).Returning("id").Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, TranslateError(err)
	}
	return id, nil
}

// Options loads id/label pairs of table ordered by label, for select inputs.
func Options(ctx context.Context, db *goqu.Database, table string, label exp.Expression) ([]models.Option, error) {
	var options []models.Option
	err := db.From(table).
		Select(goqu.C("id").As("id"), goqu.L("?", label).As("label")).
		Order(goqu.L("?", label).Asc()).
		ScanStructsContext(ctx, &options)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s options: %w", table, err)
	}
	return options, nil
}

// ExpectAffected returns ErrNotFound when a write matched no rows.
func ExpectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return custom_error.ErrNotFound
	}
	return nil
}
