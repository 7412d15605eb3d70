package custom_error

import (
	"errors"
	"fmt"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var ErrNotFound = errors.New("resource not found")

type CustomError interface {
	Error() string
}

type UniqueViolationError struct {
	message    string
	code       string
	Constraint string
}

type ForeignKeyViolationError struct {
	message    string
	code       string
	Constraint string
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

// WrapDBError maps a postgres error code to a typed error.
func WrapDBError(message, code, constraint string) error {
	switch code {
	case codeUniqueViolation:
		return &UniqueViolationError{
			message:    message,
			code:       code,
			Constraint: constraint,
		}
	case codeForeignKeyViolation:
		return &ForeignKeyViolationError{
			message:    "value is still referenced by other records: " + message,
			code:       code,
			Constraint: constraint,
		}
	default:
		return fmt.Errorf("uncategorized database error with code %s: %s", code, message)
	}
}

// InsufficientStockError is returned when a stock-out would drive the ending stock below zero.
type InsufficientStockError struct {
	ItemCode  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ItemCode, e.Available, e.Requested)
}

type DeletionBlockedError struct {
	Resource   string
	Dependents int
}

func (e *DeletionBlockedError) Error() string {
	return fmt.Sprintf("cannot delete %s: %d related records exist", e.Resource, e.Dependents)
}

func IsUniqueViolation(err error) bool {
	var target *UniqueViolationError
	return errors.As(err, &target)
}

func IsForeignKeyViolation(err error) bool {
	var target *ForeignKeyViolationError
	return errors.As(err, &target)
}
