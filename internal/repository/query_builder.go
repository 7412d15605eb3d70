package repository

import (
	"time"

	"github.com/doug-martin/goqu/v9/exp"
)

// QueryBuilder collects optional list filters keyed by logical names and
// resolves them to qualified columns through an alias map.
type QueryBuilder interface {
	Equal(key string, value interface{}) QueryBuilder
	Contains(value string, keys ...string) QueryBuilder
	Between(key string, from, to *time.Time) QueryBuilder
	Build(aliases map[string]string) []exp.Expression
	Empty() bool
}
