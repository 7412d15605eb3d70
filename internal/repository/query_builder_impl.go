package repository

import (
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type containsCondition struct {
	term string
	keys []string
}

type rangeCondition struct {
	key      string
	from, to *time.Time
}

type queryBuilderImpl struct {
	conditions map[string]interface{}
	contains   []containsCondition
	ranges     []rangeCondition
}

func NewQueryBuilder() QueryBuilder {
	return &queryBuilderImpl{
		conditions: make(map[string]interface{}),
	}
}

// Equal adds key = value. Nil values are skipped.
func (q *queryBuilderImpl) Equal(key string, value interface{}) QueryBuilder {
	if value != nil {
		q.conditions[key] = value
	}
	return q
}

// Contains adds a case-insensitive substring match over any of keys.
func (q *queryBuilderImpl) Contains(value string, keys ...string) QueryBuilder {
	value = strings.TrimSpace(value)
	if value != "" && len(keys) > 0 {
		q.contains = append(q.contains, containsCondition{term: value, keys: keys})
	}
	return q
}

// Between adds an inclusive range; either bound may be nil.
func (q *queryBuilderImpl) Between(key string, from, to *time.Time) QueryBuilder {
	if from != nil || to != nil {
		q.ranges = append(q.ranges, rangeCondition{key: key, from: from, to: to})
	}
	return q
}

func (q *queryBuilderImpl) Empty() bool {
	return len(q.conditions) == 0 && len(q.contains) == 0 && len(q.ranges) == 0
}

func (q *queryBuilderImpl) Build(aliases map[string]string) []exp.Expression {
	resolve := func(key string) string {
		if alias, ok := aliases[key]; ok {
			return alias
		}
		return key
	}

	keys := make([]string, 0, len(q.conditions))
	for key := range q.conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	expressions := make([]exp.Expression, 0, len(keys)+len(q.contains)+len(q.ranges))
	for _, key := range keys {
		expressions = append(expressions, goqu.I(resolve(key)).Eq(q.conditions[key]))
	}

	for _, c := range q.contains {
		pattern := "%" + escapeLike(c.term) + "%"
		ors := make([]exp.Expression, 0, len(c.keys))
		for _, key := range c.keys {
			ors = append(ors, goqu.I(resolve(key)).ILike(pattern))
		}
		expressions = append(expressions, goqu.Or(ors...))
	}

	for _, r := range q.ranges {
		if r.from != nil {
			expressions = append(expressions, goqu.I(resolve(r.key)).Gte(*r.from))
		}
		if r.to != nil {
			expressions = append(expressions, goqu.I(resolve(r.key)).Lte(*r.to))
		}
	}

	return expressions
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
