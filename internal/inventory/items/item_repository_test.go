package items

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockQuery(t *testing.T) {
	sql, _, err := StockQuery(goqu.New("postgres", nil)).ToSQL()
	require.NoError(t, err)

	for _, fragment := range []string{
		`LEFT JOIN (SELECT "item_code", SUM("quantity") AS "total" FROM "stock_in" GROUP BY "item_code") AS "si" ON ("si"."item_code" = "i"."code")`,
		`LEFT JOIN (SELECT "item_code", SUM("quantity") AS "total" FROM "stock_out" GROUP BY "item_code") AS "so" ON ("so"."item_code" = "i"."code")`,
		`"i"."opening_stock" AS "opening_stock"`,
		`COALESCE("si"."total", 0) AS "total_in"`,
		`COALESCE("so"."total", 0) AS "total_out"`,
	} {
		assert.Contains(t, sql, fragment)
	}
	assert.NotContains(t, sql, "GROUP BY \"i\"", "items are not grouped, ledger sums are")
}
