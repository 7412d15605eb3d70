package web

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

func TestFormViewBind(t *testing.T) {
	form := FormView{Fields: []Field{
		TextField("code", "Code", "", true),
		TextField("name", "Name", "", true),
	}}

	form.Bind(validation.Errors{
		{Field: "code", Message: "Code is already used."},
		{Field: validation.FormError, Message: "Could not save."},
	})

	assert.Equal(t, "Code is already used.", form.Fields[0].Error)
	assert.Empty(t, form.Fields[1].Error)
	assert.Equal(t, "Could not save.", form.Error)
}

func TestIDOptions(t *testing.T) {
	options := IDOptions([]models.Option{{ID: 1, Label: "Paper"}, {ID: 2, Label: "Ink"}}, 2, "-- none --")

	assert.Len(t, options, 3)
	assert.Equal(t, "0", options[0].Value)
	assert.False(t, options[0].Selected)
	assert.True(t, options[2].Selected)
}

func TestMoney(t *testing.T) {
	tests := map[string]string{
		"0":         "0.00",
		"5000":      "5,000.00",
		"1234567.5": "1,234,567.50",
		"-1000.129": "-1,000.13",
		"999.999":   "1,000.00",
		"100":       "100.00",
	}

	for in, want := range tests {
		assert.Equal(t, want, Money(decimal.RequireFromString(in)), in)
	}
}

func TestTableHelpers(t *testing.T) {
	table := Table{Columns: []string{"Code", "Name"}, Rows: []Row{{Cells: []Cell{{Text: "A1"}, {Text: "Paper"}}}}}

	assert.False(t, table.HasActions())
	assert.Equal(t, 3, table.Span())

	table.Rows[0].Actions = []Action{EditAction("/items/1/edit")}
	assert.True(t, table.HasActions())
}
