package contracts

import (
	"strings"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

type contractRequest struct {
	Number      string `form:"number" binding:"required,max=100"`
	Date        string `form:"date" binding:"required"`
	Description string `form:"description" binding:"max=1000"`
}

func (r contractRequest) toContract(errs *validation.Errors) *models.Contract {
	return &models.Contract{
		Number:      strings.TrimSpace(r.Number),
		Date:        validation.Date(errs, "date", r.Date),
		Description: validation.OptionalString(r.Description),
	}
}

type lineRequest struct {
	ItemID    int    `form:"item_id" binding:"required"`
	Quantity  int    `form:"quantity" binding:"gte=1"`
	UnitPrice string `form:"unit_price"`
}

func (r lineRequest) toLine(contractID int, errs *validation.Errors) *models.ContractLine {
	return &models.ContractLine{
		ContractID: contractID,
		ItemID:     r.ItemID,
		Quantity:   r.Quantity,
		UnitPrice:  validation.Price(errs, "unit_price", r.UnitPrice),
	}
}

type ListQuery struct {
	Search string `form:"q"`
	Year   int    `form:"year"`
	Month  int    `form:"month"`
}

// filter ignores a month outside 1..12 and a month given without a year.
func (q ListQuery) Filter() ContractFilter {
	f := ContractFilter{Search: q.Search, Year: q.Year}
	if q.Year > 0 && q.Month >= 1 && q.Month <= 12 {
		f.Month = q.Month
	}
	return f
}
