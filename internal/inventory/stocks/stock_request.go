package stocks

import (
	"strings"
	"time"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

type movementRequest struct {
	Date     string `form:"date" binding:"required"`
	ItemCode string `form:"item_code" binding:"required,max=50"`
	Quantity int    `form:"quantity" binding:"gte=1"`
	Note     string `form:"note" binding:"max=1000"`
}

func (r movementRequest) toMovement(direction models.Direction, errs *validation.Errors) *models.Movement {
	return &models.Movement{
		Date:      validation.Date(errs, "date", r.Date),
		ItemCode:  strings.TrimSpace(r.ItemCode),
		Quantity:  r.Quantity,
		Note:      validation.OptionalString(r.Note),
		Direction: direction,
	}
}

type ListQuery struct {
	Search string `form:"q"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// filter drops date bounds that do not parse.
func (q ListQuery) Filter() MovementFilter {
	return MovementFilter{
		Search: q.Search,
		From:   parseDay(q.From),
		To:     parseDay(q.To),
	}
}

func parseDay(value string) *time.Time {
	t, err := time.Parse(validation.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &t
}
