package items

import (
	"strings"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

type itemRequest struct {
	Code          string `form:"code" binding:"required,min=2,max=50"`
	Name          string `form:"name" binding:"required,min=3,max=255"`
	Unit          string `form:"unit" binding:"required,max=50"`
	SecondaryUnit string `form:"secondary_unit" binding:"max=50"`
	Kind          string `form:"kind" binding:"required,oneof=consumable durable"`
	OpeningStock  int    `form:"opening_stock" binding:"gte=0"`
	MinimumStock  int    `form:"minimum_stock" binding:"gte=0"`
	CategoryID    int    `form:"category_id"`
	BrandID       int    `form:"brand_id"`
	Spec          string `form:"spec"`
}

func (r itemRequest) toItem() *models.Item {
	return &models.Item{
		Code:          strings.TrimSpace(r.Code),
		Name:          strings.TrimSpace(r.Name),
		Unit:          strings.TrimSpace(r.Unit),
		SecondaryUnit: validation.OptionalString(r.SecondaryUnit),
		Kind:          r.Kind,
		OpeningStock:  r.OpeningStock,
		MinimumStock:  r.MinimumStock,
		CategoryID:    validation.OptionalID(r.CategoryID),
		BrandID:       validation.OptionalID(r.BrandID),
		Spec:          validation.OptionalString(r.Spec),
	}
}

type ListQuery struct {
	Search     string `form:"q"`
	CategoryID int    `form:"category"`
	BrandID    int    `form:"brand"`
	Kind       string `form:"kind"`
	Status     string `form:"status"`
}

func (q ListQuery) Filter() ItemFilter {
	return ItemFilter{
		Search:     q.Search,
		CategoryID: q.CategoryID,
		BrandID:    q.BrandID,
		Kind:       q.Kind,
		Status:     q.Status,
	}
}
