package assets

import (
	"strings"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

type assetRequest struct {
	Code           string `form:"code" binding:"required,min=2,max=50"`
	Name           string `form:"name" binding:"required,min=3,max=255"`
	CategoryID     int    `form:"category_id"`
	AssetBrandID   int    `form:"asset_brand_id"`
	ContractNumber string `form:"contract_number" binding:"max=200"`
	ContractDate   string `form:"contract_date"`
	Location       string `form:"location" binding:"max=255"`
	UserName       string `form:"user_name" binding:"max=255"`
	UnitCount      int    `form:"unit_count" binding:"gte=0"`
	Unit           string `form:"unit" binding:"max=50"`
	Spec           string `form:"spec" binding:"max=2000"`
}

func (r assetRequest) toAsset(errs *validation.Errors) *models.Asset {
	return &models.Asset{
		Code:           strings.TrimSpace(r.Code),
		Name:           strings.TrimSpace(r.Name),
		CategoryID:     validation.OptionalID(r.CategoryID),
		AssetBrandID:   validation.OptionalID(r.AssetBrandID),
		ContractNumber: validation.OptionalString(r.ContractNumber),
		ContractDate:   validation.OptionalDate(errs, "contract_date", r.ContractDate),
		Location:       validation.OptionalString(r.Location),
		UserName:       validation.OptionalString(r.UserName),
		UnitCount:      r.UnitCount,
		Unit:           validation.OptionalString(r.Unit),
		Spec:           validation.OptionalString(r.Spec),
	}
}

type ListQuery struct {
	Search       string `form:"q"`
	CategoryID   int    `form:"category"`
	AssetBrandID int    `form:"asset_brand"`
}

func (q ListQuery) Filter() AssetFilter {
	return AssetFilter{
		Search:       q.Search,
		CategoryID:   q.CategoryID,
		AssetBrandID: q.AssetBrandID,
	}
}
