package damage

import (
	"strings"

	"github.com/takdim/inven-go/pkg/metadata"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

type reportRequest struct {
	AssetID          int    `form:"asset_id"`
	DiscoveredOn     string `form:"discovered_on" binding:"required"`
	UserName         string `form:"user_name" binding:"required,max=255"`
	Location         string `form:"location" binding:"required,max=255"`
	Quantity         *int   `form:"quantity" binding:"omitempty,gte=1"`
	Damage           string `form:"damage" binding:"required"`
	Cause            string `form:"cause"`
	ActionTaken      string `form:"action_taken"`
	CurrentCondition string `form:"current_condition"`
	Impact           string `form:"impact"`
	Status           string `form:"status"`
}

// toReport builds the report and adds the rules struct tags cannot express.
// An empty status falls back to defaultStatus.
func (r reportRequest) toReport(errs *validation.Errors, defaultStatus metadata.DamageStatus) *models.DamageReport {
	report := &models.DamageReport{
		AssetID:          r.AssetID,
		DiscoveredOn:     validation.Date(errs, "discovered_on", r.DiscoveredOn),
		UserName:         strings.TrimSpace(r.UserName),
		Location:         strings.TrimSpace(r.Location),
		Quantity:         1,
		Damage:           strings.TrimSpace(r.Damage),
		Cause:            validation.OptionalString(r.Cause),
		ActionTaken:      validation.OptionalString(r.ActionTaken),
		CurrentCondition: validation.OptionalString(r.CurrentCondition),
		Impact:           validation.OptionalString(r.Impact),
		Status:           defaultStatus.String(),
	}
	if r.Quantity != nil {
		report.Quantity = *r.Quantity
	}

	if r.AssetID <= 0 && !errs.Has("asset_id") {
		errs.Add("asset_id", "Please select an asset.")
	}
	for _, f := range []struct{ name, value string }{
		{"user_name", report.UserName},
		{"location", report.Location},
		{"damage", report.Damage},
	} {
		if f.value == "" && !errs.Has(f.name) {
			errs.Add(f.name, "This field is required.")
		}
	}

	if strings.TrimSpace(r.Status) != "" {
		status, err := metadata.NewDamageStatus(r.Status)
		if err != nil {
			errs.Add("status", "Unknown status.")
		} else {
			report.Status = status.String()
		}
	}
	return report
}

type reportListQuery struct {
	Search string `form:"q"`
	Status string `form:"status"`
}

func (q reportListQuery) filter() ReportFilter {
	f := ReportFilter{Search: q.Search}
	if status, err := metadata.NewDamageStatus(q.Status); err == nil {
		f.Status = status.String()
	}
	return f
}
