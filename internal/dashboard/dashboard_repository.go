package dashboard

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/takdim/inven-go/internal/repository"
	"github.com/takdim/inven-go/pkg/metadata"
)

// Counts are the entity totals shown on the dashboard.
type Counts struct {
	Items      int `db:"items"`
	Assets     int `db:"assets"`
	Categories int `db:"categories"`
	Contracts  int `db:"contracts"`
	OpenDamage int `db:"open_damage"`
}

type DashboardRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *DashboardRepository {
	return &DashboardRepository{repository: r}
}

// Counts reads every total in one round trip.
func (r *DashboardRepository) Counts(ctx context.Context) (Counts, error) {
	db := r.repository.GoquDBWrapper
	count := func(table string) *goqu.SelectDataset {
		return db.From(table).Select(goqu.COUNT("*"))
	}

	var counts Counts
	_, err := db.Select(
		count("items").As("items"),
		count("assets").As("assets"),
		count("categories").As("categories"),
		count("contracts").As("contracts"),
		count("damage_reports").Where(goqu.C("status").Neq(metadata.DamageResolved.String())).As("open_damage"),
	).ScanStructContext(ctx, &counts)
	if err != nil {
		return counts, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return counts, nil
}
