package items

import (
	"context"
	"time"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/stock"
)

const recentMovements = 10

type Repository interface {
	List(ctx context.Context, filter ItemFilter) ([]models.ItemStock, error)
	Get(ctx context.Context, id int) (*models.ItemStock, error)
	CodeExists(ctx context.Context, code string, excludeID int) (bool, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id int) error
	CategoryOptions(ctx context.Context) ([]models.Option, error)
	BrandOptions(ctx context.Context) ([]models.Option, error)
	RecentMovements(ctx context.Context, code string, direction models.Direction, limit uint) ([]models.Movement, error)
	OutBetween(ctx context.Context, from, to time.Time, codes ...string) (map[string]int, error)
	ContractLines(ctx context.Context, itemID int) ([]models.ContractLine, error)
}

// ItemDetail is everything the item page shows.
type ItemDetail struct {
	Item       models.ItemStock
	StockIns   []models.Movement
	StockOuts  []models.Movement
	Contracts  []models.ContractLine
	Projection *stock.Projection
}

// Forecast pairs an item with its depletion projection, nil when the item
// had no stock-out inside the window.
type Forecast struct {
	Item       models.ItemStock
	Projection *stock.Projection
}

type ItemService struct {
	repository Repository
	windowDays int
	now        func() time.Time
}

func NewItemService(r Repository, windowDays int) *ItemService {
	if windowDays <= 0 {
		windowDays = stock.DefaultWindowDays
	}
	return &ItemService{repository: r, windowDays: windowDays, now: time.Now}
}

func (s *ItemService) WindowDays() int {
	return s.windowDays
}

// List loads items and applies the status filter, which depends on the
// computed ending stock.
func (s *ItemService) List(ctx context.Context, filter ItemFilter) ([]models.ItemStock, error) {
	items, err := s.repository.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.Status == "" {
		return items, nil
	}
	status, err := stock.NewStatus(filter.Status)
	if err != nil {
		return items, nil
	}
	return FilterByStatus(items, status), nil
}

func FilterByStatus(items []models.ItemStock, status stock.Status) []models.ItemStock {
	filtered := make([]models.ItemStock, 0, len(items))
	for _, item := range items {
		if item.Status() == status {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func (s *ItemService) Detail(ctx context.Context, id int) (*ItemDetail, error) {
	item, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ItemDetail{Item: *item}
	if detail.StockIns, err = s.repository.RecentMovements(ctx, item.Code, models.StockIn, recentMovements); err != nil {
		return nil, err
	}
	if detail.StockOuts, err = s.repository.RecentMovements(ctx, item.Code, models.StockOut, recentMovements); err != nil {
		return nil, err
	}
	if detail.Contracts, err = s.repository.ContractLines(ctx, item.ID); err != nil {
		return nil, err
	}

	forecasts, err := s.Forecast(ctx, []models.ItemStock{*item})
	if err != nil {
		return nil, err
	}
	detail.Projection = forecasts[0].Projection

	return detail, nil
}

// Forecast projects depletion for the consumables among items using one
// aggregation over the trailing window.
func (s *ItemService) Forecast(ctx context.Context, items []models.ItemStock) ([]Forecast, error) {
	forecasts := make([]Forecast, len(items))
	codes := make([]string, 0, len(items))
	for i, item := range items {
		forecasts[i].Item = item
		if item.StockKind().TracksDepletion() {
			codes = append(codes, item.Code)
		}
	}
	if len(codes) == 0 {
		return forecasts, nil
	}

	now := s.now()
	totals, err := s.repository.OutBetween(ctx, stock.WindowStart(now, s.windowDays), now, codes...)
	if err != nil {
		return nil, err
	}

	for i := range forecasts {
		item := forecasts[i].Item
		if !item.StockKind().TracksDepletion() {
			continue
		}
		if projection, ok := stock.Project(item.Ending(), totals[item.Code], s.windowDays, now); ok {
			forecasts[i].Projection = &projection
		}
	}
	return forecasts, nil
}

// LowStock returns consumables classified empty or low, with projections.
func (s *ItemService) LowStock(ctx context.Context) ([]Forecast, error) {
	items, err := s.repository.List(ctx, ItemFilter{Kind: stock.Consumable.Name()})
	if err != nil {
		return nil, err
	}

	low := make([]models.ItemStock, 0)
	for _, item := range items {
		switch item.Status() {
		case stock.StatusEmpty, stock.StatusLow:
			low = append(low, item)
		}
	}
	return s.Forecast(ctx, low)
}
