package container

import (
	"database/sql"

	"go.uber.org/zap"

	auditLogRepo "github.com/takdim/inven-go/internal/auditlog"
	"github.com/takdim/inven-go/internal/config"
	"github.com/takdim/inven-go/internal/dashboard"
	"github.com/takdim/inven-go/internal/inventory/assets"
	"github.com/takdim/inven-go/internal/inventory/brands"
	"github.com/takdim/inven-go/internal/inventory/category"
	"github.com/takdim/inven-go/internal/inventory/contracts"
	"github.com/takdim/inven-go/internal/inventory/damage"
	"github.com/takdim/inven-go/internal/inventory/items"
	"github.com/takdim/inven-go/internal/inventory/stocks"
	"github.com/takdim/inven-go/internal/middleware"
	"github.com/takdim/inven-go/internal/reports"
	"github.com/takdim/inven-go/internal/repository"
	"github.com/takdim/inven-go/internal/users"
	"github.com/takdim/inven-go/pkg/auditlog"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/security"
)

type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Repository *repository.Repository
	AuditLog   *auditlog.Auditlog
	Sessions   *security.SessionManager
	Accounts   security.AccountLoader
	Health     *middleware.HealthChecker
	Metrics    *middleware.Metrics

	LoginHandler      *security.LoginHandler
	DashboardHandler  *dashboard.DashboardHandler
	CategoryHandler   *category.CategoryHandler
	BrandHandler      *brands.BrandHandler
	AssetBrandHandler *brands.AssetBrandHandler
	ItemHandler       *items.ItemHandler
	AssetHandler      *assets.AssetHandler
	AssignedHandler   *assets.AssignedHandler
	StockInHandler    *stocks.StockHandler
	StockOutHandler   *stocks.StockHandler
	ContractHandler   *contracts.ContractHandler
	DamageHandler     *damage.DamageHandler
	ReportHandler     *reports.ReportHandler
	UserHandler       *users.UserHandler
	ActivityHandler   *users.ActivityHandler
}

func NewAppContainer(db *sql.DB, cfg *config.Config, revoker security.Revoker, version string, logger *zap.Logger) *Container {
	repo := repository.NewRepository(db)
	auditLogRepository := auditLogRepo.NewRepository(repo)
	auditLog := auditlog.NewAuditLog(auditLogRepository, logger)
	sessions := security.NewSessionManager([]byte(cfg.SessionSecret), cfg.SessionTTL, cfg.IsProduction(), revoker)

	userRepo := users.NewRepository(repo)
	categoryRepo := category.NewRepository(repo)
	brandRepo := brands.NewBrandRepository(repo)
	assetBrandRepo := brands.NewAssetBrandRepository(repo)
	itemRepo := items.NewRepository(repo)
	itemService := items.NewItemService(itemRepo, cfg.ProjectionWindowDays)
	assetRepo := assets.NewRepository(repo)
	stockRepo := stocks.NewRepository(repo)
	contractRepo := contracts.NewRepository(repo)
	damageRepo := damage.NewRepository(repo)
	dashboardRepo := dashboard.NewRepository(repo)

	letterhead := reports.NewLetterhead(cfg.InstitutionName, cfg.InstitutionAddress, cfg.LogoPath)
	if letterhead.Logo == "" {
		logger.Warn("No letterhead logo found, documents are generated without one", zap.String("logo_path", cfg.LogoPath))
	}

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Repository: repo,
		AuditLog:   auditLog,
		Sessions:   sessions,
		Accounts:   userRepo,
		Health:     middleware.NewHealthChecker(repo, version),
		Metrics:    middleware.NewMetrics(),

		LoginHandler:      security.NewLoginHandler(userRepo, sessions, auditLog, logger),
		DashboardHandler:  dashboard.NewDashboardHandler(dashboardRepo, itemService, stockRepo, logger),
		CategoryHandler:   category.NewCategoryHandler(categoryRepo, auditLog, logger),
		BrandHandler:      brands.NewBrandHandler(brandRepo, auditLog, logger),
		AssetBrandHandler: brands.NewAssetBrandHandler(assetBrandRepo, auditLog, logger),
		ItemHandler:       items.NewItemHandler(itemRepo, itemService, auditLog, logger),
		AssetHandler:      assets.NewAssetHandler(assetRepo, auditLog, logger),
		AssignedHandler:   assets.NewAssignedHandler(assetRepo, logger),
		StockInHandler:    stocks.NewStockHandler(models.StockIn, stockRepo, auditLog, logger),
		StockOutHandler:   stocks.NewStockHandler(models.StockOut, stockRepo, auditLog, logger),
		ContractHandler:   contracts.NewContractHandler(contractRepo, auditLog, logger),
		DamageHandler:     damage.NewDamageHandler(damageRepo, auditLog, logger),
		ReportHandler: reports.NewReportHandler(reports.Sources{
			Items:     itemService,
			Catalog:   itemRepo,
			Contracts: contractRepo,
			Movements: stockRepo,
			Assets:    assetRepo,
			Damage:    damageRepo,
		}, letterhead, logger),
		UserHandler:     users.NewUserHandler(userRepo, auditLog, logger),
		ActivityHandler: users.NewActivityHandler(auditLogRepository, userRepo, logger),
	}
}
