package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/takdim/inven-go/internal/core/container"
	"github.com/takdim/inven-go/internal/middleware"
	"github.com/takdim/inven-go/internal/web"
)

// NewRouter builds the engine with templates, middleware and every route group.
func NewRouter(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())
	router.Use(middleware.RecoveryMiddleware(c.Logger), middleware.RequestLogger(c.Logger))
	if c.Config.MetricsEnabled {
		router.Use(c.Metrics.Middleware())
	}
	router.NoRoute(func(ctx *gin.Context) {
		web.NotFound(ctx, "Page")
	})

	RegisterUtilityRoutes(router, c)
	RegisterPublicRoutes(router, c)
	RegisterProtectedRoutes(router, c)
	return router
}

func RegisterPublicRoutes(router *gin.Engine, c *container.Container) {
	c.LoginHandler.RegisterRoutes(router)
	c.DamageHandler.RegisterPublicRoutes(router)

	api := router.Group("/api")
	api.Use(cors.New(corsConfig(c.Config.CORSOrigins)))
	c.AssignedHandler.RegisterRoutes(api)
}

func RegisterProtectedRoutes(router *gin.Engine, c *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(c.Sessions.RequireSession(c.Accounts))

	protectedRoutes.GET("/", func(ctx *gin.Context) {
		ctx.Redirect(http.StatusSeeOther, "/dashboard")
	})
	c.LoginHandler.RegisterSessionRoutes(protectedRoutes)
	c.DashboardHandler.RegisterRoutes(protectedRoutes)
	c.CategoryHandler.RegisterRoutes(protectedRoutes)
	c.BrandHandler.RegisterRoutes(protectedRoutes)
	c.AssetBrandHandler.RegisterRoutes(protectedRoutes)
	c.ItemHandler.RegisterRoutes(protectedRoutes)
	c.AssetHandler.RegisterRoutes(protectedRoutes)
	c.StockInHandler.RegisterRoutes(protectedRoutes)
	c.StockOutHandler.RegisterRoutes(protectedRoutes)
	c.ContractHandler.RegisterRoutes(protectedRoutes)
	c.DamageHandler.RegisterRoutes(protectedRoutes)
	c.ReportHandler.RegisterRoutes(protectedRoutes)
	c.UserHandler.RegisterRoutes(protectedRoutes)
	c.ActivityHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/health", c.Health.Handler())
	if c.Config.MetricsEnabled {
		router.GET("/metrics", c.Metrics.Handler())
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
