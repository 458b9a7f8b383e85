package router

import (
	"time"

	"dealerstock/internal/config"
	"dealerstock/internal/handler"
	"dealerstock/internal/infra"
	"dealerstock/internal/middleware"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"
	"dealerstock/internal/service"
	"dealerstock/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer built once by the composition root. The
// export worker needs Reports, so it is not private to the router.
type Services struct {
	Auth         service.AuthService
	Accounts     service.AccountService
	Categories   service.CategoryService
	Inventory    service.InventoryService
	Images       service.ImageService
	Assignments  service.AssignmentService
	Sales        service.SaleService
	Replacements service.ReplacementService
	Reports      service.ReportService
}

// NewServices wires repositories into services.
// Dependency graph: Service ← Repository ← DB; storage and dispatcher are injected.
func NewServices(cfg *config.Config, db *gorm.DB, storage service.ObjectStore, dispatcher *worker.Dispatcher) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	accountRepo := repository.NewAccountRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	replacementRepo := repository.NewReplacementRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	return &Services{
		Auth:       service.NewAuthService(accountRepo, cfg),
		Accounts:   service.NewAccountService(accountRepo),
		Categories: service.NewCategoryService(categoryRepo, unitRepo, storage),
		Inventory: service.NewInventoryService(unitRepo, categoryRepo, movementRepo, accountRepo, service.InventoryOptions{
			MaxBatchQuantity:   cfg.MaxBatchQuantity,
			BarcodeMaxAttempts: cfg.BarcodeMaxAttempts,
		}),
		Images:       service.NewImageService(storage, unitRepo, categoryRepo),
		Assignments:  service.NewAssignmentService(unitRepo, movementRepo, accountRepo, nil),
		Sales:        service.NewSaleService(unitRepo, saleRepo, movementRepo, accountRepo, nil),
		Replacements: service.NewReplacementService(unitRepo, saleRepo, replacementRepo, movementRepo, accountRepo, nil),
		Reports:      service.NewReportService(saleRepo, replacementRepo, accountRepo, dispatcher, storage),
	}
}

// New returns a configured Gin engine serving svc.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, storage *infra.ObjectStorage, svc *Services) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.OriginURL))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svc.Auth, svc.Accounts)
	accountsH := handler.NewAccountsHandler(svc.Accounts)
	categoriesH := handler.NewCategoriesHandler(svc.Categories, svc.Images)
	unitsH := handler.NewUnitsHandler(svc.Inventory, svc.Images)
	assignH := handler.NewAssignmentsHandler(svc.Assignments)
	salesH := handler.NewSalesHandler(svc.Sales, svc.Replacements, svc.Reports)
	reportsH := handler.NewReportsHandler(svc.Reports)
	filesH := handler.NewFilesHandler(svc.Images)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, storage))

	// Auth (public)
	auth := r.Group("/v1/auth", middleware.LoginRateLimiter())
	{
		auth.POST("/login", authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}
	// Password requests carry no token: the account cannot log in yet.
	r.POST("/v1/dealers/password-request", middleware.LoginRateLimiter(), accountsH.RequestPasswordChange(model.RoleDealer))
	r.POST("/v1/sub-dealers/password-request", middleware.LoginRateLimiter(), accountsH.RequestPasswordChange(model.RoleSubDealer))

	admin := middleware.RequireRole(model.RoleAdmin)
	dealer := middleware.RequireRole(model.RoleDealer)
	subDealer := middleware.RequireRole(model.RoleSubDealer)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleDealer, model.RoleSubDealer)
	sellers := middleware.RequireRole(model.RoleDealer, model.RoleSubDealer)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.PUT("/admin/password", admin, authH.ChangeAdminPassword)

		// Dealers: admin manages, a dealer reads its own stock
		v1.GET("/dealers/me/units", dealer, unitsH.DealerUnits)
		dealers := v1.Group("/dealers", admin)
		{
			dealers.POST("", accountsH.CreateDealer)
			dealers.GET("", accountsH.ListDealers)
			dealers.PUT("/:id", accountsH.UpdateDealer)
			dealers.DELETE("/:id", accountsH.DeactivateDealer)
			dealers.PUT("/:id/password", accountsH.SetPassword)
		}

		// Sub-dealers: their dealer manages, admin may list and inspect
		v1.GET("/sub-dealers/all", admin, accountsH.ListSubDealers)
		v1.GET("/sub-dealers/me/units", subDealer, unitsH.MySubDealerUnits)
		v1.GET("/sub-dealers/:id/units", middleware.RequireRole(model.RoleAdmin, model.RoleDealer), unitsH.SubDealerUnits)
		subs := v1.Group("/sub-dealers", dealer)
		{
			subs.POST("", accountsH.CreateSubDealer)
			subs.GET("", accountsH.ListSubDealers)
			subs.PUT("/:id", accountsH.UpdateSubDealer)
			subs.DELETE("/:id", accountsH.DeactivateSubDealer)
			subs.PUT("/:id/password", accountsH.SetPassword)
		}

		// Categories: everyone reads, admin writes
		v1.GET("/categories", anyRole, categoriesH.List)
		v1.GET("/categories/:id", anyRole, categoriesH.Get)
		cats := v1.Group("/categories", admin)
		{
			cats.POST("", categoriesH.Create)
			cats.PUT("/:id", categoriesH.Update)
			cats.DELETE("/:id", categoriesH.Delete)
			cats.POST("/:id/image", categoriesH.SetImage)
			cats.DELETE("/:id/image", categoriesH.RemoveImage)
		}

		v1.GET("/files/*key", anyRole, filesH.Get)

		units := v1.Group("/units", admin)
		{
			units.POST("", unitsH.Create)
			units.GET("", unitsH.List)
			units.GET("/:id", unitsH.Get)
			units.PUT("/:id", unitsH.Update)
			units.DELETE("/:id", unitsH.Delete)
			units.POST("/:id/images", unitsH.UploadImages)
			units.GET("/:id/history", unitsH.History)
		}

		assign := v1.Group("/assignments")
		{
			assign.POST("/dealer", admin, assignH.AssignToDealer)
			assign.POST("/dealer/manual", dealer, assignH.ManualAssign)
			assign.POST("/dealer/bulk", admin, assignH.BulkAssign)
			assign.POST("/sub-dealer", dealer, assignH.AssignToSubDealer)
		}

		v1.POST("/sales", sellers, salesH.Sell)
		v1.GET("/sales", anyRole, salesH.List)
		v1.POST("/sales/:id/replace", anyRole, salesH.Replace)
		v1.GET("/sales/:id/certificate", anyRole, reportsH.Certificate)
		v1.GET("/replacements", anyRole, salesH.Replacements)

		reports := v1.Group("/reports", admin)
		{
			reports.GET("/dealer-sales", reportsH.DealerSales)
			reports.GET("/sales.xlsx", reportsH.SalesWorkbook)
			reports.POST("/exports", reportsH.EnqueueExport)
			reports.GET("/exports/*key", reportsH.DownloadExport)
		}
	}

	// Swagger UI only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
