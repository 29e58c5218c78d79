package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry     *production.BatchRegistry
	Ledger       *production.Ledger
	Engine       *production.StockEngine
	Orchestrator *production.SaleOrchestrator
	JWTSecret    string
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")

	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor)
	stockRoles := RequireRole(RoleAdmin, RoleBodeguero)
	saleRoles := RequireRole(RoleAdmin, RoleVendedor)

	// Lotes
	batches := protected.Group("/batches")
	batchHandler := NewBatchHandler(deps.Registry, deps.Ledger, log)
	batches.Get("/", anyRole, batchHandler.List)
	batches.Get("/:id", anyRole, batchHandler.GetByID)
	batches.Get("/:id/movements", anyRole, batchHandler.Movements)
	batches.Get("/:id/reconciliation", RequireRole(RoleAdmin), batchHandler.Reconcile)
	batches.Post("/", stockRoles, batchHandler.Create)
	batches.Patch("/:id", stockRoles, batchHandler.Update)
	batches.Delete("/:id", RequireRole(RoleAdmin), batchHandler.Retire)

	// Ajustes y traslados
	stock := protected.Group("/stock", stockRoles)
	stockHandler := NewStockHandler(deps.Engine, log)
	stock.Post("/adjustments", stockHandler.Adjust)
	stock.Post("/transfers", stockHandler.Transfer)

	// Ventas
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.Orchestrator, log)
	sales.Post("/", saleRoles, saleHandler.Create)
	sales.Get("/", saleRoles, saleHandler.List)
	sales.Get("/:id", saleRoles, saleHandler.GetByID)
	sales.Get("/:id/movements", saleRoles, saleHandler.Movements)
	sales.Post("/:id/void", RequireRole(RoleAdmin), saleHandler.Void)
}
