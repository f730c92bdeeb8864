package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Counts      *CountHandler
	Requests    *RequestHandler
	Branches    *BranchHandler
	Stock       *StockHandler
	Events      *EventsHandler
	Permissions permissionChecker
	Metrics     httpObserver
	Registry    *prometheus.Registry
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log != nil {
		app.Use(AccessLog(deps.Log))
	}
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
	}

	// Público: salud de sucursales y métricas
	app.Get("/health", deps.Branches.Health)
	if deps.Registry != nil {
		app.Get("/metrics", MetricsHandler(deps.Registry))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	perm := func(p string) fiber.Handler { return RequirePermission(p, deps.Permissions) }

	// Conteos
	counts := api.Group("/counts")
	counts.Post("/", perm(entity.PermCountsCreate), deps.Counts.Create)
	counts.Post("/adjustments", perm(entity.PermCountsCreate), deps.Counts.CreateAdjustments)
	counts.Get("/", deps.Counts.List)
	counts.Get("/:id", deps.Counts.GetByID)
	counts.Get("/:id/sheet", deps.Counts.Sheet)
	counts.Patch("/:id", perm(entity.PermCountsManage), deps.Counts.Update)
	counts.Patch("/:id/status", perm(entity.PermCountsCapture), deps.Counts.UpdateStatus)
	counts.Post("/:id/details", perm(entity.PermCountsManage), deps.Counts.AddDetail)
	counts.Put("/:id/details/:detailId", perm(entity.PermCountsCapture), deps.Counts.Capture)
	counts.Delete("/:id", RequireRole(entity.RoleAdmin), deps.Counts.Delete)
	counts.Post("/:id/requests", perm(entity.PermRequestsReview), deps.Requests.Derive)

	// Solicitudes de ajuste
	requests := api.Group("/requests")
	requests.Get("/", deps.Requests.List)
	requests.Get("/:id", deps.Requests.GetByID)
	requests.Patch("/:id", perm(entity.PermRequestsReview), deps.Requests.Update)

	// Sucursales
	branches := api.Group("/branches")
	branches.Get("/", deps.Branches.List)
	branches.Post("/", perm(entity.PermBranchesManage), deps.Branches.Create)
	branches.Post("/health/check", perm(entity.PermBranchesManage), deps.Branches.Recheck)
	branches.Get("/:id", deps.Branches.GetByID)
	branches.Put("/:id", perm(entity.PermBranchesManage), deps.Branches.Update)
	branches.Delete("/:id", perm(entity.PermBranchesManage), deps.Branches.Delete)
	branches.Get("/:id/items", deps.Stock.Search)

	// Existencias y artículos
	api.Post("/stock", deps.Stock.Stock)
	api.Get("/items/:code", deps.Stock.Item)
	api.Post("/cache/invalidate", perm(entity.PermCacheInvalidate), deps.Stock.Invalidate)

	// Eventos en vivo
	if deps.Events != nil {
		api.Get("/events", deps.Events.Stream)
	}
}
