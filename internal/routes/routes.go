package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/media"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/pipeline"
	"marketplace-service/internal/resources"
)

// userWritable resources accept writes from any authenticated caller;
// everything else is admin-managed.
var userWritable = map[string]bool{
	"orders":          true,
	"wishlists":       true,
	"product-reviews": true,
	"support-tickets": true,
	"donations":       true,
}

type Deps struct {
	DB           *mongo.Database
	Uploader     pipeline.Uploader
	MediaHandler *media.Handler
	Events       pipeline.EventSink
	Verifier     *auth.JWTVerifier
	Log          *zap.SugaredLogger
	Opts         pipeline.Options
	WriteLimiter fiber.Handler // optional
}

// Register mounts every resource under /api/v1 plus the direct media
// endpoints and the health check.
func Register(app *fiber.App, d Deps) {
	requireAuth := middleware.RequireAuth(d.Verifier)
	requireAdmin := middleware.RequireRole("admin")

	api := app.Group("/api/v1")

	for _, res := range resources.All() {
		store := pipeline.NewMongo(d.DB.Collection(res.Collection), res.Name, res.BusinessKey, res.DefaultSort)
		h := pipeline.NewHandler(res, store, d.Uploader, d.Events, d.Log, d.Opts)

		guard := []fiber.Handler{requireAuth}
		if d.WriteLimiter != nil {
			guard = append(guard, d.WriteLimiter)
		}
		if !userWritable[res.Name] {
			guard = append(guard, requireAdmin)
		}
		h.Register(api.Group("/"+res.Name), guard...)
	}

	api.Post("/media", requireAuth, d.MediaHandler.Upload)
	api.Get("/media/:id/url", d.MediaHandler.GetURL)
	api.Delete("/media/:id", requireAuth, requireAdmin, d.MediaHandler.Delete)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
}
