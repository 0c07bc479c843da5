package internal

import (
	"net/http"
	"wikistats/internal/controllers"
	"wikistats/internal/providers"
)

func InitRoutes(revisionController *controllers.RevisionController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/api/revisions", http.HandlerFunc(revisionController.GetRevisions))
	routers.Get("/api/preview", http.HandlerFunc(revisionController.GetPreview))
	routers.Get("/api/stats", http.HandlerFunc(revisionController.GetStats))
	routers.Post("/api/generate", http.HandlerFunc(revisionController.Generate))
	return routers
}
