package internal

import (
	"net/http"

	"qrd/internal/controllers"
	"qrd/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/generate", http.HandlerFunc(apiController.Generate))
	routers.Post("/scan", http.HandlerFunc(apiController.Scan))
	routers.Get("/code", http.HandlerFunc(apiController.GetCode))
	routers.Get("/analytics", http.HandlerFunc(apiController.GetAnalytics))
	return routers
}
