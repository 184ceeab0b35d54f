package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railconnect/railconnect/pkg/api/routes"
	"github.com/railconnect/railconnect/pkg/routecache"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/timetable"
)

type Server struct {
	Store      *timetable.Store
	Engine     *routesearch.Engine
	RouteCache *routecache.Cache
}

func (s *Server) App() *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())
	webApp.Use(cors.New())

	webApp.Get("/", routes.Welcome)
	webApp.Get("/version", routes.APIVersion)
	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	group := webApp.Group("/api")

	routes.RoutesRouter(group.Group("/routes"), &routes.RouteSearch{
		Store:  s.Store,
		Engine: s.Engine,
		Cache:  s.RouteCache,
	})
	routes.StationsRouter(group.Group("/stations"), s.Store)

	return webApp
}

func (s *Server) Listen(listen string) error {
	return s.App().Listen(listen)
}
