// README: API gateway; registers gin routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jeepney/internal/http/handlers"
	"jeepney/internal/http/live"
	"jeepney/internal/http/middleware"
	"jeepney/internal/infra"
	"jeepney/internal/modules/location"
	"jeepney/internal/modules/trip"
)

const roleDriver = "driver"

type ServerDeps struct {
	Verifier infra.TokenVerifier
	Location *location.Service
	Trip     *trip.Service
	// Hub is optional; without it /ws/locations is not registered.
	Hub    *live.Hub
	Health map[string]handlers.Checker
	Logger *zap.Logger
}

type Server struct {
	verifier infra.TokenVerifier
	location *location.Service
	trip     *trip.Service
	hub      *live.Hub
	health   map[string]handlers.Checker
	logger   *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		verifier: deps.Verifier,
		location: deps.Location,
		trip:     deps.Trip,
		hub:      deps.Hub,
		health:   deps.Health,
		logger:   logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logging(s.logger))

	healthHandler := handlers.NewHealthHandler(s.health)
	r.GET("/", healthHandler.Root)
	r.GET("/healthz", healthHandler.Healthz)

	locationHandler := handlers.NewLocationHandler(s.location)
	routeHandler := handlers.NewRouteHandler(s.trip)

	r.GET("/locations", locationHandler.List)
	r.GET("/distance", routeHandler.Distance)
	if s.hub != nil {
		r.GET("/ws/locations", s.hub.ServeWS)
	}

	authed := r.Group("/", middleware.Auth(s.verifier))
	authed.POST("/jeep/update-location", middleware.RequireRole(roleDriver), locationHandler.Update)
	authed.GET("/route", routeHandler.Route)
	authed.GET("/drivers_with_eta", routeHandler.JeepsWithETA)

	return r
}
