package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/busline/service-route/internal/application"
	"github.com/busline/service-route/internal/platform/auth"
	"github.com/busline/service-route/internal/platform/middleware"
	"github.com/busline/service-route/internal/platform/response"
)

// RouteHandler handles HTTP requests for routes and their stops.
type RouteHandler struct {
	service *application.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service *application.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// RegisterRoutes registers all route and stop endpoints under /api/routes.
// When jwtManager is nil the write endpoints are left unauthenticated.
func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	routes := r.Group("/api/routes")
	{
		routes.GET("", h.GetAllRoutes)
		routes.GET("/active", h.GetActiveRoutes)
		routes.GET("/search", h.GetRoutesByCities)
		routes.POST("/search", h.SearchRoutes)
		routes.GET("/search/available", h.SearchAvailableRoutes)
		routes.GET("/exists", h.RouteExists)
		routes.GET("/details", h.GetRouteDetails)
		routes.GET("/origin/:city", h.GetRoutesByOrigin)
		routes.GET("/destination/:city", h.GetRoutesByDestination)
		routes.GET("/stops/city/:city", h.GetStopsByCity)
		routes.GET("/:id", h.GetRouteByID)
		routes.GET("/:id/stops", h.GetStopsByRoute)
		routes.GET("/:id/trips", h.GetRouteTrips)
	}

	writes := routes.Group("")
	if jwtManager != nil {
		writes.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	}
	{
		writes.POST("", h.CreateRoute)
		writes.PUT("/:id", h.UpdateRoute)
		writes.DELETE("/:id", h.DeleteRoute)
		writes.PATCH("/:id/deactivate", h.DeactivateRoute)
		writes.PATCH("/:id/activate", h.ActivateRoute)
		writes.POST("/:id/stops", h.AddStopToRoute)
		writes.PUT("/stops/:stopId", h.UpdateRouteStop)
		writes.DELETE("/stops/:stopId", h.RemoveStopFromRoute)
	}
}

// CreateRoute handles POST /api/routes.
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req application.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetRouteByID handles GET /api/routes/:id.
func (h *RouteHandler) GetRouteByID(c *gin.Context) {
	result, err := h.service.GetRouteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetAllRoutes handles GET /api/routes, optionally filtered by ?name=.
func (h *RouteHandler) GetAllRoutes(c *gin.Context) {
	var (
		result []application.RouteDTO
		err    error
	)
	if name := c.Query("name"); name != "" {
		result, err = h.service.GetRoutesByName(c.Request.Context(), name)
	} else {
		result, err = h.service.GetAllRoutes(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetRoutesByCities handles GET /api/routes/search?origin=&destination=.
func (h *RouteHandler) GetRoutesByCities(c *gin.Context) {
	origin, destination, ok := cityParams(c)
	if !ok {
		return
	}

	result, err := h.service.GetRoutesByCities(c.Request.Context(), origin, destination)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetRoutesByOrigin handles GET /api/routes/origin/:city.
func (h *RouteHandler) GetRoutesByOrigin(c *gin.Context) {
	result, err := h.service.GetRoutesByOrigin(c.Request.Context(), c.Param("city"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetRoutesByDestination handles GET /api/routes/destination/:city.
func (h *RouteHandler) GetRoutesByDestination(c *gin.Context) {
	result, err := h.service.GetRoutesByDestination(c.Request.Context(), c.Param("city"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetRouteTrips handles GET /api/routes/:id/trips.
func (h *RouteHandler) GetRouteTrips(c *gin.Context) {
	result, err := h.service.GetRouteTrips(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetActiveRoutes handles GET /api/routes/active.
func (h *RouteHandler) GetActiveRoutes(c *gin.Context) {
	result, err := h.service.GetActiveRoutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateRoute handles PUT /api/routes/:id.
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	var req application.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateRoute(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteRoute handles DELETE /api/routes/:id.
func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	if err := h.service.DeleteRoute(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// DeactivateRoute handles PATCH /api/routes/:id/deactivate.
func (h *RouteHandler) DeactivateRoute(c *gin.Context) {
	result, err := h.service.DeactivateRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ActivateRoute handles PATCH /api/routes/:id/activate.
func (h *RouteHandler) ActivateRoute(c *gin.Context) {
	result, err := h.service.ActivateRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SearchRoutes handles POST /api/routes/search.
func (h *RouteHandler) SearchRoutes(c *gin.Context) {
	var req application.SearchRoutesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SearchRoutes(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SearchAvailableRoutes handles GET /api/routes/search/available.
func (h *RouteHandler) SearchAvailableRoutes(c *gin.Context) {
	origin, destination, ok := cityParams(c)
	if !ok {
		return
	}

	var travelDate *time.Time
	if raw := c.Query("travelDate"); raw != "" {
		d, err := time.Parse(application.DateLayout, raw)
		if err != nil {
			response.BadRequest(c, "travelDate must be formatted as YYYY-MM-DD")
			return
		}
		travelDate = &d
	}

	result, err := h.service.SearchAvailableRoutes(c.Request.Context(), origin, destination, travelDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RouteExists handles GET /api/routes/exists.
func (h *RouteHandler) RouteExists(c *gin.Context) {
	origin, destination, ok := cityParams(c)
	if !ok {
		return
	}

	exists, err := h.service.RouteExists(c.Request.Context(), origin, destination)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, exists)
}

// GetRouteDetails handles GET /api/routes/details.
func (h *RouteHandler) GetRouteDetails(c *gin.Context) {
	origin, destination, ok := cityParams(c)
	if !ok {
		return
	}

	result, err := h.service.GetRouteDetails(c.Request.Context(), origin, destination)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func cityParams(c *gin.Context) (string, string, bool) {
	origin, destination := c.Query("origin"), c.Query("destination")
	if origin == "" || destination == "" {
		response.BadRequest(c, "origin and destination query parameters are required")
		return "", "", false
	}
	return origin, destination, true
}
