package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/busline/service-route/internal/application"
	"github.com/busline/service-route/internal/platform/response"
)

// AddStopToRoute handles POST /api/routes/:id/stops.
func (h *RouteHandler) AddStopToRoute(c *gin.Context) {
	var req application.CreateStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddStopToRoute(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetStopsByRoute handles GET /api/routes/:id/stops. Inactive stops are
// included with ?includeInactive=true.
func (h *RouteHandler) GetStopsByRoute(c *gin.Context) {
	var (
		result []application.StopDTO
		err    error
	)
	if c.Query("includeInactive") == "true" {
		result, err = h.service.GetAllStopsByRoute(c.Request.Context(), c.Param("id"))
	} else {
		result, err = h.service.GetStopsByRoute(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetStopsByCity handles GET /api/routes/stops/city/:city.
func (h *RouteHandler) GetStopsByCity(c *gin.Context) {
	result, err := h.service.GetStopsByCity(c.Request.Context(), c.Param("city"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateRouteStop handles PUT /api/routes/stops/:stopId.
func (h *RouteHandler) UpdateRouteStop(c *gin.Context) {
	var req application.UpdateStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateRouteStop(c.Request.Context(), c.Param("stopId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RemoveStopFromRoute handles DELETE /api/routes/stops/:stopId.
func (h *RouteHandler) RemoveStopFromRoute(c *gin.Context) {
	if err := h.service.RemoveStopFromRoute(c.Request.Context(), c.Param("stopId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
