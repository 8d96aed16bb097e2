package events

import "time"

// TopicRouteEvents carries route and stop lifecycle events.
const TopicRouteEvents = "route.events"

// EventSource is the CloudEvents source of everything this service publishes.
const EventSource = "service-route"

// Route event types.
const (
	RouteCreated     = "route.created"
	RouteUpdated     = "route.updated"
	RouteActivated   = "route.activated"
	RouteDeactivated = "route.deactivated"
	RouteDeleted     = "route.deleted"
	StopAdded        = "route.stop_added"
	StopUpdated      = "route.stop_updated"
	StopRemoved      = "route.stop_removed"
)

// RouteEvent is the payload of route.* events other than stop changes.
type RouteEvent struct {
	RouteID         string    `json:"route_id"`
	Name            string    `json:"name,omitempty"`
	OriginCity      string    `json:"origin_city,omitempty"`
	DestinationCity string    `json:"destination_city,omitempty"`
	IsActive        bool      `json:"is_active"`
	StopCount       int       `json:"stop_count"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// StopEvent is the payload of route.stop_* events.
type StopEvent struct {
	StopID       string    `json:"stop_id"`
	RouteID      string    `json:"route_id"`
	CityName     string    `json:"city_name,omitempty"`
	StopSequence int       `json:"stop_sequence,omitempty"`
	StopType     string    `json:"stop_type,omitempty"`
	IsActive     bool      `json:"is_active"`
	OccurredAt   time.Time `json:"occurred_at"`
}
