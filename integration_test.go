//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/service-route/internal/application"
	"github.com/busline/service-route/internal/events"
	"github.com/busline/service-route/internal/platform/domain"
	"github.com/busline/service-route/internal/repository"
)

// TestRouteLifecycle_PersistsAndPublishes creates a route with stops against
// PostgreSQL, checks the route.created event on Kafka, then deletes the route
// and verifies its stops went with it.
func TestRouteLifecycle_PersistsAndPublishes(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRouteStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	ctx := context.Background()
	created, err := stack.Service.CreateRoute(ctx, application.CreateRouteRequest{
		Name:              "Pusad-Pune Express",
		OriginCity:        "Pusad",
		DestinationCity:   "Pune",
		TotalDistance:     450,
		EstimatedDuration: 9.5,
		Stops: []application.CreateStopRequest{
			{CityName: "Jalna", StopSequence: 1, DistanceFromOrigin: 190},
			{CityName: "Aurangabad", StopSequence: 2, DistanceFromOrigin: 250, StopType: "DROP"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "PUSAD", created.OriginCity)
	require.Len(t, created.Stops, 2)

	_, err = stack.Service.CreateRoute(ctx, application.CreateRouteRequest{
		Name: "Duplicate", OriginCity: "pusad", DestinationCity: "PUNE",
	})
	assert.True(t, domain.IsConflict(err))

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicRouteEvents,
		events.RouteCreated, created.ID, 15*time.Second)
	var payload events.RouteEvent
	require.NoError(t, ce.ParseData(&payload))
	assert.Equal(t, created.ID, payload.RouteID)
	assert.Equal(t, 2, payload.StopCount)

	results, err := stack.Service.SearchRoutes(ctx, application.SearchRoutesRequest{
		OriginCity: "pusad", DestinationCity: "pune",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"JALNA", "AURANGABAD"}, results[0].IntermediateStops)

	require.NoError(t, stack.Service.DeleteRoute(ctx, created.ID))

	var remaining int64
	require.NoError(t, infra.DB.Model(&repository.StopModel{}).Where("route_id = ?", created.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	consumeOneEvent(t, infra.KafkaBrokers, events.TopicRouteEvents,
		events.RouteDeleted, created.ID, 15*time.Second)
}
