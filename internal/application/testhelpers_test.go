package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
	"github.com/busline/service-route/internal/platform/database/dbtest"
	"github.com/busline/service-route/internal/platform/kafka"
	"github.com/busline/service-route/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fakeTripLookup struct {
	mu       sync.Mutex
	trips    []routeDomain.Trip
	err      error
	calls    int
	lastDate time.Time
	lastPair [2]string
}

func (f *fakeTripLookup) AvailableTrips(_ context.Context, _, _ string, date time.Time) ([]routeDomain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastDate = date
	return f.trips, f.err
}

func (f *fakeTripLookup) TripsByRoute(_ context.Context, origin, destination string) ([]routeDomain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPair = [2]string{origin, destination}
	return f.trips, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	fail   bool
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, evt kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type serviceStack struct {
	db        *gorm.DB
	service   *RouteService
	trips     *fakeTripLookup
	publisher *recordingPublisher
}

func newServiceStack(t *testing.T) *serviceStack {
	t.Helper()
	db := dbtest.Open(t)
	require.NoError(t, repository.AutoMigrate(db))

	trips := &fakeTripLookup{}
	publisher := &recordingPublisher{}
	svc := NewRouteService(
		repository.NewGormRouteRepository(db),
		repository.NewGormStopRepository(db),
		trips,
		publisher,
		"",
		zaptest.NewLogger(t),
	)
	return &serviceStack{db: db, service: svc, trips: trips, publisher: publisher}
}

func createRouteReq(id, origin, dest string, stops ...CreateStopRequest) CreateRouteRequest {
	return CreateRouteRequest{
		ID:                id,
		Name:              origin + " to " + dest,
		OriginCity:        origin,
		DestinationCity:   dest,
		TotalDistance:     420,
		EstimatedDuration: 8.5,
		Description:       "daily service",
		Stops:             stops,
	}
}

func ptr[T any](v T) *T { return &v }
