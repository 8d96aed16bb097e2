package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/busline/service-route/internal/application"
	routeDomain "github.com/busline/service-route/internal/domain/route"
	"github.com/busline/service-route/internal/platform/auth"
	"github.com/busline/service-route/internal/platform/database/dbtest"
	"github.com/busline/service-route/internal/repository"
)

type stubTrips struct {
	trips []routeDomain.Trip
	err   error
	date  time.Time
}

func (s *stubTrips) AvailableTrips(_ context.Context, _, _ string, date time.Time) ([]routeDomain.Trip, error) {
	s.date = date
	return s.trips, s.err
}

func (s *stubTrips) TripsByRoute(_ context.Context, _, _ string) ([]routeDomain.Trip, error) {
	return s.trips, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	router *gin.Engine
	trips  *stubTrips
}

func newTestServer(t *testing.T, jwtManager *auth.JWTManager) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	require.NoError(t, repository.AutoMigrate(db))

	trips := &stubTrips{}
	svc := application.NewRouteService(
		repository.NewGormRouteRepository(db),
		repository.NewGormStopRepository(db),
		trips,
		nil,
		"",
		zaptest.NewLogger(t),
	)

	router := gin.New()
	NewRouteHandler(svc).RegisterRoutes(&router.RouterGroup, jwtManager)
	return &testServer{router: router, trips: trips}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

var pusadPune = map[string]interface{}{
	"id":                 "R1",
	"name":               "Pusad-Pune Express",
	"origin_city":        "pusad",
	"destination_city":   "pune",
	"total_distance":     450,
	"estimated_duration": 9.5,
	"stops": []map[string]interface{}{
		{"id": "s1", "city_name": "jalna", "stop_sequence": 1, "distance_from_origin": 190},
		{"id": "s2", "city_name": "aurangabad", "stop_sequence": 2, "distance_from_origin": 250, "stop_type": "DROP"},
	},
}

func TestCreateAndGetRoute(t *testing.T) {
	s := newTestServer(t, nil)

	code, env := s.do(t, http.MethodPost, "/api/routes", pusadPune)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	created := decode[application.RouteDTO](t, env.Data)
	assert.Equal(t, "PUSAD", created.OriginCity)
	assert.Len(t, created.Stops, 2)

	code, env = s.do(t, http.MethodGet, "/api/routes/R1", nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[application.RouteDTO](t, env.Data)
	assert.Equal(t, "Pusad-Pune Express", got.Name)
	assert.Equal(t, "JALNA", got.Stops[0].CityName)
	assert.Equal(t, "DROP", got.Stops[1].StopType)

	code, env = s.do(t, http.MethodPost, "/api/routes", pusadPune)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/routes/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateRoute_BadRequest(t *testing.T) {
	s := newTestServer(t, nil)

	code, env := s.do(t, http.MethodPost, "/api/routes", map[string]interface{}{"name": "no cities"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = s.do(t, http.MethodPost, "/api/routes", map[string]interface{}{
		"name": "n", "origin_city": "a", "destination_city": "b", "total_distance": -4,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListingEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/routes", pusadPune)
	s.do(t, http.MethodPost, "/api/routes", map[string]interface{}{
		"id": "R2", "name": "Return", "origin_city": "pune", "destination_city": "pusad",
	})
	code, _ := s.do(t, http.MethodPatch, "/api/routes/R2/deactivate", nil)
	require.Equal(t, http.StatusOK, code)

	_, env := s.do(t, http.MethodGet, "/api/routes", nil)
	assert.Len(t, decode[[]application.RouteDTO](t, env.Data), 2)

	_, env = s.do(t, http.MethodGet, "/api/routes/active", nil)
	active := decode[[]application.RouteDTO](t, env.Data)
	require.Len(t, active, 1)
	assert.Equal(t, "R1", active[0].ID)

	_, env = s.do(t, http.MethodGet, "/api/routes/search?origin=Pune&destination=Pusad", nil)
	byCities := decode[[]application.RouteDTO](t, env.Data)
	require.Len(t, byCities, 1)
	assert.Equal(t, "R2", byCities[0].ID)

	_, env = s.do(t, http.MethodGet, "/api/routes/exists?origin=pusad&destination=pune", nil)
	assert.True(t, decode[bool](t, env.Data))
	_, env = s.do(t, http.MethodGet, "/api/routes/exists?origin=pusad&destination=goa", nil)
	assert.False(t, decode[bool](t, env.Data))

	_, env = s.do(t, http.MethodGet, "/api/routes/details?origin=PUNE&destination=PUSAD", nil)
	assert.Equal(t, "R2", decode[application.RouteDTO](t, env.Data).ID)

	code, _ = s.do(t, http.MethodGet, "/api/routes/details?origin=goa&destination=pune", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/api/routes/exists?origin=pusad", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateActivateDelete(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/routes", pusadPune)

	code, env := s.do(t, http.MethodPut, "/api/routes/R1", map[string]interface{}{"description": "overnight"})
	require.Equal(t, http.StatusOK, code)
	updated := decode[application.RouteDTO](t, env.Data)
	assert.Equal(t, "overnight", updated.Description)
	assert.Equal(t, 450.0, updated.TotalDistance)

	code, env = s.do(t, http.MethodPatch, "/api/routes/R1/deactivate", nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[application.RouteDTO](t, env.Data).IsActive)

	code, env = s.do(t, http.MethodPatch, "/api/routes/R1/activate", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[application.RouteDTO](t, env.Data).IsActive)

	code, _ = s.do(t, http.MethodDelete, "/api/routes/R1", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodDelete, "/api/routes/R1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodGet, "/api/routes/R1/stops", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStopEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/routes", pusadPune)

	code, env := s.do(t, http.MethodPost, "/api/routes/R1/stops", map[string]interface{}{
		"id": "s3", "city_name": "ahmednagar", "stop_sequence": 3, "stop_type": "pickup",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "AHMEDNAGAR", decode[application.StopDTO](t, env.Data).CityName)

	code, _ = s.do(t, http.MethodPost, "/api/routes/R1/stops", map[string]interface{}{"city_name": "x"})
	assert.Equal(t, http.StatusBadRequest, code, "stop_sequence required")

	code, env = s.do(t, http.MethodPut, "/api/routes/stops/s2", map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[application.StopDTO](t, env.Data).IsActive)

	_, env = s.do(t, http.MethodGet, "/api/routes/R1/stops", nil)
	stops := decode[[]application.StopDTO](t, env.Data)
	require.Len(t, stops, 2)
	assert.Equal(t, "s1", stops[0].ID)
	assert.Equal(t, "s3", stops[1].ID)

	code, _ = s.do(t, http.MethodDelete, "/api/routes/stops/s1", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodDelete, "/api/routes/stops/s1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodPut, "/api/routes/stops/ghost", map[string]interface{}{"stop_sequence": 2})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSearchEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/routes", pusadPune)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	s.trips.trips = []routeDomain.Trip{
		{ID: "T1", BaseFare: 900, AvailableSeats: 5, Status: "SCHEDULED", DepartureTime: day.Add(20 * time.Hour)},
		{ID: "T2", BaseFare: 750, AvailableSeats: 5, Status: "SCHEDULED", DepartureTime: day.Add(8 * time.Hour)},
	}

	code, env := s.do(t, http.MethodPost, "/api/routes/search", map[string]interface{}{
		"origin_city": "pusad", "destination_city": "pune",
	})
	require.Equal(t, http.StatusOK, code)
	plain := decode[[]application.RouteSearchResultDTO](t, env.Data)
	require.Len(t, plain, 1)
	assert.Equal(t, []string{"JALNA", "AURANGABAD"}, plain[0].IntermediateStops)
	assert.Zero(t, plain[0].AvailableTripsCount)

	code, env = s.do(t, http.MethodGet, "/api/routes/search/available?origin=pusad&destination=pune&travelDate=2026-03-14", nil)
	require.Equal(t, http.StatusOK, code)
	enriched := decode[[]application.RouteSearchResultDTO](t, env.Data)
	require.Len(t, enriched, 1)
	assert.Equal(t, 2, enriched[0].AvailableTripsCount)
	assert.Equal(t, 750.0, *enriched[0].MinFare)
	assert.Equal(t, "2026-03-14", enriched[0].TravelDate)
	assert.Equal(t, day, s.trips.date)

	code, _ = s.do(t, http.MethodGet, "/api/routes/search/available?origin=pusad&destination=pune&travelDate=14-03-2026", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	s.trips.err = errors.New("bus service down")
	code, env = s.do(t, http.MethodGet, "/api/routes/search/available?origin=pusad&destination=pune", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)
}

func TestLookupEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/routes", pusadPune)
	s.do(t, http.MethodPost, "/api/routes", map[string]interface{}{
		"id": "R2", "name": "Nagpur Shuttle", "origin_city": "pusad", "destination_city": "nagpur",
	})

	_, env := s.do(t, http.MethodGet, "/api/routes/origin/Pusad", nil)
	assert.Len(t, decode[[]application.RouteDTO](t, env.Data), 2)

	_, env = s.do(t, http.MethodGet, "/api/routes/destination/nagpur", nil)
	toNagpur := decode[[]application.RouteDTO](t, env.Data)
	require.Len(t, toNagpur, 1)
	assert.Equal(t, "R2", toNagpur[0].ID)

	_, env = s.do(t, http.MethodGet, "/api/routes?name=Nagpur%20Shuttle", nil)
	named := decode[[]application.RouteDTO](t, env.Data)
	require.Len(t, named, 1)
	assert.Equal(t, "R2", named[0].ID)

	_, env = s.do(t, http.MethodGet, "/api/routes/stops/city/jalna", nil)
	inJalna := decode[[]application.StopDTO](t, env.Data)
	require.Len(t, inJalna, 1)
	assert.Equal(t, "s1", inJalna[0].ID)

	code, _ := s.do(t, http.MethodPut, "/api/routes/stops/s2", map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusOK, code)
	_, env = s.do(t, http.MethodGet, "/api/routes/R1/stops", nil)
	assert.Len(t, decode[[]application.StopDTO](t, env.Data), 1)
	_, env = s.do(t, http.MethodGet, "/api/routes/R1/stops?includeInactive=true", nil)
	assert.Len(t, decode[[]application.StopDTO](t, env.Data), 2)
}

func TestRouteTripsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/routes", pusadPune)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	s.trips.trips = []routeDomain.Trip{
		{ID: "T1", BaseFare: 900, AvailableSeats: 5, Status: "SCHEDULED", DepartureTime: day.Add(20 * time.Hour)},
		{ID: "T2", BaseFare: 400, AvailableSeats: 5, Status: routeDomain.TripStatusCancelled, DepartureTime: day},
	}

	code, env := s.do(t, http.MethodGet, "/api/routes/R1/trips", nil)
	require.Equal(t, http.StatusOK, code)
	trips := decode[[]application.TripDTO](t, env.Data)
	require.Len(t, trips, 1)
	assert.Equal(t, "T1", trips[0].TripID)

	code, _ = s.do(t, http.MethodGet, "/api/routes/missing/trips", nil)
	assert.Equal(t, http.StatusNotFound, code)

	s.trips.err = errors.New("bus service down")
	code, _ = s.do(t, http.MethodGet, "/api/routes/R1/trips", nil)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestWriteEndpointsRequireAdminWhenAuthEnabled(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)
	s := newTestServer(t, jwtManager)

	code, _ := s.do(t, http.MethodPost, "/api/routes", pusadPune)
	assert.Equal(t, http.StatusUnauthorized, code)

	operator, err := jwtManager.GenerateAccessToken("op-1", auth.RoleOperator)
	require.NoError(t, err)
	code, _ = s.do(t, http.MethodPost, "/api/routes", pusadPune, "Authorization", "Bearer "+operator)
	assert.Equal(t, http.StatusForbidden, code)

	admin, err := jwtManager.GenerateAccessToken("admin-1", auth.RoleAdmin)
	require.NoError(t, err)
	code, _ = s.do(t, http.MethodPost, "/api/routes", pusadPune, "Authorization", "Bearer "+admin)
	assert.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, http.MethodGet, "/api/routes/R1", nil)
	assert.Equal(t, http.StatusOK, code, "reads stay public")
	code, _ = s.do(t, http.MethodPost, "/api/routes/search", map[string]interface{}{
		"origin_city": "pusad", "destination_city": "pune",
	})
	assert.Equal(t, http.StatusOK, code, "search stays public")
}
