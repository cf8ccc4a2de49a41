// README: Handler tests with stubbed services (auth, validation, error mapping, stream).
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bettercommute/internal/http/handlers"
	httpmiddleware "bettercommute/internal/http/middleware"
	"bettercommute/internal/infra"
	"bettercommute/internal/modules/account"
	"bettercommute/internal/modules/booking"
	"bettercommute/internal/modules/catalog"
	"bettercommute/internal/modules/location"
	"bettercommute/internal/modules/places"
	"bettercommute/internal/modules/route"
	"bettercommute/internal/modules/trip"
	"bettercommute/internal/types"
)

const bookingUUID = "6f1c2a9e-3b4d-4e5f-8a7b-1c2d3e4f5a6b"

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

type stubBookings struct {
	confirmCmd booking.ConfirmCommand
	quoteCmd   booking.QuoteCommand
	quoteCars  []catalog.CarType
	booking    *booking.Booking
	updates    []booking.Update
	err        error
	cancelErr  error
}

func (s *stubBookings) Quote(_ context.Context, cmd booking.QuoteCommand, cars []catalog.CarType) (booking.QuoteResult, error) {
	s.quoteCmd, s.quoteCars = cmd, cars
	return booking.QuoteResult{Dropoff: cmd.Dropoff}, s.err
}

func (s *stubBookings) Confirm(_ context.Context, cmd booking.ConfirmCommand) (*booking.Booking, error) {
	s.confirmCmd = cmd
	if s.err != nil {
		return nil, s.err
	}
	return s.booking, nil
}

func (s *stubBookings) Get(_ context.Context, id, passengerID types.ID) (*booking.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.booking.PassengerID != passengerID {
		return nil, booking.ErrNotFound
	}
	return s.booking, nil
}

func (s *stubBookings) Cancel(context.Context, booking.CancelCommand) error {
	return s.cancelErr
}

func (s *stubBookings) Acknowledge(context.Context, booking.AcknowledgeCommand) error {
	return s.err
}

func (s *stubBookings) Subscribe(context.Context, types.ID, types.ID) (<-chan booking.Update, func(), error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	ch := make(chan booking.Update, len(s.updates))
	for _, u := range s.updates {
		ch <- u
	}
	close(ch)
	return ch, func() {}, nil
}

type stubCars []catalog.CarType

func (s stubCars) All(context.Context) []catalog.CarType { return s }

type stubRoutes struct {
	res route.Result
	err error
}

func (s stubRoutes) Lookup(context.Context, types.Point, types.Point) (route.Result, error) {
	return s.res, s.err
}

type stubPlaces struct{ err error }

func (s stubPlaces) Predictions(_ context.Context, q string) []places.Prediction {
	if q == "" {
		return []places.Prediction{}
	}
	return []places.Prediction{{ID: "pl1", Label: "Penn Station"}}
}

func (s stubPlaces) Details(context.Context, string) (types.Point, error) {
	return types.Point{Lat: 40.75, Lng: -73.99}, s.err
}

type stubAccounts struct{ err error }

func (s stubAccounts) SignUp(_ context.Context, cmd account.SignUpCommand) (account.Account, error) {
	return account.Account{UID: "u1", Email: cmd.Email}, s.err
}

type stubLocation struct{ got location.Update }

func (s *stubLocation) Update(_ context.Context, u location.Update) (bool, error) {
	s.got = u
	if !u.Position.Valid() {
		return false, location.ErrInvalidPosition
	}
	return true, nil
}

type fixture struct {
	bookings *stubBookings
	location *stubLocation
	routes   stubRoutes
	places   stubPlaces
	accounts stubAccounts
}

func newFixture() *fixture {
	return &fixture{
		bookings: &stubBookings{booking: &booking.Booking{ID: bookingUUID, PassengerID: "p1", Status: booking.StatusConfirmed}},
		location: &stubLocation{},
	}
}

func (f *fixture) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/accounts", handlers.NewAccountHandler(f.accounts).SignUp)

	verifier := &stubTokenVerifier{token: &infra.FirebaseToken{UID: "p1"}}
	api := r.Group("/api", httpmiddleware.Auth(verifier))
	cars := stubCars{{Type: "Sedan", PricePerKm: 2}}
	bh := handlers.NewBookingHandler(f.bookings, cars, nil)
	api.POST("/quotes", bh.Quote)
	api.POST("/bookings", bh.Create)
	api.GET("/bookings/:id", bh.Get)
	api.POST("/bookings/:id/cancel", bh.Cancel)
	api.POST("/bookings/:id/acknowledge", bh.Acknowledge)
	api.GET("/bookings/:id/stream", bh.Stream)
	api.GET("/routes", handlers.NewRouteHandler(f.routes).Get)
	api.GET("/cars", handlers.NewCarHandler(cars).List)
	ph := handlers.NewPlacesHandler(f.places)
	api.GET("/places/predictions", ph.Predictions)
	api.GET("/places/:id", ph.Details)
	api.PUT("/passengers/me/location", handlers.NewLocationHandler(f.location).Update)
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateBooking_Unauthenticated(t *testing.T) {
	w := doRequest(newFixture().router(), http.MethodPost, "/api/bookings", map[string]any{
		"dropoff":  map[string]any{"lat": 40.7, "lng": -73.9},
		"car_type": "Sedan",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateBooking_UsesCallerAndOptionalPickup(t *testing.T) {
	f := newFixture()
	w := doRequest(f.router(), http.MethodPost, "/api/bookings", map[string]any{
		"dropoff":  map[string]any{"lat": 40.7, "lng": -73.9},
		"car_type": "Sedan",
	}, "Bearer token")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, types.ID("p1"), f.bookings.confirmCmd.PassengerID)
	assert.Nil(t, f.bookings.confirmCmd.Pickup)
	assert.Equal(t, types.Point{Lat: 40.7, Lng: -73.9}, f.bookings.confirmCmd.Dropoff)

	body := decode(t, w)
	assert.Equal(t, bookingUUID, body["id"])
	assert.Equal(t, "confirmed", body["status"])
}

func TestCreateBooking_Validation(t *testing.T) {
	r := newFixture().router()
	cases := []struct {
		name string
		body any
	}{
		{"missing dropoff", map[string]any{"car_type": "Sedan"}},
		{"missing car type", map[string]any{"dropoff": map[string]any{"lat": 1, "lng": 2}}},
		{"half pickup", map[string]any{"pickup": map[string]any{"lat": 1}, "dropoff": map[string]any{"lat": 1, "lng": 2}, "car_type": "Sedan"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/bookings", tc.body, "Bearer token")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestBookingErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{booking.ErrActiveBooking, http.StatusConflict},
		{booking.ErrBadRequest, http.StatusBadRequest},
		{catalog.ErrUnknownCarType, http.StatusBadRequest},
		{fmt.Errorf("%w: %v", booking.ErrRouteUnavailable, route.ErrLookupFailed), http.StatusServiceUnavailable},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		f := newFixture()
		f.bookings.err = tc.err
		w := doRequest(f.router(), http.MethodPost, "/api/bookings", map[string]any{
			"dropoff":  map[string]any{"lat": 1, "lng": 2},
			"car_type": "Sedan",
		}, "Bearer token")
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}

func TestGetBooking(t *testing.T) {
	f := newFixture()
	f.bookings.booking.Status = booking.StatusApproaching
	f.bookings.booking.ETAMinutes = 5
	f.bookings.booking.Progress = &trip.ProgressState{ElapsedTicks: 150, TotalTicks: 300, Fraction: 0.5}
	r := f.router()

	w := doRequest(r, http.MethodGet, "/api/bookings/"+bookingUUID, nil, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 3, body["remaining_minutes"])
	assert.NotNil(t, body["progress"])

	w = doRequest(r, http.MethodGet, "/api/bookings/not-a-uuid", nil, "Bearer token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.bookings.booking.PassengerID = "someone-else"
	w = doRequest(r, http.MethodGet, "/api/bookings/"+bookingUUID, nil, "Bearer token")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelBooking_WindowClosed(t *testing.T) {
	f := newFixture()
	f.bookings.cancelErr = booking.ErrCancelWindowClosed
	w := doRequest(f.router(), http.MethodPost, "/api/bookings/"+bookingUUID+"/cancel", nil, "Bearer token")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "cancel window closed")
}

func TestAcknowledgeBooking(t *testing.T) {
	w := doRequest(newFixture().router(), http.MethodPost, "/api/bookings/"+bookingUUID+"/acknowledge", nil, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode(t, w)["status"])
}

func TestQuote_PassesCatalog(t *testing.T) {
	f := newFixture()
	w := doRequest(f.router(), http.MethodPost, "/api/quotes", map[string]any{
		"pickup":  map[string]any{"lat": 40.71, "lng": -74.0},
		"dropoff": map[string]any{"lat": 40.75, "lng": -73.98},
	}, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.bookings.quoteCars, 1)
	assert.Equal(t, "Sedan", f.bookings.quoteCars[0].Type)
	require.NotNil(t, f.bookings.quoteCmd.Pickup)
	assert.Equal(t, 40.71, f.bookings.quoteCmd.Pickup.Lat)
}

func TestRoutes(t *testing.T) {
	cases := []struct {
		name   string
		routes stubRoutes
		status string
		km     float64
	}{
		{"found", stubRoutes{res: route.Result{Points: []types.Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, DistanceKm: 2.5}}, "found", 2.5},
		{"no route", stubRoutes{res: route.Empty(), err: route.ErrNoRoute}, "no_route", 0},
		{"failed", stubRoutes{res: route.Empty(), err: route.ErrLookupFailed}, "failed", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.routes = tc.routes
			w := doRequest(f.router(), http.MethodGet, "/api/routes?from=40.71,-74.0&to=40.75,-73.98", nil, "Bearer token")
			require.Equal(t, http.StatusOK, w.Code)
			body := decode(t, w)
			assert.Equal(t, tc.status, body["status"])
			assert.Equal(t, tc.km, body["distance_km"])
			assert.NotNil(t, body["points"])
		})
	}

	w := doRequest(newFixture().router(), http.MethodGet, "/api/routes?from=abc&to=1,2", nil, "Bearer token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaces(t *testing.T) {
	f := newFixture()
	r := f.router()

	w := doRequest(r, http.MethodGet, "/api/places/predictions?q=penn", nil, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Penn Station")

	w = doRequest(r, http.MethodGet, "/api/places/predictions", nil, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"predictions":[]}`, w.Body.String())

	f.places.err = places.ErrPlaceNotFound
	w = doRequest(f.router(), http.MethodGet, "/api/places/pl404", nil, "Bearer token")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignUp(t *testing.T) {
	f := newFixture()
	w := doRequest(f.router(), http.MethodPost, "/api/accounts", map[string]any{"email": "a@b.co", "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "a@b.co", decode(t, w)["email"])

	f.accounts.err = account.ErrEmailExists
	w = doRequest(f.router(), http.MethodPost, "/api/accounts", map[string]any{"email": "a@b.co", "password": "secret1"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateLocation(t *testing.T) {
	f := newFixture()
	r := f.router()

	w := doRequest(r, http.MethodPut, "/api/passengers/me/location", map[string]any{"lat": 40.7, "lng": -74.0}, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.ID("p1"), f.location.got.UserID)

	w = doRequest(r, http.MethodPut, "/api/passengers/me/location", map[string]any{"lat": 40.7}, "Bearer token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/passengers/me/location", map[string]any{"lat": 140.7, "lng": 0}, "Bearer token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStream(t *testing.T) {
	f := newFixture()
	f.bookings.booking.Status = booking.StatusArrived
	f.bookings.updates = []booking.Update{
		{BookingID: bookingUUID, Status: booking.StatusApproaching, RemainingMinutes: 1},
		{BookingID: bookingUUID, Status: booking.StatusApproaching, Progress: &trip.ProgressState{ElapsedTicks: 60, TotalTicks: 60, Fraction: 1}},
		{BookingID: bookingUUID, Status: booking.StatusArrived},
	}
	srv := httptest.NewServer(f.router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/bookings/" + bookingUUID + "/stream?access_token=tok"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var got []booking.Update
	for {
		var u booking.Update
		if err := conn.ReadJSON(&u); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		got = append(got, u)
	}
	require.Len(t, got, 3)
	assert.Equal(t, booking.StatusArrived, got[2].Status)
	assert.Equal(t, 1.0, got[1].Progress.Fraction)
}
