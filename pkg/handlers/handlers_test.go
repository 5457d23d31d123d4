package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"megacity/pkg/backend"
	"megacity/pkg/hub"
	"megacity/pkg/middleware"
	"megacity/pkg/models"
	"megacity/pkg/services"
	"megacity/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(key string, dest interface{}) bool {
	raw, ok := f.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (f *fakeCache) Set(key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	f.data[key] = raw
}

func (f *fakeCache) Del(keys ...string) {
	for _, k := range keys {
		delete(f.data, k)
	}
}

func (f *fakeCache) DelPattern(pattern string) {}

// fakeBackend emulates the cab backend's REST surface for the routes the
// storefront exercises in these tests.
func fakeBackend(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(models.LoginResponse{Token: "t0k", UserID: "u1", Role: role})
	})

	mux.HandleFunc("/all/viewCars", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.CarDTO{
			{CarID: "c1", CarBrand: "Toyota", CarModel: "Axio", Capacity: 4, Available: true},
			{CarID: "c2", CarBrand: "Mercedes", CarModel: "E200", CarType: "Luxury", Capacity: 4, Available: true},
			{CarID: "c3", CarBrand: "Nissan", CarModel: "Caravan", CarType: "Van", Capacity: 8, Available: false},
		})
	})

	mux.HandleFunc("/customer/bookCar", func(w http.ResponseWriter, r *http.Request) {
		var req models.BookingRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(models.BookingRecord{
			BookingID:   "b1",
			CustomerID:  req.CustomerID,
			CarID:       req.CarID,
			TotalAmount: req.TotalAmount,
			Status:      models.StatusPending,
		})
	})

	return httptest.NewServer(mux)
}

func storefrontApp(api *backend.Client, cache *fakeCache) *fiber.App {
	sessions := session.NewStore(cache)
	wsHub := hub.New()
	catalog := services.NewCatalog(api, cache)

	auth := NewAuth(api, sessions, wsHub)
	fleet := NewFleet(catalog)
	booking := NewBooking(api, catalog, sessions, cache, wsHub)

	app := fiber.New()
	app.Post("/auth/login", auth.Login)
	app.Get("/auth/session", auth.Session)
	app.Post("/auth/logout", middleware.RequireAuth(sessions), auth.Logout)
	app.Get("/fleet", fleet.List)

	grp := app.Group("/booking", middleware.RequireRole(sessions, models.RoleCustomer))
	grp.Get("/", booking.Show)
	grp.Post("/select", booking.Select)
	grp.Put("/details", booking.Details)
	grp.Post("/change-vehicle", booking.ChangeVehicle)
	grp.Post("/submit", booking.Submit)

	return app
}

func jsonReq(method, target string, body interface{}, cookie *http.Cookie) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func login(t *testing.T, app *fiber.App, password string) (*http.Cookie, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(jsonReq(http.MethodPost, "/auth/login", fiber.Map{
		"email": "a@b.lk", "password": password,
	}, nil))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}

	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)

	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			return ck, body
		}
	}
	return nil, body
}

func TestLoginRedirectsByRole(t *testing.T) {
	cases := []struct {
		role     string
		redirect string
	}{
		{"ROLE_CUSTOMER", "/home"},
		{"ROLE_DRIVER", "/driver-dashboard"},
		{"ROLE_ADMIN", "/admin/dashboard"},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			srv := fakeBackend(t, tc.role)
			defer srv.Close()
			app := storefrontApp(backend.New(srv.URL), newFakeCache())

			ck, body := login(t, app, "secret")
			if ck == nil {
				t.Fatal("no session cookie after login")
			}
			if body["redirect"] != tc.redirect {
				t.Fatalf("redirect = %v, want %s", body["redirect"], tc.redirect)
			}
		})
	}
}

func TestLoginBadPassword(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())

	resp, err := app.Test(jsonReq(http.MethodPost, "/auth/login", fiber.Map{
		"email": "a@b.lk", "password": "wrong",
	}, nil))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != "Invalid email or password" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestFleetBackendDownIsErrorNotEmpty(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	srv.Close() // backend gone

	app := storefrontApp(backend.New(srv.URL), newFakeCache())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fleet", nil))
	if err != nil {
		t.Fatalf("fleet request: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] == "" {
		t.Fatal("no error message in catalog failure response")
	}
}

func TestFleetFilters(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fleet?type=Luxury&availability=Available", nil))
	if err != nil {
		t.Fatalf("fleet request: %v", err)
	}

	var body struct {
		Vehicles []models.Vehicle `json:"vehicles"`
		Count    int              `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Count != 1 || body.Vehicles[0].ID != "c2" {
		t.Fatalf("filtered = %+v", body)
	}
}

func TestBookingRequiresCustomer(t *testing.T) {
	srv := fakeBackend(t, "ROLE_ADMIN")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())

	// anonymous
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/booking/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("anonymous status = %d, want 401", resp.StatusCode)
	}

	// wrong role
	ck, _ := login(t, app, "secret")
	resp, err = app.Test(jsonReq(http.MethodGet, "/booking/", nil, ck))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Fatalf("admin status = %d, want 403", resp.StatusCode)
	}
}

func TestBookingWizardFullFlow(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())
	ck, _ := login(t, app, "secret")

	type snapshot struct {
		Wizard   services.Wizard  `json:"wizard"`
		Vehicles []models.Vehicle `json:"vehicles"`
		Error    string           `json:"error"`
	}

	decode := func(resp *http.Response) snapshot {
		var s snapshot
		json.NewDecoder(resp.Body).Decode(&s)
		return s
	}

	// fresh wizard: selection step with the bookable catalog
	resp, err := app.Test(jsonReq(http.MethodGet, "/booking/", nil, ck))
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	s := decode(resp)
	if s.Wizard.Step != services.StepSelectVehicle {
		t.Fatalf("step = %s, want %s", s.Wizard.Step, services.StepSelectVehicle)
	}
	if len(s.Vehicles) != 2 {
		t.Fatalf("bookable vehicles = %d, want 2 (c3 is unavailable)", len(s.Vehicles))
	}

	// select a vehicle, advances to details with fare computed
	resp, err = app.Test(jsonReq(http.MethodPost, "/booking/select", fiber.Map{"vehicleId": "c2"}, ck))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	s = decode(resp)
	if s.Wizard.Step != services.StepTripDetails {
		t.Fatalf("step = %s, want %s", s.Wizard.Step, services.StepTripDetails)
	}
	if s.Wizard.Fare.Total != 84.00 { // Luxury: 75 + 9 tax
		t.Fatalf("fare total = %.2f, want 84.00", s.Wizard.Fare.Total)
	}

	// trip details with chauffeur
	date := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	resp, err = app.Test(jsonReq(http.MethodPut, "/booking/details", services.TripDetailsForm{
		PickupDate:     date,
		PickupTime:     "10:00",
		PickupLocation: "Kandy City Centre",
		DropLocation:   "Colombo Fort",
		DriverRequired: true,
	}, ck))
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	s = decode(resp)
	if s.Wizard.Fare.Total != 114.00 {
		t.Fatalf("fare with driver = %.2f, want 114.00", s.Wizard.Fare.Total)
	}

	// submit confirms
	resp, err = app.Test(jsonReq(http.MethodPost, "/booking/submit", nil, ck))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	s = decode(resp)
	if s.Wizard.Step != services.StepConfirmation {
		t.Fatalf("step = %s, want %s", s.Wizard.Step, services.StepConfirmation)
	}
	if s.Wizard.Confirmed == nil || s.Wizard.Confirmed.BookingID != "b1" {
		t.Fatalf("confirmed = %+v", s.Wizard.Confirmed)
	}

	// flow is terminal
	resp, err = app.Test(jsonReq(http.MethodPost, "/booking/submit", nil, ck))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if resp.StatusCode != 409 {
		t.Fatalf("second submit status = %d, want 409", resp.StatusCode)
	}
}

func TestBookingPreselectFromFleet(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())
	ck, _ := login(t, app, "secret")

	resp, err := app.Test(jsonReq(http.MethodGet, "/booking/?car=c1", nil, ck))
	if err != nil {
		t.Fatalf("show: %v", err)
	}

	var s struct {
		Wizard services.Wizard `json:"wizard"`
	}
	json.NewDecoder(resp.Body).Decode(&s)
	if s.Wizard.Step != services.StepTripDetails {
		t.Fatalf("step = %s, want %s", s.Wizard.Step, services.StepTripDetails)
	}
	if s.Wizard.Vehicle == nil || s.Wizard.Vehicle.ID != "c1" {
		t.Fatalf("vehicle = %+v", s.Wizard.Vehicle)
	}
	if s.Wizard.Draft.PickupTime != "12:00" {
		t.Fatalf("pickup time = %q, want 12:00 default", s.Wizard.Draft.PickupTime)
	}
}

func TestBookingPreselectKeepsUnavailableCar(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())
	ck, _ := login(t, app, "secret")

	// c3 is in the fleet but not bookable; the preselection still holds
	// and rejection is left to the backend at submit time
	resp, err := app.Test(jsonReq(http.MethodGet, "/booking/?car=c3", nil, ck))
	if err != nil {
		t.Fatalf("show: %v", err)
	}

	var s struct {
		Wizard services.Wizard `json:"wizard"`
	}
	json.NewDecoder(resp.Body).Decode(&s)
	if s.Wizard.Step != services.StepTripDetails {
		t.Fatalf("step = %s, want %s", s.Wizard.Step, services.StepTripDetails)
	}
	if s.Wizard.Vehicle == nil || s.Wizard.Vehicle.ID != "c3" {
		t.Fatalf("vehicle = %+v, want c3 preselected", s.Wizard.Vehicle)
	}
}

func TestBookingSubmitValidationInline(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())
	ck, _ := login(t, app, "secret")

	// start with a preselected car, submit without filling details
	if _, err := app.Test(jsonReq(http.MethodGet, "/booking/?car=c1", nil, ck)); err != nil {
		t.Fatalf("show: %v", err)
	}

	resp, err := app.Test(jsonReq(http.MethodPost, "/booking/submit", nil, ck))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.StatusCode != 422 {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	// wizard still on trip details, draft intact
	resp, err = app.Test(jsonReq(http.MethodGet, "/booking/", nil, ck))
	if err != nil {
		t.Fatalf("show after failed submit: %v", err)
	}
	var s struct {
		Wizard services.Wizard `json:"wizard"`
	}
	json.NewDecoder(resp.Body).Decode(&s)
	if s.Wizard.Step != services.StepTripDetails {
		t.Fatalf("step = %s, want %s", s.Wizard.Step, services.StepTripDetails)
	}
}

func TestChangeVehicleKeepsEnteredDetails(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())
	ck, _ := login(t, app, "secret")

	if _, err := app.Test(jsonReq(http.MethodGet, "/booking/?car=c1", nil, ck)); err != nil {
		t.Fatalf("show: %v", err)
	}

	date := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	if _, err := app.Test(jsonReq(http.MethodPut, "/booking/details", services.TripDetailsForm{
		PickupDate:     date,
		PickupTime:     "08:15",
		PickupLocation: "Galle Face",
		DropLocation:   "Mount Lavinia",
	}, ck)); err != nil {
		t.Fatalf("details: %v", err)
	}

	resp, err := app.Test(jsonReq(http.MethodPost, "/booking/change-vehicle", nil, ck))
	if err != nil {
		t.Fatalf("change-vehicle: %v", err)
	}

	var s struct {
		Wizard services.Wizard `json:"wizard"`
	}
	json.NewDecoder(resp.Body).Decode(&s)
	if s.Wizard.Step != services.StepSelectVehicle {
		t.Fatalf("step = %s, want %s", s.Wizard.Step, services.StepSelectVehicle)
	}
	if s.Wizard.Draft.PickupLocation != "Galle Face" || s.Wizard.Draft.PickupTime != "08:15" {
		t.Fatalf("draft lost: %+v", s.Wizard.Draft)
	}
}

func TestLogoutNeedsSession(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if err != nil {
		t.Fatalf("logout request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("anonymous logout status = %d, want 401", resp.StatusCode)
	}

	ck, _ := login(t, app, "secret")
	resp, err = app.Test(jsonReq(http.MethodPost, "/auth/logout", nil, ck))
	if err != nil {
		t.Fatalf("logout request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["redirect"] != "/" {
		t.Fatalf("redirect = %q, want /", body["redirect"])
	}
}

func TestSessionEndpoint(t *testing.T) {
	srv := fakeBackend(t, "ROLE_CUSTOMER")
	defer srv.Close()
	app := storefrontApp(backend.New(srv.URL), newFakeCache())

	// anonymous
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	if err != nil {
		t.Fatalf("session request: %v", err)
	}
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	if body["authenticated"] != false {
		t.Fatalf("anonymous session = %v", body)
	}

	// logged in
	ck, _ := login(t, app, "secret")
	resp, err = app.Test(jsonReq(http.MethodGet, "/auth/session", nil, ck))
	if err != nil {
		t.Fatalf("session request: %v", err)
	}
	body = map[string]interface{}{}
	json.NewDecoder(resp.Body).Decode(&body)
	if body["authenticated"] != true || body["dashboard"] != "/home" {
		t.Fatalf("session = %v", body)
	}
}
