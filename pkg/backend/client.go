package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"megacity/pkg/models"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1048576 // 1MB
)

// Client talks to the cab backend REST API. It owns the request lifecycle
// for every remote call; callers get normalized entities and classified
// errors, never raw responses.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode >= 500:
		return ErrServer
	case resp.StatusCode >= 400:
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if dest != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("%w: bad response body: %v", ErrServer, err)
		}
	}
	return nil
}

// errorMessage digs a human-readable message out of a 4xx payload.
func errorMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" && len(msg) < 200 {
		return msg
	}
	return "request rejected"
}

// ----- auth -----

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &resp)
	return resp, err
}

func (c *Client) CreateCustomer(ctx context.Context, cust models.Customer) (models.Customer, error) {
	var created models.Customer
	err := c.do(ctx, http.MethodPost, "/auth/customers/createCustomer", "", cust, &created)
	return created, err
}

// ----- catalog -----

func (c *Client) ViewCars(ctx context.Context) ([]models.CarDTO, error) {
	var cars []models.CarDTO
	err := c.do(ctx, http.MethodGet, "/all/viewCars", "", nil, &cars)
	return cars, err
}

func (c *Client) CreateCar(ctx context.Context, token string, car models.CarDTO) (models.CarDTO, error) {
	var created models.CarDTO
	err := c.do(ctx, http.MethodPost, "/auth/cars/createCar", token, car, &created)
	return created, err
}

func (c *Client) UpdateCar(ctx context.Context, token, id string, car models.CarDTO) (models.CarDTO, error) {
	var updated models.CarDTO
	err := c.do(ctx, http.MethodPut, "/auth/cars/updateCar/"+url.PathEscape(id), token, car, &updated)
	return updated, err
}

func (c *Client) DeleteCar(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/auth/cars/"+url.PathEscape(id), token, nil, nil)
}

// ----- bookings -----

func (c *Client) BookCar(ctx context.Context, token string, req models.BookingRequest) (models.BookingRecord, error) {
	var rec models.BookingRecord
	err := c.do(ctx, http.MethodPost, "/customer/bookCar", token, req, &rec)
	return rec, err
}

func (c *Client) AllBookings(ctx context.Context, token string) ([]models.BookingRecord, error) {
	var list []models.BookingRecord
	err := c.do(ctx, http.MethodGet, "/auth/bookings/getallbookings", token, nil, &list)
	return list, err
}

func (c *Client) CustomerBookings(ctx context.Context, token string) ([]models.BookingRecord, error) {
	var list []models.BookingRecord
	err := c.do(ctx, http.MethodGet, "/auth/bookings/getallcustomerbookings", token, nil, &list)
	return list, err
}

func (c *Client) CancelBooking(ctx context.Context, token, id, reason string) error {
	body := map[string]string{"reason": strings.TrimSpace(reason)}
	return c.do(ctx, http.MethodPost, "/auth/bookings/"+url.PathEscape(id)+"/cancel", token, body, nil)
}

// ----- drivers -----

func (c *Client) AllDrivers(ctx context.Context, token string) ([]models.Driver, error) {
	var list []models.Driver
	err := c.do(ctx, http.MethodGet, "/auth/driver/getalldrivers", token, nil, &list)
	return list, err
}

func (c *Client) GetDriver(ctx context.Context, token, id string) (models.Driver, error) {
	var d models.Driver
	err := c.do(ctx, http.MethodGet, "/auth/driver/getDriver/"+url.PathEscape(id), token, nil, &d)
	return d, err
}

func (c *Client) CreateDriver(ctx context.Context, d models.Driver) (models.Driver, error) {
	var created models.Driver
	err := c.do(ctx, http.MethodPost, "/auth/driver/createdriver", "", d, &created)
	return created, err
}

func (c *Client) UpdateDriver(ctx context.Context, token, id string, d models.Driver) (models.Driver, error) {
	var updated models.Driver
	err := c.do(ctx, http.MethodPut, "/auth/driver/updateDriver/"+url.PathEscape(id), token, d, &updated)
	return updated, err
}

// ----- customers -----

func (c *Client) ViewCustomers(ctx context.Context, token string) ([]models.Customer, error) {
	var list []models.Customer
	err := c.do(ctx, http.MethodGet, "/auth/customers/viewCustomers", token, nil, &list)
	return list, err
}

func (c *Client) GetCustomer(ctx context.Context, token, id string) (models.Customer, error) {
	var cust models.Customer
	err := c.do(ctx, http.MethodGet, "/auth/customers/getCustomer/"+url.PathEscape(id), token, nil, &cust)
	return cust, err
}
