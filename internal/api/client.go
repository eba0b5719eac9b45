// Package api is the thin HTTP client over the driver REST endpoints.
// It reports transport and decode errors to its callers; the components
// above it decide how to degrade.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchDriverData loads the full trips/rosters/passenger-list payload.
func (c *Client) FetchDriverData(ctx context.Context) (DriverData, error) {
	var out DriverData
	if err := c.getJSON(ctx, "/api/driver/data", &out); err != nil {
		return DriverData{}, err
	}
	return out, nil
}

// ConfirmBoarding reports one scanned QR payload to the server.
func (c *Client) ConfirmBoarding(ctx context.Context, qrcode string) (CheckinResult, error) {
	var out CheckinResult
	err := c.postJSON(ctx, "/api/driver/checkin", map[string]string{"qrcode": qrcode}, &out)
	return out, err
}

// LookupQR resolves a QR payload to its booking without checking it in.
func (c *Client) LookupQR(ctx context.Context, qrcode string) (QRInfo, error) {
	var out QRInfo
	err := c.postJSON(ctx, "/api/driver/qrcode_info", map[string]string{"qrcode": qrcode}, &out)
	return out, err
}

// MarkNoShow flags a booking as a no-show.
func (c *Client) MarkNoShow(ctx context.Context, bookingID string) (bool, error) {
	var out statusResponse
	if err := c.postJSON(ctx, "/api/driver/no_show", map[string]string{"booking_id": bookingID}, &out); err != nil {
		return false, err
	}
	return out.Status == "success", nil
}

// ManualBoarding boards a booking without a scan.
func (c *Client) ManualBoarding(ctx context.Context, bookingID string) (bool, error) {
	var out statusResponse
	if err := c.postJSON(ctx, "/api/driver/manual_boarding", map[string]string{"booking_id": bookingID}, &out); err != nil {
		return false, err
	}
	return out.Status == "success", nil
}

// SendLocation uploads one GPS fix.
func (c *Client) SendLocation(ctx context.Context, report LocationReport) error {
	return c.postJSON(ctx, "/api/driver/location", report, nil)
}

// StartTrip opens a live trip on the tracking backend.
func (c *Client) StartTrip(ctx context.Context, req TripStartRequest) (TripStartResult, error) {
	var out TripStartResult
	err := c.postJSON(ctx, "/api/driver/google/trip_start", req, &out)
	return out, err
}

// CompleteTrip closes a live trip.
func (c *Client) CompleteTrip(ctx context.Context, tripID, driverRole, mainDatetime string) (bool, error) {
	var out statusResponse
	body := map[string]string{
		"trip_id":       tripID,
		"driver_role":   driverRole,
		"main_datetime": mainDatetime,
	}
	if err := c.postJSON(ctx, "/api/driver/google/trip_complete", body, &out); err != nil {
		return false, err
	}
	return out.Status == "success", nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
