// Package hrisapi is the typed REST client for the HRIS backend the
// agent syncs against. Transport failures and HTTP statuses are mapped
// onto the punch error taxonomy so the retry profiles can classify them.
package hrisapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/config"
	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"golang.org/x/oauth2"
)

// Client talks to the backend attendance endpoints on behalf of one
// enrolled device.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a client whose requests carry the device credential
// through an oauth2 token source.
func NewClient(cfg config.APIConfig) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// CheckIn submits a live or replayed check-in punch and returns the
// backend's free-text acknowledgement.
func (c *Client) CheckIn(ctx context.Context, lat, lng float64, scanType punch.ScanType) (string, error) {
	body := punch.CheckInWireRequest{
		CheckInLatitude:  lat,
		CheckInLongitude: lng,
		ScanType:         string(scanType),
	}
	return c.submit(ctx, "/api/v1/attendance/check-in", body)
}

// CheckOut submits a live or replayed check-out punch.
func (c *Client) CheckOut(ctx context.Context, lat, lng float64, scanType punch.ScanType) (string, error) {
	body := punch.CheckOutWireRequest{
		CheckOutLatitude:  lat,
		CheckOutLongitude: lng,
		ScanType:          string(scanType),
	}
	return c.submit(ctx, "/api/v1/attendance/check-out", body)
}

// DayRecord fetches the backend's attendance record for one date, used
// by conflict resolution. Returns nil when the server has no record.
func (c *Client) DayRecord(ctx context.Context, date string) (*punch.ServerDayRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/attendance/day/"+url.PathEscape(date), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build day record request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var payload struct {
		Date         string  `json:"date"`
		ClockInTime  *string `json:"clock_in_time"`
		ClockOutTime *string `json:"clock_out_time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode day record: %w", err)
	}

	record := &punch.ServerDayRecord{Date: payload.Date}
	if record.ClockIn, err = parseServerTime(payload.ClockInTime); err != nil {
		return nil, err
	}
	if record.ClockOut, err = parseServerTime(payload.ClockOutTime); err != nil {
		return nil, err
	}

	return record, nil
}

// Ping probes the backend heartbeat; a nil return means online.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return &punch.ServerError{Code: resp.StatusCode, Detail: "backend unhealthy"}
	}
	return nil
}

func (c *Client) submit(ctx context.Context, path string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode punch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build punch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp)
	}

	var wire punch.WireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", fmt.Errorf("failed to decode punch response: %w", err)
	}

	return wire.Detail, nil
}

// transportError maps a client-side failure onto the taxonomy:
// deadline problems become NetworkTimeout, everything else on the wire
// becomes NetworkUnavailable.
func transportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", punch.ErrNetworkTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", punch.ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %v", punch.ErrNetworkUnavailable, err)
}

// statusError maps the backend's HTTP status taxonomy onto domain errors.
func statusError(resp *http.Response) error {
	detail := readDetail(resp)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", punch.ErrUnauthorized, detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", punch.ErrDuplicateAttendance, detail)
	default:
		return &punch.ServerError{Code: resp.StatusCode, Detail: detail}
	}
}

func readDetail(resp *http.Response) string {
	var wire punch.WireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err == nil && wire.Detail != "" {
		return wire.Detail
	}
	return http.StatusText(resp.StatusCode)
}

func parseServerTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized server timestamp %q", *s)
}
