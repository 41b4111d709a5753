package hrisapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/config"
	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.APIConfig{
		BaseURL: server.URL,
		Token:   "device-token",
		Timeout: 5 * time.Second,
	})
}

func TestCheckInSendsWirePayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(punch.WireResponse{Detail: "checked in"})
	})

	detail, err := client.CheckIn(context.Background(), -6.2, 106.8, punch.ScanFace)
	require.NoError(t, err)

	assert.Equal(t, "checked in", detail)
	assert.Equal(t, "/api/v1/attendance/check-in", gotPath)
	assert.Equal(t, "Bearer device-token", gotAuth)
	assert.Equal(t, -6.2, gotBody["check_in_latitude"])
	assert.Equal(t, 106.8, gotBody["check_in_longitude"])
	assert.Equal(t, "face", gotBody["scan_type"])
}

func TestCheckOutSendsWirePayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(punch.WireResponse{Detail: "checked out"})
	})

	_, err := client.CheckOut(context.Background(), -6.2, 106.8, punch.ScanFingerprint)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/attendance/check-out", gotPath)
	assert.Equal(t, -6.2, gotBody["check_out_latitude"])
	assert.Equal(t, "fingerprint", gotBody["scan_type"])
}

func TestStatusTaxonomy(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		wantIs    error
		transient bool
	}{
		{"unauthorized", http.StatusUnauthorized, punch.ErrUnauthorized, false},
		{"conflict", http.StatusConflict, punch.ErrDuplicateAttendance, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				json.NewEncoder(w).Encode(punch.WireResponse{Detail: "nope"})
			})

			_, err := client.CheckIn(context.Background(), 0, 0, punch.ScanFace)
			require.Error(t, err)
			assert.ErrorIs(t, err, c.wantIs)
		})
	}
}

func TestServerErrorsCarryStatusCode(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(punch.WireResponse{Detail: "rejected"})
		})

		_, err := client.CheckIn(context.Background(), 0, 0, punch.ScanFace)
		require.Error(t, err)

		var serverErr *punch.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, status, serverErr.Code)
		assert.Equal(t, "rejected", serverErr.Detail)
		assert.Equal(t, status >= 500, serverErr.Transient())
	}
}

func TestTransportErrorsMapToNetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing listens anymore

	client := NewClient(config.APIConfig{
		BaseURL: server.URL,
		Token:   "device-token",
		Timeout: time.Second,
	})

	_, err := client.CheckIn(context.Background(), 0, 0, punch.ScanFace)
	require.Error(t, err)
	assert.ErrorIs(t, err, punch.ErrNetworkUnavailable)
}

func TestDayRecordParsesServerTimes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/attendance/day/2026-03-09", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"date":           "2026-03-09",
			"clock_in_time":  "2026-03-09 08:00:00",
			"clock_out_time": nil,
		})
	})

	record, err := client.DayRecord(context.Background(), "2026-03-09")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "2026-03-09", record.Date)
	require.NotNil(t, record.ClockIn)
	assert.Equal(t, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC), *record.ClockIn)
	assert.Nil(t, record.ClockOut)
}

func TestDayRecordMissingIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	record, err := client.DayRecord(context.Background(), "2026-03-09")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestPing(t *testing.T) {
	healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, healthy.Ping(context.Background()))

	unhealthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	err := unhealthy.Ping(context.Background())
	require.Error(t, err)

	var serverErr *punch.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadGateway, serverErr.Code)
}
