package vindecode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testVIN = "2HGFC2F59LH000001"

func decodeServer(t *testing.T, fields map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, testVIN)
		require.Equal(t, "json", r.URL.Query().Get("format"))

		type result struct {
			Variable string
			Value    string
		}
		resp := struct {
			Results []result
		}{}
		for k, v := range fields {
			resp.Results = append(resp.Results, result{Variable: k, Value: v})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestDecoder(endpoint string) *Decoder {
	return New(Config{Endpoint: endpoint, Timeout: 5 * time.Second}, zap.NewNop())
}

func TestDecodeFullRecord(t *testing.T) {
	t.Parallel()

	srv := decodeServer(t, map[string]string{
		"Model Year":                 "2020",
		"Make":                       "HONDA",
		"Model":                      "Civic",
		"Trim":                       "Sport",
		"Body Class":                 "Sedan/Saloon",
		"Drive Type":                 "FWD/Front-Wheel Drive",
		"Fuel Type - Primary":        "Gasoline",
		"Displacement (L)":           "2",
		"Engine Number of Cylinders": "4",
		"Engine Configuration":       "In-Line",
		"Transmission Style":         "Continuously Variable Transmission (CVT)",
		"Transmission Speeds":        "1",
		"Doors":                      "4",
	})
	defer srv.Close()

	d := newTestDecoder(srv.URL)
	got, err := d.Decode(context.Background(), testVIN)
	require.NoError(t, err)

	require.Equal(t, 2020, got.Year)
	require.Equal(t, "Honda", got.Make)
	require.Equal(t, "Civic", got.Model)
	require.Equal(t, "Sport", got.Trim)
	require.Equal(t, "Sedan", got.BodyType)
	require.Equal(t, "FWD", got.Drivetrain)
	require.Equal(t, "Gasoline", got.FuelType)
	require.Equal(t, "2.0L 4-Cylinder", got.Engine)
	require.Equal(t, "1-Speed CVT", got.Transmission)
	require.Equal(t, 4, got.Doors)
}

func TestDecodeTrim2Fallback(t *testing.T) {
	t.Parallel()

	srv := decodeServer(t, map[string]string{
		"Model Year": "2019",
		"Make":       "TOYOTA",
		"Model":      "Camry",
		"Trim2":      "SE Nightshade",
	})
	defer srv.Close()

	d := newTestDecoder(srv.URL)
	got, err := d.Decode(context.Background(), testVIN)
	require.NoError(t, err)
	require.Equal(t, "SE Nightshade", got.Trim)
}

func TestDecodeIncompleteFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{name: "missing year", fields: map[string]string{"Make": "HONDA", "Model": "Civic"}},
		{name: "missing make", fields: map[string]string{"Model Year": "2020", "Model": "Civic"}},
		{name: "missing model", fields: map[string]string{"Model Year": "2020", "Make": "HONDA"}},
		{name: "not applicable treated as missing", fields: map[string]string{
			"Model Year": "2020", "Make": "Not Applicable", "Model": "Civic",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := decodeServer(t, tc.fields)
			defer srv.Close()

			d := newTestDecoder(srv.URL)
			_, err := d.Decode(context.Background(), testVIN)
			require.Error(t, err)
		})
	}
}

func TestDecodeRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"Results":[
			{"Variable":"Model Year","Value":"2020"},
			{"Variable":"Make","Value":"HONDA"},
			{"Variable":"Model","Value":"Civic"}
		]}`))
	}))
	defer srv.Close()

	d := newTestDecoder(srv.URL)
	got, err := d.Decode(context.Background(), testVIN)
	require.NoError(t, err)
	require.Equal(t, "Honda", got.Make)
	require.Equal(t, 2, calls)
}

func TestDecodeDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := newTestDecoder(srv.URL)
	_, err := d.Decode(context.Background(), testVIN)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDecodeRejectsInvalidVIN(t *testing.T) {
	t.Parallel()

	d := newTestDecoder("http://unused.invalid")
	_, err := d.Decode(context.Background(), "short")
	require.Error(t, err)
}

func TestNormalizeTaxonomies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fn   func(string) string
		raw  string
		want string
	}{
		{normalizeBodyType, "Sport Utility Vehicle (SUV)/Multi-Purpose Vehicle (MPV)", "SUV"},
		{normalizeBodyType, "Pickup", "Truck"},
		{normalizeBodyType, "Landau", "Landau"},
		{normalizeDrivetrain, "4WD/4-Wheel Drive/4x4", "4WD"},
		{normalizeDrivetrain, "All-Wheel Drive", "AWD"},
		{normalizeFuelType, "Flexible Fuel Vehicle (FFV)", "Flex Fuel"},
		{normalizeFuelType, "Battery Electric Vehicle (BEV)", "Electric"},
		{normalizeFuelType, "Compressed Natural Gas (CNG)", "Gasoline"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, tc.fn(tc.raw), "raw %q", tc.raw)
	}
}

func TestBuildEngine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		displacement, cylinders, config string
		want                            string
	}{
		{"3.5", "6", "V-Shaped", "3.5L V6"},
		{"2", "4", "In-Line", "2.0L 4-Cylinder"},
		{"", "4", "", "4-Cylinder"},
		{"", "", "", ""},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, buildEngine(tc.displacement, tc.cylinders, tc.config))
	}
}

func TestBuildTransmission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		style, speeds string
		want          string
	}{
		{"Automatic", "8", "8-Speed Automatic"},
		{"Manual/Standard", "6", "6-Speed Manual"},
		{"Automated Manual Transmission (AMT)", "7", "7-Speed Automated Manual"},
		{"Continuously Variable Transmission (CVT)", "", "CVT"},
		{"", "8", ""},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, buildTransmission(tc.style, tc.speeds))
	}
}
