package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rental/internal/obs"
)

func TestRequestLoggerRecordsListingID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotNil(t, zerolog.Ctx(r.Context()))
		obs.SetListingID(r.Context(), "listing-1")
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transaction-line-items", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "listing-1", entry["listing_id"])
	require.EqualValues(t, http.StatusAccepted, entry["status"])
	require.Equal(t, http.MethodPost, entry["method"])
}

func TestListingSlotWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	obs.SetListingID(req.Context(), "ignored")
	require.Empty(t, obs.ListingIDFromContext(req.Context()))
}

func TestRequestLoggerLevelFollowsStatus(t *testing.T) {
	cases := map[int]string{
		http.StatusOK:                  "info",
		http.StatusUnprocessableEntity: "warn",
		http.StatusBadGateway:          "error",
	}
	for status, level := range cases {
		var buf bytes.Buffer
		handler := obs.RequestLogger{Logger: zerolog.New(&buf)}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, level, entry["level"], "status %d", status)
		require.Equal(t, "/health/live", entry["route"])
	}
}
