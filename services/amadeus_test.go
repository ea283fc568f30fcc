package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAmadeus wires a client against a local stub of the Amadeus API.
func newTestAmadeus(t *testing.T, handler http.Handler) *AmadeusClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("AMADEUS_CLIENT_ID", "test-id")
	t.Setenv("AMADEUS_CLIENT_SECRET", "test-secret")
	t.Setenv("AMADEUS_BASE_URL", srv.URL)

	c := NewAmadeusClient()
	require.NotNil(t, c)
	return c
}

func stubMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   1799,
		})
	})
	return mux
}

func TestNewAmadeusClientWithoutCredentials(t *testing.T) {
	t.Setenv("AMADEUS_CLIENT_ID", "")
	t.Setenv("AMADEUS_CLIENT_SECRET", "")
	assert.Nil(t, NewAmadeusClient())

	var c *AmadeusClient
	assert.False(t, c.Configured())
}

func TestSearchFlights(t *testing.T) {
	mux := stubMux(t)
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		code := "BOM"
		if strings.EqualFold(r.URL.Query().Get("keyword"), "goa") {
			code = "GOI"
		}
		fmt.Fprintf(w, `{"data":[{"iataCode":%q,"name":"stub"}]}`, code)
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "BOM", q.Get("originLocationCode"))
		assert.Equal(t, "GOI", q.Get("destinationLocationCode"))
		assert.Equal(t, "2026-10-10", q.Get("departureDate"))
		w.Write([]byte(`{
			"data": [
				{
					"price": {"grandTotal": "4,250.00", "currency": "INR"},
					"itineraries": [{
						"duration": "PT1H20M",
						"segments": [{
							"departure": {"iataCode": "BOM", "at": "2026-10-10T06:15:00"},
							"arrival": {"iataCode": "GOI", "at": "2026-10-10T07:35:00"},
							"carrierCode": "6E",
							"number": "5312"
						}]
					}]
				},
				{
					"price": {"grandTotal": "6100.00", "currency": "INR"},
					"itineraries": [{
						"duration": "PT4H",
						"segments": [
							{
								"departure": {"iataCode": "BOM", "at": "2026-10-10T09:00:00"},
								"arrival": {"iataCode": "HYD", "at": "2026-10-10T10:20:00"},
								"carrierCode": "AI",
								"number": "560"
							},
							{
								"departure": {"iataCode": "HYD", "at": "2026-10-10T11:30:00"},
								"arrival": {"iataCode": "GOI", "at": "2026-10-10T13:00:00"},
								"carrierCode": "AI",
								"number": "975"
							}
						]
					}]
				}
			]
		}`))
	})

	c := newTestAmadeus(t, mux)
	flights, err := c.SearchFlights(context.Background(), "Mumbai", "Goa", "2026-10-10", 1)
	require.NoError(t, err)
	require.Len(t, flights, 2)

	assert.Equal(t, 4250.0, flights[0].Price)
	assert.Equal(t, "IndiGo", flights[0].Airline)
	assert.Equal(t, "6E5312", flights[0].FlightNumber)
	assert.Equal(t, "1h 20m", flights[0].Duration)
	assert.Equal(t, 0, flights[0].Stops)

	assert.Equal(t, "Air India", flights[1].Airline)
	assert.Equal(t, 1, flights[1].Stops)
	assert.Equal(t, "4h", flights[1].Duration)
	assert.Equal(t, "2026-10-10T13:00:00", flights[1].ArrivalTime)
}

func TestSearchFlightsLocationLookupFails(t *testing.T) {
	mux := stubMux(t)
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	c := newTestAmadeus(t, mux)
	_, err := c.SearchFlights(context.Background(), "Atlantis", "Goa", "2026-10-10", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin lookup failed")
}

func TestSearchFlightsSkipsIataLookupForCodes(t *testing.T) {
	mux := stubMux(t)
	lookups := 0
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		lookups++
		w.Write([]byte(`{"data":[{"iataCode":"XXX"}]}`))
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BOM", r.URL.Query().Get("originLocationCode"))
		assert.Equal(t, "GOI", r.URL.Query().Get("destinationLocationCode"))
		w.Write([]byte(`{"data":[]}`))
	})

	c := newTestAmadeus(t, mux)
	flights, err := c.SearchFlights(context.Background(), "BOM", "GOI", "2026-10-10", 1)
	require.NoError(t, err)
	assert.Empty(t, flights)
	assert.Zero(t, lookups)
}

func TestLocationResolutionIsCached(t *testing.T) {
	mux := stubMux(t)
	lookups := 0
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		lookups++
		w.Write([]byte(`{"data":[{"iataCode":"BOM"}]}`))
	})

	c := newTestAmadeus(t, mux)
	for i := 0; i < 3; i++ {
		code, err := c.resolveCode(context.Background(), "Mumbai", "AIRPORT")
		require.NoError(t, err)
		assert.Equal(t, "BOM", code)
	}
	assert.Equal(t, 1, lookups)
}

func TestSearchHotels(t *testing.T) {
	mux := stubMux(t)
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CITY", r.URL.Query().Get("subType"))
		w.Write([]byte(`{"data":[{"iataCode":"GOI"}]}`))
	})
	mux.HandleFunc("/v1/reference-data/locations/hotels/by-city", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GOI", r.URL.Query().Get("cityCode"))
		w.Write([]byte(`{"data":[{"hotelId":"TJGOI123","name":"Taj Fort Aguada"},{"hotelId":"NVGOI456","name":"Novotel"}]}`))
	})
	mux.HandleFunc("/v3/shopping/hotel-offers", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "TJGOI123,NVGOI456", q.Get("hotelIds"))
		assert.Equal(t, "2026-10-10", q.Get("checkInDate"))
		assert.Equal(t, "2026-10-12", q.Get("checkOutDate"))
		w.Write([]byte(`{
			"data": [
				{
					"hotel": {"hotelId": "TJGOI123", "name": "Taj Fort Aguada", "cityCode": "GOI",
						"address": {"cityName": "Candolim"}, "rating": "5"},
					"available": true,
					"offers": [{"price": {"total": "12500.00", "currency": "INR"}}]
				},
				{
					"hotel": {"hotelId": "NVGOI456", "name": "Novotel", "cityCode": "GOI", "rating": ""},
					"available": false,
					"offers": [{"price": {"total": "8200.00", "currency": "INR"}}]
				}
			]
		}`))
	})

	c := newTestAmadeus(t, mux)
	hotels, err := c.SearchHotels(context.Background(), "Goa", "2026-10-10", "2026-10-12", 2)
	require.NoError(t, err)
	require.Len(t, hotels, 1) // unavailable offers are dropped

	assert.Equal(t, "Taj Fort Aguada", hotels[0].Name)
	assert.Equal(t, 12500.0, hotels[0].Price)
	assert.Equal(t, 5.0, hotels[0].Rating)
	assert.Equal(t, "Candolim", hotels[0].Location)
}

func TestSearchHotelsNoHotelsInCity(t *testing.T) {
	mux := stubMux(t)
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"iataCode":"ZZZ"}]}`))
	})
	mux.HandleFunc("/v1/reference-data/locations/hotels/by-city", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	c := newTestAmadeus(t, mux)
	_, err := c.SearchHotels(context.Background(), "Nowhere", "2026-10-10", "2026-10-12", 1)
	assert.Error(t, err)
}

func TestDoRequestSurfacesAPIErrors(t *testing.T) {
	mux := stubMux(t)
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors":[{"title":"rate limit exceeded"}]}`))
	})

	c := newTestAmadeus(t, mux)
	_, err := c.SearchFlights(context.Background(), "BOM", "GOI", "2026-10-10", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func TestParseDuration(t *testing.T) {
	cases := map[string]string{
		"PT5H30M": "5h 30m",
		"PT1H":    "1h",
		"PT45M":   "45m",
		"PT12H5M": "12h 5m",
		"":        "",
	}
	for iso, want := range cases {
		assert.Equal(t, want, parseDuration(iso), "input %q", iso)
	}
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 4250.0, parsePrice("4,250.00"))
	assert.Equal(t, 99.5, parsePrice("99.5"))
	assert.Equal(t, 0.0, parsePrice("free"))
	assert.Equal(t, 0.0, parsePrice(""))
}

func TestParseRating(t *testing.T) {
	assert.Equal(t, 4.0, parseRating(""))
	assert.Equal(t, 4.0, parseRating("garbage"))
	assert.Equal(t, 3.0, parseRating("3"))
	assert.Equal(t, 5.0, parseRating("9")) // clamped to star scale
}

func TestAirlineName(t *testing.T) {
	assert.Equal(t, "IndiGo", airlineName("6E"))
	assert.Equal(t, "Emirates", airlineName("EK"))
	assert.Equal(t, "ZZ Airlines", airlineName("ZZ"))
	assert.Equal(t, "Unknown Airline", airlineName(""))
}
