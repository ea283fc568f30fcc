package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateFlightsKnownRoute(t *testing.T) {
	flights := EstimateFlights("Mumbai", "Goa", "2026-10-10")
	require.Len(t, flights, len(carrierOptions))

	for _, f := range flights {
		assert.Equal(t, "INR", f.Currency)
		assert.Greater(t, f.Price, 0.0)
		assert.Zero(t, int(f.Price)%50, "prices are rounded to 50: %v", f.Price)
		assert.NotEmpty(t, f.FlightNumber)

		dep, err := time.Parse(time.RFC3339, f.DepartureTime)
		require.NoError(t, err)
		arr, err := time.Parse(time.RFC3339, f.ArrivalTime)
		require.NoError(t, err)
		assert.True(t, arr.After(dep))
		assert.Equal(t, "2026-10-10", dep.Format("2006-01-02"))
	}
}

func TestEstimateFlightsUnknownRouteUsesDefault(t *testing.T) {
	flights := EstimateFlights("Nowhere", "Elsewhere", "2026-10-10")
	require.NotEmpty(t, flights)
	// Default base is 7500; Air India carries the 1.00 modifier.
	for _, f := range flights {
		if f.AirlineCode == "AI" {
			assert.Equal(t, 7500.0, f.Price)
			return
		}
	}
	t.Fatal("no AI option in estimates")
}

func TestEstimateFlightsBadDateFallsToTomorrow(t *testing.T) {
	flights := EstimateFlights("Mumbai", "Goa", "someday")
	require.NotEmpty(t, flights)
	dep, err := time.Parse(time.RFC3339, flights[0].DepartureTime)
	require.NoError(t, err)
	assert.True(t, dep.After(time.Now()))
}

func TestEstimateHotelsKnownCity(t *testing.T) {
	hotels := EstimateHotels("  GOA ")
	require.Len(t, hotels, 5)
	assert.Equal(t, "Taj Fort Aguada Resort", hotels[0].Name)

	// Callers sort in place; the shared table must not be mutated.
	hotels[0].Name = "changed"
	again := EstimateHotels("goa")
	assert.Equal(t, "Taj Fort Aguada Resort", again[0].Name)
}

func TestEstimateHotelsUnknownCity(t *testing.T) {
	hotels := EstimateHotels("Pondicherry")
	require.Len(t, hotels, 5)
	for _, h := range hotels {
		assert.Contains(t, h.Location, "Pondicherry")
		assert.Greater(t, h.Price, 0.0)
		assert.Equal(t, "INR", h.Currency)
	}
}

func TestEstimateTips(t *testing.T) {
	tips := EstimateTips("Goa")
	require.NotNil(t, tips)
	assert.NotEmpty(t, tips.WhatToPack)
	assert.Contains(t, tips.LocalCustoms, "Goa")
}
