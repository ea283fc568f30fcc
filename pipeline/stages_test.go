package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortFlightsByPriceIsStable(t *testing.T) {
	flights := []Flight{
		{Price: 5000, Airline: "Vistara"},
		{Price: 3200, Airline: "IndiGo"},
		{Price: 3200, Airline: "SpiceJet"}, // same price, later in upstream order
		{Price: 4100, Airline: "Air India"},
	}

	sorted := sortFlightsByPrice(flights)

	require.Len(t, sorted, 4)
	assert.Equal(t, "IndiGo", sorted[0].Airline)
	assert.Equal(t, "SpiceJet", sorted[1].Airline)
	assert.Equal(t, "Air India", sorted[2].Airline)
	assert.Equal(t, "Vistara", sorted[3].Airline)
}

func TestCapFlights(t *testing.T) {
	flights := []Flight{{Price: 1}, {Price: 2}, {Price: 3}, {Price: 4}}
	assert.Len(t, capFlights(flights, 3), 3)
	assert.Len(t, capFlights(flights[:2], 3), 2)
	assert.NotNil(t, capFlights(nil, 3))
	assert.Empty(t, capFlights(nil, 3))
}

func TestComputeBudgetRoundTrip(t *testing.T) {
	req := &TravelRequest{Travelers: 2, DurationDays: 3}
	flights := FlightsPayload{
		Outbound: []Flight{{Price: 3000}, {Price: 4500}},
		Return:   []Flight{{Price: 3500}},
	}
	hotels := HotelsPayload{Options: []Hotel{{Price: 2000}, {Price: 8000}}}

	b := ComputeBudget(req, flights, hotels, DefaultBudgetConfig())

	// Cheapest legs: (3000 + 3500) * 2 travelers.
	assert.Equal(t, 13000.0, b.Flights)
	// Cheapest hotel * 2 nights.
	assert.Equal(t, 4000.0, b.Accommodation)
	// 3000/day * 2 travelers * 3 days.
	assert.Equal(t, 18000.0, b.ActivitiesFood)
	// 500/day * 2 travelers * 3 days.
	assert.Equal(t, 3000.0, b.LocalTransport)
	assert.Equal(t, 38000.0, b.Total)
	assert.Equal(t, 19000.0, b.PerPerson)
	assert.Equal(t, "INR", b.Currency)
}

func TestComputeBudgetDoublesOneWayFare(t *testing.T) {
	req := &TravelRequest{Travelers: 1, DurationDays: 2}
	flights := FlightsPayload{Outbound: []Flight{{Price: 3000}}}
	hotels := HotelsPayload{Options: []Hotel{{Price: 1000}}}

	b := ComputeBudget(req, flights, hotels, DefaultBudgetConfig())
	assert.Equal(t, 6000.0, b.Flights)
}

func TestComputeBudgetSingleDayUsesOneNight(t *testing.T) {
	req := &TravelRequest{Travelers: 1, DurationDays: 1}
	flights := FlightsPayload{Outbound: []Flight{{Price: 3000}}}
	hotels := HotelsPayload{Options: []Hotel{{Price: 2500}}}

	b := ComputeBudget(req, flights, hotels, DefaultBudgetConfig())
	assert.Equal(t, 2500.0, b.Accommodation)
}

func TestComputeBudgetCustomConfig(t *testing.T) {
	req := &TravelRequest{Travelers: 1, DurationDays: 2}
	cfg := BudgetConfig{Currency: "USD", DailyFood: 80, DailyTransport: 20}

	b := ComputeBudget(req, FlightsPayload{Outbound: []Flight{{Price: 200}}},
		HotelsPayload{Options: []Hotel{{Price: 100}}}, cfg)

	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, 160.0, b.ActivitiesFood)
	assert.Equal(t, 40.0, b.LocalTransport)
}

func TestTemplateItineraryDistributesAttractions(t *testing.T) {
	req := &TravelRequest{Destination: "Goa", DurationDays: 3}
	attractions := AttractionsPayload{
		MustVisit: []Attraction{
			{Name: "Baga Beach"}, {Name: "Fort Aguada"}, {Name: "Dudhsagar Falls"},
			{Name: "Basilica of Bom Jesus"}, {Name: "Anjuna Market"},
		},
	}

	days := templateItinerary(req, attractions)
	require.Len(t, days, 3)

	assert.Equal(t, "Arrival & First Impressions", days[0].Theme)
	assert.Equal(t, "Exploring Goa", days[1].Theme)
	assert.Equal(t, "Farewell Goa", days[2].Theme)

	// 5 attractions over 3-slot days: 3 on day one, 2 plus free time after.
	require.Len(t, days[0].Activities, 3)
	assert.Equal(t, "09:00", days[0].Activities[0].Time)
	assert.Equal(t, "Visit Baga Beach", days[0].Activities[0].Name)

	var total int
	for _, d := range days {
		for _, a := range d.Activities {
			assert.NotEmpty(t, a.Name)
			total++
		}
	}
	assert.GreaterOrEqual(t, total, 5)
}

func TestTemplateItineraryNoAttractions(t *testing.T) {
	req := &TravelRequest{Destination: "Pune", DurationDays: 2}
	days := templateItinerary(req, AttractionsPayload{MustVisit: []Attraction{}})

	require.Len(t, days, 2)
	for _, d := range days {
		require.NotEmpty(t, d.Activities)
		assert.Contains(t, d.Activities[0].Name, "Pune")
	}
}

func TestWorseSource(t *testing.T) {
	assert.Equal(t, SourceLive, worseSource(SourceLive, SourceLive))
	assert.Equal(t, SourceGenerated, worseSource(SourceLive, SourceGenerated))
	assert.Equal(t, SourceGenerated, worseSource(SourceGenerated, SourceLive))
	assert.Equal(t, SourceEstimated, worseSource(SourceLive, SourceEstimated))
	assert.Equal(t, SourceEstimated, worseSource(SourceEstimated, SourceGenerated))
}
