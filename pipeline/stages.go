package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// runStage computes one stage's payload. Handlers never return an error for a
// partial-data failure: they resolve through live → generated → estimated
// sources and always produce a usable payload. An error here is fatal and
// aborts the session.
func (p *Planner) runStage(ctx context.Context, stage Stage, req *TravelRequest, state *sessionState) (StageResult, error) {
	switch stage {
	case StageStatus:
		return StageResult{Type: StageStatus, Message: "Analyzing your travel request..."}, nil

	case StageSummary:
		return p.summaryStage(req), nil

	case StageFlights:
		return p.flightsStage(ctx, req, state), nil

	case StageHotels:
		return p.hotelsStage(ctx, req, state), nil

	case StageAttractions:
		return p.attractionsStage(ctx, req, state), nil

	case StageItinerary:
		return p.itineraryStage(ctx, req, state)

	case StageBudget:
		return p.budgetStage(req, state)

	case StageTips:
		return p.tipsStage(ctx, req), nil

	case StageComplete:
		return StageResult{Type: StageComplete, Message: "Your travel plan is ready!"}, nil

	default:
		return StageResult{}, &fatalError{stage: stage, msg: "unknown stage"}
	}
}

func (p *Planner) summaryStage(req *TravelRequest) StageResult {
	return StageResult{
		Type:    StageSummary,
		Message: "Here's what I understood from your request",
		Data: Summary{
			Origin:        req.Origin,
			Destination:   req.Destination,
			DepartureDate: req.DepartureDate,
			ReturnDate:    req.ReturnDate,
			DurationDays:  req.DurationDays,
			Travelers:     req.Travelers,
			TravelType:    req.TripType,
		},
	}
}

// ─── Flights ──────────────────────────────────────────────────────────────────

func (p *Planner) flightsStage(ctx context.Context, req *TravelRequest, state *sessionState) StageResult {
	outbound, source := p.resolveFlights(ctx, req.Origin, req.Destination, req.DepartureDate)

	var inbound []Flight
	if req.ReturnDate != "" {
		var retSource string
		inbound, retSource = p.resolveFlights(ctx, req.Destination, req.Origin, req.ReturnDate)
		source = worseSource(source, retSource)
	}

	payload := FlightsPayload{
		Outbound: capFlights(outbound, p.maxFlights),
		Return:   capFlights(inbound, p.maxFlights),
		// TotalOptions counts every candidate found, not just the capped
		// lists carried in the payload.
		TotalOptions: len(outbound) + len(inbound),
	}
	state.flights = payload

	return StageResult{
		Type:    StageFlights,
		Message: fmt.Sprintf("Found %d flight options", payload.TotalOptions),
		Source:  source,
		Data:    payload,
	}
}

// resolveFlights is the two-source resolution for one flight direction:
// inventory first, generative knowledge on failure or empty result, static
// route estimates last.
func (p *Planner) resolveFlights(ctx context.Context, origin, destination, date string) ([]Flight, string) {
	if p.inventory != nil {
		callCtx, cancel := context.WithTimeout(ctx, p.gatewayTimeout)
		flights, err := p.inventory.SearchFlights(callCtx, origin, destination, date, 1)
		cancel()
		if err == nil && len(flights) > 0 {
			return sortFlightsByPrice(flights), SourceLive
		}
		if err != nil {
			log.Printf("⚠️  flight inventory failed (%s → %s): %v — falling back", origin, destination, err)
		} else {
			log.Printf("⚠️  flight inventory returned 0 options (%s → %s) — falling back", origin, destination)
		}
	}

	if p.advisor != nil {
		flights, err := p.advisor.SuggestFlights(ctx, origin, destination, date)
		if err == nil && len(flights) > 0 {
			return sortFlightsByPrice(flights), SourceGenerated
		}
		if err != nil {
			log.Printf("⚠️  generative flight suggestions failed (%s → %s): %v", origin, destination, err)
		}
	}

	return sortFlightsByPrice(EstimateFlights(origin, destination, date)), SourceEstimated
}

// sortFlightsByPrice orders candidates ascending by total price. The sort is
// stable: upstream order is preserved for equal prices.
func sortFlightsByPrice(flights []Flight) []Flight {
	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].Price < flights[j].Price
	})
	return flights
}

func capFlights(flights []Flight, n int) []Flight {
	if len(flights) > n {
		return flights[:n]
	}
	if flights == nil {
		return []Flight{}
	}
	return flights
}

// ─── Hotels ───────────────────────────────────────────────────────────────────

func (p *Planner) hotelsStage(ctx context.Context, req *TravelRequest, state *sessionState) StageResult {
	checkOut := req.ReturnDate
	if checkOut == "" {
		checkOut = req.DepartureDate
	}

	var (
		hotels []Hotel
		source = SourceEstimated
	)

	if p.inventory != nil {
		callCtx, cancel := context.WithTimeout(ctx, p.gatewayTimeout)
		live, err := p.inventory.SearchHotels(callCtx, req.Destination, req.DepartureDate, checkOut, req.Travelers)
		cancel()
		switch {
		case err != nil:
			log.Printf("⚠️  hotel inventory failed for %s: %v — falling back", req.Destination, err)
		case len(live) == 0:
			log.Printf("⚠️  hotel inventory returned 0 options for %s — falling back", req.Destination)
		default:
			hotels, source = live, SourceLive
		}
	}

	if len(hotels) == 0 && p.advisor != nil {
		generated, err := p.advisor.SuggestHotels(ctx, req.Destination)
		if err != nil {
			log.Printf("⚠️  generative hotel suggestions failed for %s: %v", req.Destination, err)
		} else if len(generated) > 0 {
			hotels, source = generated, SourceGenerated
		}
	}

	if len(hotels) == 0 {
		hotels = EstimateHotels(req.Destination)
	}

	sort.SliceStable(hotels, func(i, j int) bool {
		return hotels[i].Price < hotels[j].Price
	})
	if len(hotels) > p.maxHotels {
		hotels = hotels[:p.maxHotels]
	}

	payload := HotelsPayload{Options: hotels, TotalOptions: len(hotels)}
	state.hotels = payload

	return StageResult{
		Type:    StageHotels,
		Message: fmt.Sprintf("Found %d accommodation options", payload.TotalOptions),
		Source:  source,
		Data:    payload,
	}
}

// ─── Attractions ──────────────────────────────────────────────────────────────

const (
	maxAttractions = 5
	maxDining      = 4
)

func (p *Planner) attractionsStage(ctx context.Context, req *TravelRequest, state *sessionState) StageResult {
	payload := AttractionsPayload{MustVisit: []Attraction{}, Dining: []Restaurant{}}
	source := SourceGenerated

	if p.advisor != nil {
		attractions, err := p.advisor.FetchAttractions(ctx, req.Destination, req.TripType)
		if err != nil {
			log.Printf("⚠️  attractions lookup failed for %s: %v", req.Destination, err)
		} else if len(attractions) > maxAttractions {
			payload.MustVisit = attractions[:maxAttractions]
		} else {
			payload.MustVisit = attractions
		}

		dining, err := p.advisor.FetchDining(ctx, req.Destination)
		if err != nil {
			log.Printf("⚠️  dining lookup failed for %s: %v", req.Destination, err)
		} else if len(dining) > maxDining {
			payload.Dining = dining[:maxDining]
		} else {
			payload.Dining = dining
		}
	}
	if payload.MustVisit == nil {
		payload.MustVisit = []Attraction{}
	}
	if payload.Dining == nil {
		payload.Dining = []Restaurant{}
	}
	if len(payload.MustVisit) == 0 && len(payload.Dining) == 0 {
		// Explicit empty result; the itinerary stage degrades to a
		// template in this case.
		source = SourceEstimated
	}

	state.attractions = payload

	return StageResult{
		Type:    StageAttractions,
		Message: fmt.Sprintf("Picked %d places to visit and %d dining spots", len(payload.MustVisit), len(payload.Dining)),
		Source:  source,
		Data:    payload,
	}
}

// ─── Itinerary ────────────────────────────────────────────────────────────────

func (p *Planner) itineraryStage(ctx context.Context, req *TravelRequest, state *sessionState) (StageResult, error) {
	if state.attractions.MustVisit == nil {
		return StageResult{}, &fatalError{stage: StageItinerary, msg: "attractions stage did not run"}
	}

	var (
		days   []ItineraryDay
		source = SourceGenerated
	)

	if p.advisor != nil {
		fetched, err := p.advisor.FetchItinerary(ctx, req.Destination, req.TripType, req.DurationDays)
		if err != nil {
			log.Printf("⚠️  itinerary generation failed for %s: %v — using template", req.Destination, err)
		} else {
			days = fetched
		}
	}

	if len(days) == 0 {
		days = templateItinerary(req, state.attractions)
		source = SourceEstimated
	}

	return StageResult{
		Type:    StageItinerary,
		Message: fmt.Sprintf("Planned %d days in %s", len(days), req.Destination),
		Source:  source,
		Data:    days,
	}, nil
}

// templateItinerary distributes whatever attractions we have over the trip
// duration when the generative gateway is unavailable.
func templateItinerary(req *TravelRequest, attractions AttractionsPayload) []ItineraryDay {
	slots := []string{"09:00", "13:00", "17:00"}
	days := make([]ItineraryDay, 0, req.DurationDays)
	next := 0

	for d := 1; d <= req.DurationDays; d++ {
		theme := "Exploring " + req.Destination
		if d == 1 {
			theme = "Arrival & First Impressions"
		} else if d == req.DurationDays && req.DurationDays > 1 {
			theme = "Farewell " + req.Destination
		}

		day := ItineraryDay{DayNumber: d, Theme: theme}
		for _, slot := range slots {
			if next < len(attractions.MustVisit) {
				day.Activities = append(day.Activities, Activity{Time: slot, Name: "Visit " + attractions.MustVisit[next].Name})
				next++
			} else {
				day.Activities = append(day.Activities, Activity{Time: slot, Name: "Explore " + req.Destination + " at your own pace"})
				break
			}
		}
		days = append(days, day)
	}
	return days
}

// ─── Budget ───────────────────────────────────────────────────────────────────

func (p *Planner) budgetStage(req *TravelRequest, state *sessionState) (StageResult, error) {
	if state.flights.Outbound == nil || state.hotels.Options == nil {
		return StageResult{}, &fatalError{stage: StageBudget, msg: "flight and hotel stages did not run"}
	}

	budget := ComputeBudget(req, state.flights, state.hotels, p.budget)

	return StageResult{
		Type:    StageBudget,
		Message: fmt.Sprintf("Estimated total: %.0f %s for %d traveler(s)", budget.Total, budget.Currency, req.Travelers),
		Source:  SourceEstimated,
		Data:    budget,
	}, nil
}

// ComputeBudget estimates the trip cost from the cheapest flight and hotel
// picks plus configured daily rates. Flight cost doubles the cheapest outbound
// fare when no return options exist (round-trip approximation).
func ComputeBudget(req *TravelRequest, flights FlightsPayload, hotels HotelsPayload, cfg BudgetConfig) Budget {
	travelers := float64(req.Travelers)
	days := float64(req.DurationDays)
	nights := float64(maxInt(req.DurationDays-1, 1))

	var flightCost float64
	if len(flights.Outbound) > 0 {
		// Lists are sorted ascending by price, so index 0 is cheapest.
		flightCost = flights.Outbound[0].Price * travelers
		if len(flights.Return) > 0 {
			flightCost += flights.Return[0].Price * travelers
		} else {
			flightCost *= 2
		}
	}

	var hotelCost float64
	if len(hotels.Options) > 0 {
		hotelCost = hotels.Options[0].Price * nights
	}

	food := cfg.DailyFood * travelers * days
	transport := cfg.DailyTransport * travelers * days
	total := flightCost + hotelCost + food + transport

	perPerson := total
	if req.Travelers > 0 {
		perPerson = total / travelers
	}

	return Budget{
		Flights:        flightCost,
		Accommodation:  hotelCost,
		ActivitiesFood: food,
		LocalTransport: transport,
		Total:          total,
		PerPerson:      perPerson,
		Currency:       cfg.Currency,
	}
}

// ─── Tips ─────────────────────────────────────────────────────────────────────

func (p *Planner) tipsStage(ctx context.Context, req *TravelRequest) StageResult {
	var (
		tips   *Tips
		source = SourceGenerated
	)

	if p.advisor != nil {
		fetched, err := p.advisor.FetchTips(ctx, req.Destination)
		if err != nil {
			log.Printf("⚠️  travel tips lookup failed for %s: %v — using defaults", req.Destination, err)
		} else {
			tips = fetched
		}
	}

	if tips == nil {
		tips = EstimateTips(req.Destination)
		source = SourceEstimated
	}

	return StageResult{
		Type:    StageTips,
		Message: "A few things worth knowing before you go",
		Source:  source,
		Data:    *tips,
	}
}

// worseSource keeps the weaker confidence of two tags so a mixed result is
// never over-reported as live.
func worseSource(a, b string) string {
	rank := map[string]int{SourceLive: 0, SourceGenerated: 1, SourceEstimated: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
