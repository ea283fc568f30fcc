package pipeline

import "fmt"

// ─── Stages ───────────────────────────────────────────────────────────────────

// Stage names the unit of pipeline work that produced a result. Consumers must
// treat the emitted results as an ordered sequence, not a set.
type Stage string

const (
	StageStatus      Stage = "status"
	StageSummary     Stage = "summary"
	StageFlights     Stage = "flights"
	StageHotels      Stage = "hotels"
	StageAttractions Stage = "attractions"
	StageItinerary   Stage = "itinerary"
	StageBudget      Stage = "budget"
	StageTips        Stage = "tips"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// StageOrder is the fixed emission order for a full plan. Every session emits
// these stages exactly once each, ending in complete (or aborting with error).
var StageOrder = []Stage{
	StageStatus,
	StageSummary,
	StageFlights,
	StageHotels,
	StageAttractions,
	StageItinerary,
	StageBudget,
	StageTips,
	StageComplete,
}

// Data source tags. Fallback use is an observable output field, not a side
// effect of control flow.
const (
	SourceLive      = "live"      // travel-inventory API
	SourceGenerated = "generated" // generative-knowledge service
	SourceEstimated = "estimated" // static route/city tables
)

// StageResult is one immutable unit of pipeline output.
type StageResult struct {
	Type     Stage       `json:"type"`
	Progress int         `json:"progress"`
	Message  string      `json:"message,omitempty"`
	Source   string      `json:"source,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// ─── Travel request ───────────────────────────────────────────────────────────

// Trip types the interpreter may infer from a query.
const (
	TripBusiness  = "business"
	TripLeisure   = "leisure"
	TripRomantic  = "romantic"
	TripFamily    = "family"
	TripAdventure = "adventure"
	TripBudget    = "budget"
	TripLuxury    = "luxury"
	TripCultural  = "cultural"
)

// TravelRequest is the structured, validated form of a user's travel intent.
// Created once per query; read-only for every stage afterwards.
type TravelRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"` // YYYY-MM-DD
	ReturnDate    string `json:"return_date,omitempty"`
	DurationDays  int    `json:"duration_days"`
	Travelers     int    `json:"travelers"`
	TripType      string `json:"trip_type"`
	RawQuery      string `json:"raw_query,omitempty"`
}

// ParseError signals that the interpreter could not extract a usable
// TravelRequest. The pipeline never starts on a ParseError; the caller must
// re-prompt the user.
type ParseError struct {
	Reason      string
	NeedsOrigin bool
}

func (e *ParseError) Error() string {
	return "parse failure: " + e.Reason
}

// AsParseError unwraps err into a *ParseError if it is one.
func AsParseError(err error) (*ParseError, bool) {
	pe, ok := err.(*ParseError)
	return pe, ok
}

// ─── Stage payloads ───────────────────────────────────────────────────────────

type Flight struct {
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
	Airline       string  `json:"airline"`
	AirlineCode   string  `json:"airline_code,omitempty"`
	FlightNumber  string  `json:"flight_number,omitempty"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Duration      string  `json:"duration"`
	Stops         int     `json:"stops"`
}

type Hotel struct {
	Name     string  `json:"name"`
	HotelID  string  `json:"hotel_id,omitempty"`
	Price    float64 `json:"price"` // per night
	Rating   float64 `json:"rating"`
	Location string  `json:"location"`
	Currency string  `json:"currency,omitempty"`
}

type Attraction struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type Restaurant struct {
	Name        string `json:"name"`
	CuisineType string `json:"cuisine_type"`
	Description string `json:"description"`
	PriceRange  string `json:"price_range,omitempty"`
}

type Activity struct {
	Time string `json:"time"`
	Name string `json:"name"`
}

type ItineraryDay struct {
	DayNumber  int        `json:"day_number"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

type Tips struct {
	BestTimeToVisit string   `json:"best_time_to_visit"`
	WhatToPack      []string `json:"what_to_pack"`
	SafetyTips      string   `json:"safety_tips"`
	MoneyTips       string   `json:"money_tips"`
	LocalCustoms    string   `json:"local_customs,omitempty"`
}

// Summary echoes the interpreted request back to the client.
type Summary struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	DurationDays  int    `json:"duration_days"`
	Travelers     int    `json:"travelers"`
	TravelType    string `json:"travel_type"`
}

type FlightsPayload struct {
	Outbound     []Flight `json:"outbound"`
	Return       []Flight `json:"return"`
	TotalOptions int      `json:"total_options"`
}

type HotelsPayload struct {
	Options      []Hotel `json:"options"`
	TotalOptions int     `json:"total_options"`
}

type AttractionsPayload struct {
	MustVisit []Attraction `json:"must_visit"`
	Dining    []Restaurant `json:"dining"`
}

type Budget struct {
	Flights        float64 `json:"flights"`
	Accommodation  float64 `json:"accommodation"`
	ActivitiesFood float64 `json:"activities_food"`
	LocalTransport float64 `json:"local_transport"`
	Total          float64 `json:"total"`
	PerPerson      float64 `json:"per_person"`
	Currency       string  `json:"currency"`
}

// ─── Aggregate plan ───────────────────────────────────────────────────────────

// TravelPlan is the consolidated output of one full pipeline run, keyed by
// stage name. The aggregate and streaming paths produce identical payloads.
type TravelPlan struct {
	Success     bool               `json:"success"`
	Summary     Summary            `json:"summary"`
	Flights     FlightsPayload     `json:"flights"`
	Hotels      HotelsPayload      `json:"hotels"`
	Attractions AttractionsPayload `json:"attractions"`
	Itinerary   []ItineraryDay     `json:"itinerary"`
	Budget      Budget             `json:"budget"`
	Tips        Tips               `json:"tips"`
	Sources     map[string]string  `json:"sources,omitempty"`
}

// fatalError marks a pipeline abort: malformed internal state that no
// fallback can mask. It stops the remaining stages.
type fatalError struct {
	stage Stage
	msg   string
}

func (e *fatalError) Error() string {
	return fmt.Sprintf("stage %s: %s", e.stage, e.msg)
}
