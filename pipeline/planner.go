package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// ─── Gateways ─────────────────────────────────────────────────────────────────

// Inventory is the travel-inventory gateway (flights, hotels). It is treated
// as a best-effort enrichment source: every error or empty result is recovered
// locally by the generative fallback, never surfaced to the client.
type Inventory interface {
	SearchFlights(ctx context.Context, origin, destination, departureDate string, adults int) ([]Flight, error)
	SearchHotels(ctx context.Context, city, checkIn, checkOut string, adults int) ([]Hotel, error)
}

// Advisor is the generative-knowledge gateway. It interprets free-text queries
// and supplies recommendations when inventory data is sparse or absent.
type Advisor interface {
	ParseTravelQuery(ctx context.Context, query string) (*TravelRequest, error)
	SuggestFlights(ctx context.Context, origin, destination, departureDate string) ([]Flight, error)
	SuggestHotels(ctx context.Context, destination string) ([]Hotel, error)
	FetchAttractions(ctx context.Context, destination, travelType string) ([]Attraction, error)
	FetchDining(ctx context.Context, destination string) ([]Restaurant, error)
	FetchItinerary(ctx context.Context, destination, travelType string, days int) ([]ItineraryDay, error)
	FetchTips(ctx context.Context, destination string) (*Tips, error)
}

// EmitFunc receives each StageResult the instant it is produced. Returning an
// error aborts the pipeline (used for client disconnects).
type EmitFunc func(StageResult) error

// BudgetConfig holds the per-day estimate rates used by the budget stage.
// Currency conversion is a configured input, not a live-rate lookup.
type BudgetConfig struct {
	Currency       string
	DailyFood      float64 // food + activities, per traveler per day
	DailyTransport float64 // local transport, per traveler per day
}

// DefaultBudgetConfig mirrors the rates the service shipped with.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{Currency: "INR", DailyFood: 3000, DailyTransport: 500}
}

// ─── Planner ──────────────────────────────────────────────────────────────────

// Planner drives the fixed stage sequence for one TravelRequest. A single
// Planner is constructed at startup with its gateway handles and reused across
// concurrent sessions; it holds no per-request state.
type Planner struct {
	inventory      Inventory
	advisor        Advisor
	budget         BudgetConfig
	gatewayTimeout time.Duration
	maxFlights     int
	maxHotels      int
}

// Option configures a Planner.
type Option func(*Planner)

func WithBudgetConfig(cfg BudgetConfig) Option {
	return func(p *Planner) { p.budget = cfg }
}

func WithGatewayTimeout(d time.Duration) Option {
	return func(p *Planner) { p.gatewayTimeout = d }
}

func NewPlanner(inventory Inventory, advisor Advisor, opts ...Option) *Planner {
	p := &Planner{
		inventory:      inventory,
		advisor:        advisor,
		budget:         DefaultBudgetConfig(),
		gatewayTimeout: 15 * time.Second,
		maxFlights:     3, // per direction
		maxHotels:      5,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interpret turns a free-text query into a validated TravelRequest, or a
// *ParseError when required fields cannot be extracted. Single best-effort
// attempt, no retry.
func (p *Planner) Interpret(ctx context.Context, query string) (*TravelRequest, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ParseError{Reason: "empty query"}
	}
	if p.advisor == nil {
		return nil, &ParseError{Reason: "no language understanding service is configured"}
	}

	req, err := p.advisor.ParseTravelQuery(ctx, query)
	if err != nil {
		if _, ok := AsParseError(err); ok {
			return nil, err
		}
		return nil, &ParseError{Reason: "could not understand the travel request: " + err.Error()}
	}

	req.RawQuery = query
	if err := NormalizeRequest(req, time.Now()); err != nil {
		return nil, err
	}
	return req, nil
}

// NormalizeRequest applies defaults, clamps past dates to tomorrow, derives the
// return date from the duration, and validates required fields.
func NormalizeRequest(req *TravelRequest, now time.Time) error {
	if req == nil {
		return &ParseError{Reason: "no travel details extracted"}
	}

	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)

	if req.Destination == "" {
		return &ParseError{Reason: "destination city is missing"}
	}
	if req.Origin == "" || strings.EqualFold(req.Origin, "not specified") {
		return &ParseError{
			Reason:      "departure city is missing — for example: 'from Mumbai to Goa'",
			NeedsOrigin: true,
		}
	}

	if req.Travelers <= 0 {
		req.Travelers = 1
	}
	if req.TripType == "" {
		req.TripType = TripLeisure
	}
	if req.DurationDays <= 0 {
		req.DurationDays = 1
	}

	tomorrow := now.AddDate(0, 0, 1)
	dep, err := time.Parse("2006-01-02", req.DepartureDate)
	if err != nil {
		if req.DepartureDate != "" {
			return &ParseError{Reason: "departure date is not in YYYY-MM-DD format"}
		}
		dep = tomorrow
		req.DepartureDate = dep.Format("2006-01-02")
	}
	// Never plan a trip into the past.
	if dep.Before(now.Truncate(24 * time.Hour)) {
		dep = tomorrow
		req.DepartureDate = dep.Format("2006-01-02")
	}

	if req.ReturnDate == "" && req.DurationDays > 1 {
		req.ReturnDate = dep.AddDate(0, 0, req.DurationDays-1).Format("2006-01-02")
	}
	if req.ReturnDate != "" {
		ret, err := time.Parse("2006-01-02", req.ReturnDate)
		if err != nil || !ret.After(dep) {
			req.ReturnDate = dep.AddDate(0, 0, req.DurationDays-1).Format("2006-01-02")
			if req.DurationDays <= 1 {
				req.ReturnDate = ""
			}
		} else if req.DurationDays <= 1 {
			req.DurationDays = int(ret.Sub(dep).Hours()/24) + 1
		}
	}

	return nil
}

// ─── Run ──────────────────────────────────────────────────────────────────────

// sessionState carries earlier stage outputs forward to the stages that depend
// on them (itinerary needs attractions and hotels, budget needs flights and
// hotels). It lives only for one Run call.
type sessionState struct {
	flights     FlightsPayload
	hotels      HotelsPayload
	attractions AttractionsPayload
}

// Run executes the full stage sequence for req, calling emit exactly once per
// stage in declared order. Progress is evenly spaced and monotonically
// non-decreasing; the terminal event is complete at 100, or a single error
// event if a stage hits an unrecoverable fault. A cancelled context (client
// disconnect) stops the pipeline at the next stage boundary without emitting
// anything further.
func (p *Planner) Run(ctx context.Context, req *TravelRequest, emit EmitFunc) error {
	if err := validateForRun(req); err != nil {
		log.Printf("❌ pipeline aborted before start: %v", err)
		return emit(StageResult{Type: StageError, Message: err.Error()})
	}

	state := &sessionState{}
	total := len(StageOrder) - 1 // last stage lands on exactly 100
	lastProgress := 0

	for i, stage := range StageOrder {
		if err := ctx.Err(); err != nil {
			log.Printf("⚠️  session cancelled at stage %s: %v", stage, err)
			return err
		}

		progress := i * 100 / total
		result, err := p.runStage(ctx, stage, req, state)
		if err != nil {
			log.Printf("❌ fatal error at stage %s (route %s → %s): %v",
				stage, req.Origin, req.Destination, err)
			// The error event carries the last emitted progress so the
			// sequence stays monotonic.
			return emit(StageResult{Type: StageError, Progress: lastProgress, Message: err.Error()})
		}

		result.Progress = progress
		if err := emit(result); err != nil {
			// Emission failures mean the client is gone; stop issuing
			// further upstream calls.
			log.Printf("⚠️  emit failed at stage %s, aborting session: %v", stage, err)
			return err
		}
		lastProgress = progress
	}

	return nil
}

// Plan runs the identical pipeline with no intermediate emission and returns
// one consolidated TravelPlan.
func (p *Planner) Plan(ctx context.Context, req *TravelRequest) (*TravelPlan, error) {
	collector := NewCollector()
	if err := p.Run(ctx, req, collector.Emit); err != nil {
		return nil, err
	}
	plan := collector.Plan()
	if !plan.Success {
		return nil, fmt.Errorf("travel plan failed: %s", collector.ErrorMessage())
	}
	return plan, nil
}

func validateForRun(req *TravelRequest) error {
	switch {
	case req == nil:
		return &fatalError{stage: StageStatus, msg: "travel request is missing"}
	case req.Destination == "":
		return &fatalError{stage: StageStatus, msg: "travel request has no destination"}
	case req.Origin == "":
		return &fatalError{stage: StageStatus, msg: "travel request has no origin"}
	case req.DepartureDate == "":
		return &fatalError{stage: StageStatus, msg: "travel request has no departure date"}
	}
	return nil
}

// ─── Collector ────────────────────────────────────────────────────────────────

// Collector is an EmitFunc target that folds the ordered StageResult sequence
// into a TravelPlan. The aggregate responder and the stream handler both feed
// from the same Run, so their payloads are identical by construction.
type Collector struct {
	plan   TravelPlan
	errMsg string
}

func NewCollector() *Collector {
	return &Collector{plan: TravelPlan{Sources: map[string]string{}}}
}

func (c *Collector) Emit(r StageResult) error {
	if r.Source != "" {
		c.plan.Sources[string(r.Type)] = r.Source
	}

	switch r.Type {
	case StageSummary:
		if s, ok := r.Data.(Summary); ok {
			c.plan.Summary = s
		}
	case StageFlights:
		if f, ok := r.Data.(FlightsPayload); ok {
			c.plan.Flights = f
		}
	case StageHotels:
		if h, ok := r.Data.(HotelsPayload); ok {
			c.plan.Hotels = h
		}
	case StageAttractions:
		if a, ok := r.Data.(AttractionsPayload); ok {
			c.plan.Attractions = a
		}
	case StageItinerary:
		if it, ok := r.Data.([]ItineraryDay); ok {
			c.plan.Itinerary = it
		}
	case StageBudget:
		if b, ok := r.Data.(Budget); ok {
			c.plan.Budget = b
		}
	case StageTips:
		if t, ok := r.Data.(Tips); ok {
			c.plan.Tips = t
		}
	case StageComplete:
		c.plan.Success = true
	case StageError:
		c.plan.Success = false
		c.errMsg = r.Message
	}
	return nil
}

func (c *Collector) Plan() *TravelPlan {
	return &c.plan
}

func (c *Collector) ErrorMessage() string {
	return c.errMsg
}
