package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"tripflow/pipeline"
)

// ─── OpenAI Client ────────────────────────────────────────────────────────────

// OpenAIClient is the generative-knowledge gateway. It interprets free-text
// travel queries and supplies attractions, dining, itineraries and tips — and
// acts as the fallback source when the inventory API is unavailable.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient builds a client from OPENAI_API_KEY. Model and base URL are
// overridable via OPENAI_MODEL and OPENAI_BASE_URL.
func NewOpenAIClient() *OpenAIClient {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	c := &OpenAIClient{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	if c.apiKey != "" {
		log.Println("✅ OpenAI client initialized with model:", model)
	} else {
		log.Println("⚠️  OPENAI_API_KEY not set — query parsing and recommendations will be unavailable")
	}
	return c
}

// Configured reports whether generative calls are available.
func (c *OpenAIClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// ─── Chat Completions ─────────────────────────────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) chat(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("openai not configured")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response (%d): %v", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("OpenAI API error (%d): %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// extractJSON strips markdown code fences and any surrounding prose so the
// remaining text parses as a single JSON document.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx != -1 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx+3:]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}

	// Slice to the outermost object or array, whichever opens first.
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	start, closer := objStart, "}"
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start != -1 {
		if end := strings.LastIndex(text, closer); end > start {
			return strings.TrimSpace(text[start : end+1])
		}
	}
	return text
}

// ─── Query Interpreter ────────────────────────────────────────────────────────

type parsedTravelQuery struct {
	OriginCity      string `json:"origin_city"`
	DestinationCity string `json:"destination_city"`
	DepartureDate   string `json:"departure_date"`
	ReturnDate      string `json:"return_date"`
	DurationDays    int    `json:"duration_days"`
	Travelers       int    `json:"travelers"`
	TravelType      string `json:"travel_type"`
}

// ParseTravelQuery extracts structured trip fields from a free-text query.
// Single best-effort attempt; the caller normalizes and validates the result.
func (c *OpenAIClient) ParseTravelQuery(ctx context.Context, query string) (*pipeline.TravelRequest, error) {
	today := time.Now().Format("2006-01-02")

	system := fmt.Sprintf(
		"You are a travel query parser. Today is %s. Extract from the user's query: "+
			"origin_city (departure city; empty string if not mentioned), destination_city, "+
			"departure_date (YYYY-MM-DD, convert relative dates like 'next Monday' to absolute, never in the past), "+
			"return_date (YYYY-MM-DD or empty), duration_days (number; 'weekend' = 2, 'a week' = 7), "+
			"travelers (number, default 1), travel_type (one of business/leisure/romantic/family/adventure/budget/luxury/cultural). "+
			"Return ONLY valid JSON with exactly those keys.", today)

	response, err := c.chat(ctx, system, query, 300, 0.1)
	if err != nil {
		return nil, err
	}

	var parsed parsedTravelQuery
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		return nil, &pipeline.ParseError{Reason: "could not extract travel details from the query"}
	}
	if parsed.DestinationCity == "" {
		return nil, &pipeline.ParseError{Reason: "destination city is missing"}
	}

	return &pipeline.TravelRequest{
		Origin:        parsed.OriginCity,
		Destination:   parsed.DestinationCity,
		DepartureDate: parsed.DepartureDate,
		ReturnDate:    parsed.ReturnDate,
		DurationDays:  parsed.DurationDays,
		Travelers:     parsed.Travelers,
		TripType:      strings.ToLower(parsed.TravelType),
	}, nil
}

// ─── Recommendations ──────────────────────────────────────────────────────────

// FetchAttractions asks for top attractions in a destination, shaped by trip type.
func (c *OpenAIClient) FetchAttractions(ctx context.Context, destination, travelType string) ([]pipeline.Attraction, error) {
	system := fmt.Sprintf(
		"List 5 top attractions in %s for %s travel. "+
			"Return a JSON array of objects with keys: name, category, description (30 words max).",
		destination, travelType)

	response, err := c.chat(ctx, system, "Top attractions in "+destination, 800, 0.3)
	if err != nil {
		return nil, err
	}

	var attractions []pipeline.Attraction
	if err := json.Unmarshal([]byte(extractJSON(response)), &attractions); err != nil {
		return nil, fmt.Errorf("failed to parse attractions: %w", err)
	}
	return attractions, nil
}

// FetchDining asks for restaurant recommendations in a destination.
func (c *OpenAIClient) FetchDining(ctx context.Context, destination string) ([]pipeline.Restaurant, error) {
	system := fmt.Sprintf(
		"List 4 best restaurants in %s. "+
			"Return a JSON array of objects with keys: name, cuisine_type, description (20 words max), price_range.",
		destination)

	response, err := c.chat(ctx, system, "Best restaurants in "+destination, 600, 0.3)
	if err != nil {
		return nil, err
	}

	var dining []pipeline.Restaurant
	if err := json.Unmarshal([]byte(extractJSON(response)), &dining); err != nil {
		return nil, fmt.Errorf("failed to parse dining suggestions: %w", err)
	}
	return dining, nil
}

// FetchItinerary asks for a day-by-day plan.
func (c *OpenAIClient) FetchItinerary(ctx context.Context, destination, travelType string, days int) ([]pipeline.ItineraryDay, error) {
	system := fmt.Sprintf(
		"Create a %d-day %s itinerary for %s. "+
			"Return a JSON array, one object per day, with keys: day_number (int), theme (string), "+
			"activities (array of at most 3 objects with keys time and name).",
		days, travelType, destination)

	response, err := c.chat(ctx, system, fmt.Sprintf("Create a %d-day itinerary", days), 1000, 0.4)
	if err != nil {
		return nil, err
	}

	var itinerary []pipeline.ItineraryDay
	if err := json.Unmarshal([]byte(extractJSON(response)), &itinerary); err != nil {
		return nil, fmt.Errorf("failed to parse itinerary: %w", err)
	}
	return itinerary, nil
}

// FetchTips asks for pre-departure advice for a destination.
func (c *OpenAIClient) FetchTips(ctx context.Context, destination string) (*pipeline.Tips, error) {
	system := fmt.Sprintf(
		"Provide travel tips for %s. Return a JSON object with keys: best_time_to_visit (string), "+
			"what_to_pack (array of 5 items), safety_tips (string), money_tips (string), local_customs (string).",
		destination)

	response, err := c.chat(ctx, system, "Travel tips for "+destination, 500, 0.7)
	if err != nil {
		return nil, err
	}

	var tips pipeline.Tips
	if err := json.Unmarshal([]byte(extractJSON(response)), &tips); err != nil {
		return nil, fmt.Errorf("failed to parse travel tips: %w", err)
	}
	return &tips, nil
}

// ─── Inventory Fallbacks ──────────────────────────────────────────────────────

// SuggestFlights asks for typical flight options on a route when the inventory
// API has no answer. Prices are approximate by nature.
func (c *OpenAIClient) SuggestFlights(ctx context.Context, origin, destination, departureDate string) ([]pipeline.Flight, error) {
	system := fmt.Sprintf(
		"Suggest 4 typical one-way flight options from %s to %s on %s with realistic airlines and prices in INR. "+
			"Return a JSON array of objects with keys: price (number), currency, airline, airline_code, "+
			"flight_number, departure_time (RFC3339), arrival_time (RFC3339), duration (e.g. \"2h 15m\"), stops (int).",
		origin, destination, departureDate)

	response, err := c.chat(ctx, system, fmt.Sprintf("Flights from %s to %s", origin, destination), 800, 0.5)
	if err != nil {
		return nil, err
	}

	var flights []pipeline.Flight
	if err := json.Unmarshal([]byte(extractJSON(response)), &flights); err != nil {
		return nil, fmt.Errorf("failed to parse flight suggestions: %w", err)
	}
	return flights, nil
}

// SuggestHotels asks for typical accommodation options in a city when the
// inventory API has no answer.
func (c *OpenAIClient) SuggestHotels(ctx context.Context, destination string) ([]pipeline.Hotel, error) {
	system := fmt.Sprintf(
		"Suggest 5 real hotels in %s across price tiers with realistic per-night prices in INR. "+
			"Return a JSON array of objects with keys: name, price (number), rating (1-5), location, currency.",
		destination)

	response, err := c.chat(ctx, system, "Hotels in "+destination, 700, 0.5)
	if err != nil {
		return nil, err
	}

	var hotels []pipeline.Hotel
	if err := json.Unmarshal([]byte(extractJSON(response)), &hotels); err != nil {
		return nil, fmt.Errorf("failed to parse hotel suggestions: %w", err)
	}
	return hotels, nil
}
