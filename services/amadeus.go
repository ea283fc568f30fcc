package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"tripflow/pipeline"

	"github.com/patrickmn/go-cache"
)

// ─── Amadeus Client ───────────────────────────────────────────────────────────

// AmadeusClient is the travel-inventory gateway. One client is constructed at
// startup and shared across concurrent sessions; only the OAuth token is
// mutated, under the mutex.
type AmadeusClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	accessToken  string
	tokenExpiry  time.Time
	mu           sync.Mutex
	httpClient   *http.Client
	locations    *cache.Cache // city name → IATA code
}

// NewAmadeusClient builds a client from AMADEUS_CLIENT_ID / AMADEUS_CLIENT_SECRET.
// Returns nil when credentials are absent so the pipeline skips straight to
// fallback data.
func NewAmadeusClient() *AmadeusClient {
	clientID := os.Getenv("AMADEUS_CLIENT_ID")
	clientSecret := os.Getenv("AMADEUS_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Println("⚠️  AMADEUS_CLIENT_ID or AMADEUS_CLIENT_SECRET not set — flight/hotel search will use fallback data")
		return nil
	}

	baseURL := "https://api.amadeus.com" // production
	if env := os.Getenv("AMADEUS_ENV"); env == "" || env == "test" {
		baseURL = "https://test.api.amadeus.com" // free test environment
	}
	if override := os.Getenv("AMADEUS_BASE_URL"); override != "" {
		baseURL = override
	}

	c := &AmadeusClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		locations: cache.New(24*time.Hour, 1*time.Hour),
	}

	// Pre-warm the token
	if err := c.refreshToken(context.Background()); err != nil {
		log.Printf("⚠️  Amadeus token pre-warm failed: %v", err)
	} else {
		log.Println("✅ Amadeus API authenticated")
	}
	return c
}

// Configured reports whether live inventory search is available.
func (c *AmadeusClient) Configured() bool {
	return c != nil && c.clientID != ""
}

// ─── OAuth2 Token ─────────────────────────────────────────────────────────────

func (c *AmadeusClient) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse token response: %v", err)
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	c.mu.Unlock()

	return nil
}

func (c *AmadeusClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	expired := time.Now().After(c.tokenExpiry)
	token := c.accessToken
	c.mu.Unlock()

	if expired || token == "" {
		if err := c.refreshToken(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		token = c.accessToken
		c.mu.Unlock()
	}
	return token, nil
}

func (c *AmadeusClient) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("amadeus error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// ─── Location Resolution ──────────────────────────────────────────────────────

type amadeusLocationsResponse struct {
	Data []struct {
		IataCode string `json:"iataCode"`
		Name     string `json:"name"`
	} `json:"data"`
}

// resolveCode maps a free-text city name to an IATA code via the Amadeus
// locations reference API. Results are cached for a day.
func (c *AmadeusClient) resolveCode(ctx context.Context, keyword, subType string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if len(keyword) == 3 && keyword == strings.ToUpper(keyword) {
		return keyword, nil // already an IATA code
	}

	cacheKey := subType + ":" + strings.ToLower(keyword)
	if code, found := c.locations.Get(cacheKey); found {
		return code.(string), nil
	}

	path := fmt.Sprintf("/v1/reference-data/locations?keyword=%s&subType=%s",
		url.QueryEscape(keyword), url.QueryEscape(subType))

	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return "", err
	}

	var resp amadeusLocationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse locations response: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no %s code found for %q", subType, keyword)
	}

	code := resp.Data[0].IataCode
	c.locations.Set(cacheKey, code, cache.DefaultExpiration)
	return code, nil
}

// ─── Flight Search ────────────────────────────────────────────────────────────

// SearchFlights searches one-way flights via the Amadeus Flight Offers Search
// API. Origin and destination may be city names or IATA codes.
func (c *AmadeusClient) SearchFlights(ctx context.Context, origin, destination, departureDate string, adults int) ([]pipeline.Flight, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("amadeus not configured")
	}

	originCode, err := c.resolveCode(ctx, origin, "AIRPORT")
	if err != nil {
		return nil, fmt.Errorf("origin lookup failed: %w", err)
	}
	destinationCode, err := c.resolveCode(ctx, destination, "AIRPORT")
	if err != nil {
		return nil, fmt.Errorf("destination lookup failed: %w", err)
	}

	path := fmt.Sprintf(
		"/v2/shopping/flight-offers?originLocationCode=%s&destinationLocationCode=%s"+
			"&departureDate=%s&adults=%d&max=10",
		url.QueryEscape(originCode),
		url.QueryEscape(destinationCode),
		url.QueryEscape(departureDate),
		adults,
	)

	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}

	return parseFlightOffers(body)
}

// Amadeus flight offers response structures
type amadeusFlightOffersResponse struct {
	Data []amadeusFlightOffer `json:"data"`
}

type amadeusFlightOffer struct {
	Price struct {
		GrandTotal string `json:"grandTotal"`
		Currency   string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Duration string `json:"duration"`
		Segments []struct {
			Departure struct {
				IataCode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				IataCode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"arrival"`
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
		} `json:"segments"`
	} `json:"itineraries"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
}

func parseFlightOffers(data []byte) ([]pipeline.Flight, error) {
	var resp amadeusFlightOffersResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse flight offers: %w", err)
	}

	flights := make([]pipeline.Flight, 0, len(resp.Data))

	for _, offer := range resp.Data {
		if len(offer.Itineraries) < 1 {
			continue
		}

		price := parsePrice(offer.Price.GrandTotal)
		if price <= 0 {
			continue
		}

		leg := offer.Itineraries[0]
		airlineCode := ""
		if len(leg.Segments) > 0 {
			airlineCode = leg.Segments[0].CarrierCode
		} else if len(offer.ValidatingAirlineCodes) > 0 {
			airlineCode = offer.ValidatingAirlineCodes[0]
		}

		f := pipeline.Flight{
			Price:       price,
			Currency:    offer.Price.Currency,
			Airline:     airlineName(airlineCode),
			AirlineCode: airlineCode,
			Stops:       maxOf(0, len(leg.Segments)-1),
			Duration:    parseDuration(leg.Duration),
		}

		if len(leg.Segments) > 0 {
			f.DepartureTime = leg.Segments[0].Departure.At
			f.ArrivalTime = leg.Segments[len(leg.Segments)-1].Arrival.At
			f.FlightNumber = airlineCode + leg.Segments[0].Number
		}

		flights = append(flights, f)
	}

	return flights, nil
}

// ─── Hotel Search ─────────────────────────────────────────────────────────────

// SearchHotels searches hotels via Amadeus Hotel List + Hotel Offers APIs.
func (c *AmadeusClient) SearchHotels(ctx context.Context, city, checkIn, checkOut string, adults int) ([]pipeline.Hotel, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("amadeus not configured")
	}

	cityCode, err := c.resolveCode(ctx, city, "CITY")
	if err != nil {
		return nil, fmt.Errorf("city lookup failed: %w", err)
	}

	// Step 1: Get hotel IDs for the city
	hotelIDs, err := c.getHotelIDsByCity(ctx, cityCode)
	if err != nil {
		return nil, fmt.Errorf("hotel list failed: %w", err)
	}

	if len(hotelIDs) == 0 {
		return nil, fmt.Errorf("no hotels found for city %s", cityCode)
	}

	// Limit to first 20 IDs to avoid hitting rate limits
	if len(hotelIDs) > 20 {
		hotelIDs = hotelIDs[:20]
	}

	// Step 2: Get available offers for those hotels
	return c.getHotelOffers(ctx, hotelIDs, checkIn, checkOut, adults)
}

type amadeusHotelListResponse struct {
	Data []struct {
		HotelID string `json:"hotelId"`
		Name    string `json:"name"`
	} `json:"data"`
}

func (c *AmadeusClient) getHotelIDsByCity(ctx context.Context, cityCode string) ([]string, error) {
	path := fmt.Sprintf("/v1/reference-data/locations/hotels/by-city?cityCode=%s&radius=5&radiusUnit=KM&hotelSource=ALL",
		url.QueryEscape(cityCode))

	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}

	var resp amadeusHotelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel list: %w", err)
	}

	ids := make([]string, 0, len(resp.Data))
	for _, h := range resp.Data {
		ids = append(ids, h.HotelID)
	}
	return ids, nil
}

type amadeusHotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			CityCode string `json:"cityCode"`
			Address  struct {
				Lines       []string `json:"lines"`
				CityName    string   `json:"cityName"`
				CountryCode string   `json:"countryCode"`
			} `json:"address"`
			Rating string `json:"rating"`
		} `json:"hotel"`
		Available bool `json:"available"`
		Offers    []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

func (c *AmadeusClient) getHotelOffers(ctx context.Context, hotelIDs []string, checkIn, checkOut string, adults int) ([]pipeline.Hotel, error) {
	path := fmt.Sprintf("/v3/shopping/hotel-offers?hotelIds=%s&checkInDate=%s&checkOutDate=%s&adults=%d&roomQuantity=1&bestRateOnly=true",
		url.QueryEscape(strings.Join(hotelIDs, ",")),
		url.QueryEscape(checkIn),
		url.QueryEscape(checkOut),
		adults,
	)

	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, fmt.Errorf("hotel offers failed: %w", err)
	}

	var resp amadeusHotelOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel offers: %w", err)
	}

	hotels := make([]pipeline.Hotel, 0, len(resp.Data))
	for _, item := range resp.Data {
		if !item.Available || len(item.Offers) == 0 {
			continue
		}

		price := parsePrice(item.Offers[0].Price.Total)
		if price <= 0 {
			continue
		}

		location := item.Hotel.Address.CityName
		if location == "" {
			location = item.Hotel.CityCode
		}

		hotels = append(hotels, pipeline.Hotel{
			Name:     item.Hotel.Name,
			HotelID:  item.Hotel.HotelID,
			Price:    price,
			Rating:   parseRating(item.Hotel.Rating),
			Location: location,
			Currency: item.Offers[0].Price.Currency,
		})
	}

	return hotels, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// parseDuration converts ISO 8601 duration (PT5H30M) to human readable (5h 30m)
func parseDuration(iso string) string {
	if iso == "" {
		return ""
	}
	iso = strings.TrimPrefix(iso, "PT")
	result := ""
	hIdx := strings.Index(iso, "H")
	mIdx := strings.Index(iso, "M")
	if hIdx >= 0 {
		result += iso[:hIdx] + "h"
		iso = iso[hIdx+1:]
		mIdx = strings.Index(iso, "M")
	}
	if mIdx >= 0 && mIdx < len(iso) {
		if result != "" {
			result += " "
		}
		result += iso[:mIdx] + "m"
	}
	return result
}

func parsePrice(s string) float64 {
	var price float64
	fmt.Sscanf(strings.ReplaceAll(s, ",", ""), "%f", &price)
	return price
}

func parseRating(s string) float64 {
	if s == "" {
		return 4.0
	}
	var r float64
	fmt.Sscanf(s, "%f", &r)
	if r <= 0 {
		return 4.0
	}
	// Amadeus returns star ratings 1-5
	if r > 5 {
		r = 5
	}
	return r
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// airlineName returns full airline name from IATA code
func airlineName(code string) string {
	names := map[string]string{
		"AI": "Air India",
		"6E": "IndiGo",
		"UK": "Vistara",
		"SG": "SpiceJet",
		"QP": "Akasa Air",
		"IX": "Air India Express",
		"TK": "Turkish Airlines",
		"LH": "Lufthansa",
		"AF": "Air France",
		"BA": "British Airways",
		"EK": "Emirates",
		"QR": "Qatar Airways",
		"FZ": "FlyDubai",
		"UA": "United Airlines",
		"AA": "American Airlines",
		"DL": "Delta Air Lines",
		"KL": "KLM",
		"SQ": "Singapore Airlines",
		"CX": "Cathay Pacific",
		"NH": "ANA",
		"JL": "Japan Airlines",
		"EY": "Etihad Airways",
		"MS": "EgyptAir",
		"ET": "Ethiopian Airlines",
	}
	if name, ok := names[code]; ok {
		return name
	}
	if code != "" {
		return code + " Airlines"
	}
	return "Unknown Airline"
}
