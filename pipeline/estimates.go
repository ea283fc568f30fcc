package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Static estimate tables: the last fallback tier, used when both the inventory
// and generative gateways are unavailable. Prices are deliberately rounded and
// clearly tagged SourceEstimated upstream.

// ─── Flight estimates ─────────────────────────────────────────────────────────

type routeInfo struct {
	basePrice float64 // one-way, INR
	duration  int     // minutes
}

var knownRoutes = map[string]routeInfo{
	"mumbai-delhi": {5500, 130}, "delhi-mumbai": {5500, 130},
	"mumbai-goa": {3200, 75}, "goa-mumbai": {3200, 75},
	"bangalore-goa": {3800, 80}, "goa-bangalore": {3800, 80},
	"delhi-jaipur": {2800, 60}, "jaipur-delhi": {2800, 60},
	"chennai-hyderabad": {3000, 75}, "hyderabad-chennai": {3000, 75},
	"delhi-goa": {6200, 150}, "goa-delhi": {6200, 150},
	"mumbai-jaipur": {4200, 105}, "jaipur-mumbai": {4200, 105},
	"bangalore-delhi": {6000, 165}, "delhi-bangalore": {6000, 165},
	"mumbai-dubai": {14000, 190}, "dubai-mumbai": {14000, 190},
	"delhi-london": {38000, 540}, "london-delhi": {38000, 540},
	"mumbai-singapore": {18000, 330}, "singapore-mumbai": {18000, 330},
}

type carrierOption struct {
	name     string
	code     string
	priceMod float64
	stops    int
}

var carrierOptions = []carrierOption{
	{"IndiGo", "6E", 0.85, 0},
	{"Air India", "AI", 1.00, 0},
	{"Vistara", "UK", 1.15, 0},
	{"SpiceJet", "SG", 0.75, 1},
	{"Akasa Air", "QP", 0.90, 0},
}

// EstimateFlights produces plausible one-way flight options for a route
// without any upstream call. Output is unsorted; callers sort by price.
func EstimateFlights(origin, destination, departureDate string) []Flight {
	key := strings.ToLower(strings.TrimSpace(origin)) + "-" + strings.ToLower(strings.TrimSpace(destination))
	info, ok := knownRoutes[key]
	if !ok {
		info = routeInfo{7500, 150}
	}

	dep, err := time.Parse("2006-01-02", departureDate)
	if err != nil {
		dep = time.Now().AddDate(0, 0, 1)
	}

	flights := make([]Flight, 0, len(carrierOptions))
	for i, opt := range carrierOptions {
		price := info.basePrice * opt.priceMod
		price = float64(int(price/50) * 50)

		dur := info.duration
		if opt.stops > 0 {
			dur += 90
		}

		depTime := time.Date(dep.Year(), dep.Month(), dep.Day(), 6+i*3, 15, 0, 0, time.UTC)
		arrTime := depTime.Add(time.Duration(dur) * time.Minute)

		flights = append(flights, Flight{
			Price:         price,
			Currency:      "INR",
			Airline:       opt.name,
			AirlineCode:   opt.code,
			FlightNumber:  fmt.Sprintf("%s%d", opt.code, 200+i*117),
			DepartureTime: depTime.Format(time.RFC3339),
			ArrivalTime:   arrTime.Format(time.RFC3339),
			Duration:      formatDurationMin(dur),
			Stops:         opt.stops,
		})
	}
	return flights
}

func formatDurationMin(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

// ─── Hotel estimates ──────────────────────────────────────────────────────────

var knownCityHotels = map[string][]Hotel{
	"goa": {
		{Name: "Taj Fort Aguada Resort", Price: 12500, Rating: 4.7, Location: "Candolim, Goa", Currency: "INR"},
		{Name: "Novotel Goa Dona Sylvia", Price: 8200, Rating: 4.4, Location: "Cavelossim, Goa", Currency: "INR"},
		{Name: "Lemon Tree Amarante", Price: 5400, Rating: 4.2, Location: "Candolim, Goa", Currency: "INR"},
		{Name: "Ginger Panjim", Price: 3100, Rating: 3.9, Location: "Panaji, Goa", Currency: "INR"},
		{Name: "The Leela Goa", Price: 18500, Rating: 4.8, Location: "Mobor Beach, Goa", Currency: "INR"},
	},
	"jaipur": {
		{Name: "Rambagh Palace", Price: 32000, Rating: 4.9, Location: "Bhawani Singh Road, Jaipur", Currency: "INR"},
		{Name: "ITC Rajputana", Price: 9800, Rating: 4.5, Location: "Gopalbari, Jaipur", Currency: "INR"},
		{Name: "Jaipur Marriott", Price: 8500, Rating: 4.5, Location: "Tonk Road, Jaipur", Currency: "INR"},
		{Name: "Zostel Jaipur", Price: 1400, Rating: 4.1, Location: "Pink City, Jaipur", Currency: "INR"},
		{Name: "Hotel Pearl Palace", Price: 2600, Rating: 4.3, Location: "Hathroi Fort, Jaipur", Currency: "INR"},
	},
	"delhi": {
		{Name: "The Imperial", Price: 16500, Rating: 4.7, Location: "Janpath, New Delhi", Currency: "INR"},
		{Name: "Taj Palace", Price: 14200, Rating: 4.6, Location: "Diplomatic Enclave, New Delhi", Currency: "INR"},
		{Name: "Bloomrooms @ New Delhi", Price: 3800, Rating: 4.2, Location: "Link Road, New Delhi", Currency: "INR"},
		{Name: "ibis New Delhi Aerocity", Price: 5200, Rating: 4.1, Location: "Aerocity, New Delhi", Currency: "INR"},
		{Name: "The Lodhi", Price: 24000, Rating: 4.8, Location: "Lodhi Road, New Delhi", Currency: "INR"},
	},
	"mumbai": {
		{Name: "The Taj Mahal Palace", Price: 21000, Rating: 4.8, Location: "Colaba, Mumbai", Currency: "INR"},
		{Name: "Trident Nariman Point", Price: 12800, Rating: 4.6, Location: "Nariman Point, Mumbai", Currency: "INR"},
		{Name: "ibis Mumbai Airport", Price: 5600, Rating: 4.2, Location: "Andheri East, Mumbai", Currency: "INR"},
		{Name: "Residency Hotel Fort", Price: 4300, Rating: 4.3, Location: "Fort, Mumbai", Currency: "INR"},
		{Name: "Abode Bombay", Price: 7800, Rating: 4.5, Location: "Colaba, Mumbai", Currency: "INR"},
	},
	"udaipur": {
		{Name: "Taj Lake Palace", Price: 38000, Rating: 4.9, Location: "Lake Pichola, Udaipur", Currency: "INR"},
		{Name: "The Oberoi Udaivilas", Price: 45000, Rating: 4.9, Location: "Haridasji Ki Magri, Udaipur", Currency: "INR"},
		{Name: "Zostel Udaipur", Price: 1200, Rating: 4.2, Location: "Lal Ghat, Udaipur", Currency: "INR"},
		{Name: "Hotel Lakend", Price: 6500, Rating: 4.4, Location: "Fateh Sagar Lake, Udaipur", Currency: "INR"},
	},
}

// EstimateHotels produces plausible accommodation suggestions for a city
// without any upstream call.
func EstimateHotels(destination string) []Hotel {
	if hotels, ok := knownCityHotels[strings.ToLower(strings.TrimSpace(destination))]; ok {
		return append([]Hotel(nil), hotels...)
	}

	// Generic city spread across price tiers.
	return []Hotel{
		{Name: "Grand City Hotel", Price: 9500, Rating: 4.5, Location: "City Center, " + destination, Currency: "INR"},
		{Name: "Business Inn", Price: 4800, Rating: 4.2, Location: "Business District, " + destination, Currency: "INR"},
		{Name: "Boutique Residency", Price: 6800, Rating: 4.4, Location: "Old Town, " + destination, Currency: "INR"},
		{Name: "Budget Stays", Price: 2200, Rating: 3.9, Location: "Near Station, " + destination, Currency: "INR"},
		{Name: "Heritage Collection", Price: 14500, Rating: 4.7, Location: "Historic Quarter, " + destination, Currency: "INR"},
	}
}

// ─── Tips estimates ───────────────────────────────────────────────────────────

// EstimateTips returns generic pre-departure advice when the generative
// gateway cannot be reached.
func EstimateTips(destination string) *Tips {
	return &Tips{
		BestTimeToVisit: "Check local weather conditions before booking",
		WhatToPack:      []string{"Comfortable walking shoes", "Travel documents", "Phone charger", "Sunscreen", "Basic medications"},
		SafetyTips:      "Keep copies of important documents and stay aware of your surroundings.",
		MoneyTips:       "Carry a mix of cash and cards, and inform your bank about travel dates.",
		LocalCustoms:    "Research local customs and etiquette in " + destination + " before you arrive.",
	}
}
