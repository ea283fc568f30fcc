package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"tripflow/pipeline"

	"github.com/jung-kurt/gofpdf"
)

// GeneratePlanPDF renders a completed travel plan as a PDF and returns raw
// bytes (no filesystem needed).
func GeneratePlanPDF(plan *pipeline.TravelPlan) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	summary := plan.Summary

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "TripFlow", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "AI-Powered Travel Plan", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	// ── Disclaimer ───────────────────────────────────────────
	pdf.SetFillColor(255, 248, 225)
	pdf.SetDrawColor(212, 168, 67)
	pdf.SetTextColor(130, 90, 20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	disclaimer := "This is NOT a booking confirmation. Prices are estimates and subject to change. Verify with providers before booking."
	if plan.Sources[string(pipeline.StageFlights)] != pipeline.SourceLive {
		disclaimer = "ESTIMATED PRICES — live inventory was unavailable for this plan. This is NOT a booking confirmation."
	}
	pdf.MultiCell(164, 4, disclaimer, "", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Ln(6)

	// ── Section Helper ───────────────────────────────────────
	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, value, "", 1, "L", false, 0, "")
	}

	// ── Trip Overview ─────────────────────────────────────────
	sectionHeader("Trip Overview")
	row("Route", fmt.Sprintf("%s → %s", summary.Origin, summary.Destination))
	row("Departure", fmtDateReadable(summary.DepartureDate))
	if summary.ReturnDate != "" {
		row("Return", fmtDateReadable(summary.ReturnDate))
	}
	row("Duration", fmt.Sprintf("%d day(s)", summary.DurationDays))
	row("Travelers", fmt.Sprintf("%d", summary.Travelers))
	row("Trip type", summary.TravelType)
	row("Generated", time.Now().Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	// ── Best Flight Pick ──────────────────────────────────────
	if len(plan.Flights.Outbound) > 0 {
		flight := plan.Flights.Outbound[0] // cheapest, lists are price-sorted
		sectionHeader("Best Flight Option")
		row("Airline", flight.Airline)
		row("Outbound", formatFlightLeg(flight.DepartureTime, flight.ArrivalTime, flight.Duration))
		if len(plan.Flights.Return) > 0 {
			ret := plan.Flights.Return[0]
			row("Return", formatFlightLeg(ret.DepartureTime, ret.ArrivalTime, ret.Duration))
		}
		stops := "Direct"
		if flight.Stops > 0 {
			stops = fmt.Sprintf("%d stop(s)", flight.Stops)
		}
		row("Stops", stops)
		row("Price", fmt.Sprintf("%.0f %s per person (one way)", flight.Price, flight.Currency))
		pdf.Ln(4)
	}

	// ── Best Hotel Pick ───────────────────────────────────────
	if len(plan.Hotels.Options) > 0 {
		hotel := plan.Hotels.Options[0]
		sectionHeader("Best Hotel Option")
		row("Hotel", hotel.Name)
		row("Location", hotel.Location)
		row("Rating", fmt.Sprintf("%.1f / 5.0", hotel.Rating))
		row("Price", fmt.Sprintf("%.0f %s/night", hotel.Price, hotel.Currency))
		pdf.Ln(4)
	}

	// ── Itinerary ─────────────────────────────────────────────
	if len(plan.Itinerary) > 0 {
		sectionHeader("Day-by-Day Itinerary")
		for _, day := range plan.Itinerary {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(20, 20, 20)
			pdf.CellFormat(170, 6, fmt.Sprintf("Day %d — %s", day.DayNumber, day.Theme), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(60, 60, 60)
			for _, act := range day.Activities {
				pdf.CellFormat(170, 5, fmt.Sprintf("    %s  %s", act.Time, act.Name), "", 1, "L", false, 0, "")
			}
			pdf.Ln(1)
		}
		pdf.Ln(3)
	}

	// ── Budget ────────────────────────────────────────────────
	sectionHeader("Budget Estimate")
	cur := plan.Budget.Currency
	row("Flights", fmt.Sprintf("%.0f %s", plan.Budget.Flights, cur))
	row("Accommodation", fmt.Sprintf("%.0f %s", plan.Budget.Accommodation, cur))
	row("Food & activities", fmt.Sprintf("%.0f %s", plan.Budget.ActivitiesFood, cur))
	row("Local transport", fmt.Sprintf("%.0f %s", plan.Budget.LocalTransport, cur))

	pdf.SetFillColor(212, 168, 67)
	pdf.SetTextColor(13, 24, 37)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(55, 9, "TOTAL ESTIMATE", "", 0, "L", true, 0, "")
	pdf.CellFormat(115, 9, fmt.Sprintf("%.0f %s (%.0f per person)", plan.Budget.Total, cur, plan.Budget.PerPerson), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	// ── Tips ──────────────────────────────────────────────────
	sectionHeader("Travel Tips")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(40, 40, 40)
	tips := plan.Tips
	pdf.MultiCell(170, 5, "Best time to visit: "+tips.BestTimeToVisit, "", "L", false)
	if len(tips.WhatToPack) > 0 {
		pdf.MultiCell(170, 5, "Pack: "+strings.Join(tips.WhatToPack, ", "), "", "L", false)
	}
	pdf.MultiCell(170, 5, "Safety: "+tips.SafetyTips, "", "L", false)
	pdf.MultiCell(170, 5, "Money: "+tips.MoneyTips, "", "L", false)

	// ── Footer ────────────────────────────────────────────────
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		"Generated by TripFlow AI Travel Planner · Not a booking confirmation · Prices subject to change",
		"", 0, "C", false, 0, "")

	// ── Write to buffer ───────────────────────────────────────
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}

func formatFlightLeg(dep, arr, dur string) string {
	depT, err1 := time.Parse(time.RFC3339, dep)
	arrT, err2 := time.Parse(time.RFC3339, arr)
	if err1 != nil || err2 != nil {
		if dep != "" && arr != "" {
			return dep + " → " + arr
		}
		return "N/A"
	}
	result := fmt.Sprintf("%s → %s",
		depT.Format("02 Jan 15:04"),
		arrT.Format("02 Jan 15:04"))
	if dur != "" {
		result += fmt.Sprintf(" (%s)", dur)
	}
	return result
}
