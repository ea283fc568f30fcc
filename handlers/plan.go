package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"tripflow/pipeline"
	"tripflow/services"
	"tripflow/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// API bundles the long-lived dependencies the HTTP handlers need. One instance
// is constructed at startup and shared across requests.
type API struct {
	Planner *pipeline.Planner
	Store   *session.Store
	Amadeus *services.AmadeusClient
	OpenAI  *services.OpenAIClient
}

type PlanRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// planDocument is the consolidated response: every stage payload sits at the
// top level of the document, with the session handle riding along for
// follow-ups and PDF export.
type planDocument struct {
	*pipeline.TravelPlan
	SessionID   string `json:"session_id"`
	DownloadURL string `json:"download_url"`
}

// ─── Aggregate Plan ───────────────────────────────────────────────────────────

// PlanHandler runs the full pipeline and returns one consolidated plan.
func (a *API) PlanHandler(c *gin.Context) {
	var body PlanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must include a 'query' field"})
		return
	}

	ctx := c.Request.Context()

	req, err := a.Planner.Interpret(ctx, body.Query)
	if err != nil {
		pe, ok := pipeline.AsParseError(err)
		if !ok {
			pe = &pipeline.ParseError{Reason: err.Error()}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success":      false,
			"error":        pe.Reason,
			"needs_origin": pe.NeedsOrigin,
		})
		return
	}

	log.Printf("🗺️  planning trip: %s → %s (%d day(s), %d traveler(s))",
		req.Origin, req.Destination, req.DurationDays, req.Travelers)

	plan, err := a.Planner.Plan(ctx, req)
	if err != nil {
		log.Printf("❌ plan failed for %s → %s: %v", req.Origin, req.Destination, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Could not build a travel plan, please try again",
		})
		return
	}

	sessionID := a.Store.Put(body.SessionID, plan)

	c.JSON(http.StatusOK, planDocument{
		TravelPlan:  plan,
		SessionID:   sessionID,
		DownloadURL: "/api/download/" + sessionID,
	})
}

// ─── Streaming Plan ───────────────────────────────────────────────────────────

// StreamPlanHandler runs the same pipeline but pushes each stage result to the
// client as a server-sent event the moment it is ready.
func (a *API) StreamPlanHandler(c *gin.Context) {
	var body PlanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must include a 'query' field"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable proxy buffering

	ctx := c.Request.Context()

	req, err := a.Planner.Interpret(ctx, body.Query)
	if err != nil {
		pe, ok := pipeline.AsParseError(err)
		if !ok {
			pe = &pipeline.ParseError{Reason: err.Error()}
		}
		// Parse failures never start the pipeline: a single error event
		// is the whole stream.
		writeSSE(c, pipeline.StageResult{
			Type:    pipeline.StageError,
			Message: pe.Reason,
			Data:    gin.H{"needs_origin": pe.NeedsOrigin},
		})
		return
	}

	log.Printf("🗺️  streaming trip plan: %s → %s (%d day(s), %d traveler(s))",
		req.Origin, req.Destination, req.DurationDays, req.Travelers)

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// Tee every event into a collector so the finished plan can be cached
	// for PDF export. The streamed and stored payloads come from the same
	// Run and are identical.
	collector := pipeline.NewCollector()
	emit := func(r pipeline.StageResult) error {
		if r.Type == pipeline.StageComplete {
			r.Data = gin.H{
				"session_id":   sessionID,
				"download_url": "/api/download/" + sessionID,
			}
		}
		if err := collector.Emit(r); err != nil {
			return err
		}
		return writeSSE(c, r)
	}

	if err := a.Planner.Run(ctx, req, emit); err != nil {
		// Context cancellation or a write failure: the client is gone,
		// nothing left to send.
		return
	}

	if plan := collector.Plan(); plan.Success {
		a.Store.Put(sessionID, plan)
	}
}

// writeSSE frames one stage result as a server-sent event and flushes it
// through any intermediate buffering.
func writeSSE(c *gin.Context, r pipeline.StageResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
