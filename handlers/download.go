package handlers

import (
	"log"
	"net/http"

	"tripflow/services"

	"github.com/gin-gonic/gin"
)

// DownloadHandler renders the cached plan for a session as a PDF attachment.
// Sessions expire; an expired or unknown id is a 404.
func (a *API) DownloadHandler(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session ID"})
		return
	}

	plan, ok := a.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found or session expired"})
		return
	}

	pdfBytes, err := services.GeneratePlanPDF(plan)
	if err != nil {
		log.Printf("❌ PDF generation failed for session %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=tripflow-plan.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (a *API) HealthHandler(c *gin.Context) {
	inventory := "not configured"
	if a.Amadeus.Configured() {
		inventory = "ok"
	}
	advisor := "not configured"
	if a.OpenAI.Configured() {
		advisor = "ok"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "TripFlow API",
		"inventory": inventory,
		"advisor":   advisor,
		"sessions":  a.Store.Count(),
	})
}
