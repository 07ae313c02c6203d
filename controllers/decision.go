package controllers

import (
	"net/http"
	"strconv"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// ProcessDecision records an editorial decision (draft or final) for a
// manuscript. Final decisions transition the manuscript and queue side
// effects; the response separates the recorded decision from the actions
// that were actually queued.
func ProcessDecision(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	manuscriptID, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	var input services.DecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	input.ManuscriptID = manuscriptID

	result, err := services.NewDecisionService(nil, nil).ProcessDecision(actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// SubmitFinalDecision promotes a draft decision to final.
func SubmitFinalDecision(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	draftID, err := strconv.Atoi(c.Param("id"))
	if err != nil || draftID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draft ID"})
		return
	}

	result, err := services.NewDecisionService(nil, nil).SubmitFinalDecision(actor, draftID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// GetDecisionHistory lists final decisions for a manuscript, newest first.
func GetDecisionHistory(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	manuscriptID, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	decisions, err := services.NewDecisionService(nil, nil).DecisionHistory(actor, manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "decisions": decisions, "total": len(decisions)})
}

// GetDraftDecisions lists the caller's draft decisions for a manuscript.
// Admins see every editor's drafts.
func GetDraftDecisions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	manuscriptID, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	drafts, err := services.NewDecisionService(nil, nil).DraftDecisions(actor, manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drafts": drafts, "total": len(drafts)})
}
