package controllers

import (
	"net/http"
	"strconv"
	"time"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

type inviteReviewerRequest struct {
	ReviewerID int        `json:"reviewer_id" binding:"required"`
	DueDate    *time.Time `json:"due_date"`
}

// InviteReviewer creates a reviewer invitation for a manuscript.
func InviteReviewer(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	manuscriptID, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	var req inviteReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reviewer_id is required"})
		return
	}

	assignment, err := services.NewAssignmentService(nil, nil).
		InviteReviewer(actor, manuscriptID, req.ReviewerID, req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "assignment": assignment})
}

type respondRequest struct {
	Response string  `json:"response" binding:"required"` // accept|decline
	Reason   *string `json:"reason"`
}

// RespondToAssignment records the invited reviewer's accept or decline.
func RespondToAssignment(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Response != "accept" && req.Response != "decline" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Response must be either 'accept' or 'decline'"})
		return
	}

	assignment, err := services.NewAssignmentService(nil, nil).
		Respond(actor, assignmentID, req.Response == "accept", req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment})
}

type remindRequest struct {
	AssignmentIDs []int  `json:"assignment_ids" binding:"required"`
	Subject       string `json:"subject" binding:"required"`
	Message       string `json:"message"`
}

// RemindAssignments sends reminders to a batch of assignments and reports
// per-assignment outcomes.
func RemindAssignments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req remindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assignment_ids and subject are required"})
		return
	}

	outcomes, err := services.NewAssignmentService(nil, nil).
		Remind(actor, req.AssignmentIDs, req.Subject, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": outcomes})
}

// GetManuscriptAssignments lists assignments for a manuscript (editorial view).
func GetManuscriptAssignments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	manuscriptID, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	assignments, err := services.NewAssignmentService(nil, nil).ForManuscript(actor, manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignments": assignments, "total": len(assignments)})
}

// GetMyAssignments lists the calling reviewer's assignments.
func GetMyAssignments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	assignments, err := services.NewAssignmentService(nil, nil).ForReviewer(actor, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignments": assignments, "total": len(assignments)})
}
