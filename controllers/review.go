package controllers

import (
	"net/http"
	"strconv"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

func reviewIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return 0, false
	}
	return id, true
}

// SaveReviewDraft creates or updates the reviewer's draft for an assignment.
func SaveReviewDraft(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var input services.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := services.NewReviewService(nil, nil, nil).SaveDraft(actor, assignmentID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

// SubmitReview finalizes a review; the review freezes and the assignment
// completes.
func SubmitReview(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}

	review, err := services.NewReviewService(nil, nil, nil).Submit(actor, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

// WithdrawReview retracts a submitted review.
func WithdrawReview(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	review, err := services.NewReviewService(nil, nil, nil).Withdraw(actor, reviewID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

// GetManuscriptReviews returns the full reviews for editors, or the redacted
// projection when the caller is the manuscript's author.
func GetManuscriptReviews(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	manuscriptID, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	svc := services.NewReviewService(nil, nil, nil)
	if actor.IsEditorial() {
		reviews, err := svc.ForEditor(actor, manuscriptID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "reviews": reviews, "total": len(reviews)})
		return
	}

	reviews, err := svc.ForAuthor(actor, manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reviews": reviews, "total": len(reviews)})
}

// GetReviewQualityReport returns the stored quality report for a review.
func GetReviewQualityReport(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}

	report, err := services.NewQualityService(nil, nil, nil).Report(reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// FlagReview lets an editor add quality flags to a review.
func FlagReview(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Flags []string `json:"flags" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flags are required"})
		return
	}

	report, err := services.NewQualityService(nil, nil, nil).FlagReview(actor, reviewID, req.Flags...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
