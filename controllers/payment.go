package controllers

import (
	"net/http"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// CreateCharge opens a pending article processing charge for a draft
// manuscript and returns the reference the processor will confirm.
func CreateCharge(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	manuscriptID, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	record, err := services.NewPaymentService(nil, nil).CreateCharge(actor, manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "payment": record})
}

// PaymentWebhook handles the processor's success callback. Signature
// verification happens at the gateway in front of this service.
func PaymentWebhook(c *gin.Context) {
	var req struct {
		Reference string `json:"reference" binding:"required"`
		Status    string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference and status are required"})
		return
	}
	if req.Status != "succeeded" {
		// Failed or pending charges change nothing; the author retries.
		c.JSON(http.StatusOK, gin.H{"success": true, "handled": false})
		return
	}

	manuscript, err := services.NewPaymentService(nil, nil).ConfirmPayment(req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "handled": true, "manuscript_status": manuscript.Status})
}
