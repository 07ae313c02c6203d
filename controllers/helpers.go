package controllers

import (
	"net/http"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// currentActor builds the engine identity from the auth middleware context.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userIDValue, ok := c.Get("userID")
	if !ok {
		return services.Actor{}, false
	}
	roleIDValue, ok := c.Get("roleID")
	if !ok {
		return services.Actor{}, false
	}
	userID, okUser := userIDValue.(int)
	roleID, okRole := roleIDValue.(int)
	if !okUser || !okRole {
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, RoleID: roleID}, true
}

// mustActor aborts with 401 when the auth context is missing or malformed.
func mustActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User context missing"})
	}
	return actor, ok
}

// respondError maps workflow error codes onto HTTP statuses. Unknown errors
// become opaque 500s; their detail stays in the server log.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch services.ErrorCode(err) {
	case services.CodeUnauthorized:
		status = http.StatusUnauthorized
		message = err.Error()
	case services.CodeForbidden:
		status = http.StatusForbidden
		message = err.Error()
	case services.CodeNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case services.CodeValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case services.CodeCapacityExceeded, services.CodeDuplicateAssignment, services.CodeInvalidTransition:
		status = http.StatusConflict
		message = err.Error()
	}

	c.JSON(status, gin.H{"error": message, "code": services.ErrorCode(err)})
}
