package controllers

import (
	"net/http"
	"strconv"
	"time"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

func manuscriptIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid manuscript ID"})
		return 0, false
	}
	return id, true
}

// CreateManuscript creates a draft for the calling author.
func CreateManuscript(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var input services.ManuscriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	manuscript, err := services.NewManuscriptService(nil).CreateDraft(actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "manuscript": manuscript})
}

// UpdateManuscript edits a draft or revision-stage manuscript.
func UpdateManuscript(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	var input services.ManuscriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	manuscript, err := services.NewManuscriptService(nil).UpdateDraft(actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manuscript": manuscript})
}

// AttachMainFile stores the main manuscript file path ahead of submission.
func AttachMainFile(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	var req struct {
		StoredPath string `json:"stored_path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stored_path is required"})
		return
	}

	if err := services.NewManuscriptService(nil).AttachMainFile(actor, id, req.StoredPath); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetManuscript returns one manuscript visible to the caller.
func GetManuscript(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	manuscript, err := services.NewManuscriptService(nil).Get(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manuscript": manuscript})
}

// GetMyManuscripts lists the caller's own manuscripts.
func GetMyManuscripts(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	manuscripts, err := services.NewManuscriptService(nil).ListForAuthor(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manuscripts": manuscripts, "total": len(manuscripts)})
}

// GetEditorQueue lists manuscripts awaiting editorial action with urgency
// flags recomputed on read.
func GetEditorQueue(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	entries, err := services.NewManuscriptService(nil).EditorQueue(actor, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "queue": entries, "total": len(entries)})
}

// AssignEditor moves a submitted manuscript to with_editor.
func AssignEditor(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	var req struct {
		EditorID int `json:"editor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.EditorID == 0 {
		// Editors self-assign when no explicit editor is given.
		req.EditorID = actor.UserID
	}

	manuscript, err := services.NewWorkflowService(nil).AssignEditor(actor, id, req.EditorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manuscript": manuscript})
}

// ResubmitRevisions re-enters review after the author revises.
func ResubmitRevisions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	manuscript, err := services.NewWorkflowService(nil).ResubmitRevisions(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manuscript": manuscript})
}

// PublishManuscript releases an accepted manuscript.
func PublishManuscript(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	manuscript, err := services.NewWorkflowService(nil).Publish(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manuscript": manuscript})
}

// GetManuscriptHistory returns status transitions, newest first.
func GetManuscriptHistory(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	if _, err := services.NewManuscriptService(nil).Get(actor, id); err != nil {
		respondError(c, err)
		return
	}

	history, err := services.NewWorkflowService(nil).StatusHistory(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

// GetManuscriptActivity returns the audit trail for a manuscript.
func GetManuscriptActivity(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := manuscriptIDParam(c)
	if !ok {
		return
	}

	trail, err := services.NewManuscriptService(nil).ActivityTrail(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "activity": trail})
}
