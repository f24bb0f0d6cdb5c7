package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && len(meta[0]) > 0 {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200, attaching a persistence warning when one is outstanding.
func OK(c *gin.Context, data interface{}, warning *models.PersistenceWarning) {
	JSON(c, http.StatusOK, data, WarningMeta(warning))
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, warning *models.PersistenceWarning) {
	JSON(c, http.StatusCreated, data, WarningMeta(warning))
}

// WarningMeta builds the meta block for a persistence warning. Nil yields nil.
func WarningMeta(warning *models.PersistenceWarning) map[string]interface{} {
	if warning == nil {
		return nil
	}
	return map[string]interface{}{"persistence_warning": warning}
}

// Error sends an error response converting the error to the common structure. Schedule
// conflicts carry their details in meta.conflicts.
func Error(c *gin.Context, err error, meta ...map[string]interface{}) {
	appErr := appErrors.FromError(err)
	envelope := Envelope{Error: appErr}
	if len(meta) > 0 && len(meta[0]) > 0 {
		envelope.Meta = meta[0]
	}
	var conflict *models.ScheduleConflictError
	if errors.As(err, &conflict) {
		if envelope.Meta == nil {
			envelope.Meta = map[string]interface{}{}
		}
		envelope.Meta["conflicts"] = conflict.Conflicts
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, envelope)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
