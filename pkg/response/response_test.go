package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestErrorExposesConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	detail := &models.ScheduleConflictError{Message: "clash", Conflicts: []models.ConflictInfo{{TimeRange: "07:00-07:50"}}}
	Error(c, appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "clash"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Meta struct {
			Conflicts []models.ConflictInfo `json:"conflicts"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	require.Len(t, body.Meta.Conflicts, 1)
	assert.Equal(t, "07:00-07:50", body.Meta.Conflicts[0].TimeRange)
}

func TestOKAttachesPersistenceWarning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, gin.H{"ok": true}, &models.PersistenceWarning{Version: 4, Message: "changes may not survive a restart"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"persistence_warning"`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestOKWithoutWarningOmitsMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, []string{"a"}, nil)

	assert.NotContains(t, w.Body.String(), "meta")
}
