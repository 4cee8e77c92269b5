package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/hearthschool/goaltrack/internal/adapters/handler/http"
	"github.com/hearthschool/goaltrack/internal/adapters/repository"
	"github.com/hearthschool/goaltrack/internal/core/schedule"
	"github.com/hearthschool/goaltrack/internal/core/services"
	"github.com/hearthschool/goaltrack/internal/core/workers"
)

type idResponse struct {
	ID string `json:"id"`
}

func setupTestServer(t *testing.T) (*gin.Engine, string) {
	gin.SetMode(gin.TestMode)

	loc, err := schedule.LoadLocation("America/New_York")
	require.NoError(t, err)

	goalRepo := repository.NewInMemoryGoalRepository()
	instanceRepo := repository.NewInMemoryInstanceRepository()
	activityRepo := repository.NewInMemoryActivityRepository()
	personRepo := repository.NewInMemoryPersonRepository()

	worker := workers.NewDayAuditWorker(goalRepo, instanceRepo, loc, true)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	worker.Start(ctx)

	tokenService := services.NewTokenService("e2e-test-secret", "goaltrack", time.Hour)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		GoalHandler:     adapterHTTP.NewGoalHandler(services.NewGoalService(goalRepo, activityRepo)),
		ActivityHandler: adapterHTTP.NewActivityHandler(services.NewActivityService(activityRepo)),
		PersonHandler:   adapterHTTP.NewPersonHandler(services.NewPersonService(personRepo)),
		InstanceHandler: adapterHTTP.NewInstanceHandler(services.NewRecordService(instanceRepo, goalRepo, worker, loc, false)),
		ProgressHandler: adapterHTTP.NewProgressHandler(services.NewProgressService(goalRepo, activityRepo, instanceRepo, loc, time.Monday)),
		TokenService:    tokenService,
		StartTime:       time.Now(),
	})

	token, err := tokenService.GenerateToken("parent-1", "hs-1")
	require.NoError(t, err)

	return router, token
}

func doJSON(router *gin.Engine, token, method, path, payload string) *httptest.ResponseRecorder {
	var req *http.Request
	if payload != "" {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEndToEnd_GoalLifecycle(t *testing.T) {
	router, token := setupTestServer(t)

	var activityID, goalID string

	t.Run("1. Create Activity", func(t *testing.T) {
		w := doJSON(router, token, http.MethodPost, "/api/v1/activities",
			`{"name": "Piano Practice", "track_time": true}`)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp idResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)
		activityID = resp.ID
	})

	t.Run("2. Create Goal", func(t *testing.T) {
		require.NotEmpty(t, activityID)

		payload := fmt.Sprintf(`{
			"activity_id": %q,
			"name": "Daily Piano",
			"student_ids": ["student-1"],
			"times_per_week": 2
		}`, activityID)

		w := doJSON(router, token, http.MethodPost, "/api/v1/goals", payload)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp idResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)
		goalID = resp.ID
	})

	t.Run("3. Record First Instance", func(t *testing.T) {
		require.NotEmpty(t, goalID)

		payload := fmt.Sprintf(`{
			"goal_id": %q,
			"student_id": "student-1",
			"date": "2024-01-10",
			"duration": 30
		}`, goalID)

		w := doJSON(router, token, http.MethodPost, "/api/v1/instances", payload)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("4. Recording Same Day Updates Instead of Duplicating", func(t *testing.T) {
		payload := fmt.Sprintf(`{
			"goal_id": %q,
			"student_id": "student-1",
			"date": "2024-01-10",
			"duration": 45
		}`, goalID)

		w := doJSON(router, token, http.MethodPost, "/api/v1/instances", payload)

		assert.Equal(t, http.StatusOK, w.Code, "same-day record should update, not create")
		assert.Contains(t, w.Body.String(), `"duration":45`)
	})

	t.Run("5. Probe Finds Existing Record", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/instances/existing?goal_id=%s&student_id=student-1&date=2024-01-10", goalID)
		w := doJSON(router, token, http.MethodGet, path, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"found":true`)
	})

	t.Run("6. Overview Shows Done Today", func(t *testing.T) {
		w := doJSON(router, token, http.MethodGet,
			"/api/v1/progress/overview?student_id=student-1&at=2024-01-10T15:00:00Z", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"done-today"`)
	})

	t.Run("7. Second Day Completes the Week", func(t *testing.T) {
		payload := fmt.Sprintf(`{
			"goal_id": %q,
			"student_id": "student-1",
			"date": "2024-01-11",
			"duration": 30
		}`, goalID)

		w := doJSON(router, token, http.MethodPost, "/api/v1/instances", payload)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(router, token, http.MethodGet,
			"/api/v1/progress/overview?student_id=student-1&at=2024-01-11T15:00:00Z", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"weekly-complete"`)
	})

	t.Run("8. Validation Error", func(t *testing.T) {
		w := doJSON(router, token, http.MethodPost, "/api/v1/instances",
			`{"student_id": "student-1", "date": "2024-01-10"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("9. Auth Error", func(t *testing.T) {
		w := doJSON(router, "", http.MethodGet, "/api/v1/goals", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
