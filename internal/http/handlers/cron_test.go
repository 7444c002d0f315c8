package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/http/middleware"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/models"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/service"
)

type stubAssignStore struct{}

func (stubAssignStore) ListEnabledAutoAssignConfigs(context.Context) ([]models.AutoAssignConfig, error) {
	return nil, nil
}
func (stubAssignStore) ListExecutives(context.Context) ([]models.Executive, error) { return nil, nil }
func (stubAssignStore) ListActivelyAssignedLeadIDs(context.Context) ([]string, error) {
	return nil, nil
}
func (stubAssignStore) ListPendingLeads(context.Context, []string, int) ([]models.Lead, error) {
	return nil, nil
}
func (stubAssignStore) InsertAssignment(context.Context, models.LeadAssignment) (string, error) {
	return "", nil
}
func (stubAssignStore) DeleteAssignment(context.Context, string) error     { return nil }
func (stubAssignStore) MarkLeadAssigned(context.Context, string, string) error { return nil }

func cronRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Assign: &service.AssignmentService{Store: stubAssignStore{}, Logger: zerolog.Nop()},
		Logger: zerolog.Nop(),
	}
	r := gin.New()
	r.POST("/api/cron/auto-assign", middleware.Bearer(secret), h.CronAutoAssign)
	return r
}

func TestCronAutoAssign_RejectsMissingBearer(t *testing.T) {
	r := cronRouter("cron-secret")

	req, _ := http.NewRequest(http.MethodPost, "/api/cron/auto-assign", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCronAutoAssign_RejectsWrongBearer(t *testing.T) {
	r := cronRouter("cron-secret")

	req, _ := http.NewRequest(http.MethodPost, "/api/cron/auto-assign", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCronAutoAssign_RunsWithValidBearer(t *testing.T) {
	r := cronRouter("cron-secret")

	req, _ := http.NewRequest(http.MethodPost, "/api/cron/auto-assign", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success          bool `json:"success"`
		TotalAssignments int  `json:"totalAssignments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.TotalAssignments != 0 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}
