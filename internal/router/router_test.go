package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/handler"
	"github.com/coworkdir/admin-api/internal/middleware"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/service"
	"github.com/coworkdir/admin-api/internal/utils"
)

const secret = "router-secret"

// Only middleware runs in these tests, so the embedded nil interfaces are
// never called.
type (
	nopAuth      struct{ handler.AuthService }
	nopSpaces    struct{ handler.SpaceService }
	nopLeads     struct{ handler.LeadService }
	nopLocations struct{ handler.LocationService }
	nopUploads   struct{ handler.UploadService }
	nopDashboard struct{ handler.DashboardService }
)

// recordingLeads answers Create and Get and counts how often each is reached.
type recordingLeads struct {
	handler.LeadService
	creates, gets int
}

func (r *recordingLeads) Create(_ context.Context, in service.LeadInput) (service.LeadDTO, error) {
	r.creates++
	return service.LeadDTO{ID: 1, LeadID: fmt.Sprintf("LD-%d-001", time.Now().Year()), Email: *in.Email, Status: model.LeadStatusNew}, nil
}

func (r *recordingLeads) Get(context.Context, string) (service.LeadDTO, error) {
	r.gets++
	return service.LeadDTO{ID: 1}, nil
}

func newServer(t *testing.T) *echo.Echo {
	return newServerWithLeads(t, nopLeads{})
}

func newServerWithLeads(t *testing.T, leads handler.LeadService) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(zap.NewNop(), true)
	Register(e, Handlers{
		Health:    handler.Health(nil),
		Auth:      handler.NewAuthHandler(nopAuth{}),
		Spaces:    handler.NewSpaceHandler(nopSpaces{}),
		Leads:     handler.NewLeadHandler(leads),
		Locations: handler.NewLocationHandler(nopLocations{}),
		Uploads:   handler.NewUploadHandler(nopUploads{}),
		Dashboard: handler.NewDashboardHandler(nopDashboard{}),
	}, Middleware{Auth: middleware.JWTAuth(middleware.Secret(secret))})
	return e
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, 1, "admin@example.com", role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func call(e *echo.Echo, method, path, auth string) int {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutes(t *testing.T) {
	e := newServer(t)
	admin := bearer(t, model.RoleAdmin)

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, Prefix+"/nothing-here", ""))

	for _, path := range []string{"/spaces", "/leads", "/dashboard/stats", "/auth/me", "/upload/signed-url"} {
		assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, Prefix+path, ""), path)
	}

	assert.Equal(t, http.StatusForbidden, call(e, http.MethodDelete, Prefix+"/spaces/1/permanent", admin))
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodDelete, Prefix+"/locations/1", ""))
}

func TestLeadSubmissionIsPublicButReadsNeedToken(t *testing.T) {
	leads := &recordingLeads{}
	e := newServerWithLeads(t, leads)

	req := httptest.NewRequest(http.MethodPost, Prefix+"/leads",
		strings.NewReader(`{"name":"Asha","email":"asha@example.com","phone":"9876543210","enquiredFor":"Hot Desk","spaceType":"Coworking"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Success bool            `json:"success"`
		Data    service.LeadDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, strings.HasPrefix(body.Data.LeadID, fmt.Sprintf("LD-%d-", time.Now().Year())), body.Data.LeadID)
	assert.Equal(t, 1, leads.creates)

	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, Prefix+"/leads/1", ""))
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, Prefix+"/leads/"+body.Data.LeadID, ""))
	assert.Zero(t, leads.gets)

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, Prefix+"/leads/1", bearer(t, model.RoleAdmin)))
	assert.Equal(t, 1, leads.gets)
}

func TestRegisterRequiresAuth(t *testing.T) {
	assert.Panics(t, func() { Register(echo.New(), Handlers{}, Middleware{}) })
}
