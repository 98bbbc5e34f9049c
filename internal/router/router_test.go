package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relief_backend/internal/allocation"
	"relief_backend/internal/cache"
	"relief_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("router-test-secret-0123456789abcdef", time.Hour)

	engine := gin.New()
	// No query reaches the database in these tests.
	err := Setup(engine, nil, Options{
		LoginRateLimit: "5-M",
		Thresholds:     cache.NewThresholdCache(allocation.DefaultThresholds(), nil, time.Minute),
	})
	require.NoError(t, err)
	return engine
}

func TestSetup_RegistersRoutes(t *testing.T) {
	engine := newTestEngine(t)

	registered := map[string]bool{}
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/auth/me",
		"GET /api/beneficiaries",
		"POST /api/beneficiaries",
		"GET /api/beneficiaries/:id",
		"PUT /api/beneficiaries/:id",
		"DELETE /api/beneficiaries/:id",
		"GET /api/beneficiaries/:id/requests",
		"POST /api/beneficiaries/requests",
		"GET /api/beneficiaries/requests/all",
		"GET /api/beneficiaries/requests/:id",
		"PATCH /api/beneficiaries/requests/:id/status",
		"DELETE /api/beneficiaries/requests/:id",
		"GET /api/inventory",
		"POST /api/inventory",
		"GET /api/inventory/:id",
		"PUT /api/inventory/:id",
		"DELETE /api/inventory/:id",
		"GET /api/inventory/categories",
		"GET /api/inventory/item-types",
		"GET /api/inventory/stats",
		"GET /api/inventory/thresholds",
		"PUT /api/inventory/thresholds/:name",
		"DELETE /api/inventory/thresholds/:name",
		"GET /api/inventory/movements",
		"POST /api/distribution/recommendations",
		"POST /api/distribution/plans",
		"GET /api/distribution/plans",
		"GET /api/distribution/plans/:id",
		"PATCH /api/distribution/plans/:id/status",
		"POST /api/distribution/plans/:id/execute",
		"DELETE /api/distribution/plans/:id",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestSetup_RejectsBadRateLimit(t *testing.T) {
	err := Setup(gin.New(), nil, Options{LoginRateLimit: "lots"})
	assert.Error(t, err)
}

func TestSetup_AccessControl(t *testing.T) {
	engine := newTestEngine(t)
	staffToken, _, err := utils.GenerateAccessToken(2, "staffer", "Staff")
	require.NoError(t, err)
	viewerToken, _, err := utils.GenerateAccessToken(3, "viewer", "Viewer")
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/inventory/stats", "", http.StatusUnauthorized},
		{"unknown role", http.MethodGet, "/api/inventory/stats", viewerToken, http.StatusForbidden},
		{"staff cannot execute", http.MethodPost, "/api/distribution/plans/1/execute", staffToken, http.StatusForbidden},
		{"staff cannot delete beneficiary", http.MethodDelete, "/api/beneficiaries/1", staffToken, http.StatusForbidden},
		{"staff cannot edit thresholds", http.MethodPut, "/api/inventory/thresholds/Rice", staffToken, http.StatusForbidden},
		{"me needs a token", http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
