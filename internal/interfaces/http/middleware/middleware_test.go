package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/permission"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/auth"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/constants"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeEnforcer allows exactly the (subject, resource, action) triples it holds.
type fakeEnforcer struct {
	allowed map[[3]string]bool
	calls   [][3]string
}

func (f *fakeEnforcer) Enforce(subject, resource, action string) (bool, error) {
	key := [3]string{subject, resource, action}
	f.calls = append(f.calls, key)
	return f.allowed[key], nil
}

func (f *fakeEnforcer) AddPolicy(role, resource, action string) error    { return nil }
func (f *fakeEnforcer) RemovePolicy(role, resource, action string) error { return nil }
func (f *fakeEnforcer) LoadPolicy() error                                { return nil }

func newTestEngine(jwtSvc *auth.JWTService, enforcer permission.PermissionEnforcer) *gin.Engine {
	log := logger.NewNopLogger()
	authMW := NewAuthMiddleware(jwtSvc, log)
	permMW := NewPermissionMiddleware(enforcer, log)

	engine := gin.New()
	engine.Use(Recovery(log), CustomLogger(log))
	admin := engine.Group("/admin")
	admin.Use(authMW.RequireAuth(), authMW.RequireAdmin(), permMW.RequirePermission())
	admin.GET("/plans", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(constants.ContextKeyUserID))
	})
	admin.POST("/plans", func(c *gin.Context) {
		c.String(http.StatusCreated, "created")
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func doRequest(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAdminChain(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", "llmapp", time.Hour)
	enforcer := &fakeEnforcer{allowed: map[[3]string]bool{
		{auth.RoleAdmin, "/admin/plans", permission.ActionRead}: true,
	}}
	engine := newTestEngine(jwtSvc, enforcer)

	adminToken, err := jwtSvc.Generate("admin-1", auth.RoleAdmin, 0)
	require.NoError(t, err)
	userToken, err := jwtSvc.Generate("user-1", auth.RoleUser, 0)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/admin/plans", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/admin/plans", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-admin role", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/admin/plans", userToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin with read permission", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/admin/plans", adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin-1", w.Body.String())
	})

	t.Run("admin without write permission", func(t *testing.T) {
		w := doRequest(engine, http.MethodPost, "/admin/plans", adminToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
		last := enforcer.calls[len(enforcer.calls)-1]
		assert.Equal(t, [3]string{auth.RoleAdmin, "/admin/plans", permission.ActionWrite}, last)
	})
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", "", time.Hour)
	engine := newTestEngine(jwtSvc, &fakeEnforcer{})

	req := httptest.NewRequest(http.MethodGet, "/admin/plans", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecovery(t *testing.T) {
	engine := newTestEngine(auth.NewJWTService("secret", "", time.Hour), &fakeEnforcer{})

	w := doRequest(engine, http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error occurred")
}
