package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/service"
)

func newProtectedRouter(tokens *service.TokenService, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/timetable/teachers/:id", JWT(tokens), RBAC(roles...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	router := newProtectedRouter(service.NewTokenService(service.TokenConfig{Secret: "secret"}), string(models.RoleAdmin))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/teachers/ana", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsForeignSignature(t *testing.T) {
	router := newProtectedRouter(service.NewTokenService(service.TokenConfig{Secret: "secret"}), string(models.RoleAdmin))
	forged, err := service.NewTokenService(service.TokenConfig{Secret: "other"}).Issue("admin-1", models.RoleAdmin, time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/teachers/ana", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACAdminAndSelf(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret", Issuer: "accounts"})
	router := newProtectedRouter(tokens, string(models.RoleAdmin), Self)

	admin, err := tokens.Issue("admin-1", models.RoleAdmin, time.Minute)
	require.NoError(t, err)
	teacher, err := tokens.Issue("ana", models.RoleTeacher, time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		token  string
		target string
		want   int
	}{
		{"admin reads anyone", admin, "budi", http.StatusOK},
		{"teacher reads self", teacher, "ana", http.StatusOK},
		{"teacher reads me", teacher, SelfParam, http.StatusOK},
		{"teacher reads colleague", teacher, "budi", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/timetable/teachers/"+tc.target, nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/timetable/generate", RBAC(string(models.RoleAdmin)), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/generate", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = bearerToken("Basic dXNlcg==")
	assert.False(t, ok)
}

func TestRequireRolesRejectsTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret"})
	router := gin.New()
	router.POST("/timetable/generate", JWT(tokens), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		assert.Equal(t, models.RoleSuperAdmin, claims.Role)
		c.Status(http.StatusOK)
	})

	teacher, err := tokens.Issue("ana", models.RoleTeacher, time.Minute)
	require.NoError(t, err)
	superAdmin, err := tokens.Issue("root", models.RoleSuperAdmin, time.Minute)
	require.NoError(t, err)

	for token, want := range map[string]int{teacher: http.StatusForbidden, superAdmin: http.StatusOK} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/timetable/generate", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
