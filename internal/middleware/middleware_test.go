package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
	"github.com/noah-isme/goalflow-api/pkg/logger"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

type auditStub struct {
	logs []models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, *log)
	return nil
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := newTestRouter(JWT(validatorStub{claims: &models.JWTClaims{UserID: "u1"}}))
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestJWTPropagatesValidationError(t *testing.T) {
	r := newTestRouter(JWT(validatorStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "token expired")}))
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestJWTStoresClaims(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleUser}
	r := newTestRouter(JWT(validatorStub{claims: claims}))
	var seen *models.JWTClaims
	var logged string
	r.GET("/private", func(c *gin.Context) {
		seen, _ = CurrentClaims(c)
		logged = c.GetString(logger.UserIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Same(t, claims, seen)
	assert.Equal(t, "u1", logged)
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		name   string
		claims *models.JWTClaims
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &models.JWTClaims{UserID: "u1", Role: models.RoleUser}, http.StatusForbidden},
		{"admin", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(withClaims(tc.claims), RequireRoles(models.RoleAdmin))
			r.GET("/system", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAuditRecordsSuccessfulRequestsOnly(t *testing.T) {
	audit := &auditStub{}
	r := newTestRouter(withClaims(&models.JWTClaims{UserID: "u1"}))
	r.GET("/backup", Audit(audit, models.AuditActionBackupExport, "backup", nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", Audit(audit, models.AuditActionBackupExport, "backup", nil), func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/backup", nil)
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionBackupExport, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "u1", *audit.logs[0].UserID)
	assert.Equal(t, "test-agent", audit.logs[0].UserAgent)
}

func TestResponseMetaRecordsCacheHitAndTiming(t *testing.T) {
	r := newTestRouter(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/insights", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.Status(http.StatusOK)
		meta = ExtractMeta(c)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/insights", nil))
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	_, timed := meta["processing_time_ms"]
	assert.True(t, timed)
}

func TestMetricsMiddlewareToleratesNilService(t *testing.T) {
	r := newTestRouter(Metrics(nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
