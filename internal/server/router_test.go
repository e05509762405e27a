package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/config"
	"github.com/abduss/clinstudy/internal/logger"
	"github.com/abduss/clinstudy/internal/ratelimit"
	"github.com/abduss/clinstudy/internal/study"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubBuckets struct {
	exists bool
	err    error
}

func (s stubBuckets) BucketExists(context.Context, string) (bool, error) { return s.exists, s.err }

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			AccessTokenSecret:  "access",
			RefreshTokenSecret: "refresh",
			AccessTokenTTL:     time.Minute,
			RefreshTokenTTL:    time.Hour,
			Issuer:             "clinstudy",
			Audience:           "clinstudy-api",
			BcryptCost:         4,
		},
		Cookie:    config.CookieConfig{Name: "refreshToken", Path: "/"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, VisitorTTL: time.Minute},
		Metrics:   config.MetricsConfig{PrometheusPath: "/metrics"},
		MinIO:     config.MinIOConfig{Bucket: "clinstudy-documents"},
	}
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader("{}")))
	return rec
}

func TestReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := map[string]struct {
		deps      Dependencies
		status    int
		component string
	}{
		"healthy": {
			deps:   Dependencies{DB: stubPinger{}, ObjectStore: stubBuckets{exists: true}},
			status: http.StatusOK,
		},
		"postgres down": {
			deps:      Dependencies{DB: stubPinger{err: errors.New("refused")}, ObjectStore: stubBuckets{exists: true}},
			status:    http.StatusServiceUnavailable,
			component: "postgres",
		},
		"bucket missing": {
			deps:      Dependencies{DB: stubPinger{}, ObjectStore: stubBuckets{}},
			status:    http.StatusServiceUnavailable,
			component: "minio",
		},
		"no object store": {
			deps:   Dependencies{DB: stubPinger{}},
			status: http.StatusOK,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tc.deps.Config = testConfig()
			rec := serve(NewRouter(tc.deps), http.MethodGet, "/health/ready")

			assert.Equal(t, tc.status, rec.Code)
			if tc.component != "" {
				assert.Contains(t, rec.Body.String(), tc.component)
			}
		})
	}
}

func TestRouterMountsProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	issuer := auth.NewTokenIssuer(cfg.Auth)

	router := NewRouter(Dependencies{
		Config:       cfg,
		DB:           stubPinger{},
		AuthService:  auth.NewService(nil, auth.NewBcryptHasher(4), issuer, nil),
		TokenIssuer:  issuer,
		StudyService: study.NewService(nil),
	})

	rec := serve(router, http.MethodGet, "/v1/studies")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/v1/patients")
	assert.Equal(t, http.StatusNotFound, rec.Code, "unset services are not mounted")

	rec = serve(router, http.MethodGet, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(logger.CorrelationIDHeader))
}

func TestRouterRateLimitsLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	issuer := auth.NewTokenIssuer(cfg.Auth)

	router := NewRouter(Dependencies{
		Config:      cfg,
		AuthService: auth.NewService(nil, auth.NewBcryptHasher(4), issuer, nil),
		TokenIssuer: issuer,
		Limiter:     ratelimit.New(cfg.RateLimit),
	})

	// The first request spends the single token; its body fails validation.
	first := serve(router, http.MethodPost, "/v1/auth/login")
	require.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := serve(router, http.MethodPost, "/v1/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
