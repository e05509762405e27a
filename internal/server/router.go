package server

import (
	"github.com/abduss/clinstudy/internal/activity"
	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/comment"
	"github.com/abduss/clinstudy/internal/config"
	"github.com/abduss/clinstudy/internal/feasibility"
	"github.com/abduss/clinstudy/internal/logger"
	"github.com/abduss/clinstudy/internal/metrics"
	"github.com/abduss/clinstudy/internal/patient"
	"github.com/abduss/clinstudy/internal/ratelimit"
	"github.com/abduss/clinstudy/internal/study"
	"github.com/abduss/clinstudy/internal/visit"
	"github.com/gin-gonic/gin"
)

// Dependencies groups the services required by the HTTP router. Nil services
// are left unmounted.
type Dependencies struct {
	Config      config.Config
	DB          pinger
	ObjectStore bucketChecker
	AuthService *auth.Service
	TokenIssuer *auth.TokenIssuer
	Limiter     *ratelimit.Limiter

	StudyService       *study.Service
	PatientService     *patient.Service
	VisitService       *visit.Service
	ActivityService    *activity.Service
	FeasibilityService *feasibility.Service
	CommentService     *comment.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.AuthService == nil || deps.TokenIssuer == nil {
		return router
	}

	api := router.Group("/v1")

	routeCfg := auth.RouteConfig{Cookie: deps.Config.Cookie}
	if deps.Limiter != nil {
		routeCfg.CredentialLimiter = deps.Limiter.Middleware()
	}
	auth.RegisterRoutes(api, deps.AuthService, deps.TokenIssuer, routeCfg)

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(deps.TokenIssuer))

	if deps.StudyService != nil {
		study.RegisterRoutes(protected, deps.StudyService)
	}
	if deps.PatientService != nil {
		patient.RegisterRoutes(protected, deps.PatientService)
	}
	if deps.VisitService != nil {
		visit.RegisterRoutes(protected, deps.VisitService)
	}
	if deps.ActivityService != nil {
		activity.RegisterRoutes(protected, deps.ActivityService)
	}
	if deps.FeasibilityService != nil {
		feasibility.RegisterRoutes(protected, deps.FeasibilityService)
	}
	if deps.CommentService != nil {
		comment.RegisterRoutes(protected, deps.CommentService)
	}

	return router
}
