package server

import (
	"context"
	"net/http"
	"time"

	"github.com/abduss/clinstudy/internal/storage"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type bucketChecker interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if deps.DB != nil {
			if err := deps.DB.Ping(ctx); err != nil {
				degraded(c, "postgres", err)
				return
			}
		}

		// Documents are optional; only a configured store can fail readiness.
		if deps.ObjectStore != nil {
			if err := storage.CheckBucket(ctx, deps.ObjectStore, deps.Config.MinIO.Bucket); err != nil {
				degraded(c, "minio", err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func degraded(c *gin.Context, component string, err error) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":    "degraded",
		"component": component,
		"error":     err.Error(),
	})
}
