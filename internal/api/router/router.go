package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/handler"
)

// HealthCheck probes one backing service
type HealthCheck func(ctx context.Context) error

// Options configures the HTTP surface around the handlers
type Options struct {
	ServiceName      string
	AllowedOrigins   []string
	MetricsEnabled   bool
	MetricsPath      string
	LoginRateLimiter *IPRateLimiter // nil disables login rate limiting
	HealthChecks     map[string]HealthCheck
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	if opts.MetricsEnabled {
		r.Use(MetricsMiddleware())
	}
	r.Use(CORSMiddleware(opts.AllowedOrigins))

	// Health check endpoint
	r.GET("/health", healthHandler(opts))

	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	jobHandler := handler.NewJobHandler(deps)
	authHandler := handler.NewAuthHandler(deps)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			if opts.LoginRateLimiter != nil {
				authGroup.POST("/login", RateLimitByIP(opts.LoginRateLimiter), authHandler.Login)
			} else {
				authGroup.POST("/login", authHandler.Login)
			}
			authGroup.POST("/logout", authHandler.Logout)
		}

		jobs := api.Group("/jobs")
		jobs.Use(RequireSession(deps.Auth, deps.Logger))
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("/calendar", jobHandler.Calendar)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.PUT("/:job_id", jobHandler.UpdateJob)
			jobs.PATCH("/:job_id", jobHandler.UpdateJob)
			jobs.DELETE("/:job_id", jobHandler.DeleteJob)

			if deps.History != nil {
				jobs.GET("/:job_id/history", jobHandler.GetJobHistory)
			}
		}
	}

	return r
}

func healthHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(opts.HealthChecks))
		for name, check := range opts.HealthChecks {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		body := gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		}
		if status != http.StatusOK {
			body["status"] = "unhealthy"
		}
		if len(checks) > 0 {
			body["checks"] = checks
		}

		c.JSON(status, body)
	}
}
