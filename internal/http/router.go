// Package httpapi wires the HTTP transport (Gin) to the relay pipeline and
// the read-only records API. It centralizes cross-cutting concerns: tracing,
// correlation IDs, logging with redaction, panic recovery, metrics, CORS and
// security headers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/manachat72/line-ai-chatbot/docs" // swagger spec registration
	"github.com/manachat72/line-ai-chatbot/internal/config"
	"github.com/manachat72/line-ai-chatbot/internal/http/handlers"
	"github.com/manachat72/line-ai-chatbot/internal/http/middleware"
)

// maxBodyBytes caps every request body, webhook deliveries included.
const maxBodyBytes = 1 << 20

// Deps are the collaborators the routes are bound to.
type Deps struct {
	Relay    handlers.Relay
	Verifier handlers.SignatureVerifier

	// Records backs the records API; it is only mounted when
	// cfg.RecordsAPIEnabled is set.
	Records handlers.RecordReader

	// Ping checks the record store for /ready. Nil when persistence is
	// disabled.
	Ping func(context.Context) error
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: access logs with secrets and LINE IDs scrubbed
//  4. ContextLogger: request-scoped logger for handlers and the pipeline
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Security headers
//
// CORS, gzip and no-store only apply to the records API group.
func RegisterRoutes(r *gin.Engine, cfg config.Config, deps Deps) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.ContextLogger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", handlers.Health)
	r.GET("/ready", handlers.Ready(deps.Ping))

	h := handlers.New(deps.Relay, deps.Verifier, deps.Records, cfg.EventConcurrency)
	r.POST(cfg.WebhookPath, h.Callback)

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.RecordsAPIEnabled && deps.Records != nil {
		log.Warn().Str("path", cfg.APIBasePath+"/records").
			Msg("records API enabled without authentication; it exposes user IDs and message text, keep it off public networks")
		api := groupWithPrefix(r, cfg.APIBasePath)
		api.Use(corsMiddleware(cfg.CORS)...)
		api.Use(gzip.Gzip(gzip.DefaultCompression))
		api.Use(middleware.NoStore())
		{
			api.GET("/records", h.ListRecords)
			api.GET("/records/:id", h.GetRecord)
			// preflight is answered by the cors middleware
			api.OPTIONS("/records", preflight)
			api.OPTIONS("/records/:id", preflight)
		}
	}
}

// corsMiddleware returns the CORS chain for the records API: allow-all when
// no origins are configured, otherwise an allowlist with the matching origin
// echoed back.
func corsMiddleware(cfg config.CORSConfig) []gin.HandlerFunc {
	methods := []string{"GET", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Accept", "Authorization"}
	expose := []string{"X-Request-ID", "Content-Length"}

	if len(cfg.AllowedOrigins) == 0 {
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     headers,
				ExposeHeaders:    expose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     headers,
			ExposeHeaders:    expose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

func preflight(c *gin.Context) { c.Status(http.StatusNoContent) }

// limitBody caps request bodies at maxBytes; reads past the cap fail with
// *http.MaxBytesError.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
