package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"paperdeck/internal/bootstrap"
	mysqlClient "paperdeck/internal/platform/mysql"
	redisClient "paperdeck/internal/platform/redis"
	"paperdeck/internal/transport/http/handler"
	"paperdeck/internal/transport/http/middleware"
)

// RouterDeps is everything the HTTP surface needs, independent of how it
// was constructed.
type RouterDeps struct {
	Processor   handler.DocumentProcessor
	Summaries   handler.SummaryReader
	Auth        handler.Authenticator
	Health      *handler.HealthHandler
	AuthEnabled bool
	JWTSecret   string
	CORSOrigins []string
	Logger      zerolog.Logger
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)

	checks := map[string]handler.CheckFunc{
		"mysql": func(ctx context.Context) error { return mysqlClient.Ping(ctx, app.MySQL) },
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx, app.Redis) }
	}
	if app.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	return NewEngine(RouterDeps{
		Processor:   app.Process,
		Summaries:   app.Summaries,
		Auth:        app.Auth,
		Health:      handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, checks),
		AuthEnabled: app.Config.Auth.Enabled,
		JWTSecret:   app.Config.Auth.JWTSecret,
		CORSOrigins: app.Config.App.CORSOrigins,
		Logger:      app.Logger,
	})
}

func NewEngine(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(deps.Logger),
		gin.Recovery(),
		middleware.CORS("/api/", deps.CORSOrigins),
	)

	if deps.Health != nil {
		router.GET("/healthz", deps.Health.Check)
	}

	processHandler := handler.NewProcessHandler(deps.Processor, deps.Logger)
	summaryHandler := handler.NewSummaryHandler(deps.Summaries, deps.Logger)
	authHandler := handler.NewAuthHandler(deps.Auth)

	api := router.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.GET("/summary_pages", summaryHandler.List)
	api.GET("/summary_pages/:id/summary", summaryHandler.Summary)

	processGroup := api.Group("/process")
	if deps.AuthEnabled {
		processGroup.Use(middleware.AuthJWT(deps.JWTSecret))
	}
	processGroup.POST("", processHandler.Process)
	processGroup.POST("/async", processHandler.Enqueue)

	return router
}
