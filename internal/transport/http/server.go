package http

import (
	"github.com/gin-gonic/gin"

	"vetvalidator/internal/bootstrap"
	"vetvalidator/internal/transport/http/handler"
	"vetvalidator/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessionHandler := handler.NewSessionHandler(app.Ingest, app.Reports)
	documentHandler := handler.NewDocumentHandler(app.Ingest)
	indexingHandler := handler.NewIndexingHandler(app.Publisher, app.Config.RabbitMQ.IndexingStatusQueue)
	requirementHandler := handler.NewRequirementHandler(app.Requirements)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	sessions := v1.Group("/validation/sessions")
	sessions.POST("", sessionHandler.CreateSession)
	sessions.GET("", sessionHandler.ListSessions)
	sessions.GET("/:id/report", sessionHandler.GetReport)
	sessions.GET("/:id/history", sessionHandler.GetHistory)
	sessions.POST("/:id/cancel", sessionHandler.CancelSession)
	sessions.POST("/:id/revalidate", sessionHandler.Revalidate)

	sessions.POST("/:id/documents", documentHandler.CreateDocument)
	sessions.POST("/:id/documents/pdf", documentHandler.UploadPDF)
	sessions.GET("/:id/documents", documentHandler.ListDocuments)

	v1.POST("/indexing/notify", indexingHandler.Notify)
	v1.PUT("/units/requirements", requirementHandler.ReplaceUnit)

	return router
}
