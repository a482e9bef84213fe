package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/yungbote/caresupport-backend/internal/handlers"
)

type RouterConfig struct {
  WebhookHandler       *handlers.WebhookHandler
  ConversationHandler  *handlers.ConversationHandler
  SendHandler          *handlers.SendHandler
  ChannelHandler       *handlers.ChannelHandler
  SSEHandler           *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  // Provider webhook
  router.POST("/webhook", cfg.WebhookHandler.Receive)

  // Dashboard
  api := router.Group("/api")
  {
    api.GET("/conversations", cfg.ConversationHandler.List)
    api.GET("/conversations/:key/messages", cfg.ConversationHandler.GetMessages)
    api.PUT("/conversations/:key/status", cfg.ConversationHandler.UpdateStatus)
    api.PUT("/conversations/:key/name", cfg.ConversationHandler.UpdateName)
    api.POST("/conversations/:key/send", cfg.SendHandler.Send)
    api.GET("/channels", cfg.ChannelHandler.List)
    api.GET("/channels/:id", cfg.ChannelHandler.Get)
    api.POST("/channels", cfg.ChannelHandler.Upsert)
  }

  // SSE
  router.GET("/sse/stream", cfg.SSEHandler.Stream)
  router.POST("/sse/subscribe", cfg.SSEHandler.Subscribe)
  router.POST("/sse/unsubscribe", cfg.SSEHandler.Unsubscribe)

  return router
}
