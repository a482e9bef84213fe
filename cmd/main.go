package main

import (
  "context"
  "fmt"
  "os"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/utils"
  "github.com/yungbote/caresupport-backend/internal/db"
  "github.com/yungbote/caresupport-backend/internal/repos"
  "github.com/yungbote/caresupport-backend/internal/services"
  "github.com/yungbote/caresupport-backend/internal/handlers"
  "github.com/yungbote/caresupport-backend/internal/server"
  "github.com/yungbote/caresupport-backend/internal/sse"
  redisclient "github.com/yungbote/caresupport-backend/internal/clients/redis"
  "github.com/yungbote/caresupport-backend/internal/clients/zapi"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  triggerPhrases := utils.GetEnvAsList("TRANSFER_TRIGGER_PHRASES", services.DefaultTransferTriggerPhrase, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  conversationRepo := repos.NewConversationRepo(thePG, log)
  messageEventRepo := repos.NewMessageEventRepo(thePG, log)
  channelInstanceRepo := repos.NewChannelInstanceRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)

  var sseBus services.SSEBus
  if os.Getenv("REDIS_ADDR") != "" {
    bus, err := redisclient.NewBus(log)
    if err != nil {
      log.Warn("Redis bus init failed, running single-instance", "error", err)
    } else {
      if err := bus.StartForwarder(context.Background(), func(m sse.SSEMessage) {
        sseHub.Broadcast(m)
      }); err != nil {
        log.Warn("Redis forwarder failed to start", "error", err)
      } else {
        sseBus = bus
      }
    }
  }

  // Services
  log.Info("Setting up Services from main...")
  zapiClient, err := zapi.NewFromEnv(log)
  if err != nil {
    log.Error("Could not init ZAPIClient", "error", err)
    os.Exit(1)
  }
  notifier := services.NewSSENotifier(log, sseHub, sseBus)
  keyLock := services.NewKeyLock()
  triggerDetector := services.NewTriggerDetector(triggerPhrases)
  ledgerService := services.NewLedgerService(thePG, log, conversationRepo, messageEventRepo, notifier)
  credentialService := services.NewCredentialService(thePG, log, channelInstanceRepo)
  if err := credentialService.WarmCache(context.Background()); err != nil {
    log.Warn("Credential cache warm failed", "error", err)
  }
  inboundService := services.NewInboundService(log, ledgerService, triggerDetector, keyLock)
  outboundService := services.NewOutboundService(log, ledgerService, credentialService, zapiClient, keyLock)

  // Handlers
  log.Info("Setting up handlers from main...")
  webhookHandler := handlers.NewWebhookHandler(log, inboundService)
  conversationHandler := handlers.NewConversationHandler(log, ledgerService)
  sendHandler := handlers.NewSendHandler(log, outboundService)
  channelHandler := handlers.NewChannelHandler(log, credentialService)
  sseHandler := handlers.NewSSEHandler(log, sseHub)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    WebhookHandler:      webhookHandler,
    ConversationHandler: conversationHandler,
    SendHandler:         sendHandler,
    ChannelHandler:      channelHandler,
    SSEHandler:          sseHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
