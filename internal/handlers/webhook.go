package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/services"
)

type WebhookHandler struct {
  log             *logger.Logger
  inboundService  services.InboundService
}

func NewWebhookHandler(log *logger.Logger, inboundService services.InboundService) *WebhookHandler {
  return &WebhookHandler{
    log:            log.With("handler", "WebhookHandler"),
    inboundService: inboundService,
  }
}

// Receive ingests one provider webhook delivery. Malformed JSON is rejected
// with a validation failure; a suppressed assistant reply is a 200.
func (wh *WebhookHandler) Receive(c *gin.Context) {
  var msg services.InboundMessage
  if err := c.ShouldBindJSON(&msg); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("invalid payload: %w", err))
    return
  }

  result, err := wh.inboundService.ProcessWebhook(c.Request.Context(), msg)
  if err != nil {
    RespondServiceError(c, err)
    return
  }

  RespondOK(c, result)
}
