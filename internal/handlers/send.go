package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/services"
)

type SendHandler struct {
  log              *logger.Logger
  outboundService  services.OutboundService
}

func NewSendHandler(log *logger.Logger, outboundService services.OutboundService) *SendHandler {
  return &SendHandler{
    log:             log.With("handler", "SendHandler"),
    outboundService: outboundService,
  }
}

type sendRequest struct {
  Text               string `json:"text"`
  ChannelInstanceID  string `json:"channel_instance_id"`
  PatientDisplayName string `json:"patient_display_name"`
}

// Send delivers a human agent reply. State and ledger only move after the
// gateway confirms delivery.
func (sh *SendHandler) Send(c *gin.Context) {
  key := c.Param("key")
  if key == "" {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("conversation key required"))
    return
  }

  var req sendRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("invalid payload: %w", err))
    return
  }

  event, err := sh.outboundService.SendAgentMessage(c.Request.Context(), services.AgentMessage{
    ConversationKey:    key,
    ChannelInstanceID:  req.ChannelInstanceID,
    Text:               req.Text,
    PatientDisplayName: req.PatientDisplayName,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }

  RespondOK(c, gin.H{"message": event})
}
