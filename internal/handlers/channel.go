package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/services"
)

type ChannelHandler struct {
  log                *logger.Logger
  credentialService  services.CredentialService
}

func NewChannelHandler(log *logger.Logger, credentialService services.CredentialService) *ChannelHandler {
  return &ChannelHandler{
    log:               log.With("handler", "ChannelHandler"),
    credentialService: credentialService,
  }
}

func (ch *ChannelHandler) List(c *gin.Context) {
  instances, err := ch.credentialService.List(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"channels": instances})
}

type upsertChannelRequest struct {
  InstanceID   string `json:"instance_id"`
  Token        string `json:"token"`
  FromAddress  string `json:"from_address"`
}

func (ch *ChannelHandler) Upsert(c *gin.Context) {
  var req upsertChannelRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("invalid payload: %w", err))
    return
  }

  instance, err := ch.credentialService.Upsert(c.Request.Context(), req.InstanceID, req.Token, req.FromAddress)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"channel": instance})
}

func (ch *ChannelHandler) Get(c *gin.Context) {
  instanceID := c.Param("id")
  instance, err := ch.credentialService.Get(c.Request.Context(), instanceID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"channel": instance})
}
