package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/services"
  "github.com/yungbote/caresupport-backend/internal/types"
)

type ConversationHandler struct {
  log            *logger.Logger
  ledgerService  services.LedgerService
}

func NewConversationHandler(log *logger.Logger, ledgerService services.LedgerService) *ConversationHandler {
  return &ConversationHandler{
    log:           log.With("handler", "ConversationHandler"),
    ledgerService: ledgerService,
  }
}

func (ch *ConversationHandler) List(c *gin.Context) {
  summaries, err := ch.ledgerService.ListConversations(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"conversations": summaries})
}

func (ch *ConversationHandler) GetMessages(c *gin.Context) {
  key := services.NormalizeConversationKey(c.Param("key"))
  if key == "" {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("conversation key required"))
    return
  }

  history, err := ch.ledgerService.GetHistory(c.Request.Context(), key)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"messages": history})
}

type updateStatusRequest struct {
  State types.ConversationState `json:"state"`
}

// UpdateStatus is the administrative override: close, reopen or requeue a
// conversation from the dashboard.
func (ch *ConversationHandler) UpdateStatus(c *gin.Context) {
  key := services.NormalizeConversationKey(c.Param("key"))
  if key == "" {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("conversation key required"))
    return
  }

  var req updateStatusRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("invalid payload: %w", err))
    return
  }

  if err := ch.ledgerService.OverrideState(c.Request.Context(), key, req.State); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"conversation_key": key, "state": req.State, "state_label": req.State.Label()})
}

type updateNameRequest struct {
  DisplayName string `json:"display_name"`
}

func (ch *ConversationHandler) UpdateName(c *gin.Context) {
  key := services.NormalizeConversationKey(c.Param("key"))
  if key == "" {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("conversation key required"))
    return
  }

  var req updateNameRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("invalid payload: %w", err))
    return
  }

  if err := ch.ledgerService.UpdateDisplayName(c.Request.Context(), key, req.DisplayName); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"conversation_key": key, "display_name": req.DisplayName})
}
