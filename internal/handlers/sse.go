package handlers

import (
  "fmt"
  "net/http"
  "sync"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/sse"
)

type SSEHandler struct {
  log  *logger.Logger
  hub  *sse.SSEHub

  mu      sync.RWMutex
  clients map[uuid.UUID]*sse.SSEClient
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
  return &SSEHandler{
    log:     log.With("handler", "SSEHandler"),
    hub:     hub,
    clients: make(map[uuid.UUID]*sse.SSEClient),
  }
}

type sseChannelRequest struct {
  ClientID string `json:"client_id"`
  Channel  string `json:"channel"`
}

// Stream opens the event stream. Channels come from repeated "channel" query
// params; with none given the client gets the conversations list channel. The
// first event on the stream carries the client id, which Subscribe and
// Unsubscribe use to adjust channels while the stream stays open.
func (sh *SSEHandler) Stream(c *gin.Context) {
  client := sh.hub.NewSSEClient()

  sh.mu.Lock()
  sh.clients[client.ID] = client
  sh.mu.Unlock()

  channels := c.QueryArray("channel")
  if len(channels) == 0 {
    channels = []string{sse.ChannelConversations}
  }
  for _, ch := range channels {
    sh.hub.AddChannel(client, ch)
  }

  client.Outbound <- sse.SSEMessage{
    Channel: sse.ChannelSystem,
    Event:   sse.SSEEventStreamConnected,
    Data:    map[string]any{"client_id": client.ID},
  }

  sh.hub.ServeHTTP(c.Writer, c.Request, client)

  sh.mu.Lock()
  delete(sh.clients, client.ID)
  sh.mu.Unlock()
  sh.hub.CloseClient(client)
}

func (sh *SSEHandler) Subscribe(c *gin.Context) {
  client, channel, ok := sh.bindChannelRequest(c)
  if !ok {
    return
  }
  sh.hub.AddChannel(client, channel)
  RespondOK(c, gin.H{"message": "subscribed", "channel": channel})
}

func (sh *SSEHandler) Unsubscribe(c *gin.Context) {
  client, channel, ok := sh.bindChannelRequest(c)
  if !ok {
    return
  }
  sh.hub.RemoveChannel(client, channel)
  RespondOK(c, gin.H{"message": "unsubscribed", "channel": channel})
}

func (sh *SSEHandler) bindChannelRequest(c *gin.Context) (*sse.SSEClient, string, bool) {
  var req sseChannelRequest
  if err := c.ShouldBindJSON(&req); err != nil || req.Channel == "" || req.ClientID == "" {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("client_id and channel required"))
    return nil, "", false
  }

  clientID, err := uuid.Parse(req.ClientID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("invalid client_id"))
    return nil, "", false
  }

  sh.mu.RLock()
  client, exists := sh.clients[clientID]
  sh.mu.RUnlock()
  if !exists {
    RespondError(c, http.StatusConflict, "no_active_stream", fmt.Errorf("no active event stream for this client"))
    return nil, "", false
  }

  return client, req.Channel, true
}
