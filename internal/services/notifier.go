package services

import (
	"context"

	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/sse"
	"github.com/yungbote/caresupport-backend/internal/types"
)

// SSEBus fans SSE messages out across backend instances. Nil bus means
// single-instance deployment and messages go straight to the local hub.
type SSEBus interface {
	Publish(ctx context.Context, msg sse.SSEMessage) error
}

type sseNotifier struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus SSEBus
}

func NewSSENotifier(log *logger.Logger, hub *sse.SSEHub, bus SSEBus) ConversationNotifier {
	return &sseNotifier{
		log: log.With("service", "SSENotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *sseNotifier) ConversationUpdated(ctx context.Context, key string, state types.ConversationState) {
	data := map[string]any{
		"conversation_key": key,
		"state":            state,
		"state_label":      state.Label(),
	}

	messages := []sse.SSEMessage{
		{Channel: sse.ChannelConversations, Event: sse.SSEEventConversationUpdated, Data: data},
		{Channel: sse.ConversationChannel(key), Event: sse.SSEEventConversationUpdated, Data: data},
	}

	for _, msg := range messages {
		if n.bus != nil {
			if err := n.bus.Publish(ctx, msg); err != nil {
				n.log.Warn("SSE bus publish failed, broadcasting locally", "channel", msg.Channel, "error", err)
				n.hub.Broadcast(msg)
			}
			continue
		}
		n.hub.Broadcast(msg)
	}
}
