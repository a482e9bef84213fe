package services

import (
	"context"
	"fmt"

	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/types"
)

// OutboundDeliverer pushes a text to a patient through one configured channel
// instance. Implementations return an error for any non-2xx gateway outcome.
type OutboundDeliverer interface {
	SendText(ctx context.Context, instance *types.ChannelInstance, to string, text string) error
}

// AgentMessage is a human agent reply sent from the dashboard.
type AgentMessage struct {
	ConversationKey    string `json:"conversation_key"`
	ChannelInstanceID  string `json:"channel_instance_id"`
	Text               string `json:"text"`
	PatientDisplayName string `json:"patient_display_name"`
}

type OutboundService interface {
	SendAgentMessage(ctx context.Context, msg AgentMessage) (*types.MessageEvent, error)
}

type outboundService struct {
	log         *logger.Logger
	ledger      LedgerService
	credentials CredentialService
	deliverer   OutboundDeliverer
	locks       *KeyLock
}

func NewOutboundService(log *logger.Logger, ledger LedgerService, credentials CredentialService, deliverer OutboundDeliverer, locks *KeyLock) OutboundService {
	serviceLog := log.With("service", "OutboundService")
	return &outboundService{
		log:         serviceLog,
		ledger:      ledger,
		credentials: credentials,
		deliverer:   deliverer,
		locks:       locks,
	}
}

func (ob *outboundService) SendAgentMessage(ctx context.Context, msg AgentMessage) (*types.MessageEvent, error) {
	key := NormalizeConversationKey(msg.ConversationKey)
	if key == "" {
		return nil, fmt.Errorf("%w: conversation key required", ErrValidation)
	}
	if msg.Text == "" {
		return nil, fmt.Errorf("%w: text required", ErrValidation)
	}

	instance, err := ob.credentials.Get(ctx, msg.ChannelInstanceID)
	if err != nil {
		return nil, err
	}

	unlock := ob.locks.Lock(key)
	defer unlock()

	// Ledger and state move only after the gateway confirms delivery, so the
	// dashboard never shows a message that was not actually sent.
	if err := ob.deliverer.SendText(ctx, instance, key, msg.Text); err != nil {
		ob.log.Warn("Outbound delivery failed", "conversation_key", key, "instance_id", instance.InstanceID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	if err := ob.ledger.OverrideState(ctx, key, types.StateHumanActive); err != nil {
		return nil, err
	}
	if msg.PatientDisplayName != "" {
		if err := ob.ledger.UpdateDisplayName(ctx, key, msg.PatientDisplayName); err != nil {
			return nil, err
		}
	}

	agentText := msg.Text
	event, err := ob.ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey:   key,
		ChannelInstanceID: instance.InstanceID,
		Sender:            types.SenderAgent,
		AgentText:         &agentText,
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}
