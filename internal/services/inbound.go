package services

import (
	"context"
	"fmt"

	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/types"
)

// InboundMessage is one webhook delivery: a patient message, optionally
// accompanied by the automated assistant's reply to it.
type InboundMessage struct {
	ConversationKey    string `json:"conversation_key"`
	ChannelInstanceID  string `json:"channel_instance_id"`
	PatientMessageText string `json:"patient_message_text"`
	AssistantReplyText string `json:"assistant_reply_text"`
	PatientDisplayName string `json:"patient_display_name"`
}

// InboundResult acknowledges a processed delivery. Suppressed means the
// assistant reply was intentionally discarded because the conversation is
// queued for or owned by a human; it is a success, not an error.
type InboundResult struct {
	ConversationKey   string                  `json:"conversation_key"`
	State             types.ConversationState `json:"state"`
	Suppressed        bool                    `json:"suppressed"`
	TransferTriggered bool                    `json:"transfer_triggered"`
}

type InboundService interface {
	ProcessWebhook(ctx context.Context, msg InboundMessage) (*InboundResult, error)
}

type inboundService struct {
	log     *logger.Logger
	ledger  LedgerService
	trigger *TriggerDetector
	locks   *KeyLock
}

func NewInboundService(log *logger.Logger, ledger LedgerService, trigger *TriggerDetector, locks *KeyLock) InboundService {
	serviceLog := log.With("service", "InboundService")
	return &inboundService{
		log:     serviceLog,
		ledger:  ledger,
		trigger: trigger,
		locks:   locks,
	}
}

func (is *inboundService) ProcessWebhook(ctx context.Context, msg InboundMessage) (*InboundResult, error) {
	key := NormalizeConversationKey(msg.ConversationKey)
	if key == "" {
		return nil, fmt.Errorf("%w: conversation key required", ErrValidation)
	}
	if msg.PatientMessageText == "" {
		return nil, fmt.Errorf("%w: patient message text required", ErrValidation)
	}
	instanceID := msg.ChannelInstanceID
	if instanceID == "" {
		instanceID = types.DefaultChannelInstanceID
	}

	unlock := is.locks.Lock(key)
	defer unlock()

	var prior types.ConversationState
	latest, err := is.ledger.GetLatest(ctx, key)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		prior = latest.State
	}

	// Patient transition commits first; the assistant gate below reads the
	// state it produced, not the one from before this delivery.
	next := NextStateOnPatientMessage(prior)
	if err := is.ledger.OverrideState(ctx, key, next); err != nil {
		return nil, err
	}
	if msg.PatientDisplayName != "" {
		if err := is.ledger.UpdateDisplayName(ctx, key, msg.PatientDisplayName); err != nil {
			return nil, err
		}
	}

	patientText := msg.PatientMessageText
	if _, err := is.ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey:   key,
		ChannelInstanceID: instanceID,
		Sender:            types.SenderPatient,
		PatientText:       &patientText,
	}); err != nil {
		return nil, err
	}

	result := &InboundResult{ConversationKey: key, State: next}

	if msg.AssistantReplyText == "" {
		return result, nil
	}

	if !AssistantReplyAllowed(next) {
		is.log.Info("Assistant reply suppressed", "conversation_key", key, "state", next)
		result.Suppressed = true
		return result, nil
	}

	final := is.trigger.ApplyTransferTrigger(next, msg.AssistantReplyText)
	if final != next {
		is.log.Info("Transfer trigger matched, queuing for human", "conversation_key", key)
		if err := is.ledger.OverrideState(ctx, key, final); err != nil {
			return nil, err
		}
		result.TransferTriggered = true
	}

	assistantText := msg.AssistantReplyText
	if _, err := is.ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey:   key,
		ChannelInstanceID: instanceID,
		Sender:            types.SenderAssistant,
		AssistantText:     &assistantText,
	}); err != nil {
		return nil, err
	}

	result.State = final
	return result, nil
}
