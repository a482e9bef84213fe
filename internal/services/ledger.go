package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/repos"
	"github.com/yungbote/caresupport-backend/internal/types"
)

// LatestState is what the resolver needs to seed a transition: the current
// state of the conversation and who spoke last.
type LatestState struct {
	State      types.ConversationState `json:"state"`
	LastSender types.Sender            `json:"last_sender"`
}

// ConversationSummary is one dashboard list entry.
type ConversationSummary struct {
	ConversationKey    string                  `json:"conversation_key"`
	PatientDisplayName string                  `json:"patient_display_name"`
	ChannelInstanceID  string                  `json:"channel_instance_id"`
	State              types.ConversationState `json:"state"`
	StateLabel         string                  `json:"state_label"`
	LastMessageText    string                  `json:"last_message_text"`
	LastSender         types.Sender            `json:"last_sender"`
	LastActivityAt     time.Time               `json:"last_activity_at"`
}

// ConversationNotifier is told whenever a conversation's state or transcript
// changes, so the dashboard can refresh live.
type ConversationNotifier interface {
	ConversationUpdated(ctx context.Context, key string, state types.ConversationState)
}

type LedgerService interface {
	AppendEvent(ctx context.Context, event *types.MessageEvent) (*types.MessageEvent, error)
	GetLatest(ctx context.Context, key string) (*LatestState, error)
	GetHistory(ctx context.Context, key string) ([]*types.MessageEvent, error)
	OverrideState(ctx context.Context, key string, state types.ConversationState) error
	UpdateDisplayName(ctx context.Context, key string, displayName string) error
	ListConversations(ctx context.Context) ([]*ConversationSummary, error)
}

type ledgerService struct {
	db        *gorm.DB
	log       *logger.Logger
	convRepo  repos.ConversationRepo
	eventRepo repos.MessageEventRepo
	notifier  ConversationNotifier
}

func NewLedgerService(db *gorm.DB, log *logger.Logger, convRepo repos.ConversationRepo, eventRepo repos.MessageEventRepo, notifier ConversationNotifier) LedgerService {
	serviceLog := log.With("service", "LedgerService")
	return &ledgerService{
		db:        db,
		log:       serviceLog,
		convRepo:  convRepo,
		eventRepo: eventRepo,
		notifier:  notifier,
	}
}

func validatePayloadSlots(event *types.MessageEvent) error {
	populated := 0
	if event.PatientText != nil {
		populated++
	}
	if event.AssistantText != nil {
		populated++
	}
	if event.AgentText != nil {
		populated++
	}
	if populated != 1 {
		return fmt.Errorf("%w: exactly one payload slot must be set, got %d", ErrValidation, populated)
	}

	switch event.Sender {
	case types.SenderPatient:
		if event.PatientText == nil {
			return fmt.Errorf("%w: sender PATIENT requires patient_text", ErrValidation)
		}
	case types.SenderAssistant:
		if event.AssistantText == nil {
			return fmt.Errorf("%w: sender ASSISTANT requires assistant_text", ErrValidation)
		}
	case types.SenderAgent:
		if event.AgentText == nil {
			return fmt.Errorf("%w: sender AGENT requires agent_text", ErrValidation)
		}
	case types.SenderSystem:
	default:
		return fmt.Errorf("%w: unknown sender %q", ErrValidation, event.Sender)
	}

	return nil
}

func (ls *ledgerService) AppendEvent(ctx context.Context, event *types.MessageEvent) (*types.MessageEvent, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: event required", ErrValidation)
	}
	if event.ConversationKey == "" {
		return nil, fmt.Errorf("%w: conversation key required", ErrValidation)
	}
	if err := validatePayloadSlots(event); err != nil {
		return nil, err
	}
	if event.ChannelInstanceID == "" {
		event.ChannelInstanceID = types.DefaultChannelInstanceID
	}

	var appended *types.MessageEvent
	if err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := ls.convRepo.GetByKeys(ctx, tx, []string{event.ConversationKey})
		if err != nil {
			return fmt.Errorf("error fetching conversation: %w", err)
		}
		if len(existing) == 0 {
			if _, err := ls.convRepo.Create(ctx, tx, []*types.Conversation{{
				ConversationKey:   event.ConversationKey,
				State:             types.StateBotActive,
				ChannelInstanceID: event.ChannelInstanceID,
			}}); err != nil {
				return fmt.Errorf("error creating conversation: %w", err)
			}
		} else {
			// Rows first created through a state override carry no channel
			// instance yet; the first event fills it in.
			if existing[0].ChannelInstanceID == "" {
				if err := ls.convRepo.UpdateChannelInstance(ctx, tx, event.ConversationKey, event.ChannelInstanceID); err != nil {
					return fmt.Errorf("error recording channel instance: %w", err)
				}
			}
			if err := ls.convRepo.Touch(ctx, tx, event.ConversationKey); err != nil {
				return fmt.Errorf("error touching conversation: %w", err)
			}
		}

		created, err := ls.eventRepo.Create(ctx, tx, []*types.MessageEvent{event})
		if err != nil {
			return fmt.Errorf("error appending event: %w", err)
		}
		appended = created[0]
		return nil
	}); err != nil {
		ls.log.Warn("AppendEvent transaction error", "conversation_key", event.ConversationKey, "error", err)
		return nil, err
	}

	ls.notifyUpdated(ctx, event.ConversationKey)
	return appended, nil
}

func (ls *ledgerService) GetLatest(ctx context.Context, key string) (*LatestState, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: conversation key required", ErrValidation)
	}

	found, err := ls.convRepo.GetByKeys(ctx, nil, []string{key})
	if err != nil {
		return nil, fmt.Errorf("error fetching conversation: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}

	latest := &LatestState{State: found[0].State}
	lastEvent, err := ls.eventRepo.GetLatestByKey(ctx, nil, key)
	if err != nil {
		return nil, fmt.Errorf("error fetching latest event: %w", err)
	}
	if lastEvent != nil {
		latest.LastSender = lastEvent.Sender
	}

	return latest, nil
}

func (ls *ledgerService) GetHistory(ctx context.Context, key string) ([]*types.MessageEvent, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: conversation key required", ErrValidation)
	}
	history, err := ls.eventRepo.GetHistoryByKey(ctx, nil, key)
	if err != nil {
		return nil, fmt.Errorf("error fetching history: %w", err)
	}
	return history, nil
}

func (ls *ledgerService) OverrideState(ctx context.Context, key string, state types.ConversationState) error {
	if key == "" {
		return fmt.Errorf("%w: conversation key required", ErrValidation)
	}
	if !state.Valid() {
		return fmt.Errorf("%w: invalid state %q", ErrValidation, state)
	}

	if err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := ls.convRepo.GetByKeys(ctx, tx, []string{key})
		if err != nil {
			return fmt.Errorf("error fetching conversation: %w", err)
		}
		if len(existing) == 0 {
			if _, err := ls.convRepo.Create(ctx, tx, []*types.Conversation{{
				ConversationKey: key,
				State:           state,
			}}); err != nil {
				return fmt.Errorf("error creating conversation: %w", err)
			}
			return nil
		}
		return ls.convRepo.UpdateState(ctx, tx, key, state)
	}); err != nil {
		ls.log.Warn("OverrideState transaction error", "conversation_key", key, "state", state, "error", err)
		return err
	}

	ls.notifyUpdated(ctx, key)
	return nil
}

func (ls *ledgerService) UpdateDisplayName(ctx context.Context, key string, displayName string) error {
	if key == "" {
		return fmt.Errorf("%w: conversation key required", ErrValidation)
	}
	if err := ls.convRepo.UpdateDisplayName(ctx, nil, key, displayName); err != nil {
		return fmt.Errorf("error updating display name: %w", err)
	}
	return nil
}

func (ls *ledgerService) ListConversations(ctx context.Context) ([]*ConversationSummary, error) {
	conversations, err := ls.convRepo.GetAllByRecency(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}

	var keys []string
	for _, c := range conversations {
		keys = append(keys, c.ConversationKey)
	}
	latest, err := ls.eventRepo.GetLatestByKeys(ctx, nil, keys)
	if err != nil {
		return nil, fmt.Errorf("error fetching latest events: %w", err)
	}

	summaries := make([]*ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summary := &ConversationSummary{
			ConversationKey:    c.ConversationKey,
			PatientDisplayName: c.PatientDisplayName,
			ChannelInstanceID:  c.ChannelInstanceID,
			State:              c.State,
			StateLabel:         c.State.Label(),
			LastActivityAt:     c.UpdatedAt,
		}
		if ev, ok := latest[c.ConversationKey]; ok {
			summary.LastMessageText = ev.Text()
			summary.LastSender = ev.Sender
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (ls *ledgerService) notifyUpdated(ctx context.Context, key string) {
	if ls.notifier == nil {
		return
	}
	found, err := ls.convRepo.GetByKeys(ctx, nil, []string{key})
	if err != nil || len(found) == 0 {
		return
	}
	ls.notifier.ConversationUpdated(ctx, key, found[0].State)
}
