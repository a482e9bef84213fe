package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/caresupport-backend/internal/types"
)

func TestAppendEventRoundTrip(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	texts := []string{"oi", "bom dia", "preciso de ajuda"}
	for _, txt := range texts {
		if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
			ConversationKey: "5511912345678",
			Sender:          types.SenderPatient,
			PatientText:     strPtr(txt),
		}); err != nil {
			t.Fatalf("AppendEvent(%q): %v", txt, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	history, err := ledger.GetHistory(ctx, "5511912345678")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != len(texts) {
		t.Fatalf("history length = %d, want %d", len(history), len(texts))
	}
	for i, ev := range history {
		if ev.Text() != texts[i] {
			t.Fatalf("history[%d] = %q, want %q", i, ev.Text(), texts[i])
		}
	}
}

func TestAppendEventPayloadSlotInvariant(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		event *types.MessageEvent
	}{
		{
			name: "no_slot",
			event: &types.MessageEvent{
				ConversationKey: "551190000000",
				Sender:          types.SenderPatient,
			},
		},
		{
			name: "two_slots",
			event: &types.MessageEvent{
				ConversationKey: "551190000000",
				Sender:          types.SenderPatient,
				PatientText:     strPtr("a"),
				AssistantText:   strPtr("b"),
			},
		},
		{
			name: "sender_slot_mismatch",
			event: &types.MessageEvent{
				ConversationKey: "551190000000",
				Sender:          types.SenderAgent,
				PatientText:     strPtr("a"),
			},
		},
		{
			name: "missing_key",
			event: &types.MessageEvent{
				Sender:      types.SenderPatient,
				PatientText: strPtr("a"),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.AppendEvent(ctx, tc.event)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("AppendEvent = %v, want ErrValidation", err)
			}
		})
	}

	history, err := ledger.GetHistory(ctx, "551190000000")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("rejected events must not be persisted, found %d", len(history))
	}
}

func TestGetLatestUnseenConversation(t *testing.T) {
	ledger, _ := newTestLedger(t)

	latest, err := ledger.GetLatest(context.Background(), "559999999999")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest != nil {
		t.Fatalf("unseen conversation should yield nil, got %+v", latest)
	}
}

func TestOverrideStateIdempotent(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey: "5511912345678",
		Sender:          types.SenderPatient,
		PatientText:     strPtr("oi"),
	}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	if err := ledger.OverrideState(ctx, "5511912345678", types.StateClosed); err != nil {
		t.Fatalf("first OverrideState: %v", err)
	}
	first, err := ledger.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}

	if err := ledger.OverrideState(ctx, "5511912345678", types.StateClosed); err != nil {
		t.Fatalf("second OverrideState: %v", err)
	}
	second, err := ledger.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one summary, got %d and %d", len(first), len(second))
	}
	if first[0].State != second[0].State || first[0].StateLabel != second[0].StateLabel ||
		first[0].LastMessageText != second[0].LastMessageText || first[0].LastSender != second[0].LastSender {
		t.Fatalf("override is not idempotent: %+v vs %+v", first[0], second[0])
	}
	if second[0].State != types.StateClosed || second[0].StateLabel != "FINALIZADO" {
		t.Fatalf("summary state = %q label %q, want CLOSED/FINALIZADO", second[0].State, second[0].StateLabel)
	}
}

func TestOverrideStateRejectsInvalid(t *testing.T) {
	ledger, _ := newTestLedger(t)

	err := ledger.OverrideState(context.Background(), "5511912345678", "NOT_A_STATE")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("OverrideState = %v, want ErrValidation", err)
	}
}

func TestListConversationsSummaries(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey: "551100000001",
		Sender:          types.SenderPatient,
		PatientText:     strPtr("primeira conversa"),
	}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey: "551100000002",
		Sender:          types.SenderPatient,
		PatientText:     strPtr("oi"),
	}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey: "551100000002",
		Sender:          types.SenderAssistant,
		AssistantText:   strPtr("como posso ajudar?"),
	}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	summaries, err := ledger.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries length = %d, want 2", len(summaries))
	}

	// Most recently active conversation first.
	if summaries[0].ConversationKey != "551100000002" {
		t.Fatalf("first summary = %q, want most recent key", summaries[0].ConversationKey)
	}
	if summaries[0].LastMessageText != "como posso ajudar?" {
		t.Fatalf("last message = %q, want assistant reply", summaries[0].LastMessageText)
	}
	if summaries[0].LastSender != types.SenderAssistant {
		t.Fatalf("last sender = %q, want ASSISTANT", summaries[0].LastSender)
	}
	if summaries[0].State != types.StateBotActive || summaries[0].StateLabel != "ROBÔ" {
		t.Fatalf("state = %q label %q, want BOT_ACTIVE/ROBÔ", summaries[0].State, summaries[0].StateLabel)
	}
	if summaries[1].ConversationKey != "551100000001" {
		t.Fatalf("second summary = %q, want older key", summaries[1].ConversationKey)
	}
}

type recordedNotice struct {
	key   string
	state types.ConversationState
}

type fakeNotifier struct {
	notices []recordedNotice
}

func (fn *fakeNotifier) ConversationUpdated(ctx context.Context, key string, state types.ConversationState) {
	fn.notices = append(fn.notices, recordedNotice{key: key, state: state})
}

func TestNotifierFiresOnAppendAndOverride(t *testing.T) {
	notifier := &fakeNotifier{}
	ledger, _ := newTestLedgerWithNotifier(t, notifier)
	ctx := context.Background()

	if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey: "5511912345678",
		Sender:          types.SenderPatient,
		PatientText:     strPtr("oi"),
	}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("notices after append = %d, want 1", len(notifier.notices))
	}
	if notifier.notices[0].key != "5511912345678" || notifier.notices[0].state != types.StateBotActive {
		t.Fatalf("append notice = %+v, want key 5511912345678 with BOT_ACTIVE", notifier.notices[0])
	}

	if err := ledger.OverrideState(ctx, "5511912345678", types.StateAwaitingHuman); err != nil {
		t.Fatalf("OverrideState: %v", err)
	}
	if len(notifier.notices) != 2 {
		t.Fatalf("notices after override = %d, want 2", len(notifier.notices))
	}
	if notifier.notices[1].key != "5511912345678" || notifier.notices[1].state != types.StateAwaitingHuman {
		t.Fatalf("override notice = %+v, want key 5511912345678 with AWAITING_HUMAN", notifier.notices[1])
	}
}

func TestNotifierSilentOnRejectedEvent(t *testing.T) {
	notifier := &fakeNotifier{}
	ledger, _ := newTestLedgerWithNotifier(t, notifier)

	_, err := ledger.AppendEvent(context.Background(), &types.MessageEvent{
		ConversationKey: "5511912345678",
		Sender:          types.SenderPatient,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("AppendEvent = %v, want ErrValidation", err)
	}
	if len(notifier.notices) != 0 {
		t.Fatalf("rejected event produced %d notices, want none", len(notifier.notices))
	}
}

func TestAppendRecordsChannelInstanceAfterOverrideCreate(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	// Webhook processing commits the patient transition before appending, so
	// the conversation row can exist before its first event.
	if err := ledger.OverrideState(ctx, "5511912345678", types.StateBotActive); err != nil {
		t.Fatalf("OverrideState: %v", err)
	}
	if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey:   "5511912345678",
		ChannelInstanceID: "clinic-sp",
		Sender:            types.SenderPatient,
		PatientText:       strPtr("oi"),
	}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	summaries, err := ledger.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries length = %d, want 1", len(summaries))
	}
	if summaries[0].ChannelInstanceID != "clinic-sp" {
		t.Fatalf("channel instance = %q, want clinic-sp", summaries[0].ChannelInstanceID)
	}
}

func TestUpdateDisplayNameLastWriterWins(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.AppendEvent(ctx, &types.MessageEvent{
		ConversationKey: "5511912345678",
		Sender:          types.SenderPatient,
		PatientText:     strPtr("oi"),
	}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	if err := ledger.UpdateDisplayName(ctx, "5511912345678", "Maria"); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	if err := ledger.UpdateDisplayName(ctx, "5511912345678", "Maria Silva"); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}

	summaries, err := ledger.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(summaries) != 1 || summaries[0].PatientDisplayName != "Maria Silva" {
		t.Fatalf("display name = %q, want last written value", summaries[0].PatientDisplayName)
	}
}
