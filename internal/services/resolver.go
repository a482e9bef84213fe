package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yungbote/caresupport-backend/internal/types"
)

// DefaultTransferTriggerPhrase is the assistant reply fragment that hands a
// conversation off to the human queue when no phrases are configured.
const DefaultTransferTriggerPhrase = "transferir para um atendente humano"

// NextStateOnPatientMessage computes the conversation state after a patient
// message. An empty or unrecognized current state means the conversation has
// never been seen and starts with the assistant.
//
// A conversation a human currently owns is requeued, never handed back to the
// assistant just because the patient spoke again. A closed conversation
// always reopens with the assistant as first responder.
func NextStateOnPatientMessage(current types.ConversationState) types.ConversationState {
	switch current {
	case types.StateAwaitingHuman:
		return types.StateAwaitingHuman
	case types.StateHumanActive:
		return types.StateAwaitingHuman
	case types.StateBotActive:
		return types.StateBotActive
	case types.StateClosed:
		return types.StateBotActive
	}
	return types.StateBotActive
}

// AssistantReplyAllowed reports whether the assistant may answer in the given
// state. It must be called with the state resulting from the patient-side
// transition of the same webhook delivery, not a stale read.
func AssistantReplyAllowed(state types.ConversationState) bool {
	return state != types.StateAwaitingHuman && state != types.StateClosed
}

// TriggerDetector tests assistant reply text for configured transfer phrases.
// Matching is substring containment on normalized text: lowercased,
// diacritics stripped, terminal punctuation removed.
type TriggerDetector struct {
	phrases []string
}

func NewTriggerDetector(phrases []string) *TriggerDetector {
	var normalized []string
	for _, p := range phrases {
		n := NormalizeTriggerText(p)
		if n == "" {
			continue
		}
		normalized = append(normalized, n)
	}
	if len(normalized) == 0 {
		normalized = []string{NormalizeTriggerText(DefaultTransferTriggerPhrase)}
	}
	return &TriggerDetector{phrases: normalized}
}

func (td *TriggerDetector) Matches(text string) bool {
	n := NormalizeTriggerText(text)
	if n == "" {
		return false
	}
	for _, p := range td.phrases {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}

// ApplyTransferTrigger forces the awaiting-human state when the assistant
// reply contains a transfer phrase; otherwise the state passes through.
func (td *TriggerDetector) ApplyTransferTrigger(state types.ConversationState, assistantText string) types.ConversationState {
	if td.Matches(assistantText) {
		return types.StateAwaitingHuman
	}
	return state
}

func NormalizeTriggerText(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	stripDiacritics := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripDiacritics, lowered)
	if err != nil {
		stripped = lowered
	}
	return strings.TrimRight(stripped, ".!? ")
}

// NormalizeConversationKey canonicalizes a patient contact address by
// stripping everything but digits.
func NormalizeConversationKey(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
