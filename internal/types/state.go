package types

type ConversationState string

const (
  StateBotActive     ConversationState = "BOT_ACTIVE"
  StateAwaitingHuman ConversationState = "AWAITING_HUMAN"
  StateHumanActive   ConversationState = "HUMAN_ACTIVE"
  StateClosed        ConversationState = "CLOSED"
)

func (s ConversationState) Valid() bool {
  switch s {
  case StateBotActive, StateAwaitingHuman, StateHumanActive, StateClosed:
    return true
  }
  return false
}

// Label returns the dashboard display label for a state.
func (s ConversationState) Label() string {
  switch s {
  case StateBotActive:
    return "ROBÔ"
  case StateAwaitingHuman:
    return "PENDENTE"
  case StateHumanActive:
    return "HUMANO"
  case StateClosed:
    return "FINALIZADO"
  }
  return string(s)
}

type Sender string

const (
  SenderPatient   Sender = "PATIENT"
  SenderAssistant Sender = "ASSISTANT"
  SenderAgent     Sender = "AGENT"
  SenderSystem    Sender = "SYSTEM"
)
