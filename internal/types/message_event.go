package types

import (
  "time"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// MessageEvent is one immutable transcript row. Exactly one of PatientText,
// AssistantText or AgentText is set per row; which one matches Sender.
type MessageEvent struct {
  gorm.Model
  ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
  ConversationKey    string     `gorm:"index;not null;column:conversation_key" json:"conversation_key"`
  ChannelInstanceID  string     `gorm:"column:channel_instance_id" json:"channel_instance_id"`
  Sender             Sender     `gorm:"not null;column:sender" json:"sender"`
  PatientText        *string    `gorm:"column:patient_text" json:"patient_text,omitempty"`
  AssistantText      *string    `gorm:"column:assistant_text" json:"assistant_text,omitempty"`
  AgentText          *string    `gorm:"column:agent_text" json:"agent_text,omitempty"`
  CreatedAt          time.Time  `gorm:"not null;index" json:"created_at"`
  UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`
}

func (MessageEvent) TableName() string {
  return "message_event"
}

func (m *MessageEvent) BeforeCreate(tx *gorm.DB) error {
  if m.ID == uuid.Nil {
    m.ID = uuid.New()
  }
  return nil
}

// Text returns whichever payload slot is populated.
func (m *MessageEvent) Text() string {
  switch {
  case m.PatientText != nil:
    return *m.PatientText
  case m.AssistantText != nil:
    return *m.AssistantText
  case m.AgentText != nil:
    return *m.AgentText
  }
  return ""
}
