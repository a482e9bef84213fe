package types

import (
  "time"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// Conversation holds the current ownership state for one patient thread,
// keyed by the normalized contact address. Message history lives in
// MessageEvent; this row is the single source of truth for state.
type Conversation struct {
  gorm.Model
  ID                  uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
  ConversationKey     string            `gorm:"uniqueIndex;not null;column:conversation_key" json:"conversation_key"`
  State               ConversationState `gorm:"not null;column:state" json:"state"`
  PatientDisplayName  string            `gorm:"column:patient_display_name" json:"patient_display_name"`
  ChannelInstanceID   string            `gorm:"column:channel_instance_id" json:"channel_instance_id"`
  CreatedAt           time.Time         `gorm:"not null" json:"created_at"`
  UpdatedAt           time.Time         `gorm:"not null" json:"updated_at"`
}

func (Conversation) TableName() string {
  return "conversation"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
  if c.ID == uuid.Nil {
    c.ID = uuid.New()
  }
  return nil
}
