package types

import (
  "time"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// DefaultChannelInstanceID is used when a webhook payload does not say which
// channel instance received the message.
const DefaultChannelInstanceID = "default"

// ChannelInstance is one configured outbound sender identity: the gateway
// token plus the originating WhatsApp address it sends from.
type ChannelInstance struct {
  gorm.Model
  ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
  InstanceID   string     `gorm:"uniqueIndex;not null;column:instance_id" json:"instance_id"`
  Token        string     `gorm:"not null;column:token" json:"-"`
  FromAddress  string     `gorm:"not null;column:from_address" json:"from_address"`
  CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
  UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (ChannelInstance) TableName() string {
  return "channel_instance"
}

func (ci *ChannelInstance) BeforeCreate(tx *gorm.DB) error {
  if ci.ID == uuid.Nil {
    ci.ID = uuid.New()
  }
  return nil
}
