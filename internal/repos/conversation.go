package repos

import (
  "context"
  "time"
  "gorm.io/gorm"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/types"
)

type ConversationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error)
  GetByKeys(ctx context.Context, tx *gorm.DB, keys []string) ([]*types.Conversation, error)
  GetAllByRecency(ctx context.Context, tx *gorm.DB) ([]*types.Conversation, error)
  UpdateState(ctx context.Context, tx *gorm.DB, key string, state types.ConversationState) error
  UpdateDisplayName(ctx context.Context, tx *gorm.DB, key string, displayName string) error
  UpdateChannelInstance(ctx context.Context, tx *gorm.DB, key string, instanceID string) error
  Touch(ctx context.Context, tx *gorm.DB, key string) error
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  repoLog := baseLog.With("repo", "ConversationRepo")
  return &conversationRepo{db: db, log: repoLog}
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if len(conversations) == 0 {
    return []*types.Conversation{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&conversations).Error; err != nil {
    return nil, err
  }

  return conversations, nil
}

func (cr *conversationRepo) GetByKeys(ctx context.Context, tx *gorm.DB, keys []string) ([]*types.Conversation, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var results []*types.Conversation

  if len(keys) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("conversation_key IN ?", keys).
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (cr *conversationRepo) GetAllByRecency(ctx context.Context, tx *gorm.DB) ([]*types.Conversation, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var results []*types.Conversation

  if err := transaction.WithContext(ctx).
    Order("updated_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (cr *conversationRepo) UpdateState(ctx context.Context, tx *gorm.DB, key string, state types.ConversationState) error {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("conversation_key = ?", key).
    Updates(map[string]interface{}{
      "state":      state,
      "updated_at": time.Now(),
    }).Error; err != nil {
    return err
  }

  return nil
}

func (cr *conversationRepo) UpdateDisplayName(ctx context.Context, tx *gorm.DB, key string, displayName string) error {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("conversation_key = ?", key).
    Update("patient_display_name", displayName).Error; err != nil {
    return err
  }

  return nil
}

func (cr *conversationRepo) UpdateChannelInstance(ctx context.Context, tx *gorm.DB, key string, instanceID string) error {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("conversation_key = ?", key).
    Update("channel_instance_id", instanceID).Error; err != nil {
    return err
  }

  return nil
}

func (cr *conversationRepo) Touch(ctx context.Context, tx *gorm.DB, key string) error {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("conversation_key = ?", key).
    Update("updated_at", time.Now()).Error; err != nil {
    return err
  }

  return nil
}
