package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/types"
)

type MessageEventRepo interface {
  Create(ctx context.Context, tx *gorm.DB, events []*types.MessageEvent) ([]*types.MessageEvent, error)
  GetLatestByKey(ctx context.Context, tx *gorm.DB, key string) (*types.MessageEvent, error)
  GetHistoryByKey(ctx context.Context, tx *gorm.DB, key string) ([]*types.MessageEvent, error)
  GetLatestByKeys(ctx context.Context, tx *gorm.DB, keys []string) (map[string]*types.MessageEvent, error)
}

type messageEventRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageEventRepo(db *gorm.DB, baseLog *logger.Logger) MessageEventRepo {
  repoLog := baseLog.With("repo", "MessageEventRepo")
  return &messageEventRepo{db: db, log: repoLog}
}

func (mr *messageEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.MessageEvent) ([]*types.MessageEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  if len(events) == 0 {
    return []*types.MessageEvent{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
    return nil, err
  }

  return events, nil
}

func (mr *messageEventRepo) GetLatestByKey(ctx context.Context, tx *gorm.DB, key string) (*types.MessageEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var results []*types.MessageEvent

  if err := transaction.WithContext(ctx).
    Where("conversation_key = ?", key).
    Order("created_at DESC, id DESC").
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }

  return results[0], nil
}

func (mr *messageEventRepo) GetHistoryByKey(ctx context.Context, tx *gorm.DB, key string) ([]*types.MessageEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var results []*types.MessageEvent

  if err := transaction.WithContext(ctx).
    Where("conversation_key = ?", key).
    Order("created_at ASC, id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (mr *messageEventRepo) GetLatestByKeys(ctx context.Context, tx *gorm.DB, keys []string) (map[string]*types.MessageEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  latest := make(map[string]*types.MessageEvent)

  if len(keys) == 0 {
    return latest, nil
  }

  var results []*types.MessageEvent

  if err := transaction.WithContext(ctx).
    Where("conversation_key IN ?", keys).
    Order("created_at DESC, id DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }

  for _, ev := range results {
    if _, seen := latest[ev.ConversationKey]; !seen {
      latest[ev.ConversationKey] = ev
    }
  }

  return latest, nil
}
