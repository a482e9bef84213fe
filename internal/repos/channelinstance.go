package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/yungbote/caresupport-backend/internal/logger"
  "github.com/yungbote/caresupport-backend/internal/types"
)

type ChannelInstanceRepo interface {
  Create(ctx context.Context, tx *gorm.DB, instances []*types.ChannelInstance) ([]*types.ChannelInstance, error)
  GetByInstanceIDs(ctx context.Context, tx *gorm.DB, instanceIDs []string) ([]*types.ChannelInstance, error)
  GetAll(ctx context.Context, tx *gorm.DB) ([]*types.ChannelInstance, error)
  UpdateByInstanceID(ctx context.Context, tx *gorm.DB, instanceID string, token string, fromAddress string) error
}

type channelInstanceRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChannelInstanceRepo(db *gorm.DB, baseLog *logger.Logger) ChannelInstanceRepo {
  repoLog := baseLog.With("repo", "ChannelInstanceRepo")
  return &channelInstanceRepo{db: db, log: repoLog}
}

func (cir *channelInstanceRepo) Create(ctx context.Context, tx *gorm.DB, instances []*types.ChannelInstance) ([]*types.ChannelInstance, error) {
  transaction := tx
  if transaction == nil {
    transaction = cir.db
  }

  if len(instances) == 0 {
    return []*types.ChannelInstance{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&instances).Error; err != nil {
    return nil, err
  }

  return instances, nil
}

func (cir *channelInstanceRepo) GetByInstanceIDs(ctx context.Context, tx *gorm.DB, instanceIDs []string) ([]*types.ChannelInstance, error) {
  transaction := tx
  if transaction == nil {
    transaction = cir.db
  }

  var results []*types.ChannelInstance

  if len(instanceIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("instance_id IN ?", instanceIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (cir *channelInstanceRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.ChannelInstance, error) {
  transaction := tx
  if transaction == nil {
    transaction = cir.db
  }

  var results []*types.ChannelInstance

  if err := transaction.WithContext(ctx).
    Order("instance_id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (cir *channelInstanceRepo) UpdateByInstanceID(ctx context.Context, tx *gorm.DB, instanceID string, token string, fromAddress string) error {
  transaction := tx
  if transaction == nil {
    transaction = cir.db
  }

  updates := map[string]interface{}{}
  if token != "" {
    updates["token"] = token
  }
  if fromAddress != "" {
    updates["from_address"] = fromAddress
  }
  if len(updates) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.ChannelInstance{}).
    Where("instance_id = ?", instanceID).
    Updates(updates).Error; err != nil {
    return err
  }

  return nil
}
