package services

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/repos"
	"github.com/yungbote/caresupport-backend/internal/types"
)

// CredentialService resolves outbound channel credentials by instance id. It
// keeps an in-process cache in front of the store, warmed at startup and
// refilled lazily on miss. It is an injected dependency, not a process-wide
// singleton.
type CredentialService interface {
	Get(ctx context.Context, instanceID string) (*types.ChannelInstance, error)
	Upsert(ctx context.Context, instanceID string, token string, fromAddress string) (*types.ChannelInstance, error)
	List(ctx context.Context) ([]*types.ChannelInstance, error)
	WarmCache(ctx context.Context) error
}

type credentialService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.ChannelInstanceRepo
	mu    sync.RWMutex
	cache map[string]*types.ChannelInstance
}

func NewCredentialService(db *gorm.DB, log *logger.Logger, repo repos.ChannelInstanceRepo) CredentialService {
	serviceLog := log.With("service", "CredentialService")
	return &credentialService{
		db:    db,
		log:   serviceLog,
		repo:  repo,
		cache: make(map[string]*types.ChannelInstance),
	}
}

func (cs *credentialService) Get(ctx context.Context, instanceID string) (*types.ChannelInstance, error) {
	if instanceID == "" {
		instanceID = types.DefaultChannelInstanceID
	}

	cs.mu.RLock()
	cached, ok := cs.cache[instanceID]
	cs.mu.RUnlock()
	if ok {
		return cached, nil
	}

	found, err := cs.repo.GetByInstanceIDs(ctx, nil, []string{instanceID})
	if err != nil {
		return nil, fmt.Errorf("error fetching channel instance: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: channel instance %q", ErrNotFound, instanceID)
	}

	cs.mu.Lock()
	cs.cache[instanceID] = found[0]
	cs.mu.Unlock()

	return found[0], nil
}

func (cs *credentialService) Upsert(ctx context.Context, instanceID string, token string, fromAddress string) (*types.ChannelInstance, error) {
	if instanceID == "" {
		return nil, fmt.Errorf("%w: instance id required", ErrValidation)
	}
	if token == "" && fromAddress == "" {
		return nil, fmt.Errorf("%w: token or from address required", ErrValidation)
	}

	var result *types.ChannelInstance
	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := cs.repo.GetByInstanceIDs(ctx, tx, []string{instanceID})
		if err != nil {
			return fmt.Errorf("error fetching channel instance: %w", err)
		}
		if len(existing) == 0 {
			if token == "" || fromAddress == "" {
				return fmt.Errorf("%w: new channel instance requires token and from address", ErrValidation)
			}
			created, err := cs.repo.Create(ctx, tx, []*types.ChannelInstance{{
				InstanceID:  instanceID,
				Token:       token,
				FromAddress: fromAddress,
			}})
			if err != nil {
				return fmt.Errorf("error creating channel instance: %w", err)
			}
			result = created[0]
			return nil
		}
		if err := cs.repo.UpdateByInstanceID(ctx, tx, instanceID, token, fromAddress); err != nil {
			return fmt.Errorf("error updating channel instance: %w", err)
		}
		updated, err := cs.repo.GetByInstanceIDs(ctx, tx, []string{instanceID})
		if err != nil {
			return fmt.Errorf("error refetching channel instance: %w", err)
		}
		result = updated[0]
		return nil
	}); err != nil {
		cs.log.Warn("Upsert transaction error", "instance_id", instanceID, "error", err)
		return nil, err
	}

	cs.mu.Lock()
	cs.cache[instanceID] = result
	cs.mu.Unlock()

	return result, nil
}

func (cs *credentialService) List(ctx context.Context) ([]*types.ChannelInstance, error) {
	all, err := cs.repo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error listing channel instances: %w", err)
	}
	return all, nil
}

func (cs *credentialService) WarmCache(ctx context.Context) error {
	all, err := cs.repo.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("error warming credential cache: %w", err)
	}

	cs.mu.Lock()
	for _, ci := range all {
		cs.cache[ci.InstanceID] = ci
	}
	cs.mu.Unlock()

	cs.log.Info("Credential cache warmed", "count", len(all))
	return nil
}
