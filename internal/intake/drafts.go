// internal/intake/drafts.go
package intake

import (
	"context"
	stderrors "errors"
	"time"

	"talent-intake/internal/common/database"
	"talent-intake/internal/common/errors"

	"github.com/google/uuid"
)

// DraftStore keeps drafts in Redis under draft:<id>; every save renews the TTL.
type DraftStore struct {
	redis *database.RedisClient
	ttl   time.Duration
}

func NewDraftStore(rc *database.RedisClient, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &DraftStore{redis: rc, ttl: ttl}
}

func draftKey(id string) string {
	return "draft:" + id
}

func (s *DraftStore) Create(ctx context.Context, now time.Time) (*Draft, error) {
	d := NewDraft(uuid.New().String(), now)
	if err := s.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	var d Draft
	err := s.redis.GetJSON(ctx, draftKey(id), &d)
	if stderrors.Is(err, database.ErrCacheMiss) {
		return nil, errors.NewDraftNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewFetchFailedError("draft", err)
	}
	if d.Errors == nil {
		d.Errors = map[string]string{}
	}
	if d.Data.TopSkills == nil {
		d.Data.TopSkills = []string{}
	}
	return &d, nil
}

func (s *DraftStore) Save(ctx context.Context, d *Draft) error {
	if err := s.redis.SetJSON(ctx, draftKey(d.ID), d, s.ttl); err != nil {
		return errors.NewExternalServiceError("redis", err)
	}
	return nil
}

// Lock takes the per-draft submit lock. ok is false when another submit holds it.
func (s *DraftStore) Lock(ctx context.Context, id string, ttl time.Duration) (release func(), ok bool, err error) {
	key := draftKey(id) + ":lock"
	token := uuid.New().String()

	ok, err = s.redis.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, errors.NewExternalServiceError("redis", err)
	}
	if !ok {
		return nil, false, nil
	}

	return func() {
		// only release our own lock
		if current, err := s.redis.Client.Get(context.Background(), key).Result(); err == nil && current == token {
			s.redis.Client.Del(context.Background(), key)
		}
	}, true, nil
}
