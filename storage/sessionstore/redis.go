package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/study"
)

const keyPrefix = "darasa:session:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ study.SessionStore = (*redisStore)(nil)

func NewRedisStore(conf core.RedisConfig, ttl time.Duration) *redisStore {
	return &redisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
		ttl: ttl,
	}
}

func (s *redisStore) Save(ctx context.Context, sess study.Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = s.client.Set(ctx, keyPrefix+sess.ID, doc, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (study.Session, error) {
	doc, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return study.Session{}, study.ErrSessionNotFound
		}
		return study.Session{}, errors.Wrap(err, "getting session")
	}

	var sess study.Session
	if err = json.Unmarshal(doc, &sess); err != nil {
		return study.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
