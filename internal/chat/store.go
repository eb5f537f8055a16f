package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"ragbot/internal/models"
	"ragbot/internal/util"

	"github.com/redis/go-redis/v9"
)

// StorageKey is the single key under which the whole session list is stored.
const StorageKey = "chatSessions"

// SessionStore loads and saves the full session list. Every mutation is a
// complete read-modify-write; the last writer wins.
type SessionStore interface {
	Load(ctx context.Context) ([]models.ChatSession, error)
	Save(ctx context.Context, sessions []models.ChatSession) error
}

// FileStore keeps sessions in a JSON file holding one StorageKey entry.
type FileStore struct {
	path string
}

var _ SessionStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns nil when the file does not exist yet.
func (s *FileStore) Load(ctx context.Context) ([]models.ChatSession, error) {
	_ = ctx
	var doc map[string][]models.ChatSession
	if err := util.ReadJSON(s.path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return doc[StorageKey], nil
}

func (s *FileStore) Save(ctx context.Context, sessions []models.ChatSession) error {
	_ = ctx
	return util.WriteJSONAtomic(s.path, map[string][]models.ChatSession{StorageKey: sessions})
}

// RedisStore keeps the session list as one JSON string value.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ SessionStore = (*RedisStore)(nil)

// NewRedisStore stores sessions under namespace:chatSessions, or chatSessions
// when namespace is empty.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	key := StorageKey
	if namespace != "" {
		key = namespace + ":" + StorageKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]models.ChatSession, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	var sessions []models.ChatSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *RedisStore) Save(ctx context.Context, sessions []models.ChatSession) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// OpenStore picks Redis when redisURL is set, otherwise the JSON file at path.
func OpenStore(path, redisURL string) (SessionStore, func() error, error) {
	if redisURL == "" {
		return NewFileStore(path), func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return NewRedisStore(client, "ragbot"), client.Close, nil
}
