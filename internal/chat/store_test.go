package chat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ragbot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func sampleSessions() []models.ChatSession {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return []models.ChatSession{{
		ID:        "1740823200000",
		Title:     "Payment plans",
		UpdatedAt: ts,
		Messages: []models.Message{
			{ID: "m1", Text: "Payment plans?", IsUser: true, Timestamp: ts},
			{ID: "m2", Text: "Plans run for 3 years.", Timestamp: ts},
		},
	}}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat_sessions.json")
	s := NewFileStore(path)
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Save(ctx, sampleSessions()))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, sampleSessions(), got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"chatSessions"`)
	require.Contains(t, string(raw), `"isUser": true`)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)

	// the widget treats an unreadable store as empty and overwrites it
	w := NewWidget(NewFileStore(path), echo("hi"), false)
	require.NoError(t, w.Open(context.Background()))
	got, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "ragbot"), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Save(ctx, sampleSessions()))
	require.True(t, mr.Exists("ragbot:chatSessions"))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, sampleSessions(), got)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	s, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("ragbot:chatSessions", "nope"))
	_, err := s.Load(context.Background())
	require.Error(t, err)
}

func TestRedisStoreBacksWidget(t *testing.T) {
	s, _ := setupRedisStore(t)
	w := NewWidget(s, echo("Block C is ready."), false)
	require.NoError(t, w.Open(context.Background()))
	_, err := w.SendMessage(context.Background(), "Which blocks are ready?")
	require.NoError(t, err)

	again := NewWidget(s, echo(""), false)
	require.NoError(t, again.Open(context.Background()))
	active, ok := again.Active()
	require.True(t, ok)
	require.Equal(t, "Which blocks are ready?", active.Title)
	require.Len(t, active.Messages, 3)
}

func TestOpenStore(t *testing.T) {
	s, closeFn, err := OpenStore(filepath.Join(t.TempDir(), "s.json"), "")
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	require.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	s, closeFn, err = OpenStore("", "redis://"+mr.Addr())
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, s)
	require.NoError(t, closeFn())

	_, _, err = OpenStore("", "://bad")
	require.Error(t, err)
}
