package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type settings struct {
	Threshold float64  `json:"threshold"`
	Tags      []string `json:"tags"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	def := settings{Threshold: 75}
	got, err := Get(ctx, s, "settings", def)
	if err != nil {
		t.Fatalf("get missing key: %v", err)
	}
	if got.Threshold != 75 || got.Tags != nil {
		t.Fatalf("expected default value, got %+v", got)
	}

	if err := Set(ctx, s, "settings", settings{Threshold: 80, Tags: []string{"vip"}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err = Get(ctx, s, "settings", def)
	if err != nil {
		t.Fatalf("get stored key: %v", err)
	}
	if got.Threshold != 80 || len(got.Tags) != 1 || got.Tags[0] != "vip" {
		t.Fatalf("expected stored value, got %+v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedis(client, "crm:")
	exerciseStore(t, store)

	if !mr.Exists("crm:settings") {
		t.Fatalf("expected key to be written with prefix")
	}
}

func TestGetReportsCorruptValue(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	if err := s.Save(ctx, "settings", []byte("{not json")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Get(ctx, s, "settings", settings{Threshold: 1})
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if got.Threshold != 1 {
		t.Fatalf("expected default on error, got %+v", got)
	}
}

type storeConfig struct {
	backend  string
	redisURL string
}

func (c storeConfig) GetDatabaseURL() string    { return "" }
func (c storeConfig) GetRedisURL() string       { return c.redisURL }
func (c storeConfig) GetRedisTLSInsecure() bool { return false }
func (c storeConfig) GetStoreBackend() string   { return c.backend }
func (c storeConfig) GetStoreKeyPrefix() string { return "test:" }

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, storeConfig{backend: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := mem.Store.(*Memory); !ok || mem.Health != nil {
		t.Fatalf("expected memory store without health check, got %T", mem.Store)
	}

	mr := miniredis.RunT(t)
	backend, err := Open(ctx, storeConfig{backend: "redis", redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer backend.Close()
	if err := backend.Health.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	exerciseStore(t, backend.Store)
	if !mr.Exists("test:settings") {
		t.Fatalf("expected prefixed key in redis")
	}

	if _, err := Open(ctx, storeConfig{backend: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
