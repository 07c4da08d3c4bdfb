package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vaultcast/storefront-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestGetDelConsumesValue(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.DeliveryKey("sess-1", "video-1")
	if err := client.Set(ctx, key, "https://cdn.example/v1", 10*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	link, err := client.GetDel(ctx, key)
	if err != nil {
		t.Fatalf("getdel failed: %v", err)
	}
	if link != "https://cdn.example/v1" {
		t.Fatalf("expected stored link, got %q", link)
	}
	if _, err := client.GetDel(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil on second take, got %v", err)
	}
}

func TestSAddWithTTLRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.DeliveryIndexKey("sess-1")
	if err := client.SAddWithTTL(ctx, key, time.Minute, "video-1"); err != nil {
		t.Fatalf("sadd failed: %v", err)
	}
	if err := client.SAddWithTTL(ctx, key, time.Minute, "video-2"); err != nil {
		t.Fatalf("sadd failed: %v", err)
	}
	members, err := client.SMembers(ctx, key)
	if err != nil {
		t.Fatalf("smembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected two members, got %v", members)
	}
	if len(mock.expireCalls) != 2 {
		t.Fatalf("expected expire on every add, got %d", len(mock.expireCalls))
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "sf:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "sf:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.DeliveryKey("sess", "video"); got != "sf:delivery:sess:video" {
		t.Fatalf("unexpected delivery key %s", got)
	}
	if got := client.DeliveryIndexKey("sess"); got != "sf:delivery:index:sess" {
		t.Fatalf("unexpected delivery index key %s", got)
	}
	if got := client.LockKey("payment-expiry"); got != "sf:lock:payment-expiry" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.AdminSessionKey("jti"); got != "sf:admin_session:jti" {
		t.Fatalf("unexpected admin session key %s", got)
	}
	if got := client.DeliveryKey("sess", ""); got != "sf:delivery:sess" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestKeyNamespaceOverride(t *testing.T) {
	client := &Client{namespace: " shop "}
	if got := client.LockKey("cron-worker:prod"); got != "shop:lock:cron-worker:prod" {
		t.Fatalf("unexpected lock key %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.RedisConfig{
		URL:         "redis://:secret@localhost:6380/3",
		DB:          1,
		PoolSize:    7,
		DialTimeout: 2 * time.Second,
	}
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" {
		t.Fatalf("unexpected addr/password %s/%s", opts.Addr, opts.Password)
	}
	if opts.DB != 3 {
		t.Fatalf("url db should win, got %d", opts.DB)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != 2*time.Second {
		t.Fatalf("config should fill unset pool settings, got %d %s", opts.PoolSize, opts.DialTimeout)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 2 {
		t.Fatalf("unexpected address options %+v", opts)
	}

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
	if _, err := (&Client{}).Get(context.Background(), "k"); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type mockCmdable struct {
	data        map[string]string
	sets        map[string]map[string]struct{}
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		sets: make(map[string]map[string]struct{}),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) GetDel(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(m.data, key)
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd {
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	var added int64
	for _, member := range members {
		k := fmt.Sprint(member)
		if _, exists := set[k]; !exists {
			set[k] = struct{}{}
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (m *mockCmdable) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	var out []string
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return redis.NewStringSliceResult(out, nil)
}
