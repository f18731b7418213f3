package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestDisabledLimiterAllows(t *testing.T) {
	cases := map[string]*Limiter{
		"nil":       nil,
		"no client": {Limit: 1, Window: time.Second},
		"no limit":  {Client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), Limit: 0},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			if l.Enabled() {
				t.Fatal("expected limiter to be disabled")
			}
			ok, retry, err := l.Allow(context.Background(), "ses_1")
			if err != nil || !ok || retry != 0 {
				t.Fatalf("expected allow, got ok=%v retry=%v err=%v", ok, retry, err)
			}
		})
	}
}

func TestWindowDefault(t *testing.T) {
	if got := (&Limiter{}).window(); got != time.Second {
		t.Fatalf("expected 1s default window, got %s", got)
	}
	if got := (&Limiter{Window: time.Minute}).window(); got != time.Minute {
		t.Fatalf("expected configured window, got %s", got)
	}
}

func TestUnreachableRedisReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	l := &Limiter{Client: client, Limit: 1}

	ok, _, err := l.Allow(context.Background(), "ses_1")
	if err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if ok {
		t.Fatal("limiter must not report allowed alongside an error")
	}
}
