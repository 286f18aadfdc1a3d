package redisclient

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/ncecere/usage_dashboard/internal/config"
)

func TestNewDisabled(t *testing.T) {
	if client := New(config.RedisConfig{}); client != nil {
		t.Fatalf("expected nil client without url")
	}
	if err := Ping(context.Background(), nil); err == nil {
		t.Fatalf("expected error pinging nil client")
	}
}

func TestNewAndPing(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer server.Close()

	for _, url := range []string{"redis://" + server.Addr() + "/0", server.Addr()} {
		client := New(config.RedisConfig{URL: url, PoolSize: 2})
		if client == nil {
			t.Fatalf("expected client for %q", url)
		}
		if err := Ping(context.Background(), client); err != nil {
			t.Fatalf("ping %q: %v", url, err)
		}
		if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
			t.Fatalf("set via %q: %v", url, err)
		}
		client.Close()
	}
}
