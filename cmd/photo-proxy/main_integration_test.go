//go:build integration

package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/photo-fetcher/internal/testutil"
	"github.com/Sternrassler/photo-fetcher/pkg/config"
	"github.com/Sternrassler/photo-fetcher/pkg/store"
)

func setupTestRedisAddr(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() { redisC.Terminate(ctx) })

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}
	return host + ":" + port.Port()
}

func TestRedisBackend(t *testing.T) {
	addr := setupTestRedisAddr(t)

	mock := testutil.NewMockPicsum(30)
	defer mock.Close()

	cfg := testConfig(mock.URL())
	cfg.Store = config.StoreConfig{Driver: config.DriverRedis, RedisAddr: addr, Feed: "picsum"}

	srv, _ := setupTestServer(t, mock, cfg)

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d, want 200", resp.StatusCode)
	}

	doRequest(t, http.MethodPost, srv.URL+"/photos/next")
	doRequest(t, http.MethodPost, srv.URL+"/photos/reset")
	_, body := doRequest(t, http.MethodPost, srv.URL+"/photos/next")

	if snap := decodeSnapshot(t, body); len(snap.Records) != 30 {
		t.Errorf("records = %d, want 30", len(snap.Records))
	}
	if mock.RequestCount() != 1 {
		t.Errorf("RequestCount() = %d, page 1 should be served from Redis after reset", mock.RequestCount())
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	n, err := rdb.Exists(context.Background(), store.PageKey("picsum", cfg.API.PageSize).String()).Result()
	if err != nil || n != 1 {
		t.Errorf("page 1 should be stored under a key carrying the page size: exists = %d, err = %v", n, err)
	}
}

func TestRedisBackend_Unreachable(t *testing.T) {
	_, err := openBackends(context.Background(), config.StoreConfig{Driver: config.DriverRedis, RedisAddr: "127.0.0.1:1"}, 30)
	if err == nil {
		t.Error("openBackends() should fail when Redis is unreachable")
	}
}
