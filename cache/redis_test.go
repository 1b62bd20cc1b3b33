package cache_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHook captures pipelined commands instead of sending them.
type recordingHook struct {
	mu   sync.Mutex
	cmds [][]interface{}
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *recordingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.record(cmd)
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.record(cmd)
		}
		return nil
	}
}

func (h *recordingHook) record(cmd redis.Cmder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cmds = append(h.cmds, cmd.Args())
}

func TestRedisSetExpiresTagSets(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	hook := &recordingHook{}
	client.AddHook(hook)

	store := cache.NewRedisStore(client, "mb:")
	err := store.Set(context.Background(), "courts:all", []byte{0x90}, 5*time.Minute, "courts")
	require.NoError(t, err)

	assert.Contains(t, hook.cmds, []interface{}{"sadd", "mb:tag:courts", "courts:all"})
	assert.Contains(t, hook.cmds, []interface{}{"expire", "mb:tag:courts", int64(300), "NX"})
	assert.Contains(t, hook.cmds, []interface{}{"expire", "mb:tag:courts", int64(300), "GT"})
}
