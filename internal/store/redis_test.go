// internal/store/redis_test.go
package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoflow/internal/common/logger"
	"autoflow/internal/models"
)

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisBackend(client, "autoflow:applications", logger.NewNoOpLogger()), mr
}

func TestRedisBackendMissingKeyIsEmpty(t *testing.T) {
	backend, _ := newRedisBackend(t)

	apps, err := backend.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, apps)
}

func TestRedisBackendRoundTrip(t *testing.T) {
	backend, _ := newRedisBackend(t)
	ctx := context.Background()

	in := []models.CreditApplication{
		{ID: 1001, Token: "a", Status: models.StatusDocumentsPending},
		{ID: 1002, Token: "b", Status: models.StatusContractSent},
	}
	require.NoError(t, backend.Save(ctx, in))

	out, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.StatusContractSent, out[1].Status)
}

func TestRedisBackendCorruptValueQuarantined(t *testing.T) {
	backend, mr := newRedisBackend(t)
	ctx := context.Background()

	mr.Set("autoflow:applications", "{definitely not json")

	apps, err := backend.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, apps)

	// main key cleared, corrupt payload preserved under a side key
	assert.False(t, mr.Exists("autoflow:applications"))
	var backup string
	for _, key := range mr.Keys() {
		backup = key
	}
	require.NotEmpty(t, backup)
	assert.Contains(t, backup, "autoflow:applications.corrupt-")
	val, err := mr.Get(backup)
	require.NoError(t, err)
	assert.Equal(t, "{definitely not json", val)
}

func TestRedisBackendSaveNilWritesEmptyArray(t *testing.T) {
	backend, mr := newRedisBackend(t)

	require.NoError(t, backend.Save(context.Background(), nil))
	val, err := mr.Get("autoflow:applications")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", val)
}
