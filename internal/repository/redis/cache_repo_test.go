package redis

import (
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheRepo_NilClient(t *testing.T) {
	repo, err := NewCacheRepo(nil, "jlpt:")

	assert.Error(t, err, "nil клиент должен возвращать ошибку")
	assert.Nil(t, repo)
}

func TestCacheRepo_KeyPrefix(t *testing.T) {
	// Клиент не подключается до первой команды
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"127.0.0.1:0"}})
	defer client.Close()

	repo, err := NewCacheRepo(client, "jlpt:")
	require.NoError(t, err)

	assert.Equal(t, "jlpt:proxy:dict:/search", repo.key("proxy:dict:/search"))
}
