package proxy

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

// memoryCache - кеш в памяти для тестов
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	ttls  map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	c.ttls[key] = expiration
	return nil
}

func TestForwarder_RelaysResponseVerbatim(t *testing.T) {
	// Arrange
	var got *http.Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"word":"食べる"}`))
	}))
	defer upstream.Close()

	f := &Forwarder{Name: "dict", BaseURL: upstream.URL + "/v1/", APIKey: "secret", APIKeyHeader: "X-Dict-Key"}
	header := http.Header{}
	header.Set("Authorization", "Bearer user-token")
	header.Set("Cookie", "session=1")
	header.Set("Connection", "X-Custom-Hop")
	header.Set("X-Custom-Hop", "1")
	header.Set("X-Request-Id", "abc")

	// Act
	resp, err := f.Forward(context.Background(), http.MethodGet, "/search", "q=taberu", header, nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode, "Статус upstream передается как есть")
	assert.Equal(t, "application/json; charset=utf-8", resp.ContentType)
	assert.Equal(t, `{"word":"食べる"}`, string(resp.Body))

	require.NotNil(t, got)
	assert.Equal(t, "/v1/search", got.URL.Path)
	assert.Equal(t, "q=taberu", got.URL.RawQuery)
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "secret", got.Header.Get("X-Dict-Key"))
	assert.Empty(t, got.Header.Get("Authorization"), "Токен пользователя не уходит во внешний API")
	assert.Empty(t, got.Header.Get("Cookie"))
	assert.Empty(t, got.Header.Get("X-Custom-Hop"), "Заголовки из Connection не пересылаются")
	assert.Equal(t, "abc", got.Header.Get("X-Request-Id"))
}

func TestForwarder_PostBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `,"method":"` + r.Method + `"}`))
	}))
	defer upstream.Close()

	f := &Forwarder{Name: "jlpt", BaseURL: upstream.URL}
	body, err := f.ReadBody(strings.NewReader(`{"level":"n3"}`))
	require.NoError(t, err)

	resp, err := f.Forward(context.Background(), http.MethodPost, "questions", "", http.Header{}, body)

	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":{"level":"n3"},"method":"POST"}`, string(resp.Body))
}

func TestForwarder_TransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // соединение будет отклонено

	f := &Forwarder{Name: "tracau", BaseURL: upstream.URL}

	_, err := f.Forward(context.Background(), http.MethodGet, "/s", "", nil, nil)

	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	assert.Equal(t, "upstream tracau unavailable", f.UnavailableMessage())
}

func TestForwarder_Timeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	f := &Forwarder{Name: "tracau", BaseURL: upstream.URL, Timeout: 50 * time.Millisecond}

	start := time.Now()
	_, err := f.Forward(context.Background(), http.MethodGet, "/slow", "", nil, nil)

	assert.True(t, errors.Is(err, apperrors.ErrUpstream), "Таймаут считается недоступностью upstream")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestForwarder_CachesSuccessfulGet(t *testing.T) {
	// Arrange
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("q") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	cache := newMemoryCache()
	f := &Forwarder{Name: "dict", BaseURL: upstream.URL, Cache: cache, CacheTTL: time.Hour}

	// Act
	first, err := f.Forward(context.Background(), http.MethodGet, "/search", "q=neko", nil, nil)
	require.NoError(t, err)
	second, err := f.Forward(context.Background(), http.MethodGet, "/search", "q=neko", nil, nil)
	require.NoError(t, err)

	// Assert
	assert.False(t, first.Cached)
	assert.True(t, second.Cached, "Повторный GET берется из кеша")
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, "application/json", second.ContentType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, time.Hour, cache.ttls["proxy:dict:/search?q=neko"])

	// Ошибочные ответы не кешируются
	_, err = f.Forward(context.Background(), http.MethodGet, "/search", "q=missing", nil, nil)
	require.NoError(t, err)
	_, err = f.Forward(context.Background(), http.MethodGet, "/search", "q=missing", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestForwarder_TargetURL(t *testing.T) {
	f := &Forwarder{BaseURL: "https://api.example.com/"}

	assert.Equal(t, "https://api.example.com/words", f.targetURL("/words", ""))
	assert.Equal(t, "https://api.example.com/words?q=a", f.targetURL("words", "q=a"))
}

func TestReadBody_Empty(t *testing.T) {
	f := &Forwarder{Name: "jlpt"}

	body, err := f.ReadBody(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, body)

	body, err = f.ReadBody(nil)
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestForwarder_GzipUpstreamIsDecoded(t *testing.T) {
	// Arrange
	var acceptEncoding string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acceptEncoding = r.Header.Get("Accept-Encoding")
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte(`{"ok":true}`))
		_ = zw.Close()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer upstream.Close()

	cache := newMemoryCache()
	f := &Forwarder{Name: "dict", BaseURL: upstream.URL, Cache: cache, CacheTTL: time.Hour}
	header := http.Header{}
	header.Set("Accept-Encoding", "gzip, deflate, br")

	// Act
	resp, err := f.Forward(context.Background(), http.MethodGet, "/search", "q=inu", header, nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "gzip", acceptEncoding, "Сжатие согласует транспорт, а не браузер")
	assert.Equal(t, `{"ok":true}`, string(resp.Body), "Клиент получает распакованное тело")

	cached, err := f.Forward(context.Background(), http.MethodGet, "/search", "q=inu", header, nil)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, `{"ok":true}`, string(cached.Body), "В кеше хранится распакованное тело")
}

func TestForwarder_OversizedResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[1,2,3,4,5]}`))
	}))
	defer upstream.Close()

	f := &Forwarder{Name: "jlpt", BaseURL: upstream.URL, MaxBytes: 8}

	resp, err := f.Forward(context.Background(), http.MethodGet, "/big", "", nil, nil)

	assert.Nil(t, resp, "Обрезанный ответ не отдается клиенту")
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestReadBody_Limit(t *testing.T) {
	f := &Forwarder{Name: "jlpt", MaxBytes: 4}

	body, err := f.ReadBody(strings.NewReader("abcd"))
	require.NoError(t, err, "Тело ровно в лимит допустимо")
	data, _ := io.ReadAll(body)
	assert.Equal(t, "abcd", string(data))

	_, err = f.ReadBody(strings.NewReader("abcde"))
	assert.True(t, errors.Is(err, ErrBodyTooLarge))
}
