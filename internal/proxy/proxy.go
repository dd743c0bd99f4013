package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

// DefaultMaxBytes ограничивает размеры тела запроса и ответа upstream
const DefaultMaxBytes = 10 << 20

// ErrBodyTooLarge - тело запроса клиента больше лимита
var ErrBodyTooLarge = errors.New("request body too large")

// hopHeaders не пересылаются (RFC 7230, 6.1); Cookie, Authorization и Host принадлежат нашему API.
// Accept-Encoding согласует транспорт: он сам распаковывает gzip, а клиенту уходит тело без сжатия.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Cookie",
	"Authorization",
	"Host",
	"Accept-Encoding",
}

// Cache - хранилище ответов (реализуется redis.CacheRepo)
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Response - ответ upstream, который передается клиенту как есть
type Response struct {
	StatusCode  int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	Cached      bool   `json:"-"`
}

// Forwarder пересылает запросы одному upstream API
type Forwarder struct {
	Name         string
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	// Timeout - явный таймаут запроса; 0 - только контекст входящего запроса
	Timeout time.Duration
	// Cache и CacheTTL включают кеширование успешных GET ответов
	Cache    Cache
	CacheTTL time.Duration
	// MaxBytes - лимит тела запроса и ответа; 0 - DefaultMaxBytes
	MaxBytes int64

	Client *http.Client
	Log    *zap.Logger
}

// UnavailableMessage - текст ошибки для клиента при недоступном upstream
func (f *Forwarder) UnavailableMessage() string {
	return fmt.Sprintf("upstream %s unavailable", f.Name)
}

// Forward выполняет запрос к upstream. Статус, Content-Type и тело upstream
// возвращаются без изменений, включая ошибочные статусы. Ошибка транспорта
// или таймаут возвращают apperrors.ErrUpstream.
func (f *Forwarder) Forward(ctx context.Context, method, path, rawQuery string, header http.Header, body io.Reader) (*Response, error) {
	log := f.logger()
	target := f.targetURL(path, rawQuery)
	cacheable := f.Cache != nil && f.CacheTTL > 0 && method == http.MethodGet
	cacheKey := f.cacheKey(path, rawQuery)

	if cacheable {
		var cached Response
		if err := f.Cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Warn("Ошибка чтения кеша", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperrors.ErrUpstream, err)
	}
	req.Header = outboundHeader(header)
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		keyHeader := f.APIKeyHeader
		if keyHeader == "" {
			keyHeader = "X-API-Key"
		}
		req.Header.Set(keyHeader, f.APIKey)
	}

	started := time.Now()
	resp, err := f.client().Do(req)
	if err != nil {
		log.Warn("Upstream недоступен",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrUpstream, f.Name, err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, f.maxBytes())
	if err != nil {
		log.Warn("Ошибка чтения ответа upstream", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: read body: %v", apperrors.ErrUpstream, f.Name, err)
	}

	out := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}
	log.Debug("Ответ upstream",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if cacheable && resp.StatusCode == http.StatusOK {
		// Кеш не должен зависеть от отмены входящего запроса
		if err := f.Cache.SetJSON(context.WithoutCancel(ctx), cacheKey, out, f.CacheTTL); err != nil {
			log.Warn("Ошибка записи в кеш", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return out, nil
}

func (f *Forwarder) targetURL(path, rawQuery string) string {
	target := strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

func (f *Forwarder) cacheKey(path, rawQuery string) string {
	return "proxy:" + f.Name + ":" + path + "?" + rawQuery
}

func (f *Forwarder) maxBytes() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

func (f *Forwarder) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Forwarder) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}

// outboundHeader копирует заголовки клиента без hop-by-hop и учетных данных
func outboundHeader(in http.Header) http.Header {
	out := in.Clone()
	if out == nil {
		out = http.Header{}
	}
	// Заголовки, перечисленные в Connection, тоже hop-by-hop
	for _, v := range out.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out.Del(name)
			}
		}
	}
	for _, h := range hopHeaders {
		out.Del(h)
	}
	return out
}

// ReadBody читает тело запроса для повторной отправки (nil для пустого тела).
// Тело больше лимита - ErrBodyTooLarge.
func (f *Forwarder) ReadBody(r io.Reader) (io.Reader, error) {
	if r == nil {
		return nil, nil
	}
	data, err := readLimited(r, f.maxBytes())
	if errors.Is(err, errTooLarge) {
		return nil, ErrBodyTooLarge
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return bytes.NewReader(data), nil
}

var errTooLarge = errors.New("body exceeds size limit")

// readLimited читает не больше limit байт; лишний байт означает превышение лимита
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", errTooLarge, limit)
	}
	return data, nil
}
