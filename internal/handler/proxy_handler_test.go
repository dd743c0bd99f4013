package handler

import (
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/jlpt-api/internal/proxy"
)

func newProxyRouter(name, baseURL string) *gin.Engine {
	h := NewProxyHandler(&proxy.Forwarder{Name: name, BaseURL: baseURL}, nil)
	r := gin.New()
	r.Any("/api/"+name+"/*path", h.Forward)
	return r
}

func TestProxyHandler_RelaysUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no entry for ` + r.URL.Query().Get("q") + `"}`))
	}))
	defer upstream.Close()
	r := newProxyRouter("dict", upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/dict/search?q=neko", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code, "Статус upstream передается клиенту")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"no entry for neko"}`, w.Body.String())
}

func TestProxyHandler_PostBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `","method":"` + r.Method + `"}`))
	}))
	defer upstream.Close()
	r := newProxyRouter("jlpt", upstream.URL)

	w := doJSON(r, http.MethodPost, "/api/jlpt/questions/batch", map[string]string{"level": "n1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"path":"/questions/batch","method":"POST"}`, w.Body.String())
}

func TestProxyHandler_UpstreamUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()
	r := newProxyRouter("tracau", upstream.URL)

	w := doJSON(r, http.MethodGet, "/api/tracau/s/taberu", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"upstream tracau unavailable"}`, w.Body.String())
}

func TestProxyHandler_BodyTooLarge(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Слишком большое тело не должно уходить во внешний API")
	}))
	defer upstream.Close()
	h := NewProxyHandler(&proxy.Forwarder{Name: "jlpt", BaseURL: upstream.URL, MaxBytes: 16}, nil)
	r := gin.New()
	r.Any("/api/jlpt/*path", h.Forward)

	req := httptest.NewRequest(http.MethodPost, "/api/jlpt/questions", strings.NewReader(strings.Repeat("x", 17)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
