package illustration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{
		APIKey:     "sk-test",
		BaseURL:    server.URL + "/v1",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
}

func TestClient_Generate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Japanese watercolor painting of Red Fox", body["prompt"])
		assert.Equal(t, "dall-e-3", body["model"])
		assert.Equal(t, "1024x1024", body["size"])
		assert.Equal(t, "hd", body["quality"])
		assert.EqualValues(t, 1, body["n"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/fox.png"}]}`))
	})

	url, err := c.Generate(context.Background(), "Japanese watercolor painting of Red Fox")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/fox.png", url)
}

func TestClient_GenerateRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/owl.png"}]}`))
	})

	url, err := c.Generate(context.Background(), "owl")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/owl.png", url)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_GenerateRejected(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy violation","type":"invalid_request_error"}}`))
	})

	_, err := c.Generate(context.Background(), "owl")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	var statusErr *upstream.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Contains(t, err.Error(), "content policy violation")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GenerateEmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	})

	_, err := c.Generate(context.Background(), "owl")
	assert.ErrorIs(t, err, apperr.ErrParse)
}
